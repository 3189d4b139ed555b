package gallery

import "math"

// SwipeThreshold is the minimum horizontal travel in pixels for a swipe to count.
const SwipeThreshold = 50.0

type Action string

const (
	ActionNone    Action = ""
	ActionNext    Action = "next"
	ActionPrev    Action = "prev"
	ActionGoTo    Action = "goto"
	ActionFlip    Action = "flip"
	ActionUnflip  Action = "unflip"
	ActionDismiss Action = "dismiss"
	ActionSwipe   Action = "swipe"
)

// Swipe maps a touch gesture to the same action the on-screen controls issue.
// dx is end minus start, so a leftward swipe is negative.
func Swipe(dx, dy float64) Action {
	if math.Abs(dx) <= SwipeThreshold || math.Abs(dy) > math.Abs(dx) {
		return ActionNone
	}
	if dx < 0 {
		return ActionNext
	}
	return ActionPrev
}
