package sequencer

import (
	"math/rand/v2"
	"time"

	"github.com/aouyang1/memoryframe/view"
)

const (
	presetDuration     = 800 * time.Millisecond
	presetDurationLong = 1500 * time.Millisecond
)

// Reveal is a resolved preset: where a photo starts, where it comes to rest, and
// how it gets there.
type Reveal struct {
	From     Style
	To       Style
	Duration time.Duration
	Ease     string
}

// Preset resolves the start state, resting state, duration and easing of t for a
// photo whose resting rotation is tilt. rng is only consulted by the polaroid drop.
func Preset(t view.Transition, tilt float64, rng *rand.Rand) Reveal {
	from := Style{Opacity: 0, Scale: 0.9, Y: 30, Filter: "blur(0px)"}

	switch t {
	case view.TransitionFade:
		from.Scale, from.Y = 1, 0
	case view.TransitionSlideUp:
		from.Scale, from.Y = 1, 100
	case view.TransitionSlideSide:
		from.Scale, from.Y, from.X = 1, 0, 100
	case view.TransitionRotate:
		from.Scale, from.Rotate = 0.5, -15
	case view.TransitionBlur:
		from.Scale, from.Filter = 1.1, "blur(20px)"
	case view.TransitionPolaroid:
		from.Scale, from.Y = 1.2, -500
		from.Rotate = (rng.Float64() - 0.5) * 20
	case view.TransitionFlip:
		from.Scale, from.RotateX = 0.8, 90
	case view.TransitionElastic:
		from.Scale = 0.3
	case view.TransitionDramatic:
		from.Scale, from.Filter = 3, "contrast(2)"
	default:
		from.Scale = 0.95
	}

	r := Reveal{
		From: from,
		To: Style{
			Opacity: 1,
			Scale:   1,
			Rotate:  tilt,
			Filter:  "blur(0px) contrast(1)",
		},
		Duration: presetDuration,
		Ease:     EasePower2Out,
	}

	switch t {
	case view.TransitionPolaroid:
		r.Duration, r.Ease = presetDurationLong, EaseBounceOut
	case view.TransitionElastic:
		r.Duration, r.Ease = presetDurationLong, EaseElasticOut
	}
	return r
}

// CenterMargin is the fraction of the viewport height an item's top must stay below.
const CenterMargin = 0.1

// CenterOffset is the scroll offset that vertically centers an item of height h in
// a viewport of height vh, never letting the item's top rise above margin*vh.
// A non-positive h is treated as half the viewport.
func CenterOffset(vh, h, margin float64) float64 {
	if h <= 0 {
		h = vh / 2
	}
	return max(vh/2-h/2, margin*vh)
}
