package gallery

import (
	"context"
	"errors"
	"fmt"

	"github.com/aouyang1/memoryframe/view"
)

var (
	ErrEmpty       = errors.New("gallery has no photos")
	ErrUnsupported = errors.New("action not supported in this gallery mode")
)

// Command is a viewer action against the gallery. Index is used by goto, flip and
// unflip; DX and DY by swipe.
type Command struct {
	Action Action  `json:"action"`
	Index  int     `json:"index,omitempty"`
	DX     float64 `json:"dx,omitempty"`
	DY     float64 `json:"dy,omitempty"`
}

// State is a snapshot of whichever arrangement is active.
type State struct {
	Mode      string     `json:"mode"`
	Cards     []Card     `json:"cards,omitempty"`
	Top       int        `json:"top"`
	Active    int        `json:"active"`
	Auto      bool       `json:"auto"`
	Pages     []BookPage `json:"pages,omitempty"`
	Transform *Transform `json:"transform,omitempty"`
}

// Controller owns exactly one arrangement, picked by the page's gallery mode.
type Controller struct {
	mode      view.GalleryMode
	stack     *Stack
	slideshow *Slideshow
	book      *Book
}

// NewController returns nil when the page has no photos, matching the omitted section.
func NewController(page *view.Page) *Controller {
	if !page.HasGallery() {
		return nil
	}

	c := &Controller{mode: page.GalleryMode}
	switch page.GalleryMode {
	case view.GalleryAuto:
		c.slideshow = NewSlideshow(len(page.Items), page.GallerySpeed)
	case view.GalleryBook:
		c.book = NewBook(page.Items)
	default:
		c.stack = NewStack(page.Items)
	}
	return c
}

func (c *Controller) Mode() view.GalleryMode {
	return c.mode
}

// Run drives the slideshow timer; other modes return immediately.
func (c *Controller) Run(ctx context.Context, onChange func(State)) {
	if c == nil || c.slideshow == nil {
		return
	}
	c.slideshow.Run(ctx, func(int) {
		if onChange != nil {
			onChange(c.State())
		}
	})
}

// Apply performs cmd and returns the resulting state.
func (c *Controller) Apply(cmd Command) (State, error) {
	if c == nil {
		return State{}, ErrEmpty
	}

	action := cmd.Action
	if action == ActionSwipe {
		action = Swipe(cmd.DX, cmd.DY)
		if action == ActionNone {
			return c.State(), nil
		}
	}

	switch {
	case c.stack != nil:
		return c.applyStack(action, cmd)
	case c.slideshow != nil:
		return c.applySlideshow(action, cmd)
	default:
		return c.applyBook(action, cmd)
	}
}

func (c *Controller) applyStack(action Action, cmd Command) (State, error) {
	switch action {
	case ActionNext, ActionDismiss:
		direction := -1
		if cmd.DX > 0 {
			direction = 1
		}
		state := c.State()
		if t, ok := c.stack.Dismiss(direction); ok {
			state = c.State()
			state.Transform = &t
		}
		return state, nil
	case ActionPrev:
		c.stack.Restore()
		return c.State(), nil
	default:
		return State{}, fmt.Errorf("%w: %s", ErrUnsupported, action)
	}
}

func (c *Controller) applySlideshow(action Action, cmd Command) (State, error) {
	switch action {
	case ActionNext:
		c.slideshow.Next()
	case ActionPrev:
		c.slideshow.Prev()
	case ActionGoTo:
		c.slideshow.GoTo(cmd.Index)
	default:
		return State{}, fmt.Errorf("%w: %s", ErrUnsupported, action)
	}
	return c.State(), nil
}

func (c *Controller) applyBook(action Action, cmd Command) (State, error) {
	switch action {
	case ActionNext:
		c.book.FlipNext()
	case ActionPrev:
		c.book.FlipPrev()
	case ActionFlip:
		c.book.Flip(cmd.Index)
	case ActionUnflip:
		c.book.Unflip(cmd.Index)
	default:
		return State{}, fmt.Errorf("%w: %s", ErrUnsupported, action)
	}
	return c.State(), nil
}

func (c *Controller) State() State {
	state := State{Mode: c.mode.String(), Top: -1}
	switch {
	case c.stack != nil:
		state.Cards = c.stack.Cards()
		state.Top = c.stack.Top()
	case c.slideshow != nil:
		state.Active = c.slideshow.Active()
		state.Auto = c.slideshow.Auto()
	case c.book != nil:
		state.Pages = c.book.Pages()
	}
	return state
}
