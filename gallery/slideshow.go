package gallery

import (
	"context"
	"sync"
	"time"
)

// Slideshow shows one slide at a time. It advances on its own until the viewer
// navigates manually, after which it never resumes.
type Slideshow struct {
	mu       sync.Mutex
	count    int
	active   int
	auto     bool
	interval time.Duration

	manual     chan struct{}
	manualOnce sync.Once
}

func NewSlideshow(count int, interval time.Duration) *Slideshow {
	return &Slideshow{
		count:    count,
		auto:     count > 1,
		interval: interval,
		manual:   make(chan struct{}),
	}
}

func (s *Slideshow) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

func (s *Slideshow) Auto() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.auto
}

func (s *Slideshow) Len() int {
	return s.count
}

// Tick advances one slide, wrapping at the end. It does nothing once auto is off.
func (s *Slideshow) Tick() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.auto || s.count == 0 {
		return false
	}
	s.active = (s.active + 1) % s.count
	return true
}

func (s *Slideshow) Next() {
	s.navigate(func() { s.active = (s.active + 1) % s.count })
}

func (s *Slideshow) Prev() {
	s.navigate(func() { s.active = (s.active - 1 + s.count) % s.count })
}

// GoTo jumps to slide i. Out of range indices are ignored but still stop auto.
func (s *Slideshow) GoTo(i int) {
	s.navigate(func() {
		if i >= 0 && i < s.count {
			s.active = i
		}
	})
}

func (s *Slideshow) navigate(move func()) {
	s.mu.Lock()
	s.auto = false
	if s.count > 0 {
		move()
	}
	s.mu.Unlock()

	s.manualOnce.Do(func() { close(s.manual) })
}

// Run ticks every interval and calls onChange with the new active slide. It returns
// when auto is turned off or ctx is done.
func (s *Slideshow) Run(ctx context.Context, onChange func(active int)) {
	if !s.Auto() || s.interval <= 0 {
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.manual:
			return
		case <-ticker.C:
			if !s.Tick() {
				return
			}
			if onChange != nil {
				onChange(s.Active())
			}
		}
	}
}
