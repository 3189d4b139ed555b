package sequencer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Stage is whatever actually moves things on screen.
type Stage interface {
	// Viewport is the visible height in pixels, or 0 when unknown.
	Viewport() float64
	// ItemHeight is the rendered height of target, or 0 when unknown.
	ItemHeight(target string) float64

	Scroll(ctx context.Context, index int, step ScrollStep, offset float64) error
	Reveal(ctx context.Context, index int, step RevealStep) error
	Wait(ctx context.Context, index int, step WaitStep) error
	Gate(ctx context.Context, index int, step GateStep) error
	Trigger(ctx context.Context, effect Effect) error
}

// Clock paces the timeline.
type Clock interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// SystemClock sleeps on real timers.
type SystemClock struct{}

func (SystemClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

const defaultViewport = 800

// Player interprets a timeline one step at a time. Gates block until Advance is
// called; an Advance with no gate waiting is dropped, and one Advance releases
// exactly one gate. Play can only be stopped by cancelling its context.
type Player struct {
	steps  Timeline
	stage  Stage
	clock  Clock
	logger *zap.Logger

	mu       sync.Mutex
	gate     chan struct{}
	position int
	done     bool
}

func NewPlayer(steps Timeline, stage Stage, clock Clock, logger *zap.Logger) *Player {
	if clock == nil {
		clock = SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Player{
		steps:  steps,
		stage:  stage,
		clock:  clock,
		logger: logger.Named("player"),
	}
}

// Advance releases the gate currently waiting, if any, and reports whether it did.
func (p *Player) Advance() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.gate == nil {
		return false
	}
	close(p.gate)
	p.gate = nil
	return true
}

// Waiting reports whether the player is halted at a gate.
func (p *Player) Waiting() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.gate != nil
}

// Position is the index of the step being played, or len(steps) once finished.
func (p *Player) Position() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.position
}

func (p *Player) Done() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done
}

// Play runs every step in order and returns nil once the last one has finished.
func (p *Player) Play(ctx context.Context) error {
	for i, step := range p.steps {
		p.setPosition(i)

		var lead time.Duration
		if i+1 < len(p.steps) {
			if next, ok := p.steps[i+1].(RevealStep); ok {
				lead = next.Overlap
			}
		}

		if err := p.play(ctx, i, step, lead); err != nil {
			p.logger.Debug("timeline stopped", zap.Int("step", i), zap.Error(err))
			return fmt.Errorf("step %d (%s): %w", i, step.Kind(), err)
		}
	}

	p.mu.Lock()
	p.position = len(p.steps)
	p.done = true
	p.mu.Unlock()
	return nil
}

func (p *Player) play(ctx context.Context, i int, step Step, lead time.Duration) error {
	switch s := step.(type) {
	case WaitStep:
		if err := p.stage.Wait(ctx, i, s); err != nil {
			return err
		}
		return p.clock.Sleep(ctx, s.Duration)

	case ScrollStep:
		if err := p.trigger(ctx, s.OnStart); err != nil {
			return err
		}
		offset := s.Offset
		if s.Center {
			vh := p.stage.Viewport()
			if vh <= 0 {
				vh = defaultViewport
			}
			offset = CenterOffset(vh, p.stage.ItemHeight(s.Target), CenterMargin)
		}
		if err := p.stage.Scroll(ctx, i, s, offset); err != nil {
			return err
		}
		if err := p.clock.Sleep(ctx, s.Duration-lead); err != nil {
			return err
		}
		return p.trigger(ctx, s.OnComplete)

	case RevealStep:
		if err := p.trigger(ctx, s.OnStart); err != nil {
			return err
		}
		if err := p.stage.Reveal(ctx, i, s); err != nil {
			return err
		}
		if err := p.clock.Sleep(ctx, s.Duration-lead); err != nil {
			return err
		}
		return p.trigger(ctx, s.OnComplete)

	case GateStep:
		return p.wait(ctx, i, s)

	default:
		return fmt.Errorf("unknown step %T", step)
	}
}

func (p *Player) wait(ctx context.Context, i int, s GateStep) error {
	release := make(chan struct{})
	p.mu.Lock()
	p.gate = release
	p.mu.Unlock()

	if err := p.stage.Gate(ctx, i, s); err != nil {
		p.clearGate(release)
		return err
	}

	select {
	case <-release:
		return nil
	case <-ctx.Done():
		p.clearGate(release)
		return ctx.Err()
	}
}

func (p *Player) clearGate(release chan struct{}) {
	p.mu.Lock()
	if p.gate == release {
		p.gate = nil
	}
	p.mu.Unlock()
}

func (p *Player) trigger(ctx context.Context, effect Effect) error {
	if effect == EffectNone {
		return nil
	}
	return p.stage.Trigger(ctx, effect)
}

func (p *Player) setPosition(i int) {
	p.mu.Lock()
	p.position = i
	p.mu.Unlock()
}
