// Package sequencer builds and plays the cinematic presentation timeline
package sequencer

import (
	"encoding/json"
	"fmt"
	"time"
)

type Kind string

const (
	KindScroll Kind = "scroll"
	KindReveal Kind = "reveal"
	KindWait   Kind = "wait"
	KindGate   Kind = "gate"
)

// Effect is a side effect fired at the start or end of a step.
type Effect string

const (
	EffectNone           Effect = ""
	EffectStartParticles Effect = "startParticles"
	EffectStopParticles  Effect = "stopParticles"
	EffectPlayVideo      Effect = "playVideo"
	EffectBreathe        Effect = "breathe"
)

// Easing curves understood by the browser driver.
const (
	EaseNone        = "none"
	EasePower2Out   = "power2.out"
	EasePower2InOut = "power2.inOut"
	EaseBounceOut   = "bounce.out"
	EaseElasticOut  = "elastic.out(1, 0.5)"
)

// Step is one entry of a timeline: ScrollStep, RevealStep, WaitStep or GateStep.
type Step interface {
	Kind() Kind
}

// ScrollStep scrolls the viewport to Target. When Center is set the offset is
// computed at play time from the viewport and the target's height.
type ScrollStep struct {
	Target     string        `json:"target"`
	Offset     float64       `json:"offset"`
	Center     bool          `json:"center,omitempty"`
	Duration   time.Duration `json:"-"`
	Ease       string        `json:"ease"`
	OnStart    Effect        `json:"onStart,omitempty"`
	OnComplete Effect        `json:"onComplete,omitempty"`
}

func (ScrollStep) Kind() Kind { return KindScroll }

// Style is an animatable snapshot. Zero-valued fields are left untouched by the driver
// unless they appear in a From or To of the same step.
type Style struct {
	Opacity float64 `json:"opacity"`
	Scale   float64 `json:"scale,omitempty"`
	X       float64 `json:"x,omitempty"`
	Y       float64 `json:"y,omitempty"`
	Rotate  float64 `json:"rotate,omitempty"`
	RotateX float64 `json:"rotateX,omitempty"`
	RotateY float64 `json:"rotateY,omitempty"`
	Filter  string  `json:"filter,omitempty"`
	Height  string  `json:"height,omitempty"`
}

// RevealStep tweens Target from From to To. A nil From animates from the current
// style. Overlap starts the step that much before the previous one finishes.
type RevealStep struct {
	Target     string        `json:"target"`
	Photo      int           `json:"photo"`
	Preset     string        `json:"preset,omitempty"`
	From       *Style        `json:"from,omitempty"`
	To         Style         `json:"to"`
	Duration   time.Duration `json:"-"`
	Overlap    time.Duration `json:"-"`
	Ease       string        `json:"ease"`
	OnStart    Effect        `json:"onStart,omitempty"`
	OnComplete Effect        `json:"onComplete,omitempty"`
}

func (RevealStep) Kind() Kind { return KindReveal }

type WaitStep struct {
	Duration time.Duration `json:"-"`
}

func (WaitStep) Kind() Kind { return KindWait }

// GateStep halts the timeline until the viewer advances it.
type GateStep struct {
	Photo int `json:"photo"`
}

func (GateStep) Kind() Kind { return KindGate }

func seconds(d time.Duration) float64 {
	return d.Seconds()
}

func fromSeconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func (s ScrollStep) MarshalJSON() ([]byte, error) {
	type alias ScrollStep
	return json.Marshal(struct {
		Type     Kind    `json:"type"`
		Duration float64 `json:"duration"`
		alias
	}{KindScroll, seconds(s.Duration), alias(s)})
}

func (r RevealStep) MarshalJSON() ([]byte, error) {
	type alias RevealStep
	return json.Marshal(struct {
		Type     Kind    `json:"type"`
		Duration float64 `json:"duration"`
		Overlap  float64 `json:"overlap,omitempty"`
		alias
	}{KindReveal, seconds(r.Duration), seconds(r.Overlap), alias(r)})
}

func (w WaitStep) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type     Kind    `json:"type"`
		Duration float64 `json:"duration"`
	}{KindWait, seconds(w.Duration)})
}

func (g GateStep) MarshalJSON() ([]byte, error) {
	type alias GateStep
	return json.Marshal(struct {
		Type Kind `json:"type"`
		alias
	}{KindGate, alias(g)})
}

// Timeline is an ordered step list. It serializes as a JSON array of objects
// tagged by "type", with durations in seconds.
type Timeline []Step

// Gates counts the advance signals needed to play the timeline through.
func (t Timeline) Gates() int {
	n := 0
	for _, s := range t {
		if s.Kind() == KindGate {
			n++
		}
	}
	return n
}

func (t *Timeline) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	steps := make(Timeline, 0, len(raw))
	for i, msg := range raw {
		var head struct {
			Type     Kind    `json:"type"`
			Duration float64 `json:"duration"`
			Overlap  float64 `json:"overlap"`
		}
		if err := json.Unmarshal(msg, &head); err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}

		switch head.Type {
		case KindScroll:
			var s ScrollStep
			if err := json.Unmarshal(msg, &s); err != nil {
				return fmt.Errorf("step %d: %w", i, err)
			}
			s.Duration = fromSeconds(head.Duration)
			steps = append(steps, s)
		case KindReveal:
			var r RevealStep
			if err := json.Unmarshal(msg, &r); err != nil {
				return fmt.Errorf("step %d: %w", i, err)
			}
			r.Duration = fromSeconds(head.Duration)
			r.Overlap = fromSeconds(head.Overlap)
			steps = append(steps, r)
		case KindWait:
			steps = append(steps, WaitStep{Duration: fromSeconds(head.Duration)})
		case KindGate:
			var g GateStep
			if err := json.Unmarshal(msg, &g); err != nil {
				return fmt.Errorf("step %d: %w", i, err)
			}
			steps = append(steps, g)
		default:
			return fmt.Errorf("step %d: unknown type %q", i, head.Type)
		}
	}
	*t = steps
	return nil
}
