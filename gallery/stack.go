// Package gallery holds the interaction state of the three gallery arrangements
package gallery

import (
	"sync"
	"time"

	"github.com/aouyang1/memoryframe/view"
)

// Card is one photo in the manual stack.
type Card struct {
	Index     int     `json:"index"`
	URL       string  `json:"url"`
	Caption   string  `json:"caption,omitempty"`
	Tilt      float64 `json:"tilt"`
	ZIndex    int     `json:"zIndex"`
	Dismissed bool    `json:"dismissed"`
}

// Transform is an off-screen fly-away. X is in percent of the card width.
type Transform struct {
	X        float64       `json:"x"`
	Y        float64       `json:"y"`
	Rotate   float64       `json:"rotate"`
	Opacity  float64       `json:"opacity"`
	Duration time.Duration `json:"duration"`
}

const dismissDuration = 600 * time.Millisecond

// Stack is the manual arrangement: overlapping cards with index 0 on top.
type Stack struct {
	mu    sync.Mutex
	cards []Card
	top   int
}

func NewStack(items []view.Item) *Stack {
	n := len(items)
	cards := make([]Card, n)
	for i, item := range items {
		cards[i] = Card{
			Index:   item.Index,
			URL:     item.URL,
			Caption: item.Caption,
			Tilt:    item.Tilt,
			ZIndex:  n - i,
		}
	}
	return &Stack{cards: cards}
}

// Cards returns a copy of the current cards.
func (s *Stack) Cards() []Card {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Card(nil), s.cards...)
}

// Top is the index of the card currently on top, or -1 once every card is gone.
func (s *Stack) Top() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.top >= len(s.cards) {
		return -1
	}
	return s.top
}

// Dismiss throws the top card off-screen in direction (negative is left). It
// returns false when nothing is left to dismiss.
func (s *Stack) Dismiss(direction int) (Transform, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.top >= len(s.cards) {
		return Transform{}, false
	}

	sign := 1.0
	if direction < 0 {
		sign = -1.0
	}
	card := &s.cards[s.top]
	card.Dismissed = true
	s.top++

	return Transform{
		X:        sign * 150,
		Y:        -20,
		Rotate:   card.Tilt + sign*30,
		Opacity:  0,
		Duration: dismissDuration,
	}, true
}

// Restore brings the most recently dismissed card back on top.
func (s *Stack) Restore() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.top == 0 {
		return false
	}
	s.top--
	s.cards[s.top].Dismissed = false
	return true
}
