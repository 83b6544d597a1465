package render

import (
	"time"

	"mii-renderer/internal/evaluator"
)

// Blink defaults.
const (
	DefaultBlinkInterval = 8 * time.Second
	DefaultBlinkDuration = 80 * time.Millisecond
)

// BlinkState is the eye state of a Blinker.
type BlinkState int

const (
	BlinkOpen BlinkState = iota
	BlinkClosed
)

func (s BlinkState) String() string {
	if s == BlinkClosed {
		return "blinking"
	}
	return "open"
}

// ExpressionSetter receives the blink expression changes.
type ExpressionSetter interface {
	SetExpression(e evaluator.Expression)
}

// Blinker closes the eyes for Duration once every Interval. It is polled
// once per frame with a monotonic timestamp; the interval counts from the
// start of the previous blink.
type Blinker struct {
	Interval time.Duration
	Duration time.Duration

	target  ExpressionSetter
	restore evaluator.Expression
	state   BlinkState
	last    time.Duration
}

// NewBlinker starts Open at time zero. restore is the expression shown
// with the eyes open.
func NewBlinker(target ExpressionSetter, restore evaluator.Expression, interval, duration time.Duration) *Blinker {
	if interval <= 0 {
		interval = DefaultBlinkInterval
	}
	if duration <= 0 {
		duration = DefaultBlinkDuration
	}
	return &Blinker{Interval: interval, Duration: duration, target: target, restore: restore}
}

// SetRestore changes the expression shown when the eyes reopen. The blink
// schedule is unchanged.
func (b *Blinker) SetRestore(e evaluator.Expression) { b.restore = e }

// State returns the current eye state.
func (b *Blinker) State() BlinkState { return b.state }

// Update advances the state machine to now and returns the new state.
func (b *Blinker) Update(now time.Duration) BlinkState {
	switch b.state {
	case BlinkOpen:
		if now-b.last >= b.Interval {
			b.last = now
			b.state = BlinkClosed
			b.target.SetExpression(evaluator.ExpressionBlink)
		}
	case BlinkClosed:
		if now-b.last >= b.Duration {
			b.state = BlinkOpen
			b.target.SetExpression(b.restore)
		}
	}
	return b.state
}
