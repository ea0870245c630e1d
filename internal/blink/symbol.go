package blink

import (
	"strings"
	"time"
)

// Symbol is the class of a blink.
type Symbol int

const (
	Quick Symbol = iota
	Long
)

func (s Symbol) String() string {
	if s == Long {
		return "long"
	}
	return "quick"
}

// Digit is the fixed PIN digit for the symbol: quick -> "0", long -> "1".
func (s Symbol) Digit() string {
	if s == Long {
		return "1"
	}
	return "0"
}

// Classify maps a blink duration to a symbol. The threshold itself is long.
func Classify(d, threshold time.Duration) Symbol {
	if d < threshold {
		return Quick
	}
	return Long
}

// Classify maps a completed event using the configured duration threshold.
func (t Thresholds) Classify(ev Event) Symbol {
	return Classify(ev.Duration(), t.BlinkDurationThreshold)
}

// Sequence accumulates symbols until it reaches its target length,
// after which it is frozen.
type Sequence struct {
	target  int
	symbols []Symbol
}

// NewSequence creates an empty sequence with the given target length.
func NewSequence(target int) *Sequence {
	return &Sequence{
		target:  target,
		symbols: make([]Symbol, 0, target),
	}
}

// Append adds a symbol. It reports false and does nothing once complete.
func (q *Sequence) Append(s Symbol) bool {
	if q.IsComplete() {
		return false
	}
	q.symbols = append(q.symbols, s)
	return true
}

// Reset empties the sequence.
func (q *Sequence) Reset() {
	q.symbols = q.symbols[:0]
}

// IsComplete reports whether the target length has been reached.
func (q *Sequence) IsComplete() bool {
	return len(q.symbols) >= q.target
}

func (q *Sequence) Len() int {
	return len(q.symbols)
}

func (q *Sequence) Target() int {
	return q.target
}

// Symbols returns a copy of the accumulated symbols.
func (q *Sequence) Symbols() []Symbol {
	out := make([]Symbol, len(q.symbols))
	copy(out, q.symbols)
	return out
}

// Digits renders the accumulated symbols as a digit string.
func (q *Sequence) Digits() string {
	var b strings.Builder
	b.Grow(len(q.symbols))
	for _, s := range q.symbols {
		b.WriteString(s.Digit())
	}
	return b.String()
}
