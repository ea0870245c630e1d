package blink

import "time"

// Phase is the detector's position in the open/closed cycle.
type Phase int

const (
	// PhaseOpen is the initial state: eyes open or not yet confirmed closed.
	PhaseOpen Phase = iota
	// PhaseClosed means a closure has been confirmed and is in progress.
	PhaseClosed
)

func (p Phase) String() string {
	switch p {
	case PhaseOpen:
		return "open"
	case PhaseClosed:
		return "closed_confirmed"
	default:
		return "unknown"
	}
}

// DetectorState is the full state carried between frames.
type DetectorState struct {
	Phase        Phase
	BelowCount   int
	ClosureStart time.Time
	LastBlinkEnd time.Time
	HasLastBlink bool
}

// Event is a completed blink. It is a value; once emitted it never changes.
type Event struct {
	Start time.Time
	End   time.Time
}

// Duration is End - Start.
func (e Event) Duration() time.Duration {
	return e.End.Sub(e.Start)
}

// Detector is the hysteresis + debounce state machine. It holds only
// parameters; state is passed in and returned so every step is a pure function.
type Detector struct {
	th Thresholds
}

// NewDetector creates a detector for the given thresholds.
func NewDetector(th Thresholds) Detector {
	return Detector{th: th}
}

// Step advances the state machine by one smoothed sample observed at t.
// It returns the new state and, when the eyes reopen after a confirmed
// closure, the completed blink event.
func (d Detector) Step(s DetectorState, sample float64, t time.Time) (DetectorState, Event, bool) {
	if sample < d.th.EARThreshold {
		s.BelowCount++
		if s.Phase == PhaseOpen && s.BelowCount >= d.th.ConsecFrames && d.refractoryElapsed(s, t) {
			s.Phase = PhaseClosed
			s.ClosureStart = t
		}
		return s, Event{}, false
	}

	s.BelowCount = 0
	if s.Phase != PhaseClosed {
		return s, Event{}, false
	}

	ev := Event{Start: s.ClosureStart, End: t}
	s.Phase = PhaseOpen
	s.ClosureStart = time.Time{}
	s.LastBlinkEnd = t
	s.HasLastBlink = true
	return s, ev, true
}

// Reset clears the counter and any closure in progress. The end time of the
// last completed blink is kept so the refractory interval still applies.
func (d Detector) Reset(s DetectorState) DetectorState {
	return DetectorState{
		Phase:        PhaseOpen,
		LastBlinkEnd: s.LastBlinkEnd,
		HasLastBlink: s.HasLastBlink,
	}
}

func (d Detector) refractoryElapsed(s DetectorState, t time.Time) bool {
	if !s.HasLastBlink {
		return true
	}
	return t.Sub(s.LastBlinkEnd) > d.th.MinBlinkInterval
}
