package blink

import (
	"time"

	"blink-pin/internal/ear"
)

// Blink is a completed event together with its classification.
// Accepted is false when the sequence was already complete.
type Blink struct {
	Event    Event
	Symbol   Symbol
	Accepted bool
}

// Observation describes what one frame did to the pipeline.
type Observation struct {
	FaceDetected bool
	Raw          float64
	Smoothed     float64
	State        DetectorState
	// ClosureConfirmed is set on the frame that moved the detector into PhaseClosed.
	ClosureConfirmed bool
	Blink            *Blink
}

// Pipeline chains smoothing, detection, classification and accumulation for
// one capture. It is not safe for concurrent use; frames are processed one
// at a time in arrival order.
type Pipeline struct {
	th       Thresholds
	smoother *ear.Smoother
	detector Detector
	state    DetectorState
	sequence *Sequence
}

// NewPipeline creates a pipeline that completes after target blinks.
// A non-positive target falls back to th.MaxBlinks.
func NewPipeline(th Thresholds, target int) *Pipeline {
	if target <= 0 {
		target = th.MaxBlinks
	}
	return &Pipeline{
		th:       th,
		smoother: ear.NewSmoother(th.SmoothingWindow),
		detector: NewDetector(th),
		sequence: NewSequence(target),
	}
}

// Observe processes one frame captured at t. A nil pair means no face was
// detected: the frame is skipped and the detector state stays frozen.
func (p *Pipeline) Observe(t time.Time, eyes *ear.Pair) Observation {
	if eyes == nil {
		return Observation{State: p.state}
	}

	raw := eyes.Ratio()
	smoothed := p.smoother.Add(raw)

	prev := p.state.Phase
	next, ev, done := p.detector.Step(p.state, smoothed, t)
	p.state = next

	obs := Observation{
		FaceDetected:     true,
		Raw:              raw,
		Smoothed:         smoothed,
		State:            next,
		ClosureConfirmed: prev == PhaseOpen && next.Phase == PhaseClosed,
	}
	if done {
		sym := p.th.Classify(ev)
		obs.Blink = &Blink{
			Event:    ev,
			Symbol:   sym,
			Accepted: p.sequence.Append(sym),
		}
	}
	return obs
}

// Reset clears the accumulated sequence and the detector's closure tracking.
func (p *Pipeline) Reset() {
	p.sequence.Reset()
	p.state = p.detector.Reset(p.state)
}

// Complete reports whether the target number of blinks has been captured.
func (p *Pipeline) Complete() bool {
	return p.sequence.IsComplete()
}

// Digits returns the PIN digits captured so far.
func (p *Pipeline) Digits() string {
	return p.sequence.Digits()
}

// Len is the number of accepted blinks.
func (p *Pipeline) Len() int {
	return p.sequence.Len()
}

// Target is the number of blinks needed to complete.
func (p *Pipeline) Target() int {
	return p.sequence.Target()
}

// State returns the current detector state.
func (p *Pipeline) State() DetectorState {
	return p.state
}
