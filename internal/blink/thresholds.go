// Package blink turns a smoothed EAR signal into debounced blink events,
// classifies them by duration and accumulates the resulting PIN digits.
package blink

import (
	"fmt"
	"time"
)

// Thresholds is the immutable parameter set shared by the detector,
// classifier and sequence accumulator.
type Thresholds struct {
	// EARThreshold is the smoothed EAR below which eyes count as closing.
	EARThreshold float64
	// ConsecFrames is how many consecutive below-threshold frames confirm a closure.
	ConsecFrames int
	// MinBlinkInterval is the refractory time after a blink ends before the next can be confirmed.
	MinBlinkInterval time.Duration
	// BlinkDurationThreshold splits quick blinks (shorter) from long ones (equal or longer).
	BlinkDurationThreshold time.Duration
	// MaxBlinks is the PIN length used for registration.
	MaxBlinks int
	// SmoothingWindow is the trailing sample count of the moving average.
	SmoothingWindow int
}

// DefaultThresholds returns the calibrated defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{
		EARThreshold:           0.25,
		ConsecFrames:           3,
		MinBlinkInterval:       500 * time.Millisecond,
		BlinkDurationThreshold: 400 * time.Millisecond,
		MaxBlinks:              4,
		SmoothingWindow:        5,
	}
}

// Validate rejects parameter sets the state machine cannot run with.
func (t Thresholds) Validate() error {
	switch {
	case t.EARThreshold <= 0:
		return fmt.Errorf("ear threshold must be positive, got %v", t.EARThreshold)
	case t.ConsecFrames < 1:
		return fmt.Errorf("consecutive frames must be at least 1, got %d", t.ConsecFrames)
	case t.MinBlinkInterval < 0:
		return fmt.Errorf("min blink interval must not be negative, got %s", t.MinBlinkInterval)
	case t.BlinkDurationThreshold <= 0:
		return fmt.Errorf("blink duration threshold must be positive, got %s", t.BlinkDurationThreshold)
	case t.MaxBlinks < 1:
		return fmt.Errorf("max blinks must be at least 1, got %d", t.MaxBlinks)
	case t.SmoothingWindow < 1:
		return fmt.Errorf("smoothing window must be at least 1, got %d", t.SmoothingWindow)
	}
	return nil
}
