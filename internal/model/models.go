package model

import (
	"errors"
	"time"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrUnknownUser        = errors.New("unknown user")
	ErrCorruptStore       = errors.New("credential store is corrupt")
	ErrIncompleteSequence = errors.New("blink sequence incomplete")
	ErrDeviceUnavailable  = errors.New("landmark source unavailable")
	ErrTooManyAttempts    = errors.New("too many failed attempts")
)

// -------------------- CREDENTIAL MODEL --------------------

// UserCredential is one stored record. The PIN itself is never kept.
type UserCredential struct {
	Username  string    `json:"-"`
	PINHash   string    `json:"pin_hash"`   // lowercase hex SHA-256 of the digit string
	PINLength int       `json:"pin_length"` // number of blinks
	UpdatedAt time.Time `json:"-"`
}

// -------------------- AUTH EVENT MODEL --------------------

type AuthEventType string

const (
	EventRegistered   AuthEventType = "registered"
	EventVerified     AuthEventType = "verified"
	EventVerifyFailed AuthEventType = "verify_failed"
	EventLockedOut    AuthEventType = "locked_out"
	EventRemoved      AuthEventType = "removed"
)

// AuthEvent is published after each credential operation. It carries the
// opaque user key only, never the PIN or its digest.
type AuthEvent struct {
	ID         string        `json:"id"`
	Type       AuthEventType `json:"type"`
	UserKey    string        `json:"user_key"`
	Bucket     int           `json:"bucket"`
	PINLength  int           `json:"pin_length,omitempty"`
	OccurredAt time.Time     `json:"occurred_at"`
}

// -------------------- ATTEMPT STATUS --------------------

// AttemptStatus describes the failed-verification state of one user.
type AttemptStatus struct {
	Failures   int           `json:"failures"`
	Blocked    bool          `json:"blocked"`
	RetryAfter time.Duration `json:"retry_after"`
}
