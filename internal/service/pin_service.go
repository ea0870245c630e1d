package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"blink-pin/internal/bucketing"
	"blink-pin/internal/model"
	"blink-pin/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CredentialStore is implemented by repository/file.CredentialStore.
type CredentialStore interface {
	SetUserPIN(username, pin string) error
	GetPINLength(username string, def int) int
	Verify(username, pin string) (bool, error)
	ListUsers() []string
	DeleteUser(username string) error
}

// AttemptLimiter is implemented by repository/redis.PINAttemptCache.
type AttemptLimiter interface {
	Status(ctx context.Context, userKey string) (model.AttemptStatus, error)
	RecordFailure(ctx context.Context, userKey string) (model.AttemptStatus, error)
	Reset(ctx context.Context, userKey string) error
}

// EventPublisher delivers auth events. Delivery is best effort.
type EventPublisher interface {
	Publish(ctx context.Context, event model.AuthEvent) error
}

// PINService runs registration and verification on top of the credential
// store. The limiter and publisher are optional.
type PINService struct {
	store         CredentialStore
	limiter       AttemptLimiter
	events        EventPublisher
	keys          *bucketing.KeyHasher
	defaultLength int
	logger        *zap.Logger
	now           func() time.Time
}

func NewPINService(
	store CredentialStore,
	limiter AttemptLimiter,
	events EventPublisher,
	keys *bucketing.KeyHasher,
	defaultLength int,
	logger *zap.Logger,
) *PINService {
	if logger == nil {
		logger = util.Get()
	}
	return &PINService{
		store:         store,
		limiter:       limiter,
		events:        events,
		keys:          keys,
		defaultLength: defaultLength,
		logger:        logger,
		now:           time.Now,
	}
}

// Register stores digits as the PIN for username, replacing any previous one.
func (s *PINService) Register(ctx context.Context, username, digits string) error {
	username = util.NormalizeUsername(username)
	if username == "" {
		return fmt.Errorf("%w: username is required", model.ErrInvalidInput)
	}
	if digits == "" {
		return fmt.Errorf("%w: empty PIN", model.ErrInvalidInput)
	}

	if err := s.store.SetUserPIN(username, digits); err != nil {
		return fmt.Errorf("failed to register PIN: %w", err)
	}

	userKey := s.keys.UserKey(username)
	if s.limiter != nil {
		if err := s.limiter.Reset(ctx, userKey); err != nil {
			s.logger.Warn("Failed to reset attempts after registration",
				util.String("user_key", userKey),
				util.ErrorField(err))
		}
	}

	s.logger.Info("PIN registered",
		util.String("user_key", userKey),
		util.Int("pin_length", len(digits)))
	s.publish(ctx, model.EventRegistered, username, len(digits))
	return nil
}

// PINLength is the number of blinks to capture when authenticating
// username. Unknown users get the default length.
func (s *PINService) PINLength(username string) int {
	return s.store.GetPINLength(util.NormalizeUsername(username), s.defaultLength)
}

// Authenticate checks digits against the stored PIN. A wrong PIN returns
// false with a nil error; unknown users and blocked users return errors.
func (s *PINService) Authenticate(ctx context.Context, username, digits string) (bool, error) {
	username = util.NormalizeUsername(username)
	if username == "" {
		return false, fmt.Errorf("%w: username is required", model.ErrInvalidInput)
	}
	userKey := s.keys.UserKey(username)

	if s.limiter != nil {
		status, err := s.limiter.Status(ctx, userKey)
		if err != nil {
			return false, fmt.Errorf("failed to check attempt status: %w", err)
		}
		if status.Blocked {
			s.logger.Warn("Verification refused while blocked",
				util.String("user_key", userKey),
				util.Duration("retry_after", status.RetryAfter))
			return false, fmt.Errorf("%w: retry after %s", model.ErrTooManyAttempts, status.RetryAfter.Round(time.Second))
		}
	}

	ok, err := s.store.Verify(username, digits)
	if err != nil {
		if errors.Is(err, model.ErrUnknownUser) {
			s.logger.Info("Verification for unknown user", util.String("user_key", userKey))
			s.publish(ctx, model.EventVerifyFailed, username, len(digits))
		}
		return false, err
	}

	if !ok {
		s.logger.Info("PIN mismatch", util.String("user_key", userKey))
		s.publish(ctx, model.EventVerifyFailed, username, len(digits))
		s.recordFailure(ctx, username, userKey)
		return false, nil
	}

	if s.limiter != nil {
		if err := s.limiter.Reset(ctx, userKey); err != nil {
			s.logger.Warn("Failed to reset attempts after success",
				util.String("user_key", userKey),
				util.ErrorField(err))
		}
	}

	s.logger.Info("PIN verified", util.String("user_key", userKey))
	s.publish(ctx, model.EventVerified, username, len(digits))
	return true, nil
}

// Users lists registered usernames.
func (s *PINService) Users() []string {
	return s.store.ListUsers()
}

// Remove deletes the credential for username.
func (s *PINService) Remove(ctx context.Context, username string) error {
	username = util.NormalizeUsername(username)
	if username == "" {
		return fmt.Errorf("%w: username is required", model.ErrInvalidInput)
	}
	if err := s.store.DeleteUser(username); err != nil {
		return err
	}

	userKey := s.keys.UserKey(username)
	if s.limiter != nil {
		if err := s.limiter.Reset(ctx, userKey); err != nil {
			s.logger.Warn("Failed to clear attempts for removed user",
				util.String("user_key", userKey),
				util.ErrorField(err))
		}
	}

	s.logger.Info("PIN removed", util.String("user_key", userKey))
	s.publish(ctx, model.EventRemoved, username, 0)
	return nil
}

func (s *PINService) recordFailure(ctx context.Context, username, userKey string) {
	if s.limiter == nil {
		return
	}
	status, err := s.limiter.RecordFailure(ctx, userKey)
	if err != nil {
		s.logger.Error("Failed to record failed attempt",
			util.String("user_key", userKey),
			util.ErrorField(err))
		return
	}
	if status.Blocked {
		s.publish(ctx, model.EventLockedOut, username, 0)
	}
}

func (s *PINService) publish(ctx context.Context, typ model.AuthEventType, username string, pinLength int) {
	if s.events == nil {
		return
	}
	event := model.AuthEvent{
		ID:         uuid.NewString(),
		Type:       typ,
		UserKey:    s.keys.UserKey(username),
		Bucket:     s.keys.UserBucket(username),
		PINLength:  pinLength,
		OccurredAt: s.now().UTC(),
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn("Failed to publish auth event",
			util.String("event_type", string(typ)),
			util.String("user_key", event.UserKey),
			util.ErrorField(err))
	}
}
