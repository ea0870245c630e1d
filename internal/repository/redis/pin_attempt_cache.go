package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"blink-pin/internal/client"
	"blink-pin/internal/config"
	"blink-pin/internal/model"
	"blink-pin/internal/util"

	"go.uber.org/zap"
)

const (
	pinRetryPrefix     = "blink_pin_retry:"
	pinTempBlockPrefix = "blink_pin_block:"

	opTimeout = 5 * time.Second
)

// PINAttemptCache counts failed verifications per user key and blocks the
// key for a fixed period once the limit is reached.
type PINAttemptCache struct {
	client      *client.RedisClient
	maxAttempts int
	lockout     time.Duration
	window      time.Duration
}

func NewPINAttemptCache(c *client.RedisClient, cfg config.AttemptConfig) *PINAttemptCache {
	return &PINAttemptCache{
		client:      c,
		maxAttempts: cfg.MaxAttempts,
		lockout:     cfg.Lockout,
		window:      cfg.Window,
	}
}

// Status reports the failure count and any active block for userKey.
func (c *PINAttemptCache) Status(ctx context.Context, userKey string) (model.AttemptStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var status model.AttemptStatus

	s, err := c.client.Get(ctx, pinRetryPrefix+userKey)
	switch {
	case errors.Is(err, client.ErrKeyNotFound):
	case err != nil:
		util.Error("Failed to get PIN retry count",
			zap.String("user_key", userKey),
			zap.Error(err))
		return status, fmt.Errorf("failed to get PIN retry count: %w", err)
	default:
		count, convErr := strconv.Atoi(s)
		if convErr != nil {
			util.Warn("Invalid PIN retry count format",
				zap.String("user_key", userKey),
				zap.String("count_str", s))
		}
		status.Failures = count
	}

	blocked, err := c.client.Exists(ctx, pinTempBlockPrefix+userKey)
	if err != nil {
		return status, fmt.Errorf("failed to check PIN temp block: %w", err)
	}
	if !blocked {
		return status, nil
	}

	ttl, err := c.client.TTL(ctx, pinTempBlockPrefix+userKey)
	if err != nil {
		return status, fmt.Errorf("failed to get PIN temp block TTL: %w", err)
	}
	status.Blocked = true
	status.RetryAfter = ttl
	return status, nil
}

// RecordFailure increments the failure counter. Reaching the limit sets a
// temporary block and clears the counter.
func (c *PINAttemptCache) RecordFailure(ctx context.Context, userKey string) (model.AttemptStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	cnt, err := c.client.IncrWithExpire(ctx, pinRetryPrefix+userKey, c.window)
	if err != nil {
		util.Error("Failed to increment PIN retry count",
			zap.String("user_key", userKey),
			zap.Error(err))
		return model.AttemptStatus{}, fmt.Errorf("failed to increment PIN retry count: %w", err)
	}

	status := model.AttemptStatus{Failures: int(cnt)}
	if int(cnt) < c.maxAttempts {
		util.Debug("PIN retry count incremented",
			zap.String("user_key", userKey),
			zap.Int64("count", cnt))
		return status, nil
	}

	if err := c.client.Set(ctx, pinTempBlockPrefix+userKey, "blocked", c.lockout); err != nil {
		util.Error("Failed to set PIN temporary block",
			zap.String("user_key", userKey),
			zap.Error(err))
		return status, fmt.Errorf("failed to set PIN temporary block: %w", err)
	}
	if err := c.client.Del(ctx, pinRetryPrefix+userKey); err != nil {
		util.Warn("Failed to clear PIN retry count after block",
			zap.String("user_key", userKey),
			zap.Error(err))
	}

	util.Warn("PIN temporarily blocked",
		zap.String("user_key", userKey),
		zap.Duration("duration", c.lockout))

	status.Blocked = true
	status.RetryAfter = c.lockout
	return status, nil
}

// Reset clears the counter and any block for userKey.
func (c *PINAttemptCache) Reset(ctx context.Context, userKey string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if err := c.client.Del(ctx, pinRetryPrefix+userKey, pinTempBlockPrefix+userKey); err != nil {
		util.Error("Failed to reset PIN attempts",
			zap.String("user_key", userKey),
			zap.Error(err))
		return fmt.Errorf("failed to reset PIN attempts: %w", err)
	}

	util.Debug("PIN attempts reset", zap.String("user_key", userKey))
	return nil
}
