package service

import (
	"blink-pin/internal/bucketing"

	"go.uber.org/zap"
)

// ServiceFactory creates and manages service instances
type ServiceFactory struct {
	store         CredentialStore
	limiter       AttemptLimiter
	events        EventPublisher
	keys          *bucketing.KeyHasher
	defaultLength int
	logger        *zap.Logger
	pinService    *PINService
}

// NewServiceFactory creates a new service factory. limiter and events may be nil.
func NewServiceFactory(
	store CredentialStore,
	limiter AttemptLimiter,
	events EventPublisher,
	keys *bucketing.KeyHasher,
	defaultLength int,
	logger *zap.Logger,
) *ServiceFactory {
	return &ServiceFactory{
		store:         store,
		limiter:       limiter,
		events:        events,
		keys:          keys,
		defaultLength: defaultLength,
		logger:        logger,
	}
}

// PINService returns the PIN service instance (singleton)
func (f *ServiceFactory) PINService() *PINService {
	if f.pinService == nil {
		f.pinService = NewPINService(
			f.store,
			f.limiter,
			f.events,
			f.keys,
			f.defaultLength,
			f.logger,
		)
	}
	return f.pinService
}
