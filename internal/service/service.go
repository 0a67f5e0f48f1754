package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"esnafdefter/backend/internal/events"
	"esnafdefter/backend/internal/store"
)

type Service struct {
	repo      store.Repository
	publisher events.Publisher
	logger    *zap.Logger
	now       func() time.Time
}

func New(repo store.Repository, publisher events.Publisher, logger *zap.Logger) *Service {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		repo:      repo,
		publisher: publisher,
		logger:    logger.Named("service"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// publish is best-effort: the write has already happened, so a broker
// failure is logged and swallowed.
func (s *Service) publish(ctx context.Context, eventType events.Type, entityID string, payload any) {
	err := s.publisher.Publish(ctx, events.Event{
		Type:       eventType,
		EntityID:   entityID,
		OccurredAt: s.now(),
		Payload:    payload,
	})
	if err != nil {
		s.logger.Warn("failed to publish change event",
			zap.String("event_type", string(eventType)),
			zap.String("entity_id", entityID),
			zap.Error(err),
		)
	}
}
