package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/movaride/behavior-analytics/internal/domain/entities"
	"github.com/movaride/behavior-analytics/internal/domain/providers"
	"github.com/movaride/behavior-analytics/internal/domain/repositories"
	"github.com/movaride/behavior-analytics/internal/infrastructure/observability"
	apperrors "github.com/movaride/behavior-analytics/pkg/errors"
)

// SessionService handles snapshot ingest and the recent-session read path.
type SessionService struct {
	repo     repositories.SessionRepository
	eventBus providers.EventBus
}

// NewSessionService creates a new session service. The event bus is optional;
// without one, ingest simply skips the live feed.
func NewSessionService(repo repositories.SessionRepository, eventBus providers.EventBus) *SessionService {
	return &SessionService{
		repo:     repo,
		eventBus: eventBus,
	}
}

// RecordSnapshot validates and appends one session snapshot, then announces
// it on the live feed.
func (s *SessionService) RecordSnapshot(ctx context.Context, session *entities.Session) error {
	if err := validateSnapshot(session); err != nil {
		return err
	}

	if err := s.repo.Append(ctx, session); err != nil {
		return err
	}

	s.publishIngested(session)
	return nil
}

// GetRecent returns the most recent logical sessions.
func (s *SessionService) GetRecent(ctx context.Context, limit int) ([]*entities.Session, error) {
	return s.repo.GetRecent(ctx, limit)
}

func validateSnapshot(session *entities.Session) error {
	if session == nil {
		return apperrors.NewValidationError("session payload is required")
	}
	if session.UserID == "" {
		return apperrors.NewValidationError("userId is required")
	}
	if session.StartTime <= 0 {
		return apperrors.NewValidationError("startTime must be positive")
	}
	if session.Device != entities.DeviceMobile && session.Device != entities.DeviceDesktop {
		return apperrors.NewValidationError("device must be mobile or desktop")
	}
	return nil
}

// publishIngested feeds the live dashboard stream in the background so a
// slow bus never blocks ingest.
func (s *SessionService) publishIngested(session *entities.Session) {
	if s.eventBus == nil {
		return
	}

	eventCount := 0
	for i := range session.ScreenFlow {
		eventCount += len(session.ScreenFlow[i].Events)
	}
	event := &entities.SessionEvent{
		ID:          uuid.New().String(),
		EventType:   entities.SessionEventIngested,
		UserID:      session.UserID,
		Device:      session.Device,
		ScreenCount: len(session.ScreenFlow),
		EventCount:  eventCount,
		CreatedAt:   time.Now(),
	}

	go func() {
		// Fresh context: the request context may already be cancelled.
		bgCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := s.eventBus.Publish(bgCtx, providers.SessionFeedChannel, event); err != nil {
			observability.GetLogger().Warn().Err(err).Msg("failed to publish session event")
		}
	}()
}
