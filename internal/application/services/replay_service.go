package services

import (
	"context"
	"fmt"

	"github.com/movaride/behavior-analytics/internal/domain/entities"
	"github.com/movaride/behavior-analytics/internal/domain/providers"
	"github.com/movaride/behavior-analytics/internal/domain/repositories"
	apperrors "github.com/movaride/behavior-analytics/pkg/errors"
)

// ReplayService reconstructs a single screen visit against a rendered
// surface: a cursor polyline through the move events plus one marker per
// click. The surfaces come from the registry and render with inert
// callbacks, so replay can never re-trigger the business logic it is
// replaying over.
type ReplayService struct {
	repo     repositories.SessionRepository
	registry providers.SurfaceRegistry
	limit    int
}

// NewReplayService creates a new replay service
func NewReplayService(repo repositories.SessionRepository, registry providers.SurfaceRegistry, recentLimit int) *ReplayService {
	return &ReplayService{
		repo:     repo,
		registry: registry,
		limit:    recentLimit,
	}
}

// Frame builds the replay frame for one visit of one session. visitIndex
// addresses the session's screen flow in visit order.
func (s *ReplayService) Frame(ctx context.Context, sessionID string, visitIndex int) (*entities.ReplayFrame, error) {
	if sessionID == "" {
		return nil, apperrors.NewValidationError("session id is required")
	}
	if visitIndex < 0 {
		return nil, apperrors.NewValidationError("visit index must not be negative")
	}

	sessions, err := s.repo.GetRecent(ctx, s.limit)
	if err != nil {
		return nil, err
	}

	var session *entities.Session
	for _, candidate := range sessions {
		if candidate.ID == sessionID {
			session = candidate
			break
		}
	}
	if session == nil {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("session %s not found", sessionID))
	}
	if visitIndex >= len(session.ScreenFlow) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("session %s has no visit %d", sessionID, visitIndex))
	}

	visit := &session.ScreenFlow[visitIndex]
	surface, err := s.registry.Surface(visit.ScreenName)
	if err != nil {
		return nil, apperrors.NewValidationError("unknown screen surface")
	}
	width, height := surface.Bounds()

	return BuildFrame(visit, width, height), nil
}

// BuildFrame scales the visit's events from normalized [0,1] coordinates
// into the surface's pixel dimensions. Moves keep capture order and become
// the cursor path; clicks become markers. No other transform is applied.
// Malformed events are dropped, not trusted from storage.
func BuildFrame(visit *entities.ScreenVisit, width, height int) *entities.ReplayFrame {
	frame := &entities.ReplayFrame{
		ScreenName: visit.ScreenName,
		Width:      width,
		Height:     height,
		Path:       []entities.ReplayPoint{},
		Clicks:     []entities.ReplayPoint{},
	}

	for _, e := range visit.Events {
		if !validEvent(e) {
			continue
		}
		point := entities.ReplayPoint{
			X:         e.X * float64(width),
			Y:         e.Y * float64(height),
			Timestamp: e.Timestamp,
		}
		switch e.Type {
		case entities.EventMove:
			frame.Path = append(frame.Path, point)
		case entities.EventClick:
			frame.Clicks = append(frame.Clicks, point)
		}
	}
	return frame
}
