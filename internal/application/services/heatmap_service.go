package services

import (
	"context"
	"sort"

	"github.com/movaride/behavior-analytics/internal/domain/entities"
	"github.com/movaride/behavior-analytics/internal/domain/providers"
	"github.com/movaride/behavior-analytics/internal/domain/repositories"
	"github.com/movaride/behavior-analytics/internal/infrastructure/observability"
	apperrors "github.com/movaride/behavior-analytics/pkg/errors"
)

// HeatmapService aggregates click intensity for one screen across every
// session and every user in the recent window.
type HeatmapService struct {
	repo     repositories.SessionRepository
	registry providers.SurfaceRegistry
	gridSize int
	limit    int
}

// NewHeatmapService creates a new heatmap service
func NewHeatmapService(repo repositories.SessionRepository, registry providers.SurfaceRegistry, gridSize, recentLimit int) *HeatmapService {
	if gridSize <= 0 {
		gridSize = 8
	}
	return &HeatmapService{
		repo:     repo,
		registry: registry,
		gridSize: gridSize,
		limit:    recentLimit,
	}
}

// ClickMap computes the grid-bucketed click intensity for a screen. Width
// and height override the registered surface bounds when positive. A read
// failure degrades to an empty map.
func (s *HeatmapService) ClickMap(ctx context.Context, screenName string, width, height int) ([]entities.HeatmapCell, error) {
	if screenName == "" {
		return nil, apperrors.NewValidationError("screen name is required")
	}

	if width <= 0 || height <= 0 {
		surface, err := s.registry.Surface(screenName)
		if err != nil {
			return nil, apperrors.NewValidationError("unknown screen surface")
		}
		width, height = surface.Bounds()
	}

	sessions, err := s.repo.GetRecent(ctx, s.limit)
	if err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Msg("failed to load sessions, serving empty heatmap")
		sessions = nil
	}

	return BucketClicks(sessions, screenName, width, height, s.gridSize), nil
}

// BucketClicks snaps every click on the named screen onto a fixed spatial
// grid, merging near-duplicate clicks into one cell with a counted
// intensity. The aggregation spans all sessions and all users. Cells are
// ordered by intensity descending for stable output.
func BucketClicks(sessions []*entities.Session, screenName string, width, height, gridSize int) []entities.HeatmapCell {
	if gridSize <= 0 || width <= 0 || height <= 0 {
		return []entities.HeatmapCell{}
	}

	type cell struct{ x, y int }
	counts := make(map[cell]int)
	for _, session := range sessions {
		for i := range session.ScreenFlow {
			visit := &session.ScreenFlow[i]
			if visit.ScreenName != screenName {
				continue
			}
			for _, e := range visit.Events {
				if e.Type != entities.EventClick || !validEvent(e) {
					continue
				}
				px := e.X * float64(width)
				py := e.Y * float64(height)
				counts[cell{
					x: int(px) / gridSize,
					y: int(py) / gridSize,
				}]++
			}
		}
	}

	cells := make([]entities.HeatmapCell, 0, len(counts))
	for c, intensity := range counts {
		cells = append(cells, entities.HeatmapCell{GridX: c.x, GridY: c.y, Intensity: intensity})
	}
	sort.Slice(cells, func(i, j int) bool {
		if cells[i].Intensity != cells[j].Intensity {
			return cells[i].Intensity > cells[j].Intensity
		}
		if cells[i].GridX != cells[j].GridX {
			return cells[i].GridX < cells[j].GridX
		}
		return cells[i].GridY < cells[j].GridY
	})
	return cells
}
