package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/movaride/behavior-analytics/internal/application/services"
	"github.com/movaride/behavior-analytics/internal/domain/entities"
	"github.com/movaride/behavior-analytics/internal/domain/providers"
	apperrors "github.com/movaride/behavior-analytics/pkg/errors"
)

func TestBucketClicks_MergesNearbyClicks(t *testing.T) {
	// On a 400x800 surface with an 8px grid, clicks inside the same 8px
	// cell merge into one entry with a summed intensity.
	sessions := []*entities.Session{
		session(visit("home", 0,
			click(100.0/400, 100.0/800),
			click(103.0/400, 104.0/800),
			click(101.0/400, 107.0/800),
		)),
	}

	cells := services.BucketClicks(sessions, "home", 400, 800, 8)
	require.Len(t, cells, 1)
	assert.Equal(t, 12, cells[0].GridX)
	assert.Equal(t, 12, cells[0].GridY)
	assert.Equal(t, 3, cells[0].Intensity)
}

func TestBucketClicks_SeparatesDistantClicks(t *testing.T) {
	// 100px and 108px land in adjacent 8px cells.
	sessions := []*entities.Session{
		session(visit("home", 0,
			click(100.0/400, 100.0/800),
			click(108.0/400, 100.0/800),
		)),
	}

	cells := services.BucketClicks(sessions, "home", 400, 800, 8)
	require.Len(t, cells, 2)
	assert.Equal(t, 12, cells[0].GridX)
	assert.Equal(t, 13, cells[1].GridX)
}

func TestBucketClicks_SpansSessionsAndUsers(t *testing.T) {
	a := session(visit("home", 0, click(0.5, 0.5)))
	b := session(visit("home", 0, click(0.5, 0.5)))
	b.UserID = "user-2"

	cells := services.BucketClicks([]*entities.Session{a, b}, "home", 400, 800, 8)
	require.Len(t, cells, 1)
	assert.Equal(t, 2, cells[0].Intensity)
}

func TestBucketClicks_FiltersOtherScreensAndEventTypes(t *testing.T) {
	sessions := []*entities.Session{
		session(
			visit("home", 0, click(0.5, 0.5), scroll(0.3), entities.InputEvent{Type: entities.EventMove, X: 0.5, Y: 0.5}),
			visit("selectVehicle", 0, click(0.5, 0.5)),
		),
	}

	cells := services.BucketClicks(sessions, "home", 400, 800, 8)
	require.Len(t, cells, 1)
	assert.Equal(t, 1, cells[0].Intensity)
}

func TestBucketClicks_OrderedByIntensity(t *testing.T) {
	sessions := []*entities.Session{
		session(visit("home", 0,
			click(0.1, 0.1),
			click(0.9, 0.9),
			click(0.9, 0.9),
		)),
	}

	cells := services.BucketClicks(sessions, "home", 400, 800, 8)
	require.Len(t, cells, 2)
	assert.Equal(t, 2, cells[0].Intensity)
	assert.Equal(t, 1, cells[1].Intensity)
}

func TestBucketClicks_EmptyInputs(t *testing.T) {
	assert.Empty(t, services.BucketClicks(nil, "home", 400, 800, 8))
	assert.Empty(t, services.BucketClicks(nil, "home", 0, 800, 8))
}

func TestHeatmapService_ClickMap(t *testing.T) {
	repo := new(MockSessionRepository)
	registry := providers.NewStaticRegistry(390, 844)
	svc := services.NewHeatmapService(repo, registry, 8, 50)

	repo.On("GetRecent", mock.Anything, 50).Return([]*entities.Session{
		session(visit("home", 0, click(0.5, 0.5))),
	}, nil)

	cells, err := svc.ClickMap(context.Background(), "home", 400, 800)
	require.NoError(t, err)
	require.Len(t, cells, 1)
	assert.Equal(t, 25, cells[0].GridX)
	assert.Equal(t, 50, cells[0].GridY)
}

func TestHeatmapService_ClickMap_UsesRegistryBounds(t *testing.T) {
	repo := new(MockSessionRepository)
	registry := providers.NewStaticRegistry(390, 844)
	registry.Register(providers.StaticSurface{ScreenName: "home", Width: 800, Height: 1600})
	svc := services.NewHeatmapService(repo, registry, 8, 50)

	repo.On("GetRecent", mock.Anything, 50).Return([]*entities.Session{
		session(visit("home", 0, click(0.5, 0.5))),
	}, nil)

	cells, err := svc.ClickMap(context.Background(), "home", 0, 0)
	require.NoError(t, err)
	require.Len(t, cells, 1)
	assert.Equal(t, 50, cells[0].GridX)
	assert.Equal(t, 100, cells[0].GridY)
}

func TestHeatmapService_ClickMap_RequiresScreenName(t *testing.T) {
	repo := new(MockSessionRepository)
	svc := services.NewHeatmapService(repo, providers.NewStaticRegistry(390, 844), 8, 50)

	_, err := svc.ClickMap(context.Background(), "", 400, 800)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrorTypeValidation, appErr.Type)
}

func TestHeatmapService_ClickMap_FailsOpenOnReadError(t *testing.T) {
	repo := new(MockSessionRepository)
	svc := services.NewHeatmapService(repo, providers.NewStaticRegistry(390, 844), 8, 50)

	repo.On("GetRecent", mock.Anything, 50).Return(nil, errors.New("db down"))

	cells, err := svc.ClickMap(context.Background(), "home", 400, 800)
	require.NoError(t, err)
	assert.Empty(t, cells)
}
