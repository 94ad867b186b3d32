package providers

import (
	"fmt"
)

// ScreenSurface is the replay-side contract with the tracked UI. A surface
// reports the pixel bounds replay coordinates are scaled into, and renders
// with inert callbacks: replaying captured input against it must never
// trigger the business logic of the live screen.
type ScreenSurface interface {
	// Name returns the screen identifier the surface renders.
	Name() string

	// Bounds returns the surface's pixel dimensions.
	Bounds() (width, height int)
}

// SurfaceRegistry resolves screen names to replayable surfaces.
type SurfaceRegistry interface {
	Surface(name string) (ScreenSurface, error)
}

// StaticSurface is a fixed-size inert surface.
type StaticSurface struct {
	ScreenName string
	Width      int
	Height     int
}

func (s StaticSurface) Name() string { return s.ScreenName }

func (s StaticSurface) Bounds() (int, int) { return s.Width, s.Height }

// StaticRegistry is a map-backed surface registry. Unknown screens fall back
// to DefaultBounds so the dashboard can still overlay captured events on
// screens the UI never registered.
type StaticRegistry struct {
	Surfaces      map[string]StaticSurface
	DefaultWidth  int
	DefaultHeight int
}

// NewStaticRegistry creates a registry with the given fallback bounds.
func NewStaticRegistry(defaultWidth, defaultHeight int) *StaticRegistry {
	return &StaticRegistry{
		Surfaces:      make(map[string]StaticSurface),
		DefaultWidth:  defaultWidth,
		DefaultHeight: defaultHeight,
	}
}

// Register adds a surface for a screen name.
func (r *StaticRegistry) Register(surface StaticSurface) {
	r.Surfaces[surface.ScreenName] = surface
}

// Surface resolves a surface, falling back to the registry default.
func (r *StaticRegistry) Surface(name string) (ScreenSurface, error) {
	if name == "" {
		return nil, fmt.Errorf("screen name is required")
	}
	if surface, ok := r.Surfaces[name]; ok {
		return surface, nil
	}
	return StaticSurface{
		ScreenName: name,
		Width:      r.DefaultWidth,
		Height:     r.DefaultHeight,
	}, nil
}
