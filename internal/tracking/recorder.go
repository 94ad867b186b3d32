package tracking

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/movaride/behavior-analytics/internal/domain/entities"
	"github.com/movaride/behavior-analytics/internal/infrastructure/observability"
	"github.com/movaride/behavior-analytics/pkg/config"
	"github.com/rs/zerolog"
)

// SessionStore is the write-side persistence boundary the recorder flushes
// snapshots into.
type SessionStore interface {
	Append(ctx context.Context, session *entities.Session) error
}

// Clock supplies wall-clock time; injectable for tests.
type Clock func() time.Time

// Options configures a Recorder.
type Options struct {
	// UserID overrides the locally cached anonymous profile id.
	UserID string

	// ViewportWidth and ViewportHeight are the initial viewport
	// dimensions. Width decides the device class at session start.
	ViewportWidth  int
	ViewportHeight int

	// Disabled turns all capture into no-ops; the recorder still owns a
	// session identity so it can be enabled later.
	Disabled bool

	Store  SessionStore
	Config config.TrackingConfig
	Clock  Clock
	Logger *zerolog.Logger
}

const flushWriteTimeout = 5 * time.Second

// Recorder owns the live session state: the anonymous identity, the
// unattributed event buffer, and the ordered screen visits. All mutation goes
// through one mutex; flush I/O happens on a deep copy taken under the lock so
// capture is never blocked by an in-flight write.
type Recorder struct {
	mu sync.Mutex

	cfg    config.TrackingConfig
	store  SessionStore
	clock  Clock
	logger zerolog.Logger

	session *entities.Session
	buffer  []entities.InputEvent

	activeScreen string
	entryTime    int64
	openVisit    int
	lastMove     int64

	viewportW int
	viewportH int

	enabled   bool
	suspended bool

	started bool
	stop    chan struct{}
	done    chan struct{}
}

// NewRecorder creates a recorder and assigns the session identity: the
// cached anonymous user id, the start timestamp, and the device class
// derived from the viewport width. Identity never changes afterwards.
func NewRecorder(opts Options) (*Recorder, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("tracking: store is required")
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := observability.GetLogger()
	if opts.Logger != nil {
		logger = opts.Logger
	}
	userID := opts.UserID
	if userID == "" {
		userID = LoadUserID()
	}

	cfg := opts.Config
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 10 * time.Second
	}
	if cfg.MoveSampleInterval <= 0 {
		cfg.MoveSampleInterval = 100 * time.Millisecond
	}
	if cfg.MobileWidthThreshold <= 0 {
		cfg.MobileWidthThreshold = 768
	}

	now := clock().UnixMilli()
	return &Recorder{
		cfg:    cfg,
		store:  opts.Store,
		clock:  clock,
		logger: logger.With().Str("component", "recorder").Logger(),
		session: &entities.Session{
			UserID:    userID,
			StartTime: now,
			Device:    DeviceClass(opts.ViewportWidth, cfg.MobileWidthThreshold),
		},
		openVisit: -1,
		viewportW: opts.ViewportWidth,
		viewportH: opts.ViewportHeight,
		enabled:   !opts.Disabled,
	}, nil
}

// DeviceClass maps a viewport width onto the coarse device taxonomy.
func DeviceClass(viewportWidth, threshold int) string {
	if viewportWidth > 0 && viewportWidth < threshold {
		return entities.DeviceMobile
	}
	return entities.DeviceDesktop
}

// UserID returns the session's anonymous user id.
func (r *Recorder) UserID() string {
	return r.session.UserID
}

// Start launches the periodic flush loop. A stopped recorder may be started
// again; the loop channels are fresh per run.
func (r *Recorder) Start() {
	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		return
	}
	r.started = true
	r.stop = make(chan struct{})
	r.done = make(chan struct{})
	stop, done := r.stop, r.done
	r.mu.Unlock()

	go r.flushLoop(stop, done)
}

// Stop halts the flush loop and performs one final best-effort flush, the
// unload path. A write racing process teardown may be lost; delivery of the
// final snapshot is not guaranteed.
func (r *Recorder) Stop(ctx context.Context) {
	r.mu.Lock()
	if !r.started {
		r.mu.Unlock()
		return
	}
	r.started = false
	stop, done := r.stop, r.done
	r.mu.Unlock()

	close(stop)
	<-done

	if err := r.Flush(ctx); err != nil {
		r.logger.Warn().Err(err).Msg("final flush failed")
	}
}

func (r *Recorder) flushLoop(stop, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(r.cfg.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), flushWriteTimeout)
			if err := r.Flush(ctx); err != nil {
				r.logger.Warn().Err(err).Msg("flush failed, snapshot retained for next cycle")
			}
			cancel()
		}
	}
}

// SetViewport updates the dimensions used for normalization. The device
// class stays fixed at its session-start value.
func (r *Recorder) SetViewport(width, height int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.viewportW = width
	r.viewportH = height
}

// Click records a click at pixel coordinates, normalized against the current
// viewport and clamped to [0,1]. The target label is truncated to 100
// characters.
func (r *Recorder) Click(x, y float64, target string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.capturing() {
		return
	}
	r.buffer = append(r.buffer, entities.InputEvent{
		Type:      entities.EventClick,
		X:         clampFraction(normalize(x, r.viewportW)),
		Y:         clampFraction(normalize(y, r.viewportH)),
		Target:    TruncateTarget(target),
		Timestamp: r.clock().UnixMilli(),
	})
}

// Move records a pointer move with the same normalization as Click, sampled
// to at most one recorded move per configured window. Extra moves inside the
// window are dropped outright.
func (r *Recorder) Move(x, y float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.capturing() {
		return
	}
	now := r.clock().UnixMilli()
	if r.lastMove != 0 && now-r.lastMove < r.cfg.MoveSampleInterval.Milliseconds() {
		return
	}
	r.lastMove = now
	r.buffer = append(r.buffer, entities.InputEvent{
		Type:      entities.EventMove,
		X:         clampFraction(normalize(x, r.viewportW)),
		Y:         clampFraction(normalize(y, r.viewportH)),
		Timestamp: now,
	})
}

// Scroll records the current scroll position as a fraction of the maximum
// scrollable distance. X is pinned to the viewport midpoint and the rounded
// percentage doubles as the target label.
func (r *Recorder) Scroll(offset, maxScroll float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.capturing() {
		return
	}
	depth := 0.0
	if maxScroll > 0 {
		depth = clampFraction(offset / maxScroll)
	}
	r.buffer = append(r.buffer, entities.InputEvent{
		Type:      entities.EventScroll,
		X:         0.5,
		Y:         depth,
		Target:    fmt.Sprintf("%d%%", int(depth*100)),
		Timestamp: r.clock().UnixMilli(),
	})
}

// SetScreen tells the recorder the visible screen changed. The elapsed time
// and the buffered events inside [entry, now] are folded into the open visit
// for the outgoing screen; re-entering the same still-open screen accumulates
// on that visit, any other target opens a fresh one. Entering the dashboard
// route suspends capture entirely so the dashboard never tracks itself.
func (r *Recorder) SetScreen(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.enabled {
		return
	}
	now := r.clock().UnixMilli()

	if name == r.cfg.DashboardRoute && name != "" {
		r.closeActive(now)
		r.suspended = true
		return
	}
	r.suspended = false
	r.transition(name, now)
}

// closeActive folds the pending window into the open visit and closes it.
func (r *Recorder) closeActive(now int64) {
	if r.openVisit < 0 {
		return
	}
	r.foldWindow(now)
	r.openVisit = -1
	r.activeScreen = ""
}

// transition implements the screen state machine.
func (r *Recorder) transition(name string, now int64) {
	if r.openVisit >= 0 {
		r.foldWindow(now)
		if name == r.activeScreen {
			// Same still-open visit; dwell keeps accumulating.
			return
		}
		r.openVisit = -1
	}
	r.activeScreen = name
	r.entryTime = now
	if name == "" {
		return
	}
	r.session.ScreenFlow = append(r.session.ScreenFlow, entities.ScreenVisit{
		ScreenName: name,
		Timestamp:  now,
		Events:     []entities.InputEvent{},
	})
	r.openVisit = len(r.session.ScreenFlow) - 1
}

// foldWindow attributes the elapsed time and the buffered events inside
// [entryTime, now] to the open visit. Partitioning is time-window based, not
// buffer-index based, so capture racing a transition still attributes events
// to the right visit. The remainder of the buffer carries forward.
func (r *Recorder) foldWindow(now int64) {
	visit := &r.session.ScreenFlow[r.openVisit]
	visit.TimeSpent += now - r.entryTime

	attributed, rest := partitionEvents(r.buffer, r.entryTime, now)
	visit.Events = append(visit.Events, attributed...)
	r.buffer = rest
	r.entryTime = now
}

// Flush snapshots the session to the store. Pending buffered events are
// folded into the open visit first, so nothing is lost between cycles.
// Whatever remains buffered after the fold predates the open window (captured
// before the first screen, or between screens) and can never be attributed,
// so it is dropped. A session with no visits skips the write. On write
// failure the state is retained untouched; the next cycle carries the
// accumulated snapshot. There is no retry within a cycle.
func (r *Recorder) Flush(ctx context.Context) error {
	r.mu.Lock()
	if r.openVisit >= 0 {
		r.foldWindow(r.clock().UnixMilli())
	}
	r.buffer = r.buffer[:0]
	if len(r.session.ScreenFlow) == 0 {
		r.mu.Unlock()
		return nil
	}
	snapshot := r.session.Clone()
	r.mu.Unlock()

	if err := r.store.Append(ctx, snapshot); err != nil {
		return fmt.Errorf("append session snapshot: %w", err)
	}
	return nil
}

// Snapshot returns a deep copy of the current session state.
func (r *Recorder) Snapshot() *entities.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.session.Clone()
}

func (r *Recorder) capturing() bool {
	return r.enabled && !r.suspended
}

// partitionEvents splits events into those timestamped inside [from, to] and
// the remainder, preserving relative order in both halves.
func partitionEvents(events []entities.InputEvent, from, to int64) (window, rest []entities.InputEvent) {
	for _, e := range events {
		if e.Timestamp >= from && e.Timestamp <= to {
			window = append(window, e)
		} else {
			rest = append(rest, e)
		}
	}
	return window, rest
}

func normalize(value float64, extent int) float64 {
	if extent <= 0 {
		return 0
	}
	return value / float64(extent)
}

func clampFraction(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// TruncateTarget bounds a target label to the persisted maximum.
func TruncateTarget(target string) string {
	runes := []rune(target)
	if len(runes) <= entities.MaxTargetLength {
		return target
	}
	return string(runes[:entities.MaxTargetLength])
}
