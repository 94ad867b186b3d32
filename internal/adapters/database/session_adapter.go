package database

import (
	"context"
	"encoding/json"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/google/uuid"
	"github.com/movaride/behavior-analytics/internal/domain/entities"
	"github.com/movaride/behavior-analytics/internal/domain/repositories"
	"github.com/movaride/behavior-analytics/internal/infrastructure/clients/postgres"
	apperrors "github.com/movaride/behavior-analytics/pkg/errors"
)

const defaultRecentLimit = 50

// SessionAdapter implements SessionRepository on Postgres. Snapshots are
// append-only rows; creation time is assigned by the database, never taken
// from the client.
type SessionAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

var _ repositories.SessionRepository = (*SessionAdapter)(nil)

// NewSessionAdapter creates a new session adapter
func NewSessionAdapter(client *postgres.Client) *SessionAdapter {
	return &SessionAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// EnsureSchema creates the snapshot table and its read-path indexes.
func (a *SessionAdapter) EnsureSchema(ctx context.Context) error {
	_, err := a.client.DB().ExecContext(ctx, `
	CREATE TABLE IF NOT EXISTS session_snapshots(
	  id          UUID PRIMARY KEY,
	  user_id     TEXT        NOT NULL,
	  start_time  BIGINT      NOT NULL,
	  device      TEXT        NOT NULL CHECK (device IN ('mobile','desktop')),
	  screen_flow JSONB       NOT NULL DEFAULT '[]'::jsonb,
	  created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE INDEX IF NOT EXISTS idx_snapshots_session ON session_snapshots(user_id, start_time, created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_snapshots_start   ON session_snapshots(start_time DESC);
	`)
	if err != nil {
		return apperrors.NewInternalError("failed to create session schema", err)
	}
	return nil
}

// Append stores one full session snapshot as a new row.
func (a *SessionAdapter) Append(ctx context.Context, session *entities.Session) error {
	flow := session.ScreenFlow
	if flow == nil {
		flow = []entities.ScreenVisit{}
	}
	flowJSON, err := json.Marshal(flow)
	if err != nil {
		return apperrors.NewInternalError("failed to marshal screen flow", err)
	}

	record := goqu.Record{
		"id":          uuid.New().String(),
		"user_id":     session.UserID,
		"start_time":  session.StartTime,
		"device":      session.Device,
		"screen_flow": string(flowJSON),
		// created_at is left to the database default.
	}

	query, args, err := a.db.Insert("session_snapshots").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to append session snapshot", err)
	}
	return nil
}

// GetRecent returns the latest snapshot per (user_id, start_time), ordered by
// session start descending. Duplicate flushes of one session collapse to the
// most recent write so aggregation never double counts.
func (a *SessionAdapter) GetRecent(ctx context.Context, limit int) ([]*entities.Session, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}

	query := `
		SELECT id, user_id, start_time, device, screen_flow, created_at
		FROM (
			SELECT DISTINCT ON (user_id, start_time)
				id, user_id, start_time, device, screen_flow, created_at
			FROM session_snapshots
			ORDER BY user_id, start_time, created_at DESC
		) latest
		ORDER BY start_time DESC
		LIMIT $1
	`

	rows, err := a.client.DB().QueryContext(ctx, query, limit)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to query recent sessions", err)
	}
	defer rows.Close()

	var sessions []*entities.Session
	for rows.Next() {
		s := &entities.Session{}
		var flowRaw []byte
		var createdAt time.Time
		if err := rows.Scan(&s.ID, &s.UserID, &s.StartTime, &s.Device, &flowRaw, &createdAt); err != nil {
			return nil, apperrors.NewInternalError("failed to scan session snapshot", err)
		}
		s.CreatedAt = createdAt
		s.ScreenFlow = decodeScreenFlow(flowRaw)
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to read session snapshots", err)
	}
	return sessions, nil
}

// rawVisit defers event decoding so one malformed visit cannot reject the
// whole snapshot.
type rawVisit struct {
	ScreenName string          `json:"screenName"`
	Timestamp  int64           `json:"timestamp"`
	TimeSpent  int64           `json:"timeSpent"`
	Events     json.RawMessage `json:"events"`
}

// decodeScreenFlow coerces a stored screen_flow document into visits.
// Corrupt records degrade to empty collections at this boundary instead of
// failing the read: a missing or non-array flow yields no visits, a visit
// with a non-array events field yields a visit with no events.
func decodeScreenFlow(raw []byte) []entities.ScreenVisit {
	if len(raw) == 0 {
		return []entities.ScreenVisit{}
	}
	var rawVisits []rawVisit
	if err := json.Unmarshal(raw, &rawVisits); err != nil {
		return []entities.ScreenVisit{}
	}

	visits := make([]entities.ScreenVisit, 0, len(rawVisits))
	for _, rv := range rawVisits {
		visit := entities.ScreenVisit{
			ScreenName: rv.ScreenName,
			Timestamp:  rv.Timestamp,
			TimeSpent:  rv.TimeSpent,
			Events:     []entities.InputEvent{},
		}
		if len(rv.Events) > 0 {
			var events []entities.InputEvent
			if err := json.Unmarshal(rv.Events, &events); err == nil && events != nil {
				visit.Events = events
			}
		}
		visits = append(visits, visit)
	}
	return visits
}
