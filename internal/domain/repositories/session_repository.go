package repositories

import (
	"context"

	"github.com/movaride/behavior-analytics/internal/domain/entities"
)

// SessionRepository is the persistence boundary for session snapshots. The
// store is append-only: every flush appends one full snapshot and the read
// path resolves duplicates by keeping the most recent snapshot per
// (userId, startTime).
type SessionRepository interface {
	// Append stores one snapshot. The store assigns the record id and
	// creation time; client-supplied values are ignored.
	Append(ctx context.Context, session *entities.Session) error

	// GetRecent returns up to limit logical sessions ordered by start
	// time descending, latest snapshot winning per session.
	GetRecent(ctx context.Context, limit int) ([]*entities.Session, error)
}
