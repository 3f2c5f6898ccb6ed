package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/itsDNNS/docsight-sub000/internal/models"
)

// ErrNotFound is returned when a row addressed by id does not exist.
var ErrNotFound = errors.New("not found")

// SnapshotFilter narrows snapshot history queries. Zero values are ignored.
type SnapshotFilter struct {
	Source string
	From   time.Time
	To     time.Time
	Limit  int
}

// EventFilter narrows event queries. Zero values are ignored.
type EventFilter struct {
	Source         string
	Type           string
	Severity       string
	From           time.Time
	To             time.Time
	Unacknowledged bool
	Limit          int
}

type SnapshotRepo interface {
	SaveCycle(ctx context.Context, s models.Snapshot, evs []models.Event) error
	Latest(ctx context.Context, source string) (models.Snapshot, error)
	List(ctx context.Context, f SnapshotFilter) ([]models.Snapshot, error)
}

type EventRepo interface {
	Append(ctx context.Context, e models.Event) error
	List(ctx context.Context, f EventFilter) ([]models.Event, error)
	Acknowledge(ctx context.Context, id string) error
}

type SpeedtestRepo interface {
	SaveSpeedtest(ctx context.Context, r models.SpeedtestResult) (bool, error)
	List(ctx context.Context, source string, limit int) ([]models.SpeedtestResult, error)
}

type CollectorStateRepo interface {
	LoadAll(ctx context.Context) ([]models.CollectorState, error)
	Save(ctx context.Context, st models.CollectorState) error
}

type Repository struct {
	Snapshots      SnapshotRepo
	Events         EventRepo
	Speedtests     SpeedtestRepo
	CollectorState CollectorStateRepo
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		Snapshots:      NewSnapshotSQLite(db),
		Events:         NewEventSQLite(db),
		Speedtests:     NewSpeedtestSQLite(db),
		CollectorState: NewCollectorStateSQLite(db),
	}
}

// Default and maximum page size for list queries.
const (
	defaultListLimit = 100
	maxListLimit     = 1000
)

func clampLimit(n int) int {
	switch {
	case n <= 0:
		return defaultListLimit
	case n > maxListLimit:
		return maxListLimit
	default:
		return n
	}
}

// toUTC normalizes non-zero time to UTC, preserving zero values.
func toUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}

// nullTime maps the zero time to NULL.
func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
