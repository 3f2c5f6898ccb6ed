package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/itsDNNS/docsight-sub000/internal/models"
)

// CollectorStateSQLite keeps one backoff row per collector so penalties
// survive a restart.
type CollectorStateSQLite struct {
	db *sql.DB
}

func NewCollectorStateSQLite(db *sql.DB) *CollectorStateSQLite {
	return &CollectorStateSQLite{db: db}
}

const (
	upsertCollectorStateSQL = `
		INSERT INTO collector_state (name, consecutive_failures, penalty_seconds, last_poll_at, last_success_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			consecutive_failures=excluded.consecutive_failures,
			penalty_seconds=excluded.penalty_seconds,
			last_poll_at=excluded.last_poll_at,
			last_success_at=excluded.last_success_at
	`

	selectCollectorStatesSQL = `
		SELECT name, consecutive_failures, penalty_seconds, last_poll_at, last_success_at
		FROM collector_state ORDER BY name
	`
)

// Save upserts the row for st.Name. Zero times are stored as NULL.
func (r *CollectorStateSQLite) Save(ctx context.Context, st models.CollectorState) error {
	_, err := r.db.ExecContext(ctx, upsertCollectorStateSQL,
		st.Name,
		st.ConsecutiveFailures,
		st.PenaltySeconds,
		nullTime(st.LastPollAt),
		nullTime(st.LastSuccessAt),
	)
	if err != nil {
		return fmt.Errorf("save collector state %s: %w", st.Name, err)
	}
	return nil
}

// LoadAll returns every stored collector state; an empty table is not an error.
func (r *CollectorStateSQLite) LoadAll(ctx context.Context) ([]models.CollectorState, error) {
	rows, err := r.db.QueryContext(ctx, selectCollectorStatesSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.CollectorState
	for rows.Next() {
		var (
			st            models.CollectorState
			poll, success sql.NullTime
		)
		if err := rows.Scan(&st.Name, &st.ConsecutiveFailures, &st.PenaltySeconds, &poll, &success); err != nil {
			return nil, err
		}
		if poll.Valid {
			st.LastPollAt = poll.Time.UTC()
		}
		if success.Valid {
			st.LastSuccessAt = success.Time.UTC()
		}
		out = append(out, st)
	}
	return out, rows.Err()
}
