package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/itsDNNS/docsight-sub000/internal/models"
)

type SnapshotSQLite struct {
	db *sql.DB
}

func NewSnapshotSQLite(db *sql.DB) *SnapshotSQLite { return &SnapshotSQLite{db: db} }

const (
	insertSnapshotSQL = `
		INSERT INTO snapshots (id, source, taken_at, overall_health, payload)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`

	selectLatestSnapshotSQL = `
		SELECT payload FROM snapshots WHERE source = ? ORDER BY taken_at DESC LIMIT 1
	`
)

// SaveCycle stores a snapshot and the events derived from it atomically.
// Saving the same snapshot twice is a no-op for the snapshot row.
func (r *SnapshotSQLite) SaveCycle(ctx context.Context, s models.Snapshot, evs []models.Event) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal snapshot %s: %w", s.ID, err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, insertSnapshotSQL,
		s.ID,
		s.Source,
		s.Timestamp.UTC(),
		s.OverallHealth.String(),
		string(payload),
	); err != nil {
		return fmt.Errorf("insert snapshot %s: %w", s.ID, err)
	}

	for _, e := range evs {
		if err := appendEvent(ctx, tx, e); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot %s: %w", s.ID, err)
	}
	return nil
}

// Latest returns the newest snapshot of source, or ErrNotFound.
func (r *SnapshotSQLite) Latest(ctx context.Context, source string) (models.Snapshot, error) {
	var payload string
	if err := r.db.QueryRowContext(ctx, selectLatestSnapshotSQL, source).Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Snapshot{}, fmt.Errorf("snapshot for %q: %w", source, ErrNotFound)
		}
		return models.Snapshot{}, err
	}
	return decodeSnapshot(payload)
}

// List returns snapshots matching f, newest first.
func (r *SnapshotSQLite) List(ctx context.Context, f SnapshotFilter) ([]models.Snapshot, error) {
	var (
		conds []string
		args  []any
	)
	if f.Source != "" {
		conds = append(conds, "source = ?")
		args = append(args, f.Source)
	}
	if !f.From.IsZero() {
		conds = append(conds, "taken_at >= ?")
		args = append(args, f.From.UTC())
	}
	if !f.To.IsZero() {
		conds = append(conds, "taken_at <= ?")
		args = append(args, f.To.UTC())
	}

	q := `SELECT payload FROM snapshots`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY taken_at DESC LIMIT " + strconv.Itoa(clampLimit(f.Limit))

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Snapshot
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		s, err := decodeSnapshot(payload)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func decodeSnapshot(payload string) (models.Snapshot, error) {
	var s models.Snapshot
	if err := json.Unmarshal([]byte(payload), &s); err != nil {
		return models.Snapshot{}, fmt.Errorf("decode snapshot payload: %w", err)
	}
	s.Timestamp = s.Timestamp.UTC()
	return s, nil
}
