package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/itsDNNS/docsight-sub000/internal/models"
)

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type EventSQLite struct {
	db *sql.DB
}

func NewEventSQLite(db *sql.DB) *EventSQLite { return &EventSQLite{db: db} }

const insertEventSQL = `
		INSERT INTO events (id, source, occurred_at, severity, type, message, details, acknowledged)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

// Append inserts a new event. If ID or Timestamp are empty, they're set.
func (r *EventSQLite) Append(ctx context.Context, e models.Event) error {
	return appendEvent(ctx, r.db, e)
}

func appendEvent(ctx context.Context, x execer, e models.Event) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	} else {
		e.Timestamp = e.Timestamp.UTC()
	}

	var details *string
	if len(e.Details) > 0 {
		b, err := json.Marshal(e.Details)
		if err != nil {
			return fmt.Errorf("marshal event details: %w", err)
		}
		s := string(b)
		details = &s
	}

	_, err := x.ExecContext(ctx, insertEventSQL,
		e.ID,
		e.Source,
		e.Timestamp,
		string(e.Severity),
		string(e.Type),
		e.Message,
		details,
		e.Acknowledged,
	)
	if err != nil {
		return fmt.Errorf("insert event %s: %w", e.ID, err)
	}
	return nil
}

// List returns events matching f, newest first.
func (r *EventSQLite) List(ctx context.Context, f EventFilter) ([]models.Event, error) {
	var (
		conds []string
		args  []any
	)
	if f.Source != "" {
		conds = append(conds, "source = ?")
		args = append(args, f.Source)
	}
	if typ := strings.ToLower(strings.TrimSpace(f.Type)); typ != "" {
		conds = append(conds, "type = ?")
		args = append(args, typ)
	}
	if sev := strings.ToLower(strings.TrimSpace(f.Severity)); sev != "" {
		conds = append(conds, "severity = ?")
		args = append(args, sev)
	}
	if !f.From.IsZero() {
		conds = append(conds, "occurred_at >= ?")
		args = append(args, f.From.UTC())
	}
	if !f.To.IsZero() {
		conds = append(conds, "occurred_at <= ?")
		args = append(args, f.To.UTC())
	}
	if f.Unacknowledged {
		conds = append(conds, "acknowledged = 0")
	}

	q := `SELECT id, source, occurred_at, severity, type, message, details, acknowledged FROM events`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY occurred_at DESC LIMIT " + strconv.Itoa(clampLimit(f.Limit))

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.Event, 0, 64)
	for rows.Next() {
		var (
			ev         models.Event
			sev, typ   string
			detailsStr sql.NullString
		)
		if err := rows.Scan(&ev.ID, &ev.Source, &ev.Timestamp, &sev, &typ, &ev.Message, &detailsStr, &ev.Acknowledged); err != nil {
			return nil, err
		}
		ev.Timestamp = ev.Timestamp.UTC()
		ev.Severity = models.Severity(sev)
		ev.Type = models.EventType(typ)

		if detailsStr.Valid && detailsStr.String != "" {
			var m map[string]any
			if err := json.Unmarshal([]byte(detailsStr.String), &m); err == nil {
				ev.Details = m
			} else {
				ev.Details = map[string]any{"raw": detailsStr.String} // keep raw if malformed
			}
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

const ackEventSQL = `UPDATE events SET acknowledged = 1 WHERE id = ?`

// Acknowledge marks an event as seen. Acknowledging twice is not an error.
func (r *EventSQLite) Acknowledge(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, ackEventSQL, id)
	if err != nil {
		return fmt.Errorf("acknowledge event %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("event %s: %w", id, ErrNotFound)
	}
	return nil
}
