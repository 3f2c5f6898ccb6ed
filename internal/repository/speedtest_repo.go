package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/itsDNNS/docsight-sub000/internal/models"
)

type SpeedtestSQLite struct {
	db *sql.DB
}

func NewSpeedtestSQLite(db *sql.DB) *SpeedtestSQLite { return &SpeedtestSQLite{db: db} }

const insertSpeedtestSQL = `
		INSERT INTO speedtests (id, source, external_id, taken_at, download_mbps, upload_mbps, ping_ms, jitter_ms, server)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`

// SaveSpeedtest stores r and reports whether a new row was written.
// A result already stored under the same (source, external id) is skipped.
func (r *SpeedtestSQLite) SaveSpeedtest(ctx context.Context, res models.SpeedtestResult) (bool, error) {
	if res.ID == "" {
		res.ID = uuid.NewString()
	}
	var external sql.NullString
	if res.ExternalID != "" {
		external = sql.NullString{String: res.ExternalID, Valid: true}
	}

	out, err := r.db.ExecContext(ctx, insertSpeedtestSQL,
		res.ID,
		res.Source,
		external,
		nullTime(res.Timestamp),
		res.DownloadMbps,
		res.UploadMbps,
		res.PingMs,
		res.JitterMs,
		res.Server,
	)
	if err != nil {
		return false, fmt.Errorf("insert speedtest %s: %w", res.ID, err)
	}
	n, err := out.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// List returns the newest results, optionally for one source.
func (r *SpeedtestSQLite) List(ctx context.Context, source string, limit int) ([]models.SpeedtestResult, error) {
	q := `SELECT id, source, external_id, taken_at, download_mbps, upload_mbps, ping_ms, jitter_ms, server FROM speedtests`
	var args []any
	if source != "" {
		q += " WHERE source = ?"
		args = append(args, source)
	}
	q += " ORDER BY taken_at DESC LIMIT " + strconv.Itoa(clampLimit(limit))

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.SpeedtestResult
	for rows.Next() {
		var (
			res      models.SpeedtestResult
			external sql.NullString
			takenAt  sql.NullTime
		)
		if err := rows.Scan(&res.ID, &res.Source, &external, &takenAt,
			&res.DownloadMbps, &res.UploadMbps, &res.PingMs, &res.JitterMs, &res.Server); err != nil {
			return nil, err
		}
		res.ExternalID = external.String
		if takenAt.Valid {
			res.Timestamp = takenAt.Time.UTC()
		}
		out = append(out, res)
	}
	return out, rows.Err()
}
