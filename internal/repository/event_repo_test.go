package repository

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/itsDNNS/docsight-sub000/internal/models"
)

func TestEventAppend_SetsDefaults(t *testing.T) {
	t.Parallel()

	db, mock := newMock(t)
	repo := NewEventSQLite(db)

	mock.ExpectExec(regexp.QuoteMeta(insertEventSQL)).
		WithArgs(sqlmock.AnyArg(), "modem", isUTCRecent(),
			"warning", "power_shift", "moved",
			`{"channel_id":3}`, false,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Append(ctx(t), models.Event{
		Source:   "modem",
		Severity: models.SeverityWarning,
		Type:     models.EventPowerShift,
		Message:  "moved",
		Details:  map[string]any{"channel_id": 3},
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestEventAppend_DBError(t *testing.T) {
	t.Parallel()

	db, mock := newMock(t)
	repo := NewEventSQLite(db)

	mock.ExpectExec("INSERT INTO events").WillReturnError(errors.New("down"))

	err := repo.Append(ctx(t), models.Event{ID: "e1", Type: models.EventSNRDrop, Message: "x"})
	if err == nil || !strings.Contains(err.Error(), "down") {
		t.Fatalf("expected error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

var eventColumns = []string{"id", "source", "occurred_at", "severity", "type", "message", "details", "acknowledged"}

func TestEventList_NoFilters_DetailsParsing(t *testing.T) {
	t.Parallel()

	db, mock := newMock(t)
	repo := NewEventSQLite(db)

	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	js, _ := json.Marshal(map[string]any{"from": "256QAM"})

	rows := sqlmock.NewRows(eventColumns).
		AddRow("2", "modem", now.Add(time.Hour), "critical", "health_change", "m2", nil, true).
		AddRow("1", "modem", now, "info", "modulation_change", "m1", string(js), false)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, source, occurred_at, severity, type, message, details, acknowledged FROM events ORDER BY occurred_at DESC LIMIT 100`)).
		WillReturnRows(rows)

	got, err := repo.List(ctx(t), EventFilter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 || got[0].ID != "2" || got[1].ID != "1" {
		t.Fatalf("unexpected results: %+v", got)
	}
	if got[0].Severity != models.SeverityCritical || !got[0].Acknowledged || got[0].Details != nil {
		t.Fatalf("unexpected first event: %+v", got[0])
	}
	if got[1].Type != models.EventModulationChange || got[1].Details["from"] != "256QAM" {
		t.Fatalf("unexpected second event: %+v", got[1])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestEventList_WithFilters(t *testing.T) {
	t.Parallel()

	db, mock := newMock(t)
	repo := NewEventSQLite(db)

	from := time.Date(2026, 1, 1, 11, 0, 0, 0, time.UTC)
	to := from.Add(time.Hour)
	query := `SELECT id, source, occurred_at, severity, type, message, details, acknowledged FROM events ` +
		`WHERE source = ? AND type = ? AND severity = ? AND occurred_at >= ? AND occurred_at <= ? AND acknowledged = 0 ` +
		`ORDER BY occurred_at DESC LIMIT 10`

	mock.ExpectQuery(regexp.QuoteMeta(query)).
		WithArgs("modem", "snr_drop", "warning", from, to).
		WillReturnRows(sqlmock.NewRows(eventColumns))

	got, err := repo.List(ctx(t), EventFilter{
		Source:         "modem",
		Type:           " SNR_DROP ",
		Severity:       "Warning",
		From:           from,
		To:             to,
		Unacknowledged: true,
		Limit:          10,
	})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("want empty result, got %d", len(got))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestEventList_ScanError(t *testing.T) {
	t.Parallel()

	db, mock := newMock(t)
	repo := NewEventSQLite(db)

	rows := sqlmock.NewRows(eventColumns).
		AddRow("x", "modem", 123, "info", "power_shift", "msg", nil, "nope")

	mock.ExpectQuery("SELECT id, source").WillReturnRows(rows)

	if _, err := repo.List(ctx(t), EventFilter{}); err == nil {
		t.Fatalf("expected scan error, got nil")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestEventAcknowledge(t *testing.T) {
	t.Parallel()

	t.Run("marks event", func(t *testing.T) {
		t.Parallel()
		db, mock := newMock(t)
		mock.ExpectExec(regexp.QuoteMeta(ackEventSQL)).WithArgs("e1").WillReturnResult(sqlmock.NewResult(0, 1))
		if err := NewEventSQLite(db).Acknowledge(ctx(t), "e1"); err != nil {
			t.Fatalf("Acknowledge: %v", err)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Fatalf("mock expectations: %v", err)
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		t.Parallel()
		db, mock := newMock(t)
		mock.ExpectExec(regexp.QuoteMeta(ackEventSQL)).WithArgs("nope").WillReturnResult(sqlmock.NewResult(0, 0))
		err := NewEventSQLite(db).Acknowledge(ctx(t), "nope")
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("want ErrNotFound, got %v", err)
		}
	})
}
