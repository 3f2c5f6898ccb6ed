package db

import (
	"path/filepath"
	"testing"
)

func TestInitDB_CreatesSchema(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "docsight.db")
	conn, err := InitDB(path)
	if err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	defer conn.Close()

	for _, table := range []string{"snapshots", "events", "speedtests", "collector_state"} {
		var name string
		err := conn.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		if err != nil {
			t.Fatalf("table %s missing: %v", table, err)
		}
	}

	// Re-opening an existing file is idempotent.
	again, err := InitDB(path)
	if err != nil {
		t.Fatalf("second InitDB: %v", err)
	}
	_ = again.Close()
}

func TestInitDB_SpeedtestExternalIDIsUnique(t *testing.T) {
	t.Parallel()

	conn, err := InitDB(filepath.Join(t.TempDir(), "docsight.db"))
	if err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	defer conn.Close()

	insert := `INSERT INTO speedtests (id, source, external_id, download_mbps, upload_mbps, ping_ms)
		VALUES (?, 'speedtest', ?, 1, 1, 1) ON CONFLICT DO NOTHING`
	for i, tc := range []struct {
		id, ext string
		want    int64
	}{
		{"a", "42", 1},
		{"b", "42", 0},
		{"c", "43", 1},
	} {
		res, err := conn.Exec(insert, tc.id, tc.ext)
		if err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
		if n, _ := res.RowsAffected(); n != tc.want {
			t.Fatalf("insert %d affected %d rows, want %d", i, n, tc.want)
		}
	}
}
