package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/itsDNNS/docsight-sub000/internal/collector"
	"github.com/itsDNNS/docsight-sub000/internal/models"
)

type message struct {
	subject string
	data    []byte
}

type fakeConn struct {
	mu   sync.Mutex
	msgs []message
	err  error
}

func (f *fakeConn) Publish(subject string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, message{subject, data})
	return nil
}

func (f *fakeConn) subjects() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.msgs))
	for _, m := range f.msgs {
		out = append(out, m.subject)
	}
	return out
}

func TestOnResult_PublishesSnapshotAndEvents(t *testing.T) {
	t.Parallel()

	conn := &fakeConn{}
	p := New(conn, "docsight.", nil)

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	snap := &models.Snapshot{ID: "s1", Source: "modem", Timestamp: at, OverallHealth: models.HealthPoor}
	r := collector.Ok("modem", collector.Payload{
		Snapshot: snap,
		Events: []models.Event{
			{ID: "e1", Source: "modem", Type: models.EventSNRDrop},
			{ID: "e2", Source: "modem", Type: models.EventPowerShift},
		},
	})

	p.OnResult(context.Background(), r)

	want := []string{"docsight.snapshot.modem", "docsight.event.modem", "docsight.event.modem"}
	if got := conn.subjects(); !reflect.DeepEqual(got, want) {
		t.Fatalf("subjects = %v, want %v", got, want)
	}

	var decoded models.Snapshot
	if err := json.Unmarshal(conn.msgs[0].data, &decoded); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if decoded.ID != "s1" || decoded.OverallHealth != models.HealthPoor {
		t.Fatalf("unexpected payload: %+v", decoded)
	}
}

func TestOnResult_SpeedtestAndFailures(t *testing.T) {
	t.Parallel()

	conn := &fakeConn{}
	p := New(conn, "", nil)

	p.OnResult(context.Background(), collector.Failure("speedtest", errors.New("down")))
	if len(conn.subjects()) != 0 {
		t.Fatalf("failed run must not publish")
	}

	p.OnResult(context.Background(), collector.Ok("speedtest", collector.Payload{
		Speedtest: &models.SpeedtestResult{ID: "r1", Source: "speed test"},
	}))
	if got := conn.subjects(); !reflect.DeepEqual(got, []string{"docsight.speedtest.speed_test"}) {
		t.Fatalf("subjects = %v", got)
	}
}

func TestOnResult_PublishErrorIsSwallowed(t *testing.T) {
	t.Parallel()

	conn := &fakeConn{err: errors.New("nats: connection closed")}
	p := New(conn, "x", nil)

	// Must neither panic nor block.
	p.OnResult(context.Background(), collector.Ok("modem", collector.Payload{
		Snapshot: &models.Snapshot{ID: "s1", Source: "modem"},
	}))
}

func TestSubjectToken(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]string{
		"modem":     "modem",
		"a.b":       "a_b",
		"wild*card": "wild_card",
		"":          "unknown",
	} {
		if got := subjectToken(in); got != want {
			t.Errorf("subjectToken(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestConnect_RequiresURL(t *testing.T) {
	t.Parallel()

	if _, err := Connect("", "docsight", nil); err == nil {
		t.Fatalf("expected error for empty url")
	}
}
