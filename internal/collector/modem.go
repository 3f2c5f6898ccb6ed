package collector

import (
	"context"
	"errors"
	"fmt"

	"github.com/itsDNNS/docsight-sub000/internal/analyzer"
	"github.com/itsDNNS/docsight-sub000/internal/driver"
	"github.com/itsDNNS/docsight-sub000/internal/events"
	"github.com/itsDNNS/docsight-sub000/internal/models"
	"github.com/itsDNNS/docsight-sub000/internal/thresholds"
)

// SnapshotStore saves one modem cycle atomically.
type SnapshotStore interface {
	SaveCycle(ctx context.Context, snap models.Snapshot, evs []models.Event) error
}

// Modem polls a modem driver, analyzes the reading and diffs it against the
// previous snapshot.
type Modem struct {
	*Base
	drv        driver.Driver
	thresholds *thresholds.Store
	detector   *events.Detector
	store      SnapshotStore
}

func NewModem(b *Base, drv driver.Driver, th *thresholds.Store, det *events.Detector, store SnapshotStore) *Modem {
	return &Modem{Base: b, drv: drv, thresholds: th, detector: det, store: store}
}

// Collect runs one cycle. The detector baseline only moves once the snapshot
// and its events are stored, so a failed write is retried against the same
// baseline.
func (m *Modem) Collect(ctx context.Context) Result {
	name := m.Name()
	if m.drv == nil {
		return Failure(name, fmt.Errorf("%w: no driver", ErrPermanentConfig))
	}

	if err := m.drv.Login(ctx); err != nil {
		return Failure(name, m.fetchErr("login", err))
	}
	raw, err := m.drv.GetDocsisData(ctx)
	if err != nil {
		return Failure(name, m.fetchErr("get docsis data", err))
	}
	info, err := m.drv.GetDeviceInfo(ctx)
	if err != nil {
		return Failure(name, m.fetchErr("get device info", err))
	}

	raw.Source = name
	raw.Device = info
	if raw.FetchedAt.IsZero() {
		raw.FetchedAt = m.now()
	}

	snap := analyzer.Analyze(raw, m.thresholds.Current())
	evs := m.detector.Preview(snap)
	if err := m.store.SaveCycle(ctx, snap, evs); err != nil {
		return Failure(name, &PersistError{What: "snapshot", Err: err})
	}
	m.detector.Commit(snap)

	return Ok(name, Payload{Snapshot: &snap, Events: evs})
}

func (m *Modem) fetchErr(op string, err error) error {
	if errors.Is(err, driver.ErrNotConfigured) {
		return fmt.Errorf("%w: %s: %v", ErrPermanentConfig, op, err)
	}
	return &FetchError{Source: m.Name(), Op: op, Err: err}
}
