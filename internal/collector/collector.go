// Package collector runs data sources on a fixed tick with a fail-safe
// exponential backoff per source.
package collector

import (
	"context"
	"time"

	"github.com/itsDNNS/docsight-sub000/internal/models"
)

// Collector is one polled data source. Implementations embed *Base for the
// fail-safe state and provide Collect.
type Collector interface {
	Name() string
	IsEnabled() bool
	PollInterval() time.Duration
	ShouldPoll(now time.Time) bool
	Collect(ctx context.Context) Result
	RecordSuccess()
	RecordFailure()

	State() models.CollectorState
	MarkPolled(now time.Time)
	AutoReset(now time.Time) bool
	Restore(st models.CollectorState)
	Disable(reason error)
}

// Payload is what a successful run produced. Exactly the fields matching the
// collector type are set.
type Payload struct {
	Snapshot  *models.Snapshot
	Events    []models.Event
	Speedtest *models.SpeedtestResult
}

// Result is the outcome of one Collect call. Build it with Ok or Failure.
type Result struct {
	CollectorName string
	Success       bool
	Payload
	Err  error
	Kind ErrorKind
}

func Ok(name string, p Payload) Result {
	return Result{CollectorName: name, Success: true, Payload: p}
}

func Failure(name string, err error) Result {
	return Result{CollectorName: name, Err: err, Kind: KindOf(err)}
}
