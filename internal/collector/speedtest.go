package collector

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/itsDNNS/docsight-sub000/internal/driver/jsonapi"
	"github.com/itsDNNS/docsight-sub000/internal/models"
)

// SpeedtestSource returns the newest measurement of a speedtest tracker.
type SpeedtestSource interface {
	Latest(ctx context.Context) (models.SpeedtestResult, error)
}

// SpeedtestStore saves a result unless one with the same external id is
// already stored for the source.
type SpeedtestStore interface {
	SaveSpeedtest(ctx context.Context, r models.SpeedtestResult) (inserted bool, err error)
}

type Speedtest struct {
	*Base
	src   SpeedtestSource
	store SpeedtestStore
}

func NewSpeedtest(b *Base, src SpeedtestSource, store SpeedtestStore) *Speedtest {
	return &Speedtest{Base: b, src: src, store: store}
}

// Collect stores the latest result. A tracker without results yet, or an
// already stored result, is a successful run with an empty payload.
func (s *Speedtest) Collect(ctx context.Context) Result {
	name := s.Name()
	r, err := s.src.Latest(ctx)
	switch {
	case errors.Is(err, jsonapi.ErrNoResult):
		return Ok(name, Payload{})
	case err != nil:
		return Failure(name, &FetchError{Source: name, Op: "latest speedtest", Err: err})
	}

	r.ID = uuid.NewString()
	r.Source = name
	if r.Timestamp.IsZero() {
		r.Timestamp = s.now().UTC()
	}
	inserted, err := s.store.SaveSpeedtest(ctx, r)
	if err != nil {
		return Failure(name, &PersistError{What: "speedtest result", Err: err})
	}
	if !inserted {
		return Ok(name, Payload{})
	}
	return Ok(name, Payload{Speedtest: &r})
}
