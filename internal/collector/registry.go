package collector

import (
	"fmt"
	"math"
	"time"

	"github.com/itsDNNS/docsight-sub000/internal/models"
)

// Registry is the fixed set of collectors built at startup.
type Registry struct {
	ordered []Collector
	byName  map[string]Collector
}

// NewRegistry keeps collectors in the given order. Names must be unique.
func NewRegistry(cs ...Collector) (*Registry, error) {
	r := &Registry{byName: make(map[string]Collector, len(cs))}
	for _, c := range cs {
		if _, dup := r.byName[c.Name()]; dup {
			return nil, fmt.Errorf("duplicate collector name %q", c.Name())
		}
		r.byName[c.Name()] = c
		r.ordered = append(r.ordered, c)
	}
	return r, nil
}

// All returns the collectors in registration order.
func (r *Registry) All() []Collector {
	out := make([]Collector, len(r.ordered))
	copy(out, r.ordered)
	return out
}

func (r *Registry) Get(name string) (Collector, bool) {
	c, ok := r.byName[name]
	return c, ok
}

// Status reports every collector. It only reads state.
func (r *Registry) Status(now time.Time) []models.CollectorStatus {
	out := make([]models.CollectorStatus, 0, len(r.ordered))
	for _, c := range r.ordered {
		out = append(out, StatusOf(c, now))
	}
	return out
}

// StatusOf derives the status payload of c from its state.
func StatusOf(c Collector, now time.Time) models.CollectorStatus {
	st := c.State()
	interval := int(c.PollInterval() / time.Second)
	effective := interval + st.PenaltySeconds

	s := models.CollectorStatus{
		Name:                c.Name(),
		Enabled:             c.IsEnabled(),
		ConsecutiveFailures: st.ConsecutiveFailures,
		PenaltySeconds:      st.PenaltySeconds,
		PollInterval:        interval,
		EffectiveInterval:   effective,
	}
	if !st.LastPollAt.IsZero() {
		s.LastPoll = st.LastPollAt.Unix()
		next := st.LastPollAt.Add(time.Duration(effective) * time.Second)
		if wait := next.Sub(now); wait > 0 {
			s.NextPollIn = int(math.Ceil(wait.Seconds()))
		}
	}
	return s
}
