package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/itsDNNS/docsight-sub000/internal/collector"
	"github.com/itsDNNS/docsight-sub000/internal/models"
)

// DefaultRefreshCooldown is applied when no cooldown is configured.
const DefaultRefreshCooldown = 10 * time.Second

// ErrRefreshCooldown matches every *CooldownError.
var ErrRefreshCooldown = errors.New("refresh cooldown active")

// CooldownError is returned when a manual refresh comes too soon after the
// previous one for the same collector.
type CooldownError struct {
	Name       string
	RetryAfter time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("%s: refresh again in %s", e.Name, e.RetryAfter.Round(time.Second))
}

func (e *CooldownError) Is(target error) bool { return target == ErrRefreshCooldown }

type scheduler interface {
	Trigger(ctx context.Context, name string) (collector.Result, error)
	Registry() *collector.Registry
}

type CollectorService struct {
	sched    scheduler
	cooldown time.Duration
	now      func() time.Time

	mu          sync.Mutex
	lastRefresh map[string]time.Time
}

// NewCollectorService builds the service; clock may be nil.
func NewCollectorService(sched scheduler, cooldown time.Duration, clock func() time.Time) *CollectorService {
	if cooldown <= 0 {
		cooldown = DefaultRefreshCooldown
	}
	if clock == nil {
		clock = time.Now
	}
	return &CollectorService{
		sched:       sched,
		cooldown:    cooldown,
		now:         clock,
		lastRefresh: make(map[string]time.Time),
	}
}

func (s *CollectorService) Status() []models.CollectorStatus {
	return s.sched.Registry().Status(s.now())
}

// Refresh runs the named collector now and returns its result. A refresh that
// never started (unknown, disabled or busy collector) does not count towards
// the cooldown.
func (s *CollectorService) Refresh(ctx context.Context, name string) (collector.Result, error) {
	now := s.now()

	s.mu.Lock()
	prev, had := s.lastRefresh[name]
	if had {
		if wait := s.cooldown - now.Sub(prev); wait > 0 {
			s.mu.Unlock()
			return collector.Result{}, &CooldownError{Name: name, RetryAfter: wait}
		}
	}
	s.lastRefresh[name] = now
	s.mu.Unlock()

	res, err := s.sched.Trigger(ctx, name)
	if err != nil {
		s.mu.Lock()
		if had {
			s.lastRefresh[name] = prev
		} else {
			delete(s.lastRefresh, name)
		}
		s.mu.Unlock()
	}
	return res, err
}
