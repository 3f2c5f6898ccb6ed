package collector

import (
	"sync"
	"time"

	"github.com/itsDNNS/docsight-sub000/internal/models"
)

// Fail-safe tuning.
const (
	BasePenalty    = 30 * time.Second
	MaxPenalty     = time.Hour
	AutoResetAfter = 24 * time.Hour
)

// Penalty is the backoff added to the poll interval after n consecutive
// failures: 30s, 60s, 120s ... capped at one hour from the 8th failure on.
func Penalty(n int) time.Duration {
	if n <= 0 {
		return 0
	}
	// 30s << 7 already exceeds the cap; stop shifting before it can overflow.
	if n > 8 {
		return MaxPenalty
	}
	p := BasePenalty << (n - 1)
	if p > MaxPenalty {
		return MaxPenalty
	}
	return p
}

// Base holds the fail-safe state of one collector. All methods are safe for
// concurrent use; the scheduler and a manual refresh may race on the same
// collector.
type Base struct {
	name     string
	interval time.Duration
	now      func() time.Time

	mu       sync.Mutex
	enabled  bool
	disabled error
	st       models.CollectorState
	// resetAnchor is where the 24h auto-reset window starts: the last success,
	// creation time if there was none, or the last auto reset.
	resetAnchor time.Time
}

// NewBase returns the state for a collector. A nil clock means time.Now.
func NewBase(name string, interval time.Duration, enabled bool, clock func() time.Time) *Base {
	if clock == nil {
		clock = time.Now
	}
	return &Base{
		name:        name,
		interval:    interval,
		now:         clock,
		enabled:     enabled,
		st:          models.CollectorState{Name: name},
		resetAnchor: clock().UTC(),
	}
}

func (b *Base) Name() string { return b.name }

func (b *Base) PollInterval() time.Duration { return b.interval }

func (b *Base) IsEnabled() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.enabled
}

// Disable takes the collector out of rotation until restart.
func (b *Base) Disable(reason error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.enabled = false
	b.disabled = reason
}

// DisabledReason is the error passed to Disable, if any.
func (b *Base) DisabledReason() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.disabled
}

// ShouldPoll reports whether the collector is enabled and its interval plus
// backoff penalty has elapsed since the last poll.
func (b *Base) ShouldPoll(now time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.enabled {
		return false
	}
	if b.st.LastPollAt.IsZero() {
		return true
	}
	wait := b.interval + time.Duration(b.st.PenaltySeconds)*time.Second
	return now.Sub(b.st.LastPollAt) >= wait
}

// MarkPolled records the start of a run.
func (b *Base) MarkPolled(now time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.st.LastPollAt = now.UTC()
}

func (b *Base) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := b.now().UTC()
	b.st.ConsecutiveFailures = 0
	b.st.PenaltySeconds = 0
	b.st.LastSuccessAt = now
	b.resetAnchor = now
}

func (b *Base) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.st.ConsecutiveFailures++
	b.st.PenaltySeconds = int(Penalty(b.st.ConsecutiveFailures) / time.Second)
}

// AutoReset clears the backoff of a collector that has gone more than 24h
// without a success. It reports whether anything was cleared.
func (b *Base) AutoReset(now time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.st.ConsecutiveFailures == 0 && b.st.PenaltySeconds == 0 {
		return false
	}
	if now.Sub(b.resetAnchor) <= AutoResetAfter {
		return false
	}
	b.st.ConsecutiveFailures = 0
	b.st.PenaltySeconds = 0
	b.resetAnchor = now.UTC()
	return true
}

// State returns a copy of the current state.
func (b *Base) State() models.CollectorState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.st
}

// Restore loads previously persisted state, e.g. after a restart. The
// penalty is recomputed from the failure count.
func (b *Base) Restore(st models.CollectorState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if st.ConsecutiveFailures < 0 {
		st.ConsecutiveFailures = 0
	}
	b.st = models.CollectorState{
		Name:                b.name,
		ConsecutiveFailures: st.ConsecutiveFailures,
		PenaltySeconds:      int(Penalty(st.ConsecutiveFailures) / time.Second),
		LastPollAt:          st.LastPollAt.UTC(),
		LastSuccessAt:       st.LastSuccessAt.UTC(),
	}
	if !st.LastSuccessAt.IsZero() {
		b.resetAnchor = st.LastSuccessAt.UTC()
	}
}
