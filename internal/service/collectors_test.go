package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/itsDNNS/docsight-sub000/internal/collector"
)

// countingCollector succeeds on every run and counts the calls.
type countingCollector struct {
	*collector.Base
	runs atomic.Int32
}

func (c *countingCollector) Collect(context.Context) collector.Result {
	c.runs.Add(1)
	return collector.Ok(c.Name(), collector.Payload{})
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time      { return c.t }
func (c *clock) add(d time.Duration) { c.t = c.t.Add(d) }

func newCollectorService(t *testing.T, cooldown time.Duration) (*CollectorService, *countingCollector, *clock) {
	t.Helper()
	clk := &clock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	c := &countingCollector{Base: collector.NewBase("modem", 15*time.Minute, true, clk.now)}
	off := collector.NewBase("speedtest", time.Hour, false, clk.now)
	reg, err := collector.NewRegistry(c, &countingCollector{Base: off})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	sched := collector.NewScheduler(reg, collector.Options{Clock: clk.now}, nil, nil)
	return NewCollectorService(sched, cooldown, clk.now), c, clk
}

func TestCollectorService_RefreshCooldown(t *testing.T) {
	t.Parallel()

	svc, c, clk := newCollectorService(t, 10*time.Second)

	res, err := svc.Refresh(context.Background(), "modem")
	if err != nil || !res.Success {
		t.Fatalf("first refresh: %+v, %v", res, err)
	}

	clk.add(4 * time.Second)
	_, err = svc.Refresh(context.Background(), "modem")
	var cd *CooldownError
	if !errors.As(err, &cd) || !errors.Is(err, ErrRefreshCooldown) {
		t.Fatalf("want cooldown error, got %v", err)
	}
	if cd.RetryAfter != 6*time.Second {
		t.Fatalf("RetryAfter = %v, want 6s", cd.RetryAfter)
	}

	clk.add(6 * time.Second)
	if _, err := svc.Refresh(context.Background(), "modem"); err != nil {
		t.Fatalf("refresh after cooldown: %v", err)
	}
	if got := c.runs.Load(); got != 2 {
		t.Fatalf("collector ran %d times, want 2", got)
	}
}

func TestCollectorService_RejectedRefreshDoesNotStartCooldown(t *testing.T) {
	t.Parallel()

	svc, _, _ := newCollectorService(t, time.Minute)

	for i := 0; i < 2; i++ {
		_, err := svc.Refresh(context.Background(), "speedtest")
		if !errors.Is(err, collector.ErrCollectorDisabled) {
			t.Fatalf("attempt %d: want disabled, got %v", i, err)
		}
	}
	if _, err := svc.Refresh(context.Background(), "nope"); !errors.Is(err, collector.ErrUnknownCollector) {
		t.Fatalf("want unknown collector, got %v", err)
	}
}

func TestCollectorService_Status(t *testing.T) {
	t.Parallel()

	svc, _, _ := newCollectorService(t, 0)
	if svc.cooldown != DefaultRefreshCooldown {
		t.Fatalf("cooldown = %v, want default", svc.cooldown)
	}

	st := svc.Status()
	if len(st) != 2 {
		t.Fatalf("want 2 statuses, got %d", len(st))
	}
	byName := map[string]bool{}
	for _, s := range st {
		byName[s.Name] = s.Enabled
	}
	if !byName["modem"] || byName["speedtest"] {
		t.Fatalf("unexpected enabled flags: %v", byName)
	}
}
