package collector

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/itsDNNS/docsight-sub000/internal/logger"
	"github.com/itsDNNS/docsight-sub000/internal/models"
)

// Scheduler defaults.
const (
	DefaultTick           = 1 * time.Second
	DefaultCollectTimeout = 30 * time.Second
	DefaultShutdownGrace  = 10 * time.Second
)

// StateStore persists collector state across restarts.
type StateStore interface {
	LoadAll(ctx context.Context) ([]models.CollectorState, error)
	Save(ctx context.Context, st models.CollectorState) error
}

// Listener receives every run result after the collector state is updated.
// Listeners must not block for long; the collector stays in flight until
// they return.
type Listener interface {
	OnResult(ctx context.Context, r Result)
}

type Options struct {
	Tick           time.Duration
	CollectTimeout time.Duration
	ShutdownGrace  time.Duration
	// Clock overrides time.Now, for tests.
	Clock func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Tick <= 0 {
		o.Tick = DefaultTick
	}
	if o.CollectTimeout <= 0 {
		o.CollectTimeout = DefaultCollectTimeout
	}
	if o.ShutdownGrace <= 0 {
		o.ShutdownGrace = DefaultShutdownGrace
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
	return o
}

// Scheduler drives the registry on a fixed tick. Each due collector runs in
// its own goroutine; a collector never has more than one run in flight.
type Scheduler struct {
	reg       *Registry
	opts      Options
	log       *logger.Logger
	states    StateStore
	listeners []Listener

	mu       sync.Mutex
	inFlight map[string]bool
	stopped  bool
	wg       sync.WaitGroup
}

// NewScheduler wires the registry to its collaborators. states and log may be nil.
func NewScheduler(reg *Registry, opts Options, states StateStore, log *logger.Logger, listeners ...Listener) *Scheduler {
	return &Scheduler{
		reg:       reg,
		opts:      opts.withDefaults(),
		log:       log,
		states:    states,
		listeners: listeners,
		inFlight:  make(map[string]bool),
	}
}

func (s *Scheduler) Registry() *Registry { return s.reg }

// Restore loads persisted state into the registered collectors. Unknown names
// are ignored; collectors without a stored row start from zero.
func (s *Scheduler) Restore(ctx context.Context) error {
	if s.states == nil {
		return nil
	}
	all, err := s.states.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("load collector state: %w", err)
	}
	for _, st := range all {
		if c, ok := s.reg.Get(st.Name); ok {
			c.Restore(st)
			s.infow("collector_state_restored", "collector", st.Name,
				"consecutive_failures", st.ConsecutiveFailures)
		}
	}
	return nil
}

// Run ticks until ctx is canceled, then waits for in-flight runs up to the
// shutdown grace period.
func (s *Scheduler) Run(ctx context.Context) {
	t := time.NewTicker(s.opts.Tick)
	defer t.Stop()

	s.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			s.stop()
			s.drain()
			return
		case <-t.C:
			s.tick(ctx)
		}
	}
}

// tick starts every due collector that is not already running.
func (s *Scheduler) tick(ctx context.Context) {
	now := s.opts.Clock()
	for _, c := range s.reg.All() {
		if !c.IsEnabled() {
			continue
		}
		if c.AutoReset(now) {
			s.infow("collector_backoff_auto_reset", "collector", c.Name())
		}
		if !c.ShouldPoll(now) || s.begin(c.Name()) != nil {
			continue
		}
		go func(c Collector) {
			defer s.wg.Done()
			defer s.release(c.Name())
			s.execute(ctx, c)
		}(c)
	}
}

// Trigger runs name now through the same path as the tick loop and returns
// its result. It does not wait for the poll interval.
func (s *Scheduler) Trigger(ctx context.Context, name string) (Result, error) {
	c, ok := s.reg.Get(name)
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrUnknownCollector, name)
	}
	if !c.IsEnabled() {
		return Result{}, fmt.Errorf("%w: %s", ErrCollectorDisabled, name)
	}
	if err := s.begin(name); err != nil {
		return Result{}, fmt.Errorf("%w: %s", err, name)
	}
	defer s.wg.Done()
	defer s.release(name)

	c.AutoReset(s.opts.Clock())
	return s.execute(ctx, c), nil
}

// InFlight reports whether name has a run in progress.
func (s *Scheduler) InFlight(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight[name]
}

// begin reserves name and counts the run in wg. Both happen under mu so that
// no run is added once stop has been called and drain may be waiting.
func (s *Scheduler) begin(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return ErrSchedulerStopped
	}
	if s.inFlight[name] {
		return ErrCollectorBusy
	}
	s.inFlight[name] = true
	s.wg.Add(1)
	return nil
}

// stop refuses every later run.
func (s *Scheduler) stop() {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
}

func (s *Scheduler) release(name string) {
	s.mu.Lock()
	delete(s.inFlight, name)
	s.mu.Unlock()
}

// execute is the single run path: collect, classify, update backoff state,
// persist it and notify listeners. Shutdown does not cancel a run; only the
// collect timeout does.
func (s *Scheduler) execute(parent context.Context, c Collector) Result {
	ctx := context.WithoutCancel(parent)
	started := s.opts.Clock()
	c.MarkPolled(started)

	runCtx, cancel := context.WithTimeout(ctx, s.opts.CollectTimeout)
	res := safeCollect(runCtx, c)
	cancel()
	if res.CollectorName == "" {
		res.CollectorName = c.Name()
	}

	switch {
	case res.Success:
		c.RecordSuccess()
		s.debugw("collector_run_ok", "collector", c.Name(),
			"duration", s.opts.Clock().Sub(started).String())
	case res.Kind == KindConfig:
		c.Disable(res.Err)
		s.errorw("collector_disabled", "collector", c.Name(), "err", res.Err)
	default:
		c.RecordFailure()
		st := c.State()
		s.warnw("collector_run_failed", "collector", c.Name(), "kind", string(res.Kind),
			"consecutive_failures", st.ConsecutiveFailures, "penalty_seconds", st.PenaltySeconds, "err", res.Err)
		var pe *panicError
		if errors.As(res.Err, &pe) {
			s.errorw("collector_panic", "collector", c.Name(), "stack", string(pe.stack))
		}
	}

	if s.states != nil {
		if err := s.states.Save(ctx, c.State()); err != nil {
			s.errorw("collector_state_save_failed", "collector", c.Name(), "err", err)
		}
	}
	for _, l := range s.listeners {
		l.OnResult(ctx, res)
	}
	return res
}

// safeCollect turns a panic inside Collect into a failed result.
func safeCollect(ctx context.Context, c Collector) (res Result) {
	defer func() {
		if v := recover(); v != nil {
			res = Failure(c.Name(), &panicError{value: v, stack: debug.Stack()})
		}
	}()
	return c.Collect(ctx)
}

// drain waits for in-flight runs, giving up after the grace period.
func (s *Scheduler) drain() {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(s.opts.ShutdownGrace):
		s.warnw("collector_shutdown_grace_elapsed", "grace", s.opts.ShutdownGrace.String())
	}
}

// Wait blocks until no run is in flight. Intended for tests and shutdown paths.
func (s *Scheduler) Wait() { s.wg.Wait() }

func (s *Scheduler) debugw(msg string, kv ...any) {
	if s.log != nil {
		s.log.Debugw(msg, kv...)
	}
}

func (s *Scheduler) infow(msg string, kv ...any) {
	if s.log != nil {
		s.log.Infow(msg, kv...)
	}
}

func (s *Scheduler) warnw(msg string, kv ...any) {
	if s.log != nil {
		s.log.Warnw(msg, kv...)
	}
}

func (s *Scheduler) errorw(msg string, kv ...any) {
	if s.log != nil {
		s.log.Errorw(msg, kv...)
	}
}
