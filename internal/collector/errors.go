package collector

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failed run.
type ErrorKind string

const (
	KindTransient ErrorKind = "transient" // retried on the next poll after backoff
	KindConfig    ErrorKind = "config"    // collector disabled, no backoff
	KindPersist   ErrorKind = "persist"   // fetched fine, storage failed
	KindInternal  ErrorKind = "internal"  // bug, e.g. a recovered panic
)

// ErrPermanentConfig marks a collector that cannot work with its current configuration.
var ErrPermanentConfig = errors.New("collector misconfigured")

var (
	ErrUnknownCollector  = errors.New("unknown collector")
	ErrCollectorDisabled = errors.New("collector disabled")
	ErrCollectorBusy     = errors.New("collector run already in progress")
	ErrSchedulerStopped  = errors.New("scheduler stopped")
)

// FetchError wraps a failure talking to the data source.
type FetchError struct {
	Source string
	Op     string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Source, e.Op, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// PersistError wraps a storage failure after a successful fetch.
type PersistError struct {
	What string
	Err  error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.What, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }

// panicError is what a recovered panic inside Collect turns into.
type panicError struct {
	value any
	stack []byte
}

func (e *panicError) Error() string { return fmt.Sprintf("collect panicked: %v", e.value) }

// KindOf maps err to the kind the scheduler acts on.
func KindOf(err error) ErrorKind {
	var (
		pe *PersistError
		pp *panicError
	)
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrPermanentConfig):
		return KindConfig
	case errors.As(err, &pe):
		return KindPersist
	case errors.As(err, &pp):
		return KindInternal
	default:
		return KindTransient
	}
}
