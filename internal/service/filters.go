package service

import "time"

// LogFilter supports event history filtering. Zero values mean no bound.
type LogFilter struct {
	Source         string
	Type           string
	Severity       string
	From           time.Time // inclusive
	To             time.Time // inclusive
	Unacknowledged bool
	Limit          int
}

// SnapshotFilter supports snapshot history filtering.
type SnapshotFilter struct {
	Source string
	From   time.Time
	To     time.Time
	Limit  int
}
