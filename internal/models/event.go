package models

import "time"

type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

type EventType string

const (
	EventHealthChange     EventType = "health_change"
	EventPowerShift       EventType = "power_shift"
	EventSNRDrop          EventType = "snr_drop"
	EventModulationChange EventType = "modulation_change"
	EventErrorSpike       EventType = "error_spike"
	EventChannelChange    EventType = "channel_change"
)

// Event is a single detected change between two consecutive snapshots.
type Event struct {
	ID           string         `json:"id"`
	Source       string         `json:"source"`
	Timestamp    time.Time      `json:"timestamp"`
	Severity     Severity       `json:"severity"`
	Type         EventType      `json:"event_type"`
	Message      string         `json:"message"`
	Details      map[string]any `json:"details,omitempty"`
	Acknowledged bool           `json:"acknowledged"`
}
