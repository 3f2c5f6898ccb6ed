package models

import (
	"fmt"
	"time"
)

// ChannelAssessment is the classified verdict for one channel.
type ChannelAssessment struct {
	ChannelID     int       `json:"channel_id"`
	Direction     Direction `json:"direction"`
	Frequency     float64   `json:"frequency_mhz,omitempty"`
	Power         *float64  `json:"power_dbmv,omitempty"`
	SNR           *float64  `json:"snr_db,omitempty"`
	Modulation    string    `json:"modulation,omitempty"`
	DOCSISVersion string    `json:"docsis_version,omitempty"`
	Correctable   *uint64   `json:"correctable,omitempty"`
	Uncorrectable *uint64   `json:"uncorrectable,omitempty"`
	ErrorRatio    *float64  `json:"error_ratio,omitempty"`
	Health        Health    `json:"health"`
	Classified    bool      `json:"classified"`
	Findings      []string  `json:"findings,omitempty"`
}

// Key identifies a channel within a snapshot, e.g. "downstream:17".
func (c ChannelAssessment) Key() string {
	return fmt.Sprintf("%s:%d", c.Direction, c.ChannelID)
}

// DirectionSummary aggregates one direction of a snapshot.
type DirectionSummary struct {
	Channels int     `json:"channels"`
	PowerMin float64 `json:"power_min"`
	PowerAvg float64 `json:"power_avg"`
	PowerMax float64 `json:"power_max"`
	SNRMin   float64 `json:"snr_min,omitempty"`
	SNRAvg   float64 `json:"snr_avg,omitempty"`
}

// Summary holds the aggregate metrics of a snapshot.
type Summary struct {
	Downstream         DirectionSummary `json:"downstream"`
	Upstream           DirectionSummary `json:"upstream"`
	TotalCorrectable   uint64           `json:"total_correctable"`
	TotalUncorrectable uint64           `json:"total_uncorrectable"`
	HealthCounts       map[string]int   `json:"health_counts"`
	Unclassified       []string         `json:"unclassified,omitempty"`
	Issues             []string         `json:"issues,omitempty"`
}

// Snapshot is one fully classified reading of a source.
type Snapshot struct {
	ID            string              `json:"id"`
	Source        string              `json:"source"`
	Timestamp     time.Time           `json:"timestamp"`
	OverallHealth Health              `json:"overall_health"`
	Device        DeviceInfo          `json:"device"`
	Channels      []ChannelAssessment `json:"channels"`
	Summary       Summary             `json:"summary"`
}

// Channel returns the assessment for the given direction and id.
func (s Snapshot) Channel(dir Direction, id int) (ChannelAssessment, bool) {
	for _, c := range s.Channels {
		if c.Direction == dir && c.ChannelID == id {
			return c, true
		}
	}
	return ChannelAssessment{}, false
}
