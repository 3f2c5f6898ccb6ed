package models

import "time"

// CollectorState is the fail-safe record of a single collector.
type CollectorState struct {
	Name                string    `json:"name"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
	PenaltySeconds      int       `json:"penalty_seconds"`
	LastPollAt          time.Time `json:"last_poll_at"`
	LastSuccessAt       time.Time `json:"last_success_at"`
}

// CollectorStatus is the status payload served to UI and ops tooling.
type CollectorStatus struct {
	Name                string `json:"name"`
	Enabled             bool   `json:"enabled"`
	ConsecutiveFailures int    `json:"consecutive_failures"`
	PenaltySeconds      int    `json:"penalty_seconds"`
	PollInterval        int    `json:"poll_interval"`
	EffectiveInterval   int    `json:"effective_interval"`
	LastPoll            int64  `json:"last_poll"`
	NextPollIn          int    `json:"next_poll_in"`
}

// SpeedtestResult is one measurement from a speedtest source.
type SpeedtestResult struct {
	ID           string    `json:"id"`
	ExternalID   string    `json:"external_id,omitempty"`
	Source       string    `json:"source"`
	Timestamp    time.Time `json:"timestamp"`
	DownloadMbps float64   `json:"download_mbps"`
	UploadMbps   float64   `json:"upload_mbps"`
	PingMs       float64   `json:"ping_ms"`
	JitterMs     float64   `json:"jitter_ms,omitempty"`
	Server       string    `json:"server,omitempty"`
}
