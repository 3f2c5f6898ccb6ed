package models

import "time"

// Direction of a bonded channel.
type Direction string

const (
	Downstream Direction = "downstream"
	Upstream   Direction = "upstream"
)

// DeviceInfo is modem metadata reported by a driver.
type DeviceInfo struct {
	Model           string `json:"model,omitempty"`
	Manufacturer    string `json:"manufacturer,omitempty"`
	SoftwareVersion string `json:"software_version,omitempty"`
	UptimeSeconds   int64  `json:"uptime_seconds,omitempty"`
}

// RawChannel is one channel exactly as the modem reported it.
// Nil pointers mean the modem did not report the value.
type RawChannel struct {
	ChannelID     int      `json:"channel_id"`
	Frequency     float64  `json:"frequency_mhz,omitempty"`
	Power         *float64 `json:"power_dbmv,omitempty"`
	SNR           *float64 `json:"snr_db,omitempty"`
	Modulation    string   `json:"modulation,omitempty"`     // e.g. 256QAM, 4096QAM, 64QAM
	DOCSISVersion string   `json:"docsis_version,omitempty"` // "3.0" | "3.1"
	Locked        *bool    `json:"locked,omitempty"`
	Unerrored     *uint64  `json:"unerrored,omitempty"`
	Correctable   *uint64  `json:"correctable,omitempty"`
	Uncorrectable *uint64  `json:"uncorrectable,omitempty"`
}

// RawReading is a single fetch from one source. It is not mutated after the driver returns it.
type RawReading struct {
	Source     string       `json:"source"`
	FetchedAt  time.Time    `json:"fetched_at"`
	Device     DeviceInfo   `json:"device"`
	Downstream []RawChannel `json:"downstream"`
	Upstream   []RawChannel `json:"upstream"`
}

// Float64 and friends build optional fields for drivers and tests.
func Float64(v float64) *float64 { return &v }
func Uint64(v uint64) *uint64    { return &v }
func Bool(v bool) *bool          { return &v }
