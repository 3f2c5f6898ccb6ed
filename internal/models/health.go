package models

import (
	"fmt"
	"strings"
)

// Health is an ordinal verdict; a higher value is more severe.
type Health int

const (
	HealthGood Health = iota
	HealthMarginal
	HealthPoor
	HealthCritical
)

func (h Health) String() string {
	switch h {
	case HealthGood:
		return "good"
	case HealthMarginal:
		return "marginal"
	case HealthPoor:
		return "poor"
	case HealthCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Valid reports whether h is one of the four known verdicts.
func (h Health) Valid() bool {
	return h >= HealthGood && h <= HealthCritical
}

// Worse returns the more severe of a and b.
func Worse(a, b Health) Health {
	if b > a {
		return b
	}
	return a
}

// ParseHealth accepts the lowercase names produced by String (case-insensitive).
func ParseHealth(s string) (Health, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "good":
		return HealthGood, nil
	case "marginal":
		return HealthMarginal, nil
	case "poor":
		return HealthPoor, nil
	case "critical":
		return HealthCritical, nil
	default:
		return HealthGood, fmt.Errorf("unknown health %q", s)
	}
}

func (h Health) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

func (h *Health) UnmarshalText(b []byte) error {
	v, err := ParseHealth(string(b))
	if err != nil {
		return err
	}
	*h = v
	return nil
}
