package thresholds

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/itsDNNS/docsight-sub000/internal/models"

	"gopkg.in/yaml.v3"
)

var (
	errNoRules = errors.New("thresholds file contains no rules")
)

type file struct {
	Rules []Rule `yaml:"rules"`
}

// Parse decodes a YAML thresholds document and validates every rule.
func Parse(data []byte) (*Table, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode thresholds: %w", err)
	}
	if len(f.Rules) == 0 {
		return nil, errNoRules
	}
	for i := range f.Rules {
		r := &f.Rules[i]
		r.Direction = models.Direction(strings.ToLower(strings.TrimSpace(string(r.Direction))))
		r.Metric = Metric(strings.ToLower(strings.TrimSpace(string(r.Metric))))
		if err := validateRule(*r); err != nil {
			return nil, fmt.Errorf("rule %d: %w", i+1, err)
		}
	}
	return NewTable(f.Rules), nil
}

// LoadFile reads and parses a thresholds file.
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read thresholds %q: %w", path, err)
	}
	return Parse(data)
}

func validateRule(r Rule) error {
	switch r.Direction {
	case models.Downstream, models.Upstream:
	default:
		return fmt.Errorf("invalid direction %q", r.Direction)
	}
	switch r.Metric {
	case MetricPower, MetricErrorRatio:
	case MetricSNR:
		if r.Direction != models.Downstream {
			return errors.New("snr rules apply to downstream only")
		}
	default:
		return fmt.Errorf("invalid metric %q", r.Metric)
	}
	if r.Good.empty() {
		return errors.New("good band is required")
	}
	for name, rg := range map[string]Range{"good": r.Good, "marginal": r.Marginal, "poor": r.Poor} {
		if rg.Min != nil && rg.Max != nil && *rg.Min > *rg.Max {
			return fmt.Errorf("%s band min %.2f > max %.2f", name, *rg.Min, *rg.Max)
		}
	}
	return nil
}
