// Package thresholds holds the signal band table used to classify channels.
//
// A Table is immutable once built. Reloading produces a new Table that is
// swapped into a Store; readers holding the old pointer are unaffected.
package thresholds

import (
	"sort"
	"strings"
	"unicode"

	"github.com/itsDNNS/docsight-sub000/internal/models"
)

type Metric string

const (
	MetricPower      Metric = "power"
	MetricSNR        Metric = "snr"
	MetricErrorRatio Metric = "error_ratio"
)

// Wildcard matches any modulation or DOCSIS version in a rule.
const Wildcard = "*"

// Range is inclusive on both ends; a nil bound is unbounded.
type Range struct {
	Min *float64 `yaml:"min,omitempty" json:"min,omitempty"`
	Max *float64 `yaml:"max,omitempty" json:"max,omitempty"`
}

func (r Range) Contains(v float64) bool {
	if r.Min != nil && v < *r.Min {
		return false
	}
	if r.Max != nil && v > *r.Max {
		return false
	}
	return true
}

func (r Range) empty() bool { return r.Min == nil && r.Max == nil }

func (r Range) within(v float64) bool { return !r.empty() && r.Contains(v) }

// Bands are nested ranges, Good being the narrowest.
type Bands struct {
	Good     Range `yaml:"good" json:"good"`
	Marginal Range `yaml:"marginal" json:"marginal"`
	Poor     Range `yaml:"poor" json:"poor"`
}

// Classify returns the first band containing v; anything outside Poor is
// Critical. A band without bounds is absent, not unbounded, so a rule that
// only sets Good classifies everything else as Critical.
func (b Bands) Classify(v float64) models.Health {
	switch {
	case b.Good.within(v):
		return models.HealthGood
	case b.Marginal.within(v):
		return models.HealthMarginal
	case b.Poor.within(v):
		return models.HealthPoor
	default:
		return models.HealthCritical
	}
}

// Rule binds one set of bands to a (direction, modulation, DOCSIS version, metric) key.
type Rule struct {
	Direction  models.Direction `yaml:"direction" json:"direction"`
	Modulation string           `yaml:"modulation" json:"modulation"`
	DOCSIS     string           `yaml:"docsis" json:"docsis"`
	Metric     Metric           `yaml:"metric" json:"metric"`
	Bands      `yaml:",inline" json:"bands"`
}

type key struct {
	dir        models.Direction
	modulation string
	docsis     string
	metric     Metric
}

// Table is a read-only lookup of bands.
type Table struct {
	rules map[key]Bands
}

// NewTable indexes rules; a later rule with the same key wins.
func NewTable(rules []Rule) *Table {
	t := &Table{rules: make(map[key]Bands, len(rules))}
	for _, r := range rules {
		k := key{
			dir:        r.Direction,
			modulation: NormalizeModulation(r.Modulation),
			docsis:     NormalizeDOCSIS(r.DOCSIS),
			metric:     r.Metric,
		}
		if k.modulation == "" {
			k.modulation = Wildcard
		}
		if k.docsis == "" {
			k.docsis = Wildcard
		}
		t.rules[k] = r.Bands
	}
	return t
}

// Lookup finds bands for a channel, trying the exact key first and then
// wildcard modulation, wildcard version and finally both wildcards.
func (t *Table) Lookup(dir models.Direction, modulation, docsis string, metric Metric) (Bands, bool) {
	if t == nil {
		return Bands{}, false
	}
	mod := NormalizeModulation(modulation)
	ver := NormalizeDOCSIS(docsis)
	candidates := [][2]string{
		{mod, ver},
		{mod, Wildcard},
		{Wildcard, ver},
		{Wildcard, Wildcard},
	}
	for _, c := range candidates {
		if c[0] == "" || c[1] == "" {
			continue
		}
		if b, ok := t.rules[key{dir: dir, modulation: c[0], docsis: c[1], metric: metric}]; ok {
			return b, true
		}
	}
	return Bands{}, false
}

// Rules returns a sorted copy of the table's rules.
func (t *Table) Rules() []Rule {
	if t == nil {
		return nil
	}
	out := make([]Rule, 0, len(t.rules))
	for k, b := range t.rules {
		out = append(out, Rule{Direction: k.dir, Modulation: k.modulation, DOCSIS: k.docsis, Metric: k.metric, Bands: b})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Direction != b.Direction {
			return a.Direction < b.Direction
		}
		if a.Metric != b.Metric {
			return a.Metric < b.Metric
		}
		if a.DOCSIS != b.DOCSIS {
			return a.DOCSIS < b.DOCSIS
		}
		return a.Modulation < b.Modulation
	})
	return out
}

// Len is the number of distinct rules.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rules)
}

// NormalizeModulation maps vendor spellings ("QAM256", "256-QAM", "qam_256") to "256QAM".
func NormalizeModulation(s string) string {
	s = strings.TrimSpace(s)
	if s == Wildcard {
		return Wildcard
	}
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	out := b.String()
	if rest, ok := strings.CutPrefix(out, "QAM"); ok && rest != "" && isDigits(rest) {
		return rest + "QAM"
	}
	return out
}

// NormalizeDOCSIS maps "3", "30", "3.0" to "3.0" and "31", "3.1" to "3.1".
func NormalizeDOCSIS(s string) string {
	s = strings.TrimSpace(s)
	switch s {
	case "":
		return ""
	case Wildcard:
		return Wildcard
	case "3", "30", "3.0":
		return "3.0"
	case "31", "3.1":
		return "3.1"
	}
	return s
}

func isDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
