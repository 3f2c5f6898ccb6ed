package thresholds

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/itsDNNS/docsight-sub000/internal/models"
)

func TestBandsClassify(t *testing.T) {
	t.Parallel()

	b := Bands{Good: between(-4, 13), Marginal: between(-6, 15), Poor: between(-8, 17)}
	cases := []struct {
		v    float64
		want models.Health
	}{
		{0, models.HealthGood},
		{13, models.HealthGood},
		{14, models.HealthMarginal},
		{-5, models.HealthMarginal},
		{16.5, models.HealthPoor},
		{-8, models.HealthPoor},
		{17.1, models.HealthCritical},
		{-20, models.HealthCritical},
	}
	for _, tc := range cases {
		if got := b.Classify(tc.v); got != tc.want {
			t.Errorf("Classify(%v) = %v, want %v", tc.v, got, tc.want)
		}
	}
}

func TestBandsClassify_MissingBandsAreAbsent(t *testing.T) {
	t.Parallel()

	goodOnly := Bands{Good: between(-4, 13)}
	cases := []struct {
		v    float64
		want models.Health
	}{
		{0, models.HealthGood},
		{14, models.HealthCritical},
		{40, models.HealthCritical},
		{-20, models.HealthCritical},
	}
	for _, tc := range cases {
		if got := goodOnly.Classify(tc.v); got != tc.want {
			t.Errorf("good only: Classify(%v) = %v, want %v", tc.v, got, tc.want)
		}
	}

	noMarginal := Bands{Good: atLeast(33), Poor: atLeast(29)}
	if got := noMarginal.Classify(31); got != models.HealthPoor {
		t.Errorf("no marginal: Classify(31) = %v, want poor", got)
	}
	if got := noMarginal.Classify(20); got != models.HealthCritical {
		t.Errorf("no marginal: Classify(20) = %v, want critical", got)
	}
}

func TestNormalizeModulation(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]string{
		"256QAM":  "256QAM",
		"QAM256":  "256QAM",
		"qam_256": "256QAM",
		"256-QAM": "256QAM",
		" ofdm ":  "OFDM",
		"*":       "*",
		"":        "",
	} {
		if got := NormalizeModulation(in); got != want {
			t.Errorf("NormalizeModulation(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTableLookupFallsBackToWildcards(t *testing.T) {
	t.Parallel()

	tbl := Default()

	if _, ok := tbl.Lookup(models.Downstream, "QAM256", "3.0", MetricPower); !ok {
		t.Fatalf("expected match for downstream 256QAM 3.0 power")
	}
	// SC-QAM carriers on a 3.1 modem keep their power bands.
	if _, ok := tbl.Lookup(models.Downstream, "256QAM", "3.1", MetricPower); !ok {
		t.Fatalf("expected wildcard-version match for downstream 256QAM 3.1 power")
	}
	// SNR rules are keyed with a wildcard DOCSIS version.
	if _, ok := tbl.Lookup(models.Downstream, "256QAM", "3.1", MetricSNR); !ok {
		t.Fatalf("expected wildcard-version match for SNR")
	}
	// Upstream 3.1 is keyed with a wildcard modulation.
	if _, ok := tbl.Lookup(models.Upstream, "OFDMA", "3.1", MetricPower); !ok {
		t.Fatalf("expected wildcard-modulation match for upstream 3.1")
	}
	if _, ok := tbl.Lookup(models.Downstream, "8QAM", "3.0", MetricPower); ok {
		t.Fatalf("did not expect a match for unknown modulation")
	}
	// Error ratio is fully wildcarded in both directions.
	if _, ok := tbl.Lookup(models.Downstream, "", "", MetricErrorRatio); !ok {
		t.Fatalf("expected wildcard match for downstream error ratio")
	}
	if _, ok := tbl.Lookup(models.Upstream, "64QAM", "3.0", MetricErrorRatio); !ok {
		t.Fatalf("expected wildcard match for upstream error ratio")
	}
}

func TestParse(t *testing.T) {
	t.Parallel()

	t.Run("valid document", func(t *testing.T) {
		t.Parallel()
		doc := []byte(`
rules:
  - direction: Downstream
    modulation: QAM256
    docsis: "3.0"
    metric: power
    good: {min: -3, max: 10}
    marginal: {min: -5, max: 12}
    poor: {min: -7, max: 14}
`)
		tbl, err := Parse(doc)
		if err != nil {
			t.Fatalf("Parse: %v", err)
		}
		b, ok := tbl.Lookup(models.Downstream, "256QAM", "3", MetricPower)
		if !ok {
			t.Fatalf("rule not indexed")
		}
		if got := b.Classify(11); got != models.HealthMarginal {
			t.Fatalf("Classify(11) = %v, want marginal", got)
		}
	})

	t.Run("good band only", func(t *testing.T) {
		t.Parallel()
		doc := []byte(`
rules:
  - {direction: downstream, modulation: 256QAM, docsis: "*", metric: snr, good: {min: 33}}
  - {direction: downstream, modulation: 256QAM, docsis: "*", metric: power, good: {min: -4, max: 13}}
`)
		tbl, err := Parse(doc)
		if err != nil {
			t.Fatalf("Parse: %v", err)
		}
		snr, ok := tbl.Lookup(models.Downstream, "256QAM", "3.0", MetricSNR)
		if !ok {
			t.Fatalf("snr rule not indexed")
		}
		if got := snr.Classify(3); got != models.HealthCritical {
			t.Fatalf("snr Classify(3) = %v, want critical", got)
		}
		power, _ := tbl.Lookup(models.Downstream, "256QAM", "3.0", MetricPower)
		if got := power.Classify(40); got != models.HealthCritical {
			t.Fatalf("power Classify(40) = %v, want critical", got)
		}
	})

	t.Run("rejects bad input", func(t *testing.T) {
		t.Parallel()
		for name, doc := range map[string]string{
			"empty":         "rules: []",
			"bad direction": "rules:\n  - {direction: sideways, metric: power, good: {min: 1}}",
			"snr upstream":  "rules:\n  - {direction: upstream, metric: snr, good: {min: 1}}",
			"no good band":  "rules:\n  - {direction: upstream, metric: power}",
			"inverted":      "rules:\n  - {direction: upstream, metric: power, good: {min: 5, max: 1}}",
			"not yaml":      "rules: [",
		} {
			if _, err := Parse([]byte(doc)); err == nil {
				t.Errorf("%s: expected error", name)
			}
		}
	})
}

func TestStoreReload(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "thresholds.yml")
	write := func(body string) {
		t.Helper()
		if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	write("rules:\n  - {direction: upstream, modulation: 64QAM, docsis: '3.0', metric: power, good: {min: 40, max: 45}}\n")

	s, err := NewStore(path)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	first := s.Current()
	if first.Len() != 1 {
		t.Fatalf("want 1 rule, got %d", first.Len())
	}

	// A broken file keeps the previous table active.
	write("rules: [")
	if err := s.Reload(); err == nil {
		t.Fatalf("expected reload error")
	}
	if s.Current() != first {
		t.Fatalf("table replaced despite reload error")
	}

	write("rules:\n  - {direction: upstream, metric: power, good: {min: 40, max: 45}}\n  - {direction: downstream, metric: snr, good: {min: 30}}\n")
	if err := s.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if s.Current().Len() != 2 {
		t.Fatalf("want 2 rules after reload, got %d", s.Current().Len())
	}
	// The old pointer is untouched.
	if first.Len() != 1 {
		t.Fatalf("previous table mutated")
	}
}

func TestStoreDefaultsWhenNoPath(t *testing.T) {
	t.Parallel()

	s, err := NewStore("")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if s.Current().Len() != len(DefaultRules()) {
		t.Fatalf("want %d default rules, got %d", len(DefaultRules()), s.Current().Len())
	}
	if s.LoadedAt().IsZero() {
		t.Fatalf("LoadedAt not set")
	}
}
