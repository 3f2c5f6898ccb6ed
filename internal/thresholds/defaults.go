package thresholds

import "github.com/itsDNNS/docsight-sub000/internal/models"

func bound(v float64) *float64 { return &v }

func between(lo, hi float64) Range { return Range{Min: bound(lo), Max: bound(hi)} }
func atLeast(lo float64) Range     { return Range{Min: bound(lo)} }
func atMost(hi float64) Range      { return Range{Max: bound(hi)} }

// DefaultBands returns the conservative fallback used for channels that have
// no table entry. Good ranges are deliberately narrow.
func DefaultBands(dir models.Direction, metric Metric) Bands {
	switch {
	case dir == models.Downstream && metric == MetricPower:
		return Bands{Good: between(-4, 10), Marginal: between(-6, 13), Poor: between(-8, 15)}
	case dir == models.Downstream && metric == MetricSNR:
		return Bands{Good: atLeast(35), Marginal: atLeast(33), Poor: atLeast(30)}
	case dir == models.Upstream && metric == MetricPower:
		return Bands{Good: between(38, 48), Marginal: between(35, 50), Poor: between(32, 52)}
	default:
		return Bands{Good: atMost(0.0001), Marginal: atMost(0.001), Poor: atMost(0.01)}
	}
}

// DefaultRules are the built-in bands used when no thresholds file is configured.
// Power in dBmV, SNR/MER in dB, error ratio = uncorrectable / total codewords.
func DefaultRules() []Rule {
	ds, us := models.Downstream, models.Upstream
	return []Rule{
		// downstream power
		{Direction: ds, Modulation: "64QAM", DOCSIS: Wildcard, Metric: MetricPower,
			Bands: Bands{Good: between(-4, 13), Marginal: between(-6, 15), Poor: between(-8, 17)}},
		{Direction: ds, Modulation: "256QAM", DOCSIS: Wildcard, Metric: MetricPower,
			Bands: Bands{Good: between(-4, 13), Marginal: between(-6, 15), Poor: between(-8, 18)}},
		{Direction: ds, Modulation: "1024QAM", DOCSIS: "3.1", Metric: MetricPower,
			Bands: Bands{Good: between(-2, 15), Marginal: between(-4, 17), Poor: between(-6, 19)}},
		{Direction: ds, Modulation: "4096QAM", DOCSIS: "3.1", Metric: MetricPower,
			Bands: Bands{Good: between(-2, 15), Marginal: between(-4, 17), Poor: between(-6, 19)}},

		// downstream SNR / MER
		{Direction: ds, Modulation: "64QAM", DOCSIS: Wildcard, Metric: MetricSNR,
			Bands: Bands{Good: atLeast(27), Marginal: atLeast(25), Poor: atLeast(23)}},
		{Direction: ds, Modulation: "256QAM", DOCSIS: Wildcard, Metric: MetricSNR,
			Bands: Bands{Good: atLeast(33), Marginal: atLeast(31), Poor: atLeast(29)}},
		{Direction: ds, Modulation: "1024QAM", DOCSIS: Wildcard, Metric: MetricSNR,
			Bands: Bands{Good: atLeast(37), Marginal: atLeast(35), Poor: atLeast(33)}},
		{Direction: ds, Modulation: "4096QAM", DOCSIS: Wildcard, Metric: MetricSNR,
			Bands: Bands{Good: atLeast(41), Marginal: atLeast(39), Poor: atLeast(37)}},

		// upstream power
		{Direction: us, Modulation: "16QAM", DOCSIS: "3.0", Metric: MetricPower,
			Bands: Bands{Good: between(35, 52), Marginal: between(32, 54), Poor: between(30, 56)}},
		{Direction: us, Modulation: "64QAM", DOCSIS: "3.0", Metric: MetricPower,
			Bands: Bands{Good: between(35, 49), Marginal: between(32, 51), Poor: between(30, 53)}},
		{Direction: us, Modulation: Wildcard, DOCSIS: "3.1", Metric: MetricPower,
			Bands: Bands{Good: between(38, 48), Marginal: between(35, 50), Poor: between(33, 52)}},

		// codeword errors
		{Direction: ds, Modulation: Wildcard, DOCSIS: Wildcard, Metric: MetricErrorRatio,
			Bands: Bands{Good: atMost(0.001), Marginal: atMost(0.01), Poor: atMost(0.05)}},
		{Direction: us, Modulation: Wildcard, DOCSIS: Wildcard, Metric: MetricErrorRatio,
			Bands: Bands{Good: atMost(0.001), Marginal: atMost(0.01), Poor: atMost(0.05)}},
	}
}

// Default builds a table from DefaultRules.
func Default() *Table {
	return NewTable(DefaultRules())
}
