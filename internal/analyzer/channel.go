package analyzer

import (
	"fmt"

	"github.com/itsDNNS/docsight-sub000/internal/models"
	"github.com/itsDNNS/docsight-sub000/internal/thresholds"
)

// AssessChannel classifies each metric of ch independently and keeps the worst.
// Missing or zero readings are Critical; a channel whose modulation/version has
// no table entry is classified against the conservative default bands and
// marked as not Classified.
func AssessChannel(dir models.Direction, ch models.RawChannel, table *thresholds.Table) models.ChannelAssessment {
	a := models.ChannelAssessment{
		ChannelID:     ch.ChannelID,
		Direction:     dir,
		Frequency:     ch.Frequency,
		Power:         cloneFloat(ch.Power),
		SNR:           cloneFloat(ch.SNR),
		Modulation:    ch.Modulation,
		DOCSISVersion: ch.DOCSISVersion,
		Correctable:   cloneUint(ch.Correctable),
		Uncorrectable: cloneUint(ch.Uncorrectable),
		Health:        models.HealthGood,
		Classified:    true,
	}

	mark := func(h models.Health, finding string) {
		a.Health = models.Worse(a.Health, h)
		if finding != "" {
			a.Findings = append(a.Findings, finding)
		}
	}
	bands := func(metric thresholds.Metric) thresholds.Bands {
		if b, ok := table.Lookup(dir, ch.Modulation, ch.DOCSISVersion, metric); ok {
			return b
		}
		a.Classified = false
		return thresholds.DefaultBands(dir, metric)
	}

	if ch.Locked != nil && !*ch.Locked {
		mark(models.HealthCritical, "not locked")
	}

	switch {
	case ch.Power == nil:
		mark(models.HealthCritical, "power missing")
	case dir == models.Upstream && *ch.Power <= 0:
		mark(models.HealthCritical, "no transmit power")
	default:
		h := bands(thresholds.MetricPower).Classify(*ch.Power)
		mark(h, metricFinding(h, "power %.1f dBmV", *ch.Power))
	}

	if dir == models.Downstream {
		switch {
		case ch.SNR == nil:
			mark(models.HealthCritical, "snr missing")
		case *ch.SNR <= 0:
			mark(models.HealthCritical, "no signal")
		default:
			h := bands(thresholds.MetricSNR).Classify(*ch.SNR)
			mark(h, metricFinding(h, "snr %.1f dB", *ch.SNR))
		}
	}

	if ratio, ok := errorRatio(ch); ok {
		a.ErrorRatio = &ratio
		h := bands(thresholds.MetricErrorRatio).Classify(ratio)
		mark(h, metricFinding(h, "uncorrectable ratio %.4f", ratio))
	}

	return a
}

// errorRatio is uncorrectable / total codewords; it needs the unerrored counter
// to know the total and is skipped when the modem does not report one.
func errorRatio(ch models.RawChannel) (float64, bool) {
	if ch.Uncorrectable == nil || ch.Unerrored == nil {
		return 0, false
	}
	total := *ch.Unerrored + *ch.Uncorrectable
	if ch.Correctable != nil {
		total += *ch.Correctable
	}
	if total == 0 {
		return 0, false
	}
	return float64(*ch.Uncorrectable) / float64(total), true
}

func metricFinding(h models.Health, format string, v float64) string {
	if h == models.HealthGood {
		return ""
	}
	return fmt.Sprintf(format, v) + " (" + h.String() + ")"
}

func cloneFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneUint(p *uint64) *uint64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
