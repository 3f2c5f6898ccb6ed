// Package analyzer classifies raw channel readings into health snapshots.
//
// Everything here is a pure function of its inputs: no I/O, no clocks and no
// shared state, so it is safe to call from any goroutine.
package analyzer

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/itsDNNS/docsight-sub000/internal/models"
	"github.com/itsDNNS/docsight-sub000/internal/thresholds"
)

// snapshotNamespace seeds deterministic snapshot IDs (uuid v5).
var snapshotNamespace = uuid.MustParse("9b0c3a52-6f1e-4c0e-9d3a-3f7f2f1b8d11")

const issueNoChannels = "no channels reported"

// Analyze classifies every channel of r against table and returns a snapshot.
// Identical inputs always produce identical output.
func Analyze(r models.RawReading, table *thresholds.Table) models.Snapshot {
	channels := make([]models.ChannelAssessment, 0, len(r.Downstream)+len(r.Upstream))
	for _, ch := range sortedChannels(r.Downstream) {
		channels = append(channels, AssessChannel(models.Downstream, ch, table))
	}
	for _, ch := range sortedChannels(r.Upstream) {
		channels = append(channels, AssessChannel(models.Upstream, ch, table))
	}

	snap := models.Snapshot{
		ID:        SnapshotID(r.Source, r.FetchedAt),
		Source:    r.Source,
		Timestamp: r.FetchedAt.UTC(),
		Device:    r.Device,
		Channels:  channels,
	}
	snap.OverallHealth = Overall(channels)
	snap.Summary = summarize(channels)
	return snap
}

// Overall is the most severe channel health. A source with no channels at all
// is Critical since a modem that reports nothing is not carrying traffic.
func Overall(channels []models.ChannelAssessment) models.Health {
	if len(channels) == 0 {
		return models.HealthCritical
	}
	worst := models.HealthGood
	for _, c := range channels {
		worst = models.Worse(worst, c.Health)
		if worst == models.HealthCritical {
			break
		}
	}
	return worst
}

// SnapshotID derives a stable ID from the source and fetch time.
func SnapshotID(source string, at time.Time) string {
	return uuid.NewSHA1(snapshotNamespace, []byte(source+"|"+at.UTC().Format(time.RFC3339Nano))).String()
}

func sortedChannels(in []models.RawChannel) []models.RawChannel {
	out := make([]models.RawChannel, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool { return out[i].ChannelID < out[j].ChannelID })
	return out
}

func summarize(channels []models.ChannelAssessment) models.Summary {
	s := models.Summary{
		HealthCounts: map[string]int{
			models.HealthGood.String():     0,
			models.HealthMarginal.String(): 0,
			models.HealthPoor.String():     0,
			models.HealthCritical.String(): 0,
		},
	}
	if len(channels) == 0 {
		s.Issues = []string{issueNoChannels}
		return s
	}

	var ds, us dirAcc
	for _, c := range channels {
		s.HealthCounts[c.Health.String()]++
		if !c.Classified {
			s.Unclassified = append(s.Unclassified, c.Key())
		}
		if c.Correctable != nil {
			s.TotalCorrectable += *c.Correctable
		}
		if c.Uncorrectable != nil {
			s.TotalUncorrectable += *c.Uncorrectable
		}
		if c.Health >= models.HealthPoor {
			for _, f := range c.Findings {
				s.Issues = append(s.Issues, fmt.Sprintf("%s %s", c.Key(), f))
			}
		}
		if c.Direction == models.Upstream {
			us.add(c)
		} else {
			ds.add(c)
		}
	}
	s.Downstream = ds.summary()
	s.Upstream = us.summary()
	return s
}

type dirAcc struct {
	channels           int
	powerN, snrN       int
	powerSum, snrSum   float64
	powerMin, powerMax float64
	snrMin             float64
}

func (a *dirAcc) add(c models.ChannelAssessment) {
	a.channels++
	if c.Power != nil {
		p := *c.Power
		if a.powerN == 0 || p < a.powerMin {
			a.powerMin = p
		}
		if a.powerN == 0 || p > a.powerMax {
			a.powerMax = p
		}
		a.powerN++
		a.powerSum += p
	}
	if c.SNR != nil {
		v := *c.SNR
		if a.snrN == 0 || v < a.snrMin {
			a.snrMin = v
		}
		a.snrN++
		a.snrSum += v
	}
}

func (a dirAcc) summary() models.DirectionSummary {
	out := models.DirectionSummary{Channels: a.channels}
	if a.powerN > 0 {
		out.PowerMin = a.powerMin
		out.PowerMax = a.powerMax
		out.PowerAvg = round2(a.powerSum / float64(a.powerN))
	}
	if a.snrN > 0 {
		out.SNRMin = a.snrMin
		out.SNRAvg = round2(a.snrSum / float64(a.snrN))
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
