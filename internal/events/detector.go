// Package events turns consecutive snapshots of a source into discrete events.
package events

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/itsDNNS/docsight-sub000/internal/models"
	"github.com/itsDNNS/docsight-sub000/internal/thresholds"
)

// Config holds the tolerances a delta must exceed before it becomes an event.
type Config struct {
	PowerTolerance     float64 // dB, absolute change in either direction
	SNRTolerance       float64 // dB, drop only
	ErrorSpikeAbsolute uint64  // new uncorrectable codewords between two snapshots, 0 disables
	ErrorSpikeRelative float64 // growth relative to the previous total, 0 disables
}

// DefaultConfig returns the tolerances used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		PowerTolerance:     2.0,
		SNRTolerance:       3.0,
		ErrorSpikeAbsolute: 1000,
	}
}

// Detector keeps the previous snapshot per source. It is safe for concurrent use.
type Detector struct {
	cfg   Config
	newID func() string

	mu   sync.RWMutex
	last map[string]models.Snapshot
}

func NewDetector(cfg Config) *Detector {
	return &Detector{
		cfg:   cfg,
		newID: uuid.NewString,
		last:  make(map[string]models.Snapshot),
	}
}

// Detect compares snap with the previous snapshot of the same source and
// returns the resulting events. The first snapshot of a source only sets the
// baseline. snap always replaces the stored baseline afterwards.
func (d *Detector) Detect(snap models.Snapshot) []models.Event {
	d.mu.Lock()
	defer d.mu.Unlock()

	evs := d.compare(snap)
	d.last[snap.Source] = snap
	return evs
}

// Preview returns the events Detect would emit for snap without touching the
// baseline. Pair it with Commit once the events have been stored.
func (d *Detector) Preview(snap models.Snapshot) []models.Event {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.compare(snap)
}

// Commit makes snap the baseline of its source.
func (d *Detector) Commit(snap models.Snapshot) {
	d.mu.Lock()
	d.last[snap.Source] = snap
	d.mu.Unlock()
}

// compare must be called with d.mu held.
func (d *Detector) compare(snap models.Snapshot) []models.Event {
	prev, ok := d.last[snap.Source]
	if !ok || !usable(prev) {
		return nil
	}
	c := comparison{cfg: d.cfg, newID: d.newID, prev: prev, cur: snap}
	c.health()
	c.channels()
	c.errorSpike()
	return c.out
}

// Baseline returns the snapshot the next Detect call for source compares against.
func (d *Detector) Baseline(source string) (models.Snapshot, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	s, ok := d.last[source]
	return s, ok
}

// Reset forgets the baseline of source; the next snapshot is a cold start.
func (d *Detector) Reset(source string) {
	d.mu.Lock()
	delete(d.last, source)
	d.mu.Unlock()
}

// usable reports whether a stored snapshot can serve as a basis for comparison.
func usable(s models.Snapshot) bool {
	return s.OverallHealth.Valid() && !s.Timestamp.IsZero()
}

type comparison struct {
	cfg       Config
	newID     func() string
	prev, cur models.Snapshot
	out       []models.Event
}

func (c *comparison) emit(sev models.Severity, typ models.EventType, msg string, details map[string]any) {
	c.out = append(c.out, models.Event{
		ID:        c.newID(),
		Source:    c.cur.Source,
		Timestamp: c.cur.Timestamp.UTC(),
		Severity:  sev,
		Type:      typ,
		Message:   msg,
		Details:   details,
	})
}

func (c *comparison) health() {
	from, to := c.prev.OverallHealth, c.cur.OverallHealth
	if !to.Valid() || from == to {
		return
	}
	c.emit(healthSeverity(to), models.EventHealthChange,
		fmt.Sprintf("Overall health changed from %s to %s", from, to),
		map[string]any{"from": from.String(), "to": to.String()})
}

func healthSeverity(h models.Health) models.Severity {
	switch h {
	case models.HealthGood:
		return models.SeverityInfo
	case models.HealthMarginal:
		return models.SeverityWarning
	default:
		return models.SeverityCritical
	}
}

type channelKey struct {
	dir models.Direction
	id  int
}

func index(s models.Snapshot) map[channelKey]models.ChannelAssessment {
	m := make(map[channelKey]models.ChannelAssessment, len(s.Channels))
	for _, ch := range s.Channels {
		m[channelKey{ch.Direction, ch.ChannelID}] = ch
	}
	return m
}

// sortedKeys orders downstream before upstream, then by channel id.
func sortedKeys(m map[channelKey]models.ChannelAssessment) []channelKey {
	keys := make([]channelKey, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].dir != keys[j].dir {
			return keys[i].dir == models.Downstream
		}
		return keys[i].id < keys[j].id
	})
	return keys
}

func (c *comparison) channels() {
	prev, cur := index(c.prev), index(c.cur)

	for _, k := range sortedKeys(cur) {
		p, ok := prev[k]
		if !ok {
			continue
		}
		n := cur[k]
		c.power(k, p, n)
		c.snr(k, p, n)
		c.modulation(k, p, n)
	}

	for _, k := range sortedKeys(cur) {
		if _, ok := prev[k]; !ok {
			c.emit(models.SeverityInfo, models.EventChannelChange,
				fmt.Sprintf("%s channel %d appeared", k.dir, k.id),
				map[string]any{"channel_id": k.id, "direction": string(k.dir), "change": "appeared"})
		}
	}
	for _, k := range sortedKeys(prev) {
		if _, ok := cur[k]; !ok {
			c.emit(models.SeverityWarning, models.EventChannelChange,
				fmt.Sprintf("%s channel %d disappeared", k.dir, k.id),
				map[string]any{"channel_id": k.id, "direction": string(k.dir), "change": "disappeared"})
		}
	}
}

func (c *comparison) power(k channelKey, p, n models.ChannelAssessment) {
	if p.Power == nil || n.Power == nil {
		return
	}
	delta := *n.Power - *p.Power
	if math.Abs(delta) <= c.cfg.PowerTolerance {
		return
	}
	c.emit(models.SeverityWarning, models.EventPowerShift,
		fmt.Sprintf("%s channel %d power shifted by %+.1f dB (%.1f -> %.1f dBmV)", k.dir, k.id, delta, *p.Power, *n.Power),
		map[string]any{
			"channel_id": k.id,
			"direction":  string(k.dir),
			"previous":   *p.Power,
			"current":    *n.Power,
			"delta":      round1(delta),
		})
}

func (c *comparison) snr(k channelKey, p, n models.ChannelAssessment) {
	if p.SNR == nil || n.SNR == nil {
		return
	}
	drop := *p.SNR - *n.SNR
	if drop <= c.cfg.SNRTolerance {
		return
	}
	sev := models.SeverityWarning
	if n.Health == models.HealthCritical {
		sev = models.SeverityCritical
	}
	c.emit(sev, models.EventSNRDrop,
		fmt.Sprintf("%s channel %d SNR dropped by %.1f dB (%.1f -> %.1f dB)", k.dir, k.id, drop, *p.SNR, *n.SNR),
		map[string]any{
			"channel_id": k.id,
			"direction":  string(k.dir),
			"previous":   *p.SNR,
			"current":    *n.SNR,
			"delta":      round1(-drop),
		})
}

func (c *comparison) modulation(k channelKey, p, n models.ChannelAssessment) {
	from := thresholds.NormalizeModulation(p.Modulation)
	to := thresholds.NormalizeModulation(n.Modulation)
	if from == "" || to == "" || from == to {
		return
	}
	sev, change := models.SeverityWarning, "downgrade"
	if fr, tr := qamOrder(from), qamOrder(to); fr > 0 && tr > fr {
		sev, change = models.SeverityInfo, "upgrade"
	}
	c.emit(sev, models.EventModulationChange,
		fmt.Sprintf("%s channel %d modulation changed from %s to %s", k.dir, k.id, from, to),
		map[string]any{
			"channel_id": k.id,
			"direction":  string(k.dir),
			"from":       from,
			"to":         to,
			"change":     change,
		})
}

// qamOrder extracts the constellation size from a normalized modulation such
// as "256QAM". Anything else ranks 0, so a change to or from it is a downgrade.
func qamOrder(mod string) int {
	n, err := strconv.Atoi(strings.TrimSuffix(mod, "QAM"))
	if err != nil || !strings.HasSuffix(mod, "QAM") {
		return 0
	}
	return n
}

// errorSpike compares uncorrectable totals over channels present in both
// snapshots. A decreasing counter means the modem was restarted and no event
// is raised for that comparison.
func (c *comparison) errorSpike() {
	if c.cfg.ErrorSpikeAbsolute == 0 && c.cfg.ErrorSpikeRelative <= 0 {
		return
	}
	prev, cur := index(c.prev), index(c.cur)

	var before, after uint64
	matched := 0
	for k, n := range cur {
		p, ok := prev[k]
		if !ok || p.Uncorrectable == nil || n.Uncorrectable == nil {
			continue
		}
		if *n.Uncorrectable < *p.Uncorrectable {
			return
		}
		before += *p.Uncorrectable
		after += *n.Uncorrectable
		matched++
	}
	if matched == 0 || after == before {
		return
	}

	delta := after - before
	hitAbs := c.cfg.ErrorSpikeAbsolute > 0 && delta >= c.cfg.ErrorSpikeAbsolute
	hitRel := c.cfg.ErrorSpikeRelative > 0 && before > 0 &&
		float64(delta)/float64(before) >= c.cfg.ErrorSpikeRelative
	if !hitAbs && !hitRel {
		return
	}
	c.emit(models.SeverityWarning, models.EventErrorSpike,
		fmt.Sprintf("Uncorrectable errors increased by %d (%d -> %d)", delta, before, after),
		map[string]any{
			"previous": before,
			"current":  after,
			"delta":    delta,
			"channels": matched,
		})
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
