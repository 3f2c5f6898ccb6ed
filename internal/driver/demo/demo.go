// Package demo simulates a DOCSIS 3.0 modem whose channel values drift over time.
package demo

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/itsDNNS/docsight-sub000/internal/models"
)

// ----------- Simulation constants -----------
const (
	DownstreamChannels = 16
	UpstreamChannels   = 4

	baseFrequencyMHz = 602.0 // first downstream channel
	channelWidthMHz  = 8.0
	upstreamBaseMHz  = 30.8
	upstreamWidthMHz = 6.4

	nominalPowerDS = 4.0  // dBmV
	nominalSNR     = 38.5 // dB
	nominalPowerUS = 44.0 // dBmV

	powerDriftPerPoll = 0.4 // max |step| dB
	snrDriftPerPoll   = 0.3
	recoverRate       = 0.2 // share of the distance back to nominal per poll

	lowSNRFallback = 30.0 // below this the CMTS drops the channel to 64QAM
	highSNRRestore = 33.0

	maxCorrectablePerPoll   = 50
	maxUncorrectablePerPoll = 3
	codewordsPerPoll        = 2_000_000
)

// Modulations
const (
	Mod256QAM = "256QAM"
	Mod64QAM  = "64QAM"
)

type channel struct {
	power, snr    float64
	modulation    string
	unerrored     uint64
	correctable   uint64
	uncorrectable uint64
}

// Modem is a simulated modem. Every GetDocsisData call advances the simulation
// by one poll.
type Modem struct {
	mu      sync.Mutex
	rnd     *rand.Rand
	started time.Time
	ds, us  []channel
	now     func() time.Time
}

// New returns a modem with all channels at nominal values.
func New(seed int64) *Modem {
	m := &Modem{
		rnd:     rand.New(rand.NewSource(seed)),
		started: time.Now().UTC(),
		now:     time.Now,
		ds:      make([]channel, DownstreamChannels),
		us:      make([]channel, UpstreamChannels),
	}
	for i := range m.ds {
		m.ds[i] = channel{power: nominalPowerDS, snr: nominalSNR, modulation: Mod256QAM}
	}
	for i := range m.us {
		m.us[i] = channel{power: nominalPowerUS, modulation: Mod64QAM}
	}
	return m
}

// Login always succeeds.
func (m *Modem) Login(ctx context.Context) error {
	return ctx.Err()
}

func (m *Modem) GetDeviceInfo(ctx context.Context) (models.DeviceInfo, error) {
	if err := ctx.Err(); err != nil {
		return models.DeviceInfo{}, err
	}
	return models.DeviceInfo{
		Model:           "Demo Cable Modem",
		Manufacturer:    "docsight",
		SoftwareVersion: "demo-1.0",
		UptimeSeconds:   int64(m.now().Sub(m.started).Seconds()),
	}, nil
}

func (m *Modem) GetDocsisData(ctx context.Context) (models.RawReading, error) {
	if err := ctx.Err(); err != nil {
		return models.RawReading{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.step()

	r := models.RawReading{
		FetchedAt:  m.now().UTC(),
		Downstream: make([]models.RawChannel, 0, len(m.ds)),
		Upstream:   make([]models.RawChannel, 0, len(m.us)),
	}
	for i, ch := range m.ds {
		r.Downstream = append(r.Downstream, models.RawChannel{
			ChannelID:     i + 1,
			Frequency:     baseFrequencyMHz + float64(i)*channelWidthMHz,
			Power:         models.Float64(round1(ch.power)),
			SNR:           models.Float64(round1(ch.snr)),
			Modulation:    ch.modulation,
			DOCSISVersion: "3.0",
			Locked:        models.Bool(true),
			Unerrored:     models.Uint64(ch.unerrored),
			Correctable:   models.Uint64(ch.correctable),
			Uncorrectable: models.Uint64(ch.uncorrectable),
		})
	}
	for i, ch := range m.us {
		r.Upstream = append(r.Upstream, models.RawChannel{
			ChannelID:     i + 1,
			Frequency:     upstreamBaseMHz + float64(i)*upstreamWidthMHz,
			Power:         models.Float64(round1(ch.power)),
			Modulation:    ch.modulation,
			DOCSISVersion: "3.0",
		})
	}
	return r, nil
}

// step advances every channel by one poll. Caller holds m.mu.
func (m *Modem) step() {
	for i := range m.ds {
		ch := &m.ds[i]
		ch.power = m.drift(ch.power, nominalPowerDS, powerDriftPerPoll)
		ch.snr = m.drift(ch.snr, nominalSNR, snrDriftPerPoll)
		m.adaptModulation(ch)

		corr := uint64(m.rnd.Intn(maxCorrectablePerPoll + 1))
		uncorr := uint64(0)
		if ch.modulation == Mod64QAM {
			uncorr = uint64(m.rnd.Intn(maxUncorrectablePerPoll + 1))
		}
		ch.correctable += corr
		ch.uncorrectable += uncorr
		ch.unerrored += codewordsPerPoll - corr - uncorr
	}
	for i := range m.us {
		ch := &m.us[i]
		ch.power = m.drift(ch.power, nominalPowerUS, powerDriftPerPoll)
	}
}

// drift applies a random step and pulls the value back toward nominal.
func (m *Modem) drift(v, nominal, maxStep float64) float64 {
	v += (m.rnd.Float64()*2 - 1) * maxStep
	return v + (nominal-v)*recoverRate
}

// adaptModulation mimics a CMTS profile switch on poor SNR, with hysteresis.
func (m *Modem) adaptModulation(ch *channel) {
	switch {
	case ch.modulation == Mod256QAM && ch.snr < lowSNRFallback:
		ch.modulation = Mod64QAM
	case ch.modulation == Mod64QAM && ch.snr > highSNRRestore:
		ch.modulation = Mod256QAM
	}
}

// Degrade shifts the SNR of one downstream channel, e.g. to demo an event.
func (m *Modem) Degrade(channelID int, snrDelta float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if channelID < 1 || channelID > len(m.ds) {
		return
	}
	m.ds[channelID-1].snr += snrDelta
}

// helpers
func round1(v float64) float64 {
	if v < 0 {
		return -float64(int64(-v*10+0.5)) / 10
	}
	return float64(int64(v*10+0.5)) / 10
}
