package collector

import (
	"fmt"
	"time"

	"github.com/itsDNNS/docsight-sub000/internal/config"
	"github.com/itsDNNS/docsight-sub000/internal/driver"
	"github.com/itsDNNS/docsight-sub000/internal/driver/jsonapi"
	"github.com/itsDNNS/docsight-sub000/internal/events"
	"github.com/itsDNNS/docsight-sub000/internal/logger"
	"github.com/itsDNNS/docsight-sub000/internal/thresholds"
)

// Deps are the collaborators shared by the built collectors.
type Deps struct {
	Thresholds *thresholds.Store
	Detector   *events.Detector
	Snapshots  SnapshotStore
	Speedtests SpeedtestStore
	Clock      func() time.Time
	Log        *logger.Logger
}

// Build creates the registry from configuration. Every known collector is
// registered so it shows up in the status view; only configured ones are
// enabled. A modem driver that cannot be built leaves the modem disabled.
func Build(cfg *config.Config, deps Deps) (*Registry, error) {
	modemBase := NewBase(cfg.Modem.Name, cfg.Modem.PollInterval, cfg.Modem.Enabled, deps.Clock)
	var drv driver.Driver
	if cfg.Modem.Enabled {
		d, err := driver.New(driver.Config{
			Type:     cfg.Modem.Driver,
			URL:      cfg.Modem.URL,
			Username: cfg.Modem.Username,
			Password: cfg.Modem.Password,
			Timeout:  cfg.Modem.Timeout,
		})
		if err != nil {
			modemBase.Disable(fmt.Errorf("%w: %v", ErrPermanentConfig, err))
			if deps.Log != nil {
				deps.Log.Errorw("modem_driver_unavailable", "driver", cfg.Modem.Driver, "err", err)
			}
		}
		drv = d
	}
	modem := NewModem(modemBase, drv, deps.Thresholds, deps.Detector, deps.Snapshots)

	st := cfg.Speedtest
	speed := NewSpeedtest(
		NewBase(st.Name, st.PollInterval, st.Enabled && st.URL != "", deps.Clock),
		jsonapi.NewSpeedtest(jsonapi.SpeedtestConfig{BaseURL: st.URL, Token: st.Token, Timeout: st.Timeout}),
		deps.Speedtests,
	)

	return NewRegistry(modem, speed)
}
