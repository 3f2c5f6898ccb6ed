// Package driver defines the contract every data source implements and
// selects a concrete implementation from configuration.
package driver

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/itsDNNS/docsight-sub000/internal/driver/demo"
	"github.com/itsDNNS/docsight-sub000/internal/driver/jsonapi"
	"github.com/itsDNNS/docsight-sub000/internal/models"
)

// Driver fetches raw measurements from one modem.
type Driver interface {
	Login(ctx context.Context) error
	GetDocsisData(ctx context.Context) (models.RawReading, error)
	GetDeviceInfo(ctx context.Context) (models.DeviceInfo, error)
}

// Known driver types.
const (
	TypeDemo = "demo"
	TypeJSON = "json"
)

// ErrNotConfigured is returned by New when the configuration cannot produce a
// working driver. It is permanent; retrying will not help.
var ErrNotConfigured = errors.New("driver not configured")

type Config struct {
	Type     string
	URL      string
	Username string
	Password string
	Timeout  time.Duration
}

// New builds the driver named by cfg.Type.
func New(cfg Config) (Driver, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Type)) {
	case TypeDemo:
		return demo.New(time.Now().UnixNano()), nil
	case TypeJSON:
		if cfg.URL == "" {
			return nil, fmt.Errorf("%w: json driver needs a url", ErrNotConfigured)
		}
		return jsonapi.NewModem(jsonapi.ModemConfig{
			BaseURL:  cfg.URL,
			Username: cfg.Username,
			Password: cfg.Password,
			Timeout:  cfg.Timeout,
		}), nil
	case "":
		return nil, fmt.Errorf("%w: no driver type", ErrNotConfigured)
	default:
		return nil, fmt.Errorf("%w: unknown driver type %q", ErrNotConfigured, cfg.Type)
	}
}
