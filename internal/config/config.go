// Package config loads configs/config.yml with environment overrides.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. DOCSIGHT_MODEM_URL.
const EnvPrefix = "DOCSIGHT"

type Config struct {
	Port       string           `mapstructure:"port" validate:"required"`
	Log        LogConfig        `mapstructure:"log"`
	DB         DBConfig         `mapstructure:"db"`
	Scheduler  SchedulerConfig  `mapstructure:"scheduler"`
	Modem      ModemConfig      `mapstructure:"modem"`
	Speedtest  SpeedtestConfig  `mapstructure:"speedtest"`
	Thresholds ThresholdsConfig `mapstructure:"thresholds"`
	Detector   DetectorConfig   `mapstructure:"detector"`
	NATS       NATSConfig       `mapstructure:"nats"`
	Auth       AuthConfig       `mapstructure:"auth"`
	API        APIConfig        `mapstructure:"api"`
}

type LogConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
}

type DBConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

type SchedulerConfig struct {
	Tick           time.Duration `mapstructure:"tick" validate:"gt=0"`
	CollectTimeout time.Duration `mapstructure:"collect_timeout" validate:"gt=0"`
	ShutdownGrace  time.Duration `mapstructure:"shutdown_grace" validate:"gt=0"`
}

type ModemConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Name         string        `mapstructure:"name" validate:"required"`
	Driver       string        `mapstructure:"driver" validate:"omitempty,oneof=demo json"`
	URL          string        `mapstructure:"url" validate:"omitempty,url"`
	Username     string        `mapstructure:"username"`
	Password     string        `mapstructure:"password"`
	PollInterval time.Duration `mapstructure:"poll_interval" validate:"gte=1s"`
	Timeout      time.Duration `mapstructure:"timeout" validate:"gte=0"`
}

type SpeedtestConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Name         string        `mapstructure:"name" validate:"required"`
	URL          string        `mapstructure:"url" validate:"omitempty,url"`
	Token        string        `mapstructure:"token"`
	PollInterval time.Duration `mapstructure:"poll_interval" validate:"gte=1s"`
	Timeout      time.Duration `mapstructure:"timeout" validate:"gte=0"`
}

type ThresholdsConfig struct {
	Path string `mapstructure:"path"`
}

type DetectorConfig struct {
	PowerToleranceDB   float64 `mapstructure:"power_tolerance_db" validate:"gte=0"`
	SNRToleranceDB     float64 `mapstructure:"snr_tolerance_db" validate:"gte=0"`
	ErrorSpikeAbsolute uint64  `mapstructure:"error_spike_absolute"`
	ErrorSpikeRelative float64 `mapstructure:"error_spike_relative" validate:"gte=0"`
}

type NATSConfig struct {
	URL           string `mapstructure:"url"`
	SubjectPrefix string `mapstructure:"subject_prefix" validate:"required"`
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
}

type APIConfig struct {
	RefreshCooldown time.Duration `mapstructure:"refresh_cooldown" validate:"gte=0"`
}

// setDefaults mirrors configs/config.yml so a missing file still yields a runnable demo setup.
func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("db.path", "docsight.db")

	v.SetDefault("scheduler.tick", "1s")
	v.SetDefault("scheduler.collect_timeout", "30s")
	v.SetDefault("scheduler.shutdown_grace", "10s")

	v.SetDefault("modem.enabled", true)
	v.SetDefault("modem.name", "modem")
	v.SetDefault("modem.driver", "demo")
	v.SetDefault("modem.url", "")
	v.SetDefault("modem.username", "")
	v.SetDefault("modem.password", "")
	v.SetDefault("modem.poll_interval", "15m")
	v.SetDefault("modem.timeout", "20s")

	v.SetDefault("speedtest.enabled", false)
	v.SetDefault("speedtest.name", "speedtest")
	v.SetDefault("speedtest.url", "")
	v.SetDefault("speedtest.token", "")
	v.SetDefault("speedtest.poll_interval", "1h")
	v.SetDefault("speedtest.timeout", "15s")

	v.SetDefault("thresholds.path", "")

	v.SetDefault("detector.power_tolerance_db", 2.0)
	v.SetDefault("detector.snr_tolerance_db", 3.0)
	v.SetDefault("detector.error_spike_absolute", 1000)
	v.SetDefault("detector.error_spike_relative", 0.0)

	v.SetDefault("nats.url", "")
	v.SetDefault("nats.subject_prefix", "docsight")

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("api.refresh_cooldown", "10s")
}

// Load reads config.yml from dir (when present), applies DOCSIGHT_* overrides
// and validates the result.
func Load(dir string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ConfigError describes a setting that fails a cross-field rule.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid config %s: %s", e.Field, e.Reason)
}

// Validate checks the struct tags and the rules that span several fields.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Modem.Enabled && c.Modem.Driver == "" {
		return &ConfigError{Field: "modem.driver", Reason: "required when the modem collector is enabled"}
	}
	if c.Modem.Driver == "json" && c.Modem.URL == "" {
		return &ConfigError{Field: "modem.url", Reason: "required by the json driver"}
	}
	if c.Speedtest.Enabled && c.Speedtest.URL == "" {
		return &ConfigError{Field: "speedtest.url", Reason: "required when the speedtest collector is enabled"}
	}
	if c.Modem.Name == c.Speedtest.Name {
		return &ConfigError{Field: "speedtest.name", Reason: "must differ from modem.name"}
	}
	return nil
}
