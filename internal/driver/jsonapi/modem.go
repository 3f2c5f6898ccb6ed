package jsonapi

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/itsDNNS/docsight-sub000/internal/models"
)

// Paths served by the modem exporter.
const (
	loginPath  = "/api/v1/login"
	docsisPath = "/api/v1/docsis"
	devicePath = "/api/v1/device"
)

type ModemConfig struct {
	BaseURL  string
	Username string
	Password string
	Timeout  time.Duration
}

// Modem reads channel data from a modem exporter. Login is skipped when no
// username is configured.
type Modem struct {
	c        client
	username string
	password string

	mu    sync.Mutex
	token string
}

func NewModem(cfg ModemConfig) *Modem {
	return &Modem{
		c:        newClient(cfg.BaseURL, cfg.Timeout),
		username: cfg.Username,
		password: cfg.Password,
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

func (m *Modem) Login(ctx context.Context) error {
	if m.username == "" {
		return nil
	}
	var resp loginResponse
	if err := m.c.do(ctx, http.MethodPost, loginPath, "", loginRequest{m.username, m.password}, &resp); err != nil {
		return fmt.Errorf("modem login: %w", err)
	}
	if resp.Token == "" {
		return fmt.Errorf("modem login: %w: empty token", ErrUnauthorized)
	}
	m.mu.Lock()
	m.token = resp.Token
	m.mu.Unlock()
	return nil
}

func (m *Modem) currentToken() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

type channelDTO struct {
	ChannelID     int      `json:"channel_id"`
	Frequency     float64  `json:"frequency_mhz"`
	Power         *float64 `json:"power_dbmv"`
	SNR           *float64 `json:"snr_db"`
	Modulation    string   `json:"modulation"`
	DOCSISVersion string   `json:"docsis_version"`
	Locked        *bool    `json:"locked"`
	Unerrored     *uint64  `json:"unerrored"`
	Correctable   *uint64  `json:"correctable"`
	Uncorrectable *uint64  `json:"uncorrectable"`
}

type docsisDTO struct {
	Downstream []channelDTO `json:"downstream"`
	Upstream   []channelDTO `json:"upstream"`
}

type deviceDTO struct {
	Model           string `json:"model"`
	Manufacturer    string `json:"manufacturer"`
	SoftwareVersion string `json:"software_version"`
	UptimeSeconds   int64  `json:"uptime_seconds"`
}

func (m *Modem) GetDocsisData(ctx context.Context) (models.RawReading, error) {
	var dto docsisDTO
	if err := m.c.do(ctx, http.MethodGet, docsisPath, m.currentToken(), nil, &dto); err != nil {
		return models.RawReading{}, err
	}
	return models.RawReading{
		FetchedAt:  time.Now().UTC(),
		Downstream: toRaw(dto.Downstream),
		Upstream:   toRaw(dto.Upstream),
	}, nil
}

func (m *Modem) GetDeviceInfo(ctx context.Context) (models.DeviceInfo, error) {
	var dto deviceDTO
	if err := m.c.do(ctx, http.MethodGet, devicePath, m.currentToken(), nil, &dto); err != nil {
		return models.DeviceInfo{}, err
	}
	return models.DeviceInfo(dto), nil
}

func toRaw(in []channelDTO) []models.RawChannel {
	out := make([]models.RawChannel, 0, len(in))
	for _, ch := range in {
		out = append(out, models.RawChannel(ch))
	}
	return out
}
