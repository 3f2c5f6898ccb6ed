package jsonapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/itsDNNS/docsight-sub000/internal/models"
)

const latestSpeedtestPath = "/api/speedtest/latest"

// ErrNoResult means the tracker has not recorded a test yet.
var ErrNoResult = errors.New("no speedtest result available")

type SpeedtestConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// Speedtest reads the latest result from a speedtest tracker.
type Speedtest struct {
	c     client
	token string
}

func NewSpeedtest(cfg SpeedtestConfig) *Speedtest {
	return &Speedtest{c: newClient(cfg.BaseURL, cfg.Timeout), token: cfg.Token}
}

type speedtestDTO struct {
	Data *struct {
		ID        flexID  `json:"id"`
		Download  float64 `json:"download"` // Mbit/s
		Upload    float64 `json:"upload"`
		Ping      float64 `json:"ping"`
		Jitter    float64 `json:"jitter"`
		Server    string  `json:"server_name"`
		CreatedAt string  `json:"created_at"`
	} `json:"data"`
}

// flexID accepts both numeric and string ids.
type flexID string

func (j *flexID) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		s, err := strconv.Unquote(string(b))
		if err != nil {
			return err
		}
		*j = flexID(s)
		return nil
	}
	if string(b) == "null" {
		*j = ""
		return nil
	}
	*j = flexID(b)
	return nil
}

var createdAtLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02T15:04:05.000000Z"}

// Latest returns the most recent measurement. Source and ID are left for the caller.
func (s *Speedtest) Latest(ctx context.Context) (models.SpeedtestResult, error) {
	var dto speedtestDTO
	if err := s.c.do(ctx, http.MethodGet, latestSpeedtestPath, s.token, nil, &dto); err != nil {
		return models.SpeedtestResult{}, err
	}
	if dto.Data == nil {
		return models.SpeedtestResult{}, ErrNoResult
	}
	d := dto.Data
	at, err := parseCreatedAt(d.CreatedAt)
	if err != nil {
		return models.SpeedtestResult{}, err
	}
	return models.SpeedtestResult{
		ExternalID:   string(d.ID),
		Timestamp:    at,
		DownloadMbps: d.Download,
		UploadMbps:   d.Upload,
		PingMs:       d.Ping,
		JitterMs:     d.Jitter,
		Server:       d.Server,
	}, nil
}

func parseCreatedAt(s string) (time.Time, error) {
	for _, layout := range createdAtLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("parse created_at %q: unsupported format", s)
}
