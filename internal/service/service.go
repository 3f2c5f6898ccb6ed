package service

import (
	"context"
	"time"

	"github.com/itsDNNS/docsight-sub000/internal/collector"
	"github.com/itsDNNS/docsight-sub000/internal/models"
	"github.com/itsDNNS/docsight-sub000/internal/repository"
	"github.com/itsDNNS/docsight-sub000/internal/thresholds"
)

// Authorization verifies bearer tokens issued by an external identity provider.
type Authorization interface {
	// Enabled reports whether tokens are checked at all.
	Enabled() bool
	ParseToken(accessToken string) (string, error)
}

// Monitoring exposes stored snapshots and speedtest results.
type Monitoring interface {
	LatestSnapshot(ctx context.Context, source string) (models.Snapshot, error)
	Snapshots(ctx context.Context, f SnapshotFilter) ([]models.Snapshot, error)
	Speedtests(ctx context.Context, source string, limit int) ([]models.SpeedtestResult, error)
}

// EventLog exposes detected events with filtering and acknowledgement.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.Event, error)
	Acknowledge(ctx context.Context, id string) error
}

// Collectors reports collector status and runs manual refreshes.
type Collectors interface {
	Status() []models.CollectorStatus
	Refresh(ctx context.Context, name string) (collector.Result, error)
}

// Thresholds exposes the active threshold table and its explicit reload.
type Thresholds interface {
	Rules() []thresholds.Rule
	LoadedAt() time.Time
	Reload() error
}

// Service aggregates all sub-services.
type Service struct {
	Monitoring
	EventLog
	Collectors
	Thresholds
	Authorization
}

// Deps carries what NewService cannot build from the repository.
type Deps struct {
	Scheduler       *collector.Scheduler
	Thresholds      *thresholds.Store
	JWTSecret       string
	RefreshCooldown time.Duration
	DefaultSource   string
}

// NewService wires the repository layer and the scheduler into concrete services.
func NewService(repos *repository.Repository, d Deps) *Service {
	return &Service{
		Monitoring:    NewMonitoringService(repos.Snapshots, repos.Speedtests, d.DefaultSource),
		EventLog:      NewEventLogService(repos.Events),
		Collectors:    NewCollectorService(d.Scheduler, d.RefreshCooldown, nil),
		Thresholds:    NewThresholdService(d.Thresholds),
		Authorization: NewAuthService(d.JWTSecret),
	}
}
