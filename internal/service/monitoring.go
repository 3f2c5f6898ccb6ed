package service

import (
	"context"
	"errors"
	"strings"

	"github.com/itsDNNS/docsight-sub000/internal/models"
	"github.com/itsDNNS/docsight-sub000/internal/repository"
)

// ErrNoSnapshot is returned before the first successful poll of a source.
var ErrNoSnapshot = errors.New("no snapshot yet")

type MonitoringService struct {
	snapshots     repository.SnapshotRepo
	speedtests    repository.SpeedtestRepo
	defaultSource string
}

func NewMonitoringService(snapshots repository.SnapshotRepo, speedtests repository.SpeedtestRepo, defaultSource string) *MonitoringService {
	return &MonitoringService{snapshots: snapshots, speedtests: speedtests, defaultSource: defaultSource}
}

// LatestSnapshot returns the newest snapshot of source, falling back to the
// configured modem source when source is empty.
func (s *MonitoringService) LatestSnapshot(ctx context.Context, source string) (models.Snapshot, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		source = s.defaultSource
	}
	snap, err := s.snapshots.Latest(ctx, source)
	if errors.Is(err, repository.ErrNotFound) {
		return models.Snapshot{}, ErrNoSnapshot
	}
	return snap, err
}

func (s *MonitoringService) Snapshots(ctx context.Context, f SnapshotFilter) ([]models.Snapshot, error) {
	from, to := normalizeToUTC(f.From), normalizeToUTC(f.To)
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return nil, errInvalidTimeRange
	}
	return s.snapshots.List(ctx, repository.SnapshotFilter{
		Source: strings.TrimSpace(f.Source),
		From:   from,
		To:     to,
		Limit:  f.Limit,
	})
}

func (s *MonitoringService) Speedtests(ctx context.Context, source string, limit int) ([]models.SpeedtestResult, error) {
	return s.speedtests.List(ctx, strings.TrimSpace(source), limit)
}
