package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/itsDNNS/docsight-sub000/internal/models"
	"github.com/itsDNNS/docsight-sub000/internal/repository"
)

type snapshotRepoStub struct {
	latest    models.Snapshot
	latestErr error
	gotSource string
	gotFilter repository.SnapshotFilter
	list      []models.Snapshot
}

func (s *snapshotRepoStub) SaveCycle(context.Context, models.Snapshot, []models.Event) error {
	return nil
}

func (s *snapshotRepoStub) Latest(_ context.Context, source string) (models.Snapshot, error) {
	s.gotSource = source
	return s.latest, s.latestErr
}

func (s *snapshotRepoStub) List(_ context.Context, f repository.SnapshotFilter) ([]models.Snapshot, error) {
	s.gotFilter = f
	return s.list, nil
}

type speedtestRepoStub struct {
	gotSource string
	gotLimit  int
}

func (s *speedtestRepoStub) SaveSpeedtest(context.Context, models.SpeedtestResult) (bool, error) {
	return true, nil
}

func (s *speedtestRepoStub) List(_ context.Context, source string, limit int) ([]models.SpeedtestResult, error) {
	s.gotSource, s.gotLimit = source, limit
	return []models.SpeedtestResult{{ID: "r1"}}, nil
}

func TestMonitoringService_LatestSnapshot(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		source     string
		repoErr    error
		wantSource string
		wantErr    error
	}{
		{name: "default source", source: "", wantSource: "modem"},
		{name: "explicit source", source: " lab ", wantSource: "lab"},
		{name: "nothing stored", repoErr: repository.ErrNotFound, wantSource: "modem", wantErr: ErrNoSnapshot},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			repo := &snapshotRepoStub{latest: models.Snapshot{ID: "s1"}, latestErr: tc.repoErr}
			svc := NewMonitoringService(repo, &speedtestRepoStub{}, "modem")

			got, err := svc.LatestSnapshot(context.Background(), tc.source)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("err = %v, want %v", err, tc.wantErr)
			}
			if repo.gotSource != tc.wantSource {
				t.Fatalf("source = %q, want %q", repo.gotSource, tc.wantSource)
			}
			if tc.wantErr == nil && got.ID != "s1" {
				t.Fatalf("unexpected snapshot %+v", got)
			}
		})
	}
}

func TestMonitoringService_Snapshots(t *testing.T) {
	t.Parallel()

	repo := &snapshotRepoStub{}
	svc := NewMonitoringService(repo, &speedtestRepoStub{}, "modem")

	from := time.Date(2026, 1, 1, 2, 0, 0, 0, time.FixedZone("UTC+2", 2*3600))
	if _, err := svc.Snapshots(context.Background(), SnapshotFilter{Source: "modem", From: from, Limit: 3}); err != nil {
		t.Fatalf("Snapshots: %v", err)
	}
	if !repo.gotFilter.From.Equal(from) || repo.gotFilter.From.Location() != time.UTC || repo.gotFilter.Limit != 3 {
		t.Fatalf("unexpected filter %+v", repo.gotFilter)
	}

	_, err := svc.Snapshots(context.Background(), SnapshotFilter{From: from, To: from.Add(-time.Hour)})
	if !errors.Is(err, errInvalidTimeRange) {
		t.Fatalf("want invalid range, got %v", err)
	}
}

func TestMonitoringService_Speedtests(t *testing.T) {
	t.Parallel()

	repo := &speedtestRepoStub{}
	svc := NewMonitoringService(&snapshotRepoStub{}, repo, "modem")
	got, err := svc.Speedtests(context.Background(), " speedtest ", 7)
	if err != nil || len(got) != 1 {
		t.Fatalf("Speedtests = %v, %v", got, err)
	}
	if repo.gotSource != "speedtest" || repo.gotLimit != 7 {
		t.Fatalf("repo called with %q/%d", repo.gotSource, repo.gotLimit)
	}
}
