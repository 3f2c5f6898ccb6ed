package service

import (
	"time"

	"github.com/itsDNNS/docsight-sub000/internal/thresholds"
)

type ThresholdService struct {
	store *thresholds.Store
}

func NewThresholdService(store *thresholds.Store) *ThresholdService {
	return &ThresholdService{store: store}
}

func (s *ThresholdService) Rules() []thresholds.Rule { return s.store.Current().Rules() }

func (s *ThresholdService) LoadedAt() time.Time { return s.store.LoadedAt() }

// Reload re-reads the thresholds file; the previous table stays active on error.
func (s *ThresholdService) Reload() error { return s.store.Reload() }
