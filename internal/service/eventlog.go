package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/itsDNNS/docsight-sub000/internal/models"
	"github.com/itsDNNS/docsight-sub000/internal/repository"
)

type EventLogService struct {
	eventRepo repository.EventRepo
}

func NewEventLogService(eventRepo repository.EventRepo) *EventLogService {
	return &EventLogService{eventRepo: eventRepo}
}

var (
	errInvalidTimeRange = errors.New("invalid time range: From must be <= To")
	errUnknownEventType = errors.New("unknown event type")
	errUnknownSeverity  = errors.New("unknown severity")
	ErrEventNotFound    = errors.New("event not found")
)

var knownEventTypes = map[models.EventType]bool{
	models.EventHealthChange:     true,
	models.EventPowerShift:       true,
	models.EventSNRDrop:          true,
	models.EventModulationChange: true,
	models.EventErrorSpike:       true,
	models.EventChannelChange:    true,
}

var knownSeverities = map[models.Severity]bool{
	models.SeverityInfo:     true,
	models.SeverityWarning:  true,
	models.SeverityCritical: true,
}

// normalizeToUTC returns t in UTC, preserving zero time values.
func normalizeToUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}

// normalizeToken trims spaces and lowercases a filter value.
func normalizeToken(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// normalizeAndValidateFilter prepares query parameters and validates them.
func normalizeAndValidateFilter(f LogFilter) (repository.EventFilter, error) {
	out := repository.EventFilter{
		Source:         strings.TrimSpace(f.Source),
		Type:           normalizeToken(f.Type),
		Severity:       normalizeToken(f.Severity),
		From:           normalizeToUTC(f.From),
		To:             normalizeToUTC(f.To),
		Unacknowledged: f.Unacknowledged,
		Limit:          f.Limit,
	}
	if !out.From.IsZero() && !out.To.IsZero() && out.From.After(out.To) {
		return repository.EventFilter{}, errInvalidTimeRange
	}
	if out.Type != "" && !knownEventTypes[models.EventType(out.Type)] {
		return repository.EventFilter{}, errUnknownEventType
	}
	if out.Severity != "" && !knownSeverities[models.Severity(out.Severity)] {
		return repository.EventFilter{}, errUnknownSeverity
	}
	return out, nil
}

func (s *EventLogService) List(ctx context.Context, f LogFilter) ([]models.Event, error) {
	rf, err := normalizeAndValidateFilter(f)
	if err != nil {
		return nil, err
	}
	return s.eventRepo.List(ctx, rf)
}

// Acknowledge marks an event as seen; unknown ids map to ErrEventNotFound.
func (s *EventLogService) Acknowledge(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrEventNotFound
	}
	err := s.eventRepo.Acknowledge(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrEventNotFound
	}
	return err
}

// IsInvalidFilter reports whether err came from filter validation.
func IsInvalidFilter(err error) bool {
	return errors.Is(err, errInvalidTimeRange) || errors.Is(err, errUnknownEventType) || errors.Is(err, errUnknownSeverity)
}
