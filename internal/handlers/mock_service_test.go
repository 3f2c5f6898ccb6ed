package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/itsDNNS/docsight-sub000/internal/collector"
	"github.com/itsDNNS/docsight-sub000/internal/models"
	"github.com/itsDNNS/docsight-sub000/internal/service"
	"github.com/itsDNNS/docsight-sub000/internal/thresholds"
)

// ---- Service Mocks ----

type mockAuth struct {
	disabled  bool
	parseSub  string
	parseErr  error
	lastToken string
}

func (m *mockAuth) Enabled() bool { return !m.disabled }

func (m *mockAuth) ParseToken(token string) (string, error) {
	m.lastToken = token
	return m.parseSub, m.parseErr
}

type mockMonitoring struct {
	mu         sync.Mutex
	snap       models.Snapshot
	err        error
	list       []models.Snapshot
	speedtests []models.SpeedtestResult
	lastFilter service.SnapshotFilter
	lastSource string
}

func (m *mockMonitoring) LatestSnapshot(_ context.Context, source string) (models.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastSource = source
	return m.snap, m.err
}

func (m *mockMonitoring) setSnapshot(s models.Snapshot) {
	m.mu.Lock()
	m.snap = s
	m.mu.Unlock()
}

func (m *mockMonitoring) Snapshots(_ context.Context, f service.SnapshotFilter) ([]models.Snapshot, error) {
	m.lastFilter = f
	return m.list, m.err
}

func (m *mockMonitoring) Speedtests(_ context.Context, source string, _ int) ([]models.SpeedtestResult, error) {
	m.lastSource = source
	return m.speedtests, m.err
}

type mockEventLog struct {
	mu         sync.Mutex
	resp       []models.Event
	err        error
	ackErr     error
	lastFilter service.LogFilter
	lastAck    string
}

func (m *mockEventLog) List(_ context.Context, f service.LogFilter) ([]models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastFilter = f
	out := make([]models.Event, len(m.resp))
	copy(out, m.resp)
	return out, m.err
}

func (m *mockEventLog) setEvents(evs []models.Event) {
	m.mu.Lock()
	m.resp = evs
	m.mu.Unlock()
}

func (m *mockEventLog) Acknowledge(_ context.Context, id string) error {
	m.lastAck = id
	return m.ackErr
}

type mockCollectors struct {
	status     []models.CollectorStatus
	result     collector.Result
	refreshErr error
	lastName   string
}

func (m *mockCollectors) Status() []models.CollectorStatus { return m.status }

func (m *mockCollectors) Refresh(_ context.Context, name string) (collector.Result, error) {
	m.lastName = name
	return m.result, m.refreshErr
}

type mockThresholds struct {
	rules     []thresholds.Rule
	loadedAt  time.Time
	reloadErr error
	reloads   int
}

func (m *mockThresholds) Rules() []thresholds.Rule { return m.rules }
func (m *mockThresholds) LoadedAt() time.Time      { return m.loadedAt }

func (m *mockThresholds) Reload() error {
	m.reloads++
	return m.reloadErr
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}
