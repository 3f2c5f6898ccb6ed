package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/itsDNNS/docsight-sub000/internal/models"
	"github.com/itsDNNS/docsight-sub000/internal/service"
)

func do(t *testing.T, s *service.Service, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, nil)
	for k, vv := range authHeader("valid") {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	newTestRouter(s).ServeHTTP(w, req)
	return w
}

func TestListEvents_FiltersAndValidation(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	logs := &mockEventLog{resp: []models.Event{
		{ID: "e2", Timestamp: now.Add(time.Second), Type: models.EventSNRDrop},
		{ID: "e1", Timestamp: now, Type: models.EventPowerShift},
	}}
	s := &service.Service{Authorization: &mockAuth{parseSub: "ui"}, EventLog: logs}

	if w := do(t, s, http.MethodGet, "/api/v1/events?from=notatime"); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 invalid 'from', got %d", w.Code)
	}
	if w := do(t, s, http.MethodGet, "/api/v1/events?limit=-3"); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 invalid limit, got %d", w.Code)
	}
	if w := do(t, s, http.MethodGet, "/api/v1/events?from=2026-02-02&to=2026-02-01"); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 inverted range, got %d", w.Code)
	}

	w := do(t, s, http.MethodGet, "/api/v1/events?source=modem&type=snr_drop&severity=warning&unacknowledged=true&limit=20&to=2026-02-01")
	if w.Code != http.StatusOK {
		t.Fatalf("events status=%d, body=%s", w.Code, w.Body.String())
	}
	var out struct {
		Count  int            `json:"count"`
		Events []models.Event `json:"events"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	if out.Count != 2 || len(out.Events) != 2 {
		t.Fatalf("unexpected response: %+v", out)
	}
	f := logs.lastFilter
	wantTo := time.Date(2026, 2, 1, 23, 59, 59, 999999999, time.UTC)
	if f.Source != "modem" || f.Type != "snr_drop" || f.Severity != "warning" || !f.Unacknowledged || f.Limit != 20 || !f.To.Equal(wantTo) {
		t.Fatalf("unexpected filter: %+v", f)
	}
}

func TestListEvents_ServiceErrors(t *testing.T) {
	// Filter validation happens before the repository is touched.
	s := &service.Service{EventLog: service.NewEventLogService(nil)}
	if w := do(t, s, http.MethodGet, "/api/v1/events?type=reboot"); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown type, got %d", w.Code)
	}

	s = &service.Service{EventLog: &mockEventLog{err: errors.New("db down")}}
	if w := do(t, s, http.MethodGet, "/api/v1/events"); w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 for storage error, got %d", w.Code)
	}
}

func TestAckEvent(t *testing.T) {
	cases := []struct {
		name     string
		ackErr   error
		wantCode int
	}{
		{name: "ok", wantCode: http.StatusOK},
		{name: "not found", ackErr: service.ErrEventNotFound, wantCode: http.StatusNotFound},
		{name: "storage error", ackErr: errors.New("locked"), wantCode: http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			logs := &mockEventLog{ackErr: tc.ackErr}
			w := do(t, &service.Service{EventLog: logs}, http.MethodPost, "/api/v1/events/e42/ack")
			if w.Code != tc.wantCode {
				t.Fatalf("status=%d want %d", w.Code, tc.wantCode)
			}
			if logs.lastAck != "e42" {
				t.Fatalf("ack id = %q", logs.lastAck)
			}
		})
	}
}
