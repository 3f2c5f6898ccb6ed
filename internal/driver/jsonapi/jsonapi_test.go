package jsonapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const docsisBody = `{
  "downstream": [
    {"channel_id": 1, "frequency_mhz": 602, "power_dbmv": 3.2, "snr_db": 38.9, "modulation": "256QAM",
     "docsis_version": "3.0", "locked": true, "unerrored": 1000, "correctable": 5, "uncorrectable": 1},
    {"channel_id": 2, "frequency_mhz": 610, "modulation": "256QAM", "docsis_version": "3.0"}
  ],
  "upstream": [
    {"channel_id": 1, "frequency_mhz": 30.8, "power_dbmv": 44.5, "modulation": "64QAM", "docsis_version": "3.0"}
  ]
}`

func newModemServer(t *testing.T, token string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc(loginPath, func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(loginResponse{Token: token})
	})
	authed := func(body string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer "+token {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_, _ = w.Write([]byte(body))
		}
	}
	mux.HandleFunc(docsisPath, authed(docsisBody))
	mux.HandleFunc(devicePath, authed(`{"model":"TC4400","manufacturer":"Technicolor","software_version":"70.12","uptime_seconds":3600}`))
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestModem_LoginAndFetch(t *testing.T) {
	t.Parallel()

	srv := newModemServer(t, "tok-1")
	m := NewModem(ModemConfig{BaseURL: srv.URL + "/", Username: "admin", Password: "secret"})
	ctx := context.Background()

	if err := m.Login(ctx); err != nil {
		t.Fatalf("Login: %v", err)
	}
	r, err := m.GetDocsisData(ctx)
	if err != nil {
		t.Fatalf("GetDocsisData: %v", err)
	}
	if len(r.Downstream) != 2 || len(r.Upstream) != 1 {
		t.Fatalf("unexpected channels: %+v", r)
	}
	ds := r.Downstream[0]
	if ds.Power == nil || *ds.Power != 3.2 || ds.Uncorrectable == nil || *ds.Uncorrectable != 1 {
		t.Fatalf("channel 1 not decoded: %+v", ds)
	}
	if r.Downstream[1].Power != nil || r.Downstream[1].SNR != nil {
		t.Fatalf("missing values must stay nil: %+v", r.Downstream[1])
	}
	if r.FetchedAt.IsZero() {
		t.Fatalf("FetchedAt not set")
	}

	info, err := m.GetDeviceInfo(ctx)
	if err != nil {
		t.Fatalf("GetDeviceInfo: %v", err)
	}
	if info.Model != "TC4400" || info.UptimeSeconds != 3600 {
		t.Fatalf("unexpected device info: %+v", info)
	}
}

func TestModem_Unauthorized(t *testing.T) {
	t.Parallel()

	srv := newModemServer(t, "tok-2")

	bad := NewModem(ModemConfig{BaseURL: srv.URL, Username: "admin", Password: "wrong"})
	if err := bad.Login(context.Background()); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("Login err = %v, want ErrUnauthorized", err)
	}

	// No login at all: the data endpoint refuses the request.
	anon := NewModem(ModemConfig{BaseURL: srv.URL})
	if err := anon.Login(context.Background()); err != nil {
		t.Fatalf("Login without username should be a no-op: %v", err)
	}
	if _, err := anon.GetDocsisData(context.Background()); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("GetDocsisData err = %v, want ErrUnauthorized", err)
	}
}

func TestModem_ServerErrorAndTimeout(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == devicePath {
			time.Sleep(200 * time.Millisecond)
		}
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	m := NewModem(ModemConfig{BaseURL: srv.URL, Timeout: 50 * time.Millisecond})
	_, err := m.GetDocsisData(context.Background())
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusBadGateway {
		t.Fatalf("err = %v, want StatusError 502", err)
	}
	if _, err := m.GetDeviceInfo(context.Background()); err == nil {
		t.Fatalf("expected timeout error")
	}
}

func TestSpeedtest_Latest(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != latestSpeedtestPath || r.Header.Get("Authorization") != "Bearer st" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"data":{"id":812,"download":512.4,"upload":48.1,"ping":11.2,"jitter":0.8,
			"server_name":"Frankfurt","created_at":"2026-05-04 07:30:00"}}`))
	}))
	t.Cleanup(srv.Close)

	res, err := NewSpeedtest(SpeedtestConfig{BaseURL: srv.URL, Token: "st"}).Latest(context.Background())
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	want := time.Date(2026, 5, 4, 7, 30, 0, 0, time.UTC)
	if res.ExternalID != "812" || res.DownloadMbps != 512.4 || !res.Timestamp.Equal(want) || res.Server != "Frankfurt" {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestSpeedtest_NoResult(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":null}`))
	}))
	t.Cleanup(srv.Close)

	if _, err := NewSpeedtest(SpeedtestConfig{BaseURL: srv.URL}).Latest(context.Background()); !errors.Is(err, ErrNoResult) {
		t.Fatalf("err = %v, want ErrNoResult", err)
	}
}
