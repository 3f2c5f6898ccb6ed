package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/itsDNNS/docsight-sub000/internal/logger"
	"github.com/itsDNNS/docsight-sub000/internal/service"
)

// Keepalive timing and stream bounds.
const (
	writeWait        = 10 * time.Second
	pongWait         = 60 * time.Second
	pingPeriod       = (pongWait * 9) / 10
	maxMsgSize       = 1 << 12
	defaultInterval  = 2 * time.Second
	maxInterval      = 60 * time.Second
	maxIntervalMilli = 60_000
)

// Message types pushed to clients.
const (
	wsTypeSnapshot = "snapshot"
	wsTypeEvent    = "event"
)

type wsEnvelope struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsCursor remembers what a connection has already seen.
type wsCursor struct {
	source     string
	snapshotID string
	since      time.Time
	seen       map[string]bool // event ids at exactly since
}

// @Summary      Live stream
// @Description  WebSocket upgrade. Pushes the latest snapshot whenever it changes and every new event.
// @Tags         system
// @Param        source       query  string  false  "Source name; defaults to the modem collector"
// @Param        interval     query  string  false  "Poll interval, e.g. 5s"
// @Param        interval_ms  query  int     false  "Poll interval in milliseconds"
// @Param        token        query  string  false  "Bearer token when the Authorization header cannot be set"
// @Failure      401          {object}  map[string]string
// @Router       /ws [get]
// @Security     BearerAuth
func (h *Handler) wsConnect(c *gin.Context) {
	interval := h.parseInterval(c)
	cur := &wsCursor{
		source: c.Query("source"),
		since:  time.Now().UTC(),
		seen:   map[string]bool{},
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		if h.log != nil {
			h.log.Errorw("ws_upgrade_failed", "err", err)
		}
		return
	}
	defer func() { _ = conn.Close() }()

	closed := keepAlive(conn, h.log)
	h.stream(c.Request.Context(), conn, cur, interval, closed)
}

// stream pushes updates every interval until the peer goes away or a write fails.
func (h *Handler) stream(ctx context.Context, conn *websocket.Conn, cur *wsCursor, interval time.Duration, closed <-chan struct{}) {
	updates := time.NewTicker(interval)
	defer updates.Stop()
	pings := time.NewTicker(pingPeriod)
	defer pings.Stop()

	if err := h.sendUpdates(ctx, conn, cur); err != nil {
		h.wsInfo("ws_write_failed_initial", err)
		return
	}
	for {
		select {
		case <-closed:
			return
		case <-ctx.Done():
			return
		case <-pings.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.wsInfo("ws_ping_failed", err)
				return
			}
		case <-updates.C:
			if err := h.sendUpdates(ctx, conn, cur); err != nil {
				h.wsInfo("ws_write_failed", err)
				return
			}
		}
	}
}

func (h *Handler) wsInfo(msg string, err error) {
	if h.log != nil {
		h.log.Infow(msg, "err", err)
	}
}

// parseInterval accepts ?interval=5s or ?interval_ms=5000; out of range values
// fall back to the default.
func (h *Handler) parseInterval(c *gin.Context) time.Duration {
	if s := c.Query("interval"); s != "" {
		if d, err := time.ParseDuration(s); err == nil && d > 0 && d <= maxInterval {
			return d
		}
	}
	if ms := c.Query("interval_ms"); ms != "" {
		if v, err := strconv.Atoi(ms); err == nil && v > 0 && v <= maxIntervalMilli {
			return time.Duration(v) * time.Millisecond
		}
	}
	return defaultInterval
}

// keepAlive arms the pong deadline and starts the read loop. Clients never
// send data; reading only serves control frames. The returned channel is
// closed once the connection is gone.
func keepAlive(conn *websocket.Conn, log *logger.Logger) <-chan struct{} {
	conn.SetReadLimit(maxMsgSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if log != nil {
					log.Infow("ws_read_closed", "err", err)
				}
				return
			}
		}
	}()
	return closed
}

// sendUpdates writes the latest snapshot if it changed and any event
// newer than the cursor, oldest first.
func (h *Handler) sendUpdates(ctx context.Context, conn *websocket.Conn, cur *wsCursor) error {
	snap, err := h.services.Monitoring.LatestSnapshot(ctx, cur.source)
	switch {
	case errors.Is(err, service.ErrNoSnapshot):
	case err != nil:
		if h.log != nil {
			h.log.Errorw("ws_get_snapshot_failed", "err", err)
		}
		return err
	case snap.ID != cur.snapshotID:
		if err := writeEnvelope(conn, wsEnvelope{Type: wsTypeSnapshot, Data: snap}); err != nil {
			return err
		}
		cur.snapshotID = snap.ID
	}

	if h.services.EventLog == nil {
		return nil
	}
	events, err := h.services.EventLog.List(ctx, service.LogFilter{Source: cur.source, From: cur.since})
	if err != nil {
		if h.log != nil {
			h.log.Errorw("ws_list_events_failed", "err", err)
		}
		return err
	}
	for i := len(events) - 1; i >= 0; i-- {
		ev := events[i]
		if ev.Timestamp.Before(cur.since) || cur.seen[ev.ID] {
			continue
		}
		if err := writeEnvelope(conn, wsEnvelope{Type: wsTypeEvent, Data: ev}); err != nil {
			return err
		}
		if ev.Timestamp.After(cur.since) {
			cur.since = ev.Timestamp
			cur.seen = map[string]bool{}
		}
		cur.seen[ev.ID] = true
	}
	return nil
}

func writeEnvelope(conn *websocket.Conn, env wsEnvelope) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(env)
}
