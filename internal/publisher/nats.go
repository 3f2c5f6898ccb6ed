// Package publisher forwards collector results to NATS subjects.
package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/nats-io/nats.go"

	"github.com/itsDNNS/docsight-sub000/internal/collector"
	"github.com/itsDNNS/docsight-sub000/internal/logger"
)

// DefaultPrefix is used when no subject prefix is configured.
const DefaultPrefix = "docsight"

// Conn is the part of *nats.Conn the publisher needs.
type Conn interface {
	Publish(subject string, data []byte) error
}

// Publisher implements collector.Listener. Publishing is best effort: errors
// are logged and never change the outcome of a collector run.
type Publisher struct {
	conn   Conn
	nc     *nats.Conn
	prefix string
	log    *logger.Logger
}

var _ collector.Listener = (*Publisher)(nil)

// Connect dials url and keeps reconnecting in the background.
func Connect(url, prefix string, log *logger.Logger) (*Publisher, error) {
	if url == "" {
		return nil, errors.New("nats url is empty")
	}
	nc, err := nats.Connect(url,
		nats.Name("docsight"),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, err
	}
	p := New(nc, prefix, log)
	p.nc = nc
	return p, nil
}

// New wraps an existing connection.
func New(conn Conn, prefix string, log *logger.Logger) *Publisher {
	prefix = strings.Trim(prefix, ". ")
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Publisher{conn: conn, prefix: prefix, log: log}
}

// Close drains the connection opened by Connect.
func (p *Publisher) Close() {
	if p.nc != nil {
		_ = p.nc.Drain()
		p.nc.Close()
	}
}

func (p *Publisher) Subject(kind, source string) string {
	return p.prefix + "." + kind + "." + subjectToken(source)
}

// OnResult publishes the snapshot, each event and any speedtest result of r.
// Failed runs publish nothing.
func (p *Publisher) OnResult(_ context.Context, r collector.Result) {
	if !r.Success {
		return
	}
	if r.Snapshot != nil {
		p.publish(p.Subject("snapshot", r.Snapshot.Source), r.Snapshot)
	}
	for _, ev := range r.Events {
		p.publish(p.Subject("event", ev.Source), ev)
	}
	if r.Speedtest != nil {
		p.publish(p.Subject("speedtest", r.Speedtest.Source), r.Speedtest)
	}
}

func (p *Publisher) publish(subject string, payload any) {
	data, err := json.Marshal(payload)
	if err == nil {
		err = p.conn.Publish(subject, data)
	}
	if err != nil && p.log != nil {
		p.log.Warnw("publish_failed", "subject", subject, "error", err)
	}
}

// subjectToken makes source safe for use as a single subject token.
func subjectToken(s string) string {
	if s == "" {
		return "unknown"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', ' ', '*', '>', '\t':
			return '_'
		}
		return r
	}, s)
}
