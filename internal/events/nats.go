package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/vidfriends/friendgraph/internal/models"
)

// NATSConfig describes how to reach the event broker.
type NATSConfig struct {
	URL           string
	Subject       string
	Name          string
	ReconnectWait time.Duration
	Timeout       time.Duration
}

// NATSSink publishes events as JSON on a NATS subject. Per-type subjects are
// derived by appending the event type, e.g. "friendgraph.events.friendship.accepted".
type NATSSink struct {
	conn    *nats.Conn
	subject string
}

// ConnectNATS dials the broker and returns a sink bound to cfg.Subject.
func ConnectNATS(cfg NATSConfig) (*NATSSink, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("nats url missing")
	}
	if cfg.Subject == "" {
		cfg.Subject = "friendgraph.events"
	}
	if cfg.Name == "" {
		cfg.Name = "friendgraph"
	}
	if cfg.ReconnectWait == 0 {
		cfg.ReconnectWait = 500 * time.Millisecond
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 3 * time.Second
	}

	conn, err := nats.Connect(cfg.URL,
		nats.Name(cfg.Name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.Timeout(cfg.Timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}

	return &NATSSink{conn: conn, subject: cfg.Subject}, nil
}

// Subject returns the subject an event of the given type is published on.
func (s *NATSSink) Subject(eventType models.FriendshipEventType) string {
	return s.subject + "." + string(eventType)
}

// Deliver implements Sink.
func (s *NATSSink) Deliver(ctx context.Context, event models.FriendshipEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	if err := s.conn.Publish(s.Subject(event.Type), payload); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

// Close flushes pending publishes and closes the connection.
func (s *NATSSink) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Drain()
}
