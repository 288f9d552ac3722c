package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// NATSPublisher forwards build events to a JetStream stream so external
// consumers (deploy hooks, dashboards) can react to builds. Register it
// on a bus with SubscribeAll.
type NATSPublisher struct {
	conn    *nats.Conn
	js      jetstream.JetStream
	subject string
	stream  string
}

// NewNATSPublisher connects to NATS and ensures the target stream exists.
// Events are published to subject + "." + event type.
func NewNATSPublisher(url, subject, stream string) (*NATSPublisher, error) {
	if url == "" {
		return nil, fmt.Errorf("nats url is required")
	}

	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	p := &NATSPublisher{conn: conn, js: js, subject: subject, stream: stream}
	if err := p.initStream(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize stream: %w", err)
	}

	slog.Info("NATS publisher initialized for build events",
		"url", url,
		"subject", subject,
		"stream", stream)

	return p, nil
}

// initStream creates or gets the stream backing the event subjects.
func (p *NATSPublisher) initStream() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Try to get existing stream
	if _, err := p.js.Stream(ctx, p.stream); err == nil {
		return nil
	}

	_, err := p.js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        p.stream,
		Description: "Static site build events",
		Subjects:    []string{p.subject + ".>"},
		MaxBytes:    100 * 1024 * 1024, // 100MB max
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}

	slog.Info("Created stream for build events", "stream", p.stream)
	return nil
}

// envelope is the wire form of a published event.
type envelope struct {
	BuildID   string          `json:"build_id"`
	Type      string          `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// Handle publishes one event. It satisfies the bus Handler signature.
func (p *NATSPublisher) Handle(e Event) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	data, err := json.Marshal(envelope{
		BuildID:   e.BuildID(),
		Type:      e.Type(),
		Timestamp: e.Timestamp(),
		Payload:   e.Payload(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if _, err := p.js.Publish(ctx, p.subject+"."+e.Type(), data); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	slog.Debug("Published build event", "type", e.Type(), "build_id", e.BuildID())
	return nil
}

// Close closes the NATS connection.
func (p *NATSPublisher) Close() error {
	if p.conn != nil {
		p.conn.Close()
	}
	return nil
}
