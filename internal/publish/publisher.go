// Package publish emits workshop lifecycle events to NATS for external
// observers. Publishing is fire-and-forget and never blocks event handling.
package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/scopesprint/scopesprint/internal/workshop"
)

const subjectPrefix = "scopesprint.workshop"

// Envelope is the message shape published for every lifecycle event.
type Envelope struct {
	EventID   string            `json:"eventId"`
	RoomCode  string            `json:"roomCode"`
	Event     string            `json:"event"`
	Timestamp time.Time         `json:"timestamp"`
	Snapshot  workshop.Snapshot `json:"snapshot"`
}

// NATSPublisher publishes lifecycle envelopes to NATS subjects of the form
// scopesprint.workshop.<event>.
type NATSPublisher struct {
	nc *nats.Conn
}

// NewNATSPublisher connects to NATS with infinite reconnects.
func NewNATSPublisher(url string) (*NATSPublisher, error) {
	opts := []nats.Option{
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	log.Info().Str("url", url).Msg("lifecycle publisher connected")
	return &NATSPublisher{nc: nc}, nil
}

// Publish implements workshop.Publisher.
func (p *NATSPublisher) Publish(ctx context.Context, roomCode string, event string, snap workshop.Snapshot) error {
	envelope := Envelope{
		EventID:   uuid.New().String(),
		RoomCode:  roomCode,
		Event:     event,
		Timestamp: time.Now().UTC(),
		Snapshot:  snap,
	}

	payload, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	subject := fmt.Sprintf("%s.%s", subjectPrefix, event)
	if err := p.nc.Publish(subject, payload); err != nil {
		return fmt.Errorf("publish to %s: %w", subject, err)
	}
	return nil
}

// Close drains the connection, flushing pending publishes.
func (p *NATSPublisher) Close() {
	if err := p.nc.Drain(); err != nil {
		log.Error().Err(err).Msg("failed to drain NATS connection")
	}
}
