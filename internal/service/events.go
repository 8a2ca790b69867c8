package service

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/acadia-labs/academy-crm-api/internal/scoring"
)

// NATSEventPublisher emits scoring events onto a NATS subject so downstream
// consumers (notifications, analytics) can react to score changes. Publishing
// is fire-and-forget: a failed publish is logged, never surfaced.
type NATSEventPublisher struct {
	conn    *nats.Conn
	subject string
	logger  zerolog.Logger
}

// NewNATSEventPublisher builds a scoring event publisher. Returns nil when
// no connection is configured so callers can wire it straight through.
func NewNATSEventPublisher(conn *nats.Conn, subjectBase string, logger zerolog.Logger) *NATSEventPublisher {
	if conn == nil {
		return nil
	}

	subject := strings.TrimSuffix(subjectBase, ".") + ".scored"
	return &NATSEventPublisher{
		conn:    conn,
		subject: subject,
		logger:  logger.With().Str("component", "event_publisher").Logger(),
	}
}

// LeadScored publishes a lead-scored event.
func (p *NATSEventPublisher) LeadScored(_ context.Context, event scoring.LeadScoredEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Warn().Err(err).Msg("failed to marshal scoring event")
		return
	}

	if err := p.conn.Publish(p.subject, payload); err != nil {
		p.logger.Warn().Err(err).
			Uint("student_id", event.StudentID).
			Msg("failed to publish scoring event")
	}
}
