package store

import (
	"context"

	"github.com/google/uuid"
)

// InsertDomainEvent persists one emitted event and returns it with its
// assigned id and timestamp.
func (s *Store) InsertDomainEvent(ctx context.Context, topic string, aggregateID uuid.UUID, payload []byte) (DomainEvent, error) {
	var ev DomainEvent
	err := s.db.QueryRow(ctx,
		`INSERT INTO domain_events (topic, aggregate_id, payload) VALUES ($1, $2, $3)
		 RETURNING id, topic, aggregate_id, payload, occurred_at`,
		topic, aggregateID, payload).
		Scan(&ev.ID, &ev.Topic, &ev.AggregateID, &ev.Payload, &ev.OccurredAt)
	return ev, err
}
