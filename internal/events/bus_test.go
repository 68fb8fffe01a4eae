package events_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/sugarnest/bakery-api/internal/events"
	"github.com/sugarnest/bakery-api/internal/store"
)

type stubStore struct {
	lastTopic   string
	lastPayload []byte
}

func (s *stubStore) InsertDomainEvent(_ context.Context, topic string, aggregateID uuid.UUID, payload []byte) (store.DomainEvent, error) {
	s.lastTopic = topic
	s.lastPayload = payload
	return store.DomainEvent{
		ID:          uuid.New(),
		Topic:       topic,
		AggregateID: aggregateID,
		Payload:     payload,
		OccurredAt:  time.Now(),
	}, nil
}

type captureNotifier struct {
	events []store.DomainEvent
}

func (c *captureNotifier) Notify(_ context.Context, event store.DomainEvent) error {
	c.events = append(c.events, event)
	return nil
}

func TestEmitPersistsEvent(t *testing.T) {
	st := &stubStore{}
	notifier := &captureNotifier{}
	bus := events.Bus{Store: st, Notifiers: []events.Notifier{notifier}}

	aggregate := uuid.New()
	payload := map[string]any{"orderId": "123"}
	event, err := bus.Emit(context.Background(), events.TopicOrderCreated, aggregate, payload)
	require.NoError(t, err)
	require.Equal(t, events.TopicOrderCreated, st.lastTopic)
	require.JSONEq(t, `{"orderId":"123"}`, string(st.lastPayload))
	require.Len(t, notifier.events, 1)
	require.Equal(t, event.ID, notifier.events[0].ID)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(event.Payload, &decoded))
	require.Equal(t, "123", decoded["orderId"])
}

func TestEmitRejectsBadInput(t *testing.T) {
	bus := events.Bus{Store: &stubStore{}}

	_, err := bus.Emit(context.Background(), "", uuid.New(), nil)
	require.Error(t, err)

	_, err = bus.Emit(context.Background(), events.TopicOrderCreated, uuid.Nil, nil)
	require.Error(t, err)

	_, err = bus.Emit(context.Background(), events.TopicOrderCreated, uuid.New(), "not json")
	require.Error(t, err)
}

func TestEmitDefaultsEmptyPayload(t *testing.T) {
	st := &stubStore{}
	bus := events.Bus{Store: st}

	_, err := bus.Emit(context.Background(), events.TopicCartMerged, uuid.New(), nil)
	require.NoError(t, err)
	require.JSONEq(t, `{}`, string(st.lastPayload))
}
