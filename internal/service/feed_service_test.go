package service

import (
	"context"
	"testing"
	"time"

	"guided-dialogue-be/internal/websocket"
	"guided-dialogue-be/pkg/events"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingDelivery struct {
	userIDs []uuid.UUID
	events  []websocket.FeedEvent
}

func (d *recordingDelivery) Send(userID uuid.UUID, event websocket.FeedEvent) {
	d.userIDs = append(d.userIDs, userID)
	d.events = append(d.events, event)
}

type testLogger struct{}

func (testLogger) Debug(module, message string, details map[string]interface{}) {}
func (testLogger) Info(module, message string, details map[string]interface{})  {}
func (testLogger) Warn(module, message string, details map[string]interface{})  {}
func (testLogger) Error(module, message string, details map[string]interface{}) {}

func TestFeedEventRoutedToOwner(t *testing.T) {
	delivery := &recordingDelivery{}
	svc := NewFeedService(nil, delivery, testLogger{})

	userID := uuid.New()
	sessionID := uuid.New()
	event := events.NewSessionUpdated(sessionID.String(), userID.String(), 3)

	err := svc.handleEvent(context.Background(), event)
	require.NoError(t, err)

	require.Len(t, delivery.events, 1)
	assert.Equal(t, userID, delivery.userIDs[0])
	assert.Equal(t, events.TypeSessionUpdated, delivery.events[0].Type)
	assert.Equal(t, sessionID.String(), delivery.events[0].Data["session_id"])
}

func TestFeedEventSubjectPrefixStripped(t *testing.T) {
	delivery := &recordingDelivery{}
	svc := NewFeedService(nil, delivery, testLogger{})

	userID := uuid.New()
	event := events.BaseEvent{
		Type: "events.SESSION_DELETED",
		Data: map[string]interface{}{
			"user_id":    userID.String(),
			"session_id": uuid.New().String(),
		},
		OccurredAt: time.Now(),
	}

	err := svc.handleEvent(context.Background(), event)
	require.NoError(t, err)

	require.Len(t, delivery.events, 1)
	assert.Equal(t, events.TypeSessionDeleted, delivery.events[0].Type)
}

func TestFeedEventWithoutUserIsDropped(t *testing.T) {
	delivery := &recordingDelivery{}
	svc := NewFeedService(nil, delivery, testLogger{})

	event := events.BaseEvent{
		Type:       events.TypeSessionCreated,
		Data:       map[string]interface{}{"session_id": uuid.New().String()},
		OccurredAt: time.Now(),
	}

	// Dropping is deliberate: a Nak would just redeliver a message that can
	// never be routed.
	err := svc.handleEvent(context.Background(), event)
	require.NoError(t, err)
	assert.Empty(t, delivery.events)
}

func TestFeedEventMalformedUserIsDropped(t *testing.T) {
	delivery := &recordingDelivery{}
	svc := NewFeedService(nil, delivery, testLogger{})

	event := events.BaseEvent{
		Type:       events.TypeSessionCreated,
		Data:       map[string]interface{}{"user_id": "not-a-uuid"},
		OccurredAt: time.Now(),
	}

	err := svc.handleEvent(context.Background(), event)
	require.NoError(t, err)
	assert.Empty(t, delivery.events)
}
