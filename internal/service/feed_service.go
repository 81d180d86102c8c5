package service

import (
	"context"
	"fmt"
	"strings"

	"guided-dialogue-be/internal/pkg/logger"
	"guided-dialogue-be/internal/websocket"
	"guided-dialogue-be/pkg/events"
	pktNats "guided-dialogue-be/pkg/nats"

	"github.com/google/uuid"
)

// FeedDelivery defines how to push real-time updates.
// Typically implemented by the WebSocket Hub.
type FeedDelivery interface {
	Send(userID uuid.UUID, event websocket.FeedEvent)
}

// FeedService relays session lifecycle events from the bus to the
// owner's open websocket connections.
type FeedService struct {
	subscriber *pktNats.Subscriber
	delivery   FeedDelivery
	logger     logger.ILogger
}

func NewFeedService(sub *pktNats.Subscriber, delivery FeedDelivery, log logger.ILogger) *FeedService {
	return &FeedService{
		subscriber: sub,
		delivery:   delivery,
		logger:     log,
	}
}

// Start begins listening to the event bus.
func (s *FeedService) Start() {
	err := s.subscriber.Subscribe("events.>", "feed-service-worker", s.handleEvent)
	if err != nil {
		s.logger.Error("FeedService", "Failed to start feed subscriber", map[string]interface{}{"error": err})
		return
	}
	s.logger.Info("FeedService", "Feed service started, listening to events.>", nil)
}

func (s *FeedService) handleEvent(ctx context.Context, event events.Event) error {
	// NATS subjects carry the "events." prefix; strip it so the type
	// matches the codes the publisher embeds in the payload.
	typeCode := strings.TrimPrefix(event.EventType(), "events.")

	payload := event.Payload()
	uidStr, ok := payload["user_id"].(string)
	if !ok || uidStr == "" {
		s.logger.Warn("FeedService", fmt.Sprintf("Event %s has no user_id, skipping", typeCode), nil)
		return nil
	}

	userID, err := uuid.Parse(uidStr)
	if err != nil {
		s.logger.Warn("FeedService", "Event carries malformed user_id", map[string]interface{}{
			"type":    typeCode,
			"user_id": uidStr,
		})
		return nil
	}

	if s.delivery == nil {
		return nil
	}

	s.delivery.Send(userID, websocket.FeedEvent{
		Type: typeCode,
		Data: payload,
	})
	return nil
}
