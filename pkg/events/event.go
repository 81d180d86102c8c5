package events

import "time"

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "SESSION_CREATED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent is the common implementation; the constructors below build the
// concrete event kinds the system emits.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// Session lifecycle event types. Subscribers filter on these codes.
const (
	TypeSessionCreated  = "SESSION_CREATED"
	TypeSessionUpdated  = "SESSION_UPDATED"
	TypeSessionResolved = "SESSION_RESOLVED"
	TypeSessionDeleted  = "SESSION_DELETED"
)

func newSessionEvent(eventType, sessionID, userID string, extra map[string]interface{}) BaseEvent {
	data := map[string]interface{}{
		"event_type": eventType,
		"session_id": sessionID,
		"user_id":    userID,
	}
	for k, v := range extra {
		data[k] = v
	}
	return BaseEvent{Type: eventType, Data: data, OccurredAt: time.Now()}
}

// NewSessionCreated fires when a session finishes its creation transition.
func NewSessionCreated(sessionID, userID, title string) BaseEvent {
	return newSessionEvent(TypeSessionCreated, sessionID, userID, map[string]interface{}{
		"title": title,
	})
}

// NewSessionUpdated fires after every committed turn.
func NewSessionUpdated(sessionID, userID string, currentStep int) BaseEvent {
	return newSessionEvent(TypeSessionUpdated, sessionID, userID, map[string]interface{}{
		"current_step": currentStep,
	})
}

// NewSessionResolved fires when the final answer is produced.
func NewSessionResolved(sessionID, userID string) BaseEvent {
	return newSessionEvent(TypeSessionResolved, sessionID, userID, nil)
}

// NewSessionDeleted fires after a session is removed.
func NewSessionDeleted(sessionID, userID string) BaseEvent {
	return newSessionEvent(TypeSessionDeleted, sessionID, userID, nil)
}
