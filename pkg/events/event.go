package events

import "time"

// Event defines the contract for all widget lifecycle events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "session.opened").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

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

// NewWidgetEvent builds an event about one widget session. The session id
// and occurrence time are always part of the payload.
func NewWidgetEvent(eventType, sessionId string, at time.Time, extra map[string]interface{}) BaseEvent {
	data := make(map[string]interface{}, len(extra)+2)
	for k, v := range extra {
		data[k] = v
	}
	data["sessionId"] = sessionId
	data["occurredAt"] = at.UnixMilli()
	return BaseEvent{
		Type:       eventType,
		Data:       data,
		OccurredAt: at,
	}
}
