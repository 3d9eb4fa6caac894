package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewWidgetEvent(t *testing.T) {
	at := time.UnixMilli(1700000000000)
	e := NewWidgetEvent("session.closed", "session_1_a", at, map[string]interface{}{"reason": "escape"})

	assert.Equal(t, "session.closed", e.EventType())
	assert.Equal(t, at, e.Timestamp())
	assert.Equal(t, map[string]interface{}{
		"sessionId":  "session_1_a",
		"occurredAt": int64(1700000000000),
		"reason":     "escape",
	}, e.Payload())
}
