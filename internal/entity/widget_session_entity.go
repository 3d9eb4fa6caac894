package entity

import "time"

// Session is the conversation identity persisted on the client. LastActivityAt
// is zero when no activity was recorded yet.
type Session struct {
	Id             string
	CreatedAt      time.Time
	LastActivityAt time.Time
}

type ChatState string

const (
	ChatStateClosed    ChatState = "closed"
	ChatStateOpen      ChatState = "open"
	ChatStateMinimized ChatState = "minimized"
)

type Position string

const (
	PositionBottomRight Position = "bottom-right"
	PositionBottomLeft  Position = "bottom-left"
)
