package constant

import "time"

// Persisted storage keys.
const (
	StorageKeySessionID          = "vetChatbot_sessionId"
	StorageKeyLastActivityPrefix = "vetChatbot_lastActivity_"
	StorageKeyBookingState       = "vetChatbot_bookingState"
	DefaultMessageStorageKey     = "chatbot-messages"
)

const (
	SessionIDPrefix = "session_"
	MessageIDPrefix = "msg-"
)

const (
	BookingInactivityTimeout = 30 * time.Minute
	BookingSweepInterval     = 1 * time.Minute
	CloseNotifyTimeout       = 5 * time.Second
	ShutdownWaitTimeout      = 5 * time.Second
	PlaceholderReplyDelay    = 500 * time.Millisecond
)

const (
	BookingExpiredMessage   = "⚠️ Your booking session expired due to inactivity."
	BookingExpiredIndicator = "expired"

	SendFailedMessage       = "Failed to send message. Please try again."
	ErrorMessagePrefix      = "Error: "
	DefaultBackendErrorText = "An error occurred"

	PlaceholderReplyFormat = `You said: "%s". This is a placeholder response. Configure an API endpoint to get real responses.`
)

const (
	DefaultBotName    = "Chat Assistant"
	DefaultAPIRoute   = "api/v1/chat"
	CloseSessionRoute = "api/v1/chat/close"
)

// Input hints shown under the composer for each booking step.
const (
	HintAskDate     = "Or type the date in YYYY-MM-DD format (e.g., 2024-12-25)"
	HintShowSlots   = "Or type the slot number (1, 2, 3, etc.)"
	HintConfirmSlot = `Or type "yes" or "no"`
	HintAskEmail    = "Enter your email address"
	HintAskPhone    = "Enter your phone number"
	HintDefault     = "Press Enter to send, Shift+Enter for newline"
)

// Lifecycle event types published on the event stream.
const (
	EventSessionOpened    = "session.opened"
	EventSessionClosed    = "session.closed"
	EventBookingExpired   = "booking.expired"
	EventBookingCompleted = "booking.completed"
)

const KeyEscape = "Escape"
