package realtime

import (
	"time"

	"realtime-service/internal/models"

	"github.com/google/uuid"
)

// EventType represents the type of websocket event using a custom enum type
type EventType string

const (
	// Chat channel events
	EventJoin EventType = "join"
	EventExit EventType = "exit"
	EventChat EventType = "chat"

	// Notification channel events (outbound only)
	EventNewNotification EventType = "new_notification"

	// Terminal error event, sent before the server closes the connection
	EventError EventType = "error"
)

// String returns the string representation of the EventType
func (et EventType) String() string {
	return string(et)
}

// Identity is the authenticated user a connection represents. It is attached
// exactly once during the handshake and read-only afterwards.
type Identity struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

// Event is the envelope for every frame the server pushes to a client.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp int64       `json:"timestamp"`
}

// SystemMessageData is the payload of join/exit system broadcasts.
type SystemMessageData struct {
	User string `json:"user"`
	Chat string `json:"chat"`
}

// ChatMessageData is the payload of a relayed chat message, stamped with the
// sender's identity by the server.
type ChatMessageData struct {
	User Identity `json:"user"`
	Chat string   `json:"chat"`
}

// ErrorData is the payload of a terminal error event.
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ChatPublishRequest is the only inbound frame the chat channel accepts.
type ChatPublishRequest struct {
	Chat string `json:"chat"`
}

func newEvent(eventType EventType, data interface{}) *Event {
	return &Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now().Unix(),
	}
}

// NewJoinEvent announces a user entering the chat channel.
func NewJoinEvent(username string) *Event {
	return newEvent(EventJoin, SystemMessageData{
		User: "System",
		Chat: username + " joined the chat",
	})
}

// NewExitEvent announces a user leaving the chat channel.
func NewExitEvent(username string) *Event {
	return newEvent(EventExit, SystemMessageData{
		User: "System",
		Chat: username + " left the chat",
	})
}

// NewChatEvent wraps a relayed chat message.
func NewChatEvent(sender Identity, text string) *Event {
	return newEvent(EventChat, ChatMessageData{User: sender, Chat: text})
}

// NewNotificationEvent wraps a persisted notification for the push path.
func NewNotificationEvent(n models.NotificationResponse) *Event {
	return newEvent(EventNewNotification, n)
}

// NewErrorEvent builds a terminal error event.
func NewErrorEvent(code, message string) *Event {
	return newEvent(EventError, ErrorData{Code: code, Message: message})
}
