package models

import (
	"time"

	"gorm.io/gorm"
)

// NotificationKind is the closed set of events that produce a notification.
type NotificationKind string

const (
	NotificationFollow  NotificationKind = "follow"
	NotificationComment NotificationKind = "comment"
	NotificationLike    NotificationKind = "like"
)

// String returns the string representation of the NotificationKind
func (k NotificationKind) String() string {
	return string(k)
}

// IsValid checks if the NotificationKind is a valid enum value
func (k NotificationKind) IsValid() bool {
	switch k {
	case NotificationFollow, NotificationComment, NotificationLike:
		return true
	default:
		return false
	}
}

/** --------------------ENTITIES-------------------- */
// Notification is the durable copy of a pushed event. The websocket push is a
// latency optimization only; this row is what the client fetches on next poll.
type Notification struct {
	gorm.Model
	Kind        NotificationKind `gorm:"type:varchar(16);not null" json:"kind"`
	Content     string           `gorm:"size:255;not null" json:"content"`
	Read        bool             `gorm:"not null;default:false" json:"read"`
	Link        *string          `gorm:"size:255" json:"link,omitempty"`
	SenderID    uint             `gorm:"not null;index" json:"senderId"`
	RecipientID uint             `gorm:"not null;index" json:"recipientId"`

	Sender User `gorm:"foreignKey:SenderID" json:"-"`
}

/** -------------------- DTOs -------------------- */
// NotificationSender carries the minimal sender info included in a pushed event.
type NotificationSender struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

// NotificationResponse is the shape delivered both over the REST list endpoint
// and as the payload of a new_notification websocket event.
type NotificationResponse struct {
	ID        uint               `json:"id"`
	Kind      NotificationKind   `json:"kind"`
	Content   string             `json:"content"`
	Read      bool               `json:"read"`
	Link      *string            `json:"link,omitempty"`
	CreatedAt time.Time          `json:"createdAt"`
	Sender    NotificationSender `json:"sender"`
}

// ToResponse converts a Notification entity into its public representation.
// The Sender association must be loaded for the sender block to be populated.
func (n *Notification) ToResponse() NotificationResponse {
	return NotificationResponse{
		ID:        n.ID,
		Kind:      n.Kind,
		Content:   n.Content,
		Read:      n.Read,
		Link:      n.Link,
		CreatedAt: n.CreatedAt,
		Sender: NotificationSender{
			ID:       n.SenderID,
			Username: n.Sender.Username,
		},
	}
}
