package realtime

import (
	"encoding/json"
	"strconv"

	"log/slog"

	"realtime-service/internal/models"
)

// NotificationChannel addresses connections by recipient: every authenticated
// connection is placed, silently, into a room named after its own user id, so
// a producer can unicast to every active connection of one user. Clients never
// publish here; inbound frames are discarded.
type NotificationChannel struct {
	registry *Registry
}

func NewNotificationChannel(registry *Registry) *NotificationChannel {
	return &NotificationChannel{registry: registry}
}

// RoomName is the room a user's notification connections occupy.
func RoomName(userID uint) string {
	return strconv.FormatUint(uint64(userID), 10)
}

// Join places the connection into its own room. Unlike chat, no broadcast
// announces it.
func (nc *NotificationChannel) Join(c *Client) {
	nc.registry.Add(RoomName(c.identity.ID), c)
	slog.Info("Notification client joined room", "clientID", c.id, "room", RoomName(c.identity.ID))
}

// Emit delivers the payload to every connection currently in the recipient's
// room and returns how many received it. An empty room is not an error: the
// persisted record is the durable copy, the push is best effort.
func (nc *NotificationChannel) Emit(recipientID uint, payload models.NotificationResponse) int {
	ev := NewNotificationEvent(payload)
	data, err := json.Marshal(ev)
	if err != nil {
		slog.Error("Failed to encode notification event", "recipientID", recipientID, "error", err)
		return 0
	}

	delivered := 0
	for _, member := range nc.registry.Members(RoomName(recipientID)) {
		if err := member.enqueue(data); err != nil {
			slog.Debug("Dropping notification event", "clientID", member.id, "error", err)
			continue
		}
		delivered++
	}

	if delivered == 0 {
		slog.Debug("Recipient offline, notification push dropped", "recipientID", recipientID)
	}
	return delivered
}

// detach implements channel. Removal is idempotent; the registry prunes the
// room once its last member leaves.
func (nc *NotificationChannel) detach(c *Client) {
	nc.registry.Remove(RoomName(c.identity.ID), c)
	slog.Debug("Notification client left room", "clientID", c.id, "room", RoomName(c.identity.ID))
}

// inbound implements channel. The notification channel is receive-only from
// the client's perspective.
func (nc *NotificationChannel) inbound(c *Client, data []byte) {
	slog.Debug("Ignoring inbound frame on notification channel", "clientID", c.id)
}
