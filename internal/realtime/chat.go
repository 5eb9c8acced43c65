package realtime

import (
	"context"
	"encoding/json"
	"time"

	"log/slog"
)

// chatRoom is the chat channel's single implicit broadcast group.
const chatRoom = "global"

// presenceTimeout bounds each presence store write.
const presenceTimeout = 3 * time.Second

// PresenceTracker mirrors connection state into an external store. Best
// effort: failures are logged, never surfaced to members. Calls run off the
// dispatch goroutine so a stalled store cannot delay joins or leaves.
type PresenceTracker interface {
	SetUserOnline(ctx context.Context, userID uint) error
	SetUserOffline(ctx context.Context, userID uint) error
}

type chatPublish struct {
	client *Client
	text   string
}

// ChatChannel is the single shared broadcast channel. Every authenticated
// connection joins the same group; membership changes are themselves broadcast
// as system messages. Joins, leaves, and publishes are serialized through one
// dispatch goroutine, which is what guarantees the per-channel total order.
type ChatChannel struct {
	registry *Registry
	presence PresenceTracker

	join     chan *Client
	leave    chan *Client
	messages chan chatPublish

	ctx    context.Context
	cancel context.CancelFunc
}

func NewChatChannel(registry *Registry, presence PresenceTracker) *ChatChannel {
	ctx, cancel := context.WithCancel(context.Background())
	return &ChatChannel{
		registry: registry,
		presence: presence,
		join:     make(chan *Client),
		leave:    make(chan *Client),
		messages: make(chan chatPublish),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Run dispatches until Stop is called. Must run in exactly one goroutine.
func (ch *ChatChannel) Run() {
	for {
		select {
		case c := <-ch.join:
			ch.handleJoin(c)

		case c := <-ch.leave:
			ch.handleLeave(c)

		case msg := <-ch.messages:
			ch.broadcast(NewChatEvent(msg.client.identity, msg.text))

		case <-ch.ctx.Done():
			slog.Info("Chat channel shutting down")
			return
		}
	}
}

func (ch *ChatChannel) Stop() {
	ch.cancel()
}

// Join hands a freshly authenticated connection to the dispatcher.
func (ch *ChatChannel) Join(c *Client) {
	select {
	case ch.join <- c:
	case <-ch.ctx.Done():
		c.close()
	}
}

func (ch *ChatChannel) handleJoin(c *Client) {
	ch.registry.Add(chatRoom, c)
	slog.Info("Chat client joined", "clientID", c.id, "userID", c.identity.ID)

	ch.mirrorPresence(c.identity.ID, true)

	// The joiner receives its own join announcement: the broadcast is
	// channel-wide, not "everyone except sender".
	ch.broadcast(NewJoinEvent(c.identity.Username))
}

func (ch *ChatChannel) handleLeave(c *Client) {
	if !ch.registry.Remove(chatRoom, c) {
		return
	}
	slog.Info("Chat client left", "clientID", c.id, "userID", c.identity.ID)

	ch.mirrorPresence(c.identity.ID, false)

	// The member is already removed, so the exit announcement reaches only
	// the remaining members, exactly once.
	ch.broadcast(NewExitEvent(c.identity.Username))
}

// mirrorPresence writes the transition to the presence store on its own
// goroutine, bounded by presenceTimeout. The dispatcher never waits on it.
func (ch *ChatChannel) mirrorPresence(userID uint, online bool) {
	if ch.presence == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), presenceTimeout)
		defer cancel()

		var err error
		if online {
			err = ch.presence.SetUserOnline(ctx, userID)
		} else {
			err = ch.presence.SetUserOffline(ctx, userID)
		}
		if err != nil {
			slog.Error("Failed to mirror presence", "userID", userID, "online", online, "error", err)
		}
	}()
}

func (ch *ChatChannel) broadcast(ev *Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		slog.Error("Failed to encode event", "type", ev.Type, "error", err)
		return
	}
	for _, member := range ch.registry.Members(chatRoom) {
		if err := member.enqueue(data); err != nil {
			slog.Debug("Dropping chat event", "clientID", member.id, "error", err)
		}
	}
}

// detach implements channel. Called from the connection's read pump on any
// transport close, abrupt or graceful. It blocks until the dispatcher takes
// the leave event; dropping it would leave a closed client in the registry
// with no departure announcement.
func (ch *ChatChannel) detach(c *Client) {
	select {
	case ch.leave <- c:
	case <-ch.ctx.Done():
	}
}

// inbound implements channel. The only accepted frame is a publish request;
// the text is stamped with the sender's identity and broadcast as received.
// Empty text is relayed as-is, the server does not re-validate it.
func (ch *ChatChannel) inbound(c *Client, data []byte) {
	var req ChatPublishRequest
	if err := json.Unmarshal(data, &req); err != nil {
		slog.Debug("Malformed chat frame dropped", "clientID", c.id, "error", err)
		return
	}

	select {
	case ch.messages <- chatPublish{client: c, text: req.Chat}:
	case <-c.ctx.Done():
	case <-ch.ctx.Done():
	}
}
