package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"log/slog"

	"realtime-service/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// ErrIdentityUnresolvable means the session was valid but the referenced
// account no longer exists. Treated the same as an unauthenticated handshake.
var ErrIdentityUnresolvable = errors.New("identity unresolvable")

// SessionCookie is the cookie the HTTP layer sets at login; the websocket
// handshake presents the same credential.
const SessionCookie = "session_token"

// IdentityResolver loads the full identity behind a session's user id.
type IdentityResolver interface {
	Identify(ctx context.Context, userID uint) (*Identity, error)
}

// Handler upgrades handshakes into channel members. Both endpoints
// re-authenticate independently with the same policy; nothing is shared
// between the chat and notification connections of one user.
type Handler struct {
	sessions      session.Resolver
	identities    IdentityResolver
	chat          *ChatChannel
	notifications *NotificationChannel
}

func NewHandler(sessions session.Resolver, identities IdentityResolver, chat *ChatChannel, notifications *NotificationChannel) *Handler {
	return &Handler{
		sessions:      sessions,
		identities:    identities,
		chat:          chat,
		notifications: notifications,
	}
}

// ServeChat handles GET /ws/chat.
func (h *Handler) ServeChat(c *gin.Context) {
	h.serve(c, h.chat, h.chat.Join)
}

// ServeNotifications handles GET /ws/notifications.
func (h *Handler) ServeNotifications(c *gin.Context) {
	h.serve(c, h.notifications, h.notifications.Join)
}

func (h *Handler) serve(c *gin.Context, ch channel, join func(*Client)) {
	// The session must resolve before the upgrade. A store failure or a bad
	// token refuses the connection outright, never a silent anonymous pass.
	sess, err := h.sessions.Resolve(c.Request.Context(), handshakeToken(c))
	if err != nil {
		slog.Info("Handshake rejected", "path", c.Request.URL.Path, "error", err)
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Error("Failed to upgrade WebSocket connection", "userID", sess.UserID, "error", err)
		return
	}

	identity, err := h.identities.Identify(c.Request.Context(), sess.UserID)
	if err != nil {
		// Session valid but the account is gone: terminal error event,
		// then close. No channel membership is granted.
		slog.Info("Identity unresolvable, closing connection", "userID", sess.UserID, "error", err)
		rejectConn(conn, "IDENTITY_UNRESOLVABLE", "user account not found")
		return
	}

	client := newClient(ch, conn, *identity)
	slog.Info("WebSocket connection established", "clientID", client.id, "userID", identity.ID, "path", c.Request.URL.Path)

	join(client)
	go client.writePump()
	go client.readPump()
}

// handshakeToken pulls the session credential from the upgrade request: the
// HTTP layer's cookie, or a token query parameter for clients that cannot
// send cookies cross-origin.
func handshakeToken(c *gin.Context) string {
	if token := c.Query("token"); token != "" {
		return strings.Replace(token, "Bearer ", "", 1)
	}
	if cookie, err := c.Cookie(SessionCookie); err == nil {
		return cookie
	}
	return ""
}

func rejectConn(conn *websocket.Conn, code, message string) {
	data, err := json.Marshal(NewErrorEvent(code, message))
	if err == nil {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		conn.WriteMessage(websocket.TextMessage, data)
	}
	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.ClosePolicyViolation, message),
		time.Now().Add(writeWait))
	conn.Close()
}
