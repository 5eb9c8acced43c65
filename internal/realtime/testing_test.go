package realtime

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
)

// newTestClient builds a client without a live transport. The pumps are never
// started; tests read events straight from the send buffer.
func newTestClient(ch channel, userID uint, username string) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		id:       uuid.New().String(),
		identity: Identity{ID: userID, Username: username},
		ch:       ch,
		send:     make(chan []byte, 256),
		ctx:      ctx,
		cancel:   cancel,
	}
}

func readEvent(t *testing.T, c *Client) *Event {
	t.Helper()
	select {
	case data := <-c.send:
		var ev Event
		if err := json.Unmarshal(data, &ev); err != nil {
			t.Fatalf("Failed to decode event: %v", err)
		}
		return &ev
	case <-time.After(time.Second):
		t.Fatal("Timed out waiting for event")
		return nil
	}
}

func assertNoEvent(t *testing.T, c *Client) {
	t.Helper()
	select {
	case data := <-c.send:
		t.Fatalf("Expected no event, got %s", data)
	case <-time.After(100 * time.Millisecond):
	}
}

// eventData re-decodes the envelope's data block into a typed payload.
func eventData(t *testing.T, ev *Event, v interface{}) {
	t.Helper()
	raw, err := json.Marshal(ev.Data)
	if err != nil {
		t.Fatalf("Failed to re-marshal event data: %v", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		t.Fatalf("Failed to decode event data: %v", err)
	}
}
