package realtime

import (
	"fmt"
	"sync"
	"testing"
)

func TestRegistryAddRemove(t *testing.T) {
	reg := NewRegistry()
	c1 := newTestClient(nil, 1, "alice")
	c2 := newTestClient(nil, 2, "bob")

	reg.Add("7", c1)
	reg.Add("7", c2)
	if got := reg.Count("7"); got != 2 {
		t.Errorf("Expected 2 members in room 7, got %d", got)
	}

	// Re-adding an existing member must not duplicate it
	reg.Add("7", c1)
	if got := reg.Count("7"); got != 2 {
		t.Errorf("Expected 2 members after duplicate add, got %d", got)
	}

	if !reg.Remove("7", c1) {
		t.Error("First remove should report the client was a member")
	}
	if reg.Remove("7", c1) {
		t.Error("Second remove of the same client should be a no-op")
	}
	if got := reg.Count("7"); got != 1 {
		t.Errorf("Expected 1 member after removal, got %d", got)
	}
}

func TestRegistryPrunesEmptyRooms(t *testing.T) {
	reg := NewRegistry()
	c := newTestClient(nil, 1, "alice")

	reg.Add("42", c)
	reg.Remove("42", c)

	reg.mu.RLock()
	_, exists := reg.rooms["42"]
	reg.mu.RUnlock()
	if exists {
		t.Error("Empty room should be pruned from the table")
	}
}

func TestRegistryMembersSnapshot(t *testing.T) {
	reg := NewRegistry()
	c1 := newTestClient(nil, 1, "alice")
	c2 := newTestClient(nil, 2, "bob")
	reg.Add("r", c1)
	reg.Add("r", c2)

	snapshot := reg.Members("r")
	reg.Remove("r", c1)

	// The snapshot taken before the removal keeps both members
	if len(snapshot) != 2 {
		t.Errorf("Expected snapshot of 2 members, got %d", len(snapshot))
	}
	if got := reg.Count("r"); got != 1 {
		t.Errorf("Expected 1 live member, got %d", got)
	}
}

// Concurrent joins and leaves interleaved arbitrarily must leave the final
// membership equal to the set of clients that never left.
func TestRegistryConcurrentJoinLeave(t *testing.T) {
	reg := NewRegistry()
	const room = "7"
	const n = 100

	clients := make([]*Client, n)
	for i := range clients {
		clients[i] = newTestClient(nil, uint(i+1), fmt.Sprintf("user%d", i))
	}

	var wg sync.WaitGroup
	for i, c := range clients {
		wg.Add(1)
		go func(i int, c *Client) {
			defer wg.Done()
			reg.Add(room, c)
			if i%2 == 1 {
				// Half the clients leave again; some race a double
				// remove to exercise idempotency.
				reg.Remove(room, c)
				reg.Remove(room, c)
			}
		}(i, c)
	}
	wg.Wait()

	if got := reg.Count(room); got != n/2 {
		t.Errorf("Expected %d remaining members, got %d", n/2, got)
	}

	remaining := make(map[*Client]bool)
	for _, c := range reg.Members(room) {
		remaining[c] = true
	}
	for i, c := range clients {
		stayed := i%2 == 0
		if remaining[c] != stayed {
			t.Errorf("Client %d membership = %v, want %v", i, remaining[c], stayed)
		}
	}
}
