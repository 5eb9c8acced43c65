package realtime

import "sync"

// Registry is the single owner of room membership state. Rooms map a name to
// the set of live member connections; the chat channel uses one fixed room,
// the notification channel one room per user id. All mutation goes through
// Add/Remove so a join racing a leave can never desync the table.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]map[*Client]bool
}

func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string]map[*Client]bool)}
}

// Add places the client in the room. Adding an existing member is a no-op.
func (r *Registry) Add(room string, c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.rooms[room] == nil {
		r.rooms[room] = make(map[*Client]bool)
	}
	r.rooms[room][c] = true
}

// Remove discards the client from the room and reports whether it was a
// member. Idempotent: concurrent close events may both call it, only the
// first returns true. Empty rooms are pruned.
func (r *Registry) Remove(room string, c *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.rooms[room]
	if !ok || !members[c] {
		return false
	}
	delete(members, c)
	if len(members) == 0 {
		delete(r.rooms, room)
	}
	return true
}

// Members returns a snapshot of the room's membership. An emit iterating the
// snapshot may miss a brand-new joiner or include a just-left member, but it
// never observes the table mid-mutation.
func (r *Registry) Members(room string) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := make([]*Client, 0, len(r.rooms[room]))
	for c := range r.rooms[room] {
		members = append(members, c)
	}
	return members
}

// Count returns the current size of the room.
func (r *Registry) Count(room string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[room])
}
