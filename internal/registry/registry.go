/*
Copyright (c) 2025 The Dungeond Authors

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in all
copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
SOFTWARE.
*/

package registry

import (
	"sync"
	"time"
)

// Room is one active dungeon. The ID is the platform-assigned voice
// channel ID and is the primary key of the registry.
type Room struct {
	ID        string
	GuildID   string
	OwnerID   string
	OwnerName string
	CreatedAt time.Time
	Locked    bool
	// Invited holds member IDs granted access while the room is
	// locked. It is only meaningful when Locked is true and is
	// cleared on unlock and on ownership transfer.
	Invited map[string]struct{}
	// UserLimit is the member cap; 0 means no limit.
	UserLimit int
}

// Invite records an invitation, allocating the set on first use.
// Returns false when the member was already invited.
func (r *Room) Invite(memberID string) bool {
	if r.Invited == nil {
		r.Invited = make(map[string]struct{})
	}
	if _, ok := r.Invited[memberID]; ok {
		return false
	}
	r.Invited[memberID] = struct{}{}
	return true
}

// ClearInvites drops all invitations.
func (r *Room) ClearInvites() {
	r.Invited = nil
}

func (r Room) clone() Room {
	if r.Invited != nil {
		invited := make(map[string]struct{}, len(r.Invited))
		for id := range r.Invited {
			invited[id] = struct{}{}
		}
		r.Invited = invited
	}
	return r
}

// Registry is a concurrency-safe map from room ID to Room. Timer
// callbacks and gateway handlers run on different goroutines, so every
// access takes the lock even though the controller serializes work
// per room.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]Room
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{rooms: make(map[string]Room)}
}

// Get returns a copy of the room and whether it exists.
func (g *Registry) Get(id string) (Room, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	room, ok := g.rooms[id]
	if !ok {
		return Room{}, false
	}
	return room.clone(), true
}

// Put inserts or replaces the room keyed by room.ID.
func (g *Registry) Put(room Room) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rooms[room.ID] = room.clone()
}

// Update applies mutate to the room if it still exists and reports
// whether it did. The mutator sees a private copy; the result is
// stored back atomically.
func (g *Registry) Update(id string, mutate func(*Room)) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	room, ok := g.rooms[id]
	if !ok {
		return false
	}
	room = room.clone()
	mutate(&room)
	room.ID = id
	g.rooms[id] = room
	return true
}

// Remove deletes the room and returns its final state, if it existed.
func (g *Registry) Remove(id string) (Room, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	room, ok := g.rooms[id]
	if !ok {
		return Room{}, false
	}
	delete(g.rooms, id)
	return room, true
}

// Rooms returns a copy of every tracked room.
func (g *Registry) Rooms() []Room {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]Room, 0, len(g.rooms))
	for _, room := range g.rooms {
		out = append(out, room.clone())
	}
	return out
}

// Len returns the number of tracked rooms.
func (g *Registry) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.rooms)
}
