package store

import (
	"sync"

	"party-dice/internal/room"
	"party-dice/internal/shared"
)

// MemoryStore holds the live room set. All state is transient; a process
// restart empties the lobby.
type MemoryStore struct {
	mu    sync.RWMutex
	rooms map[string]*room.Room
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rooms: map[string]*room.Room{},
	}
}

func (m *MemoryStore) GetRoom(name string) (*room.Room, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rooms[name]
	return r, ok
}

func (m *MemoryStore) SaveRoom(r *room.Room) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rooms[r.Name] = r
}

func (m *MemoryStore) DeleteRoom(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rooms, name)
}

// ListRooms snapshots every room's name and member count for the lobby
// browser.
func (m *MemoryStore) ListRooms() []shared.RoomInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]shared.RoomInfo, 0, len(m.rooms))
	for name, r := range m.rooms {
		out = append(out, shared.RoomInfo{Name: name, PlayerCount: len(r.Members)})
	}
	return out
}
