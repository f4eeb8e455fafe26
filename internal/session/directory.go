package session

import (
	"errors"
	"sync"

	"party-dice/internal/shared"
)

// ErrNameTaken means another currently connected player already uses the name.
var ErrNameTaken = errors.New("username is already taken")

// Directory maps connection ids to Player identities. A player exists from
// first contact until disconnect; uniqueness of display names is enforced
// only among players connected right now.
type Directory struct {
	mu      sync.RWMutex
	players map[string]*shared.Player
}

func NewDirectory() *Directory {
	return &Directory{players: make(map[string]*shared.Player)}
}

// Register creates a fresh, unnamed player for a new connection.
func (d *Directory) Register(id string) *shared.Player {
	d.mu.Lock()
	defer d.mu.Unlock()
	p := &shared.Player{ID: id}
	d.players[id] = p
	return p
}

func (d *Directory) Get(id string) (*shared.Player, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	p, ok := d.players[id]
	return p, ok
}

// SetDisplayName assigns a display name and avatar, rejecting names held by
// any other registered player.
func (d *Directory) SetDisplayName(id, name, avatar string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.players[id]
	if !ok {
		return errors.New("unknown connection")
	}
	for otherID, other := range d.players {
		if otherID != id && other.Username == name {
			return ErrNameTaken
		}
	}
	p.Username = name
	p.Avatar = avatar
	return nil
}

// Unregister drops the player. Callers must apply room-removal side effects
// first so no room operation sees a half-torn-down player.
func (d *Directory) Unregister(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.players, id)
}
