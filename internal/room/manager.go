package room

import (
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sync"

	"github.com/gin-gonic/gin"

	"party-dice/internal/session"
	"party-dice/internal/shared"
)

var errUnknownPlayer = errors.New("unknown player")

// Manager owns every mutation of the room set and of room membership. One
// mutex serializes all operations end to end, mutation plus the broadcasts
// derived from it, so no observer ever sees a newer room state followed by
// an older one and no operation observes another mid-flight.
type Manager struct {
	mu       sync.Mutex
	store    Store
	sessions *session.Directory
	colors   []string
	hub      Broadcaster
	rng      *rand.Rand
}

func NewManager(s Store, sessions *session.Directory, colors []string, rng *rand.Rand) *Manager {
	return &Manager{
		store:    s,
		sessions: sessions,
		colors:   colors,
		rng:      rng,
	}
}

// SetBroadcaster wires the transport in after construction; the hub and the
// manager reference each other.
func (m *Manager) SetBroadcaster(b Broadcaster) {
	m.hub = b
}

func (m *Manager) player(id string) (*shared.Player, error) {
	p, ok := m.sessions.Get(id)
	if !ok {
		log.Printf("[room] operation from unregistered connection %s", id)
		return nil, errUnknownPlayer
	}
	return p, nil
}

// CreateRoom registers a new room and seats the requester in it as admin.
func (m *Manager) CreateRoom(name, requesterID string) (*shared.RoomSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, err := m.player(requesterID)
	if err != nil {
		return nil, err
	}
	if p.CurrentRoom != "" {
		return nil, ErrAlreadyMember
	}
	if _, exists := m.store.GetRoom(name); exists {
		return nil, ErrNameTaken
	}
	r := New(name, m.colors)
	if err := r.AddMember(p); err != nil {
		return nil, err
	}
	m.store.SaveRoom(r)
	log.Printf("[room] %s created by %s", name, p.DisplayName())

	m.hub.Subscribe(name, p.ID)
	snap := m.snapshot(r)
	m.hub.Broadcast(name, "update_players", gin.H{"players": snap.Players, "room": snap})
	m.hub.BroadcastAll("rooms_list", m.store.ListRooms())
	return snap, nil
}

// JoinRoom seats the requester in an existing room.
func (m *Manager) JoinRoom(name, requesterID string) (*shared.RoomSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, err := m.player(requesterID)
	if err != nil {
		return nil, err
	}
	r, ok := m.store.GetRoom(name)
	if !ok {
		return nil, ErrRoomNotFound
	}
	// A player holds one seat at a time; a second join would leak its color
	// in the first room.
	if p.CurrentRoom != "" && p.CurrentRoom != name {
		return nil, ErrAlreadyMember
	}
	if err := r.AddMember(p); err != nil {
		if errors.Is(err, ErrPoolExhausted) {
			log.Printf("[room] INVARIANT BREACH: color pool exhausted in %s", name)
		}
		return nil, err
	}
	m.store.SaveRoom(r)

	m.hub.Subscribe(name, p.ID)
	snap := m.snapshot(r)
	m.hub.Broadcast(name, "update_players", gin.H{"players": snap.Players, "room": snap})
	m.hub.Broadcast(name, "message", systemMessage("%s has entered the room.", p.DisplayName()))
	m.hub.BroadcastAll("rooms_list", m.store.ListRooms())
	return snap, nil
}

// LeaveRoom unseats the requester. An emptied room is destroyed on the spot.
func (m *Manager) LeaveRoom(name, requesterID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, err := m.player(requesterID)
	if err != nil {
		return err
	}
	r, ok := m.store.GetRoom(name)
	if !ok {
		return ErrRoomNotFound
	}
	return m.removeLocked(r, p)
}

// removeLocked applies one membership removal plus its broadcasts. Callers
// hold m.mu.
func (m *Manager) removeLocked(r *Room, p *shared.Player) error {
	username := p.DisplayName()
	if err := r.RemoveMember(p); err != nil {
		if errors.Is(err, ErrColorNotOwned) {
			log.Printf("[room] INVARIANT BREACH: double color release in %s by %s", r.Name, p.ID)
		}
		return err
	}
	m.hub.Unsubscribe(r.Name, p.ID)

	if r.Empty() {
		m.store.DeleteRoom(r.Name)
		log.Printf("[room] %s is empty, destroyed", r.Name)
	} else {
		m.store.SaveRoom(r)
		snap := m.snapshot(r)
		m.hub.Broadcast(r.Name, "message", systemMessage("%s has left the room.", username))
		m.hub.Broadcast(r.Name, "update_players", gin.H{"players": snap.Players, "room": snap})
	}
	m.hub.BroadcastAll("rooms_list", m.store.ListRooms())
	return nil
}

// ListRooms snapshots the lobby browser view.
func (m *Manager) ListRooms() []shared.RoomInfo {
	return m.store.ListRooms()
}

// ListPlayers projects the member list of one room.
func (m *Manager) ListPlayers(name string) ([]shared.PlayerSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.store.GetRoom(name)
	if !ok {
		return nil, ErrRoomNotFound
	}
	return m.summaries(r), nil
}

// SetDisplayName names the requesting connection, enforcing uniqueness among
// connected players. Runs under the manager mutex like every other operation
// touching Player fields.
func (m *Manager) SetDisplayName(requesterID, name, avatar string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions.SetDisplayName(requesterID, name, avatar)
}

// StartGame begins a game: admin only, full room only. The turn order is a
// fresh uniform shuffle of the join order.
func (m *Manager) StartGame(name, requesterID string) (*shared.RoomSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.store.GetRoom(name)
	if !ok {
		return nil, ErrRoomNotFound
	}
	if r.AdminID != requesterID {
		return nil, ErrNotAdmin
	}
	if err := r.StartGame(m.rng); err != nil {
		return nil, err
	}
	m.store.SaveRoom(r)
	log.Printf("[room] game started in %s, turn order %v", name, r.TurnOrder)

	snap := m.snapshot(r)
	m.hub.Broadcast(name, "game_started", gin.H{"room": snap})
	return snap, nil
}

// AdvanceTurn passes the turn to the next holder in order.
func (m *Manager) AdvanceTurn(name string) (*shared.RoomSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.store.GetRoom(name)
	if !ok {
		return nil, ErrRoomNotFound
	}
	if err := r.AdvanceTurn(); err != nil {
		return nil, err
	}
	m.store.SaveRoom(r)

	snap := m.snapshot(r)
	m.hub.Broadcast(name, "turn_advanced", gin.H{"room": snap})
	return snap, nil
}

// EndGame closes an ongoing game, admin only. Players keep their seats and
// colors and may start again.
func (m *Manager) EndGame(name, requesterID string) (*shared.RoomSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.store.GetRoom(name)
	if !ok {
		return nil, ErrRoomNotFound
	}
	if r.AdminID != requesterID {
		return nil, ErrNotAdmin
	}
	if err := r.EndGame(); err != nil {
		return nil, err
	}
	m.store.SaveRoom(r)

	snap := m.snapshot(r)
	m.hub.Broadcast(name, "game_ended", gin.H{"room": snap})
	return snap, nil
}

// RollDie returns a uniform value in [1,6]. Pure; broadcasting the result is
// the caller's business.
func (m *Manager) RollDie() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rng.Intn(6) + 1
}

// RollDice rolls for a seated player and broadcasts the result to its room.
func (m *Manager) RollDice(requesterID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, err := m.player(requesterID)
	if err != nil {
		return 0, err
	}
	if p.CurrentRoom == "" {
		return 0, ErrNotAMember
	}
	roll := m.rng.Intn(6) + 1
	log.Printf("[room] %s rolled a %d in room %s", p.DisplayName(), roll, p.CurrentRoom)
	m.hub.Broadcast(p.CurrentRoom, "dice_roll", gin.H{
		"username":    p.DisplayName(),
		"roll_result": roll,
	})
	return roll, nil
}

// SendMessage relays a chat line from a seated player to its room. No room
// state is touched.
func (m *Manager) SendMessage(requesterID, name, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, err := m.player(requesterID)
	if err != nil {
		return err
	}
	if p.CurrentRoom != name {
		return ErrNotAMember
	}
	m.hub.Broadcast(name, "message", gin.H{
		"user_name": p.DisplayName(),
		"message":   message,
	})
	return nil
}

// Disconnect tears down a departing connection: first the room removal with
// its broadcasts, then the session record. A connection that was never in a
// room just unregisters.
func (m *Manager) Disconnect(requesterID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.sessions.Get(requesterID)
	if !ok {
		return
	}
	if p.CurrentRoom != "" {
		if r, ok := m.store.GetRoom(p.CurrentRoom); ok {
			if err := m.removeLocked(r, p); err != nil && !errors.Is(err, ErrNotAMember) {
				log.Printf("[room] disconnect cleanup for %s failed: %v", requesterID, err)
			}
		}
	}
	m.sessions.Unregister(requesterID)
}

func (m *Manager) summaries(r *Room) []shared.PlayerSummary {
	out := make([]shared.PlayerSummary, 0, len(r.Members))
	for _, id := range r.Members {
		if p, ok := m.sessions.Get(id); ok {
			out = append(out, p.Summary())
		}
	}
	return out
}

// snapshot projects a room into its client-facing view.
func (m *Manager) snapshot(r *Room) *shared.RoomSnapshot {
	snap := &shared.RoomSnapshot{
		RoomID:       r.Name,
		IsOngoing:    r.State == StateOngoing,
		CurrentRound: r.CurrentRound,
		Players:      m.summaries(r),
	}
	if p, ok := m.sessions.Get(r.AdminID); ok {
		s := p.Summary()
		snap.AdminPlayer = &s
	}
	if r.State == StateOngoing {
		if p, ok := m.sessions.Get(r.CurrentTurn); ok {
			s := p.Summary()
			snap.CurrentTurn = &s
		}
	}
	return snap
}

func systemMessage(format string, args ...interface{}) gin.H {
	return gin.H{
		"user_name": "System",
		"message":   fmt.Sprintf(format, args...),
		"is_system": true,
	}
}
