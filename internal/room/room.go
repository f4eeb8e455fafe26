package room

import (
	"math/rand"
	"slices"
	"time"

	"party-dice/internal/shared"
)

// State is the game lifecycle phase of a room.
type State string

const (
	StateLobby   State = "lobby"
	StateOngoing State = "ongoing"
	StateEnded   State = "ended"
)

// Room is a named, capacity-bounded game session. Members are listed in join
// order; the first entry of the join order is always the admin. The turn
// order only exists while a game is ongoing.
type Room struct {
	Name         string    `json:"name"`
	Members      []string  `json:"members"`
	AdminID      string    `json:"admin_id"`
	State        State     `json:"state"`
	CurrentRound int       `json:"current_round"`
	TurnOrder    []string  `json:"turn_order"`
	CurrentTurn  string    `json:"current_turn"`
	CreatedAt    time.Time `json:"created_at"`

	colors *ColorPool
}

// New creates an empty lobby-state room. Capacity equals len(colors).
func New(name string, colors []string) *Room {
	return &Room{
		Name:      name,
		State:     StateLobby,
		CreatedAt: time.Now(),
		colors:    NewColorPool(colors),
	}
}

// Capacity is the fixed seat count, one per pool color.
func (r *Room) Capacity() int {
	return len(r.colors.all)
}

func (r *Room) HasMember(id string) bool {
	return slices.Contains(r.Members, id)
}

func (r *Room) Empty() bool {
	return len(r.Members) == 0
}

// AddMember seats a player: appends to the join order, assigns the next pool
// color, resets the player's stats, and makes the first joiner admin. The
// color is taken before any state is touched so a failure leaves the room
// exactly as it was.
func (r *Room) AddMember(p *shared.Player) error {
	if len(r.Members) >= r.Capacity() {
		return ErrRoomFull
	}
	if r.HasMember(p.ID) {
		return ErrAlreadyMember
	}
	color, err := r.colors.Take()
	if err != nil {
		return err
	}
	if len(r.Members) == 0 {
		r.AdminID = p.ID
	}
	r.Members = append(r.Members, p.ID)
	p.Color = color
	p.CurrentRoom = r.Name
	p.ResetStats()
	return nil
}

// RemoveMember unseats a player: releases its color, clears its room
// reference and stats, and hands the admin role to the earliest-joined
// remaining member. During an ongoing game the player also drops out of the
// turn order; if it held the current turn, the turn passes to its successor
// in the reduced order.
func (r *Room) RemoveMember(p *shared.Player) error {
	idx := slices.Index(r.Members, p.ID)
	if idx < 0 {
		return ErrNotAMember
	}
	r.Members = slices.Delete(r.Members, idx, idx+1)

	if p.Color != "" {
		if err := r.colors.Release(p.Color); err != nil {
			return err
		}
	}
	p.Color = ""
	p.CurrentRoom = ""
	p.ResetStats()

	if r.State == StateOngoing {
		r.dropFromTurnOrder(p.ID)
	}

	if len(r.Members) == 0 {
		r.AdminID = ""
	} else if r.AdminID == p.ID {
		r.AdminID = r.Members[0]
	}
	return nil
}

func (r *Room) dropFromTurnOrder(id string) {
	pos := slices.Index(r.TurnOrder, id)
	if pos < 0 {
		return
	}
	heldTurn := r.CurrentTurn == id
	r.TurnOrder = slices.Delete(r.TurnOrder, pos, pos+1)
	if len(r.TurnOrder) == 0 {
		r.CurrentTurn = ""
		return
	}
	if heldTurn {
		r.CurrentTurn = r.TurnOrder[pos%len(r.TurnOrder)]
	}
}

// StartGame begins a round with a full room: every seat taken, requested by
// the admin. The turn order is a uniform Fisher-Yates shuffle of the join
// order, so every permutation is equally likely.
func (r *Room) StartGame(rng *rand.Rand) error {
	if r.State == StateOngoing {
		return ErrAlreadyOngoing
	}
	if len(r.Members) != r.Capacity() {
		return ErrNotEnoughPlayers
	}
	order := slices.Clone(r.Members)
	rng.Shuffle(len(order), func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})
	r.State = StateOngoing
	r.CurrentRound = 1
	r.TurnOrder = order
	r.CurrentTurn = order[0]
	return nil
}

// AdvanceTurn hands the turn to the next player in order, wrapping around.
// The order can drain to empty while the room stays alive: every game-start
// member may leave while later joiners hold the freed seats.
func (r *Room) AdvanceTurn() error {
	if r.State != StateOngoing || len(r.TurnOrder) == 0 {
		return ErrNotOngoing
	}
	pos := slices.Index(r.TurnOrder, r.CurrentTurn)
	r.CurrentTurn = r.TurnOrder[(pos+1)%len(r.TurnOrder)]
	return nil
}

// EndGame closes the round. Membership, colors and the admin stay put; the
// room is back to its pre-game idle state and can be started again.
func (r *Room) EndGame() error {
	if r.State != StateOngoing {
		return ErrNotOngoing
	}
	r.State = StateEnded
	r.CurrentRound = 0
	r.TurnOrder = nil
	r.CurrentTurn = ""
	return nil
}
