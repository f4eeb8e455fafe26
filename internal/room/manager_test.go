package room_test

import (
	"errors"
	"fmt"
	"math/rand"
	"slices"
	"testing"

	"party-dice/internal/room"
	"party-dice/internal/session"
	"party-dice/internal/store"
)

// fakeBroadcaster records what the core pushes at the transport.
type fakeBroadcaster struct {
	subs   map[string][]string
	events []string
}

func newFakeBroadcaster() *fakeBroadcaster {
	return &fakeBroadcaster{subs: map[string][]string{}}
}

func (f *fakeBroadcaster) Subscribe(roomName, playerID string) {
	f.subs[roomName] = append(f.subs[roomName], playerID)
}

func (f *fakeBroadcaster) Unsubscribe(roomName, playerID string) {
	f.subs[roomName] = slices.DeleteFunc(f.subs[roomName], func(id string) bool {
		return id == playerID
	})
}

func (f *fakeBroadcaster) Broadcast(roomName, action string, _ interface{}) {
	f.events = append(f.events, roomName+":"+action)
}

func (f *fakeBroadcaster) BroadcastAll(action string, _ interface{}) {
	f.events = append(f.events, "*:"+action)
}

func (f *fakeBroadcaster) saw(event string) bool {
	return slices.Contains(f.events, event)
}

type fixture struct {
	manager  *room.Manager
	sessions *session.Directory
	hub      *fakeBroadcaster
}

func newFixture(t *testing.T, playerCount int) (*fixture, []string) {
	t.Helper()
	sessions := session.NewDirectory()
	hub := newFakeBroadcaster()
	m := room.NewManager(store.NewMemoryStore(), sessions, room.DefaultColors, rand.New(rand.NewSource(11)))
	m.SetBroadcaster(hub)

	ids := make([]string, playerCount)
	for i := range ids {
		ids[i] = fmt.Sprintf("conn-%d", i+1)
		sessions.Register(ids[i])
		if err := m.SetDisplayName(ids[i], fmt.Sprintf("P%d", i+1), ""); err != nil {
			t.Fatalf("SetDisplayName(%s) error: %v", ids[i], err)
		}
	}
	return &fixture{manager: m, sessions: sessions, hub: hub}, ids
}

func TestCreateRoomNameTaken(t *testing.T) {
	f, ids := newFixture(t, 2)
	if _, err := f.manager.CreateRoom("A", ids[0]); err != nil {
		t.Fatalf("CreateRoom error: %v", err)
	}
	if _, err := f.manager.CreateRoom("A", ids[1]); !errors.Is(err, room.ErrNameTaken) {
		t.Fatalf("duplicate CreateRoom error = %v, want ErrNameTaken", err)
	}
}

func TestJoinRoomNotFound(t *testing.T) {
	f, ids := newFixture(t, 1)
	if _, err := f.manager.JoinRoom("missing", ids[0]); !errors.Is(err, room.ErrRoomNotFound) {
		t.Fatalf("JoinRoom error = %v, want ErrRoomNotFound", err)
	}
}

func TestEndToEndFlow(t *testing.T) {
	f, ids := newFixture(t, 5)

	// P1 creates room A and is seated as admin.
	snap, err := f.manager.CreateRoom("A", ids[0])
	if err != nil {
		t.Fatalf("CreateRoom error: %v", err)
	}
	if snap.AdminPlayer == nil || snap.AdminPlayer.ID != ids[0] {
		t.Fatalf("creator is not admin: %+v", snap.AdminPlayer)
	}

	// P2..P4 join; colors come out in pool order.
	for _, id := range ids[1:4] {
		if snap, err = f.manager.JoinRoom("A", id); err != nil {
			t.Fatalf("JoinRoom(%s) error: %v", id, err)
		}
	}
	wantColors := []string{"red", "blue", "yellow", "green"}
	for i, ps := range snap.Players {
		if ps.Color != wantColors[i] {
			t.Fatalf("player %d color = %q, want %q", i, ps.Color, wantColors[i])
		}
	}

	// Admin starts the game; the turn order is a permutation of all four.
	snap, err = f.manager.StartGame("A", ids[0])
	if err != nil {
		t.Fatalf("StartGame error: %v", err)
	}
	if !snap.IsOngoing || snap.CurrentRound != 1 || snap.CurrentTurn == nil {
		t.Fatalf("snapshot after start: %+v", snap)
	}
	if !f.hub.saw("A:game_started") {
		t.Fatalf("game_started not broadcast, events: %v", f.hub.events)
	}

	// Four advances bring the turn back to the first holder.
	first := snap.CurrentTurn.ID
	for i := 0; i < 4; i++ {
		if snap, err = f.manager.AdvanceTurn("A"); err != nil {
			t.Fatalf("AdvanceTurn #%d error: %v", i, err)
		}
	}
	if snap.CurrentTurn.ID != first {
		t.Fatalf("turn after full lap = %q, want %q", snap.CurrentTurn.ID, first)
	}

	// Admin leaves: admin role passes to the earliest remaining joiner and
	// the freed color is handed to the next player to join.
	if err := f.manager.LeaveRoom("A", ids[0]); err != nil {
		t.Fatalf("LeaveRoom error: %v", err)
	}
	players, err := f.manager.ListPlayers("A")
	if err != nil {
		t.Fatalf("ListPlayers error: %v", err)
	}
	if players[0].ID != ids[1] {
		t.Fatalf("admin successor = %q, want %q", players[0].ID, ids[1])
	}

	snap, err = f.manager.JoinRoom("A", ids[4])
	if err != nil {
		t.Fatalf("JoinRoom(P5) error: %v", err)
	}
	if snap.AdminPlayer == nil || snap.AdminPlayer.ID != ids[1] {
		t.Fatalf("admin after succession = %+v, want %q", snap.AdminPlayer, ids[1])
	}
	p5, _ := f.sessions.Get(ids[4])
	if p5.Color != "red" {
		t.Fatalf("P5 color = %q, want released %q", p5.Color, "red")
	}
}

func TestStartGameRejections(t *testing.T) {
	f, ids := newFixture(t, 4)
	if _, err := f.manager.CreateRoom("A", ids[0]); err != nil {
		t.Fatalf("CreateRoom error: %v", err)
	}
	for _, id := range ids[1:3] {
		if _, err := f.manager.JoinRoom("A", id); err != nil {
			t.Fatalf("JoinRoom error: %v", err)
		}
	}

	// Only three seated: not enough, and state stays put.
	if _, err := f.manager.StartGame("A", ids[0]); !errors.Is(err, room.ErrNotEnoughPlayers) {
		t.Fatalf("StartGame error = %v, want ErrNotEnoughPlayers", err)
	}

	if _, err := f.manager.JoinRoom("A", ids[3]); err != nil {
		t.Fatalf("JoinRoom error: %v", err)
	}

	// A full room is still not startable by a non-admin.
	if _, err := f.manager.StartGame("A", ids[2]); !errors.Is(err, room.ErrNotAdmin) {
		t.Fatalf("non-admin StartGame error = %v, want ErrNotAdmin", err)
	}
	players, err := f.manager.ListPlayers("A")
	if err != nil {
		t.Fatalf("ListPlayers error: %v", err)
	}
	if len(players) != 4 {
		t.Fatalf("players = %d after rejected starts, want 4", len(players))
	}
	if f.hub.saw("A:game_started") {
		t.Fatalf("game_started broadcast despite rejections")
	}

	if _, err := f.manager.StartGame("A", ids[0]); err != nil {
		t.Fatalf("admin StartGame error: %v", err)
	}
	if _, err := f.manager.StartGame("A", ids[0]); !errors.Is(err, room.ErrAlreadyOngoing) {
		t.Fatalf("repeat StartGame error = %v, want ErrAlreadyOngoing", err)
	}
}

func TestLeaveRoomIdempotence(t *testing.T) {
	f, ids := newFixture(t, 2)
	if _, err := f.manager.CreateRoom("A", ids[0]); err != nil {
		t.Fatalf("CreateRoom error: %v", err)
	}
	if _, err := f.manager.JoinRoom("A", ids[1]); err != nil {
		t.Fatalf("JoinRoom error: %v", err)
	}

	if err := f.manager.LeaveRoom("A", ids[0]); err != nil {
		t.Fatalf("first LeaveRoom error: %v", err)
	}
	if err := f.manager.LeaveRoom("A", ids[0]); !errors.Is(err, room.ErrNotAMember) {
		t.Fatalf("second LeaveRoom error = %v, want ErrNotAMember", err)
	}

	players, err := f.manager.ListPlayers("A")
	if err != nil {
		t.Fatalf("ListPlayers error: %v", err)
	}
	if len(players) != 1 || players[0].ID != ids[1] || players[0].Color != "blue" {
		t.Fatalf("remaining player disturbed: %+v", players)
	}
}

func TestEmptyRoomIsDestroyed(t *testing.T) {
	f, ids := newFixture(t, 1)
	if _, err := f.manager.CreateRoom("A", ids[0]); err != nil {
		t.Fatalf("CreateRoom error: %v", err)
	}
	if err := f.manager.LeaveRoom("A", ids[0]); err != nil {
		t.Fatalf("LeaveRoom error: %v", err)
	}
	if got := f.manager.ListRooms(); len(got) != 0 {
		t.Fatalf("rooms after last leave = %v, want none", got)
	}
	if _, err := f.manager.JoinRoom("A", ids[0]); !errors.Is(err, room.ErrRoomNotFound) {
		t.Fatalf("JoinRoom destroyed room error = %v, want ErrRoomNotFound", err)
	}
}

func TestDisconnectCleansUp(t *testing.T) {
	f, ids := newFixture(t, 2)
	if _, err := f.manager.CreateRoom("A", ids[0]); err != nil {
		t.Fatalf("CreateRoom error: %v", err)
	}
	if _, err := f.manager.JoinRoom("A", ids[1]); err != nil {
		t.Fatalf("JoinRoom error: %v", err)
	}

	f.manager.Disconnect(ids[0])

	if _, ok := f.sessions.Get(ids[0]); ok {
		t.Fatalf("player still registered after disconnect")
	}
	players, err := f.manager.ListPlayers("A")
	if err != nil {
		t.Fatalf("ListPlayers error: %v", err)
	}
	if len(players) != 1 || players[0].ID != ids[1] {
		t.Fatalf("room members after disconnect: %+v", players)
	}
	if len(f.hub.subs["A"]) != 1 {
		t.Fatalf("hub subscriptions after disconnect: %v", f.hub.subs["A"])
	}

	// A connection that was never in a room unregisters without fuss.
	f.manager.Disconnect(ids[1] + "-never-registered")
	f.manager.Disconnect(ids[1])
	if got := f.manager.ListRooms(); len(got) != 0 {
		t.Fatalf("rooms after all disconnects = %v, want none", got)
	}
}

func TestUnnamedPlayerSummaryPlaceholder(t *testing.T) {
	sessions := session.NewDirectory()
	hub := newFakeBroadcaster()
	m := room.NewManager(store.NewMemoryStore(), sessions, room.DefaultColors, rand.New(rand.NewSource(2)))
	m.SetBroadcaster(hub)
	sessions.Register("anon")

	snap, err := m.CreateRoom("A", "anon")
	if err != nil {
		t.Fatalf("CreateRoom error: %v", err)
	}
	if snap.Players[0].Username != "Unknown Player" {
		t.Fatalf("unnamed player shown as %q, want placeholder", snap.Players[0].Username)
	}
}

func TestRollDieRange(t *testing.T) {
	f, _ := newFixture(t, 0)
	seen := map[int]bool{}
	for i := 0; i < 1000; i++ {
		v := f.manager.RollDie()
		if v < 1 || v > 6 {
			t.Fatalf("RollDie() = %d, out of [1,6]", v)
		}
		seen[v] = true
	}
	if len(seen) != 6 {
		t.Fatalf("1000 rolls produced only faces %v", seen)
	}
}

func TestSingleSeatAtATime(t *testing.T) {
	f, ids := newFixture(t, 2)
	if _, err := f.manager.CreateRoom("A", ids[0]); err != nil {
		t.Fatalf("CreateRoom error: %v", err)
	}
	if _, err := f.manager.CreateRoom("B", ids[1]); err != nil {
		t.Fatalf("CreateRoom error: %v", err)
	}

	if _, err := f.manager.JoinRoom("B", ids[0]); !errors.Is(err, room.ErrAlreadyMember) {
		t.Fatalf("cross-room join error = %v, want ErrAlreadyMember", err)
	}
	if _, err := f.manager.CreateRoom("C", ids[0]); !errors.Is(err, room.ErrAlreadyMember) {
		t.Fatalf("create while seated error = %v, want ErrAlreadyMember", err)
	}

	p, _ := f.sessions.Get(ids[0])
	if p.CurrentRoom != "A" || p.Color != "red" {
		t.Fatalf("seated player disturbed: room=%q color=%q", p.CurrentRoom, p.Color)
	}
}

func TestAdvanceTurnAfterStartersLeave(t *testing.T) {
	f, ids := newFixture(t, 5)
	if _, err := f.manager.CreateRoom("A", ids[0]); err != nil {
		t.Fatalf("CreateRoom error: %v", err)
	}
	for _, id := range ids[1:4] {
		if _, err := f.manager.JoinRoom("A", id); err != nil {
			t.Fatalf("JoinRoom(%s) error: %v", id, err)
		}
	}
	if _, err := f.manager.StartGame("A", ids[0]); err != nil {
		t.Fatalf("StartGame error: %v", err)
	}

	// Every starter leaves while a latecomer keeps the room alive.
	if err := f.manager.LeaveRoom("A", ids[0]); err != nil {
		t.Fatalf("LeaveRoom(%s) error: %v", ids[0], err)
	}
	if _, err := f.manager.JoinRoom("A", ids[4]); err != nil {
		t.Fatalf("JoinRoom(%s) error: %v", ids[4], err)
	}
	for _, id := range ids[1:4] {
		if err := f.manager.LeaveRoom("A", id); err != nil {
			t.Fatalf("LeaveRoom(%s) error: %v", id, err)
		}
	}

	if _, err := f.manager.AdvanceTurn("A"); !errors.Is(err, room.ErrNotOngoing) {
		t.Fatalf("AdvanceTurn with drained order error = %v, want ErrNotOngoing", err)
	}
	players, err := f.manager.ListPlayers("A")
	if err != nil {
		t.Fatalf("ListPlayers error: %v", err)
	}
	if len(players) != 1 || players[0].ID != ids[4] {
		t.Fatalf("room members = %+v, want only %s", players, ids[4])
	}
}

func TestRollDiceBroadcastsToRoom(t *testing.T) {
	f, ids := newFixture(t, 2)
	if _, err := f.manager.CreateRoom("A", ids[0]); err != nil {
		t.Fatalf("CreateRoom error: %v", err)
	}

	roll, err := f.manager.RollDice(ids[0])
	if err != nil {
		t.Fatalf("RollDice error: %v", err)
	}
	if roll < 1 || roll > 6 {
		t.Fatalf("RollDice() = %d, out of [1,6]", roll)
	}
	if !f.hub.saw("A:dice_roll") {
		t.Fatalf("dice_roll not broadcast, events: %v", f.hub.events)
	}

	// A player outside any room has no one to roll for.
	if _, err := f.manager.RollDice(ids[1]); !errors.Is(err, room.ErrNotAMember) {
		t.Fatalf("unseated RollDice error = %v, want ErrNotAMember", err)
	}
}

func TestSendMessageRelay(t *testing.T) {
	f, ids := newFixture(t, 2)
	if _, err := f.manager.CreateRoom("A", ids[0]); err != nil {
		t.Fatalf("CreateRoom error: %v", err)
	}

	if err := f.manager.SendMessage(ids[0], "A", "hello"); err != nil {
		t.Fatalf("SendMessage error: %v", err)
	}
	if !f.hub.saw("A:message") {
		t.Fatalf("message not broadcast, events: %v", f.hub.events)
	}

	if err := f.manager.SendMessage(ids[1], "A", "intruding"); !errors.Is(err, room.ErrNotAMember) {
		t.Fatalf("outsider SendMessage error = %v, want ErrNotAMember", err)
	}
}

func TestSummaryCarriesAvatar(t *testing.T) {
	f, ids := newFixture(t, 1)
	if err := f.manager.SetDisplayName(ids[0], "P1", "wizard"); err != nil {
		t.Fatalf("SetDisplayName error: %v", err)
	}
	snap, err := f.manager.CreateRoom("A", ids[0])
	if err != nil {
		t.Fatalf("CreateRoom error: %v", err)
	}
	if snap.Players[0].Avatar != "wizard" {
		t.Fatalf("summary avatar = %q, want %q", snap.Players[0].Avatar, "wizard")
	}
}
