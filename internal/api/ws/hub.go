package ws

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"party-dice/internal/room"
	"party-dice/internal/session"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins
	},
}

// client is one websocket connection. Writes are serialized because
// broadcasts and direct replies come from different goroutines.
type client struct {
	id   string
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) send(action string, data interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.conn.WriteJSON(map[string]interface{}{"action": action, "data": data}); err != nil {
		log.Printf("[ws] write to %s failed: %v", c.id, err)
	}
}

// Hub is the transport and event router: it upgrades connections, assigns
// each one an identity, translates inbound {action,data} envelopes into core
// operations, and fans core broadcasts out to room subscribers.
type Hub struct {
	mu       sync.RWMutex
	conns    map[string]*client
	rooms    map[string]map[string]*client
	core     *room.Manager
	sessions *session.Directory
}

func NewHub(core *room.Manager, sessions *session.Directory) *Hub {
	return &Hub{
		conns:    make(map[string]*client),
		rooms:    make(map[string]map[string]*client),
		core:     core,
		sessions: sessions,
	}
}

// Subscribe adds a connection to a room's broadcast set. Called by the core
// under its own lock, right after the membership mutation.
func (h *Hub) Subscribe(roomName, playerID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	cl, ok := h.conns[playerID]
	if !ok {
		return
	}
	if _, ok := h.rooms[roomName]; !ok {
		h.rooms[roomName] = make(map[string]*client)
	}
	h.rooms[roomName][playerID] = cl
}

// Unsubscribe removes a connection from a room's broadcast set.
func (h *Hub) Unsubscribe(roomName, playerID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.rooms[roomName], playerID)
	if len(h.rooms[roomName]) == 0 {
		delete(h.rooms, roomName)
	}
}

// Broadcast sends an event to every subscriber of a room.
func (h *Hub) Broadcast(roomName, action string, data interface{}) {
	h.mu.RLock()
	clients := make([]*client, 0, len(h.rooms[roomName]))
	for _, cl := range h.rooms[roomName] {
		clients = append(clients, cl)
	}
	h.mu.RUnlock()
	for _, cl := range clients {
		cl.send(action, data)
	}
}

// BroadcastAll sends an event to every connected client, subscribed to a
// room or not. Used for lobby-browser pushes.
func (h *Hub) BroadcastAll(action string, data interface{}) {
	h.mu.RLock()
	clients := make([]*client, 0, len(h.conns))
	for _, cl := range h.conns {
		clients = append(clients, cl)
	}
	h.mu.RUnlock()
	for _, cl := range clients {
		cl.send(action, data)
	}
}

type envelope struct {
	Action string          `json:"action"`
	Data   json.RawMessage `json:"data"`
}

// HandleWS is the connection entry point: upgrade, register a fresh player
// identity, then dispatch inbound events until the connection drops.
func (h *Hub) HandleWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[ws] upgrade failed: %v", err)
		return
	}

	id := uuid.NewString()
	cl := &client{id: id, conn: conn}
	h.sessions.Register(id)

	h.mu.Lock()
	h.conns[id] = cl
	h.mu.Unlock()

	log.Printf("[ws] connected: %s", id)
	cl.send("welcome", gin.H{"id": id})
	cl.send("rooms_list", h.core.ListRooms())

	defer func() {
		// Room removal first, then the session record; the removal needs
		// the player's room reference.
		h.core.Disconnect(id)
		h.mu.Lock()
		delete(h.conns, id)
		h.mu.Unlock()
		_ = conn.Close()
		log.Printf("[ws] disconnected: %s", id)
	}()

	for {
		var msg envelope
		if err := conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("[ws] read from %s failed: %v", id, err)
			}
			return
		}
		h.dispatch(cl, msg)
	}
}

func (h *Hub) dispatch(cl *client, msg envelope) {
	switch msg.Action {
	case "set_username":
		h.handleSetUsername(cl, msg.Data)
	case "get_rooms":
		cl.send("rooms_list", h.core.ListRooms())
	case "get_players":
		h.handleGetPlayers(cl, msg.Data)
	case "create_room":
		h.handleCreateRoom(cl, msg.Data)
	case "join_room":
		h.handleJoinRoom(cl, msg.Data)
	case "leave_room":
		h.handleLeaveRoom(cl, msg.Data)
	case "start_game":
		h.handleStartGame(cl, msg.Data)
	case "advance_turn":
		h.handleAdvanceTurn(cl, msg.Data)
	case "end_game":
		h.handleEndGame(cl, msg.Data)
	case "roll_dice":
		h.handleRollDice(cl)
	case "send_message":
		h.handleSendMessage(cl, msg.Data)
	default:
		log.Printf("[ws] unknown action %q from %s", msg.Action, cl.id)
		cl.send("error", gin.H{"message": "unknown action"})
	}
}

// roomRef is the payload shape of every room-addressed action.
type roomRef struct {
	Room string `json:"room"`
}

func decode(raw json.RawMessage, v interface{}) bool {
	return json.Unmarshal(raw, v) == nil
}

func (h *Hub) handleSetUsername(cl *client, raw json.RawMessage) {
	var req struct {
		Username string `json:"username"`
		Avatar   string `json:"avatar"`
	}
	if !decode(raw, &req) || req.Username == "" {
		cl.send("username_set", gin.H{"success": false, "message": "username required"})
		return
	}
	if err := h.core.SetDisplayName(cl.id, req.Username, req.Avatar); err != nil {
		cl.send("username_set", gin.H{"success": false, "message": err.Error()})
		return
	}
	log.Printf("[ws] %s is now %q", cl.id, req.Username)
	cl.send("username_set", gin.H{"success": true, "message": "username set"})
}

func (h *Hub) handleGetPlayers(cl *client, raw json.RawMessage) {
	var req roomRef
	if !decode(raw, &req) {
		cl.send("error", gin.H{"message": "invalid payload"})
		return
	}
	players, err := h.core.ListPlayers(req.Room)
	if err != nil {
		cl.send("error", gin.H{"message": err.Error()})
		return
	}
	cl.send("players_list", gin.H{"room": req.Room, "players": players})
}

func (h *Hub) handleCreateRoom(cl *client, raw json.RawMessage) {
	var req roomRef
	if !decode(raw, &req) || req.Room == "" {
		cl.send("error", gin.H{"message": "room name required"})
		return
	}
	snap, err := h.core.CreateRoom(req.Room, cl.id)
	if err != nil {
		if errors.Is(err, room.ErrNameTaken) {
			cl.send("room_exists", gin.H{"message": err.Error()})
		} else {
			cl.send("error", gin.H{"message": err.Error()})
		}
		return
	}
	cl.send("room_created", gin.H{"room": snap})
	cl.send("room_joined", gin.H{"room": snap})
}

func (h *Hub) handleJoinRoom(cl *client, raw json.RawMessage) {
	var req roomRef
	if !decode(raw, &req) || req.Room == "" {
		cl.send("error", gin.H{"message": "room name required"})
		return
	}
	snap, err := h.core.JoinRoom(req.Room, cl.id)
	if err != nil {
		if errors.Is(err, room.ErrRoomFull) {
			cl.send("room_full", gin.H{"message": err.Error()})
		} else {
			cl.send("error", gin.H{"message": err.Error()})
		}
		return
	}
	cl.send("room_joined", gin.H{"room": snap})
}

func (h *Hub) handleLeaveRoom(cl *client, raw json.RawMessage) {
	var req roomRef
	if !decode(raw, &req) || req.Room == "" {
		cl.send("error", gin.H{"message": "room name required"})
		return
	}
	if err := h.core.LeaveRoom(req.Room, cl.id); err != nil {
		cl.send("error", gin.H{"message": err.Error()})
		return
	}
	cl.send("left_room", gin.H{"room": req.Room})
}

func (h *Hub) handleStartGame(cl *client, raw json.RawMessage) {
	var req roomRef
	if !decode(raw, &req) || req.Room == "" {
		cl.send("error", gin.H{"message": "room name required"})
		return
	}
	if _, err := h.core.StartGame(req.Room, cl.id); err != nil {
		cl.send("error", gin.H{"message": err.Error()})
	}
}

func (h *Hub) handleAdvanceTurn(cl *client, raw json.RawMessage) {
	var req roomRef
	if !decode(raw, &req) || req.Room == "" {
		cl.send("error", gin.H{"message": "room name required"})
		return
	}
	if _, err := h.core.AdvanceTurn(req.Room); err != nil {
		cl.send("error", gin.H{"message": err.Error()})
	}
}

func (h *Hub) handleEndGame(cl *client, raw json.RawMessage) {
	var req roomRef
	if !decode(raw, &req) || req.Room == "" {
		cl.send("error", gin.H{"message": "room name required"})
		return
	}
	if _, err := h.core.EndGame(req.Room, cl.id); err != nil {
		cl.send("error", gin.H{"message": err.Error()})
	}
}

func (h *Hub) handleRollDice(cl *client) {
	roll, err := h.core.RollDice(cl.id)
	if err != nil {
		cl.send("error", gin.H{"message": err.Error()})
		return
	}
	cl.send("dice_result", gin.H{"success": true, "roll_result": roll})
}

func (h *Hub) handleSendMessage(cl *client, raw json.RawMessage) {
	var req struct {
		Room    string `json:"room"`
		Message string `json:"message"`
	}
	if !decode(raw, &req) || req.Room == "" {
		cl.send("error", gin.H{"message": "invalid payload"})
		return
	}
	if err := h.core.SendMessage(cl.id, req.Room, req.Message); err != nil {
		cl.send("error", gin.H{"message": err.Error()})
	}
}
