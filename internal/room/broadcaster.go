package room

import "party-dice/internal/shared"

// Broadcaster is the transport capability the core calls into. Subscribe and
// Unsubscribe keep the transport's room membership in step with the core's,
// so a broadcast issued right after a mutation reaches exactly the members
// the mutation left behind.
type Broadcaster interface {
	Subscribe(roomName, playerID string)
	Unsubscribe(roomName, playerID string)
	Broadcast(roomName, action string, data interface{})
	BroadcastAll(action string, data interface{})
}

// Store is the registry storage behind the Manager.
type Store interface {
	GetRoom(name string) (*Room, bool)
	SaveRoom(r *Room)
	DeleteRoom(name string)
	ListRooms() []shared.RoomInfo
}
