package room

import "errors"

// Request-level errors, surfaced to the requester only. Every operation is
// all-or-nothing: when one of these comes back, no state has changed.
var (
	ErrNameTaken        = errors.New("room already exists")
	ErrRoomNotFound     = errors.New("room not found")
	ErrRoomFull         = errors.New("room is full")
	ErrAlreadyMember    = errors.New("player already in the room")
	ErrNotAMember       = errors.New("player not in the room")
	ErrNotAdmin         = errors.New("only the room admin may do that")
	ErrNotEnoughPlayers = errors.New("room is not full yet")
	ErrAlreadyOngoing   = errors.New("game already ongoing")
	ErrNotOngoing       = errors.New("no game ongoing")
)

// Invariant breaches. These never fire with a correct caller; treat them as
// defects to log loudly, not as normal flow.
var (
	ErrPoolExhausted = errors.New("color pool exhausted")
	ErrColorNotOwned = errors.New("color not owned by the pool")
)
