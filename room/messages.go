package room

import (
	"lanerush/game"
	"lanerush/protocol"
)

// Conn is the room's view of one participant's connection. Send must not
// block; a full or closed connection reports an error instead.
type Conn interface {
	ID() string
	Send([]byte) error
	Codec() protocol.Codec
	Close() error
}

// Join: a participant asking to enter a waiting room
type Join struct {
	Conn  Conn
	Name  string
	Reply chan<- JoinResult
}

type JoinResult struct {
	Index int
	Err   error
}

// Start: begin the match; Reply (optional) reports whether this call started it
type Start struct {
	Reply chan<- bool
}

// Input: a lane change from a participant
type Input struct {
	ConnID string
	Action game.Action
}

// Leave: issued on leaveRoom or disconnect
type Leave struct {
	ConnID string
	Reply  chan<- LeaveResult
}

type LeaveResult struct {
	Found     bool
	Remaining int
}
