package protocol

import (
	"encoding/json"
)

// Client to server.
const (
	MsgCreateRoom  = "createRoom"
	MsgJoinRoom    = "joinRoom"
	MsgStartGame   = "startGame"
	MsgPlayerInput = "playerInput"
	MsgLeaveRoom   = "leaveRoom"
)

// Server to client.
const (
	MsgRoomJoined   = "roomJoined"
	MsgPlayerJoined = "playerJoined"
	MsgPlayerLeft   = "playerLeft"
	MsgGameStarted  = "gameStarted"
	MsgRoomNotFound = "roomNotFound"
	MsgGameState    = "gameState"
)

// SimTickHz is the simulation rate; gameState is emitted once per tick.
const SimTickHz = 60

// Values of GameState.GameState.
const (
	StatePlaying  = "playing"
	StateGameOver = "gameover"
)

type Envelope struct {
	T string          `json:"t"`
	P json.RawMessage `json:"p"` // raw payload bytes
}
