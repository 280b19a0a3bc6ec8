package protocol

//input structs coming in from the client.

type CreateRoom struct {
	PlayerName string `json:"playerName"`
}

type JoinRoom struct {
	RoomID     string `json:"roomId"`
	PlayerName string `json:"playerName"`
}

type StartGame struct {
	RoomID string `json:"roomId"`
}

type PlayerInput struct {
	Action string `json:"action"` // "left" | "right"
}

type LeaveRoom struct{}
