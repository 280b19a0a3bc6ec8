package protocol

type PlayerInfo struct {
	Name  string `json:"name"`
	ID    string `json:"id"`
	Index int    `json:"index"`
}

type RoomJoined struct {
	RoomID      string       `json:"roomId"`
	Players     []PlayerInfo `json:"players"`
	PlayerIndex int          `json:"playerIndex"`
}

type PlayerLeft struct {
	PlayerID string `json:"playerId"`
}

type GameStarted struct{}

type RoomNotFound struct{}

type GameState struct {
	Tick       int                `json:"tick"`
	Players    []PlayerSnapshot   `json:"players"`
	Obstacles  []ObstacleSnapshot `json:"obstacles"`
	Coins      []CoinSnapshot     `json:"coins"`
	PowerUps   []PowerUpSnapshot  `json:"powerups"`
	RoadOffset float64            `json:"roadOffset"`
	GameState  string             `json:"gameState"`
}

type Viewport struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

type PlayerSnapshot struct {
	ID              int      `json:"id"`
	Name            string   `json:"name"`
	Lane            int      `json:"lane"`
	X               float64  `json:"x"`
	Y               float64  `json:"y"`
	W               float64  `json:"w"`
	H               float64  `json:"h"`
	Rotation        float64  `json:"rotation"`
	Score           int      `json:"score"`
	Combo           int      `json:"combo"`
	ComboTimer      float64  `json:"comboTimer"`
	ShieldTimer     float64  `json:"shieldTimer"`
	MagnetTimer     float64  `json:"magnetTimer"`
	InvincibleTimer float64  `json:"invincibleTimer"`
	RespawnTimer    *float64 `json:"respawnTimer"` // null: no automatic respawn
	IsAlive         bool     `json:"isAlive"`
	Abandoned       bool     `json:"abandoned,omitempty"`
	Viewport        Viewport `json:"viewport"`
}

type ObstacleSnapshot struct {
	ID   uint64  `json:"id"`
	Lane int     `json:"lane"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	W    float64 `json:"w"`
	H    float64 `json:"h"`
	Type string  `json:"type"`
}

type CoinSnapshot struct {
	ID   uint64  `json:"id"`
	Lane int     `json:"lane"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Size float64 `json:"size"`
}

type PowerUpSnapshot struct {
	ID   uint64  `json:"id"`
	Lane int     `json:"lane"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Size float64 `json:"size"`
	Type string  `json:"type"`
}
