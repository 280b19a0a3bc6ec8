package game

import (
	"errors"
	"math"
	"math/rand/v2"
)

// Internal truth authoritative game state

type Phase uint8

const (
	PhaseWaiting Phase = iota
	PhasePlaying
	PhaseEnded
)

func (p Phase) String() string {
	switch p {
	case PhaseWaiting:
		return "waiting"
	case PhasePlaying:
		return "playing"
	case PhaseEnded:
		return "ended"
	}
	return "unknown"
}

var ErrNoPlayers = errors.New("game: match needs at least one player")

// Entrant is a participant admitted into a match when it is built.
type Entrant struct {
	Index int
	Name  string
}

// Match is one room's simulation. It is not safe for concurrent use; the
// owning room serializes every call.
type Match struct {
	cfg     Config
	rng     *rand.Rand
	spawner *Spawner
	phase   Phase

	Tick       int
	Clock      float64
	FallSpeed  float64
	RoadOffset float64

	Players   []*Player
	Obstacles []*Obstacle
	Coins     []*Coin
	PowerUps  []*PowerUp

	laneWidth float64
	nextID    uint64
}

// NewMatch builds a waiting match whose player set is fixed to entrants.
// Each player gets its own viewport slice, left to right in entrant order.
func NewMatch(cfg Config, entrants []Entrant, rng *rand.Rand) (*Match, error) {
	if len(entrants) == 0 {
		return nil, ErrNoPlayers
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	n := float64(len(entrants))
	viewW := (cfg.FieldWidth - cfg.ViewportGap*(n-1)) / n
	m := &Match{
		cfg:       cfg,
		rng:       rng,
		spawner:   NewSpawner(rng, DefaultPatterns()),
		phase:     PhaseWaiting,
		FallSpeed: cfg.InitialFallSpeed,
		laneWidth: viewW / LaneCount,
		Players:   make([]*Player, 0, len(entrants)),
	}
	for slot, e := range entrants {
		vp := Rect{X: float64(slot) * (viewW + cfg.ViewportGap), Y: 0, W: viewW, H: cfg.GroundY}
		m.Players = append(m.Players, newPlayer(e.Index, e.Name, m.laneWidth, cfg.GroundY, vp))
	}
	return m, nil
}

func (m *Match) Phase() Phase       { return m.phase }
func (m *Match) Config() Config     { return m.cfg }
func (m *Match) LaneWidth() float64 { return m.laneWidth }

// Start moves waiting to playing and lays out the first batch of rows.
// It reports false if the match had already started.
func (m *Match) Start() bool {
	if m.phase != PhaseWaiting {
		return false
	}
	m.phase = PhasePlaying
	m.spawner.SpawnRow(m)
	return true
}

func (m *Match) Player(index int) *Player {
	for _, p := range m.Players {
		if p.Index == index {
			return p
		}
	}
	return nil
}

// ApplyInput moves the player's target lane. Inputs for unknown or dead
// players, or outside the playing phase, are dropped.
func (m *Match) ApplyInput(index int, a Action) bool {
	if m.phase != PhasePlaying {
		return false
	}
	p := m.Player(index)
	if p == nil || !p.Alive {
		return false
	}
	switch a {
	case ActionLeft:
		return p.moveLeft(m.Clock, m.cfg.LaneChangeKick)
	case ActionRight:
		return p.moveRight(m.Clock, m.cfg.LaneChangeKick)
	}
	return false
}

// Abandon flags the player whose participant left. The player stays in the
// simulation.
func (m *Match) Abandon(index int) {
	if p := m.Player(index); p != nil {
		p.Abandoned = true
	}
}

func (m *Match) AnyAlive() bool {
	for _, p := range m.Players {
		if p.Alive {
			return true
		}
	}
	return false
}

func (m *Match) othersAlive(self *Player) bool {
	for _, p := range m.Players {
		if p != self && p.Alive {
			return true
		}
	}
	return false
}

func (m *Match) end() {
	m.phase = PhaseEnded
}

func (m *Match) newID() uint64 {
	m.nextID++
	return m.nextID
}

func (m *Match) addObstacle(lane int, y, w, h float64, kind ObstacleKind) {
	m.Obstacles = append(m.Obstacles, &Obstacle{ID: m.newID(), Lane: lane, Y: y, W: w, H: h, Kind: kind})
}

func (m *Match) addCoin(lane int, y float64) {
	size := m.cfg.CoinSize
	m.Coins = append(m.Coins, &Coin{
		ID:       m.newID(),
		Lane:     lane,
		X:        float64(lane)*m.laneWidth + (m.laneWidth-size)/2,
		Y:        y,
		BaseY:    y,
		Size:     size,
		BobPhase: m.rng.Float64() * 2 * math.Pi,
	})
}

func (m *Match) addPowerUp(lane int, y float64, kind PowerUpKind) {
	m.PowerUps = append(m.PowerUps, &PowerUp{
		ID:       m.newID(),
		Lane:     lane,
		Y:        y,
		BaseY:    y,
		Size:     m.cfg.PowerUpSize,
		BobPhase: m.rng.Float64() * 2 * math.Pi,
		Kind:     kind,
	})
}
