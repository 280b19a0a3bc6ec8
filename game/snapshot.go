package game

// Snapshot is a detached copy of a match at one tick.
type Snapshot struct {
	Tick       int
	Phase      Phase
	RoadOffset float64
	FallSpeed  float64
	LaneWidth  float64
	Players    []Player
	Obstacles  []Obstacle
	Coins      []Coin
	PowerUps   []PowerUp
}

func (m *Match) Snapshot() Snapshot {
	s := Snapshot{
		Tick:       m.Tick,
		Phase:      m.phase,
		RoadOffset: m.RoadOffset,
		FallSpeed:  m.FallSpeed,
		LaneWidth:  m.laneWidth,
		Players:    make([]Player, 0, len(m.Players)),
		Obstacles:  make([]Obstacle, 0, len(m.Obstacles)),
		Coins:      make([]Coin, 0, len(m.Coins)),
		PowerUps:   make([]PowerUp, 0, len(m.PowerUps)),
	}
	for _, p := range m.Players {
		cp := *p
		cp.nearMisses = nil
		s.Players = append(s.Players, cp)
	}
	for _, o := range m.Obstacles {
		s.Obstacles = append(s.Obstacles, *o)
	}
	for _, c := range m.Coins {
		s.Coins = append(s.Coins, *c)
	}
	for _, pu := range m.PowerUps {
		s.PowerUps = append(s.PowerUps, *pu)
	}
	return s
}
