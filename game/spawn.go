package game

import "math/rand/v2"

// Pattern marks, per row and lane, where an obstacle goes.
type Pattern [PatternRows][LaneCount]uint8

// DefaultPatterns returns a fresh copy of the stock pattern library.
func DefaultPatterns() []Pattern {
	return []Pattern{
		{{0, 1, 0, 0, 1}, {1, 0, 1, 0, 0}, {0, 0, 0, 1, 0}, {1, 0, 1, 0, 0}, {0, 1, 0, 0, 0}},
		{{1, 0, 0, 1, 0}, {0, 0, 1, 0, 1}, {0, 1, 0, 0, 0}, {1, 0, 1, 0, 0}, {0, 0, 0, 1, 0}},
		{{0, 0, 1, 0, 0}, {1, 0, 0, 1, 0}, {0, 1, 0, 0, 1}, {0, 0, 1, 0, 0}, {1, 0, 0, 0, 1}},
		{{1, 0, 1, 0, 0}, {0, 1, 0, 0, 1}, {1, 0, 0, 1, 0}, {0, 0, 1, 0, 1}, {0, 1, 0, 0, 0}},
		{{0, 0, 1, 0, 1}, {1, 0, 0, 0, 0}, {0, 1, 0, 1, 0}, {0, 0, 0, 0, 1}, {1, 0, 1, 0, 0}},
		{{0, 1, 0, 0, 0}, {1, 0, 0, 1, 0}, {0, 0, 1, 0, 1}, {1, 0, 0, 0, 0}, {0, 1, 0, 0, 1}},
		{{0, 0, 0, 1, 0}, {1, 0, 1, 0, 0}, {0, 0, 1, 0, 1}, {0, 1, 0, 0, 0}, {1, 0, 0, 1, 0}},
		{{1, 0, 1, 0, 0}, {0, 1, 0, 1, 0}, {0, 0, 0, 0, 1}, {1, 0, 1, 0, 0}, {0, 0, 1, 0, 0}},
		{{0, 1, 0, 0, 0}, {1, 0, 0, 1, 0}, {0, 1, 0, 0, 1}, {1, 0, 1, 0, 0}, {0, 0, 0, 1, 0}},
		{{1, 0, 0, 1, 0}, {0, 1, 0, 0, 1}, {0, 0, 1, 0, 0}, {1, 0, 0, 1, 0}, {0, 1, 0, 0, 0}},
	}
}

// Spawner lays out rows of obstacles and pickups ahead of the players.
type Spawner struct {
	rng      *rand.Rand
	patterns []Pattern
}

func NewSpawner(rng *rand.Rand, patterns []Pattern) *Spawner {
	return &Spawner{rng: rng, patterns: patterns}
}

// Due reports whether the field needs another batch: no obstacles left, or
// the most recently spawned one has scrolled past the threshold.
func (s *Spawner) Due(m *Match) bool {
	if len(m.Obstacles) == 0 {
		return true
	}
	return m.Obstacles[len(m.Obstacles)-1].Y > m.cfg.SpawnThreshold
}

// SpawnRow places one randomly chosen pattern. Row r sits at
// -r*(obstacleHeight+rowGap) so later rows scroll in after earlier ones.
func (s *Spawner) SpawnRow(m *Match) {
	if len(s.patterns) == 0 {
		return
	}
	cfg := &m.cfg
	p := s.patterns[s.rng.IntN(len(s.patterns))]
	obsW := m.laneWidth * 0.9
	obsH := obsW * 1.2
	for row := 0; row < PatternRows; row++ {
		y := -float64(row) * (obsH + cfg.RowGap)
		for lane := 0; lane < LaneCount; lane++ {
			switch {
			case p[row][lane] == 1:
				kind := ObstacleKind(s.rng.IntN(obstacleKindCount))
				m.addObstacle(lane, y, obsW, obsH, kind)
			case s.rng.Float64() < cfg.CoinChance:
				m.addCoin(lane, y+cfg.PickupOffset)
			case s.rng.Float64() < cfg.PowerUpChance:
				kind := PowerUpMagnet
				if s.rng.Float64() < cfg.ShieldChance {
					kind = PowerUpShield
				}
				m.addPowerUp(lane, y+cfg.PickupOffset, kind)
			}
		}
	}
}
