package game

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"
)

// newTestMatch starts a match for names and clears the opening rows so tests
// can place entities by hand.
func newTestMatch(t *testing.T, names ...string) *Match {
	t.Helper()
	entrants := make([]Entrant, len(names))
	for i, n := range names {
		entrants[i] = Entrant{Index: i, Name: n}
	}
	m, err := NewMatch(DefaultConfig(), entrants, rand.New(rand.NewPCG(1, 2)))
	require.NoError(t, err)
	require.True(t, m.Start())
	m.Obstacles, m.Coins, m.PowerUps = nil, nil, nil
	return m
}

func obstacleOn(m *Match, p *Player) *Obstacle {
	w := m.laneWidth * 0.9
	m.addObstacle(p.Lane, p.Y, w, w*1.2, ObstacleRock)
	return m.Obstacles[len(m.Obstacles)-1]
}
