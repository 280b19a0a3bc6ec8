package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoinPickupAppliesComboMultiplier(t *testing.T) {
	m := newTestMatch(t, "alice")
	p := m.Players[0]
	cfg := m.Config()

	m.addCoin(p.Lane, p.Y)
	Resolve(m)
	assert.Equal(t, 1, p.Combo)
	assert.Equal(t, cfg.CoinBaseScore, p.Score)
	assert.Empty(t, m.Coins)
	assert.Equal(t, cfg.ComboDuration, p.ComboTimer)

	p.Combo = 4
	before := p.Score
	m.addCoin(p.Lane, p.Y)
	Resolve(m)
	assert.Equal(t, 5, p.Combo)
	assert.Equal(t, before+cfg.CoinBaseScore*(1+5/cfg.ComboStep), p.Score)
}

func TestObstacleKillsUnprotectedPlayerOnce(t *testing.T) {
	m := newTestMatch(t, "alice", "bob")
	alice, bob := m.Players[0], m.Players[1]
	// bob shares the center lane and must outlive alice for a respawn.
	bob.InvincibleTimer = 10
	obstacleOn(m, alice)

	Resolve(m)
	require.False(t, alice.Alive)
	require.True(t, bob.Alive)
	assert.Equal(t, m.Config().RespawnTime, alice.RespawnTimer)
	assert.Len(t, m.Obstacles, 1)
	assert.Equal(t, PhasePlaying, m.Phase())

	alice.Score = 42
	Resolve(m)
	assert.False(t, alice.Alive)
	assert.Equal(t, m.Config().RespawnTime, alice.RespawnTimer)
	assert.Equal(t, 42, alice.Score)
}

func TestDeathResetsCombo(t *testing.T) {
	m := newTestMatch(t, "alice")
	p := m.Players[0]
	p.Combo, p.ComboTimer = 7, 1.5
	obstacleOn(m, p)

	Resolve(m)
	assert.False(t, p.Alive)
	assert.Zero(t, p.Combo)
	assert.Zero(t, p.ComboTimer)
}

func TestShieldAbsorbsObstacle(t *testing.T) {
	m := newTestMatch(t, "alice")
	p := m.Players[0]
	p.ShieldTimer = 3
	obstacleOn(m, p)
	m.addObstacle(0, -900, 10, 10, ObstacleLog)

	Resolve(m)
	assert.True(t, p.Alive)
	assert.Zero(t, p.ShieldTimer)
	assert.Len(t, m.Obstacles, 1)
	assert.Equal(t, ObstacleLog, m.Obstacles[0].Kind)
}

func TestInvinciblePlayerIgnoresObstacle(t *testing.T) {
	m := newTestMatch(t, "alice")
	p := m.Players[0]
	p.InvincibleTimer = 1
	obstacleOn(m, p)

	Resolve(m)
	assert.True(t, p.Alive)
	assert.Len(t, m.Obstacles, 1)
}

func TestPowerUpsSetTimers(t *testing.T) {
	m := newTestMatch(t, "alice")
	p := m.Players[0]
	cfg := m.Config()

	m.addPowerUp(p.Lane, p.Y, PowerUpShield)
	Resolve(m)
	assert.Equal(t, cfg.ShieldDuration, p.ShieldTimer)

	m.addPowerUp(p.Lane, p.Y, PowerUpMagnet)
	Resolve(m)
	assert.Equal(t, cfg.MagnetDuration, p.MagnetTimer)
	assert.Empty(t, m.PowerUps)
}

func TestNearMissAwardedOncePerObstacle(t *testing.T) {
	m := newTestMatch(t, "alice")
	p := m.Players[0]
	cfg := m.Config()

	from := p.Lane
	require.True(t, m.ApplyInput(p.Index, ActionRight))
	p.X = p.targetX(m.laneWidth)

	w := m.laneWidth * 0.9
	h := w * 1.2
	playerCenter := p.Y + p.H/2
	m.addObstacle(from, playerCenter-50-h/2, w, h, ObstacleCrate)

	Resolve(m)
	Resolve(m)
	assert.True(t, p.Alive)
	assert.Equal(t, cfg.NearMissBonus, p.Score)
	assert.Equal(t, 1, p.Combo)
}

func TestNearMissRequiresRecentLaneChange(t *testing.T) {
	m := newTestMatch(t, "alice")
	p := m.Players[0]

	from := p.Lane
	require.True(t, m.ApplyInput(p.Index, ActionLeft))
	p.X = p.targetX(m.laneWidth)
	m.Clock += m.Config().NearMissWindow + 0.1

	w := m.laneWidth * 0.9
	h := w * 1.2
	m.addObstacle(from, p.Y+p.H/2-50-h/2, w, h, ObstacleTree)

	Resolve(m)
	assert.Zero(t, p.Score)
}

func TestAllPlayersDownEndsMatch(t *testing.T) {
	m := newTestMatch(t, "alice", "bob")
	alice, bob := m.Players[0], m.Players[1]
	obstacleOn(m, alice)
	obstacleOn(m, bob)

	Resolve(m)
	assert.False(t, alice.Alive)
	assert.False(t, bob.Alive)
	assert.Equal(t, PhaseEnded, m.Phase())
	// alice went first while bob was still up; bob had nobody left.
	assert.Equal(t, m.Config().RespawnTime, alice.RespawnTimer)
	assert.Equal(t, NoRespawn, bob.RespawnTimer)
	assert.Equal(t, PhaseEnded, m.Snapshot().Phase)

	tick := m.Tick
	assert.False(t, m.Step(1.0/60))
	assert.Equal(t, tick, m.Tick)
}

func TestEliminatedPlayerRespawnsAtCenterLane(t *testing.T) {
	m := newTestMatch(t, "alice", "bob")
	alice, bob := m.Players[0], m.Players[1]
	bob.InvincibleTimer = 1e6
	require.True(t, m.ApplyInput(alice.Index, ActionLeft))
	alice.X = alice.targetX(m.laneWidth)
	obstacleOn(m, alice)

	Resolve(m)
	require.False(t, alice.Alive)
	require.NotEqual(t, NoRespawn, alice.RespawnTimer)
	require.Greater(t, alice.RespawnTimer, 0.0)

	dt := 1.0 / 60
	ticks := 0
	for !alice.Alive && ticks < 700 {
		require.True(t, m.Step(dt))
		ticks++
	}
	require.True(t, alice.Alive)
	assert.InDelta(t, m.Config().RespawnTime/dt, float64(ticks), 2)
	assert.Equal(t, LaneCount/2, alice.Lane)
	assert.Equal(t, m.Config().InvincibleTime, alice.InvincibleTimer)
}
