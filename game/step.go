package game

import "math"

// Step advances a playing match by dt seconds. Waiting and ended matches
// are left untouched and Step reports false.
func (m *Match) Step(dt float64) bool {
	if m.phase != PhasePlaying {
		return false
	}
	m.Tick++
	m.Clock += dt
	cfg := &m.cfg

	for _, p := range m.Players {
		p.update(cfg, m.laneWidth, dt)
	}

	m.RoadOffset = math.Mod(m.RoadOffset+m.FallSpeed*dt, cfg.RoadOffsetLoop)
	m.FallSpeed += cfg.FallSpeedIncrease

	m.advanceEntities(dt)

	if m.spawner.Due(m) {
		m.spawner.SpawnRow(m)
	}

	m.attractCoins(dt)
	Resolve(m)
	return true
}

func (m *Match) advanceEntities(dt float64) {
	cfg := &m.cfg
	ground := cfg.GroundY

	kept := m.Obstacles[:0]
	for _, o := range m.Obstacles {
		o.advance(m.FallSpeed, dt)
		if o.Y < ground {
			kept = append(kept, o)
			continue
		}
		for _, p := range m.Players {
			delete(p.nearMisses, o.ID)
		}
	}
	clear(m.Obstacles[len(kept):])
	m.Obstacles = kept

	coins := m.Coins[:0]
	for _, c := range m.Coins {
		c.advance(cfg, m.FallSpeed, dt)
		if c.Y < ground {
			coins = append(coins, c)
		}
	}
	clear(m.Coins[len(coins):])
	m.Coins = coins

	pus := m.PowerUps[:0]
	for _, pu := range m.PowerUps {
		pu.advance(cfg, m.FallSpeed, dt)
		if pu.Y < ground {
			pus = append(pus, pu)
		}
	}
	clear(m.PowerUps[len(pus):])
	m.PowerUps = pus
}

// attractCoins pulls coins within the magnet radius toward each magnetised
// player's center; the pull grows as the coin gets closer.
func (m *Match) attractCoins(dt float64) {
	cfg := &m.cfg
	for _, p := range m.Players {
		if !p.Alive || p.MagnetTimer <= 0 {
			continue
		}
		px := p.X + p.W/2
		py := p.Y + p.H/2
		for _, c := range m.Coins {
			dx := px - (c.X + c.Size/2)
			dy := py - (c.Y + c.Size/2)
			dist := math.Hypot(dx, dy)
			if dist >= cfg.MagnetRadius {
				continue
			}
			norm := dist
			if norm == 0 {
				norm = 1
			}
			pull := (cfg.MagnetRadius - dist) / cfg.MagnetRadius * cfg.MagnetStrength * dt
			c.X += dx / norm * pull
			c.Y += dy / norm * pull
			c.BaseY += dy / norm * pull
		}
	}
}
