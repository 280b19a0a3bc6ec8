package game

// Resolve runs hit detection for every alive player against the current
// entity lists, applies the effects, and ends the match once nobody is left
// alive. It is called once per tick after positions have moved.
func Resolve(m *Match) {
	for _, p := range m.Players {
		if !p.Alive {
			continue
		}
		resolvePlayer(m, p)
	}
	if !m.AnyAlive() {
		m.end()
	}
}

func resolvePlayer(m *Match, p *Player) {
	cfg := &m.cfg
	hit := p.HitRect()

	for i := len(m.Obstacles) - 1; i >= 0; i-- {
		o := m.Obstacles[i]
		if hit.Intersects(o.HitRect(m.laneWidth)) {
			if p.ShieldTimer > 0 {
				p.ShieldTimer = 0
				m.Obstacles = removeAt(m.Obstacles, i)
				continue
			}
			if p.die(cfg, m.othersAlive(p)) {
				return
			}
			continue
		}
		if nearMiss(cfg, m.Clock, p, o) {
			p.nearMisses[o.ID] = struct{}{}
			p.Score += cfg.NearMissBonus
			p.addCombo(cfg)
		}
	}

	for i := len(m.Coins) - 1; i >= 0; i-- {
		if hit.Intersects(m.Coins[i].HitRect()) {
			p.addCombo(cfg)
			p.Score += cfg.CoinBaseScore * p.ComboMultiplier(cfg)
			m.Coins = removeAt(m.Coins, i)
		}
	}

	for i := len(m.PowerUps) - 1; i >= 0; i-- {
		pu := m.PowerUps[i]
		if !hit.Intersects(pu.HitRect(m.laneWidth)) {
			continue
		}
		switch pu.Kind {
		case PowerUpShield:
			p.ShieldTimer = cfg.ShieldDuration
		case PowerUpMagnet:
			p.MagnetTimer = cfg.MagnetDuration
		}
		m.PowerUps = removeAt(m.PowerUps, i)
	}
}

// nearMiss: the player left the obstacle's lane within the window, the
// obstacle is just ahead, and this pair has not been credited yet.
func nearMiss(cfg *Config, now float64, p *Player, o *Obstacle) bool {
	if p.ShieldTimer > 0 {
		return false
	}
	if _, done := p.nearMisses[o.ID]; done {
		return false
	}
	if p.PrevLane != o.Lane || p.Lane == o.Lane {
		return false
	}
	if now-p.LastLaneChange > cfg.NearMissWindow {
		return false
	}
	obsCenter := o.Y + o.H/2
	playerCenter := p.Y + p.H/2
	return obsCenter < playerCenter && playerCenter-obsCenter <= cfg.NearMissMaxFront
}

func removeAt[T any](s []T, i int) []T {
	copy(s[i:], s[i+1:])
	var zero T
	s[len(s)-1] = zero
	return s[:len(s)-1]
}
