package room

import (
	"lanerush/game"
	"lanerush/protocol"
)

func buildGameState(s game.Snapshot) protocol.GameState {
	state := protocol.StatePlaying
	if s.Phase == game.PhaseEnded {
		state = protocol.StateGameOver
	}
	gs := protocol.GameState{
		Tick:       s.Tick,
		Players:    make([]protocol.PlayerSnapshot, 0, len(s.Players)),
		Obstacles:  make([]protocol.ObstacleSnapshot, 0, len(s.Obstacles)),
		Coins:      make([]protocol.CoinSnapshot, 0, len(s.Coins)),
		PowerUps:   make([]protocol.PowerUpSnapshot, 0, len(s.PowerUps)),
		RoadOffset: s.RoadOffset,
		GameState:  state,
	}
	for _, p := range s.Players {
		var respawn *float64
		if p.RespawnTimer != game.NoRespawn {
			t := p.RespawnTimer
			respawn = &t
		}
		gs.Players = append(gs.Players, protocol.PlayerSnapshot{
			ID:              p.Index,
			Name:            p.Name,
			Lane:            p.Lane,
			X:               p.X,
			Y:               p.Y,
			W:               p.W,
			H:               p.H,
			Rotation:        p.Rotation,
			Score:           p.Score,
			Combo:           p.Combo,
			ComboTimer:      p.ComboTimer,
			ShieldTimer:     p.ShieldTimer,
			MagnetTimer:     p.MagnetTimer,
			InvincibleTimer: p.InvincibleTimer,
			RespawnTimer:    respawn,
			IsAlive:         p.Alive,
			Abandoned:       p.Abandoned,
			Viewport: protocol.Viewport{
				X: p.Viewport.X,
				Y: p.Viewport.Y,
				W: p.Viewport.W,
				H: p.Viewport.H,
			},
		})
	}
	for _, o := range s.Obstacles {
		gs.Obstacles = append(gs.Obstacles, protocol.ObstacleSnapshot{
			ID:   o.ID,
			Lane: o.Lane,
			X:    o.X(s.LaneWidth),
			Y:    o.Y,
			W:    o.W,
			H:    o.H,
			Type: o.Kind.String(),
		})
	}
	for _, c := range s.Coins {
		gs.Coins = append(gs.Coins, protocol.CoinSnapshot{ID: c.ID, Lane: c.Lane, X: c.X, Y: c.Y, Size: c.Size})
	}
	for _, pu := range s.PowerUps {
		gs.PowerUps = append(gs.PowerUps, protocol.PowerUpSnapshot{
			ID:   pu.ID,
			Lane: pu.Lane,
			X:    pu.X(s.LaneWidth),
			Y:    pu.Y,
			Size: pu.Size,
			Type: pu.Kind.String(),
		})
	}
	return gs
}
