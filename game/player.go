package game

import "math"

// NoRespawn is the RespawnTimer value of a player whose death is permanent
// for this life.
const NoRespawn = -1.0

type Player struct {
	Index int
	Name  string

	Lane     int
	PrevLane int
	X, Y     float64
	W, H     float64
	Viewport Rect

	Rotation        float64
	AngularVelocity float64

	Score      int
	Combo      int
	ComboTimer float64

	ShieldTimer     float64
	MagnetTimer     float64
	InvincibleTimer float64
	// RespawnTimer counts down while dead, or is NoRespawn. Zero while alive.
	RespawnTimer float64

	Alive bool
	// Abandoned is set once the owning participant has left the room.
	Abandoned bool

	// LastLaneChange is on the match clock.
	LastLaneChange float64

	nearMisses map[uint64]struct{}
}

func newPlayer(index int, name string, laneWidth, groundY float64, viewport Rect) *Player {
	w := laneWidth * 0.8
	h := w * 1.2
	p := &Player{
		Index:          index,
		Name:           name,
		Lane:           LaneCount / 2,
		PrevLane:       LaneCount / 2,
		W:              w,
		H:              h,
		Y:              groundY - h - 20,
		Viewport:       viewport,
		Alive:          true,
		LastLaneChange: math.Inf(-1),
		nearMisses:     make(map[uint64]struct{}),
	}
	p.X = p.targetX(laneWidth)
	return p
}

func (p *Player) targetX(laneWidth float64) float64 {
	return float64(p.Lane)*laneWidth + (laneWidth-p.W)/2
}

// HitRect shrinks the sprite by 20% horizontally and 10% vertically.
func (p *Player) HitRect() Rect {
	return Rect{X: p.X, Y: p.Y, W: p.W, H: p.H}.inset(p.W*0.2, p.H*0.1)
}

// ComboMultiplier is 1 + floor(combo / step).
func (p *Player) ComboMultiplier(cfg *Config) int {
	return 1 + p.Combo/cfg.ComboStep
}

func (p *Player) addCombo(cfg *Config) {
	p.Combo++
	p.ComboTimer = cfg.ComboDuration
}

func (p *Player) moveLeft(now, kick float64) bool {
	if !p.Alive || p.Lane <= 0 {
		return false
	}
	p.PrevLane = p.Lane
	p.Lane--
	p.LastLaneChange = now
	p.AngularVelocity -= kick
	return true
}

func (p *Player) moveRight(now, kick float64) bool {
	if !p.Alive || p.Lane >= LaneCount-1 {
		return false
	}
	p.PrevLane = p.Lane
	p.Lane++
	p.LastLaneChange = now
	p.AngularVelocity += kick
	return true
}

// die is a no-op while the player is invincible or shielded. It reports
// whether the player actually died.
func (p *Player) die(cfg *Config, othersAlive bool) bool {
	if !p.Alive || p.InvincibleTimer > 0 || p.ShieldTimer > 0 {
		return false
	}
	p.Alive = false
	if othersAlive {
		p.RespawnTimer = cfg.RespawnTime
	} else {
		p.RespawnTimer = NoRespawn
	}
	p.Combo = 0
	p.ComboTimer = 0
	return true
}

func (p *Player) respawn(cfg *Config) {
	p.Alive = true
	p.Lane = LaneCount / 2
	p.PrevLane = p.Lane
	p.LastLaneChange = math.Inf(-1)
	p.RespawnTimer = 0
	p.ShieldTimer = 0
	p.MagnetTimer = 0
	p.InvincibleTimer = cfg.InvincibleTime
	p.Combo = 0
	p.ComboTimer = 0
	p.Rotation = 0
	p.AngularVelocity = 0
}

func countdown(t, dt float64) float64 {
	return math.Max(0, t-dt)
}

// update advances timers and motion by dt seconds.
func (p *Player) update(cfg *Config, laneWidth, dt float64) {
	if !p.Alive {
		if p.RespawnTimer == NoRespawn {
			return
		}
		p.RespawnTimer = countdown(p.RespawnTimer, dt)
		if p.RespawnTimer == 0 {
			p.respawn(cfg)
		}
		return
	}

	p.ShieldTimer = countdown(p.ShieldTimer, dt)
	p.MagnetTimer = countdown(p.MagnetTimer, dt)
	p.InvincibleTimer = countdown(p.InvincibleTimer, dt)
	if p.ComboTimer > 0 {
		p.ComboTimer = countdown(p.ComboTimer, dt)
		if p.ComboTimer == 0 {
			p.Combo = 0
		}
	}

	p.X += (p.targetX(laneWidth) - p.X) * cfg.LaneSeekRate * dt

	// Spring-damped tilt: restoring torque against rotation, damping
	// against angular velocity.
	accel := -p.Rotation*cfg.TiltStiffness - p.AngularVelocity*cfg.TiltDamping
	p.AngularVelocity += accel * dt
	p.Rotation += p.AngularVelocity * dt
}
