package game

import "math"

type ObstacleKind uint8

const (
	ObstacleTree ObstacleKind = iota
	ObstacleLog
	ObstaclePit
	ObstacleCrate
	ObstacleRock
)

const obstacleKindCount = int(ObstacleRock) + 1

func (k ObstacleKind) String() string {
	switch k {
	case ObstacleTree:
		return "tree"
	case ObstacleLog:
		return "log"
	case ObstaclePit:
		return "pit"
	case ObstacleCrate:
		return "crate"
	case ObstacleRock:
		return "rock"
	}
	return "unknown"
}

type PowerUpKind uint8

const (
	PowerUpShield PowerUpKind = iota
	PowerUpMagnet
)

func (k PowerUpKind) String() string {
	switch k {
	case PowerUpShield:
		return "shield"
	case PowerUpMagnet:
		return "magnet"
	}
	return "unknown"
}

// Rect is an axis-aligned rectangle in a player's field coordinates.
type Rect struct {
	X, Y, W, H float64
}

// Intersects treats touching edges as overlap.
func (r Rect) Intersects(o Rect) bool {
	return !(o.X > r.X+r.W || o.X+o.W < r.X || o.Y > r.Y+r.H || o.Y+o.H < r.Y)
}

// inset shrinks r by px horizontally and py vertically on each side.
func (r Rect) inset(px, py float64) Rect {
	return Rect{X: r.X + px, Y: r.Y + py, W: r.W - 2*px, H: r.H - 2*py}
}

type Obstacle struct {
	ID   uint64
	Lane int
	Y    float64
	W, H float64
	Kind ObstacleKind
}

func (o *Obstacle) X(laneWidth float64) float64 {
	return float64(o.Lane)*laneWidth + (laneWidth-o.W)/2
}

func (o *Obstacle) Bounds(laneWidth float64) Rect {
	return Rect{X: o.X(laneWidth), Y: o.Y, W: o.W, H: o.H}
}

// HitRect is the sprite bounds shrunk by 15% of the width on every side.
func (o *Obstacle) HitRect(laneWidth float64) Rect {
	pad := o.W * 0.15
	return o.Bounds(laneWidth).inset(pad, pad)
}

func (o *Obstacle) advance(fallSpeed, dt float64) {
	o.Y += fallSpeed * dt
}

// Coin bobs around BaseY; magnets move X and BaseY.
type Coin struct {
	ID       uint64
	Lane     int
	X, Y     float64
	BaseY    float64
	Size     float64
	BobPhase float64
}

func (c *Coin) HitRect() Rect {
	pad := c.Size * 0.1
	return Rect{X: c.X, Y: c.Y, W: c.Size, H: c.Size}.inset(pad, pad)
}

func (c *Coin) advance(cfg *Config, fallSpeed, dt float64) {
	c.BaseY += fallSpeed * dt
	c.BobPhase += cfg.BobSpeed * dt
	c.Y = c.BaseY + math.Sin(c.BobPhase)*cfg.BobAmount
}

type PowerUp struct {
	ID       uint64
	Lane     int
	Y        float64
	BaseY    float64
	Size     float64
	BobPhase float64
	Kind     PowerUpKind
}

func (p *PowerUp) X(laneWidth float64) float64 {
	return float64(p.Lane)*laneWidth + laneWidth/2 - p.Size/2
}

func (p *PowerUp) HitRect(laneWidth float64) Rect {
	pad := p.Size * 0.1
	return Rect{X: p.X(laneWidth), Y: p.Y, W: p.Size, H: p.Size}.inset(pad, pad)
}

func (p *PowerUp) advance(cfg *Config, fallSpeed, dt float64) {
	p.BaseY += fallSpeed * dt
	p.BobPhase += cfg.BobSpeed * dt
	p.Y = p.BaseY + math.Sin(p.BobPhase)*cfg.BobAmount
}
