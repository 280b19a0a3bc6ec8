package game

import "fmt"

// LaneCount is the number of lanes in every player's field. It is fixed
// because the pattern library is authored against it.
const LaneCount = 5

// PatternRows is the number of rows in one spawn pattern.
const PatternRows = 5

// Config carries every gameplay tunable. A Config is copied into each Match
// at construction; nothing in this package reads tunables from elsewhere.
// Durations are in seconds, distances in field units, speeds in units/second.
type Config struct {
	FieldWidth  float64 `yaml:"field_width"`
	GroundY     float64 `yaml:"ground_y"`
	ViewportGap float64 `yaml:"viewport_gap"`

	RespawnTime    float64 `yaml:"respawn_time"`
	InvincibleTime float64 `yaml:"invincible_time"`
	ShieldDuration float64 `yaml:"shield_duration"`
	MagnetDuration float64 `yaml:"magnet_duration"`

	CoinBaseScore int     `yaml:"coin_base_score"`
	NearMissBonus int     `yaml:"near_miss_bonus"`
	ComboDuration float64 `yaml:"combo_duration"`
	ComboStep     int     `yaml:"combo_step"`

	InitialFallSpeed  float64 `yaml:"initial_fall_speed"`
	FallSpeedIncrease float64 `yaml:"fall_speed_increase"` // per tick
	RoadOffsetLoop    float64 `yaml:"road_offset_loop"`

	RowGap         float64 `yaml:"row_gap"`
	SpawnThreshold float64 `yaml:"spawn_threshold"`
	PickupOffset   float64 `yaml:"pickup_offset"`
	CoinChance     float64 `yaml:"coin_chance"`
	PowerUpChance  float64 `yaml:"powerup_chance"`
	ShieldChance   float64 `yaml:"shield_chance"`
	CoinSize       float64 `yaml:"coin_size"`
	PowerUpSize    float64 `yaml:"powerup_size"`
	BobSpeed       float64 `yaml:"bob_speed"`
	BobAmount      float64 `yaml:"bob_amount"`

	LaneSeekRate   float64 `yaml:"lane_seek_rate"`
	TiltStiffness  float64 `yaml:"tilt_stiffness"`
	TiltDamping    float64 `yaml:"tilt_damping"`
	LaneChangeKick float64 `yaml:"lane_change_kick"`

	MagnetRadius   float64 `yaml:"magnet_radius"`
	MagnetStrength float64 `yaml:"magnet_strength"`

	NearMissWindow   float64 `yaml:"near_miss_window"`
	NearMissMaxFront float64 `yaml:"near_miss_max_front"`
}

// DefaultConfig returns the stock tuning.
func DefaultConfig() Config {
	return Config{
		FieldWidth:  1200,
		GroundY:     800,
		ViewportGap: 50,

		RespawnTime:    10,
		InvincibleTime: 3,
		ShieldDuration: 7,
		MagnetDuration: 8,

		CoinBaseScore: 100,
		NearMissBonus: 25,
		ComboDuration: 2,
		ComboStep:     5,

		InitialFallSpeed:  300,
		FallSpeedIncrease: 0.1,
		RoadOffsetLoop:    60,

		RowGap:         350,
		SpawnThreshold: 200,
		PickupOffset:   60,
		CoinChance:     0.2,
		PowerUpChance:  0.05,
		ShieldChance:   0.6,
		CoinSize:       80,
		PowerUpSize:    80,
		BobSpeed:       2,
		BobAmount:      5,

		LaneSeekRate:   15,
		TiltStiffness:  250,
		TiltDamping:    15,
		LaneChangeKick: 7,

		MagnetRadius:   220,
		MagnetStrength: 700,

		NearMissWindow:   0.5,
		NearMissMaxFront: 100,
	}
}

// Validate reports the first tunable that would make the simulation misbehave.
func (c Config) Validate() error {
	positive := []struct {
		name string
		v    float64
	}{
		{"field_width", c.FieldWidth},
		{"ground_y", c.GroundY},
		{"respawn_time", c.RespawnTime},
		{"combo_duration", c.ComboDuration},
		{"initial_fall_speed", c.InitialFallSpeed},
		{"road_offset_loop", c.RoadOffsetLoop},
		{"coin_size", c.CoinSize},
		{"powerup_size", c.PowerUpSize},
		{"magnet_radius", c.MagnetRadius},
		{"lane_seek_rate", c.LaneSeekRate},
	}
	for _, p := range positive {
		if p.v <= 0 {
			return fmt.Errorf("%s must be > 0, got %v", p.name, p.v)
		}
	}
	for _, p := range []struct {
		name string
		v    float64
	}{
		{"fall_speed_increase", c.FallSpeedIncrease},
		{"tilt_stiffness", c.TiltStiffness},
		{"tilt_damping", c.TiltDamping},
		{"near_miss_window", c.NearMissWindow},
		{"near_miss_max_front", c.NearMissMaxFront},
	} {
		if p.v < 0 {
			return fmt.Errorf("%s must be >= 0, got %v", p.name, p.v)
		}
	}
	if c.ComboStep <= 0 {
		return fmt.Errorf("combo_step must be > 0, got %d", c.ComboStep)
	}
	if c.ViewportGap < 0 || c.ViewportGap >= c.FieldWidth {
		return fmt.Errorf("viewport_gap out of range: %v", c.ViewportGap)
	}
	for _, p := range []struct {
		name string
		v    float64
	}{
		{"coin_chance", c.CoinChance},
		{"powerup_chance", c.PowerUpChance},
		{"shield_chance", c.ShieldChance},
	} {
		if p.v < 0 || p.v > 1 {
			return fmt.Errorf("%s must be within [0,1], got %v", p.name, p.v)
		}
	}
	return nil
}
