package physics

import (
	"errors"
	"fmt"
)

var ErrInvalidConfig = errors.New("invalid physics configuration")

// Config tunes the world. Zero values are not meaningful; start from DefaultConfig.
type Config struct {
	Gravity  Vec3 `json:"gravity" yaml:"gravity"`
	Substeps int  `json:"substeps" yaml:"substeps"`

	// StepHeight is the tallest ledge a capsule climbs instead of treating it as a wall.
	StepHeight float64 `json:"step_height" yaml:"step_height"`

	VoidFloor    float64 `json:"void_floor" yaml:"void_floor"`
	RespawnPoint Vec3    `json:"respawn_point" yaml:"respawn_point"`

	// Linear damping per 1/60 s, applied as a velocity fraction.
	GroundedDamping float64 `json:"grounded_damping" yaml:"grounded_damping"`
	AirborneDamping float64 `json:"airborne_damping" yaml:"airborne_damping"`
	// AngularDamping is a rate per second.
	AngularDamping float64 `json:"angular_damping" yaml:"angular_damping"`

	BoxGroundRestitution float64 `json:"box_ground_restitution" yaml:"box_ground_restitution"`
	BoxGroundFriction    float64 `json:"box_ground_friction" yaml:"box_ground_friction"`
	BoxWallRestitution   float64 `json:"box_wall_restitution" yaml:"box_wall_restitution"`

	ChunkSize float64 `json:"chunk_size" yaml:"chunk_size"`

	// RaycastStatics lets Raycast hit static boxes as well as the ground plane.
	// Off by default: suspension is only supported by the ground.
	RaycastStatics bool `json:"raycast_statics" yaml:"raycast_statics"`
}

func DefaultConfig() Config {
	return Config{
		Gravity:              Vec3{0, -25, 0},
		Substeps:             4,
		StepHeight:           0.4,
		VoidFloor:            -20,
		RespawnPoint:         Vec3{0, 10, 0},
		GroundedDamping:      0.05,
		AirborneDamping:      0.01,
		AngularDamping:       2.0,
		BoxGroundRestitution: 0.3,
		BoxGroundFriction:    0.01,
		BoxWallRestitution:   0.5,
		ChunkSize:            64,
		RaycastStatics:       false,
	}
}

func (c Config) Validate() error {
	if c.Substeps <= 0 {
		return fmt.Errorf("%w: substeps must be positive, got %d", ErrInvalidConfig, c.Substeps)
	}
	if c.StepHeight < 0 {
		return fmt.Errorf("%w: step height must not be negative", ErrInvalidConfig)
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk size must be positive", ErrInvalidConfig)
	}
	for name, v := range map[string]float64{
		"grounded_damping":       c.GroundedDamping,
		"airborne_damping":       c.AirborneDamping,
		"box_ground_restitution": c.BoxGroundRestitution,
		"box_ground_friction":    c.BoxGroundFriction,
		"box_wall_restitution":   c.BoxWallRestitution,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%w: %s must be within [0, 1], got %g", ErrInvalidConfig, name, v)
		}
	}
	return nil
}
