package camera

import (
	"errors"
	"fmt"
)

var ErrInvalidConfig = errors.New("invalid camera configuration")

type Config struct {
	// Distance is the unobstructed orbit radius around the pivot.
	Distance float64 `json:"distance" yaml:"distance"`
	// PivotHeight lifts the orbit pivot and the collision ray origin above the target.
	PivotHeight float64 `json:"pivot_height" yaml:"pivot_height"`
	// Inset keeps the camera this far in front of an occluder.
	Inset       float64 `json:"inset" yaml:"inset"`
	MinDistance float64 `json:"min_distance" yaml:"min_distance"`

	PitchMin     float64 `json:"pitch_min" yaml:"pitch_min"`
	PitchMax     float64 `json:"pitch_max" yaml:"pitch_max"`
	DefaultPitch float64 `json:"default_pitch" yaml:"default_pitch"`

	// SmoothBase is the fraction of the remaining gap left after one second.
	SmoothBase float64 `json:"smooth_base" yaml:"smooth_base"`
}

func DefaultConfig() Config {
	return Config{
		Distance:     8,
		PivotHeight:  1,
		Inset:        0.2,
		MinDistance:  0.1,
		PitchMin:     -0.5,
		PitchMax:     1.0,
		DefaultPitch: 0.3,
		SmoothBase:   0.001,
	}
}

func (c Config) Validate() error {
	if c.Distance <= 0 {
		return fmt.Errorf("%w: distance must be positive, got %g", ErrInvalidConfig, c.Distance)
	}
	if c.MinDistance < 0 || c.MinDistance > c.Distance {
		return fmt.Errorf("%w: min distance must be within [0, distance]", ErrInvalidConfig)
	}
	if c.Inset < 0 {
		return fmt.Errorf("%w: inset must not be negative", ErrInvalidConfig)
	}
	if c.PitchMin > c.PitchMax {
		return fmt.Errorf("%w: pitch min %g above pitch max %g", ErrInvalidConfig, c.PitchMin, c.PitchMax)
	}
	if c.SmoothBase <= 0 || c.SmoothBase >= 1 {
		return fmt.Errorf("%w: smooth base must be within (0, 1), got %g", ErrInvalidConfig, c.SmoothBase)
	}
	return nil
}
