package vehicle

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/zeusync/citysim/internal/core/systems/physics"
	"gopkg.in/yaml.v3"
)

var (
	ErrInvalidConfig     = errors.New("invalid vehicle configuration")
	ErrUnknownDrivetrain = errors.New("unknown drivetrain")
	ErrUnknownPreset     = errors.New("unknown vehicle preset")
)

// Drivetrain selects which axles receive engine force.
type Drivetrain string

const (
	DrivetrainSedan Drivetrain = "sedan"
	DrivetrainTruck Drivetrain = "truck"
	DrivetrainSport Drivetrain = "sport"
)

func (d Drivetrain) Valid() bool {
	switch d {
	case DrivetrainSedan, DrivetrainTruck, DrivetrainSport:
		return true
	}
	return false
}

// Drives reports whether the front or rear axle gets engine force. Rear wheels
// are always driven; trucks drive the front axle too.
func (d Drivetrain) Drives(front bool) bool {
	return !front || d == DrivetrainTruck
}

// InertiaModel chooses how torque turns into angular velocity.
type InertiaModel string

const (
	// InertiaScalar divides torque by 2*mass on every axis.
	InertiaScalar InertiaModel = "scalar"
	// InertiaBox uses the diagonal tensor of a solid box with the body's half extents.
	InertiaBox InertiaModel = "box"
)

// Config is the immutable tuning of one vehicle type.
type Config struct {
	Name string `json:"name" yaml:"name"`

	Mass              float64 `json:"mass" yaml:"mass"`
	EnginePower       float64 `json:"engine_power" yaml:"engine_power"`
	BrakeForce        float64 `json:"brake_force" yaml:"brake_force"`
	DragCoefficient   float64 `json:"drag_coefficient" yaml:"drag_coefficient"`
	RollingResistance float64 `json:"rolling_resistance" yaml:"rolling_resistance"`

	SuspensionRestLength float64 `json:"suspension_rest_length" yaml:"suspension_rest_length"`
	SuspensionStiffness  float64 `json:"suspension_stiffness" yaml:"suspension_stiffness"`
	SuspensionDamping    float64 `json:"suspension_damping" yaml:"suspension_damping"`

	LateralFriction float64 `json:"lateral_friction" yaml:"lateral_friction"`
	// LongitudinalFriction caps drive and brake force at this multiple of the wheel load.
	LongitudinalFriction float64 `json:"longitudinal_friction" yaml:"longitudinal_friction"`

	WheelRadius float64 `json:"wheel_radius" yaml:"wheel_radius"`
	// WheelTrack and WheelBase are the half distances from the body center to
	// the wheel mounts across and along the body.
	WheelTrack float64 `json:"wheel_track" yaml:"wheel_track"`
	WheelBase  float64 `json:"wheel_base" yaml:"wheel_base"`

	HalfExtents physics.Vec3 `json:"half_extents" yaml:"half_extents"`

	MaxSteerAngle float64 `json:"max_steer_angle" yaml:"max_steer_angle"`

	Drivetrain   Drivetrain   `json:"drivetrain" yaml:"drivetrain"`
	InertiaModel InertiaModel `json:"inertia_model,omitempty" yaml:"inertia_model,omitempty"`
}

// Presets returns the stock tuning for each drivetrain class, keyed by name.
func Presets() map[string]Config {
	steer := mgl64.DegToRad(45)
	return map[string]Config{
		"sedan": {
			Name:                 "sedan",
			Mass:                 1200,
			EnginePower:          5000,
			BrakeForce:           6000,
			DragCoefficient:      0.003,
			RollingResistance:    150,
			SuspensionRestLength: 0.5,
			SuspensionStiffness:  30000,
			SuspensionDamping:    3000,
			LateralFriction:      0.8,
			LongitudinalFriction: 1.2,
			WheelRadius:          0.35,
			WheelTrack:           0.8,
			WheelBase:            1.3,
			HalfExtents:          physics.Vec3{0.9, 0.5, 2.0},
			MaxSteerAngle:        steer,
			Drivetrain:           DrivetrainSedan,
			InertiaModel:         InertiaScalar,
		},
		"truck": {
			Name:                 "truck",
			Mass:                 3000,
			EnginePower:          6000,
			BrakeForce:           12000,
			DragCoefficient:      0.004,
			RollingResistance:    300,
			SuspensionRestLength: 0.6,
			SuspensionStiffness:  60000,
			SuspensionDamping:    8000,
			LateralFriction:      0.7,
			LongitudinalFriction: 1.0,
			WheelRadius:          0.45,
			WheelTrack:           1.0,
			WheelBase:            2.2,
			HalfExtents:          physics.Vec3{1.1, 0.8, 3.0},
			MaxSteerAngle:        steer,
			Drivetrain:           DrivetrainTruck,
			InertiaModel:         InertiaScalar,
		},
		"sport": {
			Name:                 "sport",
			Mass:                 1000,
			EnginePower:          7000,
			BrakeForce:           8000,
			DragCoefficient:      0.0025,
			RollingResistance:    120,
			SuspensionRestLength: 0.4,
			SuspensionStiffness:  28000,
			SuspensionDamping:    2800,
			LateralFriction:      1.0,
			LongitudinalFriction: 1.4,
			WheelRadius:          0.33,
			WheelTrack:           0.85,
			WheelBase:            1.35,
			HalfExtents:          physics.Vec3{0.9, 0.4, 2.1},
			MaxSteerAngle:        steer,
			Drivetrain:           DrivetrainSport,
			InertiaModel:         InertiaScalar,
		},
	}
}

// Preset returns one stock config by name.
func Preset(name string) (Config, error) {
	cfg, ok := Presets()[name]
	if !ok {
		return Config{}, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if !c.Drivetrain.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownDrivetrain, c.Drivetrain)
	}
	switch c.InertiaModel {
	case "", InertiaScalar, InertiaBox:
	default:
		return fmt.Errorf("%w: unknown inertia model %q", ErrInvalidConfig, c.InertiaModel)
	}
	positive := []struct {
		name  string
		value float64
	}{
		{"mass", c.Mass},
		{"suspension_rest_length", c.SuspensionRestLength},
		{"suspension_stiffness", c.SuspensionStiffness},
		{"wheel_radius", c.WheelRadius},
		{"half_extents.x", c.HalfExtents[0]},
		{"half_extents.y", c.HalfExtents[1]},
		{"half_extents.z", c.HalfExtents[2]},
	}
	for _, p := range positive {
		if p.value <= 0 {
			return fmt.Errorf("%w: %s must be positive, got %g", ErrInvalidConfig, p.name, p.value)
		}
	}
	if c.EnginePower < 0 || c.BrakeForce < 0 || c.DragCoefficient < 0 ||
		c.RollingResistance < 0 || c.SuspensionDamping < 0 ||
		c.LateralFriction < 0 || c.LongitudinalFriction < 0 {
		return fmt.Errorf("%w: forces and coefficients must not be negative", ErrInvalidConfig)
	}
	return nil
}

// LoadConfigs decodes a YAML document mapping names to vehicle configs.
// Entries without a name take their map key.
func LoadConfigs(r io.Reader) (map[string]Config, error) {
	var raw map[string]Config
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode vehicle configs: %w", err)
	}
	for name, cfg := range raw {
		if cfg.Name == "" {
			cfg.Name = name
		}
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("vehicle %q: %w", name, err)
		}
		raw[name] = cfg
	}
	return raw, nil
}
