package config

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeusync/citysim/internal/core/systems/physics"
	"github.com/zeusync/citysim/internal/core/systems/vehicle"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 4, cfg.Physics.Substeps)
	assert.False(t, cfg.Physics.RaycastStatics)
	assert.Len(t, cfg.Vehicles, 3)
	assert.Equal(t, time.Second/60, cfg.Frame.Interval())
}

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	doc := `
log_level: debug
physics:
  raycast_statics: true
  chunk_size: 32
camera:
  distance: 12
world:
  vehicle: truck
server:
  enabled: false
`
	cfg, err := LoadYAML(strings.NewReader(doc))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.Physics.RaycastStatics)
	assert.Equal(t, 32.0, cfg.Physics.ChunkSize)
	assert.Equal(t, physics.Vec3{0, -25, 0}, cfg.Physics.Gravity, "untouched keys keep defaults")
	assert.Equal(t, 12.0, cfg.Camera.Distance)
	assert.Equal(t, 0.2, cfg.Camera.Inset)
	assert.Equal(t, "truck", cfg.World.Vehicle)
	assert.False(t, cfg.Server.Enabled)
}

func TestLoadYAMLAddsVehicles(t *testing.T) {
	doc := `
vehicles:
  kart:
    mass: 300
    engine_power: 2000
    brake_force: 2500
    suspension_rest_length: 0.2
    suspension_stiffness: 12000
    suspension_damping: 900
    lateral_friction: 1.1
    longitudinal_friction: 1.3
    wheel_radius: 0.2
    wheel_track: 0.5
    wheel_base: 0.7
    half_extents: [0.6, 0.25, 0.9]
    max_steer_angle: 0.5
    drivetrain: sport
world:
  vehicle: kart
`
	cfg, err := LoadYAML(strings.NewReader(doc))
	require.NoError(t, err)
	require.Contains(t, cfg.Vehicles, "kart")
	assert.Equal(t, "kart", cfg.Vehicles["kart"].Name)
	assert.Equal(t, vehicle.DrivetrainSport, cfg.Vehicles["kart"].Drivetrain)
	assert.Contains(t, cfg.Vehicles, "sedan")
}

func TestLoadYAMLEmptyDocument(t *testing.T) {
	cfg, err := LoadYAML(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"fps", func(c *Config) { c.Frame.TargetFPS = 0 }, ErrInvalidConfig},
		{"max dt", func(c *Config) { c.Frame.MaxDeltaTime = 0 }, ErrInvalidConfig},
		{"physics", func(c *Config) { c.Physics.Substeps = 0 }, physics.ErrInvalidConfig},
		{"vehicle", func(c *Config) {
			v := c.Vehicles["sedan"]
			v.Drivetrain = "hover"
			c.Vehicles["sedan"] = v
		}, vehicle.ErrUnknownDrivetrain},
		{"player vehicle", func(c *Config) { c.World.Vehicle = "tank" }, ErrInvalidConfig},
		{"pedestrians", func(c *Config) { c.World.Pedestrians = -1 }, ErrInvalidConfig},
		{"server addr", func(c *Config) { c.Server.ListenAddr = "" }, ErrInvalidConfig},
		{"broadcast", func(c *Config) { c.Server.BroadcastEvery = 0 }, ErrInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), tt.want)
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "citysim.yaml")
	cfg := Default()
	cfg.Physics.RaycastStatics = true
	cfg.World.Traffic = 5
	cfg.World.Pedestrians = 0
	cfg.World.Streaming = false

	require.NoError(t, Save(path, cfg))
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	_, err := LoadYAML(strings.NewReader("physics: [not, a, map]"))
	assert.Error(t, err)
}
