// Package config loads the simulation configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/zeusync/citysim/internal/core/systems/camera"
	"github.com/zeusync/citysim/internal/core/systems/physics"
	"github.com/zeusync/citysim/internal/core/systems/vehicle"
	"gopkg.in/yaml.v3"
)

// DefaultPath is where the binary looks for its config, relative to the working directory.
const DefaultPath = "config/citysim.yaml"

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	LogLevel string `json:"log_level" yaml:"log_level"`

	Frame    FrameConfig               `json:"frame" yaml:"frame"`
	Physics  physics.Config            `json:"physics" yaml:"physics"`
	Camera   camera.Config             `json:"camera" yaml:"camera"`
	Vehicles map[string]vehicle.Config `json:"vehicles" yaml:"vehicles"`
	Server   ServerConfig              `json:"server" yaml:"server"`
	World    WorldConfig               `json:"world" yaml:"world"`
}

type FrameConfig struct {
	TargetFPS int `json:"target_fps" yaml:"target_fps"`
	// MaxDeltaTime clamps frame time after stalls, in seconds.
	MaxDeltaTime float64 `json:"max_delta_time" yaml:"max_delta_time"`
}

// Interval is the wall-clock period between frames.
func (f FrameConfig) Interval() time.Duration {
	return time.Second / time.Duration(f.TargetFPS)
}

type ServerConfig struct {
	Enabled    bool   `json:"enabled" yaml:"enabled"`
	ListenAddr string `json:"listen_addr" yaml:"listen_addr"`
	// BroadcastEvery sends a snapshot every N frames.
	BroadcastEvery int `json:"broadcast_every" yaml:"broadcast_every"`
	// ClientBuffer is the number of snapshots queued per client before drops.
	ClientBuffer int `json:"client_buffer" yaml:"client_buffer"`
	MaxClients   int `json:"max_clients" yaml:"max_clients"`
}

type WorldConfig struct {
	// StreamRadius is how many chunks around the player stay loaded.
	StreamRadius int `json:"stream_radius" yaml:"stream_radius"`
	// ChunkLoadsPerFrame caps chunk loads per frame, nearest first. Zero loads all at once.
	ChunkLoadsPerFrame int `json:"chunk_loads_per_frame" yaml:"chunk_loads_per_frame"`
	// Vehicle is the preset the player drives.
	Vehicle string `json:"vehicle" yaml:"vehicle"`
	// Traffic is the number of extra parked vehicles spawned in the demo city.
	Traffic int `json:"traffic" yaml:"traffic"`
	// Pedestrians stand along the sidewalk lane next to the spawn road.
	Pedestrians int `json:"pedestrians" yaml:"pedestrians"`
	// Streaming keeps chunks loaded around the player. When off, only
	// colliders added directly exist.
	Streaming bool `json:"streaming" yaml:"streaming"`
}

func Default() Config {
	return Config{
		LogLevel: "info",
		Frame: FrameConfig{
			TargetFPS:    60,
			MaxDeltaTime: 0.1,
		},
		Physics:  physics.DefaultConfig(),
		Camera:   camera.DefaultConfig(),
		Vehicles: vehicle.Presets(),
		Server: ServerConfig{
			Enabled:        true,
			ListenAddr:     "127.0.0.1:8090",
			BroadcastEvery: 2,
			ClientBuffer:   8,
			MaxClients:     64,
		},
		World: WorldConfig{
			StreamRadius:       1,
			ChunkLoadsPerFrame: 2,
			Vehicle:            "sedan",
			Traffic:            2,
			Pedestrians:        4,
			Streaming:          true,
		},
	}
}

// Load reads path over the defaults. A missing file yields Default().
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	cfg, err := LoadYAML(f)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadYAML decodes r over the defaults and validates the result. Vehicle
// entries replace presets of the same name wholesale.
func LoadYAML(r io.Reader) (Config, error) {
	cfg := Default()
	if err := yaml.NewDecoder(r).Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	for name, v := range cfg.Vehicles {
		if v.Name == "" {
			v.Name = name
			cfg.Vehicles[name] = v
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Save writes cfg as YAML, creating the parent directory if needed.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func (c Config) Validate() error {
	if c.Frame.TargetFPS <= 0 {
		return fmt.Errorf("%w: frame.target_fps must be positive", ErrInvalidConfig)
	}
	if c.Frame.MaxDeltaTime <= 0 {
		return fmt.Errorf("%w: frame.max_delta_time must be positive", ErrInvalidConfig)
	}
	if err := c.Physics.Validate(); err != nil {
		return fmt.Errorf("physics: %w", err)
	}
	if err := c.Camera.Validate(); err != nil {
		return fmt.Errorf("camera: %w", err)
	}
	for name, v := range c.Vehicles {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("vehicle %q: %w", name, err)
		}
	}
	if _, ok := c.Vehicles[c.World.Vehicle]; !ok {
		return fmt.Errorf("%w: world.vehicle %q has no vehicle config", ErrInvalidConfig, c.World.Vehicle)
	}
	if c.World.StreamRadius < 0 || c.World.Traffic < 0 || c.World.Pedestrians < 0 || c.World.ChunkLoadsPerFrame < 0 {
		return fmt.Errorf("%w: world counts must not be negative", ErrInvalidConfig)
	}
	if c.Server.Enabled {
		if c.Server.ListenAddr == "" {
			return fmt.Errorf("%w: server.listen_addr is required", ErrInvalidConfig)
		}
		if c.Server.BroadcastEvery <= 0 || c.Server.ClientBuffer <= 0 || c.Server.MaxClients <= 0 {
			return fmt.Errorf("%w: server counts must be positive", ErrInvalidConfig)
		}
	}
	return nil
}
