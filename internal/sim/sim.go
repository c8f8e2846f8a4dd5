// Package sim wires the physics world, vehicles, pedestrians and the camera
// probe into one frame-driven simulation.
package sim

import (
	"errors"
	"fmt"
	"math"

	"github.com/zeusync/citysim/internal/config"
	"github.com/zeusync/citysim/internal/core/events/bus"
	"github.com/zeusync/citysim/internal/core/input"
	"github.com/zeusync/citysim/internal/core/observability/log"
	"github.com/zeusync/citysim/internal/core/system"
	"github.com/zeusync/citysim/internal/core/systems"
	"github.com/zeusync/citysim/internal/core/systems/camera"
	"github.com/zeusync/citysim/internal/core/systems/physics"
	"github.com/zeusync/citysim/internal/core/systems/vehicle"
)

var ErrUnknownVehicle = errors.New("unknown vehicle type")

// Lifecycle events published on the default bus topic.
const (
	EventVehicleSpawned = "vehicle.spawned"
	EventEngineToggled  = "engine.toggled"

	eventSource = "sim"
)

// Frame stages, registered with the system manager.
const (
	systemPhysics   = "physics"
	systemVehicles  = "vehicles"
	systemCamera    = "camera"
	systemStreaming = "streaming"
)

// VehicleSpawned is the payload of EventVehicleSpawned.
type VehicleSpawned struct {
	Body     string       `json:"body"`
	Kind     string       `json:"kind"`
	Position physics.Vec3 `json:"position"`
}

// EngineToggled is the payload of EventEngineToggled.
type EngineToggled struct {
	Body string `json:"body"`
	On   bool   `json:"on"`
}

// Pedestrian body dimensions and their sidewalk lane beside the spawn road.
const (
	pedestrianMass    = 80.0
	pedestrianRadius  = 0.3
	pedestrianHeight  = 1.8
	pedestrianLane    = 4.0
	pedestrianSpacing = 3.0
)

// trafficSpacing is the gap between parked vehicles along the spawn road.
const trafficSpacing = 12.0

// Simulation owns the whole core. It is not safe for concurrent use: one
// goroutine calls SetInput, Frame and Snapshot.
type Simulation struct {
	config  config.Config
	logger  log.Log
	bus     bus.EventBus
	world   *physics.World
	manager *system.Manager
	probe   *camera.Probe

	streamer *Streamer
	subs     []bus.Subscription
	observer *deliveryObserver

	vehicles    []*vehicle.Vehicle
	player      *vehicle.Vehicle
	pedestrians []*physics.Body

	input   input.Snapshot
	engine  input.Edge
	view    camera.View
	elapsed float64
}

// New builds the simulation, spawns the player vehicle and parked traffic and
// streams in the chunks around the spawn point.
func New(cfg config.Config, logger log.Log, eventBus bus.EventBus) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.NewNop()
	}
	if eventBus == nil {
		eventBus = bus.New()
	}

	s := &Simulation{
		config:  cfg,
		logger:  logger.With(log.String("component", "sim")),
		bus:     eventBus,
		world:   physics.NewWorld(cfg.Physics, logger),
		manager: system.NewManager(logger),
		probe:   camera.NewProbe(cfg.Camera),
	}
	s.streamer = NewStreamer(eventBus, cfg.Physics.ChunkSize, cfg.World.StreamRadius, cfg.World.ChunkLoadsPerFrame, logger)
	s.observer = &deliveryObserver{logger: s.logger}
	eventBus.AddObserver(s.observer)

	subs, err := s.world.AttachStreaming(eventBus)
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("attach streaming: %w", err)
	}
	s.subs = subs

	player, err := s.SpawnVehicle(cfg.World.Vehicle, physics.Vec3{})
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	s.player = player
	for i := 0; i < cfg.World.Traffic; i++ {
		if _, err := s.SpawnVehicle(cfg.World.Vehicle, physics.Vec3{0, 0, -trafficSpacing * float64(i+1)}); err != nil {
			_ = s.Close()
			return nil, err
		}
	}

	for i := 0; i < cfg.World.Pedestrians; i++ {
		s.SpawnPedestrian(physics.Vec3{pedestrianLane, 0, pedestrianSpacing * float64(i+1)})
	}

	for _, sys := range s.systems() {
		if err := s.manager.RegisterSystem(sys); err != nil {
			_ = s.Close()
			return nil, err
		}
	}
	if err := s.SetStreaming(cfg.World.Streaming); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("initial streaming: %w", err)
	}

	s.logger.Info("Simulation created",
		log.String("vehicle", cfg.World.Vehicle),
		log.Int("vehicles", len(s.vehicles)),
		log.Int("pedestrians", len(s.pedestrians)),
		log.Int("chunks", len(s.world.Chunks())),
		log.Int("static_colliders", s.world.StaticCount()))
	return s, nil
}

// systems are the frame stages in the order the manager sorts them: step the
// world, drive vehicles, place the camera, then stream chunks for next frame.
func (s *Simulation) systems() []systems.System {
	return []systems.System{
		systems.NewFunc(systemPhysics, systems.PhaseFixedUpdate, systems.PriorityNormal, func(dt float64) error {
			s.world.Step(dt)
			return nil
		}),
		systems.NewFunc(systemVehicles, systems.PhaseUpdate, systems.PriorityNormal, s.updateVehicles),
		systems.NewFunc(systemCamera, systems.PhaseLateUpdate, systems.PriorityNormal, s.updateCamera),
		systems.NewFunc(systemStreaming, systems.PhasePostUpdate, systems.PriorityNormal, func(float64) error {
			return s.streamer.Update(s.player.Body().Position)
		}),
	}
}

func (s *Simulation) updateVehicles(dt float64) error {
	var err error
	if s.engine.Rising(s.input.EngineToggle) {
		s.player.ToggleEngine()
		on := s.player.State().EngineOn
		s.logger.Debug("Engine toggled", log.Bool("on", on))
		err = s.bus.Publish(bus.NewEvent(EventEngineToggled, eventSource,
			EngineToggled{Body: s.player.Body().ID.String(), On: on}, nil))
	}
	for _, v := range s.vehicles {
		var controls vehicle.Controls
		if v == s.player {
			controls = vehicle.ControlsFrom(s.input)
		}
		v.Update(dt, controls, s.world)
	}
	return err
}

func (s *Simulation) updateCamera(dt float64) error {
	s.view = s.probe.Update(dt, camera.TargetOf(s.player.Body()), s.input.Look, s.world)
	// Look is a per-frame delta.
	s.input.Look = input.Look{}
	return nil
}

// SpawnVehicle places a vehicle of the named type with its wheels touching
// the ground below pos.
func (s *Simulation) SpawnVehicle(kind string, pos physics.Vec3) (*vehicle.Vehicle, error) {
	cfg, ok := s.config.Vehicles[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownVehicle, kind)
	}
	pos[1] += cfg.HalfExtents[1] + cfg.SuspensionRestLength + cfg.WheelRadius
	body := vehicle.NewBody(cfg, pos)
	s.world.AddBody(body)

	v := vehicle.New(cfg, body)
	s.vehicles = append(s.vehicles, v)
	s.logger.Debug("Vehicle spawned",
		log.String("kind", kind),
		log.Stringer("body", body.ID))
	err := s.bus.Publish(bus.NewEvent(EventVehicleSpawned, eventSource,
		VehicleSpawned{Body: body.ID.String(), Kind: kind, Position: pos}, nil))
	return v, err
}

// SetStreaming turns chunk streaming around the player on or off. Turning it
// on loads the surrounding chunks immediately; turning it off keeps whatever
// is loaded.
func (s *Simulation) SetStreaming(enabled bool) error {
	if !enabled {
		return s.manager.DisableSystem(systemStreaming)
	}
	if err := s.manager.EnableSystem(systemStreaming); err != nil {
		return err
	}
	return s.streamer.Sync(s.player.Body().Position)
}

// SpawnPedestrian adds a capsule body standing on the ground at pos.
func (s *Simulation) SpawnPedestrian(pos physics.Vec3) *physics.Body {
	pos[1] += pedestrianHeight / 2
	body := physics.NewBody(pedestrianMass, pos, physics.Capsule{Radius: pedestrianRadius, Height: pedestrianHeight})
	s.world.AddBody(body)
	s.pedestrians = append(s.pedestrians, body)
	return body
}

// SetInput replaces the input snapshot consumed by the next frame.
func (s *Simulation) SetInput(in input.Snapshot) {
	s.input = in
}

// Frame advances the simulation by dt seconds, clamped to the configured
// maximum. A non-positive dt is rejected.
func (s *Simulation) Frame(dt float64) error {
	dt = math.Min(dt, s.config.Frame.MaxDeltaTime)
	if err := s.manager.Frame(dt); err != nil {
		return err
	}
	s.elapsed += dt
	return nil
}

func (s *Simulation) World() *physics.World        { return s.world }
func (s *Simulation) Manager() *system.Manager     { return s.manager }
func (s *Simulation) Player() *vehicle.Vehicle     { return s.player }
func (s *Simulation) Vehicles() []*vehicle.Vehicle { return s.vehicles }
func (s *Simulation) Pedestrians() []*physics.Body { return s.pedestrians }
func (s *Simulation) View() camera.View            { return s.view }
func (s *Simulation) Streamer() *Streamer          { return s.streamer }
func (s *Simulation) Elapsed() float64             { return s.elapsed }

// Close detaches the world from the bus and unregisters the frame stages, so
// later frames do nothing.
func (s *Simulation) Close() error {
	var errs []error
	for _, sub := range s.subs {
		errs = append(errs, s.bus.Unsubscribe(sub))
	}
	s.subs = nil
	if s.observer != nil {
		s.bus.RemoveObserver(s.observer)
		s.observer = nil
	}
	for _, name := range s.manager.GetExecutionOrder() {
		errs = append(errs, s.manager.UnregisterSystem(name))
	}
	return errors.Join(errs...)
}
