package sim

import (
	"github.com/zeusync/citysim/internal/core/systems/camera"
	"github.com/zeusync/citysim/internal/core/systems/physics"
	"github.com/zeusync/citysim/internal/core/systems/vehicle"
)

// Snapshot is the per-frame state handed to the rendering collaborator. It
// shares no memory with the simulation and may cross goroutines.
type Snapshot struct {
	Frame   uint64  `json:"frame"`
	Elapsed float64 `json:"elapsed"`
	Digest  uint64  `json:"digest"`

	Bodies   []BodySnapshot    `json:"bodies"`
	Vehicles []VehicleSnapshot `json:"vehicles"`
	Camera   camera.View       `json:"camera"`

	Chunks          []physics.ChunkKey `json:"chunks"`
	StaticColliders int                `json:"static_colliders"`
	Respawns        uint64             `json:"respawns"`
}

type BodySnapshot struct {
	ID       string       `json:"id"`
	Kind     string       `json:"kind"`
	Position physics.Vec3 `json:"position"`
	Velocity physics.Vec3 `json:"velocity"`
	// Orientation is x, y, z, w.
	Orientation [4]float64 `json:"orientation"`
	Grounded    bool       `json:"grounded"`
}

type VehicleSnapshot struct {
	Body   string                `json:"body"`
	Name   string                `json:"name"`
	Player bool                  `json:"player"`
	State  vehicle.State         `json:"state"`
	Wheels [4]vehicle.WheelState `json:"wheels"`
}

func (s *Simulation) Snapshot() Snapshot {
	bodies := s.world.Bodies()
	snap := Snapshot{
		Frame:           s.manager.FrameCount(),
		Elapsed:         s.elapsed,
		Digest:          s.world.StateDigest(),
		Bodies:          make([]BodySnapshot, 0, len(bodies)),
		Vehicles:        make([]VehicleSnapshot, 0, len(s.vehicles)),
		Camera:          s.view,
		Chunks:          s.world.Chunks(),
		StaticColliders: s.world.StaticCount(),
		Respawns:        s.world.Respawns(),
	}
	for _, b := range bodies {
		q := b.Orientation
		snap.Bodies = append(snap.Bodies, BodySnapshot{
			ID:          b.ID.String(),
			Kind:        b.Collider.Kind().String(),
			Position:    b.Position,
			Velocity:    b.Velocity,
			Orientation: [4]float64{q.V[0], q.V[1], q.V[2], q.W},
			Grounded:    b.IsGrounded,
		})
	}
	for _, v := range s.vehicles {
		snap.Vehicles = append(snap.Vehicles, VehicleSnapshot{
			Body:   v.Body().ID.String(),
			Name:   v.Config().Name,
			Player: v == s.player,
			State:  v.State(),
			Wheels: v.Wheels(),
		})
	}
	return snap
}
