package vehicle

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeusync/citysim/internal/core/input"
	"github.com/zeusync/citysim/internal/core/systems/physics"
)

const frame = 1.0 / 60.0

type noGround struct{}

func (noGround) Raycast(physics.Vec3, physics.Vec3, float64) (physics.Hit, bool) {
	return physics.Hit{}, false
}

func sedan(t *testing.T) Config {
	t.Helper()
	cfg, err := Preset("sedan")
	require.NoError(t, err)
	return cfg
}

// restHeight is the chassis height at which the wheels just touch the ground
// with the springs fully extended.
func restHeight(cfg Config) float64 {
	return cfg.HalfExtents[1] + cfg.SuspensionRestLength + cfg.WheelRadius
}

func spawn(w *physics.World, cfg Config, pos physics.Vec3) *Vehicle {
	body := NewBody(cfg, pos)
	w.AddBody(body)
	return New(cfg, body)
}

func run(w *physics.World, v *Vehicle, frames int, c Controls) {
	for i := 0; i < frames; i++ {
		w.Step(frame)
		v.Update(frame, c, w)
	}
}

func forwardSpeed(v *Vehicle) float64 {
	return v.Body().Velocity.Dot(v.Body().Forward())
}

func TestSuspensionSettlesAtEquilibrium(t *testing.T) {
	w := physics.NewWorld(physics.DefaultConfig(), nil)
	cfg := sedan(t)
	v := spawn(w, cfg, physics.Vec3{0, restHeight(cfg), 0})

	run(w, v, 600, Controls{})

	weight := cfg.Mass * -w.Config().Gravity[1]
	expected := weight / 4 / cfg.SuspensionStiffness

	total := 0.0
	for i, wheel := range v.Wheels() {
		assert.True(t, wheel.Grounded, "wheel %d", i)
		assert.InDelta(t, expected, wheel.Compression, 0.03, "wheel %d", i)
		total += wheel.SuspensionForce
	}
	assert.InEpsilon(t, weight, total, 0.02)
	assert.InDelta(t, 0, v.Body().Velocity[1], 0.5)
	assert.InDelta(t, 0, v.Body().AngularVelocity.Len(), 1e-6)
	assert.False(t, v.Body().IsGrounded, "chassis should float on its springs")
}

func TestThrottleAcceleratesFromRest(t *testing.T) {
	for _, name := range []string{"sedan", "truck", "sport"} {
		t.Run(name, func(t *testing.T) {
			w := physics.NewWorld(physics.DefaultConfig(), nil)
			cfg, err := Preset(name)
			require.NoError(t, err)
			v := spawn(w, cfg, physics.Vec3{0, restHeight(cfg), 0})
			run(w, v, 120, Controls{})

			v.Body().Velocity = physics.Vec3{}
			v.Body().AngularVelocity = physics.Vec3{}
			require.True(t, v.State().EngineOn)

			last := forwardSpeed(v)
			for i := 0; i < 20; i++ {
				run(w, v, 1, Controls{Throttle: 1})
				speed := forwardSpeed(v)
				require.Greater(t, speed, last, "frame %d", i)
				last = speed
			}
		})
	}
}

func TestEngineOffProducesNoDrive(t *testing.T) {
	w := physics.NewWorld(physics.DefaultConfig(), nil)
	cfg := sedan(t)
	v := spawn(w, cfg, physics.Vec3{0, restHeight(cfg), 0})
	run(w, v, 120, Controls{})

	v.SetEngineOn(false)
	v.Body().Velocity = physics.Vec3{}
	run(w, v, 30, Controls{Throttle: 1})
	assert.InDelta(t, 0, forwardSpeed(v), 1e-3)
}

func TestRollingResistanceAndBrakeSlowTheCar(t *testing.T) {
	coast := func(on bool, brake bool) float64 {
		w := physics.NewWorld(physics.DefaultConfig(), nil)
		cfg := sedan(t)
		v := spawn(w, cfg, physics.Vec3{0, restHeight(cfg), 0})
		run(w, v, 120, Controls{})
		v.SetEngineOn(on)
		v.Body().Velocity = physics.Vec3{0, 0, 15}
		run(w, v, 30, Controls{Brake: brake})
		return forwardSpeed(v)
	}

	rolling := coast(false, false)
	freewheel := coast(true, false)
	braking := coast(true, true)

	assert.Less(t, rolling, freewheel)
	assert.Less(t, braking, rolling)
	assert.GreaterOrEqual(t, braking, -0.1, "brakes must not reverse the car")
}

func TestHardStopHoldsTheCar(t *testing.T) {
	w := physics.NewWorld(physics.DefaultConfig(), nil)
	cfg := sedan(t)
	v := spawn(w, cfg, physics.Vec3{0, restHeight(cfg), 0})
	run(w, v, 120, Controls{})

	v.Body().Velocity = physics.Vec3{0.3, 0, 0.5}
	run(w, v, 60, Controls{Brake: true})

	horizontal := math.Hypot(v.Body().Velocity[0], v.Body().Velocity[2])
	assert.Less(t, horizontal, 0.01)
}

func TestSteeringLowPassFilter(t *testing.T) {
	cfg := sedan(t)
	v := New(cfg, NewBody(cfg, physics.Vec3{0, 5, 0}))

	v.Update(frame, Controls{Steer: 1}, noGround{})
	assert.InDelta(t, cfg.MaxSteerAngle*steerResponse*frame, v.State().SteeringAngle, 1e-9)

	for i := 0; i < 300; i++ {
		v.Body().Velocity = physics.Vec3{}
		v.Update(frame, Controls{Steer: 1}, noGround{})
	}
	assert.InDelta(t, cfg.MaxSteerAngle, v.State().SteeringAngle, 1e-3)

	wheels := v.Wheels()
	assert.Equal(t, v.State().SteeringAngle, wheels[0].SteerAngle)
	assert.Equal(t, v.State().SteeringAngle, wheels[1].SteerAngle)
	assert.Zero(t, wheels[2].SteerAngle)
	assert.Zero(t, wheels[3].SteerAngle)
}

func TestSteeringNarrowsWithSpeed(t *testing.T) {
	cfg := sedan(t)
	v := New(cfg, NewBody(cfg, physics.Vec3{0, 5, 0}))

	for i := 0; i < 300; i++ {
		v.Body().Velocity = physics.Vec3{0, 0, 20}
		v.Update(frame, Controls{Steer: -1}, noGround{})
	}
	assert.InDelta(t, -cfg.MaxSteerAngle/2, v.State().SteeringAngle, 1e-2)
}

func TestSteerRightTurnsClockwise(t *testing.T) {
	w := physics.NewWorld(physics.DefaultConfig(), nil)
	cfg := sedan(t)
	v := spawn(w, cfg, physics.Vec3{0, restHeight(cfg), 0})
	run(w, v, 60, Controls{})

	start := v.Body().Position
	right := v.Body().Forward().Cross(physics.Up)
	run(w, v, 180, Controls{Throttle: 1, Steer: 1})

	moved := v.Body().Position.Sub(start)
	assert.Greater(t, moved.Dot(right), 1.0)
	assert.Less(t, v.Body().AngularVelocity[1], 0.0, "yaw is clockwise seen from above")
}

func TestAirborneWheelsHangAtRestLength(t *testing.T) {
	cfg := sedan(t)
	v := New(cfg, NewBody(cfg, physics.Vec3{0, 5, 0}))
	v.Update(frame, Controls{Throttle: 1}, noGround{})

	for _, wheel := range v.Wheels() {
		assert.False(t, wheel.Grounded)
		assert.Zero(t, wheel.Compression)
		assert.Equal(t, cfg.SuspensionRestLength, wheel.Travel)
		assert.Zero(t, wheel.SuspensionForce)
	}
	assert.Equal(t, 0, v.GroundedWheels())
}

func TestElevatedStaticBox(t *testing.T) {
	deck := physics.NewAABB(physics.Vec3{0, 1, 0}, physics.Vec3{6, 1, 6})

	t.Run("ground only raycast", func(t *testing.T) {
		w := physics.NewWorld(physics.DefaultConfig(), nil)
		w.AddStaticCollider(deck)
		cfg := sedan(t)
		v := spawn(w, cfg, physics.Vec3{0, deck.Max[1] + restHeight(cfg), 0})

		run(w, v, 240, Controls{})

		// The wheels never see the deck, so the chassis rests on it directly.
		assert.Equal(t, 0, v.GroundedWheels())
		assert.InDelta(t, deck.Max[1]+cfg.HalfExtents[1], v.Body().Position[1], 0.05)
	})

	t.Run("raycast statics", func(t *testing.T) {
		pc := physics.DefaultConfig()
		pc.RaycastStatics = true
		w := physics.NewWorld(pc, nil)
		w.AddStaticCollider(deck)
		cfg := sedan(t)
		v := spawn(w, cfg, physics.Vec3{0, deck.Max[1] + restHeight(cfg), 0})

		run(w, v, 600, Controls{})

		assert.Equal(t, 4, v.GroundedWheels())
		assert.Greater(t, v.Body().Position[1], deck.Max[1]+cfg.HalfExtents[1]+0.3)
		for _, wheel := range v.Wheels() {
			assert.InDelta(t, deck.Max[1], wheel.Contact[1], 1e-9)
		}
	})
}

func TestAngularImpulseModels(t *testing.T) {
	cfg := sedan(t)
	force := []Force{{Point: physics.Vec3{1, 0, 0}, Force: physics.Vec3{0, 0, 100}}}
	torqueY := -100.0

	scalar := New(cfg, NewBody(cfg, physics.Vec3{}))
	scalar.apply(force, frame)
	assert.InDelta(t, torqueY*frame/(2*cfg.Mass), scalar.Body().AngularVelocity[1], 1e-12)
	assert.InDelta(t, 100*frame/cfg.Mass, scalar.Body().Velocity[2], 1e-12)

	cfg.InertiaModel = InertiaBox
	box := New(cfg, NewBody(cfg, physics.Vec3{}))
	box.apply(force, frame)
	h := cfg.HalfExtents
	iy := cfg.Mass / 3 * (h[0]*h[0] + h[2]*h[2])
	assert.InDelta(t, torqueY*frame/iy, box.Body().AngularVelocity[1], 1e-12)
	assert.InDelta(t, 0, box.Body().AngularVelocity[0], 1e-12)
	assert.InDelta(t, 0, box.Body().AngularVelocity[2], 1e-12)
}

func TestBoxInertiaFollowsOrientation(t *testing.T) {
	cfg := sedan(t)
	cfg.InertiaModel = InertiaBox
	body := NewBody(cfg, physics.Vec3{})
	body.Orientation = mgl64.QuatRotate(math.Pi/2, physics.Up)
	v := New(cfg, body)

	// A world-space yaw torque is body-space yaw torque for any heading.
	v.apply([]Force{{Point: physics.Vec3{1, 0, 0}, Force: physics.Vec3{0, 0, 100}}}, frame)
	h := cfg.HalfExtents
	iy := cfg.Mass / 3 * (h[0]*h[0] + h[2]*h[2])
	assert.InDelta(t, -100*frame/iy, body.AngularVelocity[1], 1e-9)
}

func TestControlsFromSnapshot(t *testing.T) {
	c := ControlsFrom(input.Snapshot{Throttle: true, Brake: true, SteerLeft: true})
	assert.Equal(t, Controls{Throttle: 1, Steer: -1, Brake: true}, c)
}
