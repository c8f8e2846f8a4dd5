// Package vehicle implements raycast suspension, tire grip and drivetrain
// forces for four-wheeled bodies.
package vehicle

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/zeusync/citysim/internal/core/input"
	"github.com/zeusync/citysim/internal/core/systems/physics"
	"github.com/zeusync/citysim/pkg/generic"
)

const (
	steerResponse   = 5.0
	steerFalloff    = 20.0
	slideSlip       = 5.0
	torqueFalloff   = 60.0
	maxTorqueLoss   = 0.8
	hardStopSpeed   = 1.0
	hardStopDamping = 10.0
)

// Controls is the driver request for one update.
type Controls struct {
	Throttle float64
	Steer    float64
	Brake    bool
}

// ControlsFrom maps a digital input snapshot onto analog controls.
func ControlsFrom(s input.Snapshot) Controls {
	return Controls{
		Throttle: s.ThrottleAxis(),
		Steer:    s.SteerAxis(),
		Brake:    s.Brake,
	}
}

// Force is an impulse source: a world-space force applied at a world-space point.
type Force struct {
	Point Vec3
	Force Vec3
}

type Vec3 = physics.Vec3

// WheelState is the per-wheel output handed to the renderer each frame.
type WheelState struct {
	Front bool `json:"front"`
	// Mount is the suspension attachment point in body space.
	Mount Vec3 `json:"mount"`

	Grounded        bool    `json:"grounded"`
	Compression     float64 `json:"compression"`
	Travel          float64 `json:"travel"`
	SteerAngle      float64 `json:"steer_angle"`
	SpinAngle       float64 `json:"spin_angle"`
	SuspensionForce float64 `json:"suspension_force"`
	Contact         Vec3    `json:"contact"`
}

// State is the driver-facing runtime state.
type State struct {
	SteeringAngle float64 `json:"steering_angle"`
	Speed         float64 `json:"speed"`
	EngineOn      bool    `json:"engine_on"`
}

var forcePool = generic.NewHotPool(func() *[]Force {
	buf := make([]Force, 0, 12)
	return &buf
}, 4).WithReset(func(buf *[]Force) { *buf = (*buf)[:0] })

// Vehicle drives one body. It never touches any other body.
type Vehicle struct {
	config Config
	body   *physics.Body
	wheels [4]WheelState
	state  State
}

// NewBody builds the chassis body for a config at position.
func NewBody(cfg Config, position Vec3) *physics.Body {
	return physics.NewBody(cfg.Mass, position, physics.Box{HalfExtents: cfg.HalfExtents})
}

// New attaches vehicle dynamics to body. The engine starts running.
func New(cfg Config, body *physics.Body) *Vehicle {
	v := &Vehicle{
		config: cfg,
		body:   body,
		state:  State{EngineOn: true},
	}
	y := -cfg.HalfExtents[1]
	mounts := [4]struct {
		x, z  float64
		front bool
	}{
		{-cfg.WheelTrack, cfg.WheelBase, true},
		{cfg.WheelTrack, cfg.WheelBase, true},
		{-cfg.WheelTrack, -cfg.WheelBase, false},
		{cfg.WheelTrack, -cfg.WheelBase, false},
	}
	for i, m := range mounts {
		v.wheels[i] = WheelState{
			Front:  m.front,
			Mount:  Vec3{m.x, y, m.z},
			Travel: cfg.SuspensionRestLength,
		}
	}
	return v
}

func (v *Vehicle) Config() Config        { return v.config }
func (v *Vehicle) Body() *physics.Body   { return v.body }
func (v *Vehicle) State() State          { return v.state }
func (v *Vehicle) Wheels() [4]WheelState { return v.wheels }

func (v *Vehicle) SetEngineOn(on bool) { v.state.EngineOn = on }

func (v *Vehicle) ToggleEngine() { v.state.EngineOn = !v.state.EngineOn }

// GroundedWheels counts wheels whose ray found a surface on the last update.
func (v *Vehicle) GroundedWheels() int {
	n := 0
	for _, w := range v.wheels {
		if w.Grounded {
			n++
		}
	}
	return n
}

// Update computes wheel forces from the current body state and applies them
// as impulses. dt must be positive.
func (v *Vehicle) Update(dt float64, controls Controls, ray physics.Raycaster) {
	b := v.body
	v.state.Speed = b.Velocity.Dot(b.Forward())
	v.steer(dt, controls.Steer)

	buf := forcePool.Get()
	forces := (*buf)[:0]
	for i := range v.wheels {
		forces = v.wheelForces(&v.wheels[i], dt, controls, ray, forces)
	}
	v.apply(forces, dt)
	*buf = forces
	forcePool.Put(buf)

	if controls.Brake && math.Abs(v.state.Speed) < hardStopSpeed {
		k := 1 - math.Min(1, hardStopDamping*dt)
		b.Velocity[0] *= k
		b.Velocity[2] *= k
	}

	speed := b.Velocity.Len()
	b.Velocity = b.Velocity.Add(b.Velocity.Mul(-v.config.DragCoefficient * speed * dt))
}

func (v *Vehicle) steer(dt, input float64) {
	target := input * v.config.MaxSteerAngle / (1 + math.Abs(v.state.Speed)/steerFalloff)
	v.state.SteeringAngle += (target - v.state.SteeringAngle) * math.Min(steerResponse*dt, 1)
}

func (v *Vehicle) wheelForces(w *WheelState, dt float64, c Controls, ray physics.Raycaster, out []Force) []Force {
	cfg := v.config
	b := v.body
	mount := b.LocalToWorld(w.Mount)

	w.SteerAngle = 0
	if w.Front {
		w.SteerAngle = v.state.SteeringAngle
	}

	hit, ok := ray.Raycast(mount, physics.Vec3{0, -1, 0}, cfg.SuspensionRestLength+cfg.WheelRadius)
	if !ok {
		w.Grounded = false
		w.Compression = 0
		w.Travel = cfg.SuspensionRestLength
		w.SuspensionForce = 0
		w.Contact = mount.Sub(physics.Up.Mul(cfg.SuspensionRestLength + cfg.WheelRadius))
		return out
	}

	w.Grounded = true
	w.Contact = hit.Point
	w.Travel = hit.Distance - cfg.WheelRadius
	w.Compression = mgl64.Clamp(1-w.Travel/cfg.SuspensionRestLength, 0, 1)

	contactVel := b.PointVelocity(hit.Point)
	spring := w.Compression * cfg.SuspensionStiffness
	damp := -contactVel[1] * cfg.SuspensionDamping
	load := math.Max(0, spring+damp)
	w.SuspensionForce = load
	out = append(out, Force{Point: mount, Force: physics.Up.Mul(load)})

	forward, right := b.Forward(), b.Right()
	if w.Front {
		// Positive steering turns right, clockwise seen from above.
		yaw := mgl64.QuatRotate(-w.SteerAngle, b.BodyUp())
		forward = yaw.Rotate(forward)
		right = yaw.Rotate(right)
	}

	latVel := contactVel.Dot(right)
	grip := cfg.LateralFriction * load
	if c.Brake && math.Abs(latVel) > slideSlip {
		grip *= 0.5
	}
	out = append(out, Force{Point: mount, Force: right.Mul(-latVel * grip)})

	fwdVel := contactVel.Dot(forward)
	w.SpinAngle = math.Mod(w.SpinAngle+fwdVel*dt/cfg.WheelRadius, 2*math.Pi)

	long := v.longitudinal(w.Front, fwdVel, dt, c)
	limit := cfg.LongitudinalFriction * load
	long = mgl64.Clamp(long, -limit, limit)
	if long != 0 {
		out = append(out, Force{Point: mount, Force: forward.Mul(long)})
	}
	return out
}

// longitudinal returns the signed drive, brake or rolling force along the
// tire's forward axis. Opposing forces never exceed what stops the wheel's
// share of the mass within one update.
func (v *Vehicle) longitudinal(front bool, fwdVel, dt float64, c Controls) float64 {
	cfg := v.config
	stopping := math.Abs(fwdVel) * cfg.Mass / (float64(len(v.wheels)) * dt)
	oppose := func(magnitude float64) float64 {
		if fwdVel == 0 {
			return 0
		}
		return -math.Copysign(math.Min(magnitude, stopping), fwdVel)
	}

	force := 0.0
	if v.state.EngineOn {
		if c.Throttle != 0 && cfg.Drivetrain.Drives(front) {
			falloff := math.Min(math.Abs(fwdVel)/torqueFalloff, maxTorqueLoss)
			force += c.Throttle * cfg.EnginePower * (1 - falloff)
		}
	} else {
		force += oppose(cfg.RollingResistance)
	}
	if c.Brake {
		force += oppose(cfg.BrakeForce)
	}
	return force
}

// apply turns accumulated forces into linear and angular velocity changes.
func (v *Vehicle) apply(forces []Force, dt float64) {
	b := v.body
	m := v.config.Mass
	for _, f := range forces {
		b.Velocity = b.Velocity.Add(f.Force.Mul(dt / m))
		torque := f.Point.Sub(b.Position).Cross(f.Force)
		b.AngularVelocity = b.AngularVelocity.Add(v.angularImpulse(torque, dt))
	}
}

func (v *Vehicle) angularImpulse(torque Vec3, dt float64) Vec3 {
	m := v.config.Mass
	if v.config.InertiaModel != InertiaBox {
		return torque.Mul(dt / (2 * m))
	}
	h := v.config.HalfExtents
	inertia := Vec3{
		m / 3 * (h[1]*h[1] + h[2]*h[2]),
		m / 3 * (h[0]*h[0] + h[2]*h[2]),
		m / 3 * (h[0]*h[0] + h[1]*h[1]),
	}
	q := v.body.Orientation
	local := q.Conjugate().Rotate(torque)
	local = Vec3{local[0] / inertia[0], local[1] / inertia[1], local[2] / inertia[2]}
	return q.Rotate(local).Mul(dt)
}
