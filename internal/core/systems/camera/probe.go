// Package camera keeps a third-person orbit camera out of static geometry.
package camera

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/zeusync/citysim/internal/core/input"
	"github.com/zeusync/citysim/internal/core/systems/physics"
)

// StaticSource iterates static colliders. physics.World satisfies it.
type StaticSource interface {
	EachStatic(fn func(physics.AABB) bool)
}

var _ StaticSource = (*physics.World)(nil)

// Target is the pose the camera follows.
type Target struct {
	Position    physics.Vec3
	Orientation physics.Quat
}

// TargetOf follows a body.
func TargetOf(b *physics.Body) Target {
	return Target{Position: b.Position, Orientation: b.Orientation}
}

// View is the smoothed camera output for one frame.
type View struct {
	Position physics.Vec3 `json:"position"`
	LookAt   physics.Vec3 `json:"look_at"`
	// Distance from the pivot to the resolved, unsmoothed camera position.
	Distance float64 `json:"distance"`
	Occluded bool    `json:"occluded"`
	Yaw      float64 `json:"yaw"`
	Pitch    float64 `json:"pitch"`
}

// Probe accumulates orbit input and resolves occlusion each frame.
type Probe struct {
	config Config
	yaw    float64
	pitch  float64
	view   View
	primed bool
}

func NewProbe(config Config) *Probe {
	return &Probe{
		config: config,
		pitch:  mgl64.Clamp(config.DefaultPitch, config.PitchMin, config.PitchMax),
	}
}

func (p *Probe) Config() Config { return p.config }

func (p *Probe) View() View { return p.view }

// Reset makes the next update snap instead of smoothing.
func (p *Probe) Reset() { p.primed = false }

// Update applies look input, casts from the pivot toward the desired camera
// position and eases the output toward the result.
func (p *Probe) Update(dt float64, target Target, look input.Look, statics StaticSource) View {
	cfg := p.config
	p.yaw += look.Yaw
	p.pitch = mgl64.Clamp(p.pitch+look.Pitch, cfg.PitchMin, cfg.PitchMax)

	fwd := target.Orientation.Rotate(physics.Vec3{0, 0, 1})
	azimuth := math.Atan2(fwd[0], fwd[2]) + p.yaw
	cosPitch := math.Cos(p.pitch)
	dir := physics.Vec3{
		-math.Sin(azimuth) * cosPitch,
		math.Sin(p.pitch),
		-math.Cos(azimuth) * cosPitch,
	}

	pivot := target.Position.Add(physics.Up.Mul(cfg.PivotHeight))
	distance, occluded := p.resolve(pivot, dir, statics)
	desired := pivot.Add(dir.Mul(distance))

	if !p.primed {
		p.view.Position = desired
		p.view.LookAt = pivot
		p.primed = true
	} else {
		k := 1 - math.Pow(cfg.SmoothBase, dt)
		p.view.Position = p.view.Position.Add(desired.Sub(p.view.Position).Mul(k))
		p.view.LookAt = p.view.LookAt.Add(pivot.Sub(p.view.LookAt).Mul(k))
	}
	p.view.Distance = distance
	p.view.Occluded = occluded
	p.view.Yaw = p.yaw
	p.view.Pitch = p.pitch
	return p.view
}

// resolve returns how far along dir the camera may sit. Boxes that contain
// the pivot are ignored.
func (p *Probe) resolve(pivot, dir physics.Vec3, statics StaticSource) (float64, bool) {
	cfg := p.config
	nearest := cfg.Distance
	hit := false
	if statics != nil {
		statics.EachStatic(func(box physics.AABB) bool {
			if t, _, ok := box.RayIntersect(pivot, dir, nearest); ok && t < nearest {
				nearest = t
				hit = true
			}
			return true
		})
	}
	if !hit {
		return cfg.Distance, false
	}
	return math.Max(nearest-cfg.Inset, cfg.MinDistance), true
}
