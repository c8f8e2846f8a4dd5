package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/zeusync/citysim/internal/core/observability/log"
)

// referenceRate is the frame rate the per-step damping fractions are tuned for.
const referenceRate = 60.0

// minAngularSpeed below which orientation integration is skipped.
const minAngularSpeed = 1e-6

// World owns every dynamic body and static collider. It is not safe for
// concurrent use; one frame goroutine drives it.
type World struct {
	config  Config
	bodies  []*Body
	statics *StaticColliders
	logger  log.Log

	respawns uint64
}

func NewWorld(config Config, logger log.Log) *World {
	if logger == nil {
		logger = log.NewNop()
	}
	return &World{
		config:  config,
		statics: NewStaticColliders(),
		logger:  logger.With(log.String("component", "physics")),
	}
}

func (w *World) Config() Config { return w.config }

// AddBody registers a body for integration from the next Step on.
func (w *World) AddBody(b *Body) {
	w.bodies = append(w.bodies, b)
}

// Bodies returns the registered bodies in registration order.
func (w *World) Bodies() []*Body {
	return w.bodies
}

func (w *World) BodyCount() int { return len(w.bodies) }

// AddStaticCollider appends a permanent obstacle. Chunk streaming never touches it.
func (w *World) AddStaticCollider(box AABB) {
	w.statics.Add(box)
}

// LoadChunk replaces the colliders owned by a streaming chunk.
func (w *World) LoadChunk(key ChunkKey, boxes []AABB) {
	w.statics.ReplaceChunk(key, boxes)
	w.logger.Debug("Chunk colliders loaded",
		log.Stringer("chunk", key),
		log.Int("colliders", len(boxes)))
}

// UnloadChunk drops the colliders owned by a streaming chunk.
func (w *World) UnloadChunk(key ChunkKey) int {
	n := w.statics.RemoveChunk(key)
	w.logger.Debug("Chunk colliders unloaded",
		log.Stringer("chunk", key),
		log.Int("colliders", n))
	return n
}

// EachStatic visits static colliders in insertion order until fn returns false.
func (w *World) EachStatic(fn func(AABB) bool) {
	for _, box := range w.statics.All() {
		if !fn(box) {
			return
		}
	}
}

// StaticColliders returns the shared read-only collider view.
func (w *World) StaticColliders() []AABB {
	return w.statics.All()
}

func (w *World) StaticCount() int { return w.statics.Len() }

func (w *World) Chunks() []ChunkKey { return w.statics.Chunks() }

// Respawns counts void-guard teleports since the world was created.
func (w *World) Respawns() uint64 { return w.respawns }

// Step advances every dynamic body by dt, split into equal substeps. Each
// substep integrates and then resolves collisions once. dt must be positive.
func (w *World) Step(dt float64) {
	substeps := w.config.Substeps
	if substeps <= 0 {
		substeps = 1
	}
	sub := dt / float64(substeps)
	for i := 0; i < substeps; i++ {
		for _, b := range w.bodies {
			if !b.IsDynamic() {
				continue
			}
			w.substep(b, sub)
		}
	}
}

func (w *World) substep(b *Body, dt float64) {
	if b.Position[1] < w.config.VoidFloor {
		w.respawn(b)
		return
	}
	w.integrate(b, dt)
	w.resolve(b)
}

func (w *World) respawn(b *Body) {
	w.respawns++
	w.logger.Debug("Body fell out of world, respawning",
		log.Stringer("body", b.ID),
		log.Float64("y", b.Position[1]))
	b.Position = w.config.RespawnPoint
	b.Velocity = Vec3{}
}

func (w *World) integrate(b *Body, dt float64) {
	b.Velocity = b.Velocity.Add(w.config.Gravity.Mul(dt))

	damping := w.config.AirborneDamping
	if b.IsGrounded {
		damping = w.config.GroundedDamping
	}
	b.Velocity = b.Velocity.Mul(clamp01(1 - damping*dt*referenceRate))
	b.AngularVelocity = b.AngularVelocity.Mul(clamp01(1 - w.config.AngularDamping*dt))

	b.Position = b.Position.Add(b.Velocity.Mul(dt))

	speed := b.AngularVelocity.Len()
	if speed < minAngularSpeed {
		return
	}
	spin := mgl64.QuatRotate(speed*dt, b.AngularVelocity.Mul(1/speed))
	b.Orientation = spin.Mul(b.Orientation).Normalize()
}

func (w *World) resolve(b *Body) {
	b.IsGrounded = false
	switch c := b.Collider.(type) {
	case Capsule:
		w.resolveCapsule(b, c)
	case *Capsule:
		w.resolveCapsule(b, *c)
	case Box:
		w.resolveBox(b, c)
	case *Box:
		w.resolveBox(b, *c)
	}
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
