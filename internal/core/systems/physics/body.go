package physics

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

// Body is the physical state of one dynamic actor.
type Body struct {
	ID uuid.UUID

	// Mass in kg. Zero marks a static or kinematic body that Step leaves untouched.
	Mass float64

	Position        Vec3
	Velocity        Vec3
	Orientation     Quat
	AngularVelocity Vec3

	Collider Collider

	// IsGrounded is rewritten by every substep.
	IsGrounded bool
	// IsSleeping is owned by callers; the world never reads or writes it.
	IsSleeping bool
}

// NewBody returns an upright body at rest.
func NewBody(mass float64, position Vec3, collider Collider) *Body {
	return &Body{
		ID:          uuid.New(),
		Mass:        mass,
		Position:    position,
		Orientation: mgl64.QuatIdent(),
		Collider:    collider,
	}
}

func (b *Body) IsDynamic() bool { return b.Mass > 0 }

// Bounds is the world-space AABB of the collider.
func (b *Body) Bounds() AABB {
	return NewAABB(b.Position, b.Collider.LocalHalfExtents())
}

// LocalToWorld transforms a body-space point.
func (b *Body) LocalToWorld(p Vec3) Vec3 {
	return b.Position.Add(b.Orientation.Rotate(p))
}

// Forward is body +Z in world space.
func (b *Body) Forward() Vec3 { return b.Orientation.Rotate(Vec3{0, 0, 1}) }

// Right is the driver's right, Forward x Up, which is body -X in world space.
func (b *Body) Right() Vec3 { return b.Orientation.Rotate(Vec3{-1, 0, 0}) }

// BodyUp is body +Y in world space.
func (b *Body) BodyUp() Vec3 { return b.Orientation.Rotate(Up) }

// PointVelocity is the velocity of a world-space point rigidly attached to the body.
func (b *Body) PointVelocity(p Vec3) Vec3 {
	return b.Velocity.Add(b.AngularVelocity.Cross(p.Sub(b.Position)))
}
