package physics

// ColliderKind tags the Collider variant.
type ColliderKind uint8

const (
	KindCapsule ColliderKind = iota
	KindBox
)

func (k ColliderKind) String() string {
	switch k {
	case KindCapsule:
		return "capsule"
	case KindBox:
		return "box"
	default:
		return "unknown"
	}
}

// Collider is the shape attached to a body. Only Capsule and Box exist; the
// resolver switches on the concrete type.
type Collider interface {
	Kind() ColliderKind
	// LocalHalfExtents bounds the shape around the body position, ignoring orientation.
	LocalHalfExtents() Vec3
}

// Capsule is resolved as an upright cylinder that can climb steps.
// Height is the full height of the shape.
type Capsule struct {
	Radius float64 `json:"radius" yaml:"radius"`
	Height float64 `json:"height" yaml:"height"`
}

func (c Capsule) Kind() ColliderKind { return KindCapsule }

func (c Capsule) HalfHeight() float64 { return c.Height * 0.5 }

func (c Capsule) LocalHalfExtents() Vec3 {
	return Vec3{c.Radius, c.HalfHeight(), c.Radius}
}

// Box is resolved as an axis-aligned box; body orientation is ignored.
type Box struct {
	HalfExtents Vec3 `json:"half_extents" yaml:"half_extents"`
}

func (b Box) Kind() ColliderKind { return KindBox }

func (b Box) LocalHalfExtents() Vec3 { return b.HalfExtents }
