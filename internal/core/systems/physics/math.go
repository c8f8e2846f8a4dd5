package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

type (
	Vec3 = mgl64.Vec3
	Quat = mgl64.Quat
)

const epsilon = 1e-9

// Up is world +Y. Gravity, suspension and the ground plane normal use it.
var Up = Vec3{0, 1, 0}

// AABB is an axis-aligned box in world space.
type AABB struct {
	Min Vec3 `json:"min" yaml:"min"`
	Max Vec3 `json:"max" yaml:"max"`
}

// NewAABB builds a box from its center and half extents.
func NewAABB(center, half Vec3) AABB {
	return AABB{Min: center.Sub(half), Max: center.Add(half)}
}

func (b AABB) Center() Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

func (b AABB) HalfExtents() Vec3 {
	return b.Max.Sub(b.Min).Mul(0.5)
}

// Intersects reports strict overlap; boxes that only touch do not intersect.
func (b AABB) Intersects(o AABB) bool {
	return b.Min[0] < o.Max[0] && b.Max[0] > o.Min[0] &&
		b.Min[1] < o.Max[1] && b.Max[1] > o.Min[1] &&
		b.Min[2] < o.Max[2] && b.Max[2] > o.Min[2]
}

// Overlap returns the extents of the intersection volume on each axis.
// Components are negative when the boxes are separated on that axis.
func (b AABB) Overlap(o AABB) Vec3 {
	return Vec3{
		math.Min(b.Max[0], o.Max[0]) - math.Max(b.Min[0], o.Min[0]),
		math.Min(b.Max[1], o.Max[1]) - math.Max(b.Min[1], o.Min[1]),
		math.Min(b.Max[2], o.Max[2]) - math.Max(b.Min[2], o.Min[2]),
	}
}

func (b AABB) ContainsPoint(p Vec3) bool {
	return p[0] >= b.Min[0] && p[0] <= b.Max[0] &&
		p[1] >= b.Min[1] && p[1] <= b.Max[1] &&
		p[2] >= b.Min[2] && p[2] <= b.Max[2]
}

// RayIntersect runs a slab test of the ray origin + t*dir against the box.
// dir must be normalized. Rays starting inside the box report no hit, so a
// probe standing in a collider is not blocked by it.
func (b AABB) RayIntersect(origin, dir Vec3, maxLength float64) (float64, Vec3, bool) {
	tEnter := math.Inf(-1)
	tExit := math.Inf(1)
	enterAxis := -1

	for axis := 0; axis < 3; axis++ {
		o, d := origin[axis], dir[axis]
		if math.Abs(d) < epsilon {
			if o < b.Min[axis] || o > b.Max[axis] {
				return 0, Vec3{}, false
			}
			continue
		}
		t1 := (b.Min[axis] - o) / d
		t2 := (b.Max[axis] - o) / d
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > tEnter {
			tEnter = t1
			enterAxis = axis
		}
		if t2 < tExit {
			tExit = t2
		}
		if tEnter > tExit {
			return 0, Vec3{}, false
		}
	}

	if enterAxis < 0 || tEnter < 0 || tEnter > maxLength {
		return 0, Vec3{}, false
	}

	var normal Vec3
	if dir[enterAxis] > 0 {
		normal[enterAxis] = -1
	} else {
		normal[enterAxis] = 1
	}
	return tEnter, normal, true
}

// minAxis returns the index of the smallest component of v.
func minAxis(v Vec3) int {
	axis := 0
	if v[1] < v[axis] {
		axis = 1
	}
	if v[2] < v[axis] {
		axis = 2
	}
	return axis
}
