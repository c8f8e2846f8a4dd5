package physics

import "math"

// Hit describes the nearest intersection found by a raycast.
type Hit struct {
	Distance float64
	Point    Vec3
	Normal   Vec3
}

// Raycaster is the query surface other systems use against the world.
type Raycaster interface {
	Raycast(origin, direction Vec3, maxLength float64) (Hit, bool)
}

var _ Raycaster = (*World)(nil)

// Raycast returns the nearest hit within maxLength along direction. Only the
// ground plane y=0 is tested unless Config.RaycastStatics is set. A zero
// direction never hits.
func (w *World) Raycast(origin, direction Vec3, maxLength float64) (Hit, bool) {
	length := direction.Len()
	if length < epsilon || maxLength <= 0 {
		return Hit{}, false
	}
	dir := direction.Mul(1 / length)

	best, found := raycastGround(origin, dir, maxLength)
	if !w.config.RaycastStatics {
		return best, found
	}

	for _, box := range w.statics.All() {
		limit := maxLength
		if found {
			limit = best.Distance
		}
		t, normal, ok := box.RayIntersect(origin, dir, limit)
		if !ok {
			continue
		}
		best = Hit{Distance: t, Point: origin.Add(dir.Mul(t)), Normal: normal}
		found = true
	}
	return best, found
}

func raycastGround(origin, dir Vec3, maxLength float64) (Hit, bool) {
	if dir[1] > -epsilon {
		return Hit{}, false
	}
	t := -origin[1] / dir[1]
	if t < 0 || t > maxLength || math.IsNaN(t) {
		return Hit{}, false
	}
	point := origin.Add(dir.Mul(t))
	point[1] = 0
	return Hit{Distance: t, Point: point, Normal: Up}, true
}
