package physics

import "math"

// resolveCapsule treats the capsule as an upright cylinder. Static boxes whose
// top is a short climb above the feet become ground; everything else is a wall.
func (w *World) resolveCapsule(b *Body, c Capsule) {
	half := c.HalfHeight()

	if b.Position[1] < half {
		b.Position[1] = half
		if b.Velocity[1] < 0 {
			b.Velocity[1] = 0
		}
		b.IsGrounded = true
	}

	extents := c.LocalHalfExtents()
	for _, box := range w.statics.All() {
		if !NewAABB(b.Position, extents).Intersects(box) {
			continue
		}

		top := box.Max[1]
		gap := top - (b.Position[1] - half)
		if gap > 0 && gap <= w.config.StepHeight && top < b.Position[1] {
			b.Position[1] = top + half
			if b.Velocity[1] < 0 {
				b.Velocity[1] = 0
			}
			b.IsGrounded = true
			continue
		}

		pushCapsuleFromWall(b, c.Radius, box)
	}
}

// pushCapsuleFromWall separates the capsule's horizontal circle from the box
// footprint and removes the velocity component pointing into the wall.
func pushCapsuleFromWall(b *Body, radius float64, box AABB) {
	px, pz := b.Position[0], b.Position[2]
	cx := math.Max(box.Min[0], math.Min(px, box.Max[0]))
	cz := math.Max(box.Min[2], math.Min(pz, box.Max[2]))
	dx, dz := px-cx, pz-cz
	dist := math.Hypot(dx, dz)

	if dist > epsilon {
		if dist >= radius {
			return
		}
		nx, nz := dx/dist, dz/dist
		depth := radius - dist
		b.Position[0] += nx * depth
		b.Position[2] += nz * depth
		if vn := b.Velocity[0]*nx + b.Velocity[2]*nz; vn < 0 {
			b.Velocity[0] -= nx * vn
			b.Velocity[2] -= nz * vn
		}
		return
	}

	// Center inside the footprint: leave through the shallower horizontal axis.
	left, right := px-box.Min[0], box.Max[0]-px
	back, front := pz-box.Min[2], box.Max[2]-pz
	penX, signX := right+radius, 1.0
	if left < right {
		penX, signX = left+radius, -1.0
	}
	penZ, signZ := front+radius, 1.0
	if back < front {
		penZ, signZ = back+radius, -1.0
	}

	if penX < penZ {
		b.Position[0] += signX * penX
		if b.Velocity[0]*signX < 0 {
			b.Velocity[0] = 0
		}
		return
	}
	b.Position[2] += signZ * penZ
	if b.Velocity[2]*signZ < 0 {
		b.Velocity[2] = 0
	}
}

// resolveBox handles vehicle-style boxes: a bouncy ground plane, then
// minimum-overlap push-out against each intersecting static box.
func (w *World) resolveBox(b *Body, c Box) {
	he := c.HalfExtents

	if b.Position[1] < he[1] {
		b.Position[1] = he[1]
		if b.Velocity[1] < 0 {
			b.Velocity[1] = -b.Velocity[1] * w.config.BoxGroundRestitution
		}
		keep := 1 - w.config.BoxGroundFriction
		b.Velocity[0] *= keep
		b.Velocity[2] *= keep
		b.IsGrounded = true
	}

	for _, box := range w.statics.All() {
		bounds := NewAABB(b.Position, he)
		if !bounds.Intersects(box) {
			continue
		}

		overlap := bounds.Overlap(box)
		axis := minAxis(overlap)
		sign := 1.0
		if b.Position[axis] < box.Center()[axis] {
			sign = -1.0
		}
		b.Position[axis] += sign * overlap[axis]

		if axis == 1 && sign > 0 {
			// Landed on top.
			if b.Velocity[1] < 0 {
				b.Velocity[1] = 0
			}
			b.IsGrounded = true
			continue
		}
		if b.Velocity[axis]*sign < 0 {
			b.Velocity[axis] = -b.Velocity[axis] * w.config.BoxWallRestitution
		}
	}
}
