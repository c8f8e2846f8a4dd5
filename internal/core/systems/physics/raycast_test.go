package physics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var down = Vec3{0, -1, 0}

func TestRaycastGroundPlane(t *testing.T) {
	w := newTestWorld()

	hit, ok := w.Raycast(Vec3{2, 5, -1}, down, 10)
	require.True(t, ok)
	assert.InDelta(t, 5, hit.Distance, 1e-12)
	assert.Equal(t, Vec3{2, 0, -1}, hit.Point)
	assert.Equal(t, Up, hit.Normal)

	_, ok = w.Raycast(Vec3{0, 5, 0}, down, 4.9)
	assert.False(t, ok, "ground beyond max length")

	_, ok = w.Raycast(Vec3{0, 5, 0}, Vec3{0, 1, 0}, 100)
	assert.False(t, ok, "ray pointing away")

	_, ok = w.Raycast(Vec3{0, -1, 0}, down, 100)
	assert.False(t, ok, "origin below ground")

	_, ok = w.Raycast(Vec3{0, 5, 0}, Vec3{}, 100)
	assert.False(t, ok, "degenerate direction")
}

func TestRaycastNormalizesDirection(t *testing.T) {
	w := newTestWorld()

	hit, ok := w.Raycast(Vec3{0, 3, 0}, Vec3{0, -10, 0}, 5)
	require.True(t, ok)
	assert.InDelta(t, 3, hit.Distance, 1e-12)
}

func TestRaycastIgnoresStaticsByDefault(t *testing.T) {
	w := newTestWorld()
	w.AddStaticCollider(AABB{Min: Vec3{-1, 0, -1}, Max: Vec3{1, 2, 1}})

	hit, ok := w.Raycast(Vec3{0, 5, 0}, down, 10)
	require.True(t, ok)
	assert.InDelta(t, 5, hit.Distance, 1e-12)
}

func TestRaycastStaticsExtension(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RaycastStatics = true
	w := NewWorld(cfg, nil)
	w.AddStaticCollider(AABB{Min: Vec3{-1, 0, -1}, Max: Vec3{1, 2, 1}})
	w.AddStaticCollider(AABB{Min: Vec3{-1, 0, -1}, Max: Vec3{1, 3, 1}})

	hit, ok := w.Raycast(Vec3{0, 5, 0}, down, 10)
	require.True(t, ok)
	assert.InDelta(t, 2, hit.Distance, 1e-12)
	assert.InDelta(t, 3, hit.Point[1], 1e-12)
	assert.Equal(t, Up, hit.Normal)

	hit, ok = w.Raycast(Vec3{5, 5, 0}, down, 10)
	require.True(t, ok)
	assert.InDelta(t, 5, hit.Distance, 1e-12, "misses the box, hits the ground")
}

func TestAABBRayIntersect(t *testing.T) {
	box := AABB{Min: Vec3{2, -1, -1}, Max: Vec3{4, 1, 1}}

	tHit, normal, ok := box.RayIntersect(Vec3{0, 0, 0}, Vec3{1, 0, 0}, 10)
	require.True(t, ok)
	assert.InDelta(t, 2, tHit, 1e-12)
	assert.Equal(t, Vec3{-1, 0, 0}, normal)

	_, _, ok = box.RayIntersect(Vec3{0, 0, 0}, Vec3{1, 0, 0}, 1.5)
	assert.False(t, ok, "too short")

	_, _, ok = box.RayIntersect(Vec3{0, 5, 0}, Vec3{1, 0, 0}, 10)
	assert.False(t, ok, "parallel outside slab")

	_, _, ok = box.RayIntersect(Vec3{3, 0, 0}, Vec3{1, 0, 0}, 10)
	assert.False(t, ok, "origin inside")

	_, _, ok = box.RayIntersect(Vec3{0, 0, 0}, Vec3{-1, 0, 0}, 10)
	assert.False(t, ok, "behind the origin")
}
