package physics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func walkInto(t *testing.T, top float64) *Body {
	t.Helper()
	w := newTestWorld()
	w.AddStaticCollider(AABB{Min: Vec3{0.5, 0, -2}, Max: Vec3{5, top, 2}})
	b := pedestrian(Vec3{0, 0.9, 0})
	w.AddBody(b)

	for i := 0; i < 20; i++ {
		b.Velocity[0] = 3
		w.Step(frame)
	}
	return b
}

func TestCapsuleClimbsStepAtThreshold(t *testing.T) {
	b := walkInto(t, 0.4)

	assert.Greater(t, b.Position[0], 0.5)
	assert.InDelta(t, 1.3, b.Position[1], 0.01)
	assert.True(t, b.IsGrounded)
}

func TestCapsuleStoppedJustAboveThreshold(t *testing.T) {
	b := walkInto(t, 0.41)

	assert.LessOrEqual(t, b.Position[0], 0.2+1e-6)
	assert.Equal(t, 0.9, b.Position[1])
}

func TestCapsuleSlidesAlongWall(t *testing.T) {
	w := newTestWorld()
	w.AddStaticCollider(AABB{Min: Vec3{0.5, 0, -50}, Max: Vec3{1.5, 3, 50}})
	b := pedestrian(Vec3{0, 0.9, 0})
	w.AddBody(b)

	for i := 0; i < 30; i++ {
		b.Velocity[0] = 4
		b.Velocity[2] = 3
		w.Step(frame)
	}

	assert.LessOrEqual(t, b.Position[0], 0.2+1e-6)
	assert.InDelta(t, 0, b.Velocity[0], 1e-9)
	assert.Greater(t, b.Velocity[2], 2.5)
	assert.Greater(t, b.Position[2], 1.0)
}

func TestCapsuleInsideFootprintLeavesThroughShallowAxis(t *testing.T) {
	w := newTestWorld()
	w.AddStaticCollider(AABB{Min: Vec3{0, 0, -1}, Max: Vec3{4, 3, 1}})
	b := pedestrian(Vec3{0.5, 0.9, 0})
	b.Velocity = Vec3{1, 0, 0}
	w.AddBody(b)

	w.Step(frame)

	assert.InDelta(t, -0.3, b.Position[0], 1e-6)
	assert.InDelta(t, 0, b.Position[2], 1e-9)
	assert.InDelta(t, 0, b.Velocity[0], 1e-9)
}

func TestCapsuleIgnoresBoxesAboveHead(t *testing.T) {
	w := newTestWorld()
	w.AddStaticCollider(AABB{Min: Vec3{-2, 3, -2}, Max: Vec3{2, 4, 2}})
	b := pedestrian(Vec3{0, 0.9, 0})
	w.AddBody(b)

	w.Step(frame)

	assert.Equal(t, Vec3{0, 0.9, 0}, b.Position)
}

func TestBoxGroundBounce(t *testing.T) {
	w := newTestWorld()
	b := NewBody(1000, Vec3{0, 0.4, 0}, Box{HalfExtents: Vec3{1, 0.5, 1}})
	b.Velocity = Vec3{10, -10, 0}

	w.resolve(b)

	assert.Equal(t, 0.5, b.Position[1])
	assert.InDelta(t, 3, b.Velocity[1], 1e-12)
	assert.InDelta(t, 9.9, b.Velocity[0], 1e-12)
	assert.True(t, b.IsGrounded)
}

func TestBoxReflectsOffWall(t *testing.T) {
	w := newTestWorld()
	w.AddStaticCollider(AABB{Min: Vec3{1.05, 0, -5}, Max: Vec3{3, 3, 5}})
	b := NewBody(1000, Vec3{0, 0.5, 0}, Box{HalfExtents: Vec3{1, 0.5, 2}})
	b.Velocity = Vec3{10, 0, 0}
	w.AddBody(b)

	w.Step(frame)

	assert.LessOrEqual(t, b.Position[0], 0.05+1e-9)
	assert.Less(t, b.Velocity[0], -4.0)
	assert.Greater(t, b.Velocity[0], -5.1)
}

func TestBoxLandsOnStaticBox(t *testing.T) {
	w := newTestWorld()
	w.AddStaticCollider(AABB{Min: Vec3{-5, 0, -5}, Max: Vec3{5, 2, 5}})
	b := NewBody(1000, Vec3{0, 3, 0}, Box{HalfExtents: Vec3{1, 0.5, 2}})
	w.AddBody(b)

	for i := 0; i < 120; i++ {
		w.Step(frame)
	}

	assert.InDelta(t, 2.5, b.Position[1], 0.01)
	assert.True(t, b.IsGrounded)
	assert.InDelta(t, 0, b.Velocity[0], 1e-9)
}
