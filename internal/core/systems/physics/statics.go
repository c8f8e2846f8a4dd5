package physics

import (
	"fmt"
	"math"
	"slices"
)

// ChunkKey names the streaming grid cell that owns a group of static colliders.
type ChunkKey struct {
	X int `json:"x" yaml:"x"`
	Z int `json:"z" yaml:"z"`
}

func (k ChunkKey) String() string {
	return fmt.Sprintf("%d:%d", k.X, k.Z)
}

// ChunkKeyFor returns the chunk containing p on the XZ plane.
func ChunkKeyFor(p Vec3, chunkSize float64) ChunkKey {
	if chunkSize <= 0 {
		return ChunkKey{}
	}
	return ChunkKey{
		X: int(math.Floor(p[0] / chunkSize)),
		Z: int(math.Floor(p[2] / chunkSize)),
	}
}

// StaticColliders stores immutable obstacles in two partitions. Boxes added
// with Add are permanent. Streamed boxes belong to a chunk and leave with it.
// Iteration visits permanent boxes in append order, then chunks in the order
// they were first loaded.
type StaticColliders struct {
	fixed  []AABB
	order  []ChunkKey
	chunks map[ChunkKey][]AABB

	flat  []AABB
	dirty bool
}

func NewStaticColliders() *StaticColliders {
	return &StaticColliders{
		chunks: make(map[ChunkKey][]AABB),
	}
}

// Add appends a permanent box that chunk streaming never replaces or removes.
func (s *StaticColliders) Add(box AABB) {
	s.fixed = append(s.fixed, box)
	s.dirty = true
}

// ReplaceChunk swaps the contents of a chunk, keeping its iteration slot.
func (s *StaticColliders) ReplaceChunk(key ChunkKey, boxes []AABB) {
	if _, ok := s.chunks[key]; !ok {
		s.order = append(s.order, key)
	}
	s.chunks[key] = slices.Clone(boxes)
	s.dirty = true
}

// RemoveChunk drops every collider owned by key and returns how many were removed.
func (s *StaticColliders) RemoveChunk(key ChunkKey) int {
	boxes, ok := s.chunks[key]
	if !ok {
		return 0
	}
	delete(s.chunks, key)
	s.order = slices.DeleteFunc(s.order, func(k ChunkKey) bool { return k == key })
	s.dirty = true
	return len(boxes)
}

func (s *StaticColliders) Len() int {
	return len(s.All())
}

// All returns a flat read-only view. A returned view is never rewritten:
// mutations build a new slice on the next call. Callers must not modify it.
func (s *StaticColliders) All() []AABB {
	if s.dirty {
		n := len(s.fixed)
		for _, key := range s.order {
			n += len(s.chunks[key])
		}
		flat := make([]AABB, 0, n)
		flat = append(flat, s.fixed...)
		for _, key := range s.order {
			flat = append(flat, s.chunks[key]...)
		}
		s.flat = flat
		s.dirty = false
	}
	return s.flat
}

// Chunk returns a copy of the colliders owned by key.
func (s *StaticColliders) Chunk(key ChunkKey) []AABB {
	return slices.Clone(s.chunks[key])
}

// Chunks lists the loaded chunks in load order.
func (s *StaticColliders) Chunks() []ChunkKey {
	return slices.Clone(s.order)
}
