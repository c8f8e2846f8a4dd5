package sim

import (
	"encoding/binary"
	"errors"
	"math"
	"slices"

	"github.com/cespare/xxhash/v2"
	"github.com/zeusync/citysim/internal/core/events/bus"
	"github.com/zeusync/citysim/internal/core/observability/log"
	"github.com/zeusync/citysim/internal/core/systems/physics"
	"github.com/zeusync/citysim/pkg/generic"
)

const streamerSource = "streamer"

// Building layout inside one chunk, as fractions of the chunk size. Blocks sit
// around a crossroads at the chunk center and leave a road along every chunk edge.
var (
	blockCenters = [4][2]float64{{0.25, 0.25}, {0.75, 0.25}, {0.25, 0.75}, {0.75, 0.75}}
	blockHalf    = 0.15625
)

const (
	minBuildingHalfHeight = 2.0
	buildingHeightSteps   = 10
)

// CityBlock returns the buildings of one chunk. The same key always yields
// the same boxes.
func CityBlock(key physics.ChunkKey, chunkSize float64) []physics.AABB {
	origin := physics.Vec3{float64(key.X) * chunkSize, 0, float64(key.Z) * chunkSize}
	half := blockHalf * chunkSize

	boxes := make([]physics.AABB, 0, len(blockCenters))
	var seed [17]byte
	binary.LittleEndian.PutUint64(seed[0:], uint64(int64(key.X)))
	binary.LittleEndian.PutUint64(seed[8:], uint64(int64(key.Z)))
	for i, c := range blockCenters {
		seed[16] = byte(i)
		height := minBuildingHalfHeight + float64(xxhash.Sum64(seed[:])%buildingHeightSteps)
		center := origin.Add(physics.Vec3{c[0] * chunkSize, height, c[1] * chunkSize})
		boxes = append(boxes, physics.NewAABB(center, physics.Vec3{half, height, half}))
	}
	return boxes
}

// Streamer keeps the chunks around a focus point loaded by publishing chunk
// events on the bus. It stands in for the world-streaming collaborator.
type Streamer struct {
	bus       bus.EventBus
	chunkSize float64
	radius    int
	// budget caps chunk loads per Update; zero means unlimited.
	budget   int
	generate func(physics.ChunkKey, float64) []physics.AABB
	loaded   map[physics.ChunkKey]struct{}
	pending  int
	logger   log.Log
}

func NewStreamer(b bus.EventBus, chunkSize float64, radius, budget int, logger log.Log) *Streamer {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Streamer{
		bus:       b,
		chunkSize: chunkSize,
		radius:    radius,
		budget:    budget,
		generate:  CityBlock,
		loaded:    make(map[physics.ChunkKey]struct{}),
		logger:    logger.With(log.String("component", "streamer")),
	}
}

// Sync loads every wanted chunk regardless of the budget.
func (s *Streamer) Sync(focus physics.Vec3) error {
	budget := s.budget
	s.budget = 0
	defer func() { s.budget = budget }()
	return s.Update(focus)
}

// Update unloads chunks outside the radius of focus and loads missing ones,
// nearest first, up to the budget.
func (s *Streamer) Update(focus physics.Vec3) error {
	center := physics.ChunkKeyFor(focus, s.chunkSize)

	wanted := make(map[physics.ChunkKey]struct{}, (2*s.radius+1)*(2*s.radius+1))
	missing := generic.NewPriorityQueue[physics.ChunkKey]()
	for dx := -s.radius; dx <= s.radius; dx++ {
		for dz := -s.radius; dz <= s.radius; dz++ {
			key := physics.ChunkKey{X: center.X + dx, Z: center.Z + dz}
			wanted[key] = struct{}{}
			if _, ok := s.loaded[key]; !ok {
				missing.Enqueue(key, s.distance(focus, key))
			}
		}
	}

	var errs []error
	for loads := 0; !missing.IsEmpty(); loads++ {
		if s.budget > 0 && loads >= s.budget {
			break
		}
		key, _ := missing.Dequeue()
		payload := physics.ChunkColliders{Key: key, Boxes: s.generate(key, s.chunkSize)}
		if err := s.bus.PublishToTopic(physics.TopicStreaming, bus.NewEvent(physics.EventChunkLoaded, streamerSource, payload, nil)); err != nil {
			errs = append(errs, err)
			continue
		}
		s.loaded[key] = struct{}{}
		s.logger.Debug("Chunk loaded", log.Stringer("chunk", key))
	}
	s.pending = missing.Len()

	for _, key := range s.Loaded() {
		if _, ok := wanted[key]; ok {
			continue
		}
		if err := s.bus.PublishToTopic(physics.TopicStreaming, bus.NewEvent(physics.EventChunkUnloaded, streamerSource, key, nil)); err != nil {
			errs = append(errs, err)
			continue
		}
		delete(s.loaded, key)
		s.logger.Debug("Chunk unloaded", log.Stringer("chunk", key))
	}
	return errors.Join(errs...)
}

// Pending is the number of wanted chunks the last Update left unloaded.
func (s *Streamer) Pending() int { return s.pending }

// distance from focus to the center of key on the XZ plane.
func (s *Streamer) distance(focus physics.Vec3, key physics.ChunkKey) float64 {
	cx := (float64(key.X) + 0.5) * s.chunkSize
	cz := (float64(key.Z) + 0.5) * s.chunkSize
	return math.Hypot(cx-focus[0], cz-focus[2])
}

// Loaded returns the loaded chunk keys ordered by X, then Z.
func (s *Streamer) Loaded() []physics.ChunkKey {
	keys := make([]physics.ChunkKey, 0, len(s.loaded))
	for key := range s.loaded {
		keys = append(keys, key)
	}
	slices.SortFunc(keys, func(a, b physics.ChunkKey) int {
		if a.X != b.X {
			return a.X - b.X
		}
		return a.Z - b.Z
	})
	return keys
}
