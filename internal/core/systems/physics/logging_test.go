package physics

import (
	"sync"
	"testing"
	"unicode"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeusync/citysim/internal/core/observability/log"
)

type recordingLogger struct {
	mu       *sync.Mutex
	messages *[]string
}

func newRecordingLogger() recordingLogger {
	return recordingLogger{mu: &sync.Mutex{}, messages: &[]string{}}
}

func (r recordingLogger) record(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	*r.messages = append(*r.messages, msg)
}

func (r recordingLogger) Debug(msg string, _ ...log.Field) { r.record(msg) }
func (r recordingLogger) Info(msg string, _ ...log.Field)  { r.record(msg) }
func (r recordingLogger) Warn(msg string, _ ...log.Field)  { r.record(msg) }
func (r recordingLogger) Error(msg string, _ ...log.Field) { r.record(msg) }
func (r recordingLogger) With(...log.Field) log.Log        { return r }
func (r recordingLogger) GetLevel() log.Level              { return log.LevelDebug }

func TestWorldLogMessages(t *testing.T) {
	logger := newRecordingLogger()
	w := NewWorld(DefaultConfig(), logger)

	w.LoadChunk(ChunkKey{1, 1}, []AABB{NewAABB(Vec3{80, 1, 80}, Vec3{1, 1, 1})})
	w.UnloadChunk(ChunkKey{1, 1})
	b := pedestrian(Vec3{3, -25, 3})
	b.Velocity = Vec3{0, -40, 0}
	w.AddBody(b)
	w.Step(frame)

	require.Equal(t, []string{
		"Chunk colliders loaded",
		"Chunk colliders unloaded",
		"Body fell out of world, respawning",
	}, *logger.messages)
	for _, msg := range *logger.messages {
		assert.True(t, unicode.IsUpper([]rune(msg)[0]), msg)
	}
}
