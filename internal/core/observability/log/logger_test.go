package log

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelWarn, ParseLevel("warning"))
	assert.Equal(t, LevelError, ParseLevel("error"))
	assert.Equal(t, LevelInfo, ParseLevel(""))
	assert.Equal(t, LevelInfo, ParseLevel("chatty"))
}

func TestLevelRoundTrip(t *testing.T) {
	for _, lvl := range []Level{LevelDebug, LevelInfo, LevelWarn, LevelError, LevelFatal} {
		assert.Equal(t, lvl, fromZapLevel(toZapLevel(lvl)))
	}
}

func TestChildrenShareLevel(t *testing.T) {
	l := New(LevelWarn)
	child := l.With(String("component", "physics"))

	assert.Equal(t, LevelWarn, l.GetLevel())
	assert.Equal(t, LevelWarn, child.GetLevel())
	assert.Equal(t, LevelFatal, NewNop().GetLevel())
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "debug", LevelDebug.String())
	assert.Equal(t, "warn", LevelWarn.String())
	assert.Equal(t, "info", Level(42).String())
}

func TestToZapFields(t *testing.T) {
	err := errors.New("boom")
	fields := toZapFields(
		Bool("grounded", true),
		Float64("dt", 0.016),
		Int("bodies", 3),
		String("chunk", "1:2"),
		Error(err),
	)

	assert.Len(t, fields, 5)
	assert.Equal(t, zap.Bool("grounded", true), fields[0])
	assert.Equal(t, zap.Int("bodies", 3), fields[2])
	assert.Equal(t, zap.NamedError("error", err), fields[4])
}
