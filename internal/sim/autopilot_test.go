package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/zeusync/citysim/internal/core/input"
)

func TestAutopilotScript(t *testing.T) {
	var a Autopilot
	assert.Equal(t, input.Snapshot{Throttle: true}, a.Input(1))
	assert.Equal(t, input.Snapshot{Throttle: true, SteerRight: true}, a.Input(7))
	assert.Equal(t, input.Snapshot{Brake: true}, a.Input(9))
	assert.Equal(t, input.Snapshot{}, a.Input(11))
	assert.Equal(t, a.Input(1), a.Input(1+autopilotCycle), "script repeats")
}

func TestAutopilotKeepsCarInTheCity(t *testing.T) {
	s := newSim(t)
	var a Autopilot
	for i := 0; i < 2*int(autopilotCycle*60); i++ {
		s.SetInput(a.Input(s.Elapsed()))
		if err := s.Frame(frame); err != nil {
			t.Fatal(err)
		}
	}
	assert.Zero(t, s.World().Respawns())
	assert.Greater(t, s.Player().Body().Position[1], 0.0)
}
