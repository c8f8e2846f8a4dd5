package sim

import (
	"math"

	"github.com/zeusync/citysim/internal/core/input"
)

// autopilotCycle is the length of the scripted drive in seconds.
const autopilotCycle = 12.0

// Autopilot produces a repeating drive script for headless runs: accelerate,
// turn right, brake, then idle.
type Autopilot struct{}

// Input returns the scripted input at elapsed seconds.
func (Autopilot) Input(elapsed float64) input.Snapshot {
	t := math.Mod(elapsed, autopilotCycle)
	switch {
	case t < 6:
		return input.Snapshot{Throttle: true}
	case t < 8:
		return input.Snapshot{Throttle: true, SteerRight: true}
	case t < 10:
		return input.Snapshot{Brake: true}
	default:
		return input.Snapshot{}
	}
}
