// Package input defines the per-frame input snapshot the simulation consumes.
// Device polling lives outside the core; collaborators fill a Snapshot each frame.
package input

// Look is the orbit camera request: yaw rotates the azimuth around the target
// heading, pitch lifts or lowers the camera. Both in radians.
type Look struct {
	Yaw   float64 `json:"yaw"`
	Pitch float64 `json:"pitch"`
}

type Snapshot struct {
	Throttle   bool `json:"throttle"`
	Brake      bool `json:"brake"`
	SteerLeft  bool `json:"steer_left"`
	SteerRight bool `json:"steer_right"`
	// EngineToggle flips the engine on its rising edge.
	EngineToggle bool `json:"engine_toggle"`
	Look         Look `json:"look"`
}

// ThrottleAxis is 1 while throttle is held.
func (s Snapshot) ThrottleAxis() float64 {
	if s.Throttle {
		return 1
	}
	return 0
}

// SteerAxis is -1 for left, 1 for right and 0 when both or neither are held.
func (s Snapshot) SteerAxis() float64 {
	axis := 0.0
	if s.SteerLeft {
		axis--
	}
	if s.SteerRight {
		axis++
	}
	return axis
}

// Edge tracks rising edges of a boolean across frames.
type Edge struct {
	last bool
}

// Rising reports whether pressed went from false to true since the previous call.
func (e *Edge) Rising(pressed bool) bool {
	rising := pressed && !e.last
	e.last = pressed
	return rising
}
