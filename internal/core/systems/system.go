package systems

import (
	"time"
)

// System is one stage of the frame. The frame driver runs systems ordered by
// phase, then by descending priority, then by registration order.
type System interface {
	Name() string

	Priority() Priority
	ExecutionPhase() ExecutionPhase

	Update(deltaTime float64) error
}

// Priority defines execution order within a phase. Higher runs first.
type Priority uint16

const (
	PriorityLowest  Priority = 100
	PriorityLow     Priority = 400
	PriorityNormal  Priority = 600
	PriorityHigh    Priority = 1000
	PriorityHighest Priority = 1300
)

// ExecutionPhase defines when in the frame a system runs.
type ExecutionPhase uint8

const (
	PhasePreUpdate ExecutionPhase = iota
	// PhaseFixedUpdate advances the physics world.
	PhaseFixedUpdate
	// PhaseUpdate runs actor logic that reads the stepped world, such as vehicle dynamics.
	PhaseUpdate
	// PhaseLateUpdate runs consumers of final poses, such as the camera.
	PhaseLateUpdate
	PhasePostUpdate
)

func (p ExecutionPhase) String() string {
	switch p {
	case PhasePreUpdate:
		return "pre_update"
	case PhaseFixedUpdate:
		return "fixed_update"
	case PhaseUpdate:
		return "update"
	case PhaseLateUpdate:
		return "late_update"
	case PhasePostUpdate:
		return "post_update"
	default:
		return "unknown"
	}
}

// Metrics provides runtime metrics for a system
type Metrics struct {
	ExecutionCount       uint64
	TotalExecutionTime   time.Duration
	AverageExecutionTime time.Duration
	MaxExecutionTime     time.Duration
	MinExecutionTime     time.Duration
	ErrorCount           uint64
	LastError            error
	LastExecutionTime    time.Time
}

// Record folds one execution into the metrics.
func (m *Metrics) Record(elapsed time.Duration, at time.Time, err error) {
	m.ExecutionCount++
	m.TotalExecutionTime += elapsed
	m.AverageExecutionTime = m.TotalExecutionTime / time.Duration(m.ExecutionCount)
	if elapsed > m.MaxExecutionTime {
		m.MaxExecutionTime = elapsed
	}
	if m.ExecutionCount == 1 || elapsed < m.MinExecutionTime {
		m.MinExecutionTime = elapsed
	}
	m.LastExecutionTime = at
	if err != nil {
		m.ErrorCount++
		m.LastError = err
	}
}

// Func adapts a plain function into a System.
type Func struct {
	name     string
	phase    ExecutionPhase
	priority Priority
	fn       func(deltaTime float64) error
}

var _ System = (*Func)(nil)

func NewFunc(name string, phase ExecutionPhase, priority Priority, fn func(deltaTime float64) error) *Func {
	return &Func{name: name, phase: phase, priority: priority, fn: fn}
}

func (f *Func) Name() string                   { return f.name }
func (f *Func) Priority() Priority             { return f.priority }
func (f *Func) ExecutionPhase() ExecutionPhase { return f.phase }

func (f *Func) Update(deltaTime float64) error {
	return f.fn(deltaTime)
}
