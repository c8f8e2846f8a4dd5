// Package system drives registered systems through a frame.
package system

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/zeusync/citysim/internal/core/observability/log"
	"github.com/zeusync/citysim/internal/core/systems"
)

// ManagerMetrics provides system manager statistics
type ManagerMetrics struct {
	RegisteredSystems uint32
	EnabledSystems    uint32
	FrameCount        uint64
	TotalUpdateTime   time.Duration
	AverageUpdateTime time.Duration
	SystemErrorCount  map[string]uint64
	LastUpdateTime    time.Time
}

type entry struct {
	system  systems.System
	seq     int
	enabled bool
	metrics systems.Metrics
}

// Manager orchestrates all systems in the simulation. Frame runs every enabled
// system once, in phase order and then by priority. A failing system does not
// stop the frame; its error is logged and joined into Frame's result.
type Manager struct {
	mu      sync.RWMutex
	entries map[string]*entry
	order   []*entry
	seq     int

	frames    uint64
	totalTime time.Duration
	lastFrame time.Time

	logger log.Log
}

func NewManager(logger log.Log) *Manager {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Manager{
		entries: make(map[string]*entry),
		logger:  logger.With(log.String("component", "system_manager")),
	}
}

func (m *Manager) RegisterSystem(s systems.System) error {
	if s == nil {
		return ErrNilSystem
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	name := s.Name()
	if _, ok := m.entries[name]; ok {
		return fmt.Errorf("%w: %s", ErrSystemAlreadyRegistered, name)
	}
	e := &entry{system: s, seq: m.seq, enabled: true}
	m.seq++
	m.entries[name] = e
	m.order = append(m.order, e)
	m.sortLocked()

	m.logger.Debug("System registered",
		log.String("system", name),
		log.Stringer("phase", s.ExecutionPhase()),
		log.Int("priority", int(s.Priority())))
	return nil
}

func (m *Manager) UnregisterSystem(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrSystemNotFound, name)
	}
	delete(m.entries, name)
	for i, o := range m.order {
		if o == e {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	m.logger.Debug("System unregistered", log.String("system", name))
	return nil
}

func (m *Manager) EnableSystem(name string) error  { return m.setEnabled(name, true) }
func (m *Manager) DisableSystem(name string) error { return m.setEnabled(name, false) }

func (m *Manager) setEnabled(name string, enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrSystemNotFound, name)
	}
	e.enabled = enabled
	m.logger.Debug("System toggled", log.String("system", name), log.Bool("enabled", enabled))
	return nil
}

// Frame runs one frame. Systems must not register or unregister systems from
// inside Update.
func (m *Manager) Frame(deltaTime float64) error {
	if deltaTime <= 0 {
		return fmt.Errorf("%w: got %g", ErrInvalidDeltaTime, deltaTime)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	start := time.Now()
	var errs []error
	for _, e := range m.order {
		if !e.enabled {
			continue
		}
		began := time.Now()
		err := e.system.Update(deltaTime)
		e.metrics.Record(time.Since(began), began, err)
		if err == nil {
			continue
		}

		name := e.system.Name()
		m.logger.Error("System update failed",
			log.String("system", name),
			log.Uint64("frame", m.frames),
			log.Error(err))
		errs = append(errs, fmt.Errorf("%s: %w", name, err))
	}

	m.frames++
	m.totalTime += time.Since(start)
	m.lastFrame = start
	return errors.Join(errs...)
}

func (m *Manager) FrameCount() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.frames
}

// GetExecutionOrder returns system names in the order Frame runs them.
func (m *Manager) GetExecutionOrder() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, len(m.order))
	for i, e := range m.order {
		names[i] = e.system.Name()
	}
	return names
}

func (m *Manager) GetSystemMetrics(name string) (systems.Metrics, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[name]
	if !ok {
		return systems.Metrics{}, false
	}
	return e.metrics, true
}

func (m *Manager) GetMetrics() ManagerMetrics {
	m.mu.RLock()
	defer m.mu.RUnlock()

	metrics := ManagerMetrics{
		RegisteredSystems: uint32(len(m.order)),
		FrameCount:        m.frames,
		TotalUpdateTime:   m.totalTime,
		SystemErrorCount:  make(map[string]uint64),
		LastUpdateTime:    m.lastFrame,
	}
	if m.frames > 0 {
		metrics.AverageUpdateTime = m.totalTime / time.Duration(m.frames)
	}
	for _, e := range m.order {
		if e.enabled {
			metrics.EnabledSystems++
		}
		if e.metrics.ErrorCount > 0 {
			metrics.SystemErrorCount[e.system.Name()] = e.metrics.ErrorCount
		}
	}
	return metrics
}

func (m *Manager) sortLocked() {
	sort.SliceStable(m.order, func(i, j int) bool {
		a, b := m.order[i], m.order[j]
		if pa, pb := a.system.ExecutionPhase(), b.system.ExecutionPhase(); pa != pb {
			return pa < pb
		}
		if pa, pb := a.system.Priority(), b.system.Priority(); pa != pb {
			return pa > pb
		}
		return a.seq < b.seq
	})
}
