package sim

import (
	"time"

	"github.com/zeusync/citysim/internal/core/events/bus"
	"github.com/zeusync/citysim/internal/core/observability/log"
	"github.com/zeusync/citysim/internal/core/system"
	"github.com/zeusync/citysim/internal/core/systems"
)

// Status is the health view of a running simulation. Every field comes from
// a concurrency-safe source, so Status may be called off the frame goroutine.
type Status struct {
	Frames  uint64                     `json:"frames"`
	Manager system.ManagerMetrics      `json:"manager"`
	Systems map[string]systems.Metrics `json:"systems"`
	Bus     bus.EventBusMetrics        `json:"bus"`
	Topics  []bus.TopicInfo            `json:"topics"`
}

func (s *Simulation) Status() Status {
	status := Status{
		Frames:  s.manager.FrameCount(),
		Manager: s.manager.GetMetrics(),
		Systems: make(map[string]systems.Metrics),
		Bus:     s.bus.GetMetrics(),
		Topics:  s.bus.GetTopics(),
	}
	for _, name := range s.manager.GetExecutionOrder() {
		if m, ok := s.manager.GetSystemMetrics(name); ok {
			status.Systems[name] = m
		}
	}
	return status
}

// deliveryObserver keeps the bus metrics live and reports failed deliveries.
type deliveryObserver struct {
	logger log.Log
}

func (o *deliveryObserver) OnPublish(string, string, bus.Event) {}

func (o *deliveryObserver) OnDelivered(topic, eventType string, handlers int, err error, elapsed time.Duration) {
	if err == nil {
		return
	}
	o.logger.Warn("Event delivery failed",
		log.String("topic", topic),
		log.String("event", eventType),
		log.Int("handlers", handlers),
		log.Duration("elapsed", elapsed),
		log.Error(err))
}
