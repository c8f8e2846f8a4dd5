package bus

import "time"

// EventBus is an in-process pub/sub bus used to hand work between the
// simulation and its collaborators (world streaming, telemetry).
//
// Key characteristics:
// - Type-based fan-out: handlers subscribe by Event.Type() string.
// - Optional topics: handlers can subscribe within a topic for isolation.
// - Synchronous, ordered delivery: Publish calls handlers in the caller
//   goroutine, in subscription order. The physics world relies on this to
//   apply chunk loads deterministically inside a frame.
// - Error aggregation: handler errors are joined and returned from Publish.
// - Optional observability: metrics are produced only when observers are registered.
//
// All methods are safe for concurrent use.
type EventBus interface {
	// Publish delivers the event to all subscribers of event.Type() in the
	// default topic.
	Publish(event Event) error
	// Subscribe registers a handler for a specific event type in the default topic.
	Subscribe(eventType string, handler EventHandler) (Subscription, error)
	// Unsubscribe cancels the given Subscription. It is safe to call with nil.
	Unsubscribe(Subscription) error

	// CreateTopic declares a logical topic. Repeat declarations are idempotent.
	CreateTopic(name string, config TopicConfig) error
	SubscribeTopic(topic, eventType string, handler EventHandler) (Subscription, error)
	PublishToTopic(topic string, event Event) error

	AddObserver(obs EventBusObserver)
	RemoveObserver(obs EventBusObserver)
	// GetMetrics is only updated while at least one observer is registered.
	GetMetrics() EventBusMetrics
	GetTopics() []TopicInfo
}

// Event is an immutable message transported by the EventBus.
type Event interface {
	Type() string
	Source() string
	Timestamp() time.Time
	Data() any
	Metadata() map[string]any
}

// EventHandler is invoked per delivered event. Returned errors are joined
// into the Publish result.
type EventHandler func(event Event) error

// Subscription is a registered handler bound to an event type.
type Subscription interface {
	ID() string
	EventType() string
	IsActive() bool
	// Cancel de-registers the handler. Multiple calls are safe.
	Cancel() error
}

// TopicConfig describes topic-level settings (reserved).
type TopicConfig struct{}

// EventBusObserver is notified about deliveries and errors.
type EventBusObserver interface {
	OnPublish(topic, eventType string, event Event)
	OnDelivered(topic, eventType string, handlers int, err error, duration time.Duration)
}

type EventBusMetrics struct {
	Published         uint64
	DeliveredHandlers uint64
	Errors            uint64
	SubscribersActive uint64
	Topics            uint64
}

type TopicInfo struct {
	Name       string
	EventTypes int
	Subs       int
}
