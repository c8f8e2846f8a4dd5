package physics

import (
	"errors"
	"fmt"

	"github.com/zeusync/citysim/internal/core/events/bus"
)

// TopicStreaming carries chunk events, kept apart from other simulation traffic.
const TopicStreaming = "streaming"

// Event types published by the world-streaming collaborator.
const (
	EventChunkLoaded   = "chunk.loaded"
	EventChunkUnloaded = "chunk.unloaded"
)

var ErrUnexpectedPayload = errors.New("unexpected event payload")

// ChunkColliders is the payload of EventChunkLoaded.
type ChunkColliders struct {
	Key   ChunkKey
	Boxes []AABB
}

// AttachStreaming subscribes the world to chunk load and unload events on
// TopicStreaming. The bus delivers on the publisher goroutine, so publish from
// the frame goroutine.
func (w *World) AttachStreaming(b bus.EventBus) ([]bus.Subscription, error) {
	if err := b.CreateTopic(TopicStreaming, bus.TopicConfig{}); err != nil {
		return nil, err
	}
	loaded, err := b.SubscribeTopic(TopicStreaming, EventChunkLoaded, func(e bus.Event) error {
		payload, ok := e.Data().(ChunkColliders)
		if !ok {
			return fmt.Errorf("%w: %s carries %T", ErrUnexpectedPayload, e.Type(), e.Data())
		}
		w.LoadChunk(payload.Key, payload.Boxes)
		return nil
	})
	if err != nil {
		return nil, err
	}

	unloaded, err := b.SubscribeTopic(TopicStreaming, EventChunkUnloaded, func(e bus.Event) error {
		key, ok := e.Data().(ChunkKey)
		if !ok {
			return fmt.Errorf("%w: %s carries %T", ErrUnexpectedPayload, e.Type(), e.Data())
		}
		w.UnloadChunk(key)
		return nil
	})
	if err != nil {
		_ = loaded.Cancel()
		return nil, err
	}

	return []bus.Subscription{loaded, unloaded}, nil
}
