package sse

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/livestage/livestage/internal/domain/notification"
)

const subscriberBuffer = 100

type subscription struct {
	id      uint64
	channel string
	events  chan *notification.Event
	once    sync.Once
}

func (s *subscription) close() {
	s.once.Do(func() {
		close(s.events)
	})
}

// Hub fans events out to channel subscribers. Each subscription drains its own
// buffer on a dedicated goroutine, so a slow handler only drops its own events.
type Hub struct {
	mu       sync.RWMutex
	channels map[string]map[uint64]*subscription
	nextID   uint64
	stopped  bool
	logger   zerolog.Logger
}

func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		channels: make(map[string]map[uint64]*subscription),
		logger:   logger.With().Str("component", "hub").Logger(),
	}
}

func (h *Hub) Subscribe(channel string, handler notification.Handler) func() {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return func() {}
	}
	h.nextID++
	sub := &subscription{
		id:      h.nextID,
		channel: channel,
		events:  make(chan *notification.Event, subscriberBuffer),
	}
	if h.channels[channel] == nil {
		h.channels[channel] = make(map[uint64]*subscription)
	}
	h.channels[channel][sub.id] = sub
	h.mu.Unlock()

	go func() {
		for ev := range sub.events {
			handler(ev)
		}
	}()

	return func() { h.unsubscribe(sub) }
}

func (h *Hub) unsubscribe(sub *subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if subs, ok := h.channels[sub.channel]; ok {
		if _, exists := subs[sub.id]; exists {
			delete(subs, sub.id)
			sub.close()
		}
		if len(subs) == 0 {
			delete(h.channels, sub.channel)
		}
	}
}

func (h *Hub) Publish(channel string, event *notification.Event) {
	if event == nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, sub := range h.channels[channel] {
		if !trySend(sub, event) {
			h.logger.Warn().
				Str("channel", channel).
				Str("event", string(event.Type)).
				Msg("subscriber buffer full, event dropped")
		}
	}
}

func (h *Hub) SubscriberCount(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels[channel])
}

func (h *Hub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stopped = true
	for channel, subs := range h.channels {
		for id, sub := range subs {
			sub.close()
			delete(subs, id)
		}
		delete(h.channels, channel)
	}
}

func trySend(sub *subscription, ev *notification.Event) bool {
	select {
	case sub.events <- ev:
		return true
	default:
		return false
	}
}
