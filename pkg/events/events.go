package events

import (
	"fmt"
	"sync"
	"time"

	"github.com/reductstore/reduct-operator/pkg/types"
)

// Event is one triggering occurrence delivered to the controller
type Event struct {
	Type      types.EventType
	Timestamp time.Time
	Relation  string // relation ID for relation-changed events
}

// Parse validates an event name from the platform
func Parse(name string) (types.EventType, error) {
	switch t := types.EventType(name); t {
	case types.EventInstall,
		types.EventConfigChanged,
		types.EventSupervisorReady,
		types.EventRelationChanged,
		types.EventStorageAttached,
		types.EventStorageDetached,
		types.EventUpdateStatus,
		types.EventUpgrade:
		return t, nil
	default:
		return "", fmt.Errorf("unknown event: %q", name)
	}
}

// Subscriber is a channel that receives events
type Subscriber chan *Event

// Broker distributes triggering events to subscribers. Daemon mode feeds it
// from a ticker and delivers each event to the controller loop.
type Broker struct {
	subscribers map[Subscriber]bool
	mu          sync.RWMutex
	eventCh     chan *Event
	stopCh      chan struct{}
}

// NewBroker creates a new event broker
func NewBroker() *Broker {
	return &Broker{
		subscribers: make(map[Subscriber]bool),
		eventCh:     make(chan *Event, 100),
		stopCh:      make(chan struct{}),
	}
}

// Start begins the broker's distribution loop
func (b *Broker) Start() {
	go b.run()
}

// Stop stops the broker
func (b *Broker) Stop() {
	close(b.stopCh)
}

// Subscribe creates a new subscription and returns a channel
func (b *Broker) Subscribe() Subscriber {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := make(Subscriber, 50)
	b.subscribers[sub] = true
	return sub
}

// Unsubscribe removes a subscription
func (b *Broker) Unsubscribe(sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.subscribers, sub)
	close(sub)
}

// Publish publishes an event to all subscribers
func (b *Broker) Publish(event *Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	select {
	case b.eventCh <- event:
	case <-b.stopCh:
	}
}

func (b *Broker) run() {
	for {
		select {
		case event := <-b.eventCh:
			b.broadcast(event)
		case <-b.stopCh:
			return
		}
	}
}

func (b *Broker) broadcast(event *Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for sub := range b.subscribers {
		select {
		case sub <- event:
		default:
			// Subscriber buffer full, skip
		}
	}
}

// SubscriberCount returns the number of active subscribers
func (b *Broker) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
