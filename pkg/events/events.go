package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType represents the type of event
type EventType string

const (
	EventDeployStarted      EventType = "deploy.started"
	EventDeploySucceeded    EventType = "deploy.succeeded"
	EventDeployFailed       EventType = "deploy.failed"
	EventDeployCancelled    EventType = "deploy.cancelled"
	EventRollbackSucceeded  EventType = "rollback.succeeded"
	EventRollbackFailed     EventType = "rollback.failed"
	EventContainerStopped   EventType = "watcher.container_stopped"
	EventReconcileCompleted EventType = "reconcile.completed"
)

// ringCapacity bounds the in-memory history behind Recent
const ringCapacity = 256

// Event represents a deployment lifecycle event
type Event struct {
	ID           string    `json:"id"`
	Type         EventType `json:"type"`
	ProjectID    string    `json:"projectId,omitempty"`
	DeploymentID string    `json:"deploymentId,omitempty"`
	Message      string    `json:"message,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// Subscriber is a channel that receives events
type Subscriber chan *Event

// Broker manages event subscriptions and distribution
type Broker struct {
	subscribers map[Subscriber]bool
	mu          sync.RWMutex
	eventCh     chan *Event
	stopCh      chan struct{}

	ringMu    sync.Mutex
	ring      []*Event
	ringNext  int
	ringCount int
}

// NewBroker creates a new event broker
func NewBroker() *Broker {
	return &Broker{
		subscribers: make(map[Subscriber]bool),
		eventCh:     make(chan *Event, 100), // Buffer up to 100 events
		stopCh:      make(chan struct{}),
		ring:        make([]*Event, ringCapacity),
	}
}

// Start begins the broker's event distribution loop
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

	sub := make(Subscriber, 50) // Buffer per subscriber
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

// Publish publishes an event to all subscribers and records it in the ring
func (b *Broker) Publish(event *Event) {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	// Record synchronously so Recent sees the event immediately
	b.remember(event)

	select {
	case b.eventCh <- event:
	case <-b.stopCh:
	}
}

// Recent returns up to n events, newest first. n <= 0 returns everything
// still buffered.
func (b *Broker) Recent(n int) []*Event {
	b.ringMu.Lock()
	defer b.ringMu.Unlock()

	if n <= 0 || n > b.ringCount {
		n = b.ringCount
	}

	out := make([]*Event, 0, n)
	for i := 0; i < n; i++ {
		idx := (b.ringNext - 1 - i + len(b.ring)) % len(b.ring)
		out = append(out, b.ring[idx])
	}
	return out
}

func (b *Broker) remember(event *Event) {
	b.ringMu.Lock()
	defer b.ringMu.Unlock()

	b.ring[b.ringNext] = event
	b.ringNext = (b.ringNext + 1) % len(b.ring)
	if b.ringCount < len(b.ring) {
		b.ringCount++
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
