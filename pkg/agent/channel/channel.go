// Package channel provides the per-task publish/subscribe bus used to fan
// planner and executor progress out to external listeners, and to transport
// human-input responses back into a running task.
//
// Channels are keyed by task ID and fully independent across tasks. Both the
// Channel and the Registry are plain values constructed by the caller; there
// is no package-level default.
package channel

import (
	"sync"

	"github.com/entrhq/surf/pkg/types"
	"github.com/google/uuid"
)

// Subscriber is a callback invoked synchronously for every published event.
type Subscriber func(event *types.AgentEvent)

// Subscription represents an active subscription to a channel.
type Subscription struct {
	id      string
	channel *Channel
	once    sync.Once
}

// Unsubscribe removes the subscription from its channel. Safe to call
// multiple times.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		s.channel.remove(s.id)
	})
}

// Channel is a per-task event bus. PublishMessage fans out synchronously to
// all current subscribers in an unspecified order.
type Channel struct {
	taskID      string
	mu          sync.RWMutex
	subscribers map[string]Subscriber
}

// New creates a channel for the given task ID.
func New(taskID string) *Channel {
	return &Channel{
		taskID:      taskID,
		subscribers: make(map[string]Subscriber),
	}
}

// TaskID returns the task this channel belongs to.
func (c *Channel) TaskID() string {
	return c.taskID
}

// Subscribe registers a callback for all future events on this channel.
func (c *Channel) Subscribe(fn Subscriber) *Subscription {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := uuid.New().String()
	c.subscribers[id] = fn
	return &Subscription{id: id, channel: c}
}

// SubscriberCount returns the number of active subscribers.
func (c *Channel) SubscriberCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.subscribers)
}

// PublishMessage delivers the event to every current subscriber. Delivery is
// synchronous; slow subscribers slow the publisher.
func (c *Channel) PublishMessage(event *types.AgentEvent) {
	c.mu.RLock()
	subs := make([]Subscriber, 0, len(c.subscribers))
	for _, fn := range c.subscribers {
		subs = append(subs, fn)
	}
	c.mu.RUnlock()

	for _, fn := range subs {
		fn(event)
	}
}

func (c *Channel) remove(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.subscribers, id)
}

// Registry maps task IDs to their channels. A Registry is constructed
// explicitly and shared by whoever launches tasks; concurrently running
// tasks get independent channels.
type Registry struct {
	mu       sync.Mutex
	channels map[string]*Channel
}

// NewRegistry creates an empty channel registry.
func NewRegistry() *Registry {
	return &Registry{channels: make(map[string]*Channel)}
}

// GetOrCreate returns the channel for the task, creating it if absent.
func (r *Registry) GetOrCreate(taskID string) *Channel {
	r.mu.Lock()
	defer r.mu.Unlock()

	ch, ok := r.channels[taskID]
	if !ok {
		ch = New(taskID)
		r.channels[taskID] = ch
	}
	return ch
}

// Get returns the channel for the task, or nil if none exists.
func (r *Registry) Get(taskID string) *Channel {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.channels[taskID]
}

// Remove drops the channel for the task. Existing subscriptions on the
// removed channel keep working until unsubscribed but receive no further
// events from new task runs.
func (r *Registry) Remove(taskID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.channels, taskID)
}
