package shift

import (
	"log/slog"
	"sync"
	"time"
)

type EventType string

// Event is published after a mutation has been persisted.
type Event struct {
	Type    EventType `json:"type"`
	OwnerID string    `json:"ownerId"`
	ShiftID string    `json:"shiftId,omitempty"`
	At      time.Time `json:"at"`
}

type subscriber struct {
	id int
	fn func(Event)
}

// Notifier delivers events synchronously to registered observers in
// registration order. A panicking observer is recovered and logged so the
// remaining observers still run.
type Notifier struct {
	mu          sync.RWMutex
	nextID      int
	subscribers []subscriber
}

func NewNotifier() *Notifier {
	return &Notifier{}
}

// Subscribe registers fn and returns a function that removes it. Calling the
// returned function more than once is harmless.
func (n *Notifier) Subscribe(fn func(Event)) func() {
	n.mu.Lock()
	n.nextID++
	id := n.nextID
	n.subscribers = append(n.subscribers, subscriber{id: id, fn: fn})
	n.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			n.mu.Lock()
			defer n.mu.Unlock()
			for i, sub := range n.subscribers {
				if sub.id == id {
					n.subscribers = append(n.subscribers[:i:i], n.subscribers[i+1:]...)
					return
				}
			}
		})
	}
}

func (n *Notifier) Publish(evt Event) {
	n.mu.RLock()
	subs := make([]subscriber, len(n.subscribers))
	copy(subs, n.subscribers)
	n.mu.RUnlock()

	for _, sub := range subs {
		deliver(sub.fn, evt)
	}
}

func deliver(fn func(Event), evt Event) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("shift event observer panicked", "event", string(evt.Type), "owner", evt.OwnerID, "panic", r)
		}
	}()
	fn(evt)
}
