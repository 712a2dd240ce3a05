package shift

import (
	"sync"
	"time"

	"wagevo/internal/platform/kv"
)

// Directory hands out one Store per worker over a shared kv.Store. All stores
// publish to the same Notifier.
type Directory struct {
	DB     kv.Store
	Events *Notifier
	Clock  func() time.Time
	NewID  func() string

	mu     sync.Mutex
	stores map[string]*Store
}

func NewDirectory(db kv.Store) *Directory {
	return &Directory{DB: db, Events: NewNotifier(), stores: map[string]*Store{}}
}

// For returns the Store of ownerID, creating it on first use. The same
// instance is returned on every call so mutations per worker stay serialized.
func (d *Directory) For(ownerID string) *Store {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stores == nil {
		d.stores = map[string]*Store{}
	}
	if d.Events == nil {
		d.Events = NewNotifier()
	}
	if store, ok := d.stores[ownerID]; ok {
		return store
	}
	store := NewStore(d.DB, ownerID, d.Events)
	if d.Clock != nil {
		store.Clock = d.Clock
	}
	if d.NewID != nil {
		store.NewID = d.NewID
	}
	d.stores[ownerID] = store
	return store
}

// Subscribe registers fn for events of every worker.
func (d *Directory) Subscribe(fn func(Event)) func() {
	d.mu.Lock()
	if d.Events == nil {
		d.Events = NewNotifier()
	}
	events := d.Events
	d.mu.Unlock()
	return events.Subscribe(fn)
}
