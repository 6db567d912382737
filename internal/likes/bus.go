package likes

import "sync"

// Bus fans like-state snapshots out to every subscriber watching the same
// product within one page session. It is in-process only; nothing crosses
// tabs or devices.
type Bus struct {
	mu   sync.Mutex
	next int
	subs map[int64]map[int]func(Snapshot)
}

func NewBus() *Bus {
	return &Bus{subs: make(map[int64]map[int]func(Snapshot))}
}

// Subscribe registers fn for snapshots of productID and returns its
// unsubscribe function. Unsubscribing twice is harmless.
func (b *Bus) Subscribe(productID int64, fn func(Snapshot)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.next
	b.next++
	if b.subs[productID] == nil {
		b.subs[productID] = make(map[int]func(Snapshot))
	}
	b.subs[productID][id] = fn

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs[productID], id)
		if len(b.subs[productID]) == 0 {
			delete(b.subs, productID)
		}
	}
}

// Publish delivers s to every subscriber of productID on the caller's
// goroutine. Subscribers for other products never see it.
func (b *Bus) Publish(productID int64, s Snapshot) {
	b.mu.Lock()
	fns := make([]func(Snapshot), 0, len(b.subs[productID]))
	for _, fn := range b.subs[productID] {
		fns = append(fns, fn)
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn(s)
	}
}
