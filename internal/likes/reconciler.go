// Package likes implements the optimistic like counter that backs every
// rendered like button: toggle locally first, report to the server, keep the
// count if the server confirms, roll back if it does not. Sibling buttons for
// the same product stay in sync through a Bus, and the liked flag survives
// page visits through an injected Store.
package likes

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
)

// Action reported to the server when a toggle commits.
type Action string

const (
	ActionLike   Action = "like"
	ActionUnlike Action = "unlike"
)

// Snapshot is the externally visible like state for one product.
type Snapshot struct {
	Liked bool `json:"liked"`
	Count int  `json:"count"`
}

// Store persists the per-product liked flag between page visits. Browser
// storage in the real client; MemoryStore in tests and previews.
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string)
	Remove(key string)
}

// SubmitFunc reports a like or unlike to the server and returns the
// authoritative counter when the response carried one.
type SubmitFunc func(ctx context.Context, productID int64, action Action) (count int, hasCount bool, err error)

// ErrSubmitInFlight is returned by Toggle while a previous toggle is still
// being confirmed. At most one reconciliation runs per instance.
var ErrSubmitInFlight = errors.New("likes: submit already in flight")

const storageKeyPrefix = "africa-stickers-liked-product-"

func storageKey(productID int64) string {
	return fmt.Sprintf("%s%d", storageKeyPrefix, productID)
}

// Config wires a Reconciler. InitialCount is the server-provided counter;
// leave it nil to fall back to a pseudo-random count in [10,25]. Burst is an
// optional cosmetic hook fired when a toggle turns the like on.
type Config struct {
	ProductID    int64
	Store        Store
	Bus          *Bus
	Submit       SubmitFunc
	InitialCount *int
	Burst        func()
}

// Reconciler keeps one rendered like button consistent with local
// persistence, sibling instances on the same page, and the server counter.
//
// Toggle applies the optimistic update synchronously and then performs the
// server round trip before returning; callers that must not block run it in
// their own goroutine. All other methods are non-blocking.
type Reconciler struct {
	productID int64
	store     Store
	bus       *Bus
	submit    SubmitFunc
	burst     func()

	mu         sync.Mutex
	liked      bool
	count      int
	submitting bool
	closed     bool

	unsubscribe func()
}

func NewReconciler(cfg Config) *Reconciler {
	r := &Reconciler{
		productID: cfg.ProductID,
		store:     cfg.Store,
		bus:       cfg.Bus,
		submit:    cfg.Submit,
		burst:     cfg.Burst,
	}

	if cfg.InitialCount != nil {
		r.count = *cfg.InitialCount
	} else {
		r.count = randomInitialCount()
	}
	if v, ok := r.store.Get(storageKey(r.productID)); ok && v == "true" {
		r.liked = true
	}
	if r.bus != nil {
		r.unsubscribe = r.bus.Subscribe(r.productID, r.applyBroadcast)
	}
	return r
}

func randomInitialCount() int {
	return rand.Intn(16) + 10
}

// Snapshot returns the current local state.
func (r *Reconciler) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Snapshot{Liked: r.liked, Count: r.count}
}

// Toggle flips the like state. The optimistic flip is persisted and
// broadcast before the server is contacted; a failed confirmation rolls
// everything back. A toggle while another is in flight is rejected with
// ErrSubmitInFlight and has no effect. Server failure is not an error from
// the caller's point of view: the rollback is the recovery.
func (r *Reconciler) Toggle(ctx context.Context) error {
	r.mu.Lock()
	if r.submitting || r.closed {
		r.mu.Unlock()
		return ErrSubmitInFlight
	}

	prev := Snapshot{Liked: r.liked, Count: r.count}
	next := Snapshot{Liked: !r.liked, Count: prev.Count - 1}
	if next.Liked {
		next.Count = prev.Count + 1
	}
	if next.Count < 0 {
		next.Count = 0
	}

	r.liked = next.Liked
	r.count = next.Count
	r.submitting = true
	r.mu.Unlock()

	if next.Liked && r.burst != nil {
		r.burst()
	}
	r.persist(next.Liked)
	r.broadcast(next)

	action := ActionUnlike
	if next.Liked {
		action = ActionLike
	}
	count, hasCount, err := r.submit(ctx, r.productID, action)

	r.mu.Lock()
	r.submitting = false
	if r.closed {
		// Late response for an unmounted instance: drop it.
		r.mu.Unlock()
		return nil
	}

	var settle Snapshot
	rolledBack := false
	switch {
	case err != nil:
		r.liked = prev.Liked
		r.count = prev.Count
		settle = prev
		rolledBack = true
	case hasCount:
		r.count = count
		settle = Snapshot{Liked: next.Liked, Count: count}
	default:
		// Confirmed without a counter: the optimistic state stands.
		r.mu.Unlock()
		return nil
	}
	r.mu.Unlock()

	if rolledBack {
		r.persist(settle.Liked)
	}
	r.broadcast(settle)
	return nil
}

// Close detaches the instance from the bus. A submit still in flight settles
// without touching state.
func (r *Reconciler) Close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	if r.unsubscribe != nil {
		r.unsubscribe()
	}
}

// applyBroadcast unconditionally adopts a sibling's state, whatever state
// this instance is in. Our own broadcasts arrive here too and are no-ops.
func (r *Reconciler) applyBroadcast(s Snapshot) {
	r.mu.Lock()
	r.liked = s.Liked
	r.count = s.Count
	r.mu.Unlock()
}

func (r *Reconciler) persist(liked bool) {
	key := storageKey(r.productID)
	if liked {
		r.store.Set(key, "true")
	} else {
		r.store.Remove(key)
	}
}

func (r *Reconciler) broadcast(s Snapshot) {
	if r.bus != nil {
		r.bus.Publish(r.productID, s)
	}
}

// MemoryStore is a Store kept in process memory, standing in for browser
// storage where none exists.
type MemoryStore struct {
	mu sync.Mutex
	m  map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{m: make(map[string]string)}
}

func (s *MemoryStore) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.m[key]
	return v, ok
}

func (s *MemoryStore) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = value
}

func (s *MemoryStore) Remove(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, key)
}
