package likes

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(n int) *int { return &n }

func okSubmit(count int) SubmitFunc {
	return func(ctx context.Context, productID int64, action Action) (int, bool, error) {
		return count, true, nil
	}
}

func failSubmit() SubmitFunc {
	return func(ctx context.Context, productID int64, action Action) (int, bool, error) {
		return 0, false, errors.New("network down")
	}
}

func TestToggleOptimisticThenConfirm(t *testing.T) {
	store := NewMemoryStore()
	var gotAction Action
	r := NewReconciler(Config{
		ProductID:    7,
		Store:        store,
		Bus:          NewBus(),
		InitialCount: intPtr(12),
		Submit: func(ctx context.Context, productID int64, action Action) (int, bool, error) {
			gotAction = action
			return 13, true, nil
		},
	})

	require.NoError(t, r.Toggle(context.Background()))

	assert.Equal(t, Snapshot{Liked: true, Count: 13}, r.Snapshot())
	assert.Equal(t, ActionLike, gotAction)
	v, ok := store.Get("africa-stickers-liked-product-7")
	require.True(t, ok)
	assert.Equal(t, "true", v)
}

func TestToggleRollsBackOnFailure(t *testing.T) {
	store := NewMemoryStore()
	r := NewReconciler(Config{
		ProductID:    7,
		Store:        store,
		Bus:          NewBus(),
		InitialCount: intPtr(12),
		Submit:       failSubmit(),
	})

	require.NoError(t, r.Toggle(context.Background()))

	assert.Equal(t, Snapshot{Liked: false, Count: 12}, r.Snapshot())
	_, ok := store.Get("africa-stickers-liked-product-7")
	assert.False(t, ok, "rollback must undo the persisted flag")
}

func TestToggleConfirmedWithoutCounterKeepsOptimisticCount(t *testing.T) {
	r := NewReconciler(Config{
		ProductID:    3,
		Store:        NewMemoryStore(),
		InitialCount: intPtr(20),
		Submit: func(ctx context.Context, productID int64, action Action) (int, bool, error) {
			return 0, false, nil
		},
	})

	require.NoError(t, r.Toggle(context.Background()))
	assert.Equal(t, Snapshot{Liked: true, Count: 21}, r.Snapshot())
}

func TestUnlikeFloorsAtZero(t *testing.T) {
	store := NewMemoryStore()
	store.Set("africa-stickers-liked-product-9", "true")

	var gotAction Action
	r := NewReconciler(Config{
		ProductID:    9,
		Store:        store,
		InitialCount: intPtr(0),
		Submit: func(ctx context.Context, productID int64, action Action) (int, bool, error) {
			gotAction = action
			return 0, false, nil
		},
	})
	require.Equal(t, Snapshot{Liked: true, Count: 0}, r.Snapshot())

	require.NoError(t, r.Toggle(context.Background()))

	assert.Equal(t, ActionUnlike, gotAction)
	assert.Equal(t, Snapshot{Liked: false, Count: 0}, r.Snapshot())
	_, ok := store.Get("africa-stickers-liked-product-9")
	assert.False(t, ok)
}

func TestSecondToggleRejectedWhileSubmitting(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var calls int32

	r := NewReconciler(Config{
		ProductID:    5,
		Store:        NewMemoryStore(),
		InitialCount: intPtr(12),
		Submit: func(ctx context.Context, productID int64, action Action) (int, bool, error) {
			if atomic.AddInt32(&calls, 1) == 1 {
				close(started)
				<-release
			}
			return 13, true, nil
		},
	})

	done := make(chan error, 1)
	go func() { done <- r.Toggle(context.Background()) }()

	<-started
	assert.ErrorIs(t, r.Toggle(context.Background()), ErrSubmitInFlight)
	assert.Equal(t, Snapshot{Liked: true, Count: 13}, r.Snapshot(), "optimistic state must be untouched by the rejected toggle")

	close(release)
	require.NoError(t, <-done)

	assert.EqualValues(t, 1, atomic.LoadInt32(&calls), "rejected toggle must not reach the server")
	assert.Equal(t, Snapshot{Liked: true, Count: 13}, r.Snapshot())
}

func TestBroadcastSyncsSiblingInstances(t *testing.T) {
	bus := NewBus()
	store := NewMemoryStore()

	a := NewReconciler(Config{ProductID: 4, Store: store, Bus: bus, InitialCount: intPtr(10), Submit: okSubmit(11)})
	b := NewReconciler(Config{ProductID: 4, Store: store, Bus: bus, InitialCount: intPtr(10), Submit: okSubmit(11)})
	other := NewReconciler(Config{ProductID: 99, Store: store, Bus: bus, InitialCount: intPtr(42), Submit: okSubmit(43)})

	require.NoError(t, a.Toggle(context.Background()))

	assert.Equal(t, Snapshot{Liked: true, Count: 11}, b.Snapshot(), "sibling adopts confirmed state")
	assert.Equal(t, Snapshot{Liked: false, Count: 42}, other.Snapshot(), "unrelated product untouched")
}

func TestRollbackIsBroadcastToSiblings(t *testing.T) {
	bus := NewBus()
	store := NewMemoryStore()

	a := NewReconciler(Config{ProductID: 4, Store: store, Bus: bus, InitialCount: intPtr(10), Submit: failSubmit()})
	b := NewReconciler(Config{ProductID: 4, Store: store, Bus: bus, InitialCount: intPtr(10), Submit: okSubmit(0)})

	require.NoError(t, a.Toggle(context.Background()))

	assert.Equal(t, Snapshot{Liked: false, Count: 10}, a.Snapshot())
	assert.Equal(t, Snapshot{Liked: false, Count: 10}, b.Snapshot())
}

func TestBurstFiresOnlyWhenLiking(t *testing.T) {
	var bursts int
	store := NewMemoryStore()
	r := NewReconciler(Config{
		ProductID:    6,
		Store:        store,
		InitialCount: intPtr(5),
		Submit:       okSubmit(6),
		Burst:        func() { bursts++ },
	})

	require.NoError(t, r.Toggle(context.Background())) // like
	require.NoError(t, r.Toggle(context.Background())) // unlike

	assert.Equal(t, 1, bursts)
}

func TestRandomInitialCountRange(t *testing.T) {
	for range 100 {
		r := NewReconciler(Config{ProductID: 1, Store: NewMemoryStore(), Submit: okSubmit(0)})
		n := r.Snapshot().Count
		assert.GreaterOrEqual(t, n, 10)
		assert.LessOrEqual(t, n, 25)
	}
}

func TestLikedFlagReadAtConstruction(t *testing.T) {
	store := NewMemoryStore()
	store.Set("africa-stickers-liked-product-8", "true")

	r := NewReconciler(Config{ProductID: 8, Store: store, InitialCount: intPtr(3), Submit: okSubmit(0)})
	assert.True(t, r.Snapshot().Liked)
}

func TestCloseDropsLateResponse(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})

	r := NewReconciler(Config{
		ProductID:    2,
		Store:        NewMemoryStore(),
		Bus:          NewBus(),
		InitialCount: intPtr(12),
		Submit: func(ctx context.Context, productID int64, action Action) (int, bool, error) {
			close(started)
			<-release
			return 999, true, nil
		},
	})

	done := make(chan error, 1)
	go func() { done <- r.Toggle(context.Background()) }()

	<-started
	r.Close()
	close(release)
	require.NoError(t, <-done)

	// The optimistic value stays; the late authoritative count is dropped.
	assert.Equal(t, Snapshot{Liked: true, Count: 13}, r.Snapshot())
}

func TestBusUnsubscribeStopsDelivery(t *testing.T) {
	bus := NewBus()
	var got []Snapshot
	unsub := bus.Subscribe(1, func(s Snapshot) { got = append(got, s) })

	bus.Publish(1, Snapshot{Liked: true, Count: 1})
	unsub()
	bus.Publish(1, Snapshot{Liked: false, Count: 0})

	// Give nothing a chance to sneak in; Publish is synchronous.
	time.Sleep(time.Millisecond)
	require.Len(t, got, 1)
	assert.Equal(t, Snapshot{Liked: true, Count: 1}, got[0])
}
