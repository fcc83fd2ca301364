package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/screwyprof/lnisp/pkg/clock/clocktest"
	"github.com/screwyprof/lnisp/web/lightning"
	"github.com/screwyprof/lnisp/web/nodelist"
	"github.com/screwyprof/lnisp/web/session"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// TestRegistryOpen tests mounting new views
func TestRegistryOpen(t *testing.T) {
	t.Parallel()

	t.Run("it mounts a view with nodes and price loaded", func(t *testing.T) {
		t.Parallel()

		// Arrange
		registry := newRegistry(t, clocktest.New(epoch))

		// Act
		s, err := registry.Open(context.Background(), "16509")

		// Assert
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, s.ID)

		state := s.View.Snapshot()
		assert.Equal(t, "16509", state.ASN)
		assert.Len(t, state.Nodes, 1)
		assert.True(t, state.Rate.Valid)
		assert.Equal(t, 1, registry.Len())
	})

	t.Run("it gives every mount its own view", func(t *testing.T) {
		t.Parallel()

		// Arrange
		registry := newRegistry(t, clocktest.New(epoch))

		// Act
		first, err := registry.Open(context.Background(), "1")
		require.NoError(t, err)
		second, err := registry.Open(context.Background(), "2")
		require.NoError(t, err)

		// Assert
		assert.NotEqual(t, first.ID, second.ID)
		assert.Equal(t, "1", first.View.Snapshot().ASN)
		assert.Equal(t, "2", second.View.Snapshot().ASN)
	})

	t.Run("it signals changes after node replacement", func(t *testing.T) {
		t.Parallel()

		// Arrange
		registry := newRegistry(t, clocktest.New(epoch))
		s, err := registry.Open(context.Background(), "1")
		require.NoError(t, err)
		drain(s.Changes())

		// Act
		update := s.View.SetASN(context.Background(), "2")

		// Assert
		require.True(t, update.Applied)
		select {
		case <-s.Changes():
		case <-time.After(time.Second):
			t.Fatal("expected a change notification")
		}
	})

	t.Run("it signals the new identifier when its fetch fails", func(t *testing.T) {
		t.Parallel()

		// Arrange
		mounted := make(chan struct{}, 2)
		registry := session.NewRegistry(failingNodes{asn: "bad"}, staticRate{},
			session.WithClock(clocktest.New(epoch)),
			session.WithSubscribers(func(uuid.UUID) []nodelist.SubscriberOption {
				return []nodelist.SubscriberOption{
					nodelist.OnNodesReplaced(func(nodelist.NodesReplaced) { mounted <- struct{}{} }),
					nodelist.OnRateFetched(func(nodelist.RateFetched) { mounted <- struct{}{} }),
				}
			}),
		)
		t.Cleanup(func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			registry.Run(ctx)
		})

		s, err := registry.Open(context.Background(), "16509")
		require.NoError(t, err)
		<-mounted
		<-mounted
		drain(s.Changes())

		// Act
		update := s.View.SetASN(context.Background(), "bad")

		// Assert
		require.Error(t, update.Err)
		select {
		case <-s.Changes():
		case <-time.After(time.Second):
			t.Fatal("expected a change notification")
		}

		state := s.View.Snapshot()
		assert.Equal(t, "bad", state.ASN)
		assert.Equal(t, uint64(1), state.Seq)
		require.Len(t, state.Nodes, 1)
		assert.Equal(t, "node-16509", state.Nodes[0].Alias)
	})

	t.Run("it runs extra subscribers for each session", func(t *testing.T) {
		t.Parallel()

		// Arrange
		var mu sync.Mutex
		seen := map[uuid.UUID]int{}
		registry := session.NewRegistry(staticNodes{}, staticRate{},
			session.WithClock(clocktest.New(epoch)),
			session.WithSubscribers(func(id uuid.UUID) []nodelist.SubscriberOption {
				return []nodelist.SubscriberOption{
					nodelist.OnNodesReplaced(func(nodelist.NodesReplaced) {
						mu.Lock()
						defer mu.Unlock()
						seen[id]++
					}),
				}
			}),
		)

		// Act
		s, err := registry.Open(context.Background(), "1")
		require.NoError(t, err)
		require.NoError(t, registry.Remove(s.ID))

		// Assert
		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, 1, seen[s.ID])
	})
}

// TestRegistryExpiry tests idle session collection
func TestRegistryExpiry(t *testing.T) {
	t.Parallel()

	t.Run("it expires sessions idle for the TTL", func(t *testing.T) {
		t.Parallel()

		// Arrange
		clock := clocktest.New(epoch)
		registry := newRegistry(t, clock)
		s, err := registry.Open(context.Background(), "1")
		require.NoError(t, err)

		// Act
		clock.Advance(session.DefaultTTL)
		expired := registry.Sweep()

		// Assert
		assert.Equal(t, 1, expired)
		assert.Equal(t, 0, registry.Len())
		_, err = registry.Get(s.ID)
		assert.ErrorIs(t, err, session.ErrNotFound)
		assertClosed(t, s.Changes())
	})

	t.Run("it keeps recently used sessions", func(t *testing.T) {
		t.Parallel()

		// Arrange
		clock := clocktest.New(epoch)
		registry := newRegistry(t, clock)
		s, err := registry.Open(context.Background(), "1")
		require.NoError(t, err)

		// Act
		clock.Advance(session.DefaultTTL - time.Second)
		_, err = registry.Get(s.ID)
		require.NoError(t, err)
		clock.Advance(time.Minute)
		expired := registry.Sweep()

		// Assert
		assert.Zero(t, expired)
		assert.Equal(t, 1, registry.Len())
	})

	t.Run("it never expires sessions with a live connection", func(t *testing.T) {
		t.Parallel()

		// Arrange
		clock := clocktest.New(epoch)
		registry := newRegistry(t, clock)
		s, err := registry.Open(context.Background(), "1")
		require.NoError(t, err)
		_, release, err := registry.Acquire(s.ID)
		require.NoError(t, err)

		// Act
		clock.Advance(10 * session.DefaultTTL)
		whileHeld := registry.Sweep()
		release()
		clock.Advance(session.DefaultTTL)
		afterRelease := registry.Sweep()

		// Assert
		assert.Zero(t, whileHeld)
		assert.Equal(t, 1, afterRelease)
	})

	t.Run("it sweeps on the configured interval and closes everything on shutdown", func(t *testing.T) {
		t.Parallel()

		// Arrange
		clock := clocktest.New(epoch)
		registry := session.NewRegistry(staticNodes{}, staticRate{},
			session.WithClock(clock),
			session.WithTTL(time.Minute),
			session.WithSweepInterval(time.Minute),
		)
		idle, err := registry.Open(context.Background(), "1")
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			defer close(done)
			registry.Run(ctx)
		}()

		// Act
		<-clock.Armed()
		clock.Advance(time.Minute)
		assertClosed(t, idle.Changes())

		live, err := registry.Open(context.Background(), "2")
		require.NoError(t, err)
		cancel()
		<-done

		// Assert
		assertClosed(t, live.Changes())
		assert.Equal(t, 0, registry.Len())

		_, err = registry.Open(context.Background(), "3")
		assert.ErrorIs(t, err, session.ErrClosed)
	})
}

// Test helpers

func newRegistry(t *testing.T, clock *clocktest.Fake) *session.Registry {
	t.Helper()

	registry := session.NewRegistry(staticNodes{}, staticRate{}, session.WithClock(clock))
	t.Cleanup(func() {
		// a cancelled context makes Run close every remaining session and return
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		registry.Run(ctx)
	})
	return registry
}

func drain(ch <-chan struct{}) {
	for {
		select {
		case <-ch:
		default:
			return
		}
	}
}

func assertClosed(t *testing.T, ch <-chan struct{}) {
	t.Helper()

	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("expected channel to be closed")
		}
	}
}

type staticNodes struct{}

func (staticNodes) FindNodes(_ context.Context, asn string) ([]lightning.Node, error) {
	return []lightning.Node{{Alias: "node-" + asn, Capacity: 100, Channels: 1}}, nil
}

type failingNodes struct {
	asn string
}

func (f failingNodes) FindNodes(ctx context.Context, asn string) ([]lightning.Node, error) {
	if asn == f.asn {
		return nil, errors.New("directory unavailable")
	}
	return staticNodes{}.FindNodes(ctx, asn)
}

type staticRate struct{}

func (staticRate) FindUSDRate(context.Context) (decimal.Decimal, error) {
	return decimal.NewFromInt(50000), nil
}
