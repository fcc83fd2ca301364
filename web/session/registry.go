// Package session keeps one node list view per mounted page.
//
// A session is created when the page is first rendered and lives until it
// has been idle for longer than the TTL with no live connection attached.
// Closing a session discards all of its state.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/screwyprof/lnisp/pkg/clock"
	"github.com/screwyprof/lnisp/web/lightning"
	"github.com/screwyprof/lnisp/web/nodelist"
)

// Sentinel errors
var (
	ErrNotFound = errors.New("session not found")
	ErrClosed   = errors.New("registry closed")
)

// Default configuration values
const (
	DefaultTTL           = 15 * time.Minute
	DefaultSweepInterval = time.Minute
)

// Session is a mounted view with its change notifications
type Session struct {
	ID   uuid.UUID
	View *nodelist.View

	changes  chan struct{}
	closer   func()
	lastSeen time.Time
	leases   int
}

// Changes signals after the view state changed in a way that affects rendering.
// Signals are coalesced; the channel is closed when the session ends.
func (s *Session) Changes() <-chan struct{} {
	return s.changes
}

func (s *Session) notify() {
	select {
	case s.changes <- struct{}{}:
	default:
	}
}

func (s *Session) close() {
	s.View.Close()
	s.closer()
	close(s.changes)
}

// Option configures the Registry
type Option func(*Registry)

// WithClock injects a custom Clock (e.g., for testing)
func WithClock(c clock.Clock) Option {
	return func(r *Registry) { r.clock = c }
}

// WithTTL sets how long an idle session is kept
func WithTTL(d time.Duration) Option {
	return func(r *Registry) { r.ttl = d }
}

// WithSweepInterval sets how often idle sessions are collected
func WithSweepInterval(d time.Duration) Option {
	return func(r *Registry) { r.sweepInterval = d }
}

// WithLogger sets the logger for session lifecycle messages
func WithLogger(log *slog.Logger) Option {
	return func(r *Registry) { r.log = log }
}

// WithSubscribers registers extra view event handlers for every new session
func WithSubscribers(fn func(id uuid.UUID) []nodelist.SubscriberOption) Option {
	return func(r *Registry) { r.subscribers = fn }
}

// Registry owns all live sessions
// -------------------------------
type Registry struct {
	nodes         lightning.NodesFinder
	rates         lightning.RateFinder
	clock         clock.Clock
	ttl           time.Duration
	sweepInterval time.Duration
	log           *slog.Logger
	subscribers   func(id uuid.UUID) []nodelist.SubscriberOption

	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
	closed   bool
}

// NewRegistry constructs a Registry with required dependencies and options
func NewRegistry(nodes lightning.NodesFinder, rates lightning.RateFinder, opts ...Option) *Registry {
	r := &Registry{
		nodes:         nodes,
		rates:         rates,
		clock:         clock.SystemClock{},
		ttl:           DefaultTTL,
		sweepInterval: DefaultSweepInterval,
		log:           slog.Default(),
		subscribers:   func(uuid.UUID) []nodelist.SubscriberOption { return nil },
		sessions:      make(map[uuid.UUID]*Session),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Open mounts a new view for asn, fetching the price and the initial
// node list concurrently, and returns once both attempts finished.
func (r *Registry) Open(ctx context.Context, asn string) (*Session, error) {
	view := nodelist.NewView(r.nodes, r.rates, asn, nodelist.WithClock(r.clock))
	s := &Session{
		ID:       uuid.New(),
		View:     view,
		changes:  make(chan struct{}, 1),
		lastSeen: r.clock.Now(),
	}

	// the identifier is shown on the page, so a request is a change even if its fetch fails
	opts := append([]nodelist.SubscriberOption{
		nodelist.OnNodesRequested(func(nodelist.NodesRequested) { s.notify() }),
		nodelist.OnNodesFetchFailed(func(nodelist.NodesFetchFailed) { s.notify() }),
		nodelist.OnNodesReplaced(func(nodelist.NodesReplaced) { s.notify() }),
		nodelist.OnRateFetched(func(nodelist.RateFetched) { s.notify() }),
	}, r.subscribers(s.ID)...)
	s.closer = nodelist.NewSubscriber(view.Events(), opts...)

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		s.close()
		return nil, ErrClosed
	}
	r.sessions[s.ID] = s
	r.mu.Unlock()

	r.log.DebugContext(ctx, "Session opened", slog.String("session", s.ID.String()), slog.String("asn", asn))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		// the price is fetched once per view, so a dropped page request must not cancel it
		view.Mount(context.WithoutCancel(ctx))
	}()
	view.SetASN(ctx, asn)
	wg.Wait()

	return s, nil
}

// Get returns the session and marks it as recently used
func (r *Registry) Get(id uuid.UUID) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	s.lastSeen = r.clock.Now()
	return s, nil
}

// Acquire returns the session and keeps it alive until the returned release is called
func (r *Registry) Acquire(id uuid.UUID) (*Session, func(), error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, nil, ErrNotFound
	}
	s.leases++

	var once sync.Once
	release := func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			s.leases--
			s.lastSeen = r.clock.Now()
		})
	}
	return s, release, nil
}

// Remove closes the session immediately
func (r *Registry) Remove(id uuid.UUID) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if !ok {
		return ErrNotFound
	}
	s.close()
	return nil
}

// Len returns the number of live sessions
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep closes sessions idle for at least the TTL and returns how many were closed
func (r *Registry) Sweep() int {
	now := r.clock.Now()

	r.mu.Lock()
	var expired []*Session
	for id, s := range r.sessions {
		if s.leases == 0 && now.Sub(s.lastSeen) >= r.ttl {
			expired = append(expired, s)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, s := range expired {
		s.close()
		r.log.Debug("Session expired", slog.String("session", s.ID.String()))
	}
	return len(expired)
}

// Run sweeps idle sessions until ctx is cancelled, then closes all sessions
func (r *Registry) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			r.closeAll()
			return
		case <-r.clock.After(r.sweepInterval):
			if n := r.Sweep(); n > 0 {
				r.log.InfoContext(ctx, "Idle sessions expired", slog.Int("count", n), slog.Int("live", r.Len()))
			}
		}
	}
}

func (r *Registry) closeAll() {
	r.mu.Lock()
	r.closed = true
	sessions := r.sessions
	r.sessions = make(map[uuid.UUID]*Session)
	r.mu.Unlock()

	for _, s := range sessions {
		s.close()
	}
}
