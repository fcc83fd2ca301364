package nodelist

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/screwyprof/lnisp/pkg/clock"
	"github.com/screwyprof/lnisp/web/lightning"
)

// Sentinel errors for failure cases
var (
	ErrNodesFetchFailed = errors.New("node directory request failed")
	ErrRateFetchFailed  = errors.New("price request failed")
	ErrViewClosed       = errors.New("view closed")
)

// Clock abstracts time for production and testing
type Clock interface {
	Now() time.Time
}

// State is a snapshot of the view.
// Totals are always derived from Nodes.
type State struct {
	ASN    string
	Nodes  []lightning.Node
	Rate   decimal.NullDecimal
	Totals lightning.Totals
	Seq    uint64 // request that produced Nodes, 0 before the first success
}

// Update reports the outcome of a SetASN call
type Update struct {
	Seq     uint64
	Applied bool
	Err     error
}

// Option configures the View
type Option func(*View)

// WithClock injects a custom Clock (e.g., for testing)
func WithClock(c Clock) Option {
	return func(v *View) { v.clock = c }
}

// WithEventBuffer sets the capacity of the events channel
func WithEventBuffer(n int) Option {
	return func(v *View) { v.events = make(chan Event, n) }
}

// View holds the state of one mounted node list page
// ---------------------------------------------------
type View struct {
	nodes lightning.NodesFinder
	rates lightning.RateFinder
	clock Clock

	mu     sync.Mutex
	state  State
	issued uint64
	closed bool

	priceOnce sync.Once
	events    chan Event
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewView constructs a View for the given initial identifier.
// The returned view must be closed with Close; its events channel
// must be drained until it is closed.
func NewView(nodes lightning.NodesFinder, rates lightning.RateFinder, asn string, opts ...Option) *View {
	ctx, cancel := context.WithCancel(context.Background())
	v := &View{
		nodes:  nodes,
		rates:  rates,
		clock:  clock.SystemClock{},
		state:  State{ASN: asn},
		events: make(chan Event, 16),
		ctx:    ctx,
		cancel: cancel,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Events returns the lifecycle events channel. It is closed by Close.
func (v *View) Events() <-chan Event {
	return v.events
}

// Snapshot returns a copy of the current state
func (v *View) Snapshot() State {
	v.mu.Lock()
	defer v.mu.Unlock()

	s := v.state
	s.Nodes = append([]lightning.Node(nil), v.state.Nodes...)
	return s
}

// Mount fetches the price exactly once per view.
// Later calls return immediately.
func (v *View) Mount(ctx context.Context) {
	v.priceOnce.Do(func() {
		if !v.begin() {
			return
		}
		defer v.wg.Done()

		ctx, stop := v.bind(ctx)
		defer stop()

		start := v.clock.Now()
		rate, err := v.rates.FindUSDRate(ctx)
		if err != nil {
			v.emit(RateFetchFailed{Err: fmt.Errorf("%w: %w", ErrRateFetchFailed, err)})
			return
		}

		v.mu.Lock()
		v.state.Rate = decimal.NewNullDecimal(rate)
		v.mu.Unlock()

		v.emit(RateFetched{Rate: rate, Duration: v.clock.Now().Sub(start)})
	})
}

// SetASN stores the identifier verbatim and fetches its nodes.
//
// Every call issues a new request sequence number. The response replaces
// the node list only if no newer request was issued in the meantime;
// on failure the previous node list and totals are kept.
func (v *View) SetASN(ctx context.Context, asn string) Update {
	if !v.begin() {
		return Update{Err: ErrViewClosed}
	}
	defer v.wg.Done()

	v.mu.Lock()
	v.issued++
	seq := v.issued
	v.state.ASN = asn
	v.mu.Unlock()

	v.emit(NodesRequested{Seq: seq, ASN: asn})

	ctx, stop := v.bind(ctx)
	defer stop()

	start := v.clock.Now()
	nodes, err := v.nodes.FindNodes(ctx, asn)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrNodesFetchFailed, err)
		v.emit(NodesFetchFailed{Seq: seq, ASN: asn, Err: err})
		return Update{Seq: seq, Err: err}
	}

	v.mu.Lock()
	latest := v.issued
	if seq < latest {
		v.mu.Unlock()
		v.emit(NodesDiscarded{Seq: seq, Latest: latest, ASN: asn})
		return Update{Seq: seq}
	}
	totals := lightning.Aggregate(nodes)
	v.state.Nodes = nodes
	v.state.Totals = totals
	v.state.Seq = seq
	v.mu.Unlock()

	v.emit(NodesReplaced{
		Seq:      seq,
		ASN:      asn,
		Count:    len(nodes),
		Totals:   totals,
		Duration: v.clock.Now().Sub(start),
	})
	return Update{Seq: seq, Applied: true}
}

// Close cancels in-flight requests, waits for them and closes the events channel
func (v *View) Close() {
	v.closeOnce.Do(func() {
		v.mu.Lock()
		v.closed = true
		v.mu.Unlock()

		v.cancel()
		v.wg.Wait()
		close(v.events)
	})
}

// begin registers an in-flight operation unless the view is closed
func (v *View) begin() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return false
	}
	v.wg.Add(1)
	return true
}

// bind derives a context cancelled by either the caller or Close
func (v *View) bind(ctx context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(v.ctx, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

func (v *View) emit(ev Event) {
	select {
	case v.events <- ev:
	case <-v.ctx.Done():
	}
}
