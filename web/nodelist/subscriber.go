package nodelist

// Subscriber dispatches view events to registered handlers.
// Several handlers may be registered for the same event type;
// they run in registration order.
type Subscriber struct {
	done              chan struct{}
	requestedHandlers []func(NodesRequested)
	replacedHandlers  []func(NodesReplaced)
	discardedHandlers []func(NodesDiscarded)
	failedHandlers    []func(NodesFetchFailed)
	rateHandlers      []func(RateFetched)
	rateErrorHandlers []func(RateFetchFailed)
}

// SubscriberOption registers handlers on a Subscriber
type SubscriberOption func(*Subscriber)

// OnNodesRequested adds a handler for NodesRequested events
func OnNodesRequested(fn func(NodesRequested)) SubscriberOption {
	return func(s *Subscriber) { s.requestedHandlers = append(s.requestedHandlers, fn) }
}

// OnNodesReplaced adds a handler for NodesReplaced events
func OnNodesReplaced(fn func(NodesReplaced)) SubscriberOption {
	return func(s *Subscriber) { s.replacedHandlers = append(s.replacedHandlers, fn) }
}

// OnNodesDiscarded adds a handler for NodesDiscarded events
func OnNodesDiscarded(fn func(NodesDiscarded)) SubscriberOption {
	return func(s *Subscriber) { s.discardedHandlers = append(s.discardedHandlers, fn) }
}

// OnNodesFetchFailed adds a handler for NodesFetchFailed events
func OnNodesFetchFailed(fn func(NodesFetchFailed)) SubscriberOption {
	return func(s *Subscriber) { s.failedHandlers = append(s.failedHandlers, fn) }
}

// OnRateFetched adds a handler for RateFetched events
func OnRateFetched(fn func(RateFetched)) SubscriberOption {
	return func(s *Subscriber) { s.rateHandlers = append(s.rateHandlers, fn) }
}

// OnRateFetchFailed adds a handler for RateFetchFailed events
func OnRateFetchFailed(fn func(RateFetchFailed)) SubscriberOption {
	return func(s *Subscriber) { s.rateErrorHandlers = append(s.rateErrorHandlers, fn) }
}

// NewSubscriber creates a Subscriber with the given options and starts the dispatch loop.
// Returns a closer function that waits for all events to be processed.
//
// Example:
//
//	closer := nodelist.NewSubscriber(view.Events(),
//	  nodelist.OnNodesReplaced(func(e nodelist.NodesReplaced) { ... }),
//	)
//	view.Close()
//	closer() // all events handled
//
// The subscriber processes events until the events channel closes.
func NewSubscriber(events <-chan Event, opts ...SubscriberOption) func() {
	s := &Subscriber{done: make(chan struct{})}

	for _, opt := range opts {
		opt(s)
	}

	go func() {
		defer close(s.done)
		for ev := range events {
			switch e := ev.(type) {
			case NodesRequested:
				dispatch(s.requestedHandlers, e)
			case NodesReplaced:
				dispatch(s.replacedHandlers, e)
			case NodesDiscarded:
				dispatch(s.discardedHandlers, e)
			case NodesFetchFailed:
				dispatch(s.failedHandlers, e)
			case RateFetched:
				dispatch(s.rateHandlers, e)
			case RateFetchFailed:
				dispatch(s.rateErrorHandlers, e)
			}
		}
	}()

	return func() {
		<-s.done
	}
}

func dispatch[E any](handlers []func(E), e E) {
	for _, h := range handlers {
		h(e)
	}
}
