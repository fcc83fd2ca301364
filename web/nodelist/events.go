package nodelist

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/screwyprof/lnisp/web/lightning"
)

// Event represents a view lifecycle event
// ---------------------------------------
type Event any

type NodesRequested struct {
	Seq uint64
	ASN string
}

type NodesReplaced struct {
	Seq      uint64
	ASN      string
	Count    int
	Totals   lightning.Totals
	Duration time.Duration
}

// NodesDiscarded is emitted when a response arrives after a newer request was issued
type NodesDiscarded struct {
	Seq    uint64
	Latest uint64
	ASN    string
}

type NodesFetchFailed struct {
	Seq uint64
	ASN string
	Err error
}

type RateFetched struct {
	Rate     decimal.Decimal
	Duration time.Duration
}

type RateFetchFailed struct {
	Err error
}
