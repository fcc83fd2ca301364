// Package lightning holds the Lightning node domain model and its display rules.
package lightning

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Node represents a Lightning Network node hosted by an ISP
type Node struct {
	PublicKey string
	Alias     string
	Capacity  int64 // sats
	Channels  int64
	FirstSeen int64 // unix seconds
	UpdatedAt int64 // unix seconds
	City      string
	Country   *Country
	ISOCode   string
}

// Country is the location of a node. A nil *Country means the directory
// had no location for it.
type Country struct {
	En string
}

// FirstSeenTime returns the first-seen timestamp as time.Time
func (n Node) FirstSeenTime() time.Time { return time.Unix(n.FirstSeen, 0) }

// UpdatedAtTime returns the last-update timestamp as time.Time
func (n Node) UpdatedAtTime() time.Time { return time.Unix(n.UpdatedAt, 0) }

// NodesFinder retrieves the nodes hosted by an ASN, in directory order
type NodesFinder interface {
	FindNodes(ctx context.Context, asn string) ([]Node, error)
}

// RateFinder retrieves the spot USD price of one bitcoin
type RateFinder interface {
	FindUSDRate(ctx context.Context) (decimal.Decimal, error)
}

// Totals are the aggregate statistics of a node sequence
type Totals struct {
	Capacity int64
	Channels int64
}

// Aggregate sums capacity and channel counts across nodes
func Aggregate(nodes []Node) Totals {
	var t Totals
	for _, n := range nodes {
		t.Capacity += n.Capacity
		t.Channels += n.Channels
	}
	return t
}
