package nodelist

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/screwyprof/lnisp/pkg/mempool"
	"github.com/screwyprof/lnisp/web/lightning"
)

// MempoolClient fetches ISP nodes from the node directory
type MempoolClient interface {
	GetISPNodes(ctx context.Context, asn string) (mempool.ISPNodes, error)
}

// CoindeskClient fetches the USD price of bitcoin
type CoindeskClient interface {
	GetUSDRate(ctx context.Context) (decimal.Decimal, error)
}

// MempoolNodes adapts a mempool client to lightning.NodesFinder
type MempoolNodes struct {
	api MempoolClient
}

// NewMempoolNodes creates a lightning.NodesFinder backed by mempool.space
func NewMempoolNodes(api MempoolClient) *MempoolNodes {
	return &MempoolNodes{api: api}
}

// FindNodes implements lightning.NodesFinder
func (m *MempoolNodes) FindNodes(ctx context.Context, asn string) ([]lightning.Node, error) {
	resp, err := m.api.GetISPNodes(ctx, asn)
	if err != nil {
		return nil, err
	}
	return convertMempoolNodes(resp.Nodes), nil
}

// CoindeskRates adapts a coindesk client to lightning.RateFinder
type CoindeskRates struct {
	api CoindeskClient
}

// NewCoindeskRates creates a lightning.RateFinder backed by the CoinDesk BPI
func NewCoindeskRates(api CoindeskClient) *CoindeskRates {
	return &CoindeskRates{api: api}
}

// FindUSDRate implements lightning.RateFinder
func (c *CoindeskRates) FindUSDRate(ctx context.Context) (decimal.Decimal, error) {
	return c.api.GetUSDRate(ctx)
}

// convertMempoolNodes converts API nodes to domain nodes, preserving order
func convertMempoolNodes(apiNodes []mempool.Node) []lightning.Node {
	nodes := make([]lightning.Node, len(apiNodes))

	for i, n := range apiNodes {
		nodes[i] = lightning.Node{
			PublicKey: n.PublicKey,
			Alias:     n.Alias,
			Capacity:  n.Capacity,
			Channels:  n.Channels,
			FirstSeen: n.FirstSeen,
			UpdatedAt: n.UpdatedAt,
			ISOCode:   n.ISOCode,
		}
		if n.City != nil {
			nodes[i].City = n.City.En
		}
		if n.Country != nil {
			nodes[i].Country = &lightning.Country{En: n.Country.En}
		}
	}

	return nodes
}
