package api

// ASNChange is sent by the page over the websocket on every input change
type ASNChange struct {
	ASN string `json:"asn"`
}

// ViewUpdate is pushed to the page after the view state changed.
// HTML holds the rendered summary and node tables.
type ViewUpdate struct {
	Seq  uint64 `json:"seq"`
	ASN  string `json:"asn"`
	HTML string `json:"html"`
}

// Health is the response of GET /healthz
type Health struct {
	Status   string `json:"status"`
	Sessions int    `json:"sessions"`
}
