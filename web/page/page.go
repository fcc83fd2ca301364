// Package page renders the node list page and its live table fragment.
package page

import (
	"embed"
	"html/template"
	"io"
	"time"

	"github.com/screwyprof/lnisp/web/lightning"
	"github.com/screwyprof/lnisp/web/nodelist"
)

//go:embed templates/*.html.tmpl
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html.tmpl"))

// Summary is the aggregate statistics table
type Summary struct {
	ASN          string
	ActiveNodes  int
	Liquidity    string
	LiquidityUSD string
	Channels     int64
}

// Row is one line of the ranked node table
type Row struct {
	Rank        int
	PublicKey   string
	Alias       string
	Capacity    string
	CapacityUSD string
	Channels    int64
	FirstSeen   string
	LastUpdate  string
	Location    string
}

// Tables is the data behind the summary and node tables
type Tables struct {
	Summary Summary
	Rows    []Row
}

// Document is the data behind the full page
type Document struct {
	SessionID string
	ASN       string
	Tables    Tables
}

// Renderer turns view state into HTML
type Renderer struct {
	loc    *time.Location
	layout string
}

// NewRenderer creates a Renderer formatting timestamps in loc with layout
func NewRenderer(loc *time.Location, layout string) *Renderer {
	return &Renderer{loc: loc, layout: layout}
}

// Tables builds the table data for a view snapshot
func (r *Renderer) Tables(state nodelist.State) Tables {
	rows := make([]Row, len(state.Nodes))
	for i, n := range state.Nodes {
		rows[i] = Row{
			Rank:        i + 1,
			PublicKey:   n.PublicKey,
			Alias:       n.Alias,
			Capacity:    lightning.FormatBTC(n.Capacity),
			CapacityUSD: lightning.FormatUSD(n.Capacity, state.Rate),
			Channels:    n.Channels,
			FirstSeen:   lightning.FormatTimestamp(n.FirstSeenTime(), r.loc, r.layout),
			LastUpdate:  lightning.FormatTimestamp(n.UpdatedAtTime(), r.loc, r.layout),
			Location:    lightning.CountryName(n.Country),
		}
	}

	return Tables{
		Summary: Summary{
			ASN:          state.ASN,
			ActiveNodes:  len(state.Nodes),
			Liquidity:    lightning.FormatBTC(state.Totals.Capacity),
			LiquidityUSD: lightning.FormatUSD(state.Totals.Capacity, state.Rate),
			Channels:     state.Totals.Channels,
		},
		Rows: rows,
	}
}

// RenderPage writes the full document for a session
func (r *Renderer) RenderPage(w io.Writer, sessionID string, state nodelist.State) error {
	return templates.ExecuteTemplate(w, "index", Document{
		SessionID: sessionID,
		ASN:       state.ASN,
		Tables:    r.Tables(state),
	})
}

// RenderTables writes only the summary and node tables
func (r *Renderer) RenderTables(w io.Writer, state nodelist.State) error {
	return templates.ExecuteTemplate(w, "tables", r.Tables(state))
}
