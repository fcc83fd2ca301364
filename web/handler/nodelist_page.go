package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/screwyprof/lnisp/pkg/httpkit"
	"github.com/screwyprof/lnisp/web/api"
	"github.com/screwyprof/lnisp/web/handler/bind"
	"github.com/screwyprof/lnisp/web/nodelist"
	"github.com/screwyprof/lnisp/web/session"
)

const (
	GetPageRoute   = http.MethodGet + " " + "/{$}"
	GetLiveRoute   = http.MethodGet + " " + "/ws"
	GetHealthRoute = http.MethodGet + " " + "/healthz"
)

// Sentinel errors
var (
	ErrMountFailed   = errors.New("failed to mount node list")
	ErrSessionLookup = errors.New("failed to look up session")
)

// Sessions opens and looks up mounted node list views
type Sessions interface {
	Open(ctx context.Context, asn string) (*session.Session, error)
	Acquire(id uuid.UUID) (*session.Session, func(), error)
	Len() int
}

// Renderer renders the page and the live-updated tables
type Renderer interface {
	RenderPage(w io.Writer, sessionID string, state nodelist.State) error
	RenderTables(w io.Writer, state nodelist.State) error
}

// Option configures the NodeListPage handler
type Option func(*NodeListPage)

// WithLogger sets the logger for live connection messages
func WithLogger(log *slog.Logger) Option {
	return func(h *NodeListPage) { h.log = log }
}

// WithPingPeriod sets how often live connections are pinged
func WithPingPeriod(d time.Duration) Option {
	return func(h *NodeListPage) { h.pingPeriod = d }
}

type NodeListPage struct {
	sessions   Sessions
	renderer   Renderer
	defaultASN string
	upgrader   websocket.Upgrader
	pingPeriod time.Duration
	log        *slog.Logger
}

func NewNodeListPage(sessions Sessions, renderer Renderer, defaultASN string, opts ...Option) *NodeListPage {
	h := &NodeListPage{
		sessions:   sessions,
		renderer:   renderer,
		defaultASN: defaultASN,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		pingPeriod: defaultPingPeriod,
		log:        slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *NodeListPage) AddRoutes(m *http.ServeMux) {
	m.Handle(GetPageRoute, httpkit.HandlerFunc(h.GetPage))
	m.Handle(GetLiveRoute, httpkit.HandlerFunc(h.GetLive))
	m.Handle(GetHealthRoute, httpkit.HandlerFunc(h.GetHealth))
}

// GetPage mounts a new view and renders the full page for it
func (h *NodeListPage) GetPage(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
	req := bind.GetPageRequest(r, h.defaultASN)

	s, err := h.sessions.Open(r.Context(), req.ASN)
	if err != nil {
		return httpkit.JsonError(api.InternalServerError(fmt.Errorf("%w: %w", ErrMountFailed, err)))
	}

	return httpkit.HTML(func(w io.Writer) error {
		return h.renderer.RenderPage(w, s.ID.String(), s.View.Snapshot())
	})
}

// GetHealth reports liveness and the number of mounted views
func (h *NodeListPage) GetHealth(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
	return httpkit.JSON(api.Health{
		Status:   "ok",
		Sessions: h.sessions.Len(),
	})
}
