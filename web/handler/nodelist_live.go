package handler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/screwyprof/lnisp/pkg/httpkit"
	"github.com/screwyprof/lnisp/web/api"
	"github.com/screwyprof/lnisp/web/handler/bind"
	"github.com/screwyprof/lnisp/web/session"
)

const (
	defaultPingPeriod = 30 * time.Second
	writeWait         = 10 * time.Second
	maxMessageSize    = 4096
)

// GetLive upgrades to a websocket bound to an existing session.
// Incoming messages change the identifier; every view change is pushed back
// as freshly rendered tables.
func (h *NodeListPage) GetLive(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
	id, err := bind.SessionID(r)
	if err != nil {
		return httpkit.JsonError(api.BadRequest(err))
	}

	s, release, err := h.sessions.Acquire(id)
	if errors.Is(err, session.ErrNotFound) {
		return httpkit.JsonError(api.NotFound(err))
	}
	if err != nil {
		return httpkit.JsonError(api.InternalServerError(fmt.Errorf("%w: %w", ErrSessionLookup, err)))
	}
	defer release()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// the upgrader has already replied
		httpkit.SetError(r.Context(), err)
		return nil
	}
	defer conn.Close()

	h.serveLive(r.Context(), conn, s)
	return nil
}

func (h *NodeListPage) serveLive(ctx context.Context, conn *websocket.Conn, s *session.Session) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	log := h.log.With(slog.String("session", s.ID.String()))

	var wg sync.WaitGroup
	defer wg.Wait()

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer cancel()
		h.readLoop(ctx, conn, s, &wg, log)
	}()

	ping := time.NewTicker(h.pingPeriod)
	defer ping.Stop()

	// tables may have changed between the page render and the upgrade
	if err := h.push(conn, s); err != nil {
		log.DebugContext(ctx, "Live update failed", slog.Any("error", err))
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-s.Changes():
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "session closed"),
					time.Now().Add(writeWait))
				return
			}
			if err := h.push(conn, s); err != nil {
				log.DebugContext(ctx, "Live update failed", slog.Any("error", err))
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func (h *NodeListPage) readLoop(ctx context.Context, conn *websocket.Conn, s *session.Session, wg *sync.WaitGroup, log *slog.Logger) {
	pongWait := 2 * h.pingPeriod

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.DebugContext(ctx, "Live connection dropped", slog.Any("error", err))
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))

		msg, err := bind.ASNChange(data)
		if err != nil {
			log.WarnContext(ctx, "Ignoring live message", slog.Any("error", err))
			continue
		}

		// Overlapping fetches are resolved by the view: the latest issued one wins.
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.View.SetASN(ctx, msg.ASN)
		}()
	}
}

func (h *NodeListPage) push(conn *websocket.Conn, s *session.Session) error {
	state := s.View.Snapshot()

	var buf bytes.Buffer
	if err := h.renderer.RenderTables(&buf, state); err != nil {
		return fmt.Errorf("rendering tables: %w", err)
	}

	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(bind.ViewUpdate(state, buf.String()))
}
