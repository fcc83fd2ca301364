package bind

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/screwyprof/lnisp/web/api"
	"github.com/screwyprof/lnisp/web/nodelist"
)

// Sentinel errors for request binding
var (
	ErrInvalidSession = errors.New("invalid session parameter")
	ErrMissingSession = errors.New("session parameter is required")
	ErrInvalidMessage = errors.New("invalid websocket message")
)

// PageRequest holds the identifier the page is mounted with
type PageRequest struct {
	ASN string
}

// GetPageRequest binds the page query. The asn parameter is taken verbatim,
// an absent parameter falls back to defaultASN.
func GetPageRequest(r *http.Request, defaultASN string) PageRequest {
	query := r.URL.Query()
	if !query.Has("asn") {
		return PageRequest{ASN: defaultASN}
	}
	return PageRequest{ASN: query.Get("asn")}
}

// SessionID binds the session query parameter of the live endpoint
func SessionID(r *http.Request) (uuid.UUID, error) {
	raw := r.URL.Query().Get("session")
	if raw == "" {
		return uuid.Nil, ErrMissingSession
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %w", ErrInvalidSession, err)
	}
	return id, nil
}

// ASNChange decodes an identifier change sent by the page
func ASNChange(data []byte) (api.ASNChange, error) {
	var msg api.ASNChange
	if err := json.Unmarshal(data, &msg); err != nil {
		return api.ASNChange{}, fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}
	return msg, nil
}

// ViewUpdate binds a view snapshot and its rendered tables to the push message
func ViewUpdate(state nodelist.State, html string) api.ViewUpdate {
	return api.ViewUpdate{
		Seq:  state.Seq,
		ASN:  state.ASN,
		HTML: html,
	}
}
