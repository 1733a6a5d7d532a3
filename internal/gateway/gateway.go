package gateway

import (
	"context"
	"errors"
	"fmt"
	"pickme/internal/models"
	"pickme/internal/providers"
	"pickme/internal/structures"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
)

// PayloadSource supplies the canonical state sent along with every action
// when the remote handler keeps no state of its own.
type PayloadSource interface {
	Persistable() models.PersistedState
}

type GatewayInterface interface {
	Dispatch(ctx context.Context, action Action) (*Response, error)
	CancelAll()
	Pending() int
}

type pendingRequest struct {
	id     uuid.UUID
	cancel context.CancelFunc
}

// Gateway keeps at most one in-flight request per action kind. Starting a
// request cancels the previous one of the same kind.
type Gateway struct {
	mu        sync.Mutex
	pending   map[string]*pendingRequest
	transport Transport
	source    PayloadSource
	sendState bool
	logger    providers.Logger
	metrics   providers.MetricsProviderInterface
}

func NewGateway(conf *structures.Config, transport Transport, source PayloadSource, logger providers.Logger, metrics providers.MetricsProviderInterface) GatewayInterface {
	return &Gateway{
		pending:   make(map[string]*pendingRequest),
		transport: transport,
		source:    source,
		sendState: conf.Remote.SendState,
		logger:    logger,
		metrics:   metrics,
	}
}

func (g *Gateway) Dispatch(ctx context.Context, action Action) (*Response, error) {
	start := time.Now()
	reqCtx, token := g.begin(ctx, action.Kind)
	defer g.end(action.Kind, token)

	g.logger.Debugf(providers.TypeAction, "Dispatching %s (request %s)", action.Kind, token.id)
	resp, err := g.roundTrip(reqCtx, action, token)

	g.metrics.ObserveActionDuration(action.Kind, time.Since(start))
	g.metrics.IncActionsTotal(action.Kind, outcome(err))
	switch {
	case err == nil:
	case errors.Is(err, ErrAborted):
		g.logger.Debugf(providers.TypeAction, "Request %s for %s aborted", token.id, action.Kind)
	default:
		g.logger.Warnf(providers.TypeAction, "Action %s failed: %s", action.Kind, err)
	}
	return resp, err
}

func (g *Gateway) roundTrip(ctx context.Context, action Action, token *pendingRequest) (*Response, error) {
	body, err := g.encode(action)
	if err != nil {
		return nil, err
	}

	status, data, err := g.transport.Post(ctx, body)
	if ctx.Err() != nil || !g.isCurrent(action.Kind, token) {
		return nil, ErrAborted
	}
	if err != nil && status == 0 {
		return nil, &NetworkError{Err: err}
	}

	var resp Response
	if len(data) > 0 {
		// A body that is not JSON reads as an empty reply.
		_ = json.Unmarshal(data, &resp)
	}
	if status < 200 || status >= 300 {
		msg := resp.Message
		if msg == "" {
			msg = defaultHTTPMessage
		}
		return nil, &HTTPError{Status: status, Message: msg}
	}
	return &resp, nil
}

func (g *Gateway) encode(action Action) ([]byte, error) {
	body := make(map[string]any, len(action.Params)+2)
	for k, v := range action.Params {
		body[k] = v
	}
	body["action"] = action.Kind
	if g.sendState && g.source != nil {
		body["payload"] = g.source.Persistable()
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", action.Kind, err)
	}
	return data, nil
}

// begin installs a fresh token for kind and cancels the one it replaces.
func (g *Gateway) begin(parent context.Context, kind string) (context.Context, *pendingRequest) {
	ctx, cancel := context.WithCancel(parent)
	token := &pendingRequest{id: uuid.New(), cancel: cancel}

	g.mu.Lock()
	if prev, ok := g.pending[kind]; ok {
		prev.cancel()
	}
	g.pending[kind] = token
	g.mu.Unlock()
	return ctx, token
}

func (g *Gateway) isCurrent(kind string, token *pendingRequest) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pending[kind] == token
}

// end removes the token only if a newer request has not replaced it.
func (g *Gateway) end(kind string, token *pendingRequest) {
	token.cancel()
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.pending[kind] == token {
		delete(g.pending, kind)
	}
}

func (g *Gateway) CancelAll() {
	g.mu.Lock()
	defer g.mu.Unlock()
	for kind, token := range g.pending {
		token.cancel()
		delete(g.pending, kind)
	}
}

func (g *Gateway) Pending() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.pending)
}

func outcome(err error) string {
	var httpErr *HTTPError
	var netErr *NetworkError
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrAborted):
		return "aborted"
	case errors.As(err, &httpErr):
		return "http_error"
	case errors.As(err, &netErr):
		return "network_error"
	default:
		return "error"
	}
}
