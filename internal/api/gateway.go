package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/odyssey-erp/rbac-console/internal/observability"
	"github.com/odyssey-erp/rbac-console/internal/shared"
)

// TokenSource supplies bearer tokens and refreshes them after a 401.
// Refresh receives the token that was rejected so a refresh that already
// replaced it is not repeated.
type TokenSource interface {
	AccessToken() string
	Refresh(ctx context.Context, staleToken string) (string, error)
}

// Doer is the raw transport used by the Gateway.
type Doer interface {
	Do(ctx context.Context, req *Request, token string) (*Response, error)
}

// Gateway sends authenticated requests and retries once after a refresh.
type Gateway struct {
	client  Doer
	tokens  TokenSource
	logger  *slog.Logger
	metrics *observability.Metrics
}

// GatewayOption customises a Gateway.
type GatewayOption func(*Gateway)

// WithGatewayLogger sets the logger.
func WithGatewayLogger(logger *slog.Logger) GatewayOption {
	return func(g *Gateway) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithGatewayMetrics records retries.
func WithGatewayMetrics(metrics *observability.Metrics) GatewayOption {
	return func(g *Gateway) {
		g.metrics = metrics
	}
}

// NewGateway wires a transport to a token source.
func NewGateway(client Doer, tokens TokenSource, opts ...GatewayOption) *Gateway {
	g := &Gateway{client: client, tokens: tokens, logger: slog.Default()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Send dispatches req with the current access token. On a 401 it asks the
// token source for a new token and resends once. Non-2xx responses are
// returned together with an *Error.
func (g *Gateway) Send(ctx context.Context, req *Request) (*Response, error) {
	token := g.tokens.AccessToken()
	resp, err := g.client.Do(ctx, req, token)
	if err != nil {
		return nil, err
	}
	if resp.Status != http.StatusUnauthorized {
		return resp, ErrorFromResponse(req.Path, resp)
	}
	if token == "" {
		return resp, &Error{Status: resp.Status, Message: MessageOf(resp), Path: req.Path, Err: shared.ErrNotAuthenticated}
	}

	fresh, err := g.tokens.Refresh(ctx, token)
	if err != nil {
		g.logger.Warn("request not retried, refresh failed",
			slog.String("method", req.Method),
			slog.String("path", req.Path),
			slog.Any("error", err))
		return resp, &Error{Status: resp.Status, Message: MessageOf(resp), Path: req.Path, Err: err}
	}

	g.metrics.RecordRetry()
	retried, err := g.client.Do(ctx, req, fresh)
	if err != nil {
		return nil, err
	}
	return retried, ErrorFromResponse(req.Path, retried)
}

// Call sends req and decodes a successful body into out when out is non-nil.
func (g *Gateway) Call(ctx context.Context, req *Request, out any) error {
	resp, err := g.Send(ctx, req)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := resp.Decode(out); err != nil {
		return fmt.Errorf("api: %s %s: %w", req.Method, req.Path, err)
	}
	return nil
}
