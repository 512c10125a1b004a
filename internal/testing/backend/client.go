package backend

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/odyssey-erp/rbac-console/internal/api"
)

type staticTokens struct{ token string }

func (s staticTokens) AccessToken() string { return s.token }

func (s staticTokens) Refresh(context.Context, string) (string, error) {
	return "", errors.New("backend: static token cannot be refreshed")
}

// Gateway returns a gateway authenticated as email with a non-refreshable token.
func (s *Server) Gateway(email string) *api.Gateway {
	access, _ := s.IssueTokens(email)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return api.NewGateway(api.NewClient(s.URL(), api.WithLogger(logger)), staticTokens{token: access}, api.WithGatewayLogger(logger))
}
