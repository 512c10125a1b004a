package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/odyssey-erp/rbac-console/internal/api"
	"github.com/odyssey-erp/rbac-console/internal/credentials"
	"github.com/odyssey-erp/rbac-console/internal/observability"
	"github.com/odyssey-erp/rbac-console/internal/platform/cache"
	"github.com/odyssey-erp/rbac-console/internal/session"
)

// Services bundles the long-lived collaborators built from Config.
type Services struct {
	Config   *Config
	Logger   *slog.Logger
	Metrics  *observability.Metrics
	Client   *api.Client
	Store    credentials.Store
	Sessions *session.Manager

	redis *redis.Client
}

// NewServices wires the backend client, the credential store and the session manager.
// The session starts Anonymous; call Sessions.Restore to load persisted tokens.
func NewServices(ctx context.Context, cfg *Config, logger *slog.Logger) (*Services, error) {
	if logger == nil {
		logger = NewLogger(cfg)
	}
	svc := &Services{Config: cfg, Logger: logger, Metrics: observability.NewMetrics()}

	opts := credentials.Options{Backend: cfg.CredentialBackend, Path: cfg.CredentialsPath, KeyPrefix: cfg.RedisKeyPrefix}
	if cfg.CredentialBackend == credentials.BackendRedis {
		client, err := cache.New(ctx, cfg.RedisAddr)
		if err != nil {
			return nil, fmt.Errorf("app: credential store: %w", err)
		}
		svc.redis = client
		opts.Redis = client
	}
	store, err := credentials.Open(opts)
	if err != nil {
		_ = svc.Close()
		return nil, fmt.Errorf("app: credential store: %w", err)
	}
	svc.Store = store

	svc.Client = api.NewClient(cfg.APIBaseURL,
		api.WithTimeout(cfg.APITimeout),
		api.WithLogger(logger),
		api.WithMetrics(svc.Metrics),
	)
	svc.Sessions = session.NewManager(svc.Client, store,
		session.WithLogger(logger),
		session.WithMetrics(svc.Metrics),
		session.WithRefreshTimeout(cfg.RefreshTimeout),
	)
	return svc, nil
}

// Close releases the redis connection when one was opened.
func (s *Services) Close() error {
	if s == nil || s.redis == nil {
		return nil
	}
	return s.redis.Close()
}
