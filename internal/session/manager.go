package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/odyssey-erp/rbac-console/internal/api"
	"github.com/odyssey-erp/rbac-console/internal/credentials"
	"github.com/odyssey-erp/rbac-console/internal/observability"
	"github.com/odyssey-erp/rbac-console/internal/rbac"
	"github.com/odyssey-erp/rbac-console/internal/shared"
)

// DefaultRefreshTimeout bounds a refresh call when no timeout is configured.
const DefaultRefreshTimeout = 15 * time.Second

const storeTimeout = 5 * time.Second

// Teardown reasons.
const (
	ReasonLogout        = "logout"
	ReasonRefreshFailed = "refresh_failed"
	ReasonProfileFailed = "profile_failed"
)

// Manager owns the session and is the only writer of its fields.
type Manager struct {
	client         api.Doer
	store          credentials.Store
	gateway        *api.Gateway
	logger         *slog.Logger
	metrics        *observability.Metrics
	refreshTimeout time.Duration
	onTransition   func(from, to State)

	mu    sync.RWMutex
	state State
	sess  Session
	epoch uint64

	// storeMu orders store writes against teardown clears.
	storeMu sync.Mutex

	refreshGroup singleflight.Group
}

// Option customises a Manager.
type Option func(*Manager)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithMetrics records refresh, retry and teardown metrics.
func WithMetrics(metrics *observability.Metrics) Option {
	return func(m *Manager) {
		m.metrics = metrics
	}
}

// WithRefreshTimeout bounds each refresh call.
func WithRefreshTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.refreshTimeout = d
		}
	}
}

// OnTransition registers a hook called after every state change, outside the lock.
func OnTransition(fn func(from, to State)) Option {
	return func(m *Manager) {
		m.onTransition = fn
	}
}

// NewManager builds an Anonymous manager. Call Restore to load persisted tokens.
func NewManager(client api.Doer, store credentials.Store, opts ...Option) *Manager {
	m := &Manager{
		client:         client,
		store:          store,
		logger:         slog.Default(),
		refreshTimeout: DefaultRefreshTimeout,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.gateway = api.NewGateway(client, m, api.WithGatewayLogger(m.logger), api.WithGatewayMetrics(m.metrics))
	return m
}

// Gateway returns the authenticated gateway bound to this session.
func (m *Manager) Gateway() *api.Gateway {
	return m.gateway
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Snapshot returns a copy of the session.
func (m *Manager) Snapshot() Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sess.clone()
}

// AccessToken returns the held access token, or "".
func (m *Manager) AccessToken() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sess.AccessToken
}

// Restore loads persisted tokens. A stored access token means Authenticated
// without a loaded profile.
func (m *Manager) Restore(ctx context.Context) (Session, error) {
	tokens, err := m.store.Read(ctx)
	if err != nil {
		return m.Snapshot(), fmt.Errorf("session: restore: %w", err)
	}

	m.mu.Lock()
	m.epoch++
	from := m.state
	if tokens.Empty() {
		m.sess = Session{}
		m.state = Anonymous
	} else {
		m.sess = Session{AccessToken: tokens.AccessToken, RefreshToken: tokens.RefreshToken}
		m.state = Authenticated
	}
	to, snapshot := m.state, m.sess.clone()
	m.mu.Unlock()

	m.notify(from, to)
	return snapshot, nil
}

// Login validates creds, authenticates and loads the profile.
func (m *Manager) Login(ctx context.Context, creds Credentials) (Session, error) {
	if err := shared.Validate(creds); err != nil {
		return Session{}, err
	}

	m.mu.Lock()
	epoch := m.epoch
	from := m.state
	m.sess.Loading = true
	m.sess.LastError = ""
	m.state = Authenticating
	m.mu.Unlock()
	m.notify(from, Authenticating)

	resp, err := m.client.Do(ctx, &api.Request{Method: http.MethodPost, Path: "/auth/login", Body: creds}, "")
	if err != nil {
		m.failLogin(epoch, err)
		return Session{}, fmt.Errorf("session: login: %w", err)
	}
	switch resp.Status {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden:
		msg := api.MessageOf(resp)
		if msg == "" {
			msg = http.StatusText(resp.Status)
		}
		err := fmt.Errorf("%w: %s", shared.ErrInvalidCredentials, msg)
		m.failLogin(epoch, err)
		return Session{}, err
	}
	if apiErr := api.ErrorFromResponse("/auth/login", resp); apiErr != nil {
		m.failLogin(epoch, apiErr)
		return Session{}, fmt.Errorf("session: login: %w", apiErr)
	}

	var payload loginResponse
	if err := resp.Decode(&payload); err != nil {
		m.failLogin(epoch, err)
		return Session{}, fmt.Errorf("session: login: %w", err)
	}
	if payload.Token == "" {
		err := fmt.Errorf("session: login: response without token: %w", shared.ErrAPI)
		m.failLogin(epoch, err)
		return Session{}, err
	}

	m.mu.Lock()
	if m.epoch != epoch {
		m.mu.Unlock()
		return Session{}, fmt.Errorf("session: login superseded: %w", shared.ErrNotAuthenticated)
	}
	m.epoch++
	epoch = m.epoch
	m.sess = Session{AccessToken: payload.Token, RefreshToken: payload.RefreshToken}
	if payload.User != nil {
		m.applyProfileLocked(payload.Profile)
	}
	m.state = Authenticated
	snapshot := m.sess.clone()
	m.mu.Unlock()
	m.notify(Authenticating, Authenticated)

	m.persist(ctx, epoch, payload.Token, payload.RefreshToken)
	m.logger.Info("login succeeded", slog.String("email", creds.Email))

	if payload.User == nil {
		return m.FetchProfile(ctx)
	}
	return snapshot, nil
}

// failLogin records err and leaves any previous session and the store as they were.
func (m *Manager) failLogin(epoch uint64, err error) {
	m.mu.Lock()
	if m.epoch != epoch {
		m.mu.Unlock()
		return
	}
	m.sess.Loading = false
	m.sess.LastError = err.Error()
	from, to := m.state, m.state
	if from == Authenticating {
		to = Anonymous
		if m.sess.AccessToken != "" {
			to = Authenticated
		}
		m.state = to
	}
	m.mu.Unlock()
	if from != to {
		m.notify(from, to)
	}
	m.logger.Warn("login failed", slog.Any("error", err))
}

// FetchProfile reloads user, permissions and groups through the gateway.
// Any failure tears the session down.
func (m *Manager) FetchProfile(ctx context.Context) (Session, error) {
	m.mu.Lock()
	if m.sess.AccessToken == "" {
		m.mu.Unlock()
		return Session{}, fmt.Errorf("session: fetch profile: %w", shared.ErrNotAuthenticated)
	}
	epoch := m.epoch
	m.sess.Loading = true
	m.mu.Unlock()

	var profile rbac.Profile
	err := m.gateway.Call(ctx, &api.Request{Method: http.MethodGet, Path: "/users/me"}, &profile)
	if err == nil && profile.User == nil {
		err = errors.New("response without user")
	}
	if err != nil {
		m.teardown(epoch, ReasonProfileFailed)
		return Session{}, fmt.Errorf("session: fetch profile: %w: %w", shared.ErrProfileFetch, err)
	}

	m.mu.Lock()
	if m.epoch != epoch {
		m.mu.Unlock()
		return Session{}, fmt.Errorf("session: fetch profile: %w: %w", shared.ErrProfileFetch, shared.ErrNotAuthenticated)
	}
	m.applyProfileLocked(profile)
	m.sess.Loading = false
	snapshot := m.sess.clone()
	m.mu.Unlock()
	return snapshot, nil
}

func (m *Manager) applyProfileLocked(p rbac.Profile) {
	m.sess.User = p.User
	m.sess.Permissions = p.Permissions
	m.sess.PermissionNames = p.EffectivePermissions()
	m.sess.Groups = rbac.SortGroupsByOrdinal(p.Groups)
	m.sess.Loading = false
	m.sess.LastError = ""
}

// Refresh exchanges the refresh token for a new access token. Concurrent
// callers share one backend call. When staleToken no longer matches the held
// token a previous refresh already replaced it and the held token is returned.
func (m *Manager) Refresh(ctx context.Context, staleToken string) (string, error) {
	m.mu.RLock()
	current, epoch := m.sess.AccessToken, m.epoch
	m.mu.RUnlock()

	if current == "" {
		return "", fmt.Errorf("session: refresh: %w: %w", shared.ErrRefreshFailed, shared.ErrNotAuthenticated)
	}
	if staleToken != "" && staleToken != current {
		m.metrics.RecordRefresh(observability.RefreshSkipped)
		return current, nil
	}

	detached := context.WithoutCancel(ctx)
	key := "refresh:" + strconv.FormatUint(epoch, 10)
	resultChan := m.refreshGroup.DoChan(key, func() (interface{}, error) {
		return m.doRefresh(detached, epoch, current)
	})
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("session: refresh: %w", ctx.Err())
	case res := <-resultChan:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

// doRefresh runs once per flight. observed is the access token the flight
// was started for; if it was already replaced the held token is returned.
func (m *Manager) doRefresh(ctx context.Context, epoch uint64, observed string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, m.refreshTimeout)
	defer cancel()

	m.mu.Lock()
	if m.epoch != epoch {
		m.mu.Unlock()
		return "", fmt.Errorf("session: refresh: %w: %w", shared.ErrRefreshFailed, shared.ErrNotAuthenticated)
	}
	if held := m.sess.AccessToken; held != observed {
		m.mu.Unlock()
		m.metrics.RecordRefresh(observability.RefreshSkipped)
		return held, nil
	}
	refreshToken := m.sess.RefreshToken
	if refreshToken == "" {
		m.mu.Unlock()
		m.metrics.RecordRefresh(observability.RefreshFailure)
		m.teardown(epoch, ReasonRefreshFailed)
		return "", fmt.Errorf("session: refresh: no refresh token: %w: %w", shared.ErrRefreshFailed, shared.ErrNotAuthenticated)
	}
	from := m.state
	m.state = Refreshing
	m.mu.Unlock()
	m.notify(from, Refreshing)

	token, rotated, err := m.callRefresh(ctx, refreshToken)
	if err != nil {
		m.metrics.RecordRefresh(observability.RefreshFailure)
		m.logger.Warn("token refresh failed", slog.Uint64("epoch", epoch), slog.Any("error", err))
		m.teardown(epoch, ReasonRefreshFailed)
		return "", fmt.Errorf("session: refresh: %w: %w", shared.ErrRefreshFailed, err)
	}
	if rotated == "" {
		rotated = refreshToken
	}

	m.mu.Lock()
	if m.epoch != epoch {
		m.mu.Unlock()
		m.logger.Info("discarding refresh result of a closed session", slog.Uint64("epoch", epoch))
		return "", fmt.Errorf("session: refresh: %w: %w", shared.ErrRefreshFailed, shared.ErrNotAuthenticated)
	}
	m.sess.AccessToken = token
	m.sess.RefreshToken = rotated
	m.state = Authenticated
	m.mu.Unlock()
	m.notify(Refreshing, Authenticated)

	m.persist(ctx, epoch, token, rotated)
	m.metrics.RecordRefresh(observability.RefreshSuccess)
	m.logger.Info("token refreshed", slog.Uint64("epoch", epoch))
	return token, nil
}

func (m *Manager) callRefresh(ctx context.Context, refreshToken string) (string, string, error) {
	if refreshToken == "" {
		return "", "", errors.New("no refresh token held")
	}
	resp, err := m.client.Do(ctx, &api.Request{
		Method: http.MethodPost,
		Path:   "/auth/refresh-token",
		Body:   map[string]string{"refreshToken": refreshToken},
	}, "")
	if err != nil {
		return "", "", err
	}
	if err := api.ErrorFromResponse("/auth/refresh-token", resp); err != nil {
		return "", "", err
	}
	var payload refreshResponse
	if err := resp.Decode(&payload); err != nil {
		return "", "", err
	}
	if payload.Token == "" {
		return "", "", errors.New("response without token")
	}
	return payload.Token, payload.RefreshToken, nil
}

// Logout clears the session and the store, then notifies the backend.
// Backend failures are logged and never returned.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.Lock()
	access, refresh := m.sess.AccessToken, m.sess.RefreshToken
	from := m.resetLocked()
	m.mu.Unlock()
	m.notify(from, Anonymous)
	m.clearStore()
	m.metrics.RecordTeardown(ReasonLogout)

	if refresh == "" {
		return
	}
	resp, err := m.client.Do(ctx, &api.Request{
		Method: http.MethodPost,
		Path:   "/auth/logout",
		Body:   map[string]string{"refreshToken": refresh},
	}, access)
	if err == nil {
		err = api.ErrorFromResponse("/auth/logout", resp)
	}
	if err != nil {
		m.logger.Warn("backend logout failed", slog.Any("error", err))
	}
}

// teardown clears the session if it is still in epoch. It reports whether
// this call performed the teardown.
func (m *Manager) teardown(epoch uint64, reason string) bool {
	m.mu.Lock()
	if m.epoch != epoch {
		m.mu.Unlock()
		return false
	}
	from := m.resetLocked()
	m.mu.Unlock()

	m.notify(from, Anonymous)
	m.clearStore()
	m.metrics.RecordTeardown(reason)
	m.logger.Info("session closed", slog.String("reason", reason))
	return true
}

func (m *Manager) resetLocked() State {
	from := m.state
	m.epoch++
	m.sess = Session{}
	m.state = Anonymous
	return from
}

// persist writes tokens unless the session moved past epoch. A failed write
// keeps the in-memory tokens.
func (m *Manager) persist(ctx context.Context, epoch uint64, access, refresh string) {
	m.storeMu.Lock()
	defer m.storeMu.Unlock()

	m.mu.RLock()
	current := m.epoch
	m.mu.RUnlock()
	if current != epoch {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), storeTimeout)
	defer cancel()
	if err := m.store.Put(ctx, access, refresh); err != nil {
		m.logger.Warn("persist tokens", slog.Any("error", err))
	}
}

func (m *Manager) clearStore() {
	m.storeMu.Lock()
	defer m.storeMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := m.store.Clear(ctx); err != nil {
		m.logger.Warn("clear stored tokens", slog.Any("error", err))
	}
}

func (m *Manager) notify(from, to State) {
	if m.onTransition != nil && from != to {
		m.onTransition(from, to)
	}
}
