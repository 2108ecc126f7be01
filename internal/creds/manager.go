// Package creds holds the process-wide cache of short-lived OAuth access
// tokens for providers that require the client-credentials flow.
package creds

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/sync/singleflight"

	"tunelink/internal/core"
	"tunelink/pkg/musiclink"
)

// DefaultRefreshMargin is how much remaining lifetime a token must have to be
// handed out. Tokens are refreshed before they cross this margin so an
// in-flight request never races expiry.
const DefaultRefreshMargin = 60 * time.Second

// Manager caches one access token per registered provider. Reads are safe
// for concurrent use and refreshes are serialized per provider: a refresh
// race never issues two simultaneous token requests.
//
// A Manager is constructed at process start and passed explicitly to the
// clients that need it.
type Manager struct {
	mu      sync.RWMutex
	configs map[musiclink.Platform]*clientcredentials.Config
	tokens  map[musiclink.Platform]*oauth2.Token
	group   singleflight.Group
	margin  time.Duration
	logger  *zap.Logger
}

func NewManager(logger *zap.Logger) *Manager {
	return &Manager{
		configs: make(map[musiclink.Platform]*clientcredentials.Config),
		tokens:  make(map[musiclink.Platform]*oauth2.Token),
		margin:  DefaultRefreshMargin,
		logger:  logger,
	}
}

// Register adds a client-credentials config for a provider.
func (m *Manager) Register(platform musiclink.Platform, config *clientcredentials.Config) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.configs[platform] = config
}

// Registered reports whether the provider has credentials configured.
func (m *Manager) Registered(platform musiclink.Platform) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.configs[platform]
	return ok
}

// Token returns a valid access token for the provider, refreshing it when
// the cached one has less than the safety margin of lifetime left. A failed
// refresh surfaces as an auth failure and is not retried within the call.
func (m *Manager) Token(ctx context.Context, platform musiclink.Platform) (*oauth2.Token, error) {
	m.mu.RLock()
	config, registered := m.configs[platform]
	token := m.tokens[platform]
	m.mu.RUnlock()

	if !registered {
		return nil, core.NewFailure(core.FailureAuth, platform,
			fmt.Errorf("no credentials registered for %s", platform))
	}

	if m.usable(token) {
		return token, nil
	}

	fresh, err, _ := m.group.Do(string(platform), func() (any, error) {
		// Re-check under the flight: another caller may have refreshed
		// while this one waited.
		m.mu.RLock()
		current := m.tokens[platform]
		m.mu.RUnlock()
		if m.usable(current) {
			return current, nil
		}

		t, err := config.Token(ctx)
		if err != nil {
			return nil, err
		}

		m.mu.Lock()
		m.tokens[platform] = t
		m.mu.Unlock()

		m.logger.Debug("Refreshed access token",
			zap.String("provider", string(platform)),
			zap.Time("expiry", t.Expiry))
		return t, nil
	})
	if err != nil {
		m.logger.Warn("Token refresh failed",
			zap.String("provider", string(platform)),
			zap.Error(err))
		return nil, core.NewFailure(core.FailureAuth, platform, err)
	}

	return fresh.(*oauth2.Token), nil
}

func (m *Manager) usable(token *oauth2.Token) bool {
	return token != nil && token.AccessToken != "" &&
		(token.Expiry.IsZero() || time.Until(token.Expiry) > m.margin)
}
