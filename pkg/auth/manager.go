// Package auth acquires Azure AD access tokens for the Power BI REST API.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/cloud"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/metrics"
	"github.com/Ramsey-B/fern/pkg/redis"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

var (
	// ErrAcquireToken wraps every token acquisition failure
	ErrAcquireToken = errors.New("Failed to acquire access token")

	// ErrTokenNotFound is returned when no cached token exists
	ErrTokenNotFound = errors.New("cached token not found")

	// ErrMissingCredentials is returned when the service principal is not configured
	ErrMissingCredentials = errors.New("service principal credentials are not configured")
)

const (
	// DefaultTTLSeconds is the cache TTL when the token carries no expiry
	DefaultTTLSeconds = 3600

	// DefaultSkewSeconds refreshes tokens this long before they expire
	DefaultSkewSeconds = 60

	refreshLockTTL     = 30 * time.Second
	refreshLockTimeout = 5 * time.Second
)

// Token sources recorded in metrics
const (
	SourceCache = "cache"
	SourceAAD   = "aad"
)

// CachedToken is an access token stored in the cache
type CachedToken struct {
	Token     string `json:"token"`
	TokenType string `json:"token_type,omitempty"`
	ExpiresAt int64  `json:"expires_at,omitempty"`
	CreatedAt int64  `json:"created_at"`
}

// IsExpired checks if the token is expired (with skew)
func (t *CachedToken) IsExpired(skewSeconds int) bool {
	if t.ExpiresAt == 0 {
		return false
	}
	return time.Now().Unix() >= t.ExpiresAt-int64(skewSeconds)
}

// Config identifies the service principal and the scope requested
type Config struct {
	TenantID     string
	ClientID     string
	ClientSecret string
	// AuthorityURL overrides the Azure AD authority host
	AuthorityURL string
	Scope        string
	SkewSeconds  int
}

// NewCredential builds a client secret credential for cfg
func NewCredential(cfg Config) (azcore.TokenCredential, error) {
	if cfg.TenantID == "" || cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, ErrMissingCredentials
	}

	opts := &azidentity.ClientSecretCredentialOptions{}
	if cfg.AuthorityURL != "" {
		opts.ClientOptions = azcore.ClientOptions{
			Cloud: cloud.Configuration{ActiveDirectoryAuthorityHost: cfg.AuthorityURL},
		}
	}

	credential, err := azidentity.NewClientSecretCredential(cfg.TenantID, cfg.ClientID, cfg.ClientSecret, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create credential: %w", err)
	}
	return credential, nil
}

// Manager hands out access tokens, caching them in Redis when a client is
// configured and in memory otherwise
type Manager struct {
	credential azcore.TokenCredential
	cache      *redis.Client
	locker     *redis.Locker
	cfg        Config
	logger     ectologger.Logger

	mu     sync.Mutex
	memory *CachedToken
}

// NewManager creates a new auth manager. cache may be nil.
func NewManager(credential azcore.TokenCredential, cache *redis.Client, cfg Config, logger ectologger.Logger) *Manager {
	if cfg.SkewSeconds <= 0 {
		cfg.SkewSeconds = DefaultSkewSeconds
	}

	m := &Manager{
		credential: credential,
		cache:      cache,
		cfg:        cfg,
		logger:     logger,
	}
	if cache != nil {
		m.locker = redis.NewLocker(cache, redis.LockKeyPrefix)
	}
	return m
}

// AccessToken returns a valid access token for the configured scope
func (m *Manager) AccessToken(ctx context.Context) (token string, err error) {
	ctx, span := tracing.StartSpan(ctx, "AuthManager.AccessToken")
	defer func() { tracing.EndSpan(span, err) }()

	if cached, ok := m.lookup(ctx); ok {
		metrics.RecordTokenRefresh(SourceCache, nil)
		return cached.Token, nil
	}

	if m.locker != nil {
		lock, err := m.locker.TryAcquire(ctx, m.cacheKey(), refreshLockTTL, refreshLockTimeout)
		switch {
		case err == nil:
			defer func() {
				if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
					m.logger.WithContext(ctx).WithError(err).Warn("Failed to release token refresh lock")
				}
			}()
			// another instance may have refreshed while we waited
			if cached, ok := m.lookup(ctx); ok {
				metrics.RecordTokenRefresh(SourceCache, nil)
				return cached.Token, nil
			}
		default:
			m.logger.WithContext(ctx).WithError(err).Warn("Refreshing access token without the refresh lock")
		}
	}

	fresh, err := m.acquire(ctx)
	metrics.RecordTokenRefresh(SourceAAD, err)
	if err != nil {
		return "", err
	}

	m.store(ctx, fresh)
	return fresh.Token, nil
}

// InvalidateToken drops the cached token
func (m *Manager) InvalidateToken(ctx context.Context) error {
	m.mu.Lock()
	m.memory = nil
	m.mu.Unlock()

	if m.cache == nil {
		return nil
	}
	return m.cache.Del(ctx, m.cacheKey())
}

func (m *Manager) acquire(ctx context.Context) (*CachedToken, error) {
	m.logger.WithContext(ctx).WithField("scope", m.cfg.Scope).Info("Acquiring Azure AD access token")

	accessToken, err := m.credential.GetToken(ctx, policy.TokenRequestOptions{Scopes: []string{m.cfg.Scope}})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAcquireToken, err)
	}
	if accessToken.Token == "" {
		return nil, fmt.Errorf("%w: empty token", ErrAcquireToken)
	}

	token := &CachedToken{
		Token:     accessToken.Token,
		TokenType: "Bearer",
		CreatedAt: time.Now().Unix(),
	}
	if !accessToken.ExpiresOn.IsZero() {
		token.ExpiresAt = accessToken.ExpiresOn.Unix()
	}
	return token, nil
}

// lookup returns a cached token that is still valid. Redis failures count as a miss.
func (m *Manager) lookup(ctx context.Context) (*CachedToken, bool) {
	var token *CachedToken
	if m.cache != nil {
		cached, err := m.getCachedToken(ctx)
		if err != nil && !errors.Is(err, ErrTokenNotFound) {
			m.logger.WithContext(ctx).WithError(err).Warn("Failed to read cached access token")
		}
		token = cached
	} else {
		m.mu.Lock()
		token = m.memory
		m.mu.Unlock()
	}

	if token == nil || token.IsExpired(m.cfg.SkewSeconds) {
		return nil, false
	}
	return token, true
}

func (m *Manager) store(ctx context.Context, token *CachedToken) {
	if m.cache == nil {
		m.mu.Lock()
		m.memory = token
		m.mu.Unlock()
		return
	}

	if err := m.cacheToken(ctx, token, m.calculateTTL(token)); err != nil {
		m.logger.WithContext(ctx).WithError(err).Warn("Failed to cache access token")
	}
}

func (m *Manager) getCachedToken(ctx context.Context) (*CachedToken, error) {
	data, err := m.cache.Get(ctx, m.cacheKey())
	if err != nil {
		if errors.Is(err, redis.ErrNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, err
	}

	var token CachedToken
	if err := json.Unmarshal([]byte(data), &token); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached token: %w", err)
	}
	return &token, nil
}

func (m *Manager) cacheToken(ctx context.Context, token *CachedToken, ttl time.Duration) error {
	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}
	return m.cache.Set(ctx, m.cacheKey(), string(data), ttl)
}

// calculateTTL is the token's remaining lifetime minus skew, or the default
func (m *Manager) calculateTTL(token *CachedToken) time.Duration {
	if token.ExpiresAt > 0 {
		remaining := token.ExpiresAt - time.Now().Unix() - int64(m.cfg.SkewSeconds)
		if remaining > 0 {
			return time.Duration(remaining) * time.Second
		}
	}
	return time.Duration(DefaultTTLSeconds) * time.Second
}

func (m *Manager) cacheKey() string {
	return redis.TokenKey(m.cfg.TenantID, m.cfg.ClientID)
}
