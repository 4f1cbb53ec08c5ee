package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"golang.org/x/oauth2"

	"github.com/gobeaver/linkedin-kit/cache"
	"github.com/gobeaver/linkedin-kit/krypto"
)

const (
	sessionKeyPrefix = "oauth:session:"
	tokenKeyPrefix   = "oauth:token:"
)

// CacheSessionStore implements SessionStore on top of a cache.Cache.
// Entries expire with the session.
type CacheSessionStore struct {
	cache cache.Cache
}

// NewCacheSessionStore creates a session store backed by c
func NewCacheSessionStore(c cache.Cache) *CacheSessionStore {
	return &CacheSessionStore{cache: c}
}

func (s *CacheSessionStore) Store(ctx context.Context, key string, data *SessionData) error {
	ttl := time.Until(data.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("%w: session already expired", ErrInvalidState)
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	return s.cache.Set(ctx, sessionKeyPrefix+key, payload, ttl)
}

func (s *CacheSessionStore) Retrieve(ctx context.Context, key string) (*SessionData, error) {
	payload, err := s.cache.Get(ctx, sessionKeyPrefix+key)
	return decodeSession(payload, err)
}

func (s *CacheSessionStore) Delete(ctx context.Context, key string) error {
	return s.cache.Delete(ctx, sessionKeyPrefix+key)
}

func (s *CacheSessionStore) RetrieveAndDelete(ctx context.Context, key string) (*SessionData, error) {
	payload, err := s.cache.Take(ctx, sessionKeyPrefix+key)
	return decodeSession(payload, err)
}

func decodeSession(payload []byte, err error) (*SessionData, error) {
	if errors.Is(err, cache.ErrKeyNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	var data SessionData
	if err := json.Unmarshal(payload, &data); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &data, nil
}

// CacheTokenStore implements TokenStore on top of a cache.Cache
type CacheTokenStore struct {
	cache cache.Cache
	ttl   time.Duration
}

// NewCacheTokenStore creates a token store. Entries live for ttl, or
// until the token expires if that is sooner.
func NewCacheTokenStore(c cache.Cache, ttl time.Duration) *CacheTokenStore {
	return &CacheTokenStore{cache: c, ttl: ttl}
}

func (s *CacheTokenStore) Store(ctx context.Context, key string, token *oauth2.Token) error {
	ttl := s.ttl
	if !token.Expiry.IsZero() {
		if untilExpiry := time.Until(token.Expiry); ttl <= 0 || untilExpiry < ttl {
			ttl = untilExpiry
		}
		if ttl <= 0 {
			return nil // already expired, nothing worth caching
		}
	}
	payload, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	return s.cache.Set(ctx, tokenKeyPrefix+key, payload, ttl)
}

func (s *CacheTokenStore) Retrieve(ctx context.Context, key string) (*oauth2.Token, error) {
	payload, err := s.cache.Get(ctx, tokenKeyPrefix+key)
	if errors.Is(err, cache.ErrKeyNotFound) {
		return nil, ErrTokenNotFound
	}
	if err != nil {
		return nil, err
	}
	var token oauth2.Token
	if err := json.Unmarshal(payload, &token); err != nil {
		return nil, fmt.Errorf("failed to decode token: %w", err)
	}
	return &token, nil
}

func (s *CacheTokenStore) Delete(ctx context.Context, key string) error {
	return s.cache.Delete(ctx, tokenKeyPrefix+key)
}

// encryptedCache seals every value with AES-GCM before it reaches the
// backing cache.
type encryptedCache struct {
	cache.Cache
	sealer krypto.Sealer
}

// NewEncryptedCache wraps c so stored values are encrypted at rest.
func NewEncryptedCache(c cache.Cache, sealer krypto.Sealer) cache.Cache {
	return &encryptedCache{Cache: c, sealer: sealer}
}

func (e *encryptedCache) Get(ctx context.Context, key string) ([]byte, error) {
	sealed, err := e.Cache.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	return e.sealer.Open(sealed)
}

func (e *encryptedCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	sealed, err := e.sealer.Seal(value)
	if err != nil {
		return err
	}
	return e.Cache.Set(ctx, key, sealed, ttl)
}

func (e *encryptedCache) Take(ctx context.Context, key string) ([]byte, error) {
	sealed, err := e.Cache.Take(ctx, key)
	if err != nil {
		return nil, err
	}
	return e.sealer.Open(sealed)
}
