package memory

import (
	"context"
	"errors"
	"sync"
	"time"
)

type item struct {
	value      []byte
	expiration int64
}

func (i *item) expired(now int64) bool {
	return i.expiration > 0 && now > i.expiration
}

// MemoryCache implements an in-process cache
type MemoryCache struct {
	mu          sync.Mutex
	items       map[string]*item
	maxKeys     int
	defaultTTL  time.Duration
	keyPrefix   string
	notFound    error
	stopCleanup chan struct{}
	closeOnce   sync.Once
}

// Config holds memory cache specific configuration
type Config struct {
	MaxKeys         int
	DefaultTTL      time.Duration
	CleanupInterval time.Duration
	KeyPrefix       string
	// NotFound is returned for missing keys
	NotFound error
}

var (
	// ErrMaxKeys is returned by Set when the key limit is reached.
	ErrMaxKeys = errors.New("max keys limit reached")

	// ErrClosed is returned by Ping after Close
	ErrClosed = errors.New("cache closed")
)

// New creates a new memory cache instance and starts its janitor.
func New(cfg Config) (*MemoryCache, error) {
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = time.Minute
	}
	if cfg.NotFound == nil {
		cfg.NotFound = errors.New("key not found")
	}

	mc := &MemoryCache{
		items:       make(map[string]*item),
		maxKeys:     cfg.MaxKeys,
		defaultTTL:  cfg.DefaultTTL,
		keyPrefix:   cfg.KeyPrefix,
		notFound:    cfg.NotFound,
		stopCleanup: make(chan struct{}),
	}

	go mc.cleanupExpired(cfg.CleanupInterval)

	return mc, nil
}

func (mc *MemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	it, ok := mc.items[mc.keyPrefix+key]
	if !ok || it.expired(time.Now().UnixNano()) {
		return nil, mc.notFound
	}
	return it.value, nil
}

func (mc *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	fullKey := mc.keyPrefix + key
	if mc.maxKeys > 0 && len(mc.items) >= mc.maxKeys {
		if _, exists := mc.items[fullKey]; !exists {
			return ErrMaxKeys
		}
	}

	if ttl == 0 {
		ttl = mc.defaultTTL
	}
	var expiration int64
	if ttl > 0 {
		expiration = time.Now().Add(ttl).UnixNano()
	}

	stored := make([]byte, len(value))
	copy(stored, value)
	mc.items[fullKey] = &item{value: stored, expiration: expiration}
	return nil
}

func (mc *MemoryCache) Take(ctx context.Context, key string) ([]byte, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	fullKey := mc.keyPrefix + key
	it, ok := mc.items[fullKey]
	if !ok {
		return nil, mc.notFound
	}
	delete(mc.items, fullKey)
	if it.expired(time.Now().UnixNano()) {
		return nil, mc.notFound
	}
	return it.value, nil
}

func (mc *MemoryCache) Delete(ctx context.Context, key string) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	delete(mc.items, mc.keyPrefix+key)
	return nil
}

// Ping fails only after Close
func (mc *MemoryCache) Ping(ctx context.Context) error {
	select {
	case <-mc.stopCleanup:
		return ErrClosed
	default:
		return nil
	}
}

// Close stops the janitor. It is safe to call more than once.
func (mc *MemoryCache) Close() error {
	mc.closeOnce.Do(func() { close(mc.stopCleanup) })
	return nil
}

func (mc *MemoryCache) cleanupExpired(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			mc.removeExpired()
		case <-mc.stopCleanup:
			return
		}
	}
}

func (mc *MemoryCache) removeExpired() {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	now := time.Now().UnixNano()
	for key, it := range mc.items {
		if it.expired(now) {
			delete(mc.items, key)
		}
	}
}
