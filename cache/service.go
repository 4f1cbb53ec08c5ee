package cache

import (
	"errors"
	"strings"

	"github.com/gobeaver/linkedin-kit/cache/driver/memory"
	"github.com/gobeaver/linkedin-kit/cache/driver/redis"
)

// Common errors
var (
	ErrInvalidDriver = errors.New("invalid cache driver")
	ErrKeyNotFound   = errors.New("key not found")
)

// New creates a cache for the configured driver ("memory" by default).
func New(cfg Config) (Cache, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", "memory":
		return memory.New(memory.Config{
			MaxKeys:         cfg.MaxKeys,
			DefaultTTL:      cfg.DefaultTTL,
			CleanupInterval: cfg.CleanupInterval,
			KeyPrefix:       cfg.fullPrefix(),
			NotFound:        ErrKeyNotFound,
		})
	case "redis":
		return redis.New(redis.Config{
			Host:            cfg.Host,
			Port:            cfg.Port,
			Password:        cfg.Password,
			Database:        cfg.Database,
			URL:             cfg.URL,
			MaxRetries:      cfg.MaxRetries,
			PoolSize:        cfg.PoolSize,
			MinIdleConns:    cfg.MinIdleConns,
			ConnMaxIdleTime: cfg.ConnMaxIdleTime,
			DialTimeout:     cfg.DialTimeout,
			UseTLS:          cfg.UseTLS,
			DefaultTTL:      cfg.DefaultTTL,
			KeyPrefix:       cfg.fullPrefix(),
			NotFound:        ErrKeyNotFound,
		})
	default:
		return nil, ErrInvalidDriver
	}
}
