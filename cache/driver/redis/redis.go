package redis

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache implements cache using Redis
type RedisCache struct {
	client     redis.UniversalClient
	keyPrefix  string
	defaultTTL time.Duration
	notFound   error
}

// Config holds Redis specific configuration
type Config struct {
	Host     string
	Port     string
	Password string
	Database int
	URL      string

	MaxRetries      int
	PoolSize        int
	MinIdleConns    int
	ConnMaxIdleTime time.Duration
	DialTimeout     time.Duration

	UseTLS bool

	DefaultTTL time.Duration
	KeyPrefix  string
	// NotFound is returned for missing keys
	NotFound error
}

// New connects to Redis and verifies the connection with PING.
func New(cfg Config) (*RedisCache, error) {
	opts := &redis.UniversalOptions{
		Addrs:    []string{buildAddr(cfg)},
		Password: cfg.Password,
		DB:       cfg.Database,
	}

	if cfg.URL != "" {
		opt, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis URL: %w", err)
		}
		opts = &redis.UniversalOptions{
			Addrs:     []string{opt.Addr},
			Password:  opt.Password,
			DB:        opt.DB,
			TLSConfig: opt.TLSConfig,
		}
	}

	if cfg.MaxRetries > 0 {
		opts.MaxRetries = cfg.MaxRetries
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if cfg.MinIdleConns > 0 {
		opts.MinIdleConns = cfg.MinIdleConns
	}
	if cfg.ConnMaxIdleTime > 0 {
		opts.ConnMaxIdleTime = cfg.ConnMaxIdleTime
	}
	if cfg.DialTimeout > 0 {
		opts.DialTimeout = cfg.DialTimeout
	}
	if cfg.UseTLS && opts.TLSConfig == nil {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	client := redis.NewUniversalClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	notFound := cfg.NotFound
	if notFound == nil {
		notFound = errors.New("key not found")
	}

	return &RedisCache{
		client:     client,
		keyPrefix:  cfg.KeyPrefix,
		defaultTTL: cfg.DefaultTTL,
		notFound:   notFound,
	}, nil
}

func (rc *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := rc.client.Get(ctx, rc.keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, rc.notFound
	}
	return val, err
}

func (rc *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl == 0 {
		ttl = rc.defaultTTL
	}
	if ttl < 0 {
		ttl = 0 // go-redis: zero means no expiry
	}
	return rc.client.Set(ctx, rc.keyPrefix+key, value, ttl).Err()
}

// Take uses GETDEL (Redis >= 6.2).
func (rc *RedisCache) Take(ctx context.Context, key string) ([]byte, error) {
	val, err := rc.client.GetDel(ctx, rc.keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, rc.notFound
	}
	return val, err
}

func (rc *RedisCache) Delete(ctx context.Context, key string) error {
	return rc.client.Del(ctx, rc.keyPrefix+key).Err()
}

func (rc *RedisCache) Ping(ctx context.Context) error {
	return rc.client.Ping(ctx).Err()
}

func (rc *RedisCache) Close() error {
	return rc.client.Close()
}

func buildAddr(cfg Config) string {
	host, port := cfg.Host, cfg.Port
	if host == "" {
		host = "localhost"
	}
	if port == "" {
		port = "6379"
	}
	return host + ":" + port
}
