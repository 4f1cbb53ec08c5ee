package cache

import (
	"time"

	"github.com/gobeaver/linkedin-kit/config"
)

// Config holds cache configuration
type Config struct {
	// Driver specifies cache backend: "memory" or "redis"
	Driver string `env:"CACHE_DRIVER,default:memory"`

	// Redis specific settings
	Host     string `env:"CACHE_HOST,default:localhost"`
	Port     string `env:"CACHE_PORT,default:6379"`
	Password string `env:"CACHE_PASSWORD"`
	Database int    `env:"CACHE_DATABASE"`

	// Connection URL (overrides host/port/password)
	URL string `env:"CACHE_URL"`

	MaxRetries      int           `env:"CACHE_MAX_RETRIES,default:3"`
	PoolSize        int           `env:"CACHE_POOL_SIZE,default:10"`
	MinIdleConns    int           `env:"CACHE_MIN_IDLE_CONNS,default:2"`
	ConnMaxIdleTime time.Duration `env:"CACHE_CONN_MAX_IDLE_TIME"`
	DialTimeout     time.Duration `env:"CACHE_DIAL_TIMEOUT,default:5s"`
	UseTLS          bool          `env:"CACHE_USE_TLS"`

	// Memory cache specific
	MaxKeys         int           `env:"CACHE_MAX_KEYS"`
	CleanupInterval time.Duration `env:"CACHE_CLEANUP_INTERVAL,default:1m"`

	DefaultTTL time.Duration `env:"CACHE_DEFAULT_TTL"`
	KeyPrefix  string        `env:"CACHE_KEY_PREFIX"`
	Namespace  string        `env:"CACHE_NAMESPACE"`
}

// GetConfig loads configuration from environment variables
func GetConfig(opts ...config.LoadOptions) (*Config, error) {
	cfg := &Config{}
	if err := config.Load(cfg, opts...); err != nil {
		return nil, err
	}
	return cfg, nil
}

// fullPrefix combines namespace and key prefix as "<namespace>:<prefix>".
func (c Config) fullPrefix() string {
	if c.Namespace == "" {
		return c.KeyPrefix
	}
	return c.Namespace + ":" + c.KeyPrefix
}
