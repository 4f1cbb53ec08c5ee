package oauth

import (
	"fmt"
	"time"

	"github.com/gobeaver/linkedin-kit/cache"
	"github.com/gobeaver/linkedin-kit/config"
)

// Config defines the OAuth service configuration
type Config struct {
	// LinkedIn application credentials
	ClientID     string `env:"LINKEDIN_CLIENT_ID"`
	ClientSecret string `env:"LINKEDIN_CLIENT_SECRET"`
	RedirectURL  string `env:"LINKEDIN_REDIRECT_URL"`

	// Scopes and Fields are comma-separated lists
	Scopes         []string `env:"LINKEDIN_SCOPES,default:r_liteprofile,r_emailaddress"`
	Fields         []string `env:"LINKEDIN_FIELDS,default:id,firstName,lastName,localizedFirstName,localizedLastName,profilePicture"`
	ApprovalPrompt string   `env:"LINKEDIN_APPROVAL_PROMPT,default:auto"`
	FetchEmail     bool     `env:"LINKEDIN_FETCH_EMAIL"`

	// Endpoint overrides
	AuthURL  string `env:"LINKEDIN_AUTH_URL"`
	TokenURL string `env:"LINKEDIN_TOKEN_URL"`
	APIURL   string `env:"LINKEDIN_API_URL"`

	// ProviderFile points at a YAML/JSON ProviderConfig used instead of
	// the LINKEDIN_* variables above
	ProviderFile string `env:"LINKEDIN_PROVIDER_FILE"`

	// StateGenerator defines how to generate state tokens (secure, urlsafe, uuid)
	StateGenerator string `env:"OAUTH_STATE_GENERATOR,default:secure"`

	// StateTimeout is how long state parameters are valid
	StateTimeout time.Duration `env:"OAUTH_STATE_TIMEOUT,default:5m"`

	// PKCEEnabled sends S256 challenges (LinkedIn native apps only)
	PKCEEnabled bool `env:"OAUTH_PKCE_ENABLED"`

	// TokenCacheDuration caches exchanged tokens by state; 0 disables
	TokenCacheDuration time.Duration `env:"OAUTH_TOKEN_CACHE_DURATION"`

	// TokenEncryptionKey enables AES-GCM encryption of cached tokens
	// (base64 or raw 16/24/32 byte key)
	TokenEncryptionKey string `env:"OAUTH_TOKEN_ENCRYPTION_KEY"`

	HTTPTimeout time.Duration `env:"OAUTH_HTTP_TIMEOUT,default:30s"`
	HTTPRetries int           `env:"OAUTH_HTTP_RETRIES,default:2"`

	// Debug enables development logging
	Debug bool `env:"OAUTH_DEBUG"`

	// Cache backs the session and token stores; loaded from CACHE_* variables
	Cache cache.Config
}

// GetConfig returns config loaded from environment with optional LoadOptions
func GetConfig(opts ...config.LoadOptions) (*Config, error) {
	cfg := &Config{}
	if err := config.Load(cfg, opts...); err != nil {
		return nil, fmt.Errorf("failed to load oauth config: %w", err)
	}
	cacheCfg, err := cache.GetConfig(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load cache config: %w", err)
	}
	cfg.Cache = *cacheCfg
	return cfg, nil
}

// ProviderConfig builds the provider configuration, reading ProviderFile
// when set.
func (c Config) ProviderConfig() (ProviderConfig, error) {
	if c.ProviderFile != "" {
		pc, err := LoadProviderConfig(c.ProviderFile)
		if err != nil {
			return ProviderConfig{}, err
		}
		if pc.HTTPTimeout == 0 {
			pc.HTTPTimeout = c.HTTPTimeout
		}
		pc.UsePKCE = pc.UsePKCE || c.PKCEEnabled
		pc.Debug = pc.Debug || c.Debug
		return pc, nil
	}

	return ProviderConfig{
		ClientID:       c.ClientID,
		ClientSecret:   c.ClientSecret,
		RedirectURL:    c.RedirectURL,
		Fields:         c.Fields,
		Scopes:         c.Scopes,
		ApprovalPrompt: c.ApprovalPrompt,
		AuthURL:        c.AuthURL,
		TokenURL:       c.TokenURL,
		APIURL:         c.APIURL,
		FetchEmail:     c.FetchEmail,
		UsePKCE:        c.PKCEEnabled,
		HTTPTimeout:    c.HTTPTimeout,
		MaxRetries:     c.HTTPRetries,
		Debug:          c.Debug,
	}, nil
}

// validateConfig checks the service-level settings. Provider settings
// are validated by the provider itself.
func validateConfig(cfg Config) error {
	switch cfg.StateGenerator {
	case "", "secure", "urlsafe", "uuid":
	default:
		return fmt.Errorf("%w: unknown state generator: %s", ErrInvalidConfig, cfg.StateGenerator)
	}
	if cfg.StateTimeout < 0 {
		return fmt.Errorf("%w: state timeout must not be negative", ErrInvalidConfig)
	}
	if cfg.TokenCacheDuration < 0 {
		return fmt.Errorf("%w: token cache duration must not be negative", ErrInvalidConfig)
	}
	return nil
}

// Builder pattern for custom prefixes
type Builder struct {
	prefix string
}

// WithPrefix creates a new Builder with the specified prefix
func WithPrefix(prefix string) *Builder {
	return &Builder{prefix: prefix}
}

// Init initializes the global OAuth service with the builder's prefix
func (b *Builder) Init(opts ...ServiceOption) error {
	return initDefault(func() (*Service, error) {
		return b.New(opts...)
	})
}

// New creates a new OAuth service instance with the builder's prefix
func (b *Builder) New(opts ...ServiceOption) (*Service, error) {
	cfg, err := GetConfig(config.LoadOptions{Prefix: b.prefix})
	if err != nil {
		return nil, err
	}
	return New(*cfg, opts...)
}
