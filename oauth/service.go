package oauth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/gobeaver/linkedin-kit/cache"
	"github.com/gobeaver/linkedin-kit/krypto"
)

// Global instance management
var (
	defaultService *Service
	defaultOnce    sync.Once
	defaultErr     error
)

// Service runs the authorization-code flow for one provider: it issues
// state, remembers it between redirect and callback, exchanges codes and
// fetches the resource owner.
type Service struct {
	config   Config
	provider Provider
	sessions SessionStore
	tokens   TokenStore
	stateGen StateGenerator
	cache    cache.Cache
	ownCache bool
	logger   *zap.Logger
	metrics  MetricsCollector
}

// ServiceOption customizes a Service
type ServiceOption func(*Service)

// WithProvider uses p instead of building a LinkedIn provider from Config.
func WithProvider(p Provider) ServiceOption {
	return func(s *Service) { s.provider = p }
}

// WithCache uses c for sessions and tokens. The caller keeps ownership.
func WithCache(c cache.Cache) ServiceOption {
	return func(s *Service) { s.cache = c }
}

// WithServiceLogger sets the logger for the service and the provider it builds.
func WithServiceLogger(logger *zap.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics records flow metrics into collector.
func WithMetrics(collector MetricsCollector) ServiceOption {
	return func(s *Service) {
		if collector != nil {
			s.metrics = collector
		}
	}
}

// WithStateGenerator overrides the configured state generator.
func WithStateGenerator(gen StateGenerator) ServiceOption {
	return func(s *Service) { s.stateGen = gen }
}

// Init initializes the global OAuth service instance. Without an explicit
// config it loads BEAVER_-prefixed environment variables.
func Init(configs ...Config) error {
	return initDefault(func() (*Service, error) {
		if len(configs) > 0 {
			return New(configs[0])
		}
		cfg, err := GetConfig()
		if err != nil {
			return nil, err
		}
		return New(*cfg)
	})
}

func initDefault(build func() (*Service, error)) error {
	defaultOnce.Do(func() {
		defaultService, defaultErr = build()
	})
	return defaultErr
}

// New creates a new OAuth service instance
func New(cfg Config, opts ...ServiceOption) (*Service, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	if cfg.StateTimeout == 0 {
		cfg.StateTimeout = 5 * time.Minute
	}

	s := &Service{
		config:  cfg,
		logger:  zap.NewNop(),
		metrics: noopMetrics{},
	}
	if cfg.Debug {
		if l, err := zap.NewDevelopment(); err == nil {
			s.logger = l
		}
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("oauth")

	if s.provider == nil {
		pc, err := cfg.ProviderConfig()
		if err != nil {
			return nil, err
		}
		p, err := NewLinkedIn(pc, WithLogger(s.logger))
		if err != nil {
			return nil, fmt.Errorf("failed to create provider: %w", err)
		}
		s.provider = p
	} else if err := s.provider.ValidateConfig(); err != nil {
		return nil, fmt.Errorf("failed to create provider: %w", err)
	}

	if s.stateGen == nil {
		switch cfg.StateGenerator {
		case "uuid":
			s.stateGen = UUIDStateGenerator{}
		case "urlsafe":
			s.stateGen = URLSafeStateGenerator{}
		default:
			s.stateGen = SecureStateGenerator{}
		}
	}

	if s.cache == nil {
		c, err := cache.New(cfg.Cache)
		if err != nil {
			return nil, fmt.Errorf("failed to create cache: %w", err)
		}
		s.cache = c
		s.ownCache = true
	}

	s.sessions = NewCacheSessionStore(s.cache)
	if cfg.TokenCacheDuration > 0 {
		tokenCache := s.cache
		if cfg.TokenEncryptionKey != "" {
			sealer, err := krypto.NewAESGCMSealerFromString(cfg.TokenEncryptionKey)
			if err != nil {
				s.Close()
				return nil, fmt.Errorf("%w: token encryption key: %v", ErrInvalidConfig, err)
			}
			tokenCache = NewEncryptedCache(s.cache, sealer)
		}
		s.tokens = NewCacheTokenStore(tokenCache, cfg.TokenCacheDuration)
	}

	return s, nil
}

// GetAuthURL generates an authorization URL and the state it carries.
func (s *Service) GetAuthURL(ctx context.Context, opts ...AuthOption) (string, string, error) {
	if s == nil {
		return "", "", ErrNotInitialized
	}

	start := time.Now()
	authURL, state, err := s.getAuthURL(ctx, opts)
	s.metrics.RecordAuthRequest(s.provider.Name(), err == nil, time.Since(start))
	if err != nil {
		s.metrics.RecordError(s.provider.Name(), OperationAuthURL, errorType(err))
	}
	return authURL, state, err
}

func (s *Service) getAuthURL(ctx context.Context, opts []AuthOption) (string, string, error) {
	state, err := s.stateGen.Generate()
	if err != nil {
		return "", "", fmt.Errorf("failed to generate state: %w", err)
	}

	now := time.Now()
	session := &SessionData{
		State:     state,
		CreatedAt: now,
		ExpiresAt: now.Add(s.config.StateTimeout),
		Provider:  s.provider.Name(),
	}

	if s.provider.SupportsPKCE() {
		session.PKCEVerifier = oauth2.GenerateVerifier()
		opts = append(opts, WithPKCEVerifier(session.PKCEVerifier))
	}

	if err := s.sessions.Store(ctx, state, session); err != nil {
		return "", "", fmt.Errorf("failed to store session: %w", err)
	}

	s.logger.Debug("authorization url issued", zap.Bool("pkce", session.PKCEVerifier != ""))
	return s.provider.AuthCodeURL(state, opts...), state, nil
}

// Exchange validates state and exchanges an authorization code for a
// token. A state can be used only once.
func (s *Service) Exchange(ctx context.Context, code, state string) (*oauth2.Token, error) {
	if s == nil {
		return nil, ErrNotInitialized
	}

	start := time.Now()
	token, err := s.exchange(ctx, code, state)
	s.metrics.RecordTokenExchange(s.provider.Name(), err == nil, time.Since(start))
	if err != nil {
		s.metrics.RecordError(s.provider.Name(), OperationExchange, errorType(err))
		s.logger.Warn("code exchange failed", zap.Error(err))
	}
	return token, err
}

func (s *Service) exchange(ctx context.Context, code, state string) (*oauth2.Token, error) {
	if state == "" {
		return nil, fmt.Errorf("%w: empty state", ErrInvalidState)
	}

	session, err := s.sessions.RetrieveAndDelete(ctx, state)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	if session.IsExpired() {
		return nil, fmt.Errorf("%w: session expired", ErrInvalidState)
	}
	if session.State != state {
		return nil, fmt.Errorf("%w: state mismatch", ErrInvalidState)
	}
	if session.Provider != "" && session.Provider != s.provider.Name() {
		return nil, fmt.Errorf("%w: provider mismatch", ErrInvalidState)
	}

	var opts []oauth2.AuthCodeOption
	if session.PKCEVerifier != "" {
		opts = append(opts, oauth2.VerifierOption(session.PKCEVerifier))
	}

	token, err := s.provider.Exchange(ctx, code, opts...)
	if err != nil {
		return nil, err
	}

	if s.tokens != nil {
		if err := s.tokens.Store(ctx, state, token); err != nil {
			s.logger.Warn("failed to cache token", zap.Error(err))
		}
	}
	return token, nil
}

// CachedToken returns the token exchanged for state, if token caching is
// enabled and the entry has not expired.
func (s *Service) CachedToken(ctx context.Context, state string) (*oauth2.Token, error) {
	if s == nil {
		return nil, ErrNotInitialized
	}
	if s.tokens == nil {
		return nil, ErrTokenNotFound
	}
	return s.tokens.Retrieve(ctx, state)
}

// GetResourceOwner fetches the resource owner for token
func (s *Service) GetResourceOwner(ctx context.Context, token *oauth2.Token) (ResourceOwner, error) {
	if s == nil {
		return nil, ErrNotInitialized
	}

	start := time.Now()
	owner, err := s.provider.ResourceOwner(ctx, token)
	s.metrics.RecordResourceOwnerRequest(s.provider.Name(), err == nil, time.Since(start))
	if err != nil {
		s.metrics.RecordError(s.provider.Name(), OperationResourceOwner, errorType(err))
		return nil, err
	}
	return owner, nil
}

// ValidateState checks that state belongs to a pending, unexpired session
// without consuming it.
func (s *Service) ValidateState(ctx context.Context, state string) error {
	if s == nil {
		return ErrNotInitialized
	}

	session, err := s.sessions.Retrieve(ctx, state)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	if session.IsExpired() {
		return fmt.Errorf("%w: session expired", ErrInvalidState)
	}
	return nil
}

// Provider returns the current provider
func (s *Service) Provider() Provider {
	if s == nil {
		return nil
	}
	return s.provider
}

// Config returns the service configuration
func (s *Service) Config() Config {
	if s == nil {
		return Config{}
	}
	return s.config
}

// Close releases the cache when the service created it.
func (s *Service) Close() error {
	if s == nil || !s.ownCache || s.cache == nil {
		return nil
	}
	return s.cache.Close()
}

// Reset clears the global instance (for testing)
func Reset() {
	if defaultService != nil {
		_ = defaultService.Close()
	}
	defaultService = nil
	defaultOnce = sync.Once{}
	defaultErr = nil
}

// GetService returns the global OAuth service instance
func GetService() *Service {
	if defaultService == nil {
		_ = Init()
	}
	return defaultService
}

// OAuth is an alias for GetService()
func OAuth() *Service {
	return GetService()
}

// SecureStateGenerator generates hex encoded 32 byte random state tokens
type SecureStateGenerator struct{}

func (SecureStateGenerator) Generate() (string, error) {
	return krypto.GenerateSecureToken(32)
}

// URLSafeStateGenerator generates unpadded base64url 32 byte random state tokens
type URLSafeStateGenerator struct{}

func (URLSafeStateGenerator) Generate() (string, error) {
	return krypto.GenerateURLSafeToken(32)
}

// UUIDStateGenerator generates UUID v4 state tokens
type UUIDStateGenerator struct{}

func (UUIDStateGenerator) Generate() (string, error) {
	return krypto.GenerateUUIDToken()
}

