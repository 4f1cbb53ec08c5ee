package oauth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/gobeaver/linkedin-kit/cache"
	"github.com/gobeaver/linkedin-kit/krypto"
)

type fakeLinkedIn struct {
	*httptest.Server
	challenge string
}

func newFakeLinkedIn(t *testing.T) *fakeLinkedIn {
	t.Helper()
	f := &fakeLinkedIn{}
	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case AccessTokenURLPath:
			require.NoError(t, r.ParseForm())
			if f.challenge != "" {
				verifier := r.PostForm.Get("code_verifier")
				if oauth2.S256ChallengeFromVerifier(verifier) != f.challenge {
					writeJSON(w, http.StatusBadRequest, `{"error":"invalid_request","error_description":"code verifier mismatch"}`)
					return
				}
			}
			if r.PostForm.Get("code") != "good-code" {
				writeJSON(w, http.StatusBadRequest, `{"error":"invalid_grant","error_description":"authorization code expired"}`)
				return
			}
			writeJSON(w, http.StatusOK, `{"access_token":"at-1","token_type":"Bearer","expires_in":3600}`)
		case ResourceOwnerURLPath:
			if r.Header.Get("Authorization") != "Bearer at-1" {
				writeJSON(w, http.StatusUnauthorized, `{"message":"Invalid access token","status":401}`)
				return
			}
			writeJSON(w, http.StatusOK, `{"id":"abc123","localizedFirstName":"Ann","localizedLastName":"Lee"}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(f.Close)
	return f
}

func testServiceConfig(baseURL string) Config {
	return Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURL:  "https://app.example.com/callback",
		AuthURL:      baseURL + AuthorizationURLPath,
		TokenURL:     baseURL + AccessTokenURLPath,
		APIURL:       baseURL,
		Scopes:       DefaultScopes(),
		StateTimeout: time.Minute,
		HTTPTimeout:  5 * time.Second,
		Cache:        cache.Config{Driver: "memory"},
	}
}

func newTestService(t *testing.T, cfg Config, opts ...ServiceOption) *Service {
	t.Helper()
	s, err := New(cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func stateFromURL(t *testing.T, raw string) url.Values {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u.Query()
}

func TestServiceFlow(t *testing.T) {
	server := newFakeLinkedIn(t)
	s := newTestService(t, testServiceConfig(server.URL))
	ctx := context.Background()

	authURL, state, err := s.GetAuthURL(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, state)
	assert.Len(t, state, 64)

	q := stateFromURL(t, authURL)
	assert.Equal(t, state, q.Get("state"))
	assert.Equal(t, "auto", q.Get("approval_prompt"))
	assert.Empty(t, q.Get("code_challenge"))

	require.NoError(t, s.ValidateState(ctx, state))

	token, err := s.Exchange(ctx, "good-code", state)
	require.NoError(t, err)
	assert.Equal(t, "at-1", token.AccessToken)

	owner, err := s.GetResourceOwner(ctx, token)
	require.NoError(t, err)
	li := owner.(*LinkedInResourceOwner)
	assert.Equal(t, "abc123", li.ID())
	assert.Equal(t, "Ann Lee", li.Name())

	// state is single use
	_, err = s.Exchange(ctx, "good-code", state)
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.ErrorIs(t, s.ValidateState(ctx, state), ErrInvalidState)
}

func TestServiceExchangeRejectsUnknownState(t *testing.T) {
	server := newFakeLinkedIn(t)
	s := newTestService(t, testServiceConfig(server.URL))
	ctx := context.Background()

	_, err := s.Exchange(ctx, "good-code", "")
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = s.Exchange(ctx, "good-code", "never-issued")
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestServiceExchangeExpiredState(t *testing.T) {
	server := newFakeLinkedIn(t)
	cfg := testServiceConfig(server.URL)
	cfg.StateTimeout = 50 * time.Millisecond
	s := newTestService(t, cfg)
	ctx := context.Background()

	_, state, err := s.GetAuthURL(ctx)
	require.NoError(t, err)

	time.Sleep(100 * time.Millisecond)

	_, err = s.Exchange(ctx, "good-code", state)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestServiceExchangeProviderError(t *testing.T) {
	server := newFakeLinkedIn(t)
	s := newTestService(t, testServiceConfig(server.URL))
	ctx := context.Background()

	_, state, err := s.GetAuthURL(ctx)
	require.NoError(t, err)

	_, err = s.Exchange(ctx, "bad-code", state)
	var idpErr *IdentityProviderError
	require.ErrorAs(t, err, &idpErr)
	assert.Equal(t, "authorization code expired", idpErr.Message)
	assert.Equal(t, "invalid_grant", idpErr.Code)

	// a failed exchange still consumes the state
	_, err = s.Exchange(ctx, "good-code", state)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestServicePKCE(t *testing.T) {
	server := newFakeLinkedIn(t)
	cfg := testServiceConfig(server.URL)
	cfg.PKCEEnabled = true
	s := newTestService(t, cfg)
	ctx := context.Background()

	authURL, state, err := s.GetAuthURL(ctx)
	require.NoError(t, err)

	q := stateFromURL(t, authURL)
	require.NotEmpty(t, q.Get("code_challenge"))
	assert.Equal(t, "S256", q.Get("code_challenge_method"))
	server.challenge = q.Get("code_challenge")

	token, err := s.Exchange(ctx, "good-code", state)
	require.NoError(t, err)
	assert.Equal(t, "at-1", token.AccessToken)
}

func TestServiceTokenCacheEncrypted(t *testing.T) {
	server := newFakeLinkedIn(t)
	key, err := krypto.GenerateAESKey(32)
	require.NoError(t, err)

	backing, err := cache.New(cache.Config{Driver: "memory"})
	require.NoError(t, err)
	defer backing.Close()

	cfg := testServiceConfig(server.URL)
	cfg.TokenCacheDuration = time.Hour
	cfg.TokenEncryptionKey = key
	s := newTestService(t, cfg, WithCache(backing))
	ctx := context.Background()

	_, state, err := s.GetAuthURL(ctx)
	require.NoError(t, err)
	_, err = s.Exchange(ctx, "good-code", state)
	require.NoError(t, err)

	cached, err := s.CachedToken(ctx, state)
	require.NoError(t, err)
	assert.Equal(t, "at-1", cached.AccessToken)

	raw, err := backing.Get(ctx, tokenKeyPrefix+state)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "at-1")

	_, err = s.CachedToken(ctx, "other")
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestServiceTokenCacheDisabled(t *testing.T) {
	server := newFakeLinkedIn(t)
	s := newTestService(t, testServiceConfig(server.URL))

	_, err := s.CachedToken(context.Background(), "state")
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestServiceStateGenerators(t *testing.T) {
	server := newFakeLinkedIn(t)
	cfg := testServiceConfig(server.URL)
	cfg.StateGenerator = "uuid"
	s := newTestService(t, cfg)

	_, state, err := s.GetAuthURL(context.Background())
	require.NoError(t, err)
	assert.Len(t, state, 36)

	cfg.StateGenerator = "urlsafe"
	urlSafe := newTestService(t, cfg)
	authURL, state, err := urlSafe.GetAuthURL(context.Background())
	require.NoError(t, err)
	assert.Len(t, state, 43)
	assert.NotContains(t, state, "=")
	assert.Equal(t, state, stateFromURL(t, authURL).Get("state"))

	fixed := newTestService(t, testServiceConfig(server.URL), WithStateGenerator(fixedState("fixed-state")))
	_, state, err = fixed.GetAuthURL(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fixed-state", state)
}

type fixedState string

func (f fixedState) Generate() (string, error) { return string(f), nil }

func TestNewServiceInvalidConfig(t *testing.T) {
	base := testServiceConfig("https://linkedin.test")

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown state generator", func(c *Config) { c.StateGenerator = "counter" }},
		{"negative state timeout", func(c *Config) { c.StateTimeout = -time.Second }},
		{"missing client id", func(c *Config) { c.ClientID = "" }},
		{"bad encryption key", func(c *Config) {
			c.TokenCacheDuration = time.Minute
			c.TokenEncryptionKey = "short"
		}},
		{"missing provider file", func(c *Config) { c.ProviderFile = "/nonexistent/linkedin.yaml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			_, err := New(cfg)
			assert.Error(t, err)
		})
	}

	cfg := base
	cfg.ClientID = ""
	_, err := New(cfg)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	cfg = base
	cfg.Cache.Driver = "memcached"
	_, err = New(cfg)
	assert.ErrorIs(t, err, cache.ErrInvalidDriver)
}

func TestNilService(t *testing.T) {
	var s *Service
	ctx := context.Background()

	_, _, err := s.GetAuthURL(ctx)
	assert.ErrorIs(t, err, ErrNotInitialized)
	_, err = s.Exchange(ctx, "code", "state")
	assert.ErrorIs(t, err, ErrNotInitialized)
	_, err = s.GetResourceOwner(ctx, &oauth2.Token{})
	assert.ErrorIs(t, err, ErrNotInitialized)
	assert.Nil(t, s.Provider())
	assert.NoError(t, s.Close())
}

func TestGlobalService(t *testing.T) {
	Reset()
	defer Reset()

	server := newFakeLinkedIn(t)
	require.NoError(t, Init(testServiceConfig(server.URL)))

	s := OAuth()
	require.NotNil(t, s)
	assert.Same(t, s, GetService())
	assert.Equal(t, "client-id", s.Config().ClientID)

	// later calls keep the first instance
	cfg := testServiceConfig(server.URL)
	cfg.ClientID = "other"
	require.NoError(t, Init(cfg))
	assert.Equal(t, "client-id", OAuth().Config().ClientID)
}

func TestBuilderFromEnv(t *testing.T) {
	t.Setenv("SVCTEST_LINKEDIN_CLIENT_ID", "env-id")
	t.Setenv("SVCTEST_LINKEDIN_CLIENT_SECRET", "env-secret")
	t.Setenv("SVCTEST_LINKEDIN_REDIRECT_URL", "https://app.example.com/callback")
	t.Setenv("SVCTEST_LINKEDIN_FIELDS", "id, vanityName")
	t.Setenv("SVCTEST_OAUTH_STATE_TIMEOUT", "2m")

	s, err := WithPrefix("SVCTEST_").New()
	require.NoError(t, err)
	defer s.Close()

	cfg := s.Config()
	assert.Equal(t, "env-id", cfg.ClientID)
	assert.Equal(t, []string{"r_liteprofile", "r_emailaddress"}, cfg.Scopes)
	assert.Equal(t, []string{"id", "vanityName"}, cfg.Fields)
	assert.Equal(t, "auto", cfg.ApprovalPrompt)
	assert.Equal(t, "secure", cfg.StateGenerator)
	assert.Equal(t, 2*time.Minute, cfg.StateTimeout)
	assert.Equal(t, "memory", cfg.Cache.Driver)

	p := s.Provider().(*LinkedInProvider)
	assert.Equal(t, []string{"id", "vanityName"}, p.Fields())
}

func TestServiceProviderFile(t *testing.T) {
	server := newFakeLinkedIn(t)
	path := t.TempDir() + "/linkedin.yaml"
	writeFile(t, path, "client_id: file-id\nclient_secret: s\nredirect_url: https://cb\napi_url: "+server.URL+"\nfields: [id]\n")

	cfg := testServiceConfig(server.URL)
	cfg.ProviderFile = path
	s := newTestService(t, cfg)

	p := s.Provider().(*LinkedInProvider)
	assert.Equal(t, "file-id", p.Config().ClientID)
	assert.Equal(t, []string{"id"}, p.Fields())
}
