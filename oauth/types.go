package oauth

import (
	"context"
	"time"

	"golang.org/x/oauth2"
)

// Provider is the provider-specific half of an OAuth2 authorization-code
// flow. Generic flow mechanics come from golang.org/x/oauth2.
type Provider interface {
	// Name returns the provider name
	Name() string

	// AuthCodeURL returns the authorization URL for state
	AuthCodeURL(state string, opts ...AuthOption) string

	// Exchange exchanges an authorization code for a token
	Exchange(ctx context.Context, code string, opts ...oauth2.AuthCodeOption) (*oauth2.Token, error)

	// ResourceOwner fetches the profile of the token's owner
	ResourceOwner(ctx context.Context, token *oauth2.Token) (ResourceOwner, error)

	// CheckResponse turns an error body into an *IdentityProviderError
	CheckResponse(statusCode int, body []byte) error

	// SupportsPKCE indicates if the provider accepts PKCE parameters
	SupportsPKCE() bool

	// ValidateConfig validates the provider configuration
	ValidateConfig() error
}

// ResourceOwner is the authenticated user as returned by a provider.
type ResourceOwner interface {
	// ID returns the identifier exactly as the provider sent it
	ID() any

	// ToMap returns the raw profile document
	ToMap() map[string]any
}

// UserInfo is a provider-agnostic projection of a ResourceOwner
type UserInfo struct {
	ID        string         `json:"id"`
	Email     string         `json:"email,omitempty"`
	Name      string         `json:"name"`
	FirstName string         `json:"first_name"`
	LastName  string         `json:"last_name"`
	Picture   string         `json:"picture,omitempty"`
	Provider  string         `json:"provider"`
	Raw       map[string]any `json:"raw"`
}

// SessionData is the server-side record of an authorization request,
// keyed by its state.
type SessionData struct {
	State        string         `json:"state"`
	PKCEVerifier string         `json:"pkce_verifier,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	ExpiresAt    time.Time      `json:"expires_at"`
	Provider     string         `json:"provider"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// IsExpired checks if the session data is expired
func (s *SessionData) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// StateGenerator generates state tokens
type StateGenerator interface {
	Generate() (string, error)
}

// SessionStore stores authorization sessions between redirect and callback
type SessionStore interface {
	Store(ctx context.Context, key string, data *SessionData) error
	Retrieve(ctx context.Context, key string) (*SessionData, error)
	Delete(ctx context.Context, key string) error

	// RetrieveAndDelete atomically consumes a session so a state can be
	// used only once
	RetrieveAndDelete(ctx context.Context, key string) (*SessionData, error)
}

// TokenStore caches tokens obtained from code exchanges
type TokenStore interface {
	Store(ctx context.Context, key string, token *oauth2.Token) error
	Retrieve(ctx context.Context, key string) (*oauth2.Token, error)
	Delete(ctx context.Context, key string) error
}

// AuthOption customizes a single authorization URL
type AuthOption func(*authRequest)

type authRequest struct {
	scopes         []string
	scopesSet      bool
	approvalPrompt *string
	pkceVerifier   string
	params         map[string]string
}

// WithScopes overrides the configured scopes for one request. Scopes are
// joined with a single space.
func WithScopes(scopes ...string) AuthOption {
	return func(r *authRequest) {
		r.scopes = scopes
		r.scopesSet = true
	}
}

// WithApprovalPrompt sets the approval_prompt parameter ("auto" or
// "force"). An empty value keeps the configured prompt.
func WithApprovalPrompt(prompt string) AuthOption {
	return func(r *authRequest) {
		r.approvalPrompt = &prompt
	}
}

// WithPKCEVerifier adds an S256 code_challenge derived from verifier.
func WithPKCEVerifier(verifier string) AuthOption {
	return func(r *authRequest) {
		r.pkceVerifier = verifier
	}
}

// WithAuthParam adds an extra query parameter to the authorization URL.
func WithAuthParam(key, value string) AuthOption {
	return func(r *authRequest) {
		if r.params == nil {
			r.params = make(map[string]string)
		}
		r.params[key] = value
	}
}
