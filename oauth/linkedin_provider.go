package oauth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// LinkedInProviderName is the identifier of the LinkedIn provider.
const LinkedInProviderName = "linkedin"

// ScopeSeparator joins scopes in the authorization URL.
const ScopeSeparator = " "

// LinkedInProvider implements Provider for LinkedIn. It is immutable
// after construction; WithFields returns a new provider.
type LinkedInProvider struct {
	config     ProviderConfig
	oauth      *oauth2.Config
	httpClient *http.Client
	rest       *resty.Client
	logger     *zap.Logger
}

// ProviderOption customizes a LinkedInProvider
type ProviderOption func(*LinkedInProvider)

// WithLogger sets the provider logger. Access tokens are never logged.
func WithLogger(logger *zap.Logger) ProviderOption {
	return func(p *LinkedInProvider) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithHTTPClient sets the HTTP client used for token and API requests.
func WithHTTPClient(client *http.Client) ProviderOption {
	return func(p *LinkedInProvider) {
		if client != nil {
			p.httpClient = client
		}
	}
}

// NewLinkedIn creates a LinkedIn provider. Missing client credentials or
// redirect URL fail with ErrInvalidConfig.
func NewLinkedIn(cfg ProviderConfig, opts ...ProviderOption) (*LinkedInProvider, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	p := &LinkedInProvider{
		config:     cfg,
		httpClient: cfg.HTTPClient,
		logger:     zap.NewNop(),
	}
	if cfg.Debug {
		if l, err := zap.NewDevelopment(); err == nil {
			p.logger = l
		}
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.httpClient == nil {
		p.httpClient = &http.Client{Timeout: cfg.HTTPTimeout}
	}

	p.oauth = &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Scopes:       cfg.Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   cfg.AuthURL,
			TokenURL:  cfg.TokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}

	p.rest = resty.NewWithClient(p.httpClient).
		SetHeader("Accept", "application/json").
		SetHeader("X-Restli-Protocol-Version", "2.0.0").
		SetRetryCount(cfg.MaxRetries).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= http.StatusInternalServerError
		})

	return p, nil
}

// Name returns the provider name
func (p *LinkedInProvider) Name() string {
	return LinkedInProviderName
}

// DefaultScopes returns the scopes used when the caller supplies none.
func (p *LinkedInProvider) DefaultScopes() []string {
	return DefaultScopes()
}

// ScopeSeparator returns the separator used to join scopes.
func (p *LinkedInProvider) ScopeSeparator() string {
	return ScopeSeparator
}

// Config returns a copy of the effective configuration.
func (p *LinkedInProvider) Config() ProviderConfig {
	cfg := p.config
	cfg.Fields = append(Fields{}, p.config.Fields...)
	cfg.Scopes = append([]string{}, p.config.Scopes...)
	return cfg
}

// Fields returns a copy of the requested profile fields.
func (p *LinkedInProvider) Fields() []string {
	return append([]string{}, p.config.Fields...)
}

// WithFields returns a new provider requesting fields. The receiver is
// unchanged.
func (p *LinkedInProvider) WithFields(fields ...string) *LinkedInProvider {
	cp := *p
	cp.config = p.config.WithFields(fields...)
	return &cp
}

// AuthCodeURL returns the authorization URL. The query always carries
// client_id, redirect_uri, state, scope, response_type and
// approval_prompt, even when state or scope are empty.
func (p *LinkedInProvider) AuthCodeURL(state string, opts ...AuthOption) string {
	var req authRequest
	for _, opt := range opts {
		opt(&req)
	}

	cfg := *p.oauth
	if req.scopesSet {
		cfg.Scopes = req.scopes
	}

	prompt := p.config.ApprovalPrompt
	if req.approvalPrompt != nil && *req.approvalPrompt != "" {
		prompt = *req.approvalPrompt
	}

	params := []oauth2.AuthCodeOption{
		oauth2.SetAuthURLParam("approval_prompt", prompt),
	}
	// x/oauth2 leaves out empty scope and state
	if len(cfg.Scopes) == 0 {
		params = append(params, oauth2.SetAuthURLParam("scope", ""))
	}
	if state == "" {
		params = append(params, oauth2.SetAuthURLParam("state", ""))
	}
	if req.pkceVerifier != "" {
		params = append(params, oauth2.S256ChallengeOption(req.pkceVerifier))
	}
	for k, v := range req.params {
		params = append(params, oauth2.SetAuthURLParam(k, v))
	}

	return cfg.AuthCodeURL(state, params...)
}

// Exchange exchanges an authorization code for a token. An error body from
// the token endpoint is returned as *IdentityProviderError.
func (p *LinkedInProvider) Exchange(ctx context.Context, code string, opts ...oauth2.AuthCodeOption) (*oauth2.Token, error) {
	token, err := p.oauth.Exchange(p.contextWithHTTPClient(ctx), code, opts...)
	if err != nil {
		err = p.translateTokenError(err)
		p.logger.Debug("token exchange failed", zap.String("provider", p.Name()), zap.Error(err))
		return nil, err
	}

	p.logger.Debug("token exchanged",
		zap.String("provider", p.Name()),
		zap.Time("expiry", token.Expiry),
		zap.Bool("refreshable", token.RefreshToken != ""),
	)
	return token, nil
}

func (p *LinkedInProvider) translateTokenError(err error) error {
	var rerr *oauth2.RetrieveError
	if !errors.As(err, &rerr) {
		return fmt.Errorf("%w: failed to exchange code: %v", ErrNetworkError, err)
	}

	status := 0
	if rerr.Response != nil {
		status = rerr.Response.StatusCode
	}
	if perr := p.CheckResponse(status, rerr.Body); perr != nil {
		return perr
	}

	msg := rerr.ErrorDescription
	if msg == "" {
		msg = statusMessage(status)
	}
	return &IdentityProviderError{
		Provider:   p.Name(),
		Message:    msg,
		StatusCode: status,
		Code:       rerr.ErrorCode,
		Body:       rerr.Body,
	}
}

// ResourceOwnerDetailsURL returns the profile URL with the configured
// fields as a comma-separated "fields" parameter, without projection
// parentheses.
func (p *LinkedInProvider) ResourceOwnerDetailsURL(token *oauth2.Token) string {
	escaped := make([]string, len(p.config.Fields))
	for i, f := range p.config.Fields {
		escaped[i] = url.QueryEscape(f)
	}
	return strings.TrimRight(p.config.APIURL, "/") + ResourceOwnerURLPath + "?fields=" + strings.Join(escaped, ",")
}

// EmailAddressURL returns the primary email lookup URL.
func (p *LinkedInProvider) EmailAddressURL() string {
	return strings.TrimRight(p.config.APIURL, "/") + EmailAddressURLPath + "?q=members&projection=(elements*(handle~))"
}

// ResourceOwner fetches the profile of the token's owner. When
// FetchEmail is enabled the primary email is merged as "emailAddress".
func (p *LinkedInProvider) ResourceOwner(ctx context.Context, token *oauth2.Token) (ResourceOwner, error) {
	doc, err := p.fetchDocument(ctx, token, p.ResourceOwnerDetailsURL(token))
	if err != nil {
		return nil, err
	}

	if p.config.FetchEmail {
		email, err := p.ResourceOwnerEmail(ctx, token)
		if err != nil {
			return nil, err
		}
		if email != "" {
			doc["emailAddress"] = email
		}
	}

	return p.CreateResourceOwner(doc, token), nil
}

// ResourceOwnerEmail returns the member's primary email address, or ""
// when LinkedIn returns none.
func (p *LinkedInProvider) ResourceOwnerEmail(ctx context.Context, token *oauth2.Token) (string, error) {
	doc, err := p.fetchDocument(ctx, token, p.EmailAddressURL())
	if err != nil {
		return "", err
	}

	elements, _ := doc["elements"].([]any)
	for _, el := range elements {
		if email, ok := lookupPath(el, []string{"handle~", "emailAddress"}).(string); ok && email != "" {
			return email, nil
		}
	}
	return "", nil
}

// CreateResourceOwner wraps a decoded profile document.
func (p *LinkedInProvider) CreateResourceOwner(doc map[string]any, token *oauth2.Token) *LinkedInResourceOwner {
	return NewLinkedInResourceOwner(doc)
}

// CheckResponse returns an *IdentityProviderError when body carries an
// OAuth "error" member, or a LinkedIn API error envelope with a 4xx/5xx
// status. Otherwise it returns nil.
func (p *LinkedInProvider) CheckResponse(statusCode int, body []byte) error {
	doc, err := decodeDocument(body)
	if err != nil {
		return nil
	}

	if code, _ := doc["error"].(string); code != "" {
		msg, _ := doc["error_description"].(string)
		if msg == "" {
			msg = statusMessage(statusCode)
		}
		return &IdentityProviderError{
			Provider:   p.Name(),
			Message:    msg,
			StatusCode: statusCode,
			Code:       code,
			Body:       body,
		}
	}

	if statusCode >= http.StatusBadRequest {
		if msg, _ := doc["message"].(string); msg != "" {
			return &IdentityProviderError{
				Provider:   p.Name(),
				Message:    msg,
				StatusCode: statusCode,
				Body:       body,
			}
		}
	}
	return nil
}

// IDTokenClaims returns the claims of the OpenID Connect id_token that
// accompanies the token. The signature is not verified; only use it for
// tokens received directly from the token endpoint over TLS.
func (p *LinkedInProvider) IDTokenClaims(token *oauth2.Token) (jwt.MapClaims, error) {
	if token == nil {
		return nil, ErrNoIDToken
	}
	raw, _ := token.Extra("id_token").(string)
	if raw == "" {
		return nil, ErrNoIDToken
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return nil, fmt.Errorf("%w: malformed id_token: %v", ErrInvalidResponse, err)
	}
	return claims, nil
}

// SupportsPKCE reports whether PKCE is enabled in the configuration
func (p *LinkedInProvider) SupportsPKCE() bool {
	return p.config.UsePKCE
}

// ValidateConfig validates the provider configuration
func (p *LinkedInProvider) ValidateConfig() error {
	return p.config.validate()
}

func (p *LinkedInProvider) fetchDocument(ctx context.Context, token *oauth2.Token, endpoint string) (map[string]any, error) {
	if token == nil || token.AccessToken == "" {
		return nil, fmt.Errorf("%w: missing access token", ErrInvalidConfig)
	}

	resp, err := p.rest.R().
		SetContext(ctx).
		SetAuthToken(token.AccessToken).
		Get(endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetworkError, err)
	}

	body := resp.Body()
	p.logger.Debug("linkedin api response",
		zap.String("url", endpoint),
		zap.Int("status", resp.StatusCode()),
		zap.Duration("elapsed", resp.Time()),
	)

	if err := p.CheckResponse(resp.StatusCode(), body); err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, &IdentityProviderError{
			Provider:   p.Name(),
			Message:    statusMessage(resp.StatusCode()),
			StatusCode: resp.StatusCode(),
			Body:       body,
		}
	}

	doc, err := decodeDocument(body)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (p *LinkedInProvider) contextWithHTTPClient(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
}

// decodeDocument parses a JSON object, keeping numbers as json.Number so
// identifiers pass through unchanged.
func decodeDocument(body []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: expected a JSON object", ErrInvalidResponse)
	}
	return doc, nil
}

func statusMessage(status int) string {
	if text := http.StatusText(status); text != "" {
		return text
	}
	return "unexpected response"
}
