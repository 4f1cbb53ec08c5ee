package oauth

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// LinkedIn endpoints
const (
	DefaultAuthHost = "https://www.linkedin.com"
	DefaultAPIHost  = "https://api.linkedin.com"

	AuthorizationURLPath  = "/oauth/v2/authorization"
	AccessTokenURLPath    = "/oauth/v2/accessToken"
	ResourceOwnerURLPath  = "/v2/me"
	EmailAddressURLPath   = "/v2/emailAddress"
	DefaultApprovalPrompt = "auto"
)

// DefaultFields returns the profile fields requested when none are configured.
func DefaultFields() []string {
	return []string{"id", "firstName", "lastName", "localizedFirstName", "localizedLastName", "profilePicture"}
}

// DefaultScopes returns the scopes requested when none are configured.
func DefaultScopes() []string {
	return []string{"r_liteprofile", "r_emailaddress"}
}

// Fields is an ordered list of profile fields. Decoding rejects anything
// that is not a list of strings with ErrInvalidConfig.
type Fields []string

// UnmarshalYAML implements yaml.Unmarshaler
func (f *Fields) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.SequenceNode {
		return fmt.Errorf("%w: fields must be a list of strings, got %s", ErrInvalidConfig, node.ShortTag())
	}
	out := make(Fields, 0, len(node.Content))
	for i, item := range node.Content {
		if item.Kind != yaml.ScalarNode || item.ShortTag() != "!!str" {
			return fmt.Errorf("%w: fields[%d] must be a string, got %s", ErrInvalidConfig, i, item.ShortTag())
		}
		out = append(out, item.Value)
	}
	*f = out
	return nil
}

// UnmarshalJSON implements json.Unmarshaler. null leaves the list unset.
func (f *Fields) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	var raw []any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: fields must be a list of strings", ErrInvalidConfig)
	}
	out := make(Fields, 0, len(raw))
	for i, v := range raw {
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("%w: fields[%d] must be a string, got %T", ErrInvalidConfig, i, v)
		}
		out = append(out, s)
	}
	*f = out
	return nil
}

// ProviderConfig configures the LinkedIn provider. It can be built in
// code or decoded from YAML/JSON with ParseProviderConfig.
type ProviderConfig struct {
	ClientID       string   `json:"client_id" yaml:"client_id"`
	ClientSecret   string   `json:"client_secret,omitempty" yaml:"client_secret"`
	RedirectURL    string   `json:"redirect_url" yaml:"redirect_url"`
	Fields         Fields   `json:"fields,omitempty" yaml:"fields"`
	Scopes         []string `json:"scopes,omitempty" yaml:"scopes"`
	ApprovalPrompt string   `json:"approval_prompt,omitempty" yaml:"approval_prompt"`

	// Endpoint overrides; empty values use LinkedIn production hosts
	AuthURL  string `json:"auth_url,omitempty" yaml:"auth_url"`
	TokenURL string `json:"token_url,omitempty" yaml:"token_url"`
	APIURL   string `json:"api_url,omitempty" yaml:"api_url"`

	// FetchEmail merges the primary email address into the resource owner
	FetchEmail bool `json:"fetch_email,omitempty" yaml:"fetch_email"`

	// UsePKCE sends S256 challenges; LinkedIn only accepts them for native apps
	UsePKCE bool `json:"use_pkce,omitempty" yaml:"use_pkce"`

	HTTPTimeout time.Duration `json:"http_timeout,omitempty" yaml:"http_timeout"`
	MaxRetries  int           `json:"max_retries,omitempty" yaml:"max_retries"`

	HTTPClient *http.Client `json:"-" yaml:"-"`
	Debug      bool         `json:"debug,omitempty" yaml:"debug"`
}

// ParseProviderConfig decodes a YAML or JSON provider configuration.
// A "fields" value that is not a list fails with ErrInvalidConfig.
func ParseProviderConfig(data []byte) (ProviderConfig, error) {
	var cfg ProviderConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return ProviderConfig{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return cfg, nil
}

// LoadProviderConfig reads and parses a provider configuration file.
func LoadProviderConfig(path string) (ProviderConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ProviderConfig{}, fmt.Errorf("failed to read provider config: %w", err)
	}
	return ParseProviderConfig(data)
}

// WithFields returns a copy of the configuration with fields replaced.
// The receiver is not modified.
func (c ProviderConfig) WithFields(fields ...string) ProviderConfig {
	c.Fields = append(Fields{}, fields...)
	return c
}

// withDefaults fills unset values. An explicitly empty (non-nil) field
// list is kept as is.
func (c ProviderConfig) withDefaults() ProviderConfig {
	if c.Fields == nil {
		c.Fields = DefaultFields()
	}
	if len(c.Scopes) == 0 {
		c.Scopes = DefaultScopes()
	}
	if c.ApprovalPrompt == "" {
		c.ApprovalPrompt = DefaultApprovalPrompt
	}
	if c.AuthURL == "" {
		c.AuthURL = DefaultAuthHost + AuthorizationURLPath
	}
	if c.TokenURL == "" {
		c.TokenURL = DefaultAuthHost + AccessTokenURLPath
	}
	if c.APIURL == "" {
		c.APIURL = DefaultAPIHost
	}
	if c.HTTPTimeout == 0 {
		c.HTTPTimeout = 30 * time.Second
	}
	return c
}

func (c ProviderConfig) validate() error {
	if c.ClientID == "" {
		return fmt.Errorf("%w: client_id required", ErrInvalidConfig)
	}
	if c.ClientSecret == "" {
		return fmt.Errorf("%w: client_secret required", ErrInvalidConfig)
	}
	if c.RedirectURL == "" {
		return fmt.Errorf("%w: redirect_url required", ErrInvalidConfig)
	}
	switch c.ApprovalPrompt {
	case "", "auto", "force":
	default:
		return fmt.Errorf("%w: approval_prompt must be auto or force, got %q", ErrInvalidConfig, c.ApprovalPrompt)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("%w: max_retries must not be negative", ErrInvalidConfig)
	}
	return nil
}
