package oauth

import (
	"errors"
	"fmt"
	"net/http"
)

// Package-level errors
var (
	// ErrInvalidConfig indicates invalid configuration, including a
	// non-list "fields" value
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrNotInitialized indicates the service hasn't been initialized
	ErrNotInitialized = errors.New("oauth service not initialized")

	// ErrInvalidState indicates state parameter mismatch (CSRF protection)
	ErrInvalidState = errors.New("invalid state parameter")

	// ErrSessionNotFound indicates session data not found
	ErrSessionNotFound = errors.New("session not found")

	// ErrTokenNotFound indicates no cached token exists for a key
	ErrTokenNotFound = errors.New("token not found")

	// ErrIdentityProvider matches every *IdentityProviderError
	ErrIdentityProvider = errors.New("identity provider error")

	// ErrAccessDenied indicates the provider refused the token or the user denied access
	ErrAccessDenied = errors.New("access denied")

	// ErrNetworkError indicates a transport failure talking to the provider
	ErrNetworkError = errors.New("network error")

	// ErrInvalidResponse indicates a response body that could not be parsed
	ErrInvalidResponse = errors.New("invalid response from provider")

	// ErrNoIDToken indicates the token response carried no id_token
	ErrNoIDToken = errors.New("no id_token in token response")
)

// IdentityProviderError is returned when a provider response body reports
// an error. Message comes from "error_description" (or the LinkedIn API
// "message"), falling back to the HTTP status text.
type IdentityProviderError struct {
	Provider   string
	Message    string
	StatusCode int
	Code       string // OAuth error code (e.g. "invalid_request"), empty for API envelopes
	Body       []byte
}

func (e *IdentityProviderError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("oauth error [%s]: %s (%s, status %d)", e.Provider, e.Message, e.Code, e.StatusCode)
	}
	return fmt.Sprintf("oauth error [%s]: %s (status %d)", e.Provider, e.Message, e.StatusCode)
}

// Is reports ErrIdentityProvider for every instance and ErrAccessDenied
// for access_denied codes and 401/403 responses.
func (e *IdentityProviderError) Is(target error) bool {
	switch target {
	case ErrIdentityProvider:
		return true
	case ErrAccessDenied:
		return e.Code == "access_denied" ||
			e.StatusCode == http.StatusUnauthorized ||
			e.StatusCode == http.StatusForbidden
	}
	return false
}

// IsRetryable checks if an error is worth retrying at the caller's level.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNetworkError) {
		return true
	}

	var idpErr *IdentityProviderError
	if errors.As(err, &idpErr) {
		return idpErr.Code == "temporarily_unavailable" ||
			idpErr.Code == "server_error" ||
			idpErr.StatusCode == http.StatusTooManyRequests ||
			idpErr.StatusCode >= http.StatusInternalServerError
	}
	return false
}

// oauthErrorCodes are the RFC 6749 error codes used verbatim as metric
// labels; any other upstream code is reported by its error class.
var oauthErrorCodes = map[string]bool{
	"invalid_request":         true,
	"invalid_client":          true,
	"invalid_grant":           true,
	"unauthorized_client":     true,
	"unsupported_grant_type":  true,
	"invalid_scope":           true,
	"access_denied":           true,
	"server_error":            true,
	"temporarily_unavailable": true,
}

func errorType(err error) string {
	var idpErr *IdentityProviderError
	switch {
	case errors.As(err, &idpErr) && oauthErrorCodes[idpErr.Code]:
		return idpErr.Code
	case errors.Is(err, ErrAccessDenied):
		return "access_denied"
	case errors.Is(err, ErrIdentityProvider):
		return "provider_error"
	case errors.Is(err, ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, ErrNetworkError):
		return "network"
	case errors.Is(err, ErrInvalidResponse):
		return "invalid_response"
	default:
		return "unknown"
	}
}
