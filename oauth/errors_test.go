package oauth

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIdentityProviderErrorIs(t *testing.T) {
	badRequest := &IdentityProviderError{Provider: "linkedin", Message: "msg", StatusCode: http.StatusBadRequest, Code: "invalid_request"}
	assert.ErrorIs(t, badRequest, ErrIdentityProvider)
	assert.NotErrorIs(t, badRequest, ErrAccessDenied)
	assert.Equal(t, "oauth error [linkedin]: msg (invalid_request, status 400)", badRequest.Error())

	forbidden := &IdentityProviderError{Provider: "linkedin", Message: "nope", StatusCode: http.StatusForbidden}
	assert.ErrorIs(t, fmt.Errorf("fetch: %w", forbidden), ErrAccessDenied)
	assert.Equal(t, "oauth error [linkedin]: nope (status 403)", forbidden.Error())

	denied := &IdentityProviderError{Code: "access_denied", StatusCode: http.StatusBadRequest}
	assert.ErrorIs(t, denied, ErrAccessDenied)
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"network", fmt.Errorf("%w: dial tcp", ErrNetworkError), true},
		{"server error status", &IdentityProviderError{StatusCode: http.StatusBadGateway}, true},
		{"rate limited", &IdentityProviderError{StatusCode: http.StatusTooManyRequests}, true},
		{"temporarily unavailable", &IdentityProviderError{StatusCode: http.StatusBadRequest, Code: "temporarily_unavailable"}, true},
		{"invalid grant", &IdentityProviderError{StatusCode: http.StatusBadRequest, Code: "invalid_grant"}, false},
		{"invalid state", ErrInvalidState, false},
		{"other", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func TestErrorType(t *testing.T) {
	assert.Equal(t, "invalid_grant", errorType(&IdentityProviderError{Code: "invalid_grant"}))
	assert.Equal(t, "access_denied", errorType(&IdentityProviderError{StatusCode: http.StatusUnauthorized}))
	assert.Equal(t, "provider_error", errorType(&IdentityProviderError{StatusCode: http.StatusNotFound}))
	assert.Equal(t, "invalid_state", errorType(fmt.Errorf("%w: expired", ErrInvalidState)))
	assert.Equal(t, "network", errorType(fmt.Errorf("%w: reset", ErrNetworkError)))
	assert.Equal(t, "invalid_response", errorType(ErrInvalidResponse))
	assert.Equal(t, "unknown", errorType(errors.New("boom")))

	// upstream codes outside the OAuth set do not become label values
	assert.Equal(t, "provider_error", errorType(&IdentityProviderError{Code: "made_up_code_123", StatusCode: http.StatusBadRequest}))
	assert.Equal(t, "access_denied", errorType(&IdentityProviderError{Code: "made_up_code_123", StatusCode: http.StatusForbidden}))
	assert.Equal(t, "server_error", errorType(&IdentityProviderError{Code: "server_error", StatusCode: http.StatusBadRequest}))
}
