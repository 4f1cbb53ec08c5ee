package oauth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestLoginAndCallbackHandlers(t *testing.T) {
	server := newFakeLinkedIn(t)
	s := newTestService(t, testServiceConfig(server.URL))

	rec := httptest.NewRecorder()
	s.LoginHandler(WithScopes("r_liteprofile")).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/login", nil))
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	q := stateFromURL(t, rec.Header().Get("Location"))
	assert.Equal(t, "r_liteprofile", q.Get("scope"))
	state := q.Get("state")

	var gotOwner ResourceOwner
	callback := s.CallbackHandler(func(w http.ResponseWriter, r *http.Request, token *oauth2.Token, owner ResourceOwner) {
		assert.Equal(t, "at-1", token.AccessToken)
		gotOwner = owner
		w.WriteHeader(http.StatusNoContent)
	})

	rec = httptest.NewRecorder()
	callback.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?code=good-code&state="+state, nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	require.NotNil(t, gotOwner)
	assert.Equal(t, "abc123", gotOwner.ID())

	// replay
	rec = httptest.NewRecorder()
	callback.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?code=good-code&state="+state, nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCallbackHandlerErrors(t *testing.T) {
	server := newFakeLinkedIn(t)
	s := newTestService(t, testServiceConfig(server.URL))
	callback := s.CallbackHandler(func(w http.ResponseWriter, r *http.Request, token *oauth2.Token, owner ResourceOwner) {
		t.Fatal("callback must not run")
	})

	tests := []struct {
		name   string
		target string
		want   int
	}{
		{"user cancelled", "/callback?error=user_cancelled_login&error_description=cancelled", http.StatusForbidden},
		{"access denied", "/callback?error=access_denied", http.StatusForbidden},
		{"other error", "/callback?error=invalid_scope", http.StatusBadRequest},
		{"missing code", "/callback?state=abc", http.StatusBadRequest},
		{"unknown state", "/callback?code=good-code&state=abc", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			callback.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.target, nil))
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestCallbackHandlerProviderFailure(t *testing.T) {
	server := newFakeLinkedIn(t)
	s := newTestService(t, testServiceConfig(server.URL))
	callback := s.CallbackHandler(func(w http.ResponseWriter, r *http.Request, token *oauth2.Token, owner ResourceOwner) {
		t.Fatal("callback must not run")
	})

	_, state, err := s.GetAuthURL(context.Background())
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	callback.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?code=bad-code&state="+state, nil))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestHealthHandler(t *testing.T) {
	server := newFakeLinkedIn(t)
	s := newTestService(t, testServiceConfig(server.URL))

	rec := httptest.NewRecorder()
	s.HealthHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var health HealthCheck
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&health))
	assert.Equal(t, HealthStatusHealthy, health.Status)
	assert.Contains(t, health.Checks, "provider")
	assert.Contains(t, health.Checks, "session_store")

	require.NoError(t, s.Close())
	h := s.Health(context.Background())
	assert.Equal(t, HealthStatusUnhealthy, h.Status)
	assert.NotEmpty(t, h.Checks["session_store"].Error)
}

func TestHandlersWithoutService(t *testing.T) {
	var s *Service

	tests := []struct {
		name    string
		handler http.Handler
		target  string
	}{
		{"login", s.LoginHandler(), "/login"},
		{"callback with error", s.CallbackHandler(nil), "/callback?error=access_denied"},
		{"callback with code", s.CallbackHandler(nil), "/callback?code=good-code&state=abc"},
		{"health", s.HealthHandler(), "/health"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			require.NotPanics(t, func() {
				tt.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.target, nil))
			})
			assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		})
	}

	h := s.Health(context.Background())
	assert.Equal(t, HealthStatusUnhealthy, h.Status)
	assert.Equal(t, ErrNotInitialized.Error(), h.Checks["service"].Error)
}
