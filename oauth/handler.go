package oauth

import (
	"errors"
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// CallbackFunc receives the result of a successful callback.
type CallbackFunc func(w http.ResponseWriter, r *http.Request, token *oauth2.Token, owner ResourceOwner)

// LoginHandler redirects the browser to the LinkedIn authorization page.
func (s *Service) LoginHandler(opts ...AuthOption) http.Handler {
	return securityHeaders(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s == nil {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
			return
		}
		authURL, _, err := s.GetAuthURL(r.Context(), opts...)
		if err != nil {
			s.logger.Error("failed to build authorization url", zap.Error(err))
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		http.Redirect(w, r, authURL, http.StatusFound)
	}))
}

// CallbackHandler completes the flow on the redirect URI: it validates
// state, exchanges the code, fetches the resource owner and hands both to
// next. A denied authorization responds 403; a bad state responds 400.
func (s *Service) CallbackHandler(next CallbackFunc) http.Handler {
	return securityHeaders(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s == nil {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
			return
		}
		q := r.URL.Query()

		if code := q.Get("error"); code != "" {
			s.logger.Info("authorization refused",
				zap.String("error", code),
				zap.String("description", q.Get("error_description")),
			)
			status := http.StatusBadRequest
			if code == "access_denied" || code == "user_cancelled_login" || code == "user_cancelled_authorize" {
				status = http.StatusForbidden
			}
			http.Error(w, http.StatusText(status), status)
			return
		}

		code := q.Get("code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			return
		}

		token, err := s.Exchange(r.Context(), code, q.Get("state"))
		if err != nil {
			http.Error(w, http.StatusText(callbackStatus(err)), callbackStatus(err))
			return
		}

		owner, err := s.GetResourceOwner(r.Context(), token)
		if err != nil {
			s.logger.Warn("failed to fetch resource owner", zap.Error(err))
			http.Error(w, http.StatusText(callbackStatus(err)), callbackStatus(err))
			return
		}

		next(w, r, token, owner)
	}))
}

func callbackStatus(err error) int {
	switch {
	case errors.Is(err, ErrInvalidState):
		return http.StatusBadRequest
	case errors.Is(err, ErrAccessDenied):
		return http.StatusForbidden
	case errors.Is(err, ErrIdentityProvider), errors.Is(err, ErrNetworkError), errors.Is(err, ErrInvalidResponse):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// securityHeaders keeps OAuth responses out of caches and frames.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Cache-Control", "no-store")
		h.Set("Pragma", "no-cache")
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		next.ServeHTTP(w, r)
	})
}
