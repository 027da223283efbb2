// Package middleware contains HTTP middleware for the application.
//
// Middleware functions follow the standard Go pattern of wrapping
// http.Handler and are composed with Stack.
package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/alamigestion/server/internal/auth"
	"github.com/alamigestion/server/internal/domain"
	"github.com/alamigestion/server/internal/handler"
	"github.com/alamigestion/server/internal/service"
	"github.com/google/uuid"
)

// AuthMiddleware resolves the session cookie into a user on each request.
type AuthMiddleware struct {
	authn  *auth.Authenticator
	users  service.UserService
	logger *slog.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware instance.
func NewAuthMiddleware(authn *auth.Authenticator, users service.UserService, logger *slog.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		authn:  authn,
		users:  users,
		logger: logger,
	}
}

// WithSession verifies the session token and loads the current user into
// the request context.
//
// The token only proves identity; the account itself is re-read on every
// request, so a deactivated account loses access immediately even though
// its token is still cryptographically valid. Requests without a valid
// session continue unauthenticated; RequireUser decides whether that is
// acceptable for the route.
func (m *AuthMiddleware) WithSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, err := m.authn.GetSession(r)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidToken) {
				// Expired or tampered token; drop the dead cookie.
				m.authn.RemoveAuthCookie(w)
			}
			next.ServeHTTP(w, r)
			return
		}

		userID, err := uuid.Parse(session.UserID)
		if err != nil {
			m.authn.RemoveAuthCookie(w)
			next.ServeHTTP(w, r)
			return
		}

		user, err := m.users.GetByID(r.Context(), userID)
		if err != nil || !user.Active {
			m.authn.RemoveAuthCookie(w)
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.SetUser(r.Context(), user)))
	})
}

// RequireUser rejects unauthenticated requests with 401.
//
// Must run after WithSession in the chain.
func (m *AuthMiddleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth.GetUser(r.Context()) == nil {
			handler.UnauthorizedResponse(w, r, m.logger)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireOwner rejects requests from non-owner accounts with 403.
//
// Must run after RequireUser in the chain.
func (m *AuthMiddleware) RequireOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := auth.GetUser(r.Context())
		if user == nil {
			handler.UnauthorizedResponse(w, r, m.logger)
			return
		}
		if !user.IsOwner() {
			m.logger.Warn("owner-only route refused", "user_id", user.ID, "path", r.URL.Path)
			err := domain.Forbidden("", "This action requires an owner account")
			handler.ErrorResponse(w, r, m.logger, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Stack composes middleware; the first argument is the outermost wrapper.
func Stack(middlewares ...func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(final http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			final = middlewares[i](final)
		}
		return final
	}
}
