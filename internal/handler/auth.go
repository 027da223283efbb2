package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/alamigestion/server/internal/auth"
	"github.com/alamigestion/server/internal/domain"
	"github.com/alamigestion/server/internal/service"
	"github.com/google/uuid"
)

// AuthHandler handles login, logout and the current-user endpoint.
//
// Routes:
// - POST /api/auth/login
// - POST /api/auth/logout
// - GET  /api/auth/me
// - POST /api/auth/password
type AuthHandler struct {
	users  service.UserService
	authn  *auth.Authenticator
	logger *slog.Logger
}

// NewAuthHandler creates a new AuthHandler instance.
func NewAuthHandler(users service.UserService, authn *auth.Authenticator, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		users:  users,
		authn:  authn,
		logger: logger,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// userResponse is the public shape of an account. The password hash never
// appears here.
type userResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
}

func toUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      string(u.Role),
		Active:    u.Active,
		CreatedAt: u.CreatedAt,
	}
}

// Login authenticates the credentials and sets the session cookie.
//
// The token also appears in the response body for clients that prefer a
// bearer header over cookies.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	result, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	h.authn.SetAuthCookie(w, result.Token)

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"user":  toUserResponse(result.User),
		"token": result.Token,
	})
}

// Logout clears the session cookie.
//
// There is no server-side session state to destroy; the token itself stays
// valid until expiry, so logout is purely a client-side affair.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.authn.RemoveAuthCookie(w)
	respondJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

// Me returns the authenticated user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}
	respondJSON(w, http.StatusOK, toUserResponse(user))
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// ChangePassword updates the authenticated user's password.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	var req changePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	err := h.users.ChangePassword(r.Context(), domain.PasswordChangeParams{
		UserID:          user.ID,
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	})
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "password changed"})
}
