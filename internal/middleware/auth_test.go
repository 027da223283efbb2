package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/alamigestion/server/internal/auth"
	"github.com/alamigestion/server/internal/domain"
	"github.com/google/uuid"
)

// =============================================================================
// Mock UserService Implementation
// =============================================================================

// mockUserService implements the service.UserService interface for testing.
type mockUserService struct {
	GetByIDFunc func(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

func (m *mockUserService) Register(ctx context.Context, params domain.RegisterParams) (*domain.User, error) {
	return nil, errors.New("not implemented")
}

func (m *mockUserService) Login(ctx context.Context, email, password string) (*domain.LoginResult, error) {
	return nil, errors.New("not implemented")
}

func (m *mockUserService) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, errors.New("not implemented")
}

func (m *mockUserService) List(ctx context.Context) ([]*domain.User, error) {
	return nil, errors.New("not implemented")
}

func (m *mockUserService) ChangePassword(ctx context.Context, params domain.PasswordChangeParams) error {
	return errors.New("not implemented")
}

func (m *mockUserService) SetActive(ctx context.Context, actorID, userID uuid.UUID, active bool) error {
	return errors.New("not implemented")
}

// =============================================================================
// Test Helpers
// =============================================================================

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestAuth(t *testing.T, users *mockUserService) (*AuthMiddleware, *auth.Authenticator) {
	t.Helper()
	authn := auth.NewAuthenticator("middleware-test-secret", false)
	return NewAuthMiddleware(authn, users, testLogger()), authn
}

func sessionRequest(t *testing.T, authn *auth.Authenticator, userID uuid.UUID, role domain.Role) *http.Request {
	t.Helper()
	token, err := authn.CreateToken(userID.String(), role)
	if err != nil {
		t.Fatalf("creating token: %v", err)
	}
	req := httptest.NewRequest("GET", "/api/sales", nil)
	req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: token})
	return req
}

// captureUser returns a handler that records the context user.
func captureUser(got **domain.User) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*got = auth.GetUser(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

// =============================================================================
// WithSession Tests
// =============================================================================

func TestWithSession_ValidTokenActiveUser(t *testing.T) {
	userID := uuid.New()
	users := &mockUserService{
		GetByIDFunc: func(ctx context.Context, id uuid.UUID) (*domain.User, error) {
			if id != userID {
				t.Errorf("looked up wrong user: %s", id)
			}
			return &domain.User{ID: userID, Role: domain.RoleSeller, Active: true}, nil
		},
	}
	mw, authn := newTestAuth(t, users)

	var got *domain.User
	rec := httptest.NewRecorder()
	mw.WithSession(captureUser(&got)).ServeHTTP(rec, sessionRequest(t, authn, userID, domain.RoleSeller))

	if got == nil {
		t.Fatal("expected user in context")
	}
	if got.ID != userID {
		t.Errorf("context user = %s, want %s", got.ID, userID)
	}
}

func TestWithSession_NoCookie_ContinuesUnauthenticated(t *testing.T) {
	mw, _ := newTestAuth(t, &mockUserService{})

	var got *domain.User
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/sales", nil)
	mw.WithSession(captureUser(&got)).ServeHTTP(rec, req)

	if got != nil {
		t.Error("expected no user in context")
	}
	if rec.Code != http.StatusOK {
		t.Errorf("request should pass through, got %d", rec.Code)
	}
}

func TestWithSession_DeactivatedUser_DropsSession(t *testing.T) {
	userID := uuid.New()
	users := &mockUserService{
		GetByIDFunc: func(ctx context.Context, id uuid.UUID) (*domain.User, error) {
			return &domain.User{ID: userID, Role: domain.RoleSeller, Active: false}, nil
		},
	}
	mw, authn := newTestAuth(t, users)

	var got *domain.User
	rec := httptest.NewRecorder()
	mw.WithSession(captureUser(&got)).ServeHTTP(rec, sessionRequest(t, authn, userID, domain.RoleSeller))

	if got != nil {
		t.Error("deactivated user should not appear in context")
	}

	// The dead cookie is cleared.
	cleared := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.CookieName && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("expected the session cookie to be removed")
	}
}

func TestWithSession_TamperedToken_DropsCookie(t *testing.T) {
	mw, _ := newTestAuth(t, &mockUserService{})

	var got *domain.User
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/sales", nil)
	req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: "not.a.jwt"})
	mw.WithSession(captureUser(&got)).ServeHTTP(rec, req)

	if got != nil {
		t.Error("expected no user in context")
	}

	cleared := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.CookieName && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("expected the invalid cookie to be removed")
	}
}

// =============================================================================
// RequireUser / RequireOwner Tests
// =============================================================================

func TestRequireUser_Unauthenticated(t *testing.T) {
	mw, _ := newTestAuth(t, &mockUserService{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/sales", nil)
	mw.RequireUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not run")
	})).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestRequireUser_Authenticated(t *testing.T) {
	mw, _ := newTestAuth(t, &mockUserService{})

	user := &domain.User{ID: uuid.New(), Role: domain.RoleSeller, Active: true}
	req := httptest.NewRequest("GET", "/api/sales", nil)
	req = req.WithContext(auth.SetUser(req.Context(), user))

	rec := httptest.NewRecorder()
	called := false
	mw.RequireUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})).ServeHTTP(rec, req)

	if !called {
		t.Error("handler should run for authenticated request")
	}
}

func TestRequireOwner_SellerForbidden(t *testing.T) {
	mw, _ := newTestAuth(t, &mockUserService{})

	user := &domain.User{ID: uuid.New(), Role: domain.RoleSeller, Active: true}
	req := httptest.NewRequest("POST", "/api/users", nil)
	req = req.WithContext(auth.SetUser(req.Context(), user))

	rec := httptest.NewRecorder()
	mw.RequireOwner(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not run for a seller")
	})).ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

func TestRequireOwner_OwnerAllowed(t *testing.T) {
	mw, _ := newTestAuth(t, &mockUserService{})

	user := &domain.User{ID: uuid.New(), Role: domain.RoleOwner, Active: true}
	req := httptest.NewRequest("POST", "/api/users", nil)
	req = req.WithContext(auth.SetUser(req.Context(), user))

	rec := httptest.NewRecorder()
	called := false
	mw.RequireOwner(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})).ServeHTTP(rec, req)

	if !called {
		t.Error("handler should run for an owner")
	}
}

// Quote conversion creates a sale and mutates the quote, so its route is
// owner-gated like the other conversions; a seller session must stop at
// the role check.
func TestRequireOwner_QuoteConversionBlockedForSeller(t *testing.T) {
	mw, _ := newTestAuth(t, &mockUserService{})

	converted := false
	gate := Stack(mw.RequireUser, mw.RequireOwner)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		converted = true
		w.WriteHeader(http.StatusCreated)
	}))

	seller := &domain.User{ID: uuid.New(), Role: domain.RoleSeller, Active: true}
	req := httptest.NewRequest("POST", "/api/quotes/"+uuid.NewString()+"/convert", nil)
	req = req.WithContext(auth.SetUser(req.Context(), seller))

	rec := httptest.NewRecorder()
	gate.ServeHTTP(rec, req)

	if converted {
		t.Error("a seller must not reach quote conversion")
	}
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}

	owner := &domain.User{ID: uuid.New(), Role: domain.RoleOwner, Active: true}
	req = httptest.NewRequest("POST", "/api/quotes/"+uuid.NewString()+"/convert", nil)
	req = req.WithContext(auth.SetUser(req.Context(), owner))

	rec = httptest.NewRecorder()
	gate.ServeHTTP(rec, req)

	if !converted {
		t.Error("an owner should reach quote conversion")
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201", rec.Code)
	}
}

// =============================================================================
// Stack Tests
// =============================================================================

func TestStack_Order(t *testing.T) {
	var order []string
	tag := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Stack(tag("outer"), tag("inner"))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

	want := []string{"outer", "inner", "handler"}
	for i, name := range want {
		if i >= len(order) || order[i] != name {
			t.Fatalf("execution order = %v, want %v", order, want)
		}
	}
}
