package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alamigestion/server/internal/domain"
)

const testSecret = "test-secret-for-session-tokens"

// =============================================================================
// Token Round-Trip Tests
// =============================================================================

func TestCreateVerifyToken_RoundTrip(t *testing.T) {
	a := NewAuthenticator(testSecret, false)

	testCases := []struct {
		name   string
		userID string
		role   domain.Role
	}{
		{"owner", "u1", domain.RoleOwner},
		{"seller", "8f14e45f-ceea-4f31-b0f6-1d1c0c9b2a7e", domain.RoleSeller},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			token, err := a.CreateToken(tc.userID, tc.role)
			if err != nil {
				t.Fatalf("CreateToken failed: %v", err)
			}

			sess, err := a.VerifyToken(token)
			if err != nil {
				t.Fatalf("VerifyToken failed: %v", err)
			}
			if sess.UserID != tc.userID {
				t.Errorf("expected userID %q, got %q", tc.userID, sess.UserID)
			}
			if sess.Role != tc.role {
				t.Errorf("expected role %q, got %q", tc.role, sess.Role)
			}
		})
	}
}

func TestVerifyToken_Expired(t *testing.T) {
	a := NewAuthenticator(testSecret, false)

	// Issue a token 8 days in the past, then verify with the real clock.
	a.now = func() time.Time { return time.Now().Add(-8 * 24 * time.Hour) }
	token, err := a.CreateToken("u1", domain.RoleOwner)
	if err != nil {
		t.Fatalf("CreateToken failed: %v", err)
	}
	a.now = time.Now

	if _, err := a.VerifyToken(token); err != ErrInvalidToken {
		t.Errorf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestVerifyToken_NotYetExpired(t *testing.T) {
	a := NewAuthenticator(testSecret, false)

	// Just inside the 7-day window.
	a.now = func() time.Time { return time.Now().Add(-7*24*time.Hour + time.Minute) }
	token, err := a.CreateToken("u1", domain.RoleSeller)
	if err != nil {
		t.Fatalf("CreateToken failed: %v", err)
	}
	a.now = time.Now

	if _, err := a.VerifyToken(token); err != nil {
		t.Errorf("token within validity window should verify, got %v", err)
	}
}

func TestVerifyToken_TamperedSignature(t *testing.T) {
	a := NewAuthenticator(testSecret, false)

	token, err := a.CreateToken("u1", domain.RoleOwner)
	if err != nil {
		t.Fatalf("CreateToken failed: %v", err)
	}

	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("expected 3 token segments, got %d", len(parts))
	}

	// Flip one character of the signature segment.
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(sig)

	if _, err := a.VerifyToken(tampered); err != ErrInvalidToken {
		t.Errorf("expected ErrInvalidToken for tampered token, got %v", err)
	}
}

func TestVerifyToken_TamperedPayload(t *testing.T) {
	a := NewAuthenticator(testSecret, false)

	token, err := a.CreateToken("u1", domain.RoleSeller)
	if err != nil {
		t.Fatalf("CreateToken failed: %v", err)
	}

	parts := strings.Split(token, ".")
	payload := []byte(parts[1])
	if payload[0] == 'A' {
		payload[0] = 'B'
	} else {
		payload[0] = 'A'
	}
	tampered := parts[0] + "." + string(payload) + "." + parts[2]

	if _, err := a.VerifyToken(tampered); err != ErrInvalidToken {
		t.Errorf("expected ErrInvalidToken for tampered payload, got %v", err)
	}
}

func TestVerifyToken_WrongSecret(t *testing.T) {
	signer := NewAuthenticator("secret-a", false)
	verifier := NewAuthenticator("secret-b", false)

	token, err := signer.CreateToken("u1", domain.RoleOwner)
	if err != nil {
		t.Fatalf("CreateToken failed: %v", err)
	}

	if _, err := verifier.VerifyToken(token); err != ErrInvalidToken {
		t.Errorf("expected ErrInvalidToken under different secret, got %v", err)
	}

	// Sanity: the issuing authenticator still accepts it.
	if _, err := signer.VerifyToken(token); err != nil {
		t.Errorf("issuer should accept its own token, got %v", err)
	}
}

func TestVerifyToken_Malformed(t *testing.T) {
	a := NewAuthenticator(testSecret, false)

	testCases := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not-a-token"},
		{"two segments", "aaaa.bbbb"},
		{"unsigned", "eyJhbGciOiJub25lIn0.eyJ1c2VySWQiOiJ1MSJ9."},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := a.VerifyToken(tc.token); err != ErrInvalidToken {
				t.Errorf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}

func TestVerifyToken_UnknownRole(t *testing.T) {
	a := NewAuthenticator(testSecret, false)

	token, err := a.CreateToken("u1", domain.Role("ADMIN"))
	if err != nil {
		t.Fatalf("CreateToken failed: %v", err)
	}

	// The signature is fine, but the payload is not well-formed for us.
	if _, err := a.VerifyToken(token); err != ErrInvalidToken {
		t.Errorf("expected ErrInvalidToken for unknown role, got %v", err)
	}
}

// =============================================================================
// Password Hashing Tests
// =============================================================================

func TestHashPassword_NonDeterministicButVerifiable(t *testing.T) {
	a := NewAuthenticator(testSecret, false)

	d1, err := a.HashPassword("s3cret-pass")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	d2, err := a.HashPassword("s3cret-pass")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}

	if d1 == d2 {
		t.Error("two hashes of the same password should differ (per-call salt)")
	}
	if err := a.VerifyPassword("s3cret-pass", d1); err != nil {
		t.Errorf("VerifyPassword should accept digest 1: %v", err)
	}
	if err := a.VerifyPassword("s3cret-pass", d2); err != nil {
		t.Errorf("VerifyPassword should accept digest 2: %v", err)
	}
	if err := a.VerifyPassword("wrong-pass", d1); err == nil {
		t.Error("VerifyPassword should reject a wrong password")
	}
}

func TestVerifyPassword_MalformedDigest(t *testing.T) {
	a := NewAuthenticator(testSecret, false)

	if err := a.VerifyPassword("anything", "not-a-bcrypt-digest"); err == nil {
		t.Error("expected an error for a malformed digest")
	}
}

// =============================================================================
// Cookie Lifecycle Tests
// =============================================================================

// requestWithCookies builds a follow-up request carrying the cookies a
// previous response set, simulating the browser's next request.
func requestWithCookies(t *testing.T, rec *httptest.ResponseRecorder) *http.Request {
	t.Helper()
	req := httptest.NewRequest("GET", "/api/auth/me", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
	}
	return req
}

func TestCookieLifecycle_EndToEnd(t *testing.T) {
	a := NewAuthenticator(testSecret, false)

	token, err := a.CreateToken("u1", domain.RoleOwner)
	if err != nil {
		t.Fatalf("CreateToken failed: %v", err)
	}

	// Login response sets the cookie.
	rec := httptest.NewRecorder()
	a.SetAuthCookie(rec, token)

	// The browser's next request carries it back.
	sess, err := a.GetSession(requestWithCookies(t, rec))
	if err != nil {
		t.Fatalf("GetSession failed after SetAuthCookie: %v", err)
	}
	if sess.UserID != "u1" || sess.Role != domain.RoleOwner {
		t.Errorf("unexpected session payload: %+v", sess)
	}

	// Logout clears the cookie; the successor request has no session.
	rec2 := httptest.NewRecorder()
	a.RemoveAuthCookie(rec2)

	req := httptest.NewRequest("GET", "/api/auth/me", nil)
	for _, c := range rec2.Result().Cookies() {
		if c.MaxAge > 0 {
			req.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
		}
	}
	if _, err := a.GetSession(req); err != ErrNoSession {
		t.Errorf("expected ErrNoSession after logout, got %v", err)
	}
}

func TestGetSession_NoCookie(t *testing.T) {
	a := NewAuthenticator(testSecret, false)

	req := httptest.NewRequest("GET", "/api/products", nil)
	if _, err := a.GetSession(req); err != ErrNoSession {
		t.Errorf("expected ErrNoSession without a cookie, got %v", err)
	}
}

func TestGetSession_InvalidCookie(t *testing.T) {
	a := NewAuthenticator(testSecret, false)

	req := httptest.NewRequest("GET", "/api/products", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "garbage"})
	if _, err := a.GetSession(req); err != ErrInvalidToken {
		t.Errorf("expected ErrInvalidToken for garbage cookie, got %v", err)
	}
}

func TestSetAuthCookie_Attributes(t *testing.T) {
	a := NewAuthenticator(testSecret, true)

	rec := httptest.NewRecorder()
	a.SetAuthCookie(rec, "some-token")

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected 1 cookie, got %d", len(cookies))
	}

	c := cookies[0]
	if c.Name != CookieName {
		t.Errorf("expected cookie name %q, got %q", CookieName, c.Name)
	}
	if !c.HttpOnly {
		t.Error("cookie must be HttpOnly")
	}
	if !c.Secure {
		t.Error("cookie must be Secure when the authenticator is secure")
	}
	if c.SameSite != http.SameSiteLaxMode {
		t.Errorf("expected SameSite=Lax, got %v", c.SameSite)
	}
	if c.Path != CookiePath {
		t.Errorf("expected path %q, got %q", CookiePath, c.Path)
	}
	if c.MaxAge != CookieMaxAge {
		t.Errorf("expected max age %d, got %d", CookieMaxAge, c.MaxAge)
	}
}

func TestRemoveAuthCookie_Idempotent(t *testing.T) {
	a := NewAuthenticator(testSecret, false)

	// Removing when no cookie was ever set must not panic or error, and
	// repeated removal behaves identically.
	rec := httptest.NewRecorder()
	a.RemoveAuthCookie(rec)
	a.RemoveAuthCookie(rec)

	for _, c := range rec.Result().Cookies() {
		if c.Name == CookieName && c.MaxAge >= 0 {
			t.Errorf("expected deletion cookie (MaxAge < 0), got %d", c.MaxAge)
		}
	}
}
