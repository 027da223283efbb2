// Package auth implements session authentication for the application.
//
// A session is a stateless, signed credential: an HS256 JWT carrying the
// user ID and role, stored client-side in an HTTP-only cookie. There is no
// server-side session store — verification is a pure function of
// (token, secret, clock) — and no revocation list: an issued token remains
// honorable until it expires. Rotating the signing secret invalidates every
// outstanding session at once.
package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/alamigestion/server/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	// CookieName is the name of the cookie that carries the session token.
	CookieName = "auth-token"

	// CookiePath ensures the cookie is sent with all requests.
	CookiePath = "/"

	// TokenDuration is how long a session token remains valid.
	TokenDuration = 7 * 24 * time.Hour

	// CookieMaxAge mirrors TokenDuration (7 days = 604800 seconds).
	CookieMaxAge = int(TokenDuration / time.Second)

	// BcryptCost is the cost factor for password hashing.
	BcryptCost = 10
)

var (
	// ErrInvalidToken is returned for any token that fails verification:
	// malformed, tampered, wrong algorithm, or expired. The failure modes
	// are deliberately not distinguished — callers only need to know that
	// no session exists.
	ErrInvalidToken = errors.New("auth: invalid token")

	// ErrNoSession is returned by GetSession when the request carries no
	// session cookie at all. Verification is skipped in that case.
	ErrNoSession = errors.New("auth: no session")
)

// Session is the verified payload of a session token.
type Session struct {
	UserID string
	Role   domain.Role
}

// sessionClaims is the JWT claim set for a session token.
//
// The payload is tamper-evident but not encrypted: nothing beyond the user
// ID and role may be placed here.
type sessionClaims struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Authenticator issues and verifies session tokens and manages their
// cookie binding.
//
// The signing secret is injected at construction and never rewritten, so
// concurrent use needs no synchronization.
type Authenticator struct {
	secret   []byte
	isSecure bool // Whether to set the Secure flag on cookies (true in production)
	now      func() time.Time
}

// NewAuthenticator creates an Authenticator with the given signing secret.
//
// Set isSecure in production so the session cookie is only sent over HTTPS.
func NewAuthenticator(secret string, isSecure bool) *Authenticator {
	return &Authenticator{
		secret:   []byte(secret),
		isSecure: isSecure,
		now:      time.Now,
	}
}

// HashPassword hashes a plaintext password with bcrypt.
//
// The salt differs per call, so hashing the same password twice yields two
// different digests; use VerifyPassword to check equivalence.
func (a *Authenticator) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword compares a candidate password against a stored digest.
//
// Returns nil iff they match. The comparison runs in time independent of
// where a mismatch occurs. A malformed digest surfaces the bcrypt error;
// callers treat any non-nil result as "authentication failed".
func (a *Authenticator) VerifyPassword(password, digest string) error {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(password))
}

// CreateToken builds and signs a session token for the given user.
//
// No credential validation happens here — callers must have already
// authenticated the user. The token expires TokenDuration after issuance.
func (a *Authenticator) CreateToken(userID string, role domain.Role) (string, error) {
	now := a.now()
	claims := sessionClaims{
		UserID: userID,
		Role:   string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenDuration)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// VerifyToken checks a serialized token against the signing secret and
// expiration policy.
//
// The check is a single AND-gate: valid signature, not expired, well-formed
// payload. Any failure collapses into ErrInvalidToken; no parser detail
// leaks to the caller.
func (a *Authenticator) VerifyToken(token string) (*Session, error) {
	parsed, err := jwt.ParseWithClaims(token, &sessionClaims{},
		func(t *jwt.Token) (interface{}, error) {
			return a.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*sessionClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	role := domain.Role(claims.Role)
	if claims.UserID == "" || !role.Valid() {
		return nil, ErrInvalidToken
	}

	return &Session{UserID: claims.UserID, Role: role}, nil
}

// GetSession extracts and verifies the session carried by the request.
//
// This is the single choke point through which every protected route
// establishes caller identity. A missing cookie short-circuits to
// ErrNoSession without attempting cryptographic verification; a present
// but unverifiable cookie yields ErrInvalidToken.
func (a *Authenticator) GetSession(r *http.Request) (*Session, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return nil, ErrNoSession
	}
	return a.VerifyToken(cookie.Value)
}

// SetAuthCookie writes the session token into the auth cookie.
//
// Cookie settings:
// - HttpOnly: true - inaccessible to page scripts (XSS protection)
// - SameSite: Lax - blocks cross-site POSTs while allowing navigation
// - Secure: set in production (HTTPS only)
// - Path: / and Max-Age matching the token's 7-day validity
//
// Overwrites any prior cookie value. Intended to be called once, at login.
func (a *Authenticator) SetAuthCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     CookiePath,
		MaxAge:   CookieMaxAge,
		HttpOnly: true,
		Secure:   a.isSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// RemoveAuthCookie deletes the auth cookie by expiring it immediately.
//
// Idempotent: deleting an absent cookie is not an error.
func (a *Authenticator) RemoveAuthCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     CookiePath,
		MaxAge:   -1, // Delete immediately
		HttpOnly: true,
		Secure:   a.isSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
