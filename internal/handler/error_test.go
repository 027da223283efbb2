package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/alamigestion/server/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// =============================================================================
// Error Response Tests - Security Focus
// =============================================================================

func TestErrorResponse_DoesNotExposeOperationName(t *testing.T) {
	// The operation name is for logs, never for clients.
	err := domain.Invalid("UserService.Register", "Email is required")

	req := httptest.NewRequest("POST", "/api/users", nil)
	rec := httptest.NewRecorder()
	ErrorResponse(rec, req, testLogger(), err)

	body := rec.Body.String()
	if strings.Contains(body, "UserService") {
		t.Errorf("response exposes internal operation name: %s", body)
	}
	if !strings.Contains(body, "Email is required") {
		t.Errorf("response should contain the user-facing message: %s", body)
	}
}

func TestErrorResponse_InternalHidesCause(t *testing.T) {
	cause := errors.New("pq: connection refused host=db.internal")
	err := domain.Internal(cause, "SaleService.Create", "Failed to record sale")

	req := httptest.NewRequest("POST", "/api/sales", nil)
	rec := httptest.NewRecorder()
	ErrorResponse(rec, req, testLogger(), err)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}

	body := rec.Body.String()
	if strings.Contains(body, "db.internal") || strings.Contains(body, "pq:") {
		t.Errorf("response leaks the underlying cause: %s", body)
	}
}

func TestErrorResponse_Envelope(t *testing.T) {
	err := domain.NotFound("ProductService.GetByID", "Product not found")

	req := httptest.NewRequest("GET", "/api/products/x", nil)
	rec := httptest.NewRecorder()
	ErrorResponse(rec, req, testLogger(), err)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	var body struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body.Error.Code != domain.ENOTFOUND {
		t.Errorf("code = %q, want %q", body.Error.Code, domain.ENOTFOUND)
	}
	if body.Error.Message != "Product not found" {
		t.Errorf("message = %q", body.Error.Message)
	}
}

// =============================================================================
// Status Mapping Tests
// =============================================================================

func TestErrorCodeToHTTPStatus(t *testing.T) {
	testCases := []struct {
		code string
		want int
	}{
		{domain.EINVALID, http.StatusBadRequest},
		{domain.EUNAUTHORIZED, http.StatusUnauthorized},
		{domain.EFORBIDDEN, http.StatusForbidden},
		{domain.ENOTFOUND, http.StatusNotFound},
		{domain.ECONFLICT, http.StatusConflict},
		{domain.ERATELIMIT, http.StatusTooManyRequests},
		{domain.EINTERNAL, http.StatusInternalServerError},
		{"SOMETHING_NEW", http.StatusInternalServerError},
	}

	for _, tc := range testCases {
		if got := ErrorCodeToHTTPStatus(tc.code); got != tc.want {
			t.Errorf("ErrorCodeToHTTPStatus(%q) = %d, want %d", tc.code, got, tc.want)
		}
	}
}

// =============================================================================
// JSON Decoding Tests
// =============================================================================

func TestDecodeJSON_UnknownField(t *testing.T) {
	req := httptest.NewRequest("POST", "/api/customers", strings.NewReader(`{"name":"Amina","surprise":true}`))
	rec := httptest.NewRecorder()

	var dst struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(rec, req, &dst); err == nil {
		t.Error("unknown fields should be rejected")
	}
}

func TestDecodeJSON_TrailingGarbage(t *testing.T) {
	req := httptest.NewRequest("POST", "/api/customers", strings.NewReader(`{"name":"Amina"}{"name":"again"}`))
	rec := httptest.NewRecorder()

	var dst struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(rec, req, &dst); err == nil {
		t.Error("trailing JSON values should be rejected")
	}
}

func TestDecodeJSON_ValidBody(t *testing.T) {
	req := httptest.NewRequest("POST", "/api/customers", strings.NewReader(`{"name":"Amina"}`))
	rec := httptest.NewRecorder()

	var dst struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(rec, req, &dst); err != nil {
		t.Fatalf("decodeJSON: %v", err)
	}
	if dst.Name != "Amina" {
		t.Errorf("Name = %q", dst.Name)
	}
}
