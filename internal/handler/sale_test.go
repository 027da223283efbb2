package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alamigestion/server/internal/auth"
	"github.com/alamigestion/server/internal/domain"
	"github.com/google/uuid"
)

// mockSaleService implements service.SaleService for handler tests.
type mockSaleService struct {
	CreateFunc func(ctx context.Context, params domain.SaleParams) (*domain.Sale, error)
	GetFunc    func(ctx context.Context, id uuid.UUID) (*domain.Sale, error)
	ListFunc   func(ctx context.Context, limit, offset int) ([]*domain.Sale, error)
}

func (m *mockSaleService) Create(ctx context.Context, params domain.SaleParams) (*domain.Sale, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, params)
	}
	return nil, errors.New("not implemented")
}

func (m *mockSaleService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Sale, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return nil, errors.New("not implemented")
}

func (m *mockSaleService) List(ctx context.Context, limit, offset int) ([]*domain.Sale, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	return nil, errors.New("not implemented")
}

func authenticatedRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	user := &domain.User{ID: uuid.New(), Role: domain.RoleSeller, Active: true}
	return req.WithContext(auth.SetUser(req.Context(), user))
}

func TestSaleCreate_SellerComesFromSession(t *testing.T) {
	productID := uuid.New()
	var gotParams domain.SaleParams

	sales := &mockSaleService{
		CreateFunc: func(ctx context.Context, params domain.SaleParams) (*domain.Sale, error) {
			gotParams = params
			return &domain.Sale{
				ID:            uuid.New(),
				Number:        "VNT-000001",
				SellerID:      params.SellerID,
				PaymentMethod: params.PaymentMethod,
				Total:         3000,
				Items: []domain.SaleItem{
					{ProductID: productID, Name: "Clavier", Quantity: 2, UnitPrice: 1500},
				},
				CreatedAt: time.Now(),
			}, nil
		},
	}
	h := NewSaleHandler(sales, testLogger())

	body := `{"paymentMethod":"CASH","items":[{"productId":"` + productID.String() + `","quantity":2}]}`
	req := authenticatedRequest("POST", "/api/sales", body)
	rec := httptest.NewRecorder()
	h.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	if gotParams.SellerID != auth.GetUser(req.Context()).ID {
		t.Error("seller ID should come from the session, not the body")
	}
	if len(gotParams.Items) != 1 || gotParams.Items[0].Quantity != 2 {
		t.Errorf("items not forwarded: %+v", gotParams.Items)
	}

	var resp struct {
		Number         string `json:"number"`
		TotalFormatted string `json:"totalFormatted"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Number != "VNT-000001" {
		t.Errorf("number = %q", resp.Number)
	}
	if resp.TotalFormatted == "" {
		t.Error("expected a formatted total in the response")
	}
}

func TestSaleCreate_Unauthenticated(t *testing.T) {
	h := NewSaleHandler(&mockSaleService{}, testLogger())

	req := httptest.NewRequest("POST", "/api/sales", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	h.Create(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestSaleCreate_ServiceErrorMapped(t *testing.T) {
	sales := &mockSaleService{
		CreateFunc: func(ctx context.Context, params domain.SaleParams) (*domain.Sale, error) {
			return nil, domain.Invalid("SaleService.Create", "Insufficient stock for KB-01")
		},
	}
	h := NewSaleHandler(sales, testLogger())

	body := `{"paymentMethod":"CASH","items":[{"productId":"` + uuid.NewString() + `","quantity":99}]}`
	rec := httptest.NewRecorder()
	h.Create(rec, authenticatedRequest("POST", "/api/sales", body))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Insufficient stock") {
		t.Errorf("expected the stock message in the body: %s", rec.Body.String())
	}
}

func TestSaleList_PaginationForwarded(t *testing.T) {
	var gotLimit, gotOffset int
	sales := &mockSaleService{
		ListFunc: func(ctx context.Context, limit, offset int) ([]*domain.Sale, error) {
			gotLimit, gotOffset = limit, offset
			return nil, nil
		},
	}
	h := NewSaleHandler(sales, testLogger())

	rec := httptest.NewRecorder()
	h.List(rec, authenticatedRequest("GET", "/api/sales?limit=25&offset=50", ""))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if gotLimit != 25 || gotOffset != 50 {
		t.Errorf("limit/offset = %d/%d, want 25/50", gotLimit, gotOffset)
	}

	// An empty result still encodes as [] rather than null.
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("empty list body = %q, want []", rec.Body.String())
	}
}
