package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alamigestion/server/internal/domain"
	"github.com/google/uuid"
)

// mockSupplierService implements service.SupplierService for handler tests.
type mockSupplierService struct {
	DeleteFunc func(ctx context.Context, id uuid.UUID) error
}

func (m *mockSupplierService) Create(ctx context.Context, params domain.SupplierParams, openingOwed int64) (*domain.Supplier, error) {
	return nil, errors.New("not implemented")
}

func (m *mockSupplierService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Supplier, error) {
	return nil, errors.New("not implemented")
}

func (m *mockSupplierService) List(ctx context.Context) ([]*domain.Supplier, error) {
	return nil, errors.New("not implemented")
}

func (m *mockSupplierService) Update(ctx context.Context, id uuid.UUID, params domain.SupplierParams) (*domain.Supplier, error) {
	return nil, errors.New("not implemented")
}

func (m *mockSupplierService) Delete(ctx context.Context, id uuid.UUID) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return errors.New("not implemented")
}

func (m *mockSupplierService) AddDebt(ctx context.Context, id uuid.UUID, amount int64) (*domain.Supplier, error) {
	return nil, errors.New("not implemented")
}

func (m *mockSupplierService) RecordPayment(ctx context.Context, params domain.SupplierPaymentParams) (*domain.SupplierPayment, error) {
	return nil, errors.New("not implemented")
}

func (m *mockSupplierService) ListPayments(ctx context.Context, supplierID uuid.UUID) ([]*domain.SupplierPayment, error) {
	return nil, errors.New("not implemented")
}

func TestSupplierDelete(t *testing.T) {
	supplierID := uuid.New()
	var gotID uuid.UUID
	suppliers := &mockSupplierService{
		DeleteFunc: func(ctx context.Context, id uuid.UUID) error {
			gotID = id
			return nil
		},
	}
	h := NewSupplierHandler(suppliers, testLogger())

	req := httptest.NewRequest("DELETE", "/api/suppliers/"+supplierID.String(), nil)
	req.SetPathValue("id", supplierID.String())
	rec := httptest.NewRecorder()
	h.Delete(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204: %s", rec.Code, rec.Body.String())
	}
	if gotID != supplierID {
		t.Errorf("deleted %s, want %s", gotID, supplierID)
	}
}

func TestSupplierDelete_BadID(t *testing.T) {
	h := NewSupplierHandler(&mockSupplierService{
		DeleteFunc: func(ctx context.Context, id uuid.UUID) error {
			t.Error("service should not be called for a malformed ID")
			return nil
		},
	}, testLogger())

	req := httptest.NewRequest("DELETE", "/api/suppliers/not-a-uuid", nil)
	req.SetPathValue("id", "not-a-uuid")
	rec := httptest.NewRecorder()
	h.Delete(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
