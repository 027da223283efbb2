package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/alamigestion/server/internal/domain"
	"github.com/alamigestion/server/internal/numtext"
	"github.com/alamigestion/server/internal/service"
	"github.com/google/uuid"
)

// SupplierHandler handles supplier records and their payment ledger.
//
// Routes:
// - POST /api/suppliers
// - GET  /api/suppliers
// - GET  /api/suppliers/{id}
// - PUT  /api/suppliers/{id}
// - DELETE /api/suppliers/{id}
// - POST /api/suppliers/{id}/debts
// - POST /api/suppliers/{id}/payments
// - GET  /api/suppliers/{id}/payments
type SupplierHandler struct {
	suppliers service.SupplierService
	logger    *slog.Logger
}

// NewSupplierHandler creates a new SupplierHandler instance.
func NewSupplierHandler(suppliers service.SupplierService, logger *slog.Logger) *SupplierHandler {
	return &SupplierHandler{suppliers: suppliers, logger: logger}
}

type supplierRequest struct {
	Name    string `json:"name"`
	Company string `json:"company"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Address string `json:"address"`

	// OpeningOwed seeds the balance when migrating an existing supplier
	// relationship. Ignored on update.
	OpeningOwed int64 `json:"openingOwed"`
}

func (req *supplierRequest) toParams() domain.SupplierParams {
	return domain.SupplierParams{
		Name:    req.Name,
		Company: req.Company,
		Phone:   req.Phone,
		Email:   req.Email,
		Address: req.Address,
	}
}

type supplierResponse struct {
	ID               uuid.UUID `json:"id"`
	Name             string    `json:"name"`
	Company          string    `json:"company,omitempty"`
	Phone            string    `json:"phone,omitempty"`
	Email            string    `json:"email,omitempty"`
	Address          string    `json:"address,omitempty"`
	TotalOwed        int64     `json:"totalOwed"`
	TotalPaid        int64     `json:"totalPaid"`
	Balance          int64     `json:"balance"`
	BalanceFormatted string    `json:"balanceFormatted"`
	CreatedAt        time.Time `json:"createdAt"`
}

func toSupplierResponse(s *domain.Supplier) supplierResponse {
	return supplierResponse{
		ID:               s.ID,
		Name:             s.Name,
		Company:          s.Company,
		Phone:            s.Phone,
		Email:            s.Email,
		Address:          s.Address,
		TotalOwed:        s.TotalOwed,
		TotalPaid:        s.TotalPaid,
		Balance:          s.Balance(),
		BalanceFormatted: numtext.FormatAmount(s.Balance()),
		CreatedAt:        s.CreatedAt,
	}
}

func (h *SupplierHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req supplierRequest
	if err := decodeJSON(w, r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	supplier, err := h.suppliers.Create(r.Context(), req.toParams(), req.OpeningOwed)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, toSupplierResponse(supplier))
}

func (h *SupplierHandler) List(w http.ResponseWriter, r *http.Request) {
	suppliers, err := h.suppliers.List(r.Context())
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	resp := make([]supplierResponse, 0, len(suppliers))
	for _, s := range suppliers {
		resp = append(resp, toSupplierResponse(s))
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *SupplierHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	supplier, err := h.suppliers.GetByID(r.Context(), id)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, toSupplierResponse(supplier))
}

func (h *SupplierHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	var req supplierRequest
	if err := decodeJSON(w, r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	supplier, err := h.suppliers.Update(r.Context(), id, req.toParams())
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, toSupplierResponse(supplier))
}

func (h *SupplierHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	if err := h.suppliers.Delete(r.Context(), id); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

type supplierDebtRequest struct {
	Amount int64 `json:"amount"`
}

// AddDebt registers a purchase invoice from the supplier.
func (h *SupplierHandler) AddDebt(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	var req supplierDebtRequest
	if err := decodeJSON(w, r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	supplier, err := h.suppliers.AddDebt(r.Context(), id, req.Amount)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, toSupplierResponse(supplier))
}

type supplierPaymentRequest struct {
	Amount int64     `json:"amount"`
	Method string    `json:"method"`
	Note   string    `json:"note"`
	PaidAt time.Time `json:"paidAt"`
}

type supplierPaymentResponse struct {
	ID              uuid.UUID `json:"id"`
	SupplierID      uuid.UUID `json:"supplierId"`
	Amount          int64     `json:"amount"`
	AmountFormatted string    `json:"amountFormatted"`
	Method          string    `json:"method"`
	Note            string    `json:"note,omitempty"`
	PaidAt          time.Time `json:"paidAt"`
	CreatedAt       time.Time `json:"createdAt"`
}

func toSupplierPaymentResponse(p *domain.SupplierPayment) supplierPaymentResponse {
	return supplierPaymentResponse{
		ID:              p.ID,
		SupplierID:      p.SupplierID,
		Amount:          p.Amount,
		AmountFormatted: numtext.FormatAmount(p.Amount),
		Method:          string(p.Method),
		Note:            p.Note,
		PaidAt:          p.PaidAt,
		CreatedAt:       p.CreatedAt,
	}
}

// RecordPayment registers a payment made to the supplier.
func (h *SupplierHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	var req supplierPaymentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	payment, err := h.suppliers.RecordPayment(r.Context(), domain.SupplierPaymentParams{
		SupplierID: id,
		Amount:     req.Amount,
		Method:     domain.PaymentMethod(req.Method),
		Note:       req.Note,
		PaidAt:     req.PaidAt,
	})
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, toSupplierPaymentResponse(payment))
}

// ListPayments returns the supplier's payment history, newest first.
func (h *SupplierHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	payments, err := h.suppliers.ListPayments(r.Context(), id)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	resp := make([]supplierPaymentResponse, 0, len(payments))
	for _, p := range payments {
		resp = append(resp, toSupplierPaymentResponse(p))
	}
	respondJSON(w, http.StatusOK, resp)
}
