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

// CustomerHandler handles customer CRUD and credit payments.
//
// Routes:
// - POST   /api/customers
// - GET    /api/customers
// - GET    /api/customers/{id}
// - PUT    /api/customers/{id}
// - DELETE /api/customers/{id}
// - POST   /api/customers/{id}/payments
type CustomerHandler struct {
	customers service.CustomerService
	logger    *slog.Logger
}

// NewCustomerHandler creates a new CustomerHandler instance.
func NewCustomerHandler(customers service.CustomerService, logger *slog.Logger) *CustomerHandler {
	return &CustomerHandler{customers: customers, logger: logger}
}

type customerRequest struct {
	Name        string `json:"name"`
	Company     string `json:"company"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
	Address     string `json:"address"`
	CreditLimit int64  `json:"creditLimit"`
}

func (req *customerRequest) toParams() domain.CustomerParams {
	return domain.CustomerParams{
		Name:        req.Name,
		Company:     req.Company,
		Phone:       req.Phone,
		Email:       req.Email,
		Address:     req.Address,
		CreditLimit: req.CreditLimit,
	}
}

type customerResponse struct {
	ID               uuid.UUID `json:"id"`
	Name             string    `json:"name"`
	Company          string    `json:"company,omitempty"`
	Phone            string    `json:"phone,omitempty"`
	Email            string    `json:"email,omitempty"`
	Address          string    `json:"address,omitempty"`
	CreditLimit      int64     `json:"creditLimit"`
	CreditUsed       int64     `json:"creditUsed"`
	CreditAvailable  int64     `json:"creditAvailable"`
	CreditUsedAmount string    `json:"creditUsedFormatted"`
	CreatedAt        time.Time `json:"createdAt"`
}

func toCustomerResponse(c *domain.Customer) customerResponse {
	return customerResponse{
		ID:               c.ID,
		Name:             c.Name,
		Company:          c.Company,
		Phone:            c.Phone,
		Email:            c.Email,
		Address:          c.Address,
		CreditLimit:      c.CreditLimit,
		CreditUsed:       c.CreditUsed,
		CreditAvailable:  c.CreditAvailable(),
		CreditUsedAmount: numtext.FormatAmount(c.CreditUsed),
		CreatedAt:        c.CreatedAt,
	}
}

func (h *CustomerHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req customerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	customer, err := h.customers.Create(r.Context(), req.toParams())
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, toCustomerResponse(customer))
}

func (h *CustomerHandler) List(w http.ResponseWriter, r *http.Request) {
	customers, err := h.customers.List(r.Context())
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	resp := make([]customerResponse, 0, len(customers))
	for _, c := range customers {
		resp = append(resp, toCustomerResponse(c))
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *CustomerHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	customer, err := h.customers.GetByID(r.Context(), id)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, toCustomerResponse(customer))
}

func (h *CustomerHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	var req customerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	customer, err := h.customers.Update(r.Context(), id, req.toParams())
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, toCustomerResponse(customer))
}

func (h *CustomerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	if err := h.customers.Delete(r.Context(), id); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

type creditPaymentRequest struct {
	Amount int64 `json:"amount"`
}

// RecordPayment registers a payment against the customer's credit balance.
func (h *CustomerHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	var req creditPaymentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	customer, err := h.customers.RecordCreditPayment(r.Context(), id, req.Amount)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, toCustomerResponse(customer))
}
