package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/alamigestion/server/internal/auth"
	"github.com/alamigestion/server/internal/domain"
	"github.com/alamigestion/server/internal/numtext"
	"github.com/alamigestion/server/internal/service"
	"github.com/google/uuid"
)

// SaleHandler handles sale recording and history.
//
// Routes:
// - POST /api/sales
// - GET  /api/sales
// - GET  /api/sales/{id}
type SaleHandler struct {
	sales  service.SaleService
	logger *slog.Logger
}

// NewSaleHandler creates a new SaleHandler instance.
func NewSaleHandler(sales service.SaleService, logger *slog.Logger) *SaleHandler {
	return &SaleHandler{sales: sales, logger: logger}
}

type saleItemRequest struct {
	ProductID uuid.UUID `json:"productId"`
	Quantity  int       `json:"quantity"`
}

type createSaleRequest struct {
	CustomerID    *uuid.UUID        `json:"customerId"`
	PaymentMethod string            `json:"paymentMethod"`
	Items         []saleItemRequest `json:"items"`
}

type saleItemResponse struct {
	ProductID uuid.UUID `json:"productId"`
	Name      string    `json:"name"`
	Quantity  int       `json:"quantity"`
	UnitPrice int64     `json:"unitPrice"`
	LineTotal int64     `json:"lineTotal"`
}

type saleResponse struct {
	ID             uuid.UUID          `json:"id"`
	Number         string             `json:"number"`
	SellerID       uuid.UUID          `json:"sellerId"`
	CustomerID     *uuid.UUID         `json:"customerId,omitempty"`
	PaymentMethod  string             `json:"paymentMethod"`
	Total          int64              `json:"total"`
	TotalFormatted string             `json:"totalFormatted"`
	Items          []saleItemResponse `json:"items,omitempty"`
	CreatedAt      time.Time          `json:"createdAt"`
}

func toSaleResponse(s *domain.Sale) saleResponse {
	items := make([]saleItemResponse, 0, len(s.Items))
	for i := range s.Items {
		it := &s.Items[i]
		items = append(items, saleItemResponse{
			ProductID: it.ProductID,
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			LineTotal: it.LineTotal(),
		})
	}
	return saleResponse{
		ID:             s.ID,
		Number:         s.Number,
		SellerID:       s.SellerID,
		CustomerID:     s.CustomerID,
		PaymentMethod:  string(s.PaymentMethod),
		Total:          s.Total,
		TotalFormatted: numtext.FormatAmount(s.Total),
		Items:          items,
		CreatedAt:      s.CreatedAt,
	}
}

// Create records a new sale on behalf of the authenticated seller.
func (h *SaleHandler) Create(w http.ResponseWriter, r *http.Request) {
	seller := auth.GetUser(r.Context())
	if seller == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	var req createSaleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	items := make([]domain.SaleItemParams, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, domain.SaleItemParams{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
		})
	}

	sale, err := h.sales.Create(r.Context(), domain.SaleParams{
		SellerID:      seller.ID,
		CustomerID:    req.CustomerID,
		PaymentMethod: domain.PaymentMethod(req.PaymentMethod),
		Items:         items,
	})
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, toSaleResponse(sale))
}

func (h *SaleHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	sale, err := h.sales.GetByID(r.Context(), id)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, toSaleResponse(sale))
}

// List returns recent sales. Supports ?limit= and ?offset= query
// parameters; the service applies its own defaults and cap.
func (h *SaleHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 0)
	offset := queryInt(r, "offset", 0)

	sales, err := h.sales.List(r.Context(), limit, offset)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	resp := make([]saleResponse, 0, len(sales))
	for _, s := range sales {
		resp = append(resp, toSaleResponse(s))
	}
	respondJSON(w, http.StatusOK, resp)
}

// queryInt parses an integer query parameter, falling back to def when
// absent or malformed.
func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
