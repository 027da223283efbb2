package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/alamigestion/server/internal/auth"
	"github.com/alamigestion/server/internal/domain"
	"github.com/alamigestion/server/internal/numtext"
	"github.com/alamigestion/server/internal/service"
	"github.com/google/uuid"
)

// DocumentHandler handles invoices and quotes.
//
// Routes:
// - POST  /api/sales/{id}/invoice
// - GET   /api/invoices
// - GET   /api/invoices/{id}
// - POST  /api/quotes
// - GET   /api/quotes
// - GET   /api/quotes/{id}
// - PATCH /api/quotes/{id}/status
// - POST  /api/quotes/{id}/convert
type DocumentHandler struct {
	documents service.DocumentService
	logger    *slog.Logger
}

// NewDocumentHandler creates a new DocumentHandler instance.
func NewDocumentHandler(documents service.DocumentService, logger *slog.Logger) *DocumentHandler {
	return &DocumentHandler{documents: documents, logger: logger}
}

type invoiceResponse struct {
	ID             uuid.UUID  `json:"id"`
	Number         string     `json:"number"`
	SaleID         uuid.UUID  `json:"saleId"`
	CustomerID     *uuid.UUID `json:"customerId,omitempty"`
	Total          int64      `json:"total"`
	TotalFormatted string     `json:"totalFormatted"`
	TotalInWords   string     `json:"totalInWords"`
	IssuedAt       time.Time  `json:"issuedAt"`
	CreatedAt      time.Time  `json:"createdAt"`
}

func toInvoiceResponse(inv *domain.Invoice) invoiceResponse {
	return invoiceResponse{
		ID:             inv.ID,
		Number:         inv.Number,
		SaleID:         inv.SaleID,
		CustomerID:     inv.CustomerID,
		Total:          inv.Total,
		TotalFormatted: numtext.FormatAmount(inv.Total),
		TotalInWords:   inv.TotalInWords,
		IssuedAt:       inv.IssuedAt,
		CreatedAt:      inv.CreatedAt,
	}
}

// GenerateInvoice creates (or returns) the invoice for a sale.
func (h *DocumentHandler) GenerateInvoice(w http.ResponseWriter, r *http.Request) {
	saleID, err := pathUUID(r, "id")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	invoice, err := h.documents.GenerateInvoice(r.Context(), saleID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, toInvoiceResponse(invoice))
}

func (h *DocumentHandler) GetInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	invoice, err := h.documents.GetInvoice(r.Context(), id)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, toInvoiceResponse(invoice))
}

func (h *DocumentHandler) ListInvoices(w http.ResponseWriter, r *http.Request) {
	invoices, err := h.documents.ListInvoices(r.Context())
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	resp := make([]invoiceResponse, 0, len(invoices))
	for _, inv := range invoices {
		resp = append(resp, toInvoiceResponse(inv))
	}
	respondJSON(w, http.StatusOK, resp)
}

type quoteItemRequest struct {
	ProductID uuid.UUID `json:"productId"`
	Quantity  int       `json:"quantity"`
}

type createQuoteRequest struct {
	CustomerID uuid.UUID          `json:"customerId"`
	ValidUntil time.Time          `json:"validUntil"`
	Items      []quoteItemRequest `json:"items"`
}

type quoteItemResponse struct {
	ProductID uuid.UUID `json:"productId"`
	Name      string    `json:"name"`
	Quantity  int       `json:"quantity"`
	UnitPrice int64     `json:"unitPrice"`
	LineTotal int64     `json:"lineTotal"`
}

type quoteResponse struct {
	ID             uuid.UUID           `json:"id"`
	Number         string              `json:"number"`
	CustomerID     uuid.UUID           `json:"customerId"`
	Status         string              `json:"status"`
	Total          int64               `json:"total"`
	TotalFormatted string              `json:"totalFormatted"`
	ValidUntil     time.Time           `json:"validUntil"`
	Items          []quoteItemResponse `json:"items,omitempty"`
	CreatedAt      time.Time           `json:"createdAt"`
}

func toQuoteResponse(q *domain.Quote) quoteResponse {
	items := make([]quoteItemResponse, 0, len(q.Items))
	for i := range q.Items {
		it := &q.Items[i]
		items = append(items, quoteItemResponse{
			ProductID: it.ProductID,
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			LineTotal: it.LineTotal(),
		})
	}
	return quoteResponse{
		ID:             q.ID,
		Number:         q.Number,
		CustomerID:     q.CustomerID,
		Status:         string(q.Status),
		Total:          q.Total,
		TotalFormatted: numtext.FormatAmount(q.Total),
		ValidUntil:     q.ValidUntil,
		Items:          items,
		CreatedAt:      q.CreatedAt,
	}
}

func (h *DocumentHandler) CreateQuote(w http.ResponseWriter, r *http.Request) {
	var req createQuoteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	items := make([]domain.QuoteItemParams, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, domain.QuoteItemParams{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
		})
	}

	quote, err := h.documents.CreateQuote(r.Context(), domain.QuoteParams{
		CustomerID: req.CustomerID,
		ValidUntil: req.ValidUntil,
		Items:      items,
	})
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, toQuoteResponse(quote))
}

func (h *DocumentHandler) GetQuote(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	quote, err := h.documents.GetQuote(r.Context(), id)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, toQuoteResponse(quote))
}

func (h *DocumentHandler) ListQuotes(w http.ResponseWriter, r *http.Request) {
	quotes, err := h.documents.ListQuotes(r.Context())
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	resp := make([]quoteResponse, 0, len(quotes))
	for _, q := range quotes {
		resp = append(resp, toQuoteResponse(q))
	}
	respondJSON(w, http.StatusOK, resp)
}

type quoteStatusRequest struct {
	Status string `json:"status"`
}

// UpdateQuoteStatus moves a quote along its lifecycle.
func (h *DocumentHandler) UpdateQuoteStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	var req quoteStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	quote, err := h.documents.UpdateQuoteStatus(r.Context(), id, domain.QuoteStatus(req.Status))
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, toQuoteResponse(quote))
}

type convertQuoteRequest struct {
	PaymentMethod string `json:"paymentMethod"`
}

// ConvertQuote turns a quote into a sale at the quoted prices.
func (h *DocumentHandler) ConvertQuote(w http.ResponseWriter, r *http.Request) {
	seller := auth.GetUser(r.Context())
	if seller == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	id, err := pathUUID(r, "id")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	var req convertQuoteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	sale, err := h.documents.ConvertQuote(r.Context(), id, seller.ID, domain.PaymentMethod(req.PaymentMethod))
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, toSaleResponse(sale))
}
