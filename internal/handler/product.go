package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/alamigestion/server/internal/domain"
	"github.com/alamigestion/server/internal/numtext"
	"github.com/alamigestion/server/internal/service"
	"github.com/alamigestion/server/internal/storage"
	"github.com/google/uuid"
)

// ProductHandler handles catalog CRUD and product images.
//
// Routes:
// - POST   /api/products
// - GET    /api/products
// - GET    /api/products/low-stock
// - GET    /api/products/{id}
// - PUT    /api/products/{id}
// - DELETE /api/products/{id}
// - POST   /api/products/{id}/image
// - GET    /api/products/{id}/image
type ProductHandler struct {
	products service.ProductService
	logger   *slog.Logger
}

// NewProductHandler creates a new ProductHandler instance.
func NewProductHandler(products service.ProductService, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{products: products, logger: logger}
}

type productRequest struct {
	SKU           string `json:"sku"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	PurchasePrice int64  `json:"purchasePrice"`
	SalePrice     int64  `json:"salePrice"`
	Stock         int    `json:"stock"`
	MinStock      int    `json:"minStock"`
}

func (req *productRequest) toParams() domain.ProductParams {
	return domain.ProductParams{
		SKU:           req.SKU,
		Name:          req.Name,
		Description:   req.Description,
		PurchasePrice: req.PurchasePrice,
		SalePrice:     req.SalePrice,
		Stock:         req.Stock,
		MinStock:      req.MinStock,
	}
}

type productResponse struct {
	ID                 uuid.UUID `json:"id"`
	SKU                string    `json:"sku"`
	Name               string    `json:"name"`
	Description        string    `json:"description,omitempty"`
	PurchasePrice      int64     `json:"purchasePrice"`
	SalePrice          int64     `json:"salePrice"`
	SalePriceFormatted string    `json:"salePriceFormatted"`
	Stock              int       `json:"stock"`
	MinStock           int       `json:"minStock"`
	LowStock           bool      `json:"lowStock"`
	HasImage           bool      `json:"hasImage"`
	CreatedAt          time.Time `json:"createdAt"`
}

func toProductResponse(p *domain.Product) productResponse {
	return productResponse{
		ID:                 p.ID,
		SKU:                p.SKU,
		Name:               p.Name,
		Description:        p.Description,
		PurchasePrice:      p.PurchasePrice,
		SalePrice:          p.SalePrice,
		SalePriceFormatted: numtext.FormatAmount(p.SalePrice),
		Stock:              p.Stock,
		MinStock:           p.MinStock,
		LowStock:           p.LowStock(),
		HasImage:           p.ImageKey != "",
		CreatedAt:          p.CreatedAt,
	}
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := decodeJSON(w, r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	product, err := h.products.Create(r.Context(), req.toParams())
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, toProductResponse(product))
}

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.List(r.Context())
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	resp := make([]productResponse, 0, len(products))
	for _, p := range products {
		resp = append(resp, toProductResponse(p))
	}
	respondJSON(w, http.StatusOK, resp)
}

// ListLowStock returns products at or below their restock threshold.
func (h *ProductHandler) ListLowStock(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.ListLowStock(r.Context())
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	resp := make([]productResponse, 0, len(products))
	for _, p := range products {
		resp = append(resp, toProductResponse(p))
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	product, err := h.products.GetByID(r.Context(), id)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, toProductResponse(product))
}

func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	var req productRequest
	if err := decodeJSON(w, r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	product, err := h.products.Update(r.Context(), id, req.toParams())
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, toProductResponse(product))
}

func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	if err := h.products.Delete(r.Context(), id); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

// UploadImage accepts a multipart form with a "image" file field.
func (h *ProductHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	if err := r.ParseMultipartForm(service.MaxImageSize); err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("", "Invalid multipart form"))
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("", "Missing image file field"))
		return
	}
	defer file.Close()

	contentType := storage.DetectContentType(header.Header.Get("Content-Type"), header.Filename, nil)

	product, err := h.products.UploadImage(r.Context(), id, file, contentType)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, toProductResponse(product))
}

// ImageURLs returns access URLs for the product's photo and thumbnail.
func (h *ProductHandler) ImageURLs(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	original, thumbnail, err := h.products.ImageURLs(r.Context(), id)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"imageUrl":     original,
		"thumbnailUrl": thumbnail,
	})
}
