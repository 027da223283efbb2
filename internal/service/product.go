package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/alamigestion/server/internal/domain"
	"github.com/alamigestion/server/internal/metrics"
	"github.com/alamigestion/server/internal/repository"
	"github.com/alamigestion/server/internal/storage"
	"github.com/google/uuid"
)

const (
	// MaxImageSize caps product photo uploads at 10 MB.
	MaxImageSize = 10 << 20

	// imageURLTTL is how long presigned image URLs remain valid.
	imageURLTTL = 1 * time.Hour
)

// ProductService defines the interface for catalog operations.
type ProductService interface {
	// Create adds a product to the catalog.
	// Returns domain.ECONFLICT if the SKU is already taken.
	Create(ctx context.Context, params domain.ProductParams) (*domain.Product, error)

	// GetByID retrieves a product by ID.
	// Returns domain.ENOTFOUND if the product does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)

	// List returns all products ordered by name.
	List(ctx context.Context) ([]*domain.Product, error)

	// ListLowStock returns products at or below their minimum stock
	// threshold.
	ListLowStock(ctx context.Context) ([]*domain.Product, error)

	// Update replaces a product's details.
	// Returns domain.ENOTFOUND if the product does not exist.
	Update(ctx context.Context, id uuid.UUID, params domain.ProductParams) (*domain.Product, error)

	// Delete removes a product and its stored images.
	Delete(ctx context.Context, id uuid.UUID) error

	// UploadImage stores a product photo and a generated thumbnail,
	// replacing any previous image.
	// Returns domain.EINVALID for unsupported or oversized images.
	UploadImage(ctx context.Context, id uuid.UUID, data io.Reader, contentType string) (*domain.Product, error)

	// ImageURLs returns access URLs for the product's photo and
	// thumbnail. Returns domain.ENOTFOUND when the product has no image.
	ImageURLs(ctx context.Context, id uuid.UUID) (original, thumbnail string, err error)
}

type productService struct {
	queries    *repository.Queries
	store      storage.Storage
	thumbnails ThumbnailProcessor
	logger     *slog.Logger
}

// NewProductService creates a new ProductService instance.
func NewProductService(queries *repository.Queries, store storage.Storage, thumbnails ThumbnailProcessor, logger *slog.Logger) ProductService {
	return &productService{
		queries:    queries,
		store:      store,
		thumbnails: thumbnails,
		logger:     logger,
	}
}

var _ ProductService = (*productService)(nil)

func (s *productService) Create(ctx context.Context, params domain.ProductParams) (*domain.Product, error) {
	const op = "ProductService.Create"

	if err := validateProductParams(&params); err != nil {
		return nil, domain.Wrap(err, domain.EINVALID, op, "Invalid product")
	}

	repoProduct, err := s.queries.CreateProduct(ctx, repository.CreateProductParams{
		SKU:           params.SKU,
		Name:          params.Name,
		Description:   domain.ToNullString(params.Description),
		PurchasePrice: params.PurchasePrice,
		SalePrice:     params.SalePrice,
		Stock:         int32(params.Stock),
		MinStock:      int32(params.MinStock),
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.Conflict(op, "SKU already in use")
		}
		return nil, domain.Internal(err, op, "Failed to create product")
	}

	s.logger.Info("product created", "product_id", repoProduct.ID, "sku", repoProduct.SKU)
	return repoProductToDomain(repoProduct), nil
}

func (s *productService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	const op = "ProductService.GetByID"

	repoProduct, err := s.queries.GetProductByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "Product not found")
		}
		return nil, domain.Internal(err, op, "Failed to get product")
	}
	return repoProductToDomain(repoProduct), nil
}

func (s *productService) List(ctx context.Context) ([]*domain.Product, error) {
	const op = "ProductService.List"

	repoProducts, err := s.queries.ListProducts(ctx)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to list products")
	}

	products := make([]*domain.Product, 0, len(repoProducts))
	for _, rp := range repoProducts {
		products = append(products, repoProductToDomain(rp))
	}
	return products, nil
}

func (s *productService) ListLowStock(ctx context.Context) ([]*domain.Product, error) {
	const op = "ProductService.ListLowStock"

	repoProducts, err := s.queries.ListProducts(ctx)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to list products")
	}

	var low []*domain.Product
	for _, rp := range repoProducts {
		p := repoProductToDomain(rp)
		if p.LowStock() {
			low = append(low, p)
		}
	}
	return low, nil
}

func (s *productService) Update(ctx context.Context, id uuid.UUID, params domain.ProductParams) (*domain.Product, error) {
	const op = "ProductService.Update"

	if err := validateProductParams(&params); err != nil {
		return nil, domain.Wrap(err, domain.EINVALID, op, "Invalid product")
	}

	repoProduct, err := s.queries.UpdateProduct(ctx, repository.UpdateProductParams{
		ID:            id,
		SKU:           params.SKU,
		Name:          params.Name,
		Description:   domain.ToNullString(params.Description),
		PurchasePrice: params.PurchasePrice,
		SalePrice:     params.SalePrice,
		Stock:         int32(params.Stock),
		MinStock:      int32(params.MinStock),
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "Product not found")
		}
		if isUniqueViolation(err) {
			return nil, domain.Conflict(op, "SKU already in use")
		}
		return nil, domain.Internal(err, op, "Failed to update product")
	}
	return repoProductToDomain(repoProduct), nil
}

func (s *productService) Delete(ctx context.Context, id uuid.UUID) error {
	const op = "ProductService.Delete"

	repoProduct, err := s.queries.GetProductByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil // Already gone
		}
		return domain.Internal(err, op, "Failed to get product")
	}

	if err := s.queries.DeleteProduct(ctx, id); err != nil {
		return domain.Internal(err, op, "Failed to delete product")
	}

	// Stored images are cleaned up best-effort after the row is gone.
	if repoProduct.ImageKey.Valid {
		if err := s.store.Delete(ctx, repoProduct.ImageKey.String); err != nil {
			s.logger.Warn("failed to delete product image", "product_id", id, "error", err)
		}
		if err := s.store.Delete(ctx, storage.ProductThumbnailKey(id)); err != nil {
			s.logger.Warn("failed to delete product thumbnail", "product_id", id, "error", err)
		}
	}

	return nil
}

// UploadImage stores the photo and thumbnail under deterministic keys, so a
// re-upload replaces the previous image without leaving orphans.
func (s *productService) UploadImage(ctx context.Context, id uuid.UUID, data io.Reader, contentType string) (*domain.Product, error) {
	const op = "ProductService.UploadImage"

	if !storage.IsAllowedImageType(contentType) {
		metrics.ProductImagesUploaded.WithLabelValues("failure").Inc()
		return nil, domain.Invalid(op, "Unsupported image type; use JPEG, PNG or WebP")
	}

	existing, err := s.queries.GetProductByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "Product not found")
		}
		return nil, domain.Internal(err, op, "Failed to get product")
	}

	// Buffer the upload: the bytes are needed twice, once for storage and
	// once for thumbnail generation.
	fileData, err := io.ReadAll(io.LimitReader(data, MaxImageSize+1))
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to read image data")
	}
	if int64(len(fileData)) > MaxImageSize {
		metrics.ProductImagesUploaded.WithLabelValues("failure").Inc()
		return nil, domain.Invalid(op, "Image exceeds the 10 MB limit")
	}

	thumbnailBytes, err := s.thumbnails.GenerateThumbnail(bytes.NewReader(fileData), ThumbnailMaxDim, ThumbnailMaxDim)
	if err != nil {
		metrics.ProductImagesUploaded.WithLabelValues("failure").Inc()
		return nil, domain.Wrap(err, domain.EINVALID, op, "Image could not be decoded")
	}

	imageKey := storage.ProductImageKey(id, storage.ExtensionForContentType(contentType))
	thumbKey := storage.ProductThumbnailKey(id)

	if err := s.store.Put(ctx, imageKey, bytes.NewReader(fileData), storage.PutOptions{
		ContentType: contentType,
		MaxSize:     MaxImageSize,
		Overwrite:   true,
	}); err != nil {
		metrics.ProductImagesUploaded.WithLabelValues("failure").Inc()
		return nil, domain.Internal(err, op, "Failed to store image")
	}

	if err := s.store.Put(ctx, thumbKey, bytes.NewReader(thumbnailBytes), storage.PutOptions{
		ContentType: "image/jpeg",
		Overwrite:   true,
	}); err != nil {
		_ = s.store.Delete(ctx, imageKey)
		metrics.ProductImagesUploaded.WithLabelValues("failure").Inc()
		return nil, domain.Internal(err, op, "Failed to store thumbnail")
	}

	if err := s.queries.SetProductImage(ctx, repository.SetProductImageParams{
		ID:       id,
		ImageKey: domain.ToNullString(imageKey),
	}); err != nil {
		_ = s.store.Delete(ctx, imageKey)
		_ = s.store.Delete(ctx, thumbKey)
		metrics.ProductImagesUploaded.WithLabelValues("failure").Inc()
		return nil, domain.Internal(err, op, "Failed to save image reference")
	}

	removeReplacedImage(ctx, s.store, domain.NullStringValue(existing.ImageKey), imageKey, s.logger)

	repoProduct, err := s.queries.GetProductByID(ctx, id)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to reload product")
	}

	metrics.ProductImagesUploaded.WithLabelValues("success").Inc()
	s.logger.Info("product image uploaded", "product_id", id, "key", imageKey, "size", len(fileData))

	return repoProductToDomain(repoProduct), nil
}

func (s *productService) ImageURLs(ctx context.Context, id uuid.UUID) (string, string, error) {
	const op = "ProductService.ImageURLs"

	repoProduct, err := s.queries.GetProductByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", "", domain.NotFound(op, "Product not found")
		}
		return "", "", domain.Internal(err, op, "Failed to get product")
	}

	if !repoProduct.ImageKey.Valid {
		return "", "", domain.NotFound(op, "Product has no image")
	}

	original, err := s.store.URL(ctx, repoProduct.ImageKey.String, imageURLTTL)
	if err != nil {
		return "", "", domain.Internal(err, op, "Failed to build image URL")
	}
	thumbnail, err := s.store.URL(ctx, storage.ProductThumbnailKey(id), imageURLTTL)
	if err != nil {
		return "", "", domain.Internal(err, op, "Failed to build thumbnail URL")
	}

	return original, thumbnail, nil
}

// removeReplacedImage deletes the previous image object when a re-upload
// changed the key, e.g. a PNG replaced by a JPEG. Best effort; the new
// image is already in place and the thumbnail key never changes.
func removeReplacedImage(ctx context.Context, store storage.Storage, oldKey, newKey string, logger *slog.Logger) {
	if oldKey == "" || oldKey == newKey {
		return
	}
	if err := store.Delete(ctx, oldKey); err != nil {
		logger.Warn("failed to delete replaced product image", "key", oldKey, "error", err)
	}
}

func validateProductParams(params *domain.ProductParams) error {
	params.SKU = strings.ToUpper(strings.TrimSpace(params.SKU))
	params.Name = strings.TrimSpace(params.Name)

	if params.SKU == "" {
		return errors.New("SKU is required")
	}
	if params.Name == "" {
		return errors.New("name is required")
	}
	if params.PurchasePrice < 0 || params.SalePrice < 0 {
		return errors.New("prices cannot be negative")
	}
	if params.Stock < 0 {
		return errors.New("stock cannot be negative")
	}
	if params.MinStock < 0 {
		return errors.New("minimum stock cannot be negative")
	}
	return nil
}

func repoProductToDomain(p repository.Product) *domain.Product {
	return &domain.Product{
		ID:            p.ID,
		SKU:           p.SKU,
		Name:          p.Name,
		Description:   domain.NullStringValue(p.Description),
		PurchasePrice: p.PurchasePrice,
		SalePrice:     p.SalePrice,
		Stock:         int(p.Stock),
		MinStock:      int(p.MinStock),
		ImageKey:      domain.NullStringValue(p.ImageKey),
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}
