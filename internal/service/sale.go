package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/alamigestion/server/internal/domain"
	"github.com/alamigestion/server/internal/metrics"
	"github.com/alamigestion/server/internal/repository"
	"github.com/google/uuid"
)

// SaleService defines the interface for recording and reading sales.
type SaleService interface {
	// Create records a sale: it snapshots catalog prices, decrements
	// stock, charges customer credit for CREDIT sales, and assigns the
	// next VNT number, all in one transaction.
	// Returns domain.EINVALID for empty or understocked orders and for
	// credit sales that exceed the customer's limit.
	Create(ctx context.Context, params domain.SaleParams) (*domain.Sale, error)

	// GetByID retrieves a sale with its line items.
	// Returns domain.ENOTFOUND if the sale does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Sale, error)

	// List returns sales newest first, paginated.
	List(ctx context.Context, limit, offset int) ([]*domain.Sale, error)
}

type saleService struct {
	db      *sql.DB
	queries *repository.Queries
	logger  *slog.Logger
}

// NewSaleService creates a new SaleService instance.
func NewSaleService(db *sql.DB, queries *repository.Queries, logger *slog.Logger) SaleService {
	return &saleService{db: db, queries: queries, logger: logger}
}

var _ SaleService = (*saleService)(nil)

func (s *saleService) Create(ctx context.Context, params domain.SaleParams) (*domain.Sale, error) {
	const op = "SaleService.Create"

	if !params.PaymentMethod.Valid() {
		return nil, domain.Invalid(op, "Payment method must be CASH, CARD, TRANSFER or CREDIT")
	}
	if len(params.Items) == 0 {
		return nil, domain.Invalid(op, "A sale needs at least one item")
	}
	for _, item := range params.Items {
		if item.Quantity <= 0 {
			return nil, domain.Invalid(op, "Item quantities must be positive")
		}
	}
	if params.PaymentMethod == domain.PaymentCredit && params.CustomerID == nil {
		return nil, domain.Invalid(op, "Credit sales require a customer")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to begin transaction")
	}
	defer tx.Rollback()

	qtx := s.queries.WithTx(tx)

	// Snapshot catalog prices and names inside the transaction so the
	// stock check and the price quote see the same row.
	lines := make([]saleLine, 0, len(params.Items))
	for _, item := range params.Items {
		product, err := qtx.GetProductByID(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, domain.Invalid(op, fmt.Sprintf("Unknown product %s", item.ProductID))
			}
			return nil, domain.Internal(err, op, "Failed to load product")
		}
		lines = append(lines, saleLine{
			ProductID: product.ID,
			SKU:       product.SKU,
			Name:      product.Name,
			Quantity:  item.Quantity,
			UnitPrice: product.SalePrice,
		})
	}

	sale, err := insertSale(ctx, qtx, op, params.SellerID, params.CustomerID, params.PaymentMethod, lines)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, domain.Internal(err, op, "Failed to commit sale")
	}

	metrics.SalesCreated.WithLabelValues(string(params.PaymentMethod)).Inc()
	metrics.SalesAmount.Add(float64(sale.Total))
	s.logger.Info("sale recorded",
		"sale_id", sale.ID,
		"number", sale.Number,
		"total", sale.Total,
		"payment_method", sale.PaymentMethod,
	)

	return sale, nil
}

func (s *saleService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Sale, error) {
	const op = "SaleService.GetByID"

	repoSale, err := s.queries.GetSaleByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "Sale not found")
		}
		return nil, domain.Internal(err, op, "Failed to get sale")
	}

	repoItems, err := s.queries.ListSaleItems(ctx, id)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to load sale items")
	}

	return repoSaleToDomain(repoSale, repoItems), nil
}

func (s *saleService) List(ctx context.Context, limit, offset int) ([]*domain.Sale, error) {
	const op = "SaleService.List"

	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	repoSales, err := s.queries.ListSales(ctx, repository.ListSalesParams{
		Limit:  int32(limit),
		Offset: int32(offset),
	})
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to list sales")
	}

	sales := make([]*domain.Sale, 0, len(repoSales))
	for _, rs := range repoSales {
		sales = append(sales, repoSaleToDomain(rs, nil))
	}
	return sales, nil
}

// =============================================================================
// Shared sale insertion
// =============================================================================

// saleLine is a resolved line of a sale: product identity plus the price the
// line is charged at. Sales from the register charge current catalog prices;
// quote conversions charge the quoted prices.
type saleLine struct {
	ProductID uuid.UUID
	SKU       string
	Name      string
	Quantity  int
	UnitPrice int64
}

// insertSale performs the write side of a sale inside the caller's
// transaction: stock decrement per line, credit charge for CREDIT sales,
// number assignment, and the sale and item inserts.
func insertSale(ctx context.Context, qtx *repository.Queries, op string, sellerID uuid.UUID, customerID *uuid.UUID, method domain.PaymentMethod, lines []saleLine) (*domain.Sale, error) {
	var total int64
	for _, line := range lines {
		if err := qtx.DecrementProductStock(ctx, repository.DecrementProductStockParams{
			ID:       line.ProductID,
			Quantity: int32(line.Quantity),
		}); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, domain.Invalid(op, fmt.Sprintf("Insufficient stock for %s", line.SKU))
			}
			return nil, domain.Internal(err, op, "Failed to update stock")
		}
		total += int64(line.Quantity) * line.UnitPrice
	}

	if method == domain.PaymentCredit {
		if err := qtx.AdjustCustomerCredit(ctx, repository.AdjustCustomerCreditParams{
			ID:    *customerID,
			Delta: total,
		}); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, domain.Invalid(op, "Sale exceeds the customer's credit limit")
			}
			return nil, domain.Internal(err, op, "Failed to charge customer credit")
		}
	}

	number, err := qtx.NextSaleNumber(ctx)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to assign sale number")
	}

	repoSale, err := qtx.CreateSale(ctx, repository.CreateSaleParams{
		Number:        number,
		SellerID:      sellerID,
		CustomerID:    domain.ToNullUUID(customerID),
		PaymentMethod: string(method),
		Total:         total,
	})
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to create sale")
	}

	repoItems := make([]repository.SaleItem, 0, len(lines))
	for _, line := range lines {
		repoItem, err := qtx.CreateSaleItem(ctx, repository.CreateSaleItemParams{
			SaleID:    repoSale.ID,
			ProductID: line.ProductID,
			Name:      line.Name,
			Quantity:  int32(line.Quantity),
			UnitPrice: line.UnitPrice,
		})
		if err != nil {
			return nil, domain.Internal(err, op, "Failed to create sale item")
		}
		repoItems = append(repoItems, repoItem)
	}

	return repoSaleToDomain(repoSale, repoItems), nil
}

func repoSaleToDomain(s repository.Sale, items []repository.SaleItem) *domain.Sale {
	sale := &domain.Sale{
		ID:            s.ID,
		Number:        s.Number,
		SellerID:      s.SellerID,
		PaymentMethod: domain.PaymentMethod(s.PaymentMethod),
		Total:         s.Total,
		CreatedAt:     s.CreatedAt,
	}
	if s.CustomerID.Valid {
		id := s.CustomerID.UUID
		sale.CustomerID = &id
	}
	for _, it := range items {
		sale.Items = append(sale.Items, domain.SaleItem{
			ID:        it.ID,
			SaleID:    it.SaleID,
			ProductID: it.ProductID,
			Name:      it.Name,
			Quantity:  int(it.Quantity),
			UnitPrice: it.UnitPrice,
		})
	}
	return sale
}
