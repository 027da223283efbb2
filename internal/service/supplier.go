package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/alamigestion/server/internal/domain"
	"github.com/alamigestion/server/internal/repository"
	"github.com/google/uuid"
)

// SupplierService defines the interface for supplier ledger operations.
type SupplierService interface {
	// Create registers a supplier, optionally with an opening balance owed.
	Create(ctx context.Context, params domain.SupplierParams, openingOwed int64) (*domain.Supplier, error)

	// GetByID retrieves a supplier by ID.
	// Returns domain.ENOTFOUND if the supplier does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Supplier, error)

	// List returns all suppliers ordered by name.
	List(ctx context.Context) ([]*domain.Supplier, error)

	// Update replaces a supplier's contact details. Balances are only
	// moved through AddDebt and RecordPayment.
	Update(ctx context.Context, id uuid.UUID, params domain.SupplierParams) (*domain.Supplier, error)

	// Delete removes a supplier along with its payment history.
	Delete(ctx context.Context, id uuid.UUID) error

	// AddDebt increases what the business owes the supplier, e.g. when a
	// purchase invoice arrives.
	AddDebt(ctx context.Context, id uuid.UUID, amount int64) (*domain.Supplier, error)

	// RecordPayment records a payment against the supplier balance.
	// Returns domain.EINVALID when the payment would exceed what is owed.
	RecordPayment(ctx context.Context, params domain.SupplierPaymentParams) (*domain.SupplierPayment, error)

	// ListPayments returns a supplier's payments, newest first.
	ListPayments(ctx context.Context, supplierID uuid.UUID) ([]*domain.SupplierPayment, error)
}

type supplierService struct {
	db      *sql.DB
	queries *repository.Queries
	logger  *slog.Logger
}

// NewSupplierService creates a new SupplierService instance.
//
// The *sql.DB handle is needed for the payment transaction; reads go
// through the shared queries.
func NewSupplierService(db *sql.DB, queries *repository.Queries, logger *slog.Logger) SupplierService {
	return &supplierService{db: db, queries: queries, logger: logger}
}

var _ SupplierService = (*supplierService)(nil)

func (s *supplierService) Create(ctx context.Context, params domain.SupplierParams, openingOwed int64) (*domain.Supplier, error) {
	const op = "SupplierService.Create"

	if err := validateSupplierParams(&params); err != nil {
		return nil, domain.Wrap(err, domain.EINVALID, op, "Invalid supplier")
	}
	if openingOwed < 0 {
		return nil, domain.Invalid(op, "Opening balance cannot be negative")
	}

	repoSupplier, err := s.queries.CreateSupplier(ctx, repository.CreateSupplierParams{
		Name:      params.Name,
		Company:   domain.ToNullString(params.Company),
		Phone:     domain.ToNullString(params.Phone),
		Email:     domain.ToNullString(params.Email),
		Address:   domain.ToNullString(params.Address),
		TotalOwed: openingOwed,
	})
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to create supplier")
	}

	s.logger.Info("supplier created", "supplier_id", repoSupplier.ID, "name", repoSupplier.Name)
	return repoSupplierToDomain(repoSupplier), nil
}

func (s *supplierService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Supplier, error) {
	const op = "SupplierService.GetByID"

	repoSupplier, err := s.queries.GetSupplierByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "Supplier not found")
		}
		return nil, domain.Internal(err, op, "Failed to get supplier")
	}
	return repoSupplierToDomain(repoSupplier), nil
}

func (s *supplierService) List(ctx context.Context) ([]*domain.Supplier, error) {
	const op = "SupplierService.List"

	repoSuppliers, err := s.queries.ListSuppliers(ctx)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to list suppliers")
	}

	suppliers := make([]*domain.Supplier, 0, len(repoSuppliers))
	for _, rs := range repoSuppliers {
		suppliers = append(suppliers, repoSupplierToDomain(rs))
	}
	return suppliers, nil
}

func (s *supplierService) Update(ctx context.Context, id uuid.UUID, params domain.SupplierParams) (*domain.Supplier, error) {
	const op = "SupplierService.Update"

	if err := validateSupplierParams(&params); err != nil {
		return nil, domain.Wrap(err, domain.EINVALID, op, "Invalid supplier")
	}

	repoSupplier, err := s.queries.UpdateSupplier(ctx, repository.UpdateSupplierParams{
		ID:      id,
		Name:    params.Name,
		Company: domain.ToNullString(params.Company),
		Phone:   domain.ToNullString(params.Phone),
		Email:   domain.ToNullString(params.Email),
		Address: domain.ToNullString(params.Address),
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "Supplier not found")
		}
		return nil, domain.Internal(err, op, "Failed to update supplier")
	}
	return repoSupplierToDomain(repoSupplier), nil
}

func (s *supplierService) Delete(ctx context.Context, id uuid.UUID) error {
	const op = "SupplierService.Delete"

	if err := s.queries.DeleteSupplier(ctx, id); err != nil {
		return domain.Internal(err, op, "Failed to delete supplier")
	}

	s.logger.Info("supplier deleted", "supplier_id", id)
	return nil
}

func (s *supplierService) AddDebt(ctx context.Context, id uuid.UUID, amount int64) (*domain.Supplier, error) {
	const op = "SupplierService.AddDebt"

	if amount <= 0 {
		return nil, domain.Invalid(op, "Amount must be positive")
	}

	if _, err := s.queries.GetSupplierByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "Supplier not found")
		}
		return nil, domain.Internal(err, op, "Failed to get supplier")
	}

	if err := s.queries.AddSupplierDebt(ctx, repository.AddSupplierDebtParams{
		ID:     id,
		Amount: amount,
	}); err != nil {
		return nil, domain.Internal(err, op, "Failed to record debt")
	}

	repoSupplier, err := s.queries.GetSupplierByID(ctx, id)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to reload supplier")
	}

	s.logger.Info("supplier debt recorded", "supplier_id", id, "amount", amount)
	return repoSupplierToDomain(repoSupplier), nil
}

// RecordPayment inserts the payment row and moves the supplier balance in
// one transaction, so the ledger and the running totals cannot drift.
func (s *supplierService) RecordPayment(ctx context.Context, params domain.SupplierPaymentParams) (*domain.SupplierPayment, error) {
	const op = "SupplierService.RecordPayment"

	if params.Amount <= 0 {
		return nil, domain.Invalid(op, "Payment amount must be positive")
	}
	if !params.Method.Valid() || params.Method == domain.PaymentCredit {
		return nil, domain.Invalid(op, "Payment method must be CASH, CARD or TRANSFER")
	}
	if params.PaidAt.IsZero() {
		params.PaidAt = time.Now()
	}

	if _, err := s.queries.GetSupplierByID(ctx, params.SupplierID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "Supplier not found")
		}
		return nil, domain.Internal(err, op, "Failed to get supplier")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to begin transaction")
	}
	defer tx.Rollback()

	qtx := s.queries.WithTx(tx)

	if err := qtx.AddSupplierPaid(ctx, repository.AddSupplierPaidParams{
		ID:     params.SupplierID,
		Amount: params.Amount,
	}); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.Invalid(op, "Payment exceeds the outstanding balance")
		}
		return nil, domain.Internal(err, op, "Failed to update supplier balance")
	}

	repoPayment, err := qtx.CreateSupplierPayment(ctx, repository.CreateSupplierPaymentParams{
		SupplierID: params.SupplierID,
		Amount:     params.Amount,
		Method:     string(params.Method),
		Note:       domain.ToNullString(params.Note),
		PaidAt:     params.PaidAt,
	})
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to record payment")
	}

	if err := tx.Commit(); err != nil {
		return nil, domain.Internal(err, op, "Failed to commit payment")
	}

	s.logger.Info("supplier payment recorded",
		"supplier_id", params.SupplierID,
		"payment_id", repoPayment.ID,
		"amount", params.Amount,
	)

	return repoSupplierPaymentToDomain(repoPayment), nil
}

func (s *supplierService) ListPayments(ctx context.Context, supplierID uuid.UUID) ([]*domain.SupplierPayment, error) {
	const op = "SupplierService.ListPayments"

	repoPayments, err := s.queries.ListSupplierPayments(ctx, supplierID)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to list payments")
	}

	payments := make([]*domain.SupplierPayment, 0, len(repoPayments))
	for _, rp := range repoPayments {
		payments = append(payments, repoSupplierPaymentToDomain(rp))
	}
	return payments, nil
}

func validateSupplierParams(params *domain.SupplierParams) error {
	params.Name = strings.TrimSpace(params.Name)
	if params.Name == "" {
		return errors.New("name is required")
	}
	if params.Email != "" {
		if err := validateEmail(strings.ToLower(strings.TrimSpace(params.Email))); err != nil {
			return err
		}
	}
	return nil
}

func repoSupplierToDomain(s repository.Supplier) *domain.Supplier {
	return &domain.Supplier{
		ID:        s.ID,
		Name:      s.Name,
		Company:   domain.NullStringValue(s.Company),
		Phone:     domain.NullStringValue(s.Phone),
		Email:     domain.NullStringValue(s.Email),
		Address:   domain.NullStringValue(s.Address),
		TotalOwed: s.TotalOwed,
		TotalPaid: s.TotalPaid,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

func repoSupplierPaymentToDomain(p repository.SupplierPayment) *domain.SupplierPayment {
	return &domain.SupplierPayment{
		ID:         p.ID,
		SupplierID: p.SupplierID,
		Amount:     p.Amount,
		Method:     domain.PaymentMethod(p.Method),
		Note:       domain.NullStringValue(p.Note),
		PaidAt:     p.PaidAt,
		CreatedAt:  p.CreatedAt,
	}
}
