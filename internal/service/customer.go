package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"

	"github.com/alamigestion/server/internal/domain"
	"github.com/alamigestion/server/internal/repository"
	"github.com/google/uuid"
)

// CustomerService defines the interface for customer operations.
type CustomerService interface {
	// Create registers a new customer.
	// Returns domain.EINVALID for validation errors.
	Create(ctx context.Context, params domain.CustomerParams) (*domain.Customer, error)

	// GetByID retrieves a customer by ID.
	// Returns domain.ENOTFOUND if the customer does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Customer, error)

	// List returns all customers ordered by name.
	List(ctx context.Context) ([]*domain.Customer, error)

	// Update replaces a customer's details.
	// Returns domain.ENOTFOUND if the customer does not exist.
	Update(ctx context.Context, id uuid.UUID, params domain.CustomerParams) (*domain.Customer, error)

	// Delete removes a customer.
	Delete(ctx context.Context, id uuid.UUID) error

	// RecordCreditPayment reduces the customer's outstanding credit by the
	// paid amount. Returns domain.EINVALID when the payment exceeds what
	// is outstanding.
	RecordCreditPayment(ctx context.Context, id uuid.UUID, amount int64) (*domain.Customer, error)
}

type customerService struct {
	queries *repository.Queries
	logger  *slog.Logger
}

// NewCustomerService creates a new CustomerService instance.
func NewCustomerService(queries *repository.Queries, logger *slog.Logger) CustomerService {
	return &customerService{queries: queries, logger: logger}
}

var _ CustomerService = (*customerService)(nil)

func (s *customerService) Create(ctx context.Context, params domain.CustomerParams) (*domain.Customer, error) {
	const op = "CustomerService.Create"

	if err := validateCustomerParams(&params); err != nil {
		return nil, domain.Wrap(err, domain.EINVALID, op, "Invalid customer")
	}

	repoCustomer, err := s.queries.CreateCustomer(ctx, repository.CreateCustomerParams{
		Name:        params.Name,
		Company:     domain.ToNullString(params.Company),
		Phone:       domain.ToNullString(params.Phone),
		Email:       domain.ToNullString(params.Email),
		Address:     domain.ToNullString(params.Address),
		CreditLimit: params.CreditLimit,
	})
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to create customer")
	}

	s.logger.Info("customer created", "customer_id", repoCustomer.ID, "name", repoCustomer.Name)
	return repoCustomerToDomain(repoCustomer), nil
}

func (s *customerService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Customer, error) {
	const op = "CustomerService.GetByID"

	repoCustomer, err := s.queries.GetCustomerByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "Customer not found")
		}
		return nil, domain.Internal(err, op, "Failed to get customer")
	}
	return repoCustomerToDomain(repoCustomer), nil
}

func (s *customerService) List(ctx context.Context) ([]*domain.Customer, error) {
	const op = "CustomerService.List"

	repoCustomers, err := s.queries.ListCustomers(ctx)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to list customers")
	}

	customers := make([]*domain.Customer, 0, len(repoCustomers))
	for _, rc := range repoCustomers {
		customers = append(customers, repoCustomerToDomain(rc))
	}
	return customers, nil
}

func (s *customerService) Update(ctx context.Context, id uuid.UUID, params domain.CustomerParams) (*domain.Customer, error) {
	const op = "CustomerService.Update"

	if err := validateCustomerParams(&params); err != nil {
		return nil, domain.Wrap(err, domain.EINVALID, op, "Invalid customer")
	}

	repoCustomer, err := s.queries.UpdateCustomer(ctx, repository.UpdateCustomerParams{
		ID:          id,
		Name:        params.Name,
		Company:     domain.ToNullString(params.Company),
		Phone:       domain.ToNullString(params.Phone),
		Email:       domain.ToNullString(params.Email),
		Address:     domain.ToNullString(params.Address),
		CreditLimit: params.CreditLimit,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "Customer not found")
		}
		return nil, domain.Internal(err, op, "Failed to update customer")
	}
	return repoCustomerToDomain(repoCustomer), nil
}

func (s *customerService) Delete(ctx context.Context, id uuid.UUID) error {
	const op = "CustomerService.Delete"

	if err := s.queries.DeleteCustomer(ctx, id); err != nil {
		return domain.Internal(err, op, "Failed to delete customer")
	}
	return nil
}

func (s *customerService) RecordCreditPayment(ctx context.Context, id uuid.UUID, amount int64) (*domain.Customer, error) {
	const op = "CustomerService.RecordCreditPayment"

	if amount <= 0 {
		return nil, domain.Invalid(op, "Payment amount must be positive")
	}

	if _, err := s.queries.GetCustomerByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "Customer not found")
		}
		return nil, domain.Internal(err, op, "Failed to get customer")
	}

	err := s.queries.AdjustCustomerCredit(ctx, repository.AdjustCustomerCreditParams{
		ID:    id,
		Delta: -amount,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.Invalid(op, "Payment exceeds outstanding credit")
		}
		return nil, domain.Internal(err, op, "Failed to record payment")
	}

	repoCustomer, err := s.queries.GetCustomerByID(ctx, id)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to reload customer")
	}

	s.logger.Info("credit payment recorded", "customer_id", id, "amount", amount)
	return repoCustomerToDomain(repoCustomer), nil
}

func validateCustomerParams(params *domain.CustomerParams) error {
	params.Name = strings.TrimSpace(params.Name)
	if params.Name == "" {
		return errors.New("name is required")
	}
	if params.CreditLimit < 0 {
		return errors.New("credit limit cannot be negative")
	}
	if params.Email != "" {
		if err := validateEmail(strings.ToLower(strings.TrimSpace(params.Email))); err != nil {
			return err
		}
	}
	return nil
}

func repoCustomerToDomain(c repository.Customer) *domain.Customer {
	return &domain.Customer{
		ID:          c.ID,
		Name:        c.Name,
		Company:     domain.NullStringValue(c.Company),
		Phone:       domain.NullStringValue(c.Phone),
		Email:       domain.NullStringValue(c.Email),
		Address:     domain.NullStringValue(c.Address),
		CreditLimit: c.CreditLimit,
		CreditUsed:  c.CreditUsed,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}
