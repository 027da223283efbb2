package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alamigestion/server/internal/domain"
	"github.com/alamigestion/server/internal/metrics"
	"github.com/alamigestion/server/internal/numtext"
	"github.com/alamigestion/server/internal/repository"
	"github.com/google/uuid"
)

// DocumentService defines the interface for invoices and quotes.
type DocumentService interface {
	// GenerateInvoice creates the invoice for a sale, rendering the total
	// in French words for the printed document. Idempotent: generating
	// twice returns the existing invoice.
	// Returns domain.ENOTFOUND if the sale does not exist.
	GenerateInvoice(ctx context.Context, saleID uuid.UUID) (*domain.Invoice, error)

	// GetInvoice retrieves an invoice by ID.
	GetInvoice(ctx context.Context, id uuid.UUID) (*domain.Invoice, error)

	// ListInvoices returns all invoices, newest first.
	ListInvoices(ctx context.Context) ([]*domain.Invoice, error)

	// CreateQuote creates a DRAFT quote, snapshotting catalog names and
	// prices into its items.
	CreateQuote(ctx context.Context, params domain.QuoteParams) (*domain.Quote, error)

	// GetQuote retrieves a quote with its items. A quote read past its
	// validity date is marked EXPIRED on the spot; there is no background
	// job rewriting statuses.
	GetQuote(ctx context.Context, id uuid.UUID) (*domain.Quote, error)

	// ListQuotes returns all quotes, newest first.
	ListQuotes(ctx context.Context) ([]*domain.Quote, error)

	// UpdateQuoteStatus moves a quote along DRAFT -> SENT -> ACCEPTED.
	// Returns domain.EINVALID for any other transition.
	UpdateQuoteStatus(ctx context.Context, id uuid.UUID, status domain.QuoteStatus) (*domain.Quote, error)

	// ConvertQuote turns a convertible quote into a sale at the quoted
	// prices. The quote becomes CONVERTED and cannot convert again.
	// Returns domain.EINVALID if the quote is expired or already
	// converted.
	ConvertQuote(ctx context.Context, quoteID, sellerID uuid.UUID, method domain.PaymentMethod) (*domain.Sale, error)
}

type documentService struct {
	db      *sql.DB
	queries *repository.Queries
	logger  *slog.Logger
	now     func() time.Time
}

// NewDocumentService creates a new DocumentService instance.
func NewDocumentService(db *sql.DB, queries *repository.Queries, logger *slog.Logger) DocumentService {
	return &documentService{
		db:      db,
		queries: queries,
		logger:  logger,
		now:     time.Now,
	}
}

var _ DocumentService = (*documentService)(nil)

// =============================================================================
// Invoices
// =============================================================================

func (s *documentService) GenerateInvoice(ctx context.Context, saleID uuid.UUID) (*domain.Invoice, error) {
	const op = "DocumentService.GenerateInvoice"

	repoSale, err := s.queries.GetSaleByID(ctx, saleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "Sale not found")
		}
		return nil, domain.Internal(err, op, "Failed to get sale")
	}

	existing, err := s.queries.GetInvoiceBySaleID(ctx, saleID)
	if err == nil {
		return repoInvoiceToDomain(existing, repoSale), nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, domain.Internal(err, op, "Failed to check for existing invoice")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to begin transaction")
	}
	defer tx.Rollback()

	qtx := s.queries.WithTx(tx)

	number, err := qtx.NextInvoiceNumber(ctx)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to assign invoice number")
	}

	repoInvoice, err := qtx.CreateInvoice(ctx, repository.CreateInvoiceParams{
		Number:       number,
		SaleID:       saleID,
		Total:        repoSale.Total,
		TotalInWords: numtext.AmountInWords(repoSale.Total),
		IssuedAt:     s.now(),
	})
	if err != nil {
		if isUniqueViolation(err) {
			// Lost a race with a concurrent generation; return the winner.
			if existing, err := s.queries.GetInvoiceBySaleID(ctx, saleID); err == nil {
				return repoInvoiceToDomain(existing, repoSale), nil
			}
		}
		return nil, domain.Internal(err, op, "Failed to create invoice")
	}

	if err := tx.Commit(); err != nil {
		return nil, domain.Internal(err, op, "Failed to commit invoice")
	}

	metrics.InvoicesGenerated.Inc()
	s.logger.Info("invoice generated", "invoice_id", repoInvoice.ID, "number", repoInvoice.Number, "sale_id", saleID)

	return repoInvoiceToDomain(repoInvoice, repoSale), nil
}

func (s *documentService) GetInvoice(ctx context.Context, id uuid.UUID) (*domain.Invoice, error) {
	const op = "DocumentService.GetInvoice"

	repoInvoice, err := s.queries.GetInvoiceByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "Invoice not found")
		}
		return nil, domain.Internal(err, op, "Failed to get invoice")
	}

	repoSale, err := s.queries.GetSaleByID(ctx, repoInvoice.SaleID)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to load invoiced sale")
	}

	return repoInvoiceToDomain(repoInvoice, repoSale), nil
}

func (s *documentService) ListInvoices(ctx context.Context) ([]*domain.Invoice, error) {
	const op = "DocumentService.ListInvoices"

	repoInvoices, err := s.queries.ListInvoices(ctx)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to list invoices")
	}

	invoices := make([]*domain.Invoice, 0, len(repoInvoices))
	for _, ri := range repoInvoices {
		invoices = append(invoices, repoInvoiceToDomain(ri, repository.Sale{}))
	}
	return invoices, nil
}

// =============================================================================
// Quotes
// =============================================================================

func (s *documentService) CreateQuote(ctx context.Context, params domain.QuoteParams) (*domain.Quote, error) {
	const op = "DocumentService.CreateQuote"

	if len(params.Items) == 0 {
		return nil, domain.Invalid(op, "A quote needs at least one item")
	}
	for _, item := range params.Items {
		if item.Quantity <= 0 {
			return nil, domain.Invalid(op, "Item quantities must be positive")
		}
	}
	if !params.ValidUntil.After(s.now()) {
		return nil, domain.Invalid(op, "Validity date must be in the future")
	}

	if _, err := s.queries.GetCustomerByID(ctx, params.CustomerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "Customer not found")
		}
		return nil, domain.Internal(err, op, "Failed to get customer")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to begin transaction")
	}
	defer tx.Rollback()

	qtx := s.queries.WithTx(tx)

	// Snapshot current catalog names and prices into the quote lines.
	type quoteLine struct {
		productID uuid.UUID
		name      string
		quantity  int
		unitPrice int64
	}
	lines := make([]quoteLine, 0, len(params.Items))
	var total int64
	for _, item := range params.Items {
		product, err := qtx.GetProductByID(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, domain.Invalid(op, fmt.Sprintf("Unknown product %s", item.ProductID))
			}
			return nil, domain.Internal(err, op, "Failed to load product")
		}
		lines = append(lines, quoteLine{
			productID: product.ID,
			name:      product.Name,
			quantity:  item.Quantity,
			unitPrice: product.SalePrice,
		})
		total += int64(item.Quantity) * product.SalePrice
	}

	number, err := qtx.NextQuoteNumber(ctx)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to assign quote number")
	}

	repoQuote, err := qtx.CreateQuote(ctx, repository.CreateQuoteParams{
		Number:     number,
		CustomerID: params.CustomerID,
		Status:     string(domain.QuoteDraft),
		Total:      total,
		ValidUntil: params.ValidUntil,
	})
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to create quote")
	}

	repoItems := make([]repository.QuoteItem, 0, len(lines))
	for _, line := range lines {
		repoItem, err := qtx.CreateQuoteItem(ctx, repository.CreateQuoteItemParams{
			QuoteID:   repoQuote.ID,
			ProductID: line.productID,
			Name:      line.name,
			Quantity:  int32(line.quantity),
			UnitPrice: line.unitPrice,
		})
		if err != nil {
			return nil, domain.Internal(err, op, "Failed to create quote item")
		}
		repoItems = append(repoItems, repoItem)
	}

	if err := tx.Commit(); err != nil {
		return nil, domain.Internal(err, op, "Failed to commit quote")
	}

	metrics.QuotesCreated.Inc()
	s.logger.Info("quote created", "quote_id", repoQuote.ID, "number", repoQuote.Number, "total", total)

	return repoQuoteToDomain(repoQuote, repoItems), nil
}

func (s *documentService) GetQuote(ctx context.Context, id uuid.UUID) (*domain.Quote, error) {
	const op = "DocumentService.GetQuote"

	repoQuote, err := s.queries.GetQuoteByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "Quote not found")
		}
		return nil, domain.Internal(err, op, "Failed to get quote")
	}

	repoQuote, err = s.expireIfDue(ctx, repoQuote)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to expire quote")
	}

	repoItems, err := s.queries.ListQuoteItems(ctx, id)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to load quote items")
	}

	return repoQuoteToDomain(repoQuote, repoItems), nil
}

func (s *documentService) ListQuotes(ctx context.Context) ([]*domain.Quote, error) {
	const op = "DocumentService.ListQuotes"

	repoQuotes, err := s.queries.ListQuotes(ctx)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to list quotes")
	}

	quotes := make([]*domain.Quote, 0, len(repoQuotes))
	for _, rq := range repoQuotes {
		q := repoQuoteToDomain(rq, nil)
		// Presentation-level expiry; the row is only rewritten when the
		// quote is read individually.
		if q.IsExpired(s.now()) && q.Status != domain.QuoteConverted {
			q.Status = domain.QuoteExpired
		}
		quotes = append(quotes, q)
	}
	return quotes, nil
}

// quoteTransitions lists the allowed manual status moves. EXPIRED and
// CONVERTED are terminal and only ever set by the service itself.
var quoteTransitions = map[domain.QuoteStatus][]domain.QuoteStatus{
	domain.QuoteDraft: {domain.QuoteSent, domain.QuoteAccepted},
	domain.QuoteSent:  {domain.QuoteAccepted},
}

func (s *documentService) UpdateQuoteStatus(ctx context.Context, id uuid.UUID, status domain.QuoteStatus) (*domain.Quote, error) {
	const op = "DocumentService.UpdateQuoteStatus"

	repoQuote, err := s.queries.GetQuoteByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "Quote not found")
		}
		return nil, domain.Internal(err, op, "Failed to get quote")
	}

	repoQuote, err = s.expireIfDue(ctx, repoQuote)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to expire quote")
	}

	current := domain.QuoteStatus(repoQuote.Status)
	allowed := false
	for _, next := range quoteTransitions[current] {
		if next == status {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, domain.Invalid(op, fmt.Sprintf("Cannot move quote from %s to %s", current, status))
	}

	updated, err := s.queries.UpdateQuoteStatus(ctx, repository.UpdateQuoteStatusParams{
		ID:     id,
		Status: string(status),
	})
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to update quote status")
	}

	repoItems, err := s.queries.ListQuoteItems(ctx, id)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to load quote items")
	}

	s.logger.Info("quote status changed", "quote_id", id, "from", current, "to", status)
	return repoQuoteToDomain(updated, repoItems), nil
}

func (s *documentService) ConvertQuote(ctx context.Context, quoteID, sellerID uuid.UUID, method domain.PaymentMethod) (*domain.Sale, error) {
	const op = "DocumentService.ConvertQuote"

	if !method.Valid() {
		return nil, domain.Invalid(op, "Payment method must be CASH, CARD, TRANSFER or CREDIT")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to begin transaction")
	}
	defer tx.Rollback()

	qtx := s.queries.WithTx(tx)

	repoQuote, err := qtx.GetQuoteByID(ctx, quoteID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "Quote not found")
		}
		return nil, domain.Internal(err, op, "Failed to get quote")
	}

	quote := repoQuoteToDomain(repoQuote, nil)
	if !quote.Convertible(s.now()) {
		return nil, domain.Invalid(op, "Quote is expired or already converted")
	}

	repoItems, err := qtx.ListQuoteItems(ctx, quoteID)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to load quote items")
	}
	if len(repoItems) == 0 {
		return nil, domain.Internal(errors.New("quote has no items"), op, "Quote has no items")
	}

	// The sale charges the quoted prices, not today's catalog prices.
	lines := make([]saleLine, 0, len(repoItems))
	for _, item := range repoItems {
		lines = append(lines, saleLine{
			ProductID: item.ProductID,
			SKU:       item.Name,
			Name:      item.Name,
			Quantity:  int(item.Quantity),
			UnitPrice: item.UnitPrice,
		})
	}

	customerID := repoQuote.CustomerID
	sale, err := insertSale(ctx, qtx, op, sellerID, &customerID, method, lines)
	if err != nil {
		return nil, err
	}

	if err := qtx.MarkQuoteConverted(ctx, repository.MarkQuoteConvertedParams{
		ID:     quoteID,
		SaleID: sale.ID,
	}); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.Invalid(op, "Quote is expired or already converted")
		}
		return nil, domain.Internal(err, op, "Failed to mark quote converted")
	}

	if err := tx.Commit(); err != nil {
		return nil, domain.Internal(err, op, "Failed to commit conversion")
	}

	metrics.QuotesConverted.Inc()
	metrics.SalesCreated.WithLabelValues(string(method)).Inc()
	metrics.SalesAmount.Add(float64(sale.Total))
	s.logger.Info("quote converted",
		"quote_id", quoteID,
		"sale_id", sale.ID,
		"sale_number", sale.Number,
		"total", sale.Total,
	)

	return sale, nil
}

// expireIfDue rewrites an overdue active quote to EXPIRED and returns the
// fresh row. Terminal quotes pass through untouched.
func (s *documentService) expireIfDue(ctx context.Context, repoQuote repository.Quote) (repository.Quote, error) {
	status := domain.QuoteStatus(repoQuote.Status)
	active := status == domain.QuoteDraft || status == domain.QuoteSent || status == domain.QuoteAccepted
	if !active || !s.now().After(repoQuote.ValidUntil) {
		return repoQuote, nil
	}
	return s.queries.UpdateQuoteStatus(ctx, repository.UpdateQuoteStatusParams{
		ID:     repoQuote.ID,
		Status: string(domain.QuoteExpired),
	})
}

// =============================================================================
// Conversions
// =============================================================================

func repoInvoiceToDomain(inv repository.Invoice, sale repository.Sale) *domain.Invoice {
	invoice := &domain.Invoice{
		ID:           inv.ID,
		Number:       inv.Number,
		SaleID:       inv.SaleID,
		Total:        inv.Total,
		TotalInWords: inv.TotalInWords,
		IssuedAt:     inv.IssuedAt,
		CreatedAt:    inv.CreatedAt,
	}
	if sale.CustomerID.Valid {
		id := sale.CustomerID.UUID
		invoice.CustomerID = &id
	}
	return invoice
}

func repoQuoteToDomain(q repository.Quote, items []repository.QuoteItem) *domain.Quote {
	quote := &domain.Quote{
		ID:         q.ID,
		Number:     q.Number,
		CustomerID: q.CustomerID,
		Status:     domain.QuoteStatus(q.Status),
		Total:      q.Total,
		ValidUntil: q.ValidUntil,
		CreatedAt:  q.CreatedAt,
		UpdatedAt:  q.UpdatedAt,
	}
	for _, it := range items {
		quote.Items = append(quote.Items, domain.QuoteItem{
			ID:        it.ID,
			QuoteID:   it.QuoteID,
			ProductID: it.ProductID,
			Name:      it.Name,
			Quantity:  int(it.Quantity),
			UnitPrice: it.UnitPrice,
		})
	}
	return quote
}
