package sale

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"cryptomart/internal/domain"
	"cryptomart/internal/events"
	"cryptomart/internal/metrics"
	salerepo "cryptomart/internal/repository/sale"
	"cryptomart/internal/tracing"
)

// Catalog is the product lookup a sale needs.
type Catalog interface {
	Get(ctx context.Context, id string) (*domain.Product, error)
	Invalidate(ctx context.Context, ids ...string)
}

// Service prices carts and records sales.
type Service struct {
	catalog   Catalog
	repo      salerepo.Repository
	publisher events.Publisher
	logger    *zap.Logger
}

// New returns a Service. A nil publisher drops sale events.
func New(catalog Catalog, repo salerepo.Repository, publisher events.Publisher, logger *zap.Logger) *Service {
	if publisher == nil {
		publisher = events.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{catalog: catalog, repo: repo, publisher: publisher, logger: logger.Named("sale")}
}

type LineInput struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// Quote prices the requested lines at current catalog prices. Quantities
// below one count as one and repeated products are merged into one line.
// Nothing is stored.
func (s *Service) Quote(ctx context.Context, lines []LineInput) (*domain.Cart, error) {
	ctx, span := tracing.Start(ctx, "sale.Quote")
	defer span.End()

	if len(lines) == 0 {
		return nil, domain.NewValidationError("Please select at least one product")
	}
	cart := &domain.Cart{}
	for _, l := range lines {
		id := strings.TrimSpace(l.ProductID)
		if id == "" {
			return nil, domain.NewValidationError("Please provide product id")
		}
		p, err := s.catalog.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := cart.Add(*p, l.Quantity); err != nil {
			return nil, err
		}
	}
	span.SetAttributes(attribute.Int("cart.lines", len(cart.Lines)), attribute.String("cart.total", cart.Total.String()))
	return cart, nil
}

// Record quotes the lines, then stores the sale and takes the quantities out
// of stock atomically.
func (s *Service) Record(ctx context.Context, sellerID string, customer domain.Customer, lines []LineInput) (*domain.Sale, error) {
	ctx, span := tracing.Start(ctx, "sale.Record")
	defer span.End()

	if err := customer.Validate(); err != nil {
		return nil, err
	}
	cart, err := s.Quote(ctx, lines)
	if err != nil {
		return nil, err
	}
	recorded, err := s.repo.Record(ctx, domain.Sale{
		SoldBy: sellerID,
		Customer: domain.Customer{
			FullName:      strings.TrimSpace(customer.FullName),
			ContactNumber: strings.TrimSpace(customer.ContactNumber),
			Email:         strings.TrimSpace(customer.Email),
			WalletAddress: strings.TrimSpace(customer.WalletAddress),
		},
		Lines: cart.Lines,
		Total: cart.Total,
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	ids := make([]string, len(recorded.Lines))
	for i, l := range recorded.Lines {
		ids[i] = l.ProductID
	}
	s.catalog.Invalidate(ctx, ids...)
	metrics.RecordSale(recorded.Total)

	// The sale is committed; a failed publish is logged, not returned.
	if err := s.publisher.PublishSale(ctx, events.NewSaleRecorded(*recorded)); err != nil {
		s.logger.Error("publish sale event failed",
			zap.String("sale_id", recorded.ID),
			zap.String("trace_id", tracing.TraceID(ctx)),
			zap.Error(err),
		)
	}
	span.SetAttributes(attribute.String("sale.id", recorded.ID))
	return recorded, nil
}

// Get returns a recorded sale. Only admins and the seller who recorded it may
// read it; anyone else gets domain.ErrNotFound.
func (s *Service) Get(ctx context.Context, id, viewerID string, admin bool) (*domain.Sale, error) {
	ctx, span := tracing.Start(ctx, "sale.Get")
	defer span.End()

	sale, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return nil, err
	}
	if !admin && sale.SoldBy != viewerID {
		s.logger.Debug("sale hidden from viewer", zap.String("sale_id", sale.ID), zap.String("viewer", viewerID))
		return nil, domain.ErrNotFound
	}
	return sale, nil
}
