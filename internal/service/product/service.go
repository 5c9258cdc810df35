package product

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"cryptomart/internal/cache"
	"cryptomart/internal/domain"
	"cryptomart/internal/metrics"
	"cryptomart/internal/pricing"
	productrepo "cryptomart/internal/repository/product"
	"cryptomart/internal/tracing"
)

// Service manages the product catalog and its read cache.
type Service struct {
	repo   productrepo.Repository
	cache  cache.ProductCache
	logger *zap.Logger
}

// New returns a Service. A nil cache disables caching.
func New(repo productrepo.Repository, c cache.ProductCache, logger *zap.Logger) *Service {
	if c == nil {
		c = cache.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, cache: c, logger: logger.Named("product")}
}

// CreateInput is a product as submitted. Price is the raw text the client
// sent; it is validated here and never passes through a float.
type CreateInput struct {
	Name              string
	Description       string
	Image             string
	ManufacturingDate time.Time
	Price             string
	Quantity          int
}

// Build turns in into a validated product owned by ownerID without storing
// it. The price is checked before any other field.
func Build(ownerID string, in CreateInput) (domain.Product, error) {
	price, err := pricing.Parse(strings.TrimSpace(in.Price))
	if err != nil {
		return domain.Product{}, err
	}
	p := domain.Product{
		Name:              strings.TrimSpace(in.Name),
		Description:       in.Description,
		Image:             strings.TrimSpace(in.Image),
		ManufacturingDate: in.ManufacturingDate,
		Price:             price,
		Quantity:          in.Quantity,
		CreatedBy:         ownerID,
	}
	if err := p.Validate(); err != nil {
		return domain.Product{}, err
	}
	return p, nil
}

// Create validates in with Build and stores the product. Nothing is
// persisted when any check fails.
func (s *Service) Create(ctx context.Context, ownerID string, in CreateInput) (*domain.Product, error) {
	ctx, span := tracing.Start(ctx, "product.Create")
	defer span.End()

	p, err := Build(ownerID, in)
	if err != nil {
		if pricing.IsValidation(err) {
			s.rejectPrice(in.Price, err)
		} else {
			s.logger.Debug("product rejected", zap.Error(err))
		}
		return nil, err
	}
	created, err := s.repo.Create(ctx, p)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.String("product.id", created.ID))
	return created, nil
}

func (s *Service) rejectPrice(input string, err error) {
	reason := "malformed"
	switch {
	case errors.Is(err, pricing.ErrNegativeValue):
		reason = "negative"
	case errors.Is(err, pricing.ErrOutOfRange):
		reason = "out_of_range"
	}
	metrics.RecordValidationFailure(reason)
	s.logger.Debug("price rejected", zap.String("input", input), zap.String("reason", reason))
}

func (s *Service) List(ctx context.Context) ([]domain.Product, error) {
	return s.repo.List(ctx)
}

// Get reads through the product cache. Cache failures fall back to the
// repository.
func (s *Service) Get(ctx context.Context, id string) (*domain.Product, error) {
	ctx, span := tracing.Start(ctx, "product.Get")
	defer span.End()

	cached, err := s.cache.Get(ctx, id)
	if err == nil {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return &cached, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		s.logger.Warn("cache get failed", zap.String("id", id), zap.Error(err))
	}

	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, *p); err != nil {
		s.logger.Warn("cache set failed", zap.String("id", id), zap.Error(err))
	}
	return p, nil
}

func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

// TotalSales is the exact value of all stock on hand: the sum of price times
// quantity over every product.
func (s *Service) TotalSales(ctx context.Context) (pricing.Money, error) {
	ctx, span := tracing.Start(ctx, "product.TotalSales")
	defer span.End()

	stock, err := s.repo.ListStock(ctx)
	if err != nil {
		return pricing.Zero, err
	}
	total, err := pricing.AggregateSales(stock)
	if err != nil {
		span.RecordError(err)
		return pricing.Zero, err
	}
	span.SetAttributes(attribute.Int("products", len(stock)))
	return total, nil
}

// Invalidate drops cached copies of the given products.
func (s *Service) Invalidate(ctx context.Context, ids ...string) {
	if err := s.cache.Delete(ctx, ids...); err != nil {
		s.logger.Warn("cache invalidate failed", zap.Strings("ids", ids), zap.Error(err))
	}
}
