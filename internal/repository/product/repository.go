package product

import (
	"context"

	"github.com/jackc/pgx/v5"

	"cryptomart/internal/domain"
	"cryptomart/internal/pricing"
)

type Repository interface {
	Create(ctx context.Context, p domain.Product) (*domain.Product, error)
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	// List returns every product, newest first.
	List(ctx context.Context) ([]domain.Product, error)
	Count(ctx context.Context) (int, error)
	// ListStock returns the price and quantity on hand of every product.
	ListStock(ctx context.Context) ([]pricing.SaleRecord, error)
	// DecrementQuantity removes qty units inside tx. It fails with
	// domain.ErrInsufficientStock when fewer are on hand and with
	// domain.ErrNotFound when the product does not exist.
	DecrementQuantity(ctx context.Context, tx pgx.Tx, id string, qty int) (*domain.Product, error)
}
