package sale

import (
	"context"

	"github.com/jackc/pgx/v5"

	"cryptomart/internal/domain"
)

type Repository interface {
	// Record stores s and takes its quantities out of stock in one
	// transaction. Nothing is written when any line cannot be fulfilled.
	Record(ctx context.Context, s domain.Sale) (*domain.Sale, error)
	GetByID(ctx context.Context, id string) (*domain.Sale, error)
}

// Stock is the part of the product repository a sale needs.
type Stock interface {
	DecrementQuantity(ctx context.Context, tx pgx.Tx, id string, qty int) (*domain.Product, error)
}
