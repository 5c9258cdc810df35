package user

import (
	"context"

	"cryptomart/internal/domain"
)

type Repository interface {
	// Create fails with domain.ErrAlreadyExists when the username or email
	// is taken.
	Create(ctx context.Context, u domain.User) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	Count(ctx context.Context) (int, error)
}
