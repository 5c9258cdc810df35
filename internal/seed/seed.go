package seed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"cryptomart/internal/domain"
	authsvc "cryptomart/internal/service/auth"
	productsvc "cryptomart/internal/service/product"
)

type Admins interface {
	CreateAdmin(ctx context.Context, in authsvc.Credentials) (*domain.User, error)
}

type Users interface {
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
}

type Products interface {
	Count(ctx context.Context) (int, error)
	Create(ctx context.Context, ownerID string, in productsvc.CreateInput) (*domain.Product, error)
}

var demoProducts = []productsvc.CreateInput{
	{
		Name:              "Ledger Nano X",
		Description:       "Bluetooth hardware wallet for cold storage",
		Image:             "https://images.example.com/ledger-nano-x.png",
		ManufacturingDate: time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC),
		Price:             "149.00",
		Quantity:          12,
	},
	{
		Name:              "Antminer S19",
		Description:       "SHA-256 ASIC miner",
		Image:             "https://images.example.com/antminer-s19.png",
		ManufacturingDate: time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC),
		Price:             "2399.995",
		Quantity:          2,
	},
	{
		Name:              "Fractional token bundle",
		Description:       "Bundle priced to fifteen decimal places",
		Image:             "https://images.example.com/token-bundle.png",
		ManufacturingDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Price:             "0.333333333333333",
		Quantity:          30,
	},
}

// Apply ensures the admin account exists and, on an empty catalog, adds demo
// products owned by it. Running it twice changes nothing.
func Apply(ctx context.Context, admins Admins, users Users, products Products, admin authsvc.Credentials, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	owner, err := admins.CreateAdmin(ctx, admin)
	if errors.Is(err, domain.ErrAlreadyExists) {
		owner, err = users.GetByUsername(ctx, admin.Username)
	}
	if err != nil {
		return fmt.Errorf("ensure admin %q: %w", admin.Username, err)
	}
	if !owner.IsAdmin() {
		return fmt.Errorf("user %q exists but is not an admin", admin.Username)
	}

	n, err := products.Count(ctx)
	if err != nil {
		return fmt.Errorf("count products: %w", err)
	}
	if n > 0 {
		logger.Info("catalog not empty, skipping demo products", zap.Int("count", n))
		return nil
	}
	for _, in := range demoProducts {
		p, err := products.Create(ctx, owner.ID, in)
		if err != nil {
			return fmt.Errorf("create product %q: %w", in.Name, err)
		}
		logger.Info("seeded product", zap.String("id", p.ID), zap.String("price", p.Price.String()))
	}
	return nil
}
