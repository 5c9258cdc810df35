package product

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"cryptomart/internal/domain"
	"cryptomart/internal/pricing"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &postgresRepo{pool: pool, logger: logger.Named("product_repo")}
}

const productColumns = `id::text, name, description, image, manufacturing_date, price::text, quantity, created_by::text, created_at`

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var (
		p     domain.Product
		price string
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Image, &p.ManufacturingDate, &price, &p.Quantity, &p.CreatedBy, &p.CreatedAt); err != nil {
		return nil, err
	}
	m, err := pricing.Parse(price)
	if err != nil {
		return nil, fmt.Errorf("stored price %q for product %s: %w", price, p.ID, err)
	}
	p.Price = m
	return &p, nil
}

// isInvalidUUID reports a malformed id, which cannot match any row.
func isInvalidUUID(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "22P02"
}

func (r *postgresRepo) Create(ctx context.Context, p domain.Product) (*domain.Product, error) {
	q := `
INSERT INTO products (name, description, image, manufacturing_date, price, quantity, created_by)
VALUES ($1, $2, $3, $4, $5::numeric, $6, $7)
RETURNING ` + productColumns
	created, err := scanProduct(r.pool.QueryRow(ctx, q,
		p.Name,
		p.Description,
		p.Image,
		p.ManufacturingDate,
		p.Price.String(),
		p.Quantity,
		p.CreatedBy,
	))
	if err != nil {
		r.logger.Error("create failed", zap.String("name", p.Name), zap.Error(err))
		return nil, err
	}
	r.logger.Info("created", zap.String("id", created.ID), zap.String("price", created.Price.String()))
	return created, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	q := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	p, err := scanProduct(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidUUID(err) {
			r.logger.Debug("not found", zap.String("id", id))
			return nil, domain.ErrNotFound
		}
		r.logger.Error("get failed", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return p, nil
}

func (r *postgresRepo) List(ctx context.Context) ([]domain.Product, error) {
	q := `SELECT ` + productColumns + ` FROM products ORDER BY created_at DESC, id`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		r.logger.Error("list failed", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	result := make([]domain.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("list rows failed", zap.Error(err))
		return nil, err
	}
	r.logger.Debug("listed", zap.Int("count", len(result)))
	return result, nil
}

func (r *postgresRepo) Count(ctx context.Context) (int, error) {
	const q = `SELECT count(*) FROM products`
	var n int
	if err := r.pool.QueryRow(ctx, q).Scan(&n); err != nil {
		r.logger.Error("count failed", zap.Error(err))
		return 0, err
	}
	return n, nil
}

func (r *postgresRepo) ListStock(ctx context.Context) ([]pricing.SaleRecord, error) {
	const q = `SELECT price::text, quantity FROM products`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		r.logger.Error("list stock failed", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var result []pricing.SaleRecord
	for rows.Next() {
		var (
			price string
			qty   int
		)
		if err := rows.Scan(&price, &qty); err != nil {
			return nil, err
		}
		m, err := pricing.Parse(price)
		if err != nil {
			return nil, fmt.Errorf("stored price %q: %w", price, err)
		}
		result = append(result, pricing.SaleRecord{Price: m, Quantity: qty})
	}
	return result, rows.Err()
}

func (r *postgresRepo) DecrementQuantity(ctx context.Context, tx pgx.Tx, id string, qty int) (*domain.Product, error) {
	q := `
UPDATE products SET quantity = quantity - $2
WHERE id = $1 AND quantity >= $2
RETURNING ` + productColumns
	p, err := scanProduct(tx.QueryRow(ctx, q, id, qty))
	if err == nil {
		return p, nil
	}
	if isInvalidUUID(err) {
		return nil, domain.ErrNotFound
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		r.logger.Error("decrement failed", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	// Distinguish a missing product from one without enough stock.
	var onHand int
	err = tx.QueryRow(ctx, `SELECT quantity FROM products WHERE id = $1`, id).Scan(&onHand)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	r.logger.Debug("insufficient stock", zap.String("id", id), zap.Int("requested", qty), zap.Int("on_hand", onHand))
	return nil, fmt.Errorf("product %s has %d, requested %d: %w", id, onHand, qty, domain.ErrInsufficientStock)
}
