package sale

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
	stock  Stock
	logger *zap.Logger
}

func NewPostgres(pool *pgxpool.Pool, stock Stock, logger *zap.Logger) Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &postgresRepo{pool: pool, stock: stock, logger: logger.Named("sale_repo")}
}

// isInvalidUUID reports a malformed id, which cannot match any row.
func isInvalidUUID(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "22P02"
}

func (r *postgresRepo) Record(ctx context.Context, s domain.Sale) (*domain.Sale, error) {
	if len(s.Lines) == 0 {
		return nil, errors.New("sale repo: no lines")
	}
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		for _, line := range s.Lines {
			if _, err := r.stock.DecrementQuantity(ctx, tx, line.ProductID, line.Quantity); err != nil {
				return err
			}
		}

		const insertSale = `
INSERT INTO sales (sold_by, customer_name, customer_contact, customer_email, customer_wallet, total_amount)
VALUES ($1, $2, $3, $4, $5, $6::numeric)
RETURNING id::text, created_at
`
		err := tx.QueryRow(ctx, insertSale,
			s.SoldBy,
			s.Customer.FullName,
			s.Customer.ContactNumber,
			s.Customer.Email,
			s.Customer.WalletAddress,
			s.Total.String(),
		).Scan(&s.ID, &s.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert sale: %w", err)
		}

		const insertLine = `
INSERT INTO sale_lines (sale_id, position, product_id, product_name, quantity, unit_price, line_total)
VALUES ($1, $2, $3, $4, $5, $6::numeric, $7::numeric)
`
		batch := &pgx.Batch{}
		for i, line := range s.Lines {
			batch.Queue(insertLine, s.ID, i, line.ProductID, line.ProductName, line.Quantity,
				line.UnitPrice.String(), line.LineTotal.String())
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert sale lines: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientStock) || errors.Is(err, domain.ErrNotFound) {
			r.logger.Info("sale rejected", zap.Error(err))
		} else {
			r.logger.Error("record failed", zap.Error(err))
		}
		return nil, err
	}
	r.logger.Info("recorded", zap.String("id", s.ID), zap.Int("lines", len(s.Lines)), zap.String("total", s.Total.String()))
	return &s, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Sale, error) {
	const q = `
SELECT id::text, sold_by::text, customer_name, customer_contact, customer_email, customer_wallet, total_amount::text, created_at
FROM sales
WHERE id = $1
`
	var (
		s     domain.Sale
		total string
	)
	err := r.pool.QueryRow(ctx, q, id).Scan(&s.ID, &s.SoldBy, &s.Customer.FullName, &s.Customer.ContactNumber,
		&s.Customer.Email, &s.Customer.WalletAddress, &total, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidUUID(err) {
			r.logger.Debug("not found", zap.String("id", id))
			return nil, domain.ErrNotFound
		}
		r.logger.Error("get failed", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	if s.Total, err = pricing.Parse(total); err != nil {
		return nil, fmt.Errorf("stored total %q for sale %s: %w", total, id, err)
	}

	const lines = `
SELECT product_id::text, product_name, quantity, unit_price::text, line_total::text
FROM sale_lines
WHERE sale_id = $1
ORDER BY position
`
	rows, err := r.pool.Query(ctx, lines, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			l               domain.CartLine
			unit, lineTotal string
		)
		if err := rows.Scan(&l.ProductID, &l.ProductName, &l.Quantity, &unit, &lineTotal); err != nil {
			return nil, err
		}
		if l.UnitPrice, err = pricing.Parse(unit); err != nil {
			return nil, err
		}
		if l.LineTotal, err = pricing.Parse(lineTotal); err != nil {
			return nil, err
		}
		s.Lines = append(s.Lines, l)
	}
	return &s, rows.Err()
}
