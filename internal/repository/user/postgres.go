package user

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"cryptomart/internal/domain"
)

const uniqueViolation = "23505"

type postgresRepo struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPostgres returns a Repository over a database/sql handle.
func NewPostgres(db *sql.DB, logger *zap.Logger) Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &postgresRepo{db: db, logger: logger.Named("user_repo")}
}

func (r *postgresRepo) Create(ctx context.Context, u domain.User) (*domain.User, error) {
	const q = `
INSERT INTO users (username, email, password_hash, role)
VALUES ($1, $2, $3, $4)
RETURNING id::text, username, email, password_hash, role, created_at
`
	created, err := scanUser(r.db.QueryRowContext(ctx, q, u.Username, strings.ToLower(u.Email), u.PasswordHash, string(u.Role)))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			r.logger.Debug("duplicate user", zap.String("username", u.Username), zap.String("constraint", pgErr.ConstraintName))
			return nil, domain.ErrAlreadyExists
		}
		r.logger.Error("create failed", zap.String("username", u.Username), zap.Error(err))
		return nil, err
	}
	r.logger.Info("created", zap.String("id", created.ID), zap.String("role", string(created.Role)))
	return created, nil
}

func (r *postgresRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	const q = `
SELECT id::text, username, email, password_hash, role, created_at
FROM users
WHERE username = $1
`
	return r.get(ctx, q, username)
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	const q = `
SELECT id::text, username, email, password_hash, role, created_at
FROM users
WHERE id = $1
`
	return r.get(ctx, q, id)
}

func (r *postgresRepo) get(ctx context.Context, q string, arg string) (*domain.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, q, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		r.logger.Error("get failed", zap.Error(err))
		return nil, err
	}
	return u, nil
}

func (r *postgresRepo) Count(ctx context.Context) (int, error) {
	const q = `SELECT count(*) FROM users`
	var n int
	if err := r.db.QueryRowContext(ctx, q).Scan(&n); err != nil {
		r.logger.Error("count failed", zap.Error(err))
		return 0, err
	}
	return n, nil
}

func scanUser(row *sql.Row) (*domain.User, error) {
	var (
		u    domain.User
		role string
	)
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &role, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.Role = domain.Role(role)
	return &u, nil
}
