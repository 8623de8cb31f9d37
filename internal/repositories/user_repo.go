package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/finlens/ledgersync/internal/models"
)

var ErrNotFound = errors.New("not found")

type PostgresUserRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresUserRepository(pool *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

func (r *PostgresUserRepository) Create(ctx context.Context, user *models.User) error {
	query := `INSERT INTO users (email, password_hash)
              VALUES ($1, $2)
              RETURNING id, created_at`

	err := r.pool.QueryRow(ctx, query, user.Email, user.PasswordHash).
		Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *PostgresUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := `SELECT id, email, password_hash, reset_token, created_at, updated_at, deleted_at
	          FROM users WHERE id = $1 AND deleted_at IS NULL`

	return r.scanUser(r.pool.QueryRow(ctx, query, id))
}

func (r *PostgresUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT id, email, password_hash, reset_token, created_at, updated_at, deleted_at
	          FROM users WHERE email = $1 AND deleted_at IS NULL`

	return r.scanUser(r.pool.QueryRow(ctx, query, email))
}

func (r *PostgresUserRepository) GetByResetToken(ctx context.Context, token string) (*models.User, error) {
	query := `SELECT id, email, password_hash, reset_token, created_at, updated_at, deleted_at
	          FROM users WHERE reset_token = $1 AND deleted_at IS NULL`

	return r.scanUser(r.pool.QueryRow(ctx, query, token))
}

func (r *PostgresUserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	query := `UPDATE users
	          SET password_hash = $1, reset_token = NULL, updated_at = NOW()
	          WHERE id = $2 AND deleted_at IS NULL`

	result, err := r.pool.Exec(ctx, query, passwordHash, id)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresUserRepository) SetResetToken(ctx context.Context, id uuid.UUID, token string) error {
	query := `UPDATE users SET reset_token = $1, updated_at = NOW()
	          WHERE id = $2 AND deleted_at IS NULL`

	result, err := r.pool.Exec(ctx, query, token, id)
	if err != nil {
		return fmt.Errorf("failed to set reset token: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresUserRepository) scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.ResetToken,
		&user.CreatedAt,
		&user.UpdatedAt,
		&user.DeletedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}
