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

type PostgresCompanyRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresCompanyRepository(pool *pgxpool.Pool) *PostgresCompanyRepository {
	return &PostgresCompanyRepository{pool: pool}
}

func (r *PostgresCompanyRepository) Create(ctx context.Context, company *models.Company) error {
	query := `INSERT INTO companies (user_id, name, email)
	          VALUES ($1, $2, $3)
	          RETURNING id, created_at`

	err := r.pool.QueryRow(ctx, query, company.UserID, company.Name, company.Email).
		Scan(&company.ID, &company.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create company: %w", err)
	}
	return nil
}

func (r *PostgresCompanyRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	query := `SELECT id, user_id, name, email, created_at, updated_at, deleted_at
	          FROM companies WHERE id = $1 AND deleted_at IS NULL`

	return r.scanCompany(r.pool.QueryRow(ctx, query, id))
}

func (r *PostgresCompanyRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Company, error) {
	query := `SELECT id, user_id, name, email, created_at, updated_at, deleted_at
	          FROM companies WHERE user_id = $1 AND deleted_at IS NULL`

	return r.scanCompany(r.pool.QueryRow(ctx, query, userID))
}

func (r *PostgresCompanyRepository) GetByEmail(ctx context.Context, email string) (*models.Company, error) {
	query := `SELECT id, user_id, name, email, created_at, updated_at, deleted_at
	          FROM companies WHERE email = $1 AND deleted_at IS NULL`

	return r.scanCompany(r.pool.QueryRow(ctx, query, email))
}

func (r *PostgresCompanyRepository) scanCompany(row pgx.Row) (*models.Company, error) {
	var company models.Company
	err := row.Scan(
		&company.ID,
		&company.UserID,
		&company.Name,
		&company.Email,
		&company.CreatedAt,
		&company.UpdatedAt,
		&company.DeletedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get company: %w", err)
	}
	return &company, nil
}
