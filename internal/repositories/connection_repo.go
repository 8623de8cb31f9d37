package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/finlens/ledgersync/internal/models"
)

type PostgresConnectionRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresConnectionRepository(pool *pgxpool.Pool) *PostgresConnectionRepository {
	return &PostgresConnectionRepository{pool: pool}
}

func (r *PostgresConnectionRepository) GetByCompanyID(ctx context.Context, companyID uuid.UUID) (*models.Connection, error) {
	query := `SELECT id, company_id, realm_id, access_token, refresh_token,
	                 token_expires_at, is_active, last_synced, created_at, updated_at
	          FROM quickbooks_connections
	          WHERE company_id = $1`

	var conn models.Connection
	err := r.pool.QueryRow(ctx, query, companyID).Scan(
		&conn.ID,
		&conn.CompanyID,
		&conn.RealmID,
		&conn.AccessToken,
		&conn.RefreshToken,
		&conn.TokenExpiresAt,
		&conn.IsActive,
		&conn.LastSynced,
		&conn.CreatedAt,
		&conn.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get connection: %w", err)
	}
	return &conn, nil
}

// Upsert writes the singleton connection for a company. A repeated OAuth
// callback for the same company overwrites the credentials in place and
// reactivates the connection instead of creating a second row.
func (r *PostgresConnectionRepository) Upsert(ctx context.Context, conn *models.Connection) error {
	query := `INSERT INTO quickbooks_connections
	              (company_id, realm_id, access_token, refresh_token, token_expires_at, is_active)
	          VALUES ($1, $2, $3, $4, $5, TRUE)
	          ON CONFLICT (company_id) DO UPDATE SET
	              realm_id = EXCLUDED.realm_id,
	              access_token = EXCLUDED.access_token,
	              refresh_token = EXCLUDED.refresh_token,
	              token_expires_at = EXCLUDED.token_expires_at,
	              is_active = TRUE,
	              updated_at = NOW()
	          RETURNING id, is_active, last_synced, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		conn.CompanyID,
		conn.RealmID,
		conn.AccessToken,
		conn.RefreshToken,
		conn.TokenExpiresAt,
	).Scan(&conn.ID, &conn.IsActive, &conn.LastSynced, &conn.CreatedAt, &conn.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to upsert connection: %w", err)
	}
	return nil
}

func (r *PostgresConnectionRepository) UpdateTokens(ctx context.Context, conn *models.Connection) error {
	query := `UPDATE quickbooks_connections
	          SET access_token = $1, refresh_token = $2, token_expires_at = $3, updated_at = NOW()
	          WHERE id = $4`

	result, err := r.pool.Exec(ctx, query,
		conn.AccessToken,
		conn.RefreshToken,
		conn.TokenExpiresAt,
		conn.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update tokens: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresConnectionRepository) StampLastSynced(ctx context.Context, connectionID uuid.UUID, syncedAt time.Time) error {
	query := `UPDATE quickbooks_connections
	          SET last_synced = $1, updated_at = NOW()
	          WHERE id = $2`

	result, err := r.pool.Exec(ctx, query, syncedAt, connectionID)
	if err != nil {
		return fmt.Errorf("failed to stamp last synced: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteByCompanyID removes the connection row entirely. Synced records
// cascade with it; disconnect is the one operation that deletes data.
func (r *PostgresConnectionRepository) DeleteByCompanyID(ctx context.Context, companyID uuid.UUID) error {
	query := `DELETE FROM quickbooks_connections WHERE company_id = $1`

	result, err := r.pool.Exec(ctx, query, companyID)
	if err != nil {
		return fmt.Errorf("failed to delete connection: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
