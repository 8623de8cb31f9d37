package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/finlens/ledgersync/internal/models"
)

type PostgresSyncLogRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresSyncLogRepository(pool *pgxpool.Pool) *PostgresSyncLogRepository {
	return &PostgresSyncLogRepository{pool: pool}
}

func (r *PostgresSyncLogRepository) Create(ctx context.Context, syncLog *models.SyncLog) error {
	query := `INSERT INTO quickbooks_sync_logs
	              (connection_id, sync_type, status, records_synced, error_message, started_at, completed_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING id`

	err := r.pool.QueryRow(ctx, query,
		syncLog.ConnectionID,
		syncLog.SyncType,
		syncLog.Status,
		syncLog.RecordsSynced,
		syncLog.ErrorMessage,
		syncLog.StartedAt,
		syncLog.CompletedAt,
	).Scan(&syncLog.ID)

	if err != nil {
		return fmt.Errorf("failed to create sync log: %w", err)
	}
	return nil
}

func (r *PostgresSyncLogRepository) ListByConnectionID(ctx context.Context, connectionID uuid.UUID, limit int) ([]*models.SyncLog, error) {
	query := `SELECT id, connection_id, sync_type, status, records_synced, error_message, started_at, completed_at
	          FROM quickbooks_sync_logs
	          WHERE connection_id = $1
	          ORDER BY started_at DESC
	          LIMIT $2`

	rows, err := r.pool.Query(ctx, query, connectionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync logs: %w", err)
	}
	defer rows.Close()

	var logs []*models.SyncLog
	for rows.Next() {
		var l models.SyncLog
		err := rows.Scan(&l.ID, &l.ConnectionID, &l.SyncType, &l.Status, &l.RecordsSynced, &l.ErrorMessage, &l.StartedAt, &l.CompletedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sync log: %w", err)
		}
		logs = append(logs, &l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sync logs: %w", err)
	}
	return logs, nil
}
