package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/finlens/ledgersync/internal/models"
	"github.com/finlens/ledgersync/internal/quickbooks"
	"github.com/finlens/ledgersync/internal/repositories"
)

var (
	ErrNotConnected = errors.New("quickbooks not connected")
	ErrInvalidState = errors.New("invalid oauth state")
)

// Tokens within this margin of expiry are refreshed before use; fresher
// ones are used as-is to avoid burning upstream calls.
const tokenRefreshMargin = 5 * time.Minute

const statePrefix = "company_"

// OAuthProvider is the slice of the OAuth client the orchestrator needs.
type OAuthProvider interface {
	AuthorizationURL(state string) string
	ExchangeCode(ctx context.Context, code, realmID string) (*quickbooks.TokenSet, error)
	Refresh(ctx context.Context, conn *models.Connection) (*quickbooks.TokenSet, error)
}

// Fetcher is the slice of the query client the orchestrator needs.
type Fetcher interface {
	Fetch(ctx context.Context, conn *models.Connection, entity string, dateRange *quickbooks.DateRange) ([]map[string]interface{}, error)
}

// EntityOutcome is the per-kind result of a full sync: a count, or the
// error that stopped that kind. One kind's failure never aborts the rest.
type EntityOutcome struct {
	Synced int    `json:"synced"`
	Error  string `json:"error,omitempty"`
}

// SyncService orchestrates the QuickBooks connection lifecycle and the
// sync passes over the entity catalog.
type SyncService struct {
	connections repositories.ConnectionRepository
	companies   repositories.CompanyRepository
	syncLogs    repositories.SyncLogRepository
	reconciler  *Reconciler
	oauth       OAuthProvider
	fetcher     Fetcher

	// refresh is single-flight per connection: Intuit rotates refresh
	// tokens, so concurrent refreshes can invalidate each other.
	refreshGroup singleflight.Group
}

func NewSyncService(
	connections repositories.ConnectionRepository,
	companies repositories.CompanyRepository,
	syncLogs repositories.SyncLogRepository,
	reconciler *Reconciler,
	oauth OAuthProvider,
	fetcher Fetcher,
) *SyncService {
	return &SyncService{
		connections: connections,
		companies:   companies,
		syncLogs:    syncLogs,
		reconciler:  reconciler,
		oauth:       oauth,
		fetcher:     fetcher,
	}
}

// InitiateAuthorization returns the browser redirect URL. The company id
// rides in the state parameter so the callback can resolve the tenant.
func (s *SyncService) InitiateAuthorization(companyID uuid.UUID) string {
	return s.oauth.AuthorizationURL(statePrefix + companyID.String())
}

// CompleteAuthorization exchanges the callback code for tokens and
// upserts the company's connection. Repeating the callback for the same
// company rewrites the credentials instead of creating a duplicate.
func (s *SyncService) CompleteAuthorization(ctx context.Context, code, realmID, state string) (*models.Connection, error) {
	if !strings.HasPrefix(state, statePrefix) {
		return nil, ErrInvalidState
	}
	companyID, err := uuid.Parse(strings.TrimPrefix(state, statePrefix))
	if err != nil {
		return nil, ErrInvalidState
	}

	company, err := s.companies.GetByID(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve company from state: %w", err)
	}

	tokens, err := s.oauth.ExchangeCode(ctx, code, realmID)
	if err != nil {
		return nil, err
	}

	conn := &models.Connection{
		CompanyID:      company.ID,
		RealmID:        tokens.RealmID,
		AccessToken:    tokens.AccessToken,
		RefreshToken:   tokens.RefreshToken,
		TokenExpiresAt: tokens.ExpiresAt(time.Now()),
		IsActive:       true,
	}
	if err := s.connections.Upsert(ctx, conn); err != nil {
		return nil, err
	}
	return conn, nil
}

func (s *SyncService) Disconnect(ctx context.Context, companyID uuid.UUID) error {
	err := s.connections.DeleteByCompanyID(ctx, companyID)
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrNotConnected
	}
	return err
}

func (s *SyncService) ConnectionStatus(ctx context.Context, companyID uuid.UUID) (*models.Connection, error) {
	return s.connection(ctx, companyID)
}

func (s *SyncService) SyncHistory(ctx context.Context, companyID uuid.UUID, limit int) ([]*models.SyncLog, error) {
	conn, err := s.connection(ctx, companyID)
	if err != nil {
		return nil, err
	}
	return s.syncLogs.ListByConnectionID(ctx, conn.ID, limit)
}

// SyncEntity runs a single-entity sync pass. Unlike SyncAll it
// propagates the first error, including Forbidden.
func (s *SyncService) SyncEntity(ctx context.Context, companyID uuid.UUID, kind models.EntityKind, dateRange *quickbooks.DateRange) (int, error) {
	conn, err := s.connection(ctx, companyID)
	if err != nil {
		return 0, err
	}

	if err := s.ensureFreshToken(ctx, conn); err != nil {
		return 0, err
	}

	started := time.Now()
	count, err := s.syncEntity(ctx, conn, kind, dateRange)
	s.recordSyncLog(ctx, conn.ID, string(kind), count, err, started)
	if err != nil {
		return count, err
	}

	now := time.Now()
	if err := s.connections.StampLastSynced(ctx, conn.ID, now); err != nil {
		return count, err
	}
	conn.LastSynced = &now
	return count, nil
}

// SyncAll walks the full entity catalog. Failures are isolated per
// entity kind: a Forbidden degrades to a zero count, any other error is
// recorded as a description, and the remaining kinds still run. The
// last-synced marker is stamped regardless of per-entity outcomes.
func (s *SyncService) SyncAll(ctx context.Context, companyID uuid.UUID) (map[models.EntityKind]EntityOutcome, error) {
	conn, err := s.connection(ctx, companyID)
	if err != nil {
		return nil, err
	}

	// Refresh once per pass: the token is a precondition shared by all
	// entity kinds, so a refresh failure is charged to every kind
	// rather than retried seven times.
	refreshErr := s.ensureFreshToken(ctx, conn)

	outcomes := make(map[models.EntityKind]EntityOutcome, len(models.EntityCatalog))
	for _, kind := range models.EntityCatalog {
		started := time.Now()

		if refreshErr != nil {
			outcomes[kind] = EntityOutcome{Error: refreshErr.Error()}
			s.recordSyncLog(ctx, conn.ID, string(kind), 0, refreshErr, started)
			continue
		}

		count, err := s.syncEntity(ctx, conn, kind, nil)

		var forbidden *quickbooks.ForbiddenError
		switch {
		case err == nil:
			outcomes[kind] = EntityOutcome{Synced: count}
		case errors.As(err, &forbidden):
			// Access not granted for this entity: degrade to zero
			// instead of failing the pass.
			outcomes[kind] = EntityOutcome{Synced: 0}
			err = nil
		default:
			outcomes[kind] = EntityOutcome{Synced: count, Error: err.Error()}
		}
		s.recordSyncLog(ctx, conn.ID, string(kind), count, err, started)
	}

	now := time.Now()
	if err := s.connections.StampLastSynced(ctx, conn.ID, now); err != nil {
		return outcomes, err
	}
	conn.LastSynced = &now
	return outcomes, nil
}

func (s *SyncService) syncEntity(ctx context.Context, conn *models.Connection, kind models.EntityKind, dateRange *quickbooks.DateRange) (int, error) {
	raws, err := s.fetcher.Fetch(ctx, conn, string(kind), dateRange)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, raw := range raws {
		if err := s.reconciler.Reconcile(ctx, conn.ID, kind, raw); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

func (s *SyncService) connection(ctx context.Context, companyID uuid.UUID) (*models.Connection, error) {
	conn, err := s.connections.GetByCompanyID(ctx, companyID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrNotConnected
	}
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// ensureFreshToken refreshes the access token when it is close to
// expiry. Concurrent callers for the same connection share one in-flight
// refresh instead of issuing duplicates.
func (s *SyncService) ensureFreshToken(ctx context.Context, conn *models.Connection) error {
	if time.Until(conn.TokenExpiresAt) >= tokenRefreshMargin {
		return nil
	}

	_, err, _ := s.refreshGroup.Do(conn.ID.String(), func() (interface{}, error) {
		tokens, err := s.oauth.Refresh(ctx, conn)
		if err != nil {
			return nil, err
		}

		conn.AccessToken = tokens.AccessToken
		conn.RefreshToken = tokens.RefreshToken
		conn.TokenExpiresAt = tokens.ExpiresAt(time.Now())

		if err := s.connections.UpdateTokens(ctx, conn); err != nil {
			return nil, err
		}
		return nil, nil
	})
	return err
}

// recordSyncLog persists one per-entity sync outcome. Observability must
// not break the sync itself, so storage failures are only logged.
func (s *SyncService) recordSyncLog(ctx context.Context, connectionID uuid.UUID, syncType string, count int, syncErr error, startedAt time.Time) {
	completed := time.Now()
	entry := &models.SyncLog{
		ConnectionID:  connectionID,
		SyncType:      syncType,
		Status:        models.SyncStatusCompleted,
		RecordsSynced: count,
		StartedAt:     startedAt,
		CompletedAt:   &completed,
	}
	if syncErr != nil {
		entry.Status = models.SyncStatusFailed
		entry.ErrorMessage = syncErr.Error()
	}

	if err := s.syncLogs.Create(ctx, entry); err != nil {
		log.Printf("failed to record sync log for %s: %v", syncType, err)
	}
}
