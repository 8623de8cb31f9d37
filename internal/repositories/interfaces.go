package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/finlens/ledgersync/internal/models"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	SetResetToken(ctx context.Context, id uuid.UUID, token string) error
	GetByResetToken(ctx context.Context, token string) (*models.User, error)
}

type CompanyRepository interface {
	Create(ctx context.Context, company *models.Company) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Company, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Company, error)
	GetByEmail(ctx context.Context, email string) (*models.Company, error)
}

// ConnectionRepository is the token store: one connection per company,
// upserted on the OAuth callback, token fields rewritten on refresh.
type ConnectionRepository interface {
	GetByCompanyID(ctx context.Context, companyID uuid.UUID) (*models.Connection, error)
	Upsert(ctx context.Context, conn *models.Connection) error
	UpdateTokens(ctx context.Context, conn *models.Connection) error
	StampLastSynced(ctx context.Context, connectionID uuid.UUID, syncedAt time.Time) error
	DeleteByCompanyID(ctx context.Context, companyID uuid.UUID) error
}

// RecordRepository holds the synced QuickBooks entities. Every upsert is
// keyed by the provider's own id scoped to the connection, so replaying
// a sync never duplicates rows.
type RecordRepository interface {
	UpsertAccount(ctx context.Context, account *models.Account) error
	UpsertCustomer(ctx context.Context, customer *models.Customer) error
	UpsertVendor(ctx context.Context, vendor *models.Vendor) error
	UpsertInvoice(ctx context.Context, invoice *models.Invoice) error
	UpsertBill(ctx context.Context, bill *models.Bill) error
	UpsertPayment(ctx context.Context, payment *models.Payment) error
	UpsertTransaction(ctx context.Context, txn *models.Transaction) error

	ListAccounts(ctx context.Context, connectionID uuid.UUID) ([]*models.Account, error)
	ListCustomers(ctx context.Context, connectionID uuid.UUID) ([]*models.Customer, error)
	ListVendors(ctx context.Context, connectionID uuid.UUID) ([]*models.Vendor, error)
	ListInvoices(ctx context.Context, connectionID uuid.UUID) ([]*models.Invoice, error)
	ListBills(ctx context.Context, connectionID uuid.UUID) ([]*models.Bill, error)
	ListPayments(ctx context.Context, connectionID uuid.UUID) ([]*models.Payment, error)
	ListTransactions(ctx context.Context, connectionID uuid.UUID) ([]*models.Transaction, error)
}

type SyncLogRepository interface {
	Create(ctx context.Context, syncLog *models.SyncLog) error
	ListByConnectionID(ctx context.Context, connectionID uuid.UUID, limit int) ([]*models.SyncLog, error)
}

type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) error
	GetByID(ctx context.Context, id string) (*models.Session, error)
	Delete(ctx context.Context, id string) error
	DeleteAllForUser(ctx context.Context, userID uuid.UUID) error
}
