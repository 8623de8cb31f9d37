package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/finlens/ledgersync/internal/models"
	"github.com/finlens/ledgersync/internal/quickbooks"
	"github.com/finlens/ledgersync/internal/repositories"
)

// memoryRecordRepository mirrors the Postgres upsert semantics: rows are
// keyed by their natural key, so a repeated upsert overwrites in place.
type memoryRecordRepository struct {
	mu           sync.Mutex
	accounts     map[string]*models.Account
	customers    map[string]*models.Customer
	vendors      map[string]*models.Vendor
	invoices     map[string]*models.Invoice
	bills        map[string]*models.Bill
	payments     map[string]*models.Payment
	transactions map[string]*models.Transaction
}

func newMemoryRecordRepository() *memoryRecordRepository {
	return &memoryRecordRepository{
		accounts:     make(map[string]*models.Account),
		customers:    make(map[string]*models.Customer),
		vendors:      make(map[string]*models.Vendor),
		invoices:     make(map[string]*models.Invoice),
		bills:        make(map[string]*models.Bill),
		payments:     make(map[string]*models.Payment),
		transactions: make(map[string]*models.Transaction),
	}
}

func recordKey(connectionID uuid.UUID, qbID string) string {
	return connectionID.String() + "/" + qbID
}

func (m *memoryRecordRepository) UpsertAccount(ctx context.Context, account *models.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[recordKey(account.ConnectionID, account.QBID)] = account
	return nil
}

func (m *memoryRecordRepository) UpsertCustomer(ctx context.Context, customer *models.Customer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.customers[recordKey(customer.ConnectionID, customer.QBID)] = customer
	return nil
}

func (m *memoryRecordRepository) UpsertVendor(ctx context.Context, vendor *models.Vendor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vendors[recordKey(vendor.ConnectionID, vendor.QBID)] = vendor
	return nil
}

func (m *memoryRecordRepository) UpsertInvoice(ctx context.Context, invoice *models.Invoice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invoices[recordKey(invoice.ConnectionID, invoice.QBID)] = invoice
	return nil
}

func (m *memoryRecordRepository) UpsertBill(ctx context.Context, bill *models.Bill) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bills[recordKey(bill.ConnectionID, bill.QBID)] = bill
	return nil
}

func (m *memoryRecordRepository) UpsertPayment(ctx context.Context, payment *models.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payments[recordKey(payment.ConnectionID, payment.QBID)] = payment
	return nil
}

func (m *memoryRecordRepository) UpsertTransaction(ctx context.Context, txn *models.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	// Transactions carry the type in the natural key
	m.transactions[recordKey(txn.ConnectionID, txn.QBID)+"/"+txn.TransactionType] = txn
	return nil
}

func (m *memoryRecordRepository) ListAccounts(ctx context.Context, connectionID uuid.UUID) ([]*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Account
	for _, a := range m.accounts {
		if a.ConnectionID == connectionID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memoryRecordRepository) ListCustomers(ctx context.Context, connectionID uuid.UUID) ([]*models.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Customer
	for _, c := range m.customers {
		if c.ConnectionID == connectionID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memoryRecordRepository) ListVendors(ctx context.Context, connectionID uuid.UUID) ([]*models.Vendor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Vendor
	for _, v := range m.vendors {
		if v.ConnectionID == connectionID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (m *memoryRecordRepository) ListInvoices(ctx context.Context, connectionID uuid.UUID) ([]*models.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Invoice
	for _, inv := range m.invoices {
		if inv.ConnectionID == connectionID {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (m *memoryRecordRepository) ListBills(ctx context.Context, connectionID uuid.UUID) ([]*models.Bill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Bill
	for _, b := range m.bills {
		if b.ConnectionID == connectionID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *memoryRecordRepository) ListPayments(ctx context.Context, connectionID uuid.UUID) ([]*models.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Payment
	for _, p := range m.payments {
		if p.ConnectionID == connectionID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memoryRecordRepository) ListTransactions(ctx context.Context, connectionID uuid.UUID) ([]*models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Transaction
	for _, t := range m.transactions {
		if t.ConnectionID == connectionID {
			out = append(out, t)
		}
	}
	return out, nil
}

// memoryConnectionRepository keys connections by company id, matching
// the one-connection-per-company constraint.
type memoryConnectionRepository struct {
	mu          sync.Mutex
	connections map[uuid.UUID]*models.Connection

	updateTokensCalls int
	stampCalls        int
	updateTokensErr   error
}

func newMemoryConnectionRepository() *memoryConnectionRepository {
	return &memoryConnectionRepository{connections: make(map[uuid.UUID]*models.Connection)}
}

func (m *memoryConnectionRepository) GetByCompanyID(ctx context.Context, companyID uuid.UUID) (*models.Connection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	conn, ok := m.connections[companyID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	copied := *conn
	return &copied, nil
}

func (m *memoryConnectionRepository) Upsert(ctx context.Context, conn *models.Connection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.connections[conn.CompanyID]; ok {
		conn.ID = existing.ID
	} else if conn.ID == uuid.Nil {
		conn.ID = uuid.New()
	}
	copied := *conn
	m.connections[conn.CompanyID] = &copied
	return nil
}

func (m *memoryConnectionRepository) UpdateTokens(ctx context.Context, conn *models.Connection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateTokensCalls++
	if m.updateTokensErr != nil {
		return m.updateTokensErr
	}
	for _, existing := range m.connections {
		if existing.ID == conn.ID {
			existing.AccessToken = conn.AccessToken
			existing.RefreshToken = conn.RefreshToken
			existing.TokenExpiresAt = conn.TokenExpiresAt
			return nil
		}
	}
	return repositories.ErrNotFound
}

func (m *memoryConnectionRepository) StampLastSynced(ctx context.Context, connectionID uuid.UUID, syncedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stampCalls++
	for _, existing := range m.connections {
		if existing.ID == connectionID {
			at := syncedAt
			existing.LastSynced = &at
			return nil
		}
	}
	return repositories.ErrNotFound
}

func (m *memoryConnectionRepository) DeleteByCompanyID(ctx context.Context, companyID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.connections[companyID]; !ok {
		return repositories.ErrNotFound
	}
	delete(m.connections, companyID)
	return nil
}

type memorySyncLogRepository struct {
	mu   sync.Mutex
	logs []*models.SyncLog
}

func (m *memorySyncLogRepository) Create(ctx context.Context, syncLog *models.SyncLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = append(m.logs, syncLog)
	return nil
}

func (m *memorySyncLogRepository) ListByConnectionID(ctx context.Context, connectionID uuid.UUID, limit int) ([]*models.SyncLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.SyncLog
	for i := len(m.logs) - 1; i >= 0 && len(out) < limit; i-- {
		if m.logs[i].ConnectionID == connectionID {
			out = append(out, m.logs[i])
		}
	}
	return out, nil
}

func (m *memorySyncLogRepository) byType(syncType string) []*models.SyncLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.SyncLog
	for _, l := range m.logs {
		if l.SyncType == syncType {
			out = append(out, l)
		}
	}
	return out
}

// stubOAuth scripts the provider side of the OAuth flows.
type stubOAuth struct {
	mu           sync.Mutex
	exchanged    *quickbooks.TokenSet
	exchangeErr  error
	refreshed    *quickbooks.TokenSet
	refreshErr   error
	refreshCalls int
}

func (s *stubOAuth) AuthorizationURL(state string) string {
	return "https://appcenter.intuit.com/connect/oauth2?state=" + state
}

func (s *stubOAuth) ExchangeCode(ctx context.Context, code, realmID string) (*quickbooks.TokenSet, error) {
	if s.exchangeErr != nil {
		return nil, s.exchangeErr
	}
	tokens := *s.exchanged
	tokens.RealmID = realmID
	return &tokens, nil
}

func (s *stubOAuth) Refresh(ctx context.Context, conn *models.Connection) (*quickbooks.TokenSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshCalls++
	if s.refreshErr != nil {
		return nil, s.refreshErr
	}
	tokens := *s.refreshed
	return &tokens, nil
}

// stubFetcher serves canned records per entity name, or a scripted error.
type stubFetcher struct {
	records map[string][]map[string]interface{}
	errs    map[string]error
}

func (s *stubFetcher) Fetch(ctx context.Context, conn *models.Connection, entity string, dateRange *quickbooks.DateRange) ([]map[string]interface{}, error) {
	if err, ok := s.errs[entity]; ok {
		return nil, err
	}
	return s.records[entity], nil
}

// memoryUserRepository and friends back the auth service tests.
type memoryUserRepository struct {
	mu    sync.Mutex
	users map[uuid.UUID]*models.User
}

func newMemoryUserRepository() *memoryUserRepository {
	return &memoryUserRepository{users: make(map[uuid.UUID]*models.User)}
}

func (m *memoryUserRepository) Create(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.CreatedAt = time.Now()
	copied := *user
	m.users[user.ID] = &copied
	return nil
}

func (m *memoryUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (m *memoryUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (m *memoryUserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return repositories.ErrNotFound
	}
	user.PasswordHash = passwordHash
	user.ResetToken = nil
	return nil
}

func (m *memoryUserRepository) SetResetToken(ctx context.Context, id uuid.UUID, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return repositories.ErrNotFound
	}
	user.ResetToken = &token
	return nil
}

func (m *memoryUserRepository) GetByResetToken(ctx context.Context, token string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.users {
		if user.ResetToken != nil && *user.ResetToken == token {
			copied := *user
			return &copied, nil
		}
	}
	return nil, repositories.ErrNotFound
}

type memoryCompanyRepository struct {
	mu        sync.Mutex
	companies map[uuid.UUID]*models.Company
}

func newMemoryCompanyRepository() *memoryCompanyRepository {
	return &memoryCompanyRepository{companies: make(map[uuid.UUID]*models.Company)}
}

func (m *memoryCompanyRepository) Create(ctx context.Context, company *models.Company) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if company.ID == uuid.Nil {
		company.ID = uuid.New()
	}
	company.CreatedAt = time.Now()
	copied := *company
	m.companies[company.ID] = &copied
	return nil
}

func (m *memoryCompanyRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	company, ok := m.companies[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	copied := *company
	return &copied, nil
}

func (m *memoryCompanyRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Company, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, company := range m.companies {
		if company.UserID == userID {
			copied := *company
			return &copied, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (m *memoryCompanyRepository) GetByEmail(ctx context.Context, email string) (*models.Company, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, company := range m.companies {
		if company.Email == email {
			copied := *company
			return &copied, nil
		}
	}
	return nil, repositories.ErrNotFound
}

type memorySessionRepository struct {
	mu       sync.Mutex
	sessions map[string]*models.Session
}

func newMemorySessionRepository() *memorySessionRepository {
	return &memorySessionRepository{sessions: make(map[string]*models.Session)}
}

func (m *memorySessionRepository) Create(ctx context.Context, session *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *session
	m.sessions[session.ID] = &copied
	return nil
}

func (m *memorySessionRepository) GetByID(ctx context.Context, id string) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	copied := *session
	return &copied, nil
}

func (m *memorySessionRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func (m *memorySessionRepository) DeleteAllForUser(ctx context.Context, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, session := range m.sessions {
		if session.UserID == userID {
			delete(m.sessions, id)
		}
	}
	return nil
}

// captureMailer records the last reset token instead of sending mail.
type captureMailer struct {
	email string
	token string
}

func (c *captureMailer) SendPasswordReset(ctx context.Context, email, token string) error {
	c.email = email
	c.token = token
	return nil
}
