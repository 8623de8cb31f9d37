package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/finlens/ledgersync/internal/models"
)

// PostgresRecordRepository stores the synced QuickBooks entities. Each
// upsert is a single INSERT ... ON CONFLICT keyed by the connection and
// the provider's id, so re-syncing the same record overwrites it rather
// than duplicating it (last write wins).
type PostgresRecordRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRecordRepository(pool *pgxpool.Pool) *PostgresRecordRepository {
	return &PostgresRecordRepository{pool: pool}
}

func (r *PostgresRecordRepository) UpsertAccount(ctx context.Context, account *models.Account) error {
	query := `INSERT INTO quickbooks_accounts
	              (connection_id, qb_id, name, account_type, account_sub_type, current_balance)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          ON CONFLICT (connection_id, qb_id) DO UPDATE SET
	              name = EXCLUDED.name,
	              account_type = EXCLUDED.account_type,
	              account_sub_type = EXCLUDED.account_sub_type,
	              current_balance = EXCLUDED.current_balance,
	              synced_at = NOW()
	          RETURNING id, synced_at`

	err := r.pool.QueryRow(ctx, query,
		account.ConnectionID,
		account.QBID,
		account.Name,
		account.AccountType,
		account.AccountSubType,
		account.CurrentBalance,
	).Scan(&account.ID, &account.SyncedAt)

	if err != nil {
		return fmt.Errorf("failed to upsert account: %w", err)
	}
	return nil
}

func (r *PostgresRecordRepository) UpsertCustomer(ctx context.Context, customer *models.Customer) error {
	query := `INSERT INTO quickbooks_customers
	              (connection_id, qb_id, display_name, email, balance)
	          VALUES ($1, $2, $3, $4, $5)
	          ON CONFLICT (connection_id, qb_id) DO UPDATE SET
	              display_name = EXCLUDED.display_name,
	              email = EXCLUDED.email,
	              balance = EXCLUDED.balance,
	              synced_at = NOW()
	          RETURNING id, synced_at`

	err := r.pool.QueryRow(ctx, query,
		customer.ConnectionID,
		customer.QBID,
		customer.DisplayName,
		customer.Email,
		customer.Balance,
	).Scan(&customer.ID, &customer.SyncedAt)

	if err != nil {
		return fmt.Errorf("failed to upsert customer: %w", err)
	}
	return nil
}

func (r *PostgresRecordRepository) UpsertVendor(ctx context.Context, vendor *models.Vendor) error {
	query := `INSERT INTO quickbooks_vendors
	              (connection_id, qb_id, display_name, email, balance)
	          VALUES ($1, $2, $3, $4, $5)
	          ON CONFLICT (connection_id, qb_id) DO UPDATE SET
	              display_name = EXCLUDED.display_name,
	              email = EXCLUDED.email,
	              balance = EXCLUDED.balance,
	              synced_at = NOW()
	          RETURNING id, synced_at`

	err := r.pool.QueryRow(ctx, query,
		vendor.ConnectionID,
		vendor.QBID,
		vendor.DisplayName,
		vendor.Email,
		vendor.Balance,
	).Scan(&vendor.ID, &vendor.SyncedAt)

	if err != nil {
		return fmt.Errorf("failed to upsert vendor: %w", err)
	}
	return nil
}

func (r *PostgresRecordRepository) UpsertInvoice(ctx context.Context, invoice *models.Invoice) error {
	query := `INSERT INTO quickbooks_invoices
	              (connection_id, qb_id, customer_name, total, status, raw_data)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          ON CONFLICT (connection_id, qb_id) DO UPDATE SET
	              customer_name = EXCLUDED.customer_name,
	              total = EXCLUDED.total,
	              status = EXCLUDED.status,
	              raw_data = EXCLUDED.raw_data,
	              synced_at = NOW()
	          RETURNING id, synced_at`

	err := r.pool.QueryRow(ctx, query,
		invoice.ConnectionID,
		invoice.QBID,
		invoice.CustomerName,
		invoice.Total,
		invoice.Status,
		invoice.RawData,
	).Scan(&invoice.ID, &invoice.SyncedAt)

	if err != nil {
		return fmt.Errorf("failed to upsert invoice: %w", err)
	}
	return nil
}

func (r *PostgresRecordRepository) UpsertBill(ctx context.Context, bill *models.Bill) error {
	query := `INSERT INTO quickbooks_bills
	              (connection_id, qb_id, vendor_name, total, status, raw_data)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          ON CONFLICT (connection_id, qb_id) DO UPDATE SET
	              vendor_name = EXCLUDED.vendor_name,
	              total = EXCLUDED.total,
	              status = EXCLUDED.status,
	              raw_data = EXCLUDED.raw_data,
	              synced_at = NOW()
	          RETURNING id, synced_at`

	err := r.pool.QueryRow(ctx, query,
		bill.ConnectionID,
		bill.QBID,
		bill.VendorName,
		bill.Total,
		bill.Status,
		bill.RawData,
	).Scan(&bill.ID, &bill.SyncedAt)

	if err != nil {
		return fmt.Errorf("failed to upsert bill: %w", err)
	}
	return nil
}

func (r *PostgresRecordRepository) UpsertPayment(ctx context.Context, payment *models.Payment) error {
	query := `INSERT INTO quickbooks_payments
	              (connection_id, qb_id, customer_name, vendor_name, amount, payment_date, raw_data)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          ON CONFLICT (connection_id, qb_id) DO UPDATE SET
	              customer_name = EXCLUDED.customer_name,
	              vendor_name = EXCLUDED.vendor_name,
	              amount = EXCLUDED.amount,
	              payment_date = EXCLUDED.payment_date,
	              raw_data = EXCLUDED.raw_data,
	              synced_at = NOW()
	          RETURNING id, synced_at`

	err := r.pool.QueryRow(ctx, query,
		payment.ConnectionID,
		payment.QBID,
		payment.CustomerName,
		payment.VendorName,
		payment.Amount,
		payment.PaymentDate,
		payment.RawData,
	).Scan(&payment.ID, &payment.SyncedAt)

	if err != nil {
		return fmt.Errorf("failed to upsert payment: %w", err)
	}
	return nil
}

// UpsertTransaction keys on (connection_id, qb_id, transaction_type):
// QuickBooks reuses ids across transaction kinds.
func (r *PostgresRecordRepository) UpsertTransaction(ctx context.Context, txn *models.Transaction) error {
	query := `INSERT INTO quickbooks_transactions
	              (connection_id, qb_id, transaction_type, transaction_date, amount,
	               customer_name, vendor_name, description, raw_data)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	          ON CONFLICT (connection_id, qb_id, transaction_type) DO UPDATE SET
	              transaction_date = EXCLUDED.transaction_date,
	              amount = EXCLUDED.amount,
	              customer_name = EXCLUDED.customer_name,
	              vendor_name = EXCLUDED.vendor_name,
	              description = EXCLUDED.description,
	              raw_data = EXCLUDED.raw_data,
	              synced_at = NOW()
	          RETURNING id, synced_at`

	err := r.pool.QueryRow(ctx, query,
		txn.ConnectionID,
		txn.QBID,
		txn.TransactionType,
		txn.TransactionDate,
		txn.Amount,
		txn.CustomerName,
		txn.VendorName,
		txn.Description,
		txn.RawData,
	).Scan(&txn.ID, &txn.SyncedAt)

	if err != nil {
		return fmt.Errorf("failed to upsert transaction: %w", err)
	}
	return nil
}

func (r *PostgresRecordRepository) ListAccounts(ctx context.Context, connectionID uuid.UUID) ([]*models.Account, error) {
	query := `SELECT id, connection_id, qb_id, name, account_type, account_sub_type, current_balance, synced_at
	          FROM quickbooks_accounts
	          WHERE connection_id = $1
	          ORDER BY name ASC`

	rows, err := r.pool.Query(ctx, query, connectionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*models.Account
	for rows.Next() {
		var a models.Account
		err := rows.Scan(&a.ID, &a.ConnectionID, &a.QBID, &a.Name, &a.AccountType, &a.AccountSubType, &a.CurrentBalance, &a.SyncedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, &a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating accounts: %w", err)
	}
	return accounts, nil
}

func (r *PostgresRecordRepository) ListCustomers(ctx context.Context, connectionID uuid.UUID) ([]*models.Customer, error) {
	query := `SELECT id, connection_id, qb_id, display_name, email, balance, synced_at
	          FROM quickbooks_customers
	          WHERE connection_id = $1
	          ORDER BY display_name ASC`

	rows, err := r.pool.Query(ctx, query, connectionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query customers: %w", err)
	}
	defer rows.Close()

	var customers []*models.Customer
	for rows.Next() {
		var c models.Customer
		err := rows.Scan(&c.ID, &c.ConnectionID, &c.QBID, &c.DisplayName, &c.Email, &c.Balance, &c.SyncedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan customer: %w", err)
		}
		customers = append(customers, &c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating customers: %w", err)
	}
	return customers, nil
}

func (r *PostgresRecordRepository) ListVendors(ctx context.Context, connectionID uuid.UUID) ([]*models.Vendor, error) {
	query := `SELECT id, connection_id, qb_id, display_name, email, balance, synced_at
	          FROM quickbooks_vendors
	          WHERE connection_id = $1
	          ORDER BY display_name ASC`

	rows, err := r.pool.Query(ctx, query, connectionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query vendors: %w", err)
	}
	defer rows.Close()

	var vendors []*models.Vendor
	for rows.Next() {
		var v models.Vendor
		err := rows.Scan(&v.ID, &v.ConnectionID, &v.QBID, &v.DisplayName, &v.Email, &v.Balance, &v.SyncedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan vendor: %w", err)
		}
		vendors = append(vendors, &v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating vendors: %w", err)
	}
	return vendors, nil
}

func (r *PostgresRecordRepository) ListInvoices(ctx context.Context, connectionID uuid.UUID) ([]*models.Invoice, error) {
	query := `SELECT id, connection_id, qb_id, customer_name, total, status, raw_data, synced_at
	          FROM quickbooks_invoices
	          WHERE connection_id = $1
	          ORDER BY synced_at DESC`

	rows, err := r.pool.Query(ctx, query, connectionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query invoices: %w", err)
	}
	defer rows.Close()

	var invoices []*models.Invoice
	for rows.Next() {
		var inv models.Invoice
		err := rows.Scan(&inv.ID, &inv.ConnectionID, &inv.QBID, &inv.CustomerName, &inv.Total, &inv.Status, &inv.RawData, &inv.SyncedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invoice: %w", err)
		}
		invoices = append(invoices, &inv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating invoices: %w", err)
	}
	return invoices, nil
}

func (r *PostgresRecordRepository) ListBills(ctx context.Context, connectionID uuid.UUID) ([]*models.Bill, error) {
	query := `SELECT id, connection_id, qb_id, vendor_name, total, status, raw_data, synced_at
	          FROM quickbooks_bills
	          WHERE connection_id = $1
	          ORDER BY synced_at DESC`

	rows, err := r.pool.Query(ctx, query, connectionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query bills: %w", err)
	}
	defer rows.Close()

	var bills []*models.Bill
	for rows.Next() {
		var b models.Bill
		err := rows.Scan(&b.ID, &b.ConnectionID, &b.QBID, &b.VendorName, &b.Total, &b.Status, &b.RawData, &b.SyncedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bill: %w", err)
		}
		bills = append(bills, &b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bills: %w", err)
	}
	return bills, nil
}

func (r *PostgresRecordRepository) ListPayments(ctx context.Context, connectionID uuid.UUID) ([]*models.Payment, error) {
	query := `SELECT id, connection_id, qb_id, customer_name, vendor_name, amount, payment_date, raw_data, synced_at
	          FROM quickbooks_payments
	          WHERE connection_id = $1
	          ORDER BY payment_date DESC`

	rows, err := r.pool.Query(ctx, query, connectionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query payments: %w", err)
	}
	defer rows.Close()

	var payments []*models.Payment
	for rows.Next() {
		var p models.Payment
		err := rows.Scan(&p.ID, &p.ConnectionID, &p.QBID, &p.CustomerName, &p.VendorName, &p.Amount, &p.PaymentDate, &p.RawData, &p.SyncedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating payments: %w", err)
	}
	return payments, nil
}

func (r *PostgresRecordRepository) ListTransactions(ctx context.Context, connectionID uuid.UUID) ([]*models.Transaction, error) {
	query := `SELECT id, connection_id, qb_id, transaction_type, transaction_date, amount,
	                 customer_name, vendor_name, description, raw_data, synced_at
	          FROM quickbooks_transactions
	          WHERE connection_id = $1
	          ORDER BY transaction_date DESC`

	rows, err := r.pool.Query(ctx, query, connectionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var txns []*models.Transaction
	for rows.Next() {
		var t models.Transaction
		err := rows.Scan(&t.ID, &t.ConnectionID, &t.QBID, &t.TransactionType, &t.TransactionDate, &t.Amount,
			&t.CustomerName, &t.VendorName, &t.Description, &t.RawData, &t.SyncedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txns = append(txns, &t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}
	return txns, nil
}
