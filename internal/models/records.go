package models

import (
	"time"

	"github.com/google/uuid"
)

// EntityKind names a QuickBooks entity. The value doubles as the table
// name in the provider's query language and as the key of the response
// envelope, so it must stay capitalized exactly as Intuit spells it.
type EntityKind string

const (
	KindAccount     EntityKind = "Account"
	KindCustomer    EntityKind = "Customer"
	KindVendor      EntityKind = "Vendor"
	KindInvoice     EntityKind = "Invoice"
	KindBill        EntityKind = "Bill"
	KindPayment     EntityKind = "Payment"
	KindTransaction EntityKind = "Transaction"
)

// EntityCatalog is the fixed set of kinds a full sync walks, in order.
// Transaction goes last: it overlaps conceptually with the other
// transactional entities.
var EntityCatalog = []EntityKind{
	KindAccount,
	KindCustomer,
	KindVendor,
	KindInvoice,
	KindBill,
	KindPayment,
	KindTransaction,
}

// Derived invoice/bill status. QuickBooks does not store this; it is
// computed from the outstanding balance at reconciliation time.
const (
	StatusOpen = "Open"
	StatusPaid = "Paid"
)

// Account is one row of the chart of accounts.
// Unique per (connection_id, qb_id).
type Account struct {
	ID             uuid.UUID `json:"id"`
	ConnectionID   uuid.UUID `json:"connection_id"`
	QBID           string    `json:"qb_id"`
	Name           string    `json:"name"`
	AccountType    string    `json:"account_type"`
	AccountSubType string    `json:"account_sub_type"`
	CurrentBalance float64   `json:"current_balance"`
	SyncedAt       time.Time `json:"synced_at"`
}

type Customer struct {
	ID           uuid.UUID `json:"id"`
	ConnectionID uuid.UUID `json:"connection_id"`
	QBID         string    `json:"qb_id"`
	DisplayName  string    `json:"display_name"`
	Email        string    `json:"email"`
	Balance      float64   `json:"balance"`
	SyncedAt     time.Time `json:"synced_at"`
}

type Vendor struct {
	ID           uuid.UUID `json:"id"`
	ConnectionID uuid.UUID `json:"connection_id"`
	QBID         string    `json:"qb_id"`
	DisplayName  string    `json:"display_name"`
	Email        string    `json:"email"`
	Balance      float64   `json:"balance"`
	SyncedAt     time.Time `json:"synced_at"`
}

type Invoice struct {
	ID           uuid.UUID `json:"id"`
	ConnectionID uuid.UUID `json:"connection_id"`
	QBID         string    `json:"qb_id"`
	CustomerName string    `json:"customer_name"`
	Total        float64   `json:"total"`
	Status       string    `json:"status"`
	RawData      []byte    `json:"-"`
	SyncedAt     time.Time `json:"synced_at"`
}

type Bill struct {
	ID           uuid.UUID `json:"id"`
	ConnectionID uuid.UUID `json:"connection_id"`
	QBID         string    `json:"qb_id"`
	VendorName   string    `json:"vendor_name"`
	Total        float64   `json:"total"`
	Status       string    `json:"status"`
	RawData      []byte    `json:"-"`
	SyncedAt     time.Time `json:"synced_at"`
}

type Payment struct {
	ID           uuid.UUID `json:"id"`
	ConnectionID uuid.UUID `json:"connection_id"`
	QBID         string    `json:"qb_id"`
	CustomerName string    `json:"customer_name"`
	VendorName   string    `json:"vendor_name"`
	Amount       float64   `json:"amount"`
	PaymentDate  string    `json:"payment_date"`
	RawData      []byte    `json:"-"`
	SyncedAt     time.Time `json:"synced_at"`
}

// Transaction is unique per (connection_id, qb_id, transaction_type):
// QuickBooks reuses ids across transaction kinds, so the lowercased
// type is part of the natural key.
type Transaction struct {
	ID              uuid.UUID `json:"id"`
	ConnectionID    uuid.UUID `json:"connection_id"`
	QBID            string    `json:"qb_id"`
	TransactionType string    `json:"transaction_type"`
	TransactionDate string    `json:"transaction_date"`
	Amount          float64   `json:"amount"`
	CustomerName    string    `json:"customer_name"`
	VendorName      string    `json:"vendor_name"`
	Description     string    `json:"description"`
	RawData         []byte    `json:"-"`
	SyncedAt        time.Time `json:"synced_at"`
}
