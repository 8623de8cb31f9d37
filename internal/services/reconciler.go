package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/finlens/ledgersync/internal/models"
	"github.com/finlens/ledgersync/internal/repositories"
)

// ErrMalformedRecord means a raw record is missing its QuickBooks id
// (or, for transactions, its type). That is a provider contract
// violation, not something to skip silently.
var ErrMalformedRecord = errors.New("malformed record")

// reconcileFunc normalizes one raw provider record and upserts it.
type reconcileFunc func(ctx context.Context, records repositories.RecordRepository, connectionID uuid.UUID, raw map[string]interface{}) error

// Reconciler maps entity kinds to their normalize+upsert functions.
// Adding an entity kind is a registry entry, not new control flow.
type Reconciler struct {
	records  repositories.RecordRepository
	registry map[models.EntityKind]reconcileFunc
}

func NewReconciler(records repositories.RecordRepository) *Reconciler {
	return &Reconciler{
		records: records,
		registry: map[models.EntityKind]reconcileFunc{
			models.KindAccount:     reconcileAccount,
			models.KindCustomer:    reconcileCustomer,
			models.KindVendor:      reconcileVendor,
			models.KindInvoice:     reconcileInvoice,
			models.KindBill:        reconcileBill,
			models.KindPayment:     reconcilePayment,
			models.KindTransaction: reconcileTransaction,
		},
	}
}

// Reconcile upserts one raw record. Calling it twice with the same
// natural key never creates a second row; a changed payload overwrites
// the stored fields.
func (r *Reconciler) Reconcile(ctx context.Context, connectionID uuid.UUID, kind models.EntityKind, raw map[string]interface{}) error {
	fn, ok := r.registry[kind]
	if !ok {
		return fmt.Errorf("unknown entity kind %q", kind)
	}
	return fn(ctx, r.records, connectionID, raw)
}

func reconcileAccount(ctx context.Context, records repositories.RecordRepository, connectionID uuid.UUID, raw map[string]interface{}) error {
	qbID, err := recordID(models.KindAccount, raw)
	if err != nil {
		return err
	}

	return records.UpsertAccount(ctx, &models.Account{
		ConnectionID:   connectionID,
		QBID:           qbID,
		Name:           stringField(raw, "Name"),
		AccountType:    stringField(raw, "AccountType"),
		AccountSubType: stringField(raw, "AccountSubType"),
		CurrentBalance: numberField(raw, "CurrentBalance"),
	})
}

func reconcileCustomer(ctx context.Context, records repositories.RecordRepository, connectionID uuid.UUID, raw map[string]interface{}) error {
	qbID, err := recordID(models.KindCustomer, raw)
	if err != nil {
		return err
	}

	return records.UpsertCustomer(ctx, &models.Customer{
		ConnectionID: connectionID,
		QBID:         qbID,
		DisplayName:  stringField(raw, "DisplayName"),
		Email:        nestedString(raw, "PrimaryEmailAddr", "Address"),
		Balance:      numberField(raw, "Balance"),
	})
}

func reconcileVendor(ctx context.Context, records repositories.RecordRepository, connectionID uuid.UUID, raw map[string]interface{}) error {
	qbID, err := recordID(models.KindVendor, raw)
	if err != nil {
		return err
	}

	return records.UpsertVendor(ctx, &models.Vendor{
		ConnectionID: connectionID,
		QBID:         qbID,
		DisplayName:  stringField(raw, "DisplayName"),
		Email:        nestedString(raw, "PrimaryEmailAddr", "Address"),
		Balance:      numberField(raw, "Balance"),
	})
}

func reconcileInvoice(ctx context.Context, records repositories.RecordRepository, connectionID uuid.UUID, raw map[string]interface{}) error {
	qbID, err := recordID(models.KindInvoice, raw)
	if err != nil {
		return err
	}

	return records.UpsertInvoice(ctx, &models.Invoice{
		ConnectionID: connectionID,
		QBID:         qbID,
		CustomerName: nestedString(raw, "CustomerRef", "name"),
		Total:        numberField(raw, "TotalAmt"),
		Status:       balanceStatus(raw),
		RawData:      rawJSON(raw),
	})
}

func reconcileBill(ctx context.Context, records repositories.RecordRepository, connectionID uuid.UUID, raw map[string]interface{}) error {
	qbID, err := recordID(models.KindBill, raw)
	if err != nil {
		return err
	}

	return records.UpsertBill(ctx, &models.Bill{
		ConnectionID: connectionID,
		QBID:         qbID,
		VendorName:   nestedString(raw, "VendorRef", "name"),
		Total:        numberField(raw, "TotalAmt"),
		Status:       balanceStatus(raw),
		RawData:      rawJSON(raw),
	})
}

func reconcilePayment(ctx context.Context, records repositories.RecordRepository, connectionID uuid.UUID, raw map[string]interface{}) error {
	qbID, err := recordID(models.KindPayment, raw)
	if err != nil {
		return err
	}

	return records.UpsertPayment(ctx, &models.Payment{
		ConnectionID: connectionID,
		QBID:         qbID,
		CustomerName: nestedString(raw, "CustomerRef", "name"),
		VendorName:   nestedString(raw, "VendorRef", "name"),
		Amount:       numberField(raw, "TotalAmt"),
		PaymentDate:  stringField(raw, "TxnDate"),
		RawData:      rawJSON(raw),
	})
}

func reconcileTransaction(ctx context.Context, records repositories.RecordRepository, connectionID uuid.UUID, raw map[string]interface{}) error {
	qbID, err := recordID(models.KindTransaction, raw)
	if err != nil {
		return err
	}

	txnType := stringField(raw, "TxnType")
	if txnType == "" {
		return fmt.Errorf("Transaction record %s missing TxnType: %w", qbID, ErrMalformedRecord)
	}

	// Some transaction kinds report TotalAmt, others Amount
	amount := numberField(raw, "TotalAmt")
	if _, ok := raw["TotalAmt"]; !ok {
		amount = numberField(raw, "Amount")
	}

	return records.UpsertTransaction(ctx, &models.Transaction{
		ConnectionID:    connectionID,
		QBID:            qbID,
		TransactionType: strings.ToLower(txnType),
		TransactionDate: stringField(raw, "TxnDate"),
		Amount:          amount,
		CustomerName:    nestedString(raw, "CustomerRef", "name"),
		VendorName:      nestedString(raw, "VendorRef", "name"),
		Description:     stringField(raw, "PrivateNote"),
		RawData:         rawJSON(raw),
	})
}

// recordID extracts the provider id, the natural key of every kind.
func recordID(kind models.EntityKind, raw map[string]interface{}) (string, error) {
	id := stringField(raw, "Id")
	if id == "" {
		return "", fmt.Errorf("%s record missing Id: %w", kind, ErrMalformedRecord)
	}
	return id, nil
}

// balanceStatus derives Open/Paid from the outstanding balance. The
// provider does not store this.
func balanceStatus(raw map[string]interface{}) string {
	if numberField(raw, "Balance") > 0 {
		return models.StatusOpen
	}
	return models.StatusPaid
}

func stringField(raw map[string]interface{}, key string) string {
	s, _ := raw[key].(string)
	return s
}

func numberField(raw map[string]interface{}, key string) float64 {
	n, _ := raw[key].(float64)
	return n
}

func nestedString(raw map[string]interface{}, key, sub string) string {
	nested, _ := raw[key].(map[string]interface{})
	if nested == nil {
		return ""
	}
	s, _ := nested[sub].(string)
	return s
}

func rawJSON(raw map[string]interface{}) []byte {
	data, _ := json.Marshal(raw)
	return data
}
