package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/finlens/ledgersync/internal/models"
	"github.com/finlens/ledgersync/internal/quickbooks"
	"github.com/finlens/ledgersync/internal/repositories"
	"github.com/finlens/ledgersync/internal/services"
)

// transactionWindow is how far back the transaction sync reaches when a
// connection has never synced before.
const transactionWindow = 30 * 24 * time.Hour

type QuickBooksHandler struct {
	sync        *services.SyncService
	records     repositories.RecordRepository
	frontendURL string
}

func NewQuickBooksHandler(sync *services.SyncService, records repositories.RecordRepository, frontendURL string) *QuickBooksHandler {
	return &QuickBooksHandler{sync: sync, records: records, frontendURL: frontendURL}
}

// Connect returns the authorization URL the frontend should redirect
// the browser to.
func (h *QuickBooksHandler) Connect(w http.ResponseWriter, r *http.Request) {
	company, ok := companyID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "no company found for this user")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"authorization_url": h.sync.InitiateAuthorization(company),
	})
}

// Callback is Intuit's redirect target. It is unauthenticated: the
// tenant rides in the state parameter. The browser lands back on the
// frontend either way, with the outcome in the query string.
func (h *QuickBooksHandler) Callback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	realmID := r.URL.Query().Get("realmId")
	state := r.URL.Query().Get("state")
	oauthErr := r.URL.Query().Get("error")

	if oauthErr != "" {
		h.redirectFrontend(w, r, "qb_error="+url.QueryEscape(oauthErr))
		return
	}
	if code == "" || realmID == "" {
		h.redirectFrontend(w, r, "qb_error=missing_params")
		return
	}

	if _, err := h.sync.CompleteAuthorization(r.Context(), code, realmID, state); err != nil {
		h.redirectFrontend(w, r, "qb_error="+url.QueryEscape(err.Error()))
		return
	}
	h.redirectFrontend(w, r, "qb_connected=true")
}

func (h *QuickBooksHandler) redirectFrontend(w http.ResponseWriter, r *http.Request, query string) {
	http.Redirect(w, r, h.frontendURL+"?"+query, http.StatusFound)
}

func (h *QuickBooksHandler) Status(w http.ResponseWriter, r *http.Request) {
	company, ok := companyID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "no company found for this user")
		return
	}

	conn, err := h.sync.ConnectionStatus(r.Context(), company)
	if errors.Is(err, services.ErrNotConnected) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"connected": false,
			"message":   "QuickBooks not connected",
		})
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"connected":   true,
		"realm_id":    conn.RealmID,
		"is_active":   conn.IsActive,
		"last_synced": conn.LastSynced,
		"created_at":  conn.CreatedAt,
	})
}

func (h *QuickBooksHandler) Disconnect(w http.ResponseWriter, r *http.Request) {
	company, ok := companyID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "no company found for this user")
		return
	}

	err := h.sync.Disconnect(r.Context(), company)
	if errors.Is(err, services.ErrNotConnected) {
		writeError(w, http.StatusBadRequest, "QuickBooks not connected")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "QuickBooks disconnected successfully"})
}

func (h *QuickBooksHandler) SyncAccounts(w http.ResponseWriter, r *http.Request) {
	h.syncEntity(w, r, models.KindAccount, nil)
}

// SyncTransactions bounds the query by the connection's last sync,
// falling back to a 30-day window for a first sync.
func (h *QuickBooksHandler) SyncTransactions(w http.ResponseWriter, r *http.Request) {
	company, ok := companyID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "no company found for this user")
		return
	}

	conn, err := h.sync.ConnectionStatus(r.Context(), company)
	if errors.Is(err, services.ErrNotConnected) {
		writeError(w, http.StatusBadRequest, "QuickBooks not connected")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	since := time.Now().Add(-transactionWindow)
	if conn.LastSynced != nil {
		since = *conn.LastSynced
	}
	dateRange := &quickbooks.DateRange{Start: since.Format("2006-01-02")}

	h.syncEntity(w, r, models.KindTransaction, dateRange)
}

func (h *QuickBooksHandler) syncEntity(w http.ResponseWriter, r *http.Request, kind models.EntityKind, dateRange *quickbooks.DateRange) {
	company, ok := companyID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "no company found for this user")
		return
	}

	count, err := h.sync.SyncEntity(r.Context(), company, kind, dateRange)
	if err != nil {
		writeSyncError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": fmt.Sprintf("Synced %d %s records.", count, kind),
		"synced":  count,
	})
}

func writeSyncError(w http.ResponseWriter, err error) {
	var forbidden *quickbooks.ForbiddenError
	switch {
	case errors.Is(err, services.ErrNotConnected):
		writeError(w, http.StatusBadRequest, "QuickBooks not connected")
	case errors.As(err, &forbidden):
		writeError(w, http.StatusForbidden, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (h *QuickBooksHandler) SyncAll(w http.ResponseWriter, r *http.Request) {
	company, ok := companyID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "no company found for this user")
		return
	}

	outcomes, err := h.sync.SyncAll(r.Context(), company)
	if err != nil {
		writeSyncError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":       "Sync complete",
		"synced_counts": outcomes,
	})
}

func (h *QuickBooksHandler) SyncHistory(w http.ResponseWriter, r *http.Request) {
	company, ok := companyID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "no company found for this user")
		return
	}

	logs, err := h.sync.SyncHistory(r.Context(), company, 50)
	if err != nil {
		writeSyncError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"sync_logs": logs})
}

func (h *QuickBooksHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	conn, ok := h.requireConnection(w, r)
	if !ok {
		return
	}

	accounts, err := h.records.ListAccounts(r.Context(), conn.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"accounts": accounts})
}

func (h *QuickBooksHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	conn, ok := h.requireConnection(w, r)
	if !ok {
		return
	}

	txns, err := h.records.ListTransactions(r.Context(), conn.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"transactions": txns})
}

// ListAllData returns every synced entity collection in one response.
func (h *QuickBooksHandler) ListAllData(w http.ResponseWriter, r *http.Request) {
	conn, ok := h.requireConnection(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	accounts, err := h.records.ListAccounts(ctx, conn.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	customers, err := h.records.ListCustomers(ctx, conn.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	vendors, err := h.records.ListVendors(ctx, conn.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	invoices, err := h.records.ListInvoices(ctx, conn.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	bills, err := h.records.ListBills(ctx, conn.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	payments, err := h.records.ListPayments(ctx, conn.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"accounts":  accounts,
		"customers": customers,
		"vendors":   vendors,
		"invoices":  invoices,
		"bills":     bills,
		"payments":  payments,
	})
}

func (h *QuickBooksHandler) requireConnection(w http.ResponseWriter, r *http.Request) (*models.Connection, bool) {
	company, ok := companyID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "no company found for this user")
		return nil, false
	}

	conn, err := h.sync.ConnectionStatus(r.Context(), company)
	if errors.Is(err, services.ErrNotConnected) {
		writeError(w, http.StatusBadRequest, "QuickBooks not connected")
		return nil, false
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return nil, false
	}
	return conn, true
}
