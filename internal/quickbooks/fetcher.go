package quickbooks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/finlens/ledgersync/internal/models"
)

// DateRange bounds a query on TxnDate. Dates are the provider's
// YYYY-MM-DD format; either side may be empty.
type DateRange struct {
	Start string
	End   string
}

// Fetcher issues authenticated read queries against the QuickBooks
// query endpoint. The client is built per call from the connection's
// access token and realm id; there is no shared session state.
type Fetcher struct {
	baseURL    string
	httpClient *http.Client
}

func NewFetcher(baseURL string) *Fetcher {
	return &Fetcher{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Fetch runs SELECT * FROM <entity> and unwraps the response envelope.
// The entity name is both the query table name and the envelope key, so
// it must be the provider's capitalized spelling. An absent envelope key
// means the company simply has no records of that kind.
func (f *Fetcher) Fetch(ctx context.Context, conn *models.Connection, entity string, dateRange *DateRange) ([]map[string]interface{}, error) {
	if conn == nil {
		return nil, ErrNoConnection
	}

	query := "SELECT * FROM " + entity
	if dateRange != nil {
		var conds []string
		if dateRange.Start != "" {
			conds = append(conds, fmt.Sprintf("TxnDate >= '%s'", dateRange.Start))
		}
		if dateRange.End != "" {
			conds = append(conds, fmt.Sprintf("TxnDate <= '%s'", dateRange.End))
		}
		if len(conds) > 0 {
			query += " WHERE " + strings.Join(conds, " AND ")
		}
	}

	endpoint := fmt.Sprintf("%s/%s/query", f.baseURL, conn.RealmID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create query request: %w", err)
	}

	q := req.URL.Query()
	q.Set("query", query)
	req.URL.RawQuery = q.Encode()

	req.Header.Set("Authorization", "Bearer "+conn.AccessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden {
		return nil, &ForbiddenError{Entity: entity}
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var envelope struct {
		QueryResponse map[string]json.RawMessage `json:"QueryResponse"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("failed to parse query response: %w", err)
	}

	raw, ok := envelope.QueryResponse[entity]
	if !ok {
		return nil, nil
	}

	var records []map[string]interface{}
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("failed to parse %s records: %w", entity, err)
	}
	return records, nil
}
