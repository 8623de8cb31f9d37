package quickbooks

import (
	"errors"
	"fmt"
)

// ErrNoConnection is returned when an operation that needs stored
// credentials is invoked without a connection.
var ErrNoConnection = errors.New("quickbooks connection not provided")

// AuthError is a rejected token exchange or refresh.
type AuthError struct {
	StatusCode int
	Body       string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("quickbooks token request failed with status %d: %s", e.StatusCode, e.Body)
}

// ForbiddenError is a 403 from a query call: the app has no access to
// that entity in the connected company.
type ForbiddenError struct {
	Entity string
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("forbidden: no access to %s or none exist", e.Entity)
}

// APIError is any other non-2xx query response.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("quickbooks API returned status %d: %s", e.StatusCode, e.Body)
}
