package repositories

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/finlens/ledgersync/internal/models"
)

// getTestPool connects to the database named by TEST_DATABASE_URL, or
// skips the test when none is configured. The schema from migrations/
// must already be applied.
func getTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	databaseURL := os.Getenv("TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping Postgres integration test")
	}

	pool, err := pgxpool.New(context.Background(), databaseURL)
	require.NoError(t, err)
	require.NoError(t, pool.Ping(context.Background()), "Failed to connect to test database")

	t.Cleanup(pool.Close)
	return pool
}

// createTestCompany provisions a user+company pair and removes them (and
// everything cascading off them) when the test finishes.
func createTestCompany(t *testing.T, pool *pgxpool.Pool) *models.Company {
	t.Helper()
	ctx := context.Background()

	users := NewPostgresUserRepository(pool)
	companies := NewPostgresCompanyRepository(pool)

	email := "test-" + time.Now().Format("150405.000000000") + "@example.com"
	user := &models.User{Email: email, PasswordHash: "x"}
	require.NoError(t, users.Create(ctx, user))

	company := &models.Company{UserID: user.ID, Name: "Test Co", Email: email}
	require.NoError(t, companies.Create(ctx, company))

	t.Cleanup(func() {
		pool.Exec(ctx, "DELETE FROM users WHERE id = $1", user.ID)
	})
	return company
}

// createTestConnection hangs a connection off a fresh company.
func createTestConnection(t *testing.T, pool *pgxpool.Pool) *models.Connection {
	t.Helper()

	company := createTestCompany(t, pool)
	conn := &models.Connection{
		CompanyID:      company.ID,
		RealmID:        "realm-test",
		AccessToken:    "at",
		RefreshToken:   "rt",
		TokenExpiresAt: time.Now().Add(time.Hour),
	}
	require.NoError(t, NewPostgresConnectionRepository(pool).Upsert(context.Background(), conn))
	return conn
}
