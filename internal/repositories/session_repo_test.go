package repositories

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finlens/ledgersync/internal/models"
)

// getTestRedisClient connects to the Redis named by TEST_REDIS_URL, or
// skips the test when none is configured.
func getTestRedisClient(t *testing.T) *redis.Client {
	t.Helper()

	redisURL := os.Getenv("TEST_REDIS_URL")
	if redisURL == "" {
		t.Skip("TEST_REDIS_URL not set; skipping Redis integration test")
	}

	opts, err := redis.ParseURL(redisURL)
	require.NoError(t, err)
	client := redis.NewClient(opts)
	require.NoError(t, client.Ping(context.Background()).Err(), "Failed to connect to test Redis")

	t.Cleanup(func() {
		cleanupTestSessions(t, client)
		client.Close()
	})
	return client
}

func cleanupTestSessions(t *testing.T, client *redis.Client) {
	ctx := context.Background()
	keys, err := client.Keys(ctx, "session:*").Result()
	if err != nil {
		t.Logf("Warning: failed to get keys: %v", err)
		return
	}
	if len(keys) > 0 {
		client.Del(ctx, keys...)
	}
	indexKeys, err := client.Keys(ctx, "user:*:sessions").Result()
	if err == nil && len(indexKeys) > 0 {
		client.Del(ctx, indexKeys...)
	}
}

func TestSessionRepository_CreateAndGet(t *testing.T) {
	client := getTestRedisClient(t)
	repo := NewRedisSessionRepository(client)
	ctx := context.Background()

	userID := uuid.New()
	companyID := uuid.New()

	// ACT: Create a session
	session := &models.Session{
		ID:        "session-123",
		UserID:    userID,
		CompanyID: companyID,
		ExpiresAt: time.Now().Add(24 * time.Hour),
		CreatedAt: time.Now(),
	}
	err := repo.Create(ctx, session)

	// ASSERT: Should round-trip through Redis
	require.NoError(t, err)

	retrieved, err := repo.GetByID(ctx, "session-123")
	require.NoError(t, err)
	assert.Equal(t, userID, retrieved.UserID)
	assert.Equal(t, companyID, retrieved.CompanyID)
}

func TestSessionRepository_GetMissing(t *testing.T) {
	client := getTestRedisClient(t)
	repo := NewRedisSessionRepository(client)

	_, err := repo.GetByID(context.Background(), "does-not-exist")

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSessionRepository_Expiration(t *testing.T) {
	client := getTestRedisClient(t)
	repo := NewRedisSessionRepository(client)
	ctx := context.Background()

	session := &models.Session{
		ID:        "expired-session",
		UserID:    uuid.New(),
		CompanyID: uuid.New(),
		ExpiresAt: time.Now().Add(1 * time.Second),
		CreatedAt: time.Now(),
	}
	require.NoError(t, repo.Create(ctx, session))

	time.Sleep(2 * time.Second)

	// ASSERT: Redis dropped the session on its own via the TTL
	_, err := repo.GetByID(ctx, "expired-session")
	assert.ErrorIs(t, err, ErrNotFound, "Expired session should not exist")
}

func TestSessionRepository_Delete(t *testing.T) {
	client := getTestRedisClient(t)
	repo := NewRedisSessionRepository(client)
	ctx := context.Background()

	session := &models.Session{
		ID:        "session-to-delete",
		UserID:    uuid.New(),
		CompanyID: uuid.New(),
		ExpiresAt: time.Now().Add(24 * time.Hour),
		CreatedAt: time.Now(),
	}
	require.NoError(t, repo.Create(ctx, session))

	// ACT: Delete the session
	err := repo.Delete(ctx, "session-to-delete")

	// ASSERT: Session and its index entry are gone
	require.NoError(t, err)
	_, err = repo.GetByID(ctx, "session-to-delete")
	assert.ErrorIs(t, err, ErrNotFound, "Session should be deleted")
}

func TestSessionRepository_DeleteAllForUser(t *testing.T) {
	client := getTestRedisClient(t)
	repo := NewRedisSessionRepository(client)
	ctx := context.Background()

	userID := uuid.New()
	ids := make([]string, 0, 3)
	for i := 0; i < 3; i++ {
		session := &models.Session{
			ID:        uuid.New().String(),
			UserID:    userID,
			CompanyID: uuid.New(),
			ExpiresAt: time.Now().Add(24 * time.Hour),
			CreatedAt: time.Now(),
		}
		require.NoError(t, repo.Create(ctx, session))
		ids = append(ids, session.ID)
	}

	// ACT: Revoke every session for the user
	err := repo.DeleteAllForUser(ctx, userID)

	// ASSERT: None survive
	require.NoError(t, err)
	for _, id := range ids {
		_, err := repo.GetByID(ctx, id)
		assert.ErrorIs(t, err, ErrNotFound)
	}
}
