package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/finlens/ledgersync/internal/models"
)

const sessionPrefix = "session:"
const userSessionsPrefix = "user:%s:sessions"

type RedisSessionRepository struct {
	client *redis.Client
}

func NewRedisSessionRepository(client *redis.Client) *RedisSessionRepository {
	return &RedisSessionRepository{client: client}
}

func (r *RedisSessionRepository) Create(ctx context.Context, session *models.Session) error {
	jsonData, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	// TTL comes from the session expiry so Redis drops it on its own
	ttl := time.Until(session.ExpiresAt)

	key := fmt.Sprintf("%s%s", sessionPrefix, session.ID)
	err = r.client.Set(ctx, key, jsonData, ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to set session: %w", err)
	}

	// Secondary index so all of a user's sessions can be revoked at once
	userKey := fmt.Sprintf(userSessionsPrefix, session.UserID)
	err = r.client.SAdd(ctx, userKey, session.ID).Err()
	if err != nil {
		return fmt.Errorf("failed to add session to user sessions: %w", err)
	}
	return nil
}

func (r *RedisSessionRepository) GetByID(ctx context.Context, id string) (*models.Session, error) {
	key := fmt.Sprintf("%s%s", sessionPrefix, id)

	jsonData, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var session models.Session
	err = json.Unmarshal([]byte(jsonData), &session)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &session, nil
}

func (r *RedisSessionRepository) Delete(ctx context.Context, id string) error {
	session, err := r.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get session: %w", err)
	}

	userKey := fmt.Sprintf(userSessionsPrefix, session.UserID)
	err = r.client.SRem(ctx, userKey, id).Err()
	if err != nil {
		return fmt.Errorf("failed to remove session from user sessions: %w", err)
	}

	key := fmt.Sprintf("%s%s", sessionPrefix, id)
	err = r.client.Del(ctx, key).Err()
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	return nil
}

func (r *RedisSessionRepository) DeleteAllForUser(ctx context.Context, userID uuid.UUID) error {
	userKey := fmt.Sprintf(userSessionsPrefix, userID)
	sessionIDs, err := r.client.SMembers(ctx, userKey).Result()
	if err != nil {
		return fmt.Errorf("failed to get user sessions: %w", err)
	}
	for _, id := range sessionIDs {
		if err := r.Delete(ctx, id); err != nil {
			log.Printf("failed to delete session %s: %v", id, err)
			continue
		}
	}
	return nil
}
