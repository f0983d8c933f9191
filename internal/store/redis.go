package store

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	userKeyPrefix     = "user:"
	usernameKeyPrefix = "username:"
)

// RedisStore implements UserStore using Redis. Each user is kept under
// user:<id> with a username:<name> reverse index standing in for the UNIQUE
// constraint.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Redis-backed store and verifies the connection.
func NewRedisStore(addr, password string, db int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStore{client: client}, nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// SaveUser writes the user and refreshes the username index. A rename drops
// the previous index entry.
func (s *RedisStore) SaveUser(ctx context.Context, id int64, username string) error {
	key := userKeyPrefix + strconv.FormatInt(id, 10)

	old, err := s.client.Get(ctx, key).Result()
	if err != nil && err != redis.Nil {
		return fmt.Errorf("failed to read user: %w", err)
	}
	if err == nil && old != username {
		if err := s.client.Del(ctx, usernameKeyPrefix+old).Err(); err != nil {
			return fmt.Errorf("failed to drop old username index: %w", err)
		}
	}

	if err := s.client.Set(ctx, key, username, 0).Err(); err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	if err := s.client.Set(ctx, usernameKeyPrefix+username, id, 0).Err(); err != nil {
		return fmt.Errorf("failed to save username index: %w", err)
	}
	return nil
}

// DeleteUser removes the user and its username index entry.
func (s *RedisStore) DeleteUser(ctx context.Context, id int64) error {
	key := userKeyPrefix + strconv.FormatInt(id, 10)

	username, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read user: %w", err)
	}

	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if err := s.client.Del(ctx, usernameKeyPrefix+username).Err(); err != nil {
		return fmt.Errorf("failed to delete username index: %w", err)
	}
	return nil
}

// GetUser retrieves a user by id; nil when absent.
func (s *RedisStore) GetUser(ctx context.Context, id int64) (*UserRecord, error) {
	key := userKeyPrefix + strconv.FormatInt(id, 10)
	username, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &UserRecord{ID: id, Username: username}, nil
}
