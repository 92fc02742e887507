package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/Dhoini/customer-console/internal/domain"
	"github.com/Dhoini/customer-console/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// MarkerStore persists session markers so a session survives a restart
type MarkerStore interface {
	Save(ctx context.Context, token string, user domain.User, ttl time.Duration) error
	// Lookup returns false when the marker is missing or expired
	Lookup(ctx context.Context, token string) (domain.User, bool, error)
	Delete(ctx context.Context, token string) error
	Close() error
}

type memoryMarker struct {
	user    domain.User
	expires time.Time // zero never expires
}

// MemoryStore keeps markers in process memory
type MemoryStore struct {
	mu      sync.Mutex
	markers map[string]memoryMarker
	now     func() time.Time
}

// NewMemoryStore creates an empty in-memory marker store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{markers: make(map[string]memoryMarker), now: time.Now}
}

// Save stores the marker; ttl <= 0 never expires
func (s *MemoryStore) Save(_ context.Context, token string, user domain.User, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := memoryMarker{user: user}
	if ttl > 0 {
		m.expires = s.now().Add(ttl)
	}
	s.markers[token] = m
	return nil
}

// Lookup returns the user behind token
func (s *MemoryStore) Lookup(_ context.Context, token string) (domain.User, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.markers[token]
	if !ok {
		return domain.User{}, false, nil
	}
	if !m.expires.IsZero() && !s.now().Before(m.expires) {
		delete(s.markers, token)
		return domain.User{}, false, nil
	}
	return m.user, true, nil
}

// Delete removes the marker
func (s *MemoryStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.markers, token)
	return nil
}

// Close does nothing
func (s *MemoryStore) Close() error { return nil }

const sessionKeyPrefix = "console_session:"

// RedisStore keeps markers in Redis with a TTL
type RedisStore struct {
	client *redis.Client
	log    *logger.Logger
}

// NewRedisStore connects to Redis and checks the connection
func NewRedisStore(addr, password string, db int, log *logger.Logger) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Errorw("Failed to connect to Redis", "error", err)
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Infow("Connected to Redis successfully", "addr", addr)
	return &RedisStore{client: client, log: log}, nil
}

func sessionKey(token string) string {
	return sessionKeyPrefix + token
}

// Save stores the marker; ttl <= 0 never expires
func (r *RedisStore) Save(ctx context.Context, token string, user domain.User, ttl time.Duration) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to marshal session user: %w", err)
	}
	if ttl < 0 {
		ttl = 0
	}

	if err := r.client.Set(ctx, sessionKey(token), data, ttl).Err(); err != nil {
		r.log.Errorw("Failed to save session marker", "error", err, "userID", user.ID)
		return fmt.Errorf("failed to save session marker: %w", err)
	}

	r.log.Debugw("Session marker saved", "userID", user.ID, "ttl", ttl)
	return nil
}

// Lookup returns the user behind token
func (r *RedisStore) Lookup(ctx context.Context, token string) (domain.User, bool, error) {
	data, err := r.client.Get(ctx, sessionKey(token)).Bytes()
	if err == redis.Nil {
		return domain.User{}, false, nil
	}
	if err != nil {
		r.log.Errorw("Error getting session marker from Redis", "error", err)
		return domain.User{}, false, fmt.Errorf("failed to get session marker: %w", err)
	}

	var user domain.User
	if err := json.Unmarshal(data, &user); err != nil {
		r.log.Errorw("Failed to unmarshal session marker", "error", err)
		return domain.User{}, false, fmt.Errorf("failed to unmarshal session marker: %w", err)
	}
	return user, true, nil
}

// Delete removes the marker
func (r *RedisStore) Delete(ctx context.Context, token string) error {
	if err := r.client.Del(ctx, sessionKey(token)).Err(); err != nil {
		r.log.Errorw("Failed to delete session marker", "error", err)
		return fmt.Errorf("failed to delete session marker: %w", err)
	}
	return nil
}

// Close closes the Redis connection
func (r *RedisStore) Close() error {
	return r.client.Close()
}
