package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Leo3030/roadmap-demo/internal/config"
	"github.com/Leo3030/roadmap-demo/internal/models"
	"github.com/redis/go-redis/v9"
)

const defaultRedisKeyPrefix = "roadmap:session:"

// NewRedisClient builds a client from cfg. URL takes precedence over Addr.
func NewRedisClient(cfg config.RedisConfig) (*redis.Client, error) {
	if url := strings.TrimSpace(cfg.URL); url != "" {
		opts, errParse := redis.ParseURL(url)
		if errParse != nil {
			return nil, fmt.Errorf("session: parse redis url: %w", errParse)
		}
		return redis.NewClient(opts), nil
	}
	if strings.TrimSpace(cfg.Addr) == "" {
		return nil, errors.New("session: redis addr or url is required")
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}), nil
}

// RedisStore keeps sessions as JSON strings under a key prefix.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStore constructs a RedisStore. An empty prefix uses "roadmap:session:".
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = defaultRedisKeyPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(id string) string {
	return s.prefix + strings.TrimSpace(id)
}

// Load returns the session with id, or ErrNotFound.
func (s *RedisStore) Load(ctx context.Context, id string) (*models.Session, error) {
	raw, errGet := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(errGet, redis.Nil) {
		return nil, ErrNotFound
	}
	if errGet != nil {
		return nil, errGet
	}
	var sess models.Session
	if errDecode := json.Unmarshal(raw, &sess); errDecode != nil {
		return nil, fmt.Errorf("session: decode %s: %w", id, errDecode)
	}
	return &sess, nil
}

// Save writes the session. Sessions with an expiry get a matching TTL.
func (s *RedisStore) Save(ctx context.Context, sess *models.Session) error {
	if errValidate := validate(sess); errValidate != nil {
		return errValidate
	}
	now := time.Now().UTC()
	sess.Shop = strings.ToLower(strings.TrimSpace(sess.Shop))
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = now
	}
	sess.UpdatedAt = now

	var ttl time.Duration
	if sess.ExpiresAt != nil {
		ttl = sess.ExpiresAt.Sub(now)
		if ttl <= 0 {
			return s.Delete(ctx, sess.ID)
		}
	}
	payload, errEncode := json.Marshal(sess)
	if errEncode != nil {
		return errEncode
	}
	return s.client.Set(ctx, s.key(sess.ID), payload, ttl).Err()
}

// Delete removes the session.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, s.key(id)).Err()
}

// Close releases the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
