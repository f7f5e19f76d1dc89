// Package session persists the Admin API sessions the app uses to call Shopify
// on behalf of a shop.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Leo3030/roadmap-demo/internal/config"
	"github.com/Leo3030/roadmap-demo/internal/models"
	"gorm.io/gorm"
)

// ErrNotFound is returned when no session exists for an id.
var ErrNotFound = errors.New("session: not found")

// Store loads and saves sessions.
type Store interface {
	Load(ctx context.Context, id string) (*models.Session, error)
	Save(ctx context.Context, s *models.Session) error
	Delete(ctx context.Context, id string) error
}

// LoadOffline returns the offline session for shop.
func LoadOffline(ctx context.Context, store Store, shop string) (*models.Session, error) {
	if store == nil {
		return nil, errors.New("session: nil store")
	}
	return store.Load(ctx, models.OfflineSessionID(shop))
}

// NewStore picks the backend named in cfg.
func NewStore(cfg config.Config, db *gorm.DB) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Session.Backend)) {
	case "", config.SessionBackendDB:
		return NewGormStore(db), nil
	case config.SessionBackendRedis:
		client, errClient := NewRedisClient(cfg.Redis)
		if errClient != nil {
			return nil, errClient
		}
		return NewRedisStore(client, ""), nil
	default:
		return nil, fmt.Errorf("session: unknown backend %q", cfg.Session.Backend)
	}
}

func validate(s *models.Session) error {
	if s == nil {
		return errors.New("session: nil session")
	}
	if strings.TrimSpace(s.ID) == "" {
		return errors.New("session: id is required")
	}
	if strings.TrimSpace(s.Shop) == "" {
		return errors.New("session: shop is required")
	}
	if strings.TrimSpace(s.AccessToken) == "" {
		return errors.New("session: access token is required")
	}
	return nil
}
