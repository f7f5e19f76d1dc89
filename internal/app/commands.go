package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/Leo3030/roadmap-demo/internal/config"
	"github.com/Leo3030/roadmap-demo/internal/models"
	"github.com/Leo3030/roadmap-demo/internal/security"
	"github.com/Leo3030/roadmap-demo/internal/session"
	"github.com/Leo3030/roadmap-demo/internal/settings"
)

// PutSessionParams holds inputs for installing an offline session by hand.
type PutSessionParams struct {
	Shop        string
	AccessToken string
	Scope       string
}

// withSessionStore loads config, opens the database and hands the configured session store to fn.
func withSessionStore(cfg config.AppConfig, fn func(store session.Store) error) error {
	loaded, err := LoadConfig(cfg)
	if err != nil {
		return err
	}
	conn, err := openDatabase(loaded)
	if err != nil {
		return err
	}
	store, err := session.NewStore(loaded, conn)
	if err != nil {
		return err
	}
	if closer, ok := store.(io.Closer); ok {
		defer closeQuietly(closer)
	}
	return fn(store)
}

// PutSession stores the offline Admin API session for a shop.
func PutSession(ctx context.Context, cfg config.AppConfig, params PutSessionParams) error {
	shop := strings.ToLower(strings.TrimSpace(params.Shop))
	if !security.ValidShopDomain(shop) {
		return fmt.Errorf("invalid shop domain %q", params.Shop)
	}
	return withSessionStore(cfg, func(store session.Store) error {
		return store.Save(ctx, &models.Session{
			ID:          models.OfflineSessionID(shop),
			Shop:        shop,
			AccessToken: strings.TrimSpace(params.AccessToken),
			Scope:       strings.TrimSpace(params.Scope),
		})
	})
}

// DeleteSession removes the offline session for a shop.
func DeleteSession(ctx context.Context, cfg config.AppConfig, shop string) error {
	return withSessionStore(cfg, func(store session.Store) error {
		return store.Delete(ctx, models.OfflineSessionID(shop))
	})
}

// SignSessionToken issues a development session token for shop with the configured app credentials.
func SignSessionToken(cfg config.AppConfig, shop string, ttl time.Duration) (string, error) {
	loaded, err := LoadConfig(cfg)
	if err != nil {
		return "", err
	}
	if errCreds := loaded.RequireShopifyCredentials(); errCreds != nil {
		return "", errCreds
	}
	if !security.ValidShopDomain(shop) {
		return "", fmt.Errorf("invalid shop domain %q", shop)
	}
	return security.SignSessionToken(loaded.Shopify.APISecret, loaded.Shopify.APIKey, shop, ttl)
}

// GetFlags returns the stored form flags.
func GetFlags(ctx context.Context, cfg config.AppConfig) (settings.Flags, error) {
	loaded, err := LoadConfig(cfg)
	if err != nil {
		return settings.Flags{}, err
	}
	conn, err := openDatabase(loaded)
	if err != nil {
		return settings.Flags{}, err
	}
	if errRefresh := settings.RefreshDBConfigSnapshot(ctx, conn); errRefresh != nil {
		return settings.Flags{}, errRefresh
	}
	return settings.CurrentFlags(), nil
}

// SetFlag stores a boolean form flag.
func SetFlag(ctx context.Context, cfg config.AppConfig, key, value string) error {
	key = strings.ToUpper(strings.TrimSpace(key))
	known := false
	for _, k := range settings.KnownKeys {
		if k == key {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("unknown flag %q (known: %s)", key, strings.Join(settings.KnownKeys, ", "))
	}
	enabled, errParse := strconv.ParseBool(strings.TrimSpace(value))
	if errParse != nil {
		return fmt.Errorf("flag %s: %w", key, errParse)
	}
	raw, _ := json.Marshal(enabled)

	loaded, err := LoadConfig(cfg)
	if err != nil {
		return err
	}
	conn, err := openDatabase(loaded)
	if err != nil {
		return err
	}
	return settings.Put(ctx, conn, key, raw)
}
