package models

import (
	"strings"
	"time"
)

// Session is a stored Admin API session for one shop.
type Session struct {
	ID          string     `gorm:"type:varchar(255);primaryKey" json:"id"`       // offline_{shop} or an online session id.
	Shop        string     `gorm:"type:varchar(255);not null;index" json:"shop"` // myshopify.com domain.
	AccessToken string     `gorm:"type:text;not null" json:"access_token"`       // Admin API access token.
	Scope       string     `gorm:"type:text" json:"scope"`                       // Granted scopes, comma separated.
	IsOnline    bool       `gorm:"not null;default:false" json:"is_online"`      // Online sessions expire with the user.
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`                         // Nil for offline sessions.
	CreatedAt   time.Time  `gorm:"not null;autoCreateTime" json:"created_at"`    // Creation timestamp.
	UpdatedAt   time.Time  `gorm:"not null;autoUpdateTime" json:"updated_at"`    // Last update timestamp.
}

// OfflineSessionID returns the id used for a shop's offline session.
func OfflineSessionID(shop string) string {
	return "offline_" + strings.ToLower(strings.TrimSpace(shop))
}

// Expired reports whether the session has an expiry in the past.
func (s *Session) Expired(now time.Time) bool {
	if s == nil || s.ExpiresAt == nil {
		return false
	}
	return !s.ExpiresAt.After(now)
}
