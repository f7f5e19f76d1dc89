package security

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Session token validation errors.
var (
	// ErrInvalidToken indicates a token is malformed or fails validation.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken indicates a token has expired.
	ErrExpiredToken = errors.New("token expired")
	// ErrInvalidShop indicates the token destination is not a myshopify.com shop.
	ErrInvalidShop = errors.New("invalid shop in token")
)

// tokenLeeway absorbs clock skew between Shopify and this host.
const tokenLeeway = 10 * time.Second

// SessionClaims are the claims carried by an App Bridge session token.
type SessionClaims struct {
	Dest string `json:"dest"` // Shop URL, e.g. https://demo.myshopify.com.
	SID  string `json:"sid,omitempty"`
	jwt.RegisteredClaims
}

// Shop returns the myshopify.com domain the token was issued for.
func (c *SessionClaims) Shop() string {
	if c == nil {
		return ""
	}
	parsed, err := url.Parse(c.Dest)
	if err != nil {
		return ""
	}
	return strings.ToLower(parsed.Hostname())
}

// ValidShopDomain reports whether shop looks like a myshopify.com domain.
func ValidShopDomain(shop string) bool {
	shop = strings.ToLower(strings.TrimSpace(shop))
	if !strings.HasSuffix(shop, ".myshopify.com") {
		return false
	}
	name := strings.TrimSuffix(shop, ".myshopify.com")
	if name == "" {
		return false
	}
	for _, r := range name {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '-' {
			return false
		}
	}
	return true
}

// SignSessionToken issues an HS256 session token for shop. Shopify issues the
// real ones; this is used for local development and tests.
func SignSessionToken(secret, apiKey, shop string, expiry time.Duration) (string, error) {
	now := time.Now().UTC()
	dest := "https://" + strings.ToLower(strings.TrimSpace(shop))
	claims := SessionClaims{
		Dest: dest,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    dest + "/admin",
			Audience:  jwt.ClaimStrings{apiKey},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseSessionToken validates an App Bridge session token and returns its claims.
func ParseSessionToken(secret, apiKey, tokenString string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(apiKey),
		jwt.WithLeeway(tokenLeeway),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if !ValidShopDomain(claims.Shop()) {
		return nil, ErrInvalidShop
	}
	return claims, nil
}
