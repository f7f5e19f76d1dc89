package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/Leo3030/roadmap-demo/internal/config"
	"github.com/Leo3030/roadmap-demo/internal/security"
	"github.com/Leo3030/roadmap-demo/internal/session"
	"github.com/Leo3030/roadmap-demo/internal/shopify"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// Context keys set by AdminAuthMiddleware.
const (
	ContextKeyShop  = "shop"
	ContextKeyAdmin = "shopifyAdmin"
)

const retryInvalidSessionHeader = "X-Shopify-Retry-Invalid-Session-Request"

// SessionBounceParam marks a request replayed by the session bounce page. A replayed request
// that still fails authentication is not bounced again.
const SessionBounceParam = "session_bounce"

// AdminAuthMiddleware authenticates App Bridge session tokens and injects an Admin API client
// for the shop's offline session.
//
// Document requests (token in the query or form body) whose token has expired are handed to
// bounce, which should re-issue them with a fresh token. Requests carrying a bearer header get
// a JSON 401 with the retry header App Bridge's fetch understands. bounce may be nil.
func AdminAuthMiddleware(store session.Store, cfg config.ShopifyConfig, factory *shopify.ClientFactory, bounce gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, fromHeader := sessionTokenFromRequest(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing session token"})
			return
		}

		claims, errParse := security.ParseSessionToken(cfg.APISecret, cfg.APIKey, token)
		if errParse != nil {
			c.Header(retryInvalidSessionHeader, "1")
			switch {
			case errors.Is(errParse, security.ErrExpiredToken) && bounce != nil && !fromHeader && !bounced(c):
				bounce(c)
				c.Abort()
			case errors.Is(errParse, security.ErrExpiredToken):
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Session token expired"})
			case errors.Is(errParse, security.ErrInvalidShop):
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid shop"})
			default:
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid session token"})
			}
			return
		}
		shop := claims.Shop()

		sess, errLoad := session.LoadOffline(c.Request.Context(), store, shop)
		switch {
		case errors.Is(errLoad, session.ErrNotFound):
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "App is not installed for this shop"})
			return
		case errLoad != nil:
			log.WithError(errLoad).WithField("shop", shop).Error("admin auth middleware: load session")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Authentication service error"})
			return
		case sess.Expired(time.Now()):
			c.Header(retryInvalidSessionHeader, "1")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Session expired"})
			return
		}

		c.Set(ContextKeyShop, shop)
		c.Set(ContextKeyAdmin, shopify.AdminAPI(factory.ForShop(shop, sess.AccessToken)))
		c.Next()
	}
}

// sessionTokenFromRequest reads the bearer header, then the id_token query or form value.
// fromHeader reports whether the token came from the Authorization header.
func sessionTokenFromRequest(c *gin.Context) (token string, fromHeader bool) {
	if header := strings.TrimSpace(c.GetHeader("Authorization")); header != "" {
		if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
			return strings.TrimSpace(header[7:]), true
		}
	}
	if token = strings.TrimSpace(c.Query("id_token")); token != "" {
		return token, false
	}
	return strings.TrimSpace(c.PostForm("id_token")), false
}

func bounced(c *gin.Context) bool {
	return c.Query(SessionBounceParam) != "" || c.PostForm(SessionBounceParam) != ""
}

// ShopFromContext returns the authenticated shop domain.
func ShopFromContext(c *gin.Context) string {
	return c.GetString(ContextKeyShop)
}

// AdminAPIFromContext returns the Admin API client set by AdminAuthMiddleware.
func AdminAPIFromContext(c *gin.Context) shopify.AdminAPI {
	v, ok := c.Get(ContextKeyAdmin)
	if !ok {
		return nil
	}
	api, _ := v.(shopify.AdminAPI)
	return api
}
