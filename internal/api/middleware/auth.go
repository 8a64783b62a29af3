package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/jafarshop/orderledger/internal/config"
)

const RoleContextKey = "role"

// Roles in ascending order of privilege
const (
	RoleViewer = "viewer"
	RoleEditor = "editor"
)

var roleRank = map[string]int{RoleViewer: 1, RoleEditor: 2}

// Authenticator verifies dashboard API keys against the configured bcrypt hashes
type Authenticator struct {
	keys   []config.DashboardKey
	logger *zap.Logger
}

// NewAuthenticator creates an authenticator; with no keys every request is let through as editor
func NewAuthenticator(keys []config.DashboardKey, logger *zap.Logger) *Authenticator {
	if len(keys) == 0 {
		logger.Warn("No DASHBOARD_KEYS configured, API authentication is disabled")
	}
	return &Authenticator{keys: keys, logger: logger}
}

// Disabled reports whether no keys are configured
func (a *Authenticator) Disabled() bool {
	return len(a.keys) == 0
}

// Require authenticates the request and checks its role is at least role
func (a *Authenticator) Require(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if a.Disabled() {
			c.Set(RoleContextKey, RoleEditor)
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			c.Abort()
			return
		}

		// Extract Bearer token
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
			c.Abort()
			return
		}

		apiKey := strings.TrimSpace(parts[1])
		if apiKey == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing API key"})
			c.Abort()
			return
		}

		granted, ok := a.lookup(apiKey)
		if !ok {
			a.logger.Warn("Rejected API key", zap.String("path", c.Request.URL.Path))
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid API key"})
			c.Abort()
			return
		}

		if roleRank[granted] < roleRank[role] {
			c.JSON(http.StatusForbidden, gin.H{"error": "insufficient role", "required": role})
			c.Abort()
			return
		}

		c.Set(RoleContextKey, granted)
		c.Next()
	}
}

// lookup returns the highest role whose hash matches the key.
// bcrypt hashes are salted, so every configured hash is checked.
func (a *Authenticator) lookup(apiKey string) (string, bool) {
	best := ""
	for _, k := range a.keys {
		if !VerifyAPIKey(apiKey, k.Hash) {
			continue
		}
		if roleRank[k.Role] > roleRank[best] {
			best = k.Role
		}
	}
	return best, best != ""
}

// GetRoleFromContext retrieves the authenticated role from the Gin context
func GetRoleFromContext(c *gin.Context) (string, bool) {
	role, exists := c.Get(RoleContextKey)
	if !exists {
		return "", false
	}
	r, ok := role.(string)
	return r, ok
}

// HashAPIKey hashes an API key using bcrypt
func HashAPIKey(apiKey string) (string, error) {
	// Use a cost of 10 for API keys (faster than passwords)
	hash, err := bcrypt.GenerateFromPassword([]byte(apiKey), 10)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyAPIKey verifies an API key against a hash
func VerifyAPIKey(apiKey, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(apiKey))
	return err == nil
}
