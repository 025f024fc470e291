// Package auth gates the chamber behind a single bcrypt-verified access key
// and a signed session cookie.
package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// CookieName is the session cookie set on login
const CookieName = "chamber_session"

// ContextKey is the gin context key holding the authenticated chamber id
const ContextKey = "chamber_id"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidSession     = errors.New("invalid session")
)

// Gate verifies credentials and issues session tokens
type Gate struct {
	chamberID string
	keyHash   []byte
	secret    []byte
	ttl       time.Duration
	now       func() time.Time
}

// NewGate returns a gate; an empty keyHash disables it
func NewGate(chamberID, keyHash, secret string, ttl time.Duration) *Gate {
	return &Gate{
		chamberID: chamberID,
		keyHash:   []byte(keyHash),
		secret:    []byte(secret),
		ttl:       ttl,
		now:       time.Now,
	}
}

// Enabled reports whether login is required
func (g *Gate) Enabled() bool {
	return len(g.keyHash) > 0
}

// HashKey returns the bcrypt hash of an access key for configuration
func HashKey(key string) (string, error) {
	if key == "" {
		return "", errors.New("access key must not be empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash access key: %w", err)
	}
	return string(hash), nil
}

// Login checks the chamber id and access key and returns a signed token
func (g *Gate) Login(chamberID, key string) (string, error) {
	idMatch := subtle.ConstantTimeCompare([]byte(strings.TrimSpace(chamberID)), []byte(g.chamberID)) == 1
	if err := bcrypt.CompareHashAndPassword(g.keyHash, []byte(key)); err != nil || !idMatch {
		return "", ErrInvalidCredentials
	}

	now := g.now()
	claims := jwt.RegisteredClaims{
		Subject:   g.chamberID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(g.ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.secret)
	if err != nil {
		return "", fmt.Errorf("token generation failed: %w", err)
	}
	return signed, nil
}

// Verify validates a session token and returns the chamber id it was issued to
func (g *Gate) Verify(token string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return g.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(g.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !parsed.Valid {
		return "", fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	if claims.Subject != g.chamberID {
		return "", ErrInvalidSession
	}
	return claims.Subject, nil
}

// SetCookie stores token in the session cookie
func (g *Gate) SetCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(CookieName, token, int(g.ttl.Seconds()), "/", "", c.Request.TLS != nil, true)
}

// ClearCookie removes the session cookie
func (g *Gate) ClearCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(CookieName, "", -1, "/", "", c.Request.TLS != nil, true)
}

// Middleware rejects requests without a valid session. HTML requests are
// redirected to /login, API requests get 401.
func (g *Gate) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !g.Enabled() {
			c.Next()
			return
		}

		token, err := c.Cookie(CookieName)
		if err != nil || token == "" {
			token = bearerToken(c.GetHeader("Authorization"))
		}

		id, err := g.Verify(token)
		if err != nil {
			if strings.HasPrefix(c.Request.URL.Path, "/api/") {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"success": false,
					"error":   "unauthorized",
				})
				return
			}
			c.Redirect(http.StatusSeeOther, "/login")
			c.Abort()
			return
		}

		c.Set(ContextKey, id)
		c.Next()
	}
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}
