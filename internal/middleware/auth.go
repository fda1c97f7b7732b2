// Package middleware provides HTTP middleware for the Gin framework.
package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/youzarsiph/the-certain-news/internal/models"
)

const (
	UserIDKey  = "user_id"
	IsStaffKey = "is_staff"
	// TokenCookie carries the token for browser pages and websockets, which
	// cannot set an Authorization header.
	TokenCookie = "tcn_token"
)

var errInvalidToken = errors.New("invalid token")

// JWT issues and verifies HS256 bearer tokens.
type JWT struct {
	secret []byte
	ttl    time.Duration
}

func NewJWT(secret string, ttl time.Duration) *JWT {
	return &JWT{secret: []byte(secret), ttl: ttl}
}

// Issue returns a signed token for user.
func (j *JWT) Issue(user *models.User) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":  user.ID,
		"username": user.Username,
		"is_staff": user.IsStaff,
		"exp":      time.Now().Add(j.ttl).Unix(),
	})
	return token.SignedString(j.secret)
}

// Parse verifies a token and returns its user id and staff flag.
func (j *JWT) Parse(raw string) (int, bool, error) {
	token, err := jwt.Parse(raw, func(token *jwt.Token) (interface{}, error) {
		return j.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return 0, false, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return 0, false, errInvalidToken
	}
	id, ok := claims["user_id"].(float64)
	if !ok || id < 1 {
		return 0, false, errInvalidToken
	}
	staff, _ := claims["is_staff"].(bool)
	return int(id), staff, nil
}

func tokenFrom(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if cookie, err := c.Cookie(TokenCookie); err == nil {
		return cookie
	}
	return ""
}

func (j *JWT) authenticate(c *gin.Context) (bool, error) {
	raw := tokenFrom(c)
	if raw == "" {
		return false, nil
	}
	id, staff, err := j.Parse(raw)
	if err != nil {
		return false, err
	}
	c.Set(UserIDKey, id)
	c.Set(IsStaffKey, staff)
	return true, nil
}

// Required rejects requests without a valid token.
func (j *JWT) Required() gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, err := j.authenticate(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}
		c.Next()
	}
}

// Optional authenticates the request when it carries a valid token and lets
// it through as anonymous otherwise.
func (j *JWT) Optional() gin.HandlerFunc {
	return func(c *gin.Context) {
		_, _ = j.authenticate(c)
		c.Next()
	}
}

// RequireStaff must run after Required.
func RequireStaff() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IsStaff(c) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Staff only"})
			return
		}
		c.Next()
	}
}

// UserID returns the authenticated user id.
func UserID(c *gin.Context) (int, bool) {
	id, ok := c.Get(UserIDKey)
	if !ok {
		return 0, false
	}
	v, ok := id.(int)
	return v, ok
}

func IsStaff(c *gin.Context) bool {
	return c.GetBool(IsStaffKey)
}
