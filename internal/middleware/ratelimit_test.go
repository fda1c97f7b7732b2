package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestLimiter_PerKeyBuckets(t *testing.T) {
	l := NewLimiter(0.001, 2)

	assert.True(t, l.Allow("a"))
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))
	assert.True(t, l.Allow("b"))
}

func TestRateLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RateLimit(NewLimiter(0.001, 1)))
	router.POST("/comments", func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})

	send := func(ip string) int {
		req := httptest.NewRequest(http.MethodPost, "/comments", nil)
		req.RemoteAddr = ip + ":1234"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusCreated, send("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.1"))
	assert.Equal(t, http.StatusCreated, send("10.0.0.2"))
}

func TestRateKey_PrefersUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.RemoteAddr = "10.0.0.9:1"

	assert.Equal(t, "ip:10.0.0.9", RateKey(c))
	c.Set(UserIDKey, 12)
	assert.Equal(t, "user:12", RateKey(c))
}
