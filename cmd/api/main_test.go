package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"rollbook/internal/config"
	"rollbook/internal/httpmiddleware"
)

func TestSecurityHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(securityHeaders())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))
}

func TestNewLoggerLevel(t *testing.T) {
	log, err := newLogger(config.App{Env: "dev", LogLevel: "warn"})
	require.NoError(t, err)
	assert.False(t, log.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, log.Core().Enabled(zapcore.WarnLevel))

	_, err = newLogger(config.App{LogLevel: "loud"})
	assert.Error(t, err)
}

func TestNewLimiterFallsBackToMemory(t *testing.T) {
	l := newLimiter(config.App{RateLimitBackend: "redis", RateLimitPerMin: 5}, nil, zap.NewNop())
	_, ok := l.(*httpmiddleware.SimpleTokenBucket)
	assert.True(t, ok)
}
