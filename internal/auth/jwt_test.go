package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() TokenConfig {
	return TokenConfig{Issuer: "rollbook", SigningKey: "k1", AccessTTL: time.Minute, RefreshTTL: time.Hour}
}

func TestParseRejectsForeignTokens(t *testing.T) {
	tc := testConfig()
	pair, err := tc.Issue(User{ID: 7, Username: "t"}, time.Now())
	require.NoError(t, err)

	_, err = tc.ParseAccess(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	other := tc
	other.SigningKey = "k2"
	_, err = other.ParseAccess(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	other = tc
	other.Issuer = "someone-else"
	_, err = other.ParseAccess(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired, err := tc.Issue(User{ID: 7}, time.Now().Add(-2*time.Hour))
	require.NoError(t, err)
	_, err = tc.ParseRefresh(expired.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRequireLoginBearer(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tc := testConfig()
	r := gin.New()
	r.GET("/", RequireLogin(tc), func(c *gin.Context) {
		id, ok := CurrentUserID(c)
		assert.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"id": id})
	})

	pair, err := tc.Issue(User{ID: 7, Username: "t"}, time.Now())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "bearer "+pair.AccessToken)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":7}`, rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+pair.RefreshToken)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
