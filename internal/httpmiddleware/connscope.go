package httpmiddleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"rollbook/internal/store"
)

const connKey = "store.conn"

// ConnScope checks out one database connection for the request and returns
// it to the pool when the handler chain finishes, whichever way it exits.
func ConnScope(db *store.DB, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := db.Conn(c.Request.Context())
		if err != nil {
			log.Error("acquire connection", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"ok": false, "error": "database unavailable"})
			return
		}
		defer func() {
			if err := conn.Close(); err != nil {
				log.Warn("release connection", zap.Error(err))
			}
		}()
		c.Set(connKey, store.Querier(conn))
		c.Next()
	}
}

// Conn returns the handle ConnScope attached to the request.
func Conn(c *gin.Context) (store.Querier, bool) {
	v, ok := c.Get(connKey)
	if !ok {
		return nil, false
	}
	q, ok := v.(store.Querier)
	return q, ok
}
