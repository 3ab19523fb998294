package http

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/docrelay/internal/common"
	"github.com/dmitrijs2005/docrelay/internal/logging"
	"github.com/dmitrijs2005/docrelay/internal/netx"
	"github.com/dmitrijs2005/docrelay/internal/server/metrics"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const requestIDKey = "request_id"

// RequestID keeps a caller-supplied X-Request-ID or mints one, echoes it on
// the response and stores it in the request context for outbound calls.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(common.RequestIDHeaderName)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(common.RequestIDHeaderName, id)
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), netx.RequestIDKey{}, id))
		c.Next()
	}
}

func RequestLogger(log logging.Logger, obs metrics.Observer) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start)
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		obs.RecordHTTP(c.Request.Method, route, status, duration)
		log.Info(c.Request.Context(), "request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"route", route,
			"status", status,
			"duration", duration,
			"request_id", c.GetString(requestIDKey))
	}
}

// CORS allows the configured frontend origin with credentials. An empty
// origin allows any origin without credentials.
func CORS(origin string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", common.RequestIDHeaderName},
		ExposeHeaders: []string{common.RequestIDHeaderName},
		MaxAge:        12 * time.Hour,
	}
	if origin == "" {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = []string{origin}
		cfg.AllowCredentials = true
	}
	return cors.New(cfg)
}

func MaxBodySize(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limit > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}
		c.Next()
	}
}
