package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthInfo reports which collaborators were configured at startup.
type HealthInfo struct {
	DatastoreConfigured  bool
	MediaStoreConfigured bool
	MediaBackend         string
}

func configured(ok bool) string {
	if ok {
		return "Configured"
	}
	return "Not configured"
}

func (a *API) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "OK",
		"message":   "Document relay is running",
		"timestamp": a.now().UTC().Format(time.RFC3339),
		"services": gin.H{
			"datastore":     configured(a.health.DatastoreConfigured),
			"media_store":   configured(a.health.MediaStoreConfigured),
			"media_backend": a.health.MediaBackend,
		},
	})
}
