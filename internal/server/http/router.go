// Package http exposes the relay over HTTP+JSON with gin.
package http

import (
	"context"
	"net/http"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/docrelay/internal/logging"
	"github.com/dmitrijs2005/docrelay/internal/server/metrics"
	"github.com/dmitrijs2005/docrelay/internal/server/models"
	"github.com/dmitrijs2005/docrelay/internal/server/webhook"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MaxRequestBytes caps JSON request bodies.
const MaxRequestBytes = 1 << 20

// UploadService is the business API the upload routes call.
type UploadService interface {
	IssueCredential(ctx context.Context, req models.CredentialRequest) (*models.CredentialBundle, error)
	SaveUpload(ctx context.Context, in models.SaveUploadInput) (*models.UploadRecord, error)
	ListUploads(ctx context.Context, filter models.UploadFilter) ([]*models.UploadRecord, error)
	DeleteUpload(ctx context.Context, id string) error
}

// CampaignSource fetches campaigns from the workflow webhook.
type CampaignSource interface {
	FetchCampaigns(ctx context.Context) (webhook.Payload, error)
}

// Deps wires the router. Limiter, Gatherer, Metrics and Log are optional.
type Deps struct {
	Uploads       UploadService
	Campaigns     CampaignSource
	Limiter       *RateLimiter
	Gatherer      prometheus.Gatherer
	Metrics       metrics.Observer
	Log           logging.Logger
	AllowedOrigin string
	Production    bool
	Health        HealthInfo
}

var registerTagNames sync.Once

// useJSONFieldNames makes validator report json names ("userId") instead of
// Go field names.
func useJSONFieldNames() {
	registerTagNames.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	})
}

// NewRouter builds the gin engine with middleware and every route.
func NewRouter(d Deps) *gin.Engine {
	if d.Log == nil {
		d.Log = logging.Nop()
	}
	if d.Metrics == nil {
		d.Metrics = metrics.Nop()
	}
	useJSONFieldNames()

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(RequestID())
	engine.Use(RequestLogger(d.Log.With("module", "http"), d.Metrics))
	engine.Use(CORS(d.AllowedOrigin))
	engine.Use(MaxBodySize(MaxRequestBytes))

	api := &API{
		uploads:    d.Uploads,
		campaigns:  d.Campaigns,
		log:        d.Log.With("module", "api"),
		production: d.Production,
		health:     d.Health,
		now:        time.Now,
	}
	registerRoutes(engine, api, d)
	return engine
}

func registerRoutes(r *gin.Engine, api *API, d Deps) {
	apiGroup := r.Group("/api")
	if d.Limiter != nil {
		apiGroup.Use(d.Limiter.Middleware(d.Metrics))
	}
	{
		apiGroup.POST("/generate-upload-url", api.handleGenerateUploadURL)
		apiGroup.POST("/save-file", api.handleSaveFile)
		apiGroup.GET("/files", api.handleListFiles)
		apiGroup.DELETE("/files/:id", api.handleDeleteFile)
		apiGroup.GET("/campaigns", api.handleCampaigns)
	}

	r.GET("/health", api.handleHealth)
	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"message": "Route " + c.Request.URL.RequestURI() + " not found",
		})
	})
}
