// Package config handles configuration for the relay server: defaults,
// an optional JSON file, environment variables (including a .env file), and
// command-line flags, applied in that order.
package config

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/docrelay/internal/common"
	"github.com/dmitrijs2005/docrelay/internal/cryptox"
)

// Media store backends.
const (
	MediaBackendCloudinary = "cloudinary"
	MediaBackendS3         = "s3"
)

// EnvironmentProduction hides internal error details from responses.
const EnvironmentProduction = "production"

// Config holds runtime settings for the relay.
//
// Fields:
//   - HTTPAddr: bind address of the HTTP API.
//   - AllowedOrigin: origin allowed for cross-origin browser calls.
//   - DatabaseDSN: PostgreSQL DSN (pgx). Required.
//   - CloudName / APIKey / APISecret: media store account. APISecret is required.
//   - UploadPreset / UploadFolder: parameters bound into every upload signature.
//   - SignatureAlgorithm: "sha1" (default) or "sha256".
//   - MediaBackend: "cloudinary" or "s3"; selects how uploads are authorized and
//     where remote objects are destroyed.
//   - S3*: settings of the S3-compatible backend.
//   - CampaignWebhookURL: workflow webhook returning campaigns.
//   - Environment: "production" hides error details.
//   - RateLimitWindow / RateLimitMax / RateLimitCapacity: per-address sliding window.
//   - ClearConcurrency: parallel remote deletes during a cascade clear.
type Config struct {
	HTTPAddr           string
	AllowedOrigin      string
	DatabaseDSN        string
	CloudName          string
	APIKey             string
	APISecret          string
	UploadPreset       string
	UploadFolder       string
	SignatureAlgorithm string
	MediaBackend       string
	S3AccessKey        string
	S3SecretKey        string
	S3Bucket           string
	S3Region           string
	S3BaseEndpoint     string
	CampaignWebhookURL string
	WebhookTimeout     time.Duration
	Environment        string
	LogLevel           string
	RateLimitWindow    time.Duration
	RateLimitMax       int
	RateLimitCapacity  int
	ClearConcurrency   int
}

// LoadDefaults populates Config with development defaults. Secrets and the
// DSN are intentionally left empty.
func (c *Config) LoadDefaults() {
	c.HTTPAddr = ":5000"
	c.AllowedOrigin = "http://localhost:5173"
	c.UploadPreset = "unifimed-pdf-upload-signed"
	c.UploadFolder = "pdf-uploads"
	c.SignatureAlgorithm = string(cryptox.SHA1)
	c.MediaBackend = MediaBackendCloudinary
	c.S3Bucket = "pdf-uploads"
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = "http://127.0.0.1:9000/"
	c.WebhookTimeout = 15 * time.Second
	c.Environment = "development"
	c.LogLevel = "info"
	c.RateLimitWindow = 15 * time.Minute
	c.RateLimitMax = 100
	c.RateLimitCapacity = 10000
	c.ClearConcurrency = 8
}

// IsProduction reports whether error details must be hidden.
func (c *Config) IsProduction() bool {
	return c.Environment == EnvironmentProduction
}

// Validate reports configuration faults that must stop the process.
func (c *Config) Validate() error {
	if c.DatabaseDSN == "" {
		return common.ErrMissingDatabaseDSN
	}
	if c.APISecret == "" {
		return common.ErrMissingSecret
	}
	if _, err := cryptox.ParseAlgorithm(c.SignatureAlgorithm); err != nil {
		return err
	}
	switch c.MediaBackend {
	case MediaBackendCloudinary:
	case MediaBackendS3:
		if c.S3Bucket == "" {
			return fmt.Errorf("media backend %q needs a bucket", c.MediaBackend)
		}
	default:
		return fmt.Errorf("unknown media backend %q", c.MediaBackend)
	}
	if c.RateLimitMax <= 0 || c.RateLimitWindow <= 0 {
		return fmt.Errorf("rate limit must be positive, got %d per %s", c.RateLimitMax, c.RateLimitWindow)
	}
	return nil
}

// LoadConfig builds a Config from defaults, then the optional JSON file,
// then the environment, and finally command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}
