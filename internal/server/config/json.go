package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/docrelay/internal/flagx"
	"github.com/dmitrijs2005/docrelay/internal/timex"
)

// JsonConfig is the on-disk shape of the config file. Durations accept
// either "15m" strings or integer nanoseconds.
type JsonConfig struct {
	HTTPAddr           string         `json:"http_addr"`
	AllowedOrigin      string         `json:"allowed_origin"`
	DatabaseDSN        string         `json:"database_dsn"`
	CloudName          string         `json:"cloud_name"`
	APIKey             string         `json:"api_key"`
	APISecret          string         `json:"api_secret"`
	UploadPreset       string         `json:"upload_preset"`
	UploadFolder       string         `json:"upload_folder"`
	SignatureAlgorithm string         `json:"signature_algorithm"`
	MediaBackend       string         `json:"media_backend"`
	S3AccessKey        string         `json:"s3_access_key"`
	S3SecretKey        string         `json:"s3_secret_key"`
	S3Bucket           string         `json:"s3_bucket"`
	S3Region           string         `json:"s3_region"`
	S3BaseEndpoint     string         `json:"s3_base_endpoint"`
	CampaignWebhookURL string         `json:"campaign_webhook_url"`
	WebhookTimeout     timex.Duration `json:"webhook_timeout"`
	Environment        string         `json:"environment"`
	LogLevel           string         `json:"log_level"`
	RateLimitWindow    timex.Duration `json:"rate_limit_window"`
	RateLimitMax       int            `json:"rate_limit_max"`
	RateLimitCapacity  int            `json:"rate_limit_capacity"`
	ClearConcurrency   int            `json:"clear_concurrency"`
}

// parseJson overlays values from the file named by -c/-config (or
// RELAY_CONFIG). Fields absent from the file keep their current value.
// An unreadable or malformed file panics.
func parseJson(config *Config) {
	path := flagx.ConfigFile()
	if path == "" {
		return
	}

	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.AllowedOrigin, c.AllowedOrigin)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.CloudName, c.CloudName)
	setString(&config.APIKey, c.APIKey)
	setString(&config.APISecret, c.APISecret)
	setString(&config.UploadPreset, c.UploadPreset)
	setString(&config.UploadFolder, c.UploadFolder)
	setString(&config.SignatureAlgorithm, c.SignatureAlgorithm)
	setString(&config.MediaBackend, c.MediaBackend)
	setString(&config.S3AccessKey, c.S3AccessKey)
	setString(&config.S3SecretKey, c.S3SecretKey)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.CampaignWebhookURL, c.CampaignWebhookURL)
	setString(&config.Environment, c.Environment)
	setString(&config.LogLevel, c.LogLevel)

	if c.WebhookTimeout.Duration > 0 {
		config.WebhookTimeout = c.WebhookTimeout.Duration
	}
	if c.RateLimitWindow.Duration > 0 {
		config.RateLimitWindow = c.RateLimitWindow.Duration
	}
	if c.RateLimitMax > 0 {
		config.RateLimitMax = c.RateLimitMax
	}
	if c.RateLimitCapacity > 0 {
		config.RateLimitCapacity = c.RateLimitCapacity
	}
	if c.ClearConcurrency > 0 {
		config.ClearConcurrency = c.ClearConcurrency
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
