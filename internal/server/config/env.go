package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// loadDotEnv is a seam for tests.
var loadDotEnv = func() error { return godotenv.Load() }

// parseEnv overlays values from the process environment. A .env file in the
// working directory is loaded first when present; variables already set in
// the environment win over the file.
func parseEnv(config *Config) {
	_ = loadDotEnv()

	if port, ok := lookup("PORT"); ok {
		config.HTTPAddr = ":" + port
	}
	envString(&config.AllowedOrigin, "FRONTEND_URL")
	envString(&config.DatabaseDSN, "DATABASE_DSN")
	envString(&config.CloudName, "CLOUDINARY_CLOUD_NAME")
	envString(&config.APIKey, "CLOUDINARY_API_KEY")
	envString(&config.APISecret, "CLOUDINARY_API_SECRET")
	envString(&config.UploadPreset, "CLOUDINARY_UPLOAD_PRESET")
	envString(&config.UploadFolder, "UPLOAD_FOLDER")
	envString(&config.SignatureAlgorithm, "SIGNATURE_ALGORITHM")
	envString(&config.MediaBackend, "MEDIA_BACKEND")
	envString(&config.S3AccessKey, "S3_ACCESS_KEY")
	envString(&config.S3SecretKey, "S3_SECRET_KEY")
	envString(&config.S3Bucket, "S3_BUCKET")
	envString(&config.S3Region, "S3_REGION")
	envString(&config.S3BaseEndpoint, "S3_BASE_ENDPOINT")
	envString(&config.CampaignWebhookURL, "CAMPAIGN_WEBHOOK_URL")
	envString(&config.Environment, "APP_ENV")
	envString(&config.LogLevel, "LOG_LEVEL")
	envDuration(&config.WebhookTimeout, "WEBHOOK_TIMEOUT")
	envDuration(&config.RateLimitWindow, "RATE_LIMIT_WINDOW")
	envInt(&config.RateLimitMax, "RATE_LIMIT_MAX")
	envInt(&config.RateLimitCapacity, "RATE_LIMIT_CAPACITY")
	envInt(&config.ClearConcurrency, "CLEAR_CONCURRENCY")
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func envString(dst *string, key string) {
	if v, ok := lookup(key); ok {
		*dst = v
	}
}

// malformed numeric values are ignored and the previous value kept
func envInt(dst *int, key string) {
	if v, ok := lookup(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envDuration(dst *time.Duration, key string) {
	if v, ok := lookup(key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
