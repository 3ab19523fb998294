// Package mediastore removes stored documents from the remote media store.
// Uploads never pass through the relay; backends that cannot verify a
// client-side signature also hand out presigned upload URLs.
package mediastore

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/docrelay/internal/server/config"
)

// Store destroys remote objects by storage key.
type Store interface {
	Destroy(ctx context.Context, key string) error
}

// PresignedUpload lets a client PUT one object directly to the backend.
type PresignedUpload struct {
	URL       string
	Method    string
	ExpiresAt time.Time
}

// Presigner is implemented by backends whose uploads are authorized with a
// presigned URL instead of a signed parameter set.
type Presigner interface {
	PresignUpload(ctx context.Context, key string) (*PresignedUpload, error)
}

// New selects the backend named by cfg.MediaBackend.
func New(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.MediaBackend {
	case config.MediaBackendCloudinary:
		return NewCloudinaryStore(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	case config.MediaBackendS3:
		return NewS3Store(ctx, S3Options{
			Region:       cfg.S3Region,
			AccessKey:    cfg.S3AccessKey,
			SecretKey:    cfg.S3SecretKey,
			BaseEndpoint: cfg.S3BaseEndpoint,
			Bucket:       cfg.S3Bucket,
		})
	default:
		return nil, fmt.Errorf("unknown media backend %q", cfg.MediaBackend)
	}
}
