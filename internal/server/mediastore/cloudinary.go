package mediastore

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/dmitrijs2005/docrelay/internal/common"
	"github.com/dmitrijs2005/docrelay/internal/server/models"
)

// Destroy results that leave the key absent from the store.
const (
	destroyOK       = "ok"
	destroyNotFound = "not found"
)

var (
	newCloudinary = cloudinary.NewFromParams

	destroyAsset = func(cld *cloudinary.Cloudinary, ctx context.Context, p uploader.DestroyParams) (*uploader.DestroyResult, error) {
		return cld.Upload.Destroy(ctx, p)
	}
)

// CloudinaryStore destroys raw assets through the admin upload API.
type CloudinaryStore struct {
	cld *cloudinary.Cloudinary
}

func NewCloudinaryStore(cloudName, apiKey, apiSecret string) (*CloudinaryStore, error) {
	if apiSecret == "" {
		return nil, common.ErrMissingSecret
	}
	cld, err := newCloudinary(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("cloudinary client: %w", err)
	}
	return &CloudinaryStore{cld: cld}, nil
}

// Destroy removes the raw asset stored under key. A key that is already gone
// counts as destroyed.
func (s *CloudinaryStore) Destroy(ctx context.Context, key string) error {
	res, err := destroyAsset(s.cld, ctx, uploader.DestroyParams{
		PublicID:     key,
		ResourceType: models.ResourceTypeRaw,
	})
	if err != nil {
		return &common.UpstreamError{Service: "cloudinary", Err: err}
	}
	if res == nil {
		return &common.UpstreamError{Service: "cloudinary", Err: errors.New("empty destroy response")}
	}
	if res.Error.Message != "" {
		return &common.UpstreamError{Service: "cloudinary", Err: errors.New(res.Error.Message)}
	}
	switch res.Result {
	case destroyOK, destroyNotFound:
		return nil
	default:
		return &common.UpstreamError{Service: "cloudinary", Err: fmt.Errorf("destroy %s: %s", key, res.Result)}
	}
}
