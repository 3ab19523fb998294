package mediastore

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/docrelay/internal/common"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	deleteObject = func(c *s3.Client, ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
		return c.DeleteObject(ctx, in, optFns...)
	}

	presignPutObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return s3.NewPresignClient(c).PresignPutObject(ctx, in, optFns...)
	}
)

// UploadURLTTL is how long a presigned upload URL stays valid.
const UploadURLTTL = 15 * time.Minute

// S3Options configures an S3-compatible backend such as MinIO.
type S3Options struct {
	Region       string
	AccessKey    string
	SecretKey    string
	BaseEndpoint string
	Bucket       string
}

// S3Store keeps documents in one bucket, keyed by storage key.
type S3Store struct {
	client *s3.Client
	bucket string
	now    func() time.Time
}

func NewS3Store(ctx context.Context, o S3Options) (*S3Store, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(o.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(o.AccessKey, o.SecretKey, "")))
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}

	client := newS3ClientFromConfig(cfg, func(so *s3.Options) {
		if o.BaseEndpoint != "" {
			so.BaseEndpoint = aws.String(o.BaseEndpoint)
			so.UsePathStyle = true
		}
	})

	return &S3Store{client: client, bucket: o.Bucket, now: time.Now}, nil
}

// Destroy deletes the object. S3 reports success for missing keys.
func (s *S3Store) Destroy(ctx context.Context, key string) error {
	bucket := s.bucket
	if _, err := deleteObject(s.client, ctx, &s3.DeleteObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}); err != nil {
		return &common.UpstreamError{Service: "s3", Err: err}
	}
	return nil
}

// PresignUpload returns a PUT URL for key. The client must send
// Content-Type: application/pdf, which is part of the signature.
func (s *S3Store) PresignUpload(ctx context.Context, key string) (*PresignedUpload, error) {
	bucket := s.bucket
	contentType := common.PDFMimeType
	req, err := presignPutObject(s.client, ctx, &s3.PutObjectInput{
		Bucket:      &bucket,
		Key:         &key,
		ContentType: &contentType,
	}, s3.WithPresignExpires(UploadURLTTL))
	if err != nil {
		return nil, &common.UpstreamError{Service: "s3", Err: err}
	}

	return &PresignedUpload{
		URL:       req.URL,
		Method:    req.Method,
		ExpiresAt: s.now().Add(UploadURLTTL),
	}, nil
}
