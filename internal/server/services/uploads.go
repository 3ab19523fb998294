// Package services contains server-side business logic. UploadService issues
// signed upload credentials, runs the category clear that may precede them,
// and manages upload records.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/docrelay/internal/common"
	"github.com/dmitrijs2005/docrelay/internal/cryptox"
	"github.com/dmitrijs2005/docrelay/internal/logging"
	"github.com/dmitrijs2005/docrelay/internal/server/config"
	"github.com/dmitrijs2005/docrelay/internal/server/mediastore"
	"github.com/dmitrijs2005/docrelay/internal/server/metrics"
	"github.com/dmitrijs2005/docrelay/internal/server/models"
	"github.com/dmitrijs2005/docrelay/internal/server/repositories/repomanager"
)

// UploadService coordinates the datastore, the media store and the signer.
type UploadService struct {
	db               *sql.DB
	repomanager      repomanager.RepositoryManager
	store            mediastore.Store
	presigner        mediastore.Presigner
	signer           *cryptox.Signer
	cloudName        string
	apiKey           string
	uploadPreset     string
	folder           string
	clearConcurrency int
	log              logging.Logger
	metrics          metrics.Observer
	now              func() time.Time
}

// NewUploadService fails when the signing secret or algorithm is unusable.
func NewUploadService(db *sql.DB, m repomanager.RepositoryManager, store mediastore.Store, cfg *config.Config,
	log logging.Logger, obs metrics.Observer) (*UploadService, error) {
	alg, err := cryptox.ParseAlgorithm(cfg.SignatureAlgorithm)
	if err != nil {
		return nil, err
	}
	signer, err := cryptox.NewSigner(cfg.APISecret, alg)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logging.Nop()
	}
	if obs == nil {
		obs = metrics.Nop()
	}
	presigner, _ := store.(mediastore.Presigner)
	return &UploadService{
		db:               db,
		repomanager:      m,
		store:            store,
		presigner:        presigner,
		signer:           signer,
		cloudName:        cfg.CloudName,
		apiKey:           cfg.APIKey,
		uploadPreset:     cfg.UploadPreset,
		folder:           cfg.UploadFolder,
		clearConcurrency: cfg.ClearConcurrency,
		log:              log.With("module", "uploads"),
		metrics:          obs,
		now:              time.Now,
	}, nil
}

func validateCredentialRequest(req models.CredentialRequest) error {
	var fields []common.FieldError
	switch {
	case req.Filename == "":
		fields = append(fields, common.FieldError{Field: "filename", Message: "Filename is required"})
	case strings.TrimSuffix(req.Filename, documentSuffix) == "":
		fields = append(fields, common.FieldError{Field: "filename", Message: "Filename must have a name before .pdf"})
	}
	if !req.Category.Valid() {
		fields = append(fields, common.FieldError{Field: "category", Message: "Unknown category"})
	}
	if req.UserID == "" {
		fields = append(fields, common.FieldError{Field: "userId", Message: "User ID is required"})
	}
	// both key segments must be non-empty
	switch local, _, _ := strings.Cut(req.UserEmail, "@"); {
	case req.UserEmail == "":
		fields = append(fields, common.FieldError{Field: "userEmail", Message: "Email is required"})
	case local == "":
		fields = append(fields, common.FieldError{Field: "userEmail", Message: "Valid email is required"})
	}
	switch req.Action {
	case "", models.ActionClear, models.ActionUpdate:
	default:
		fields = append(fields, common.FieldError{Field: "action", Message: "Action must be clear or update"})
	}
	if len(fields) > 0 {
		return &common.ValidationError{Message: "Validation failed", Fields: fields}
	}
	return nil
}

// IssueCredential signs a direct upload for req. For rules documents with the
// clear action the category is reset first, and a fatal clear failure aborts
// issuance with *common.ClearFailureError.
func (s *UploadService) IssueCredential(ctx context.Context, req models.CredentialRequest) (bundle *models.CredentialBundle, err error) {
	defer func() {
		label := string(req.Category)
		if !req.Category.Valid() {
			label = "unknown"
		}
		s.metrics.RecordCredential(label, err)
	}()

	if err := validateCredentialRequest(req); err != nil {
		return nil, err
	}

	if req.Category == models.CategoryRulesUpload && req.Action == models.ActionClear {
		res, err := s.ClearCategory(ctx, req.UserID, req.Category)
		if err != nil {
			return nil, err
		}
		s.log.Info(ctx, "category cleared before upload",
			"user_id", req.UserID,
			"category", req.Category,
			"records_found", res.RecordsFound,
			"remote_delete_failures", len(res.RemoteDeleteFailures),
			"db_errors", res.DBErrors)
	}

	now := s.now()
	key := DeriveStorageKey(req.Category, req.Filename, req.UserEmail, now)
	if s.presigner != nil {
		return s.presignedBundle(ctx, req, key, now)
	}

	params := cryptox.ParamSet{
		"folder":        s.folder,
		"public_id":     key,
		"timestamp":     now.Unix(),
		"upload_preset": s.uploadPreset,
	}

	bundle = &models.CredentialBundle{
		CloudName:    s.cloudName,
		APIKey:       s.apiKey,
		Timestamp:    now.Unix(),
		Signature:    s.signer.Sign(params),
		UploadPreset: s.uploadPreset,
		PublicID:     key,
		Folder:       s.folder,
		ResourceType: models.ResourceTypeRaw,
	}
	s.log.Debug(ctx, "credential issued", "public_id", key, "user_id", req.UserID)
	return bundle, nil
}

// presignedBundle authorizes a PUT of key itself; the object key is the
// storage key, so later destroys address the uploaded object.
func (s *UploadService) presignedBundle(ctx context.Context, req models.CredentialRequest, key string, now time.Time) (*models.CredentialBundle, error) {
	up, err := s.presigner.PresignUpload(ctx, key)
	if err != nil {
		return nil, err
	}
	s.log.Debug(ctx, "presigned upload issued", "public_id", key, "user_id", req.UserID)
	return &models.CredentialBundle{
		Timestamp:    now.Unix(),
		PublicID:     key,
		ResourceType: models.ResourceTypeRaw,
		UploadURL:    up.URL,
		UploadMethod: up.Method,
		ExpiresAt:    &up.ExpiresAt,
	}, nil
}

// SaveUpload records a document the client has already uploaded.
func (s *UploadService) SaveUpload(ctx context.Context, in models.SaveUploadInput) (*models.UploadRecord, error) {
	rec := &models.UploadRecord{
		UserID:           in.UserID,
		Category:         in.Category,
		OriginalFilename: in.OriginalFilename,
		StoredFilename:   in.StorageKey,
		RemoteURL:        in.RemoteURL,
		StorageKey:       in.StorageKey,
		FileSize:         in.FileSize,
		MimeType:         common.PDFMimeType,
		UploadStatus:     models.StatusCompleted,
	}

	out, err := s.repomanager.Uploads(s.db).Create(ctx, rec)
	if err != nil {
		if errors.Is(err, common.ErrAlreadyExists) {
			return nil, err
		}
		return nil, &common.UpstreamError{Service: "datastore", Err: err}
	}
	return out, nil
}

// ListUploads returns the caller's records, newest first.
func (s *UploadService) ListUploads(ctx context.Context, filter models.UploadFilter) ([]*models.UploadRecord, error) {
	if filter.UserID == "" {
		return nil, &common.ValidationError{Message: "User ID is required"}
	}
	records, err := s.repomanager.Uploads(s.db).List(ctx, filter)
	if err != nil {
		return nil, &common.UpstreamError{Service: "datastore", Err: err}
	}
	return records, nil
}

// DeleteUpload destroys the remote object and then the row. A failed destroy
// leaves the row in place.
func (s *UploadService) DeleteUpload(ctx context.Context, id string) error {
	repo := s.repomanager.Uploads(s.db)

	rec, err := repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return err
		}
		return &common.UpstreamError{Service: "datastore", Err: err}
	}

	start := time.Now()
	err = s.store.Destroy(ctx, rec.StorageKey)
	s.metrics.RecordRemoteDestroy(time.Since(start), err)
	if err != nil {
		return fmt.Errorf("destroy %s: %w", rec.StorageKey, err)
	}

	if err := repo.DeleteByID(ctx, id); err != nil {
		return &common.UpstreamError{Service: "datastore", Err: err}
	}
	s.log.Info(ctx, "upload deleted", "id", id, "public_id", rec.StorageKey)
	return nil
}
