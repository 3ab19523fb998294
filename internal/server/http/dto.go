package http

import (
	"time"

	"github.com/dmitrijs2005/docrelay/internal/server/models"
)

type generateUploadURLRequest struct {
	Filename  string `json:"filename" binding:"required"`
	Category  string `json:"category" binding:"required,oneof=contact_enrichment_pdf keyword_research_pdf rules_upload_pdf"`
	UserID    string `json:"userId" binding:"required"`
	UserEmail string `json:"userEmail" binding:"required,email"`
	Action    string `json:"action" binding:"omitempty,oneof=clear update"`
}

func (r generateUploadURLRequest) model() models.CredentialRequest {
	return models.CredentialRequest{
		Filename:  r.Filename,
		Category:  models.Category(r.Category),
		UserID:    r.UserID,
		UserEmail: r.UserEmail,
		Action:    r.Action,
	}
}

type saveFileRequest struct {
	UserID             string `json:"userId" binding:"required"`
	Category           string `json:"category" binding:"required,oneof=contact_enrichment_pdf keyword_research_pdf rules_upload_pdf"`
	OriginalFilename   string `json:"original_filename" binding:"required"`
	CloudinaryURL      string `json:"cloudinary_url" binding:"required,url"`
	CloudinaryPublicID string `json:"cloudinary_public_id" binding:"required"`
	FileSize           *int64 `json:"file_size" binding:"omitempty,min=1"`
}

func (r saveFileRequest) model() models.SaveUploadInput {
	in := models.SaveUploadInput{
		UserID:           r.UserID,
		Category:         models.Category(r.Category),
		OriginalFilename: r.OriginalFilename,
		RemoteURL:        r.CloudinaryURL,
		StorageKey:       r.CloudinaryPublicID,
	}
	if r.FileSize != nil {
		in.FileSize = *r.FileSize
	}
	return in
}

type savedFileResponse struct {
	ID             string              `json:"id"`
	StoredFilename string              `json:"stored_filename"`
	CloudinaryURL  string              `json:"cloudinary_url"`
	Category       models.Category     `json:"category"`
	UploadStatus   models.UploadStatus `json:"upload_status"`
	CreatedAt      time.Time           `json:"created_at"`
}

func newSavedFileResponse(rec *models.UploadRecord) savedFileResponse {
	return savedFileResponse{
		ID:             rec.ID,
		StoredFilename: rec.StoredFilename,
		CloudinaryURL:  rec.RemoteURL,
		Category:       rec.Category,
		UploadStatus:   rec.UploadStatus,
		CreatedAt:      rec.CreatedAt,
	}
}
