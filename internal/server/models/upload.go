// Package models defines server-side data models persisted in the database
// or exchanged between services.
package models

import "time"

// Category is the kind of document an upload belongs to.
type Category string

const (
	CategoryContactEnrichment Category = "contact_enrichment_pdf"
	CategoryKeywordResearch   Category = "keyword_research_pdf"
	CategoryRulesUpload       Category = "rules_upload_pdf"
)

// Categories lists every accepted category.
var Categories = []Category{CategoryContactEnrichment, CategoryKeywordResearch, CategoryRulesUpload}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// UploadStatus tracks the processing state of an uploaded document.
type UploadStatus string

const (
	StatusPending    UploadStatus = "pending"
	StatusProcessing UploadStatus = "processing"
	StatusCompleted  UploadStatus = "completed"
	StatusFailed     UploadStatus = "failed"
)

// UploadRecord describes one uploaded document. The bytes themselves live in
// the media store under StorageKey.
type UploadRecord struct {
	ID               string   `json:"id"`
	UserID           string   `json:"user_id"`
	Category         Category `json:"category"`
	OriginalFilename string   `json:"original_filename"`
	// StoredFilename mirrors StorageKey; clients read it under its own name.
	StoredFilename string       `json:"stored_filename"`
	RemoteURL      string       `json:"cloudinary_url"`
	StorageKey     string       `json:"cloudinary_public_id"`
	FileSize       int64        `json:"file_size"`
	MimeType       string       `json:"mime_type"`
	UploadStatus   UploadStatus `json:"upload_status"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// UploadFilter narrows a listing. Empty fields are not applied.
type UploadFilter struct {
	UserID   string
	Status   UploadStatus
	Category Category
}

// SaveUploadInput is the caller-supplied part of a new record. The relay
// fills in the stored filename, MIME type and status.
type SaveUploadInput struct {
	UserID           string
	Category         Category
	OriginalFilename string
	RemoteURL        string
	StorageKey       string
	FileSize         int64
}
