package models

import "time"

// Optional actions of a credential request. ActionClear asks the issuer to
// reset the category before signing; ActionUpdate is accepted and has no
// effect on issuance.
const (
	ActionClear  = "clear"
	ActionUpdate = "update"
)

// ResourceTypeRaw is the media store resource type used for documents.
const ResourceTypeRaw = "raw"

// CredentialRequest is the input of a signed-upload issuance.
type CredentialRequest struct {
	Filename  string
	Category  Category
	UserID    string
	UserEmail string
	Action    string
}

// CredentialBundle authorizes one direct upload to the media store. It is
// never persisted. Signed-parameter backends fill CloudName, APIKey and
// Signature; presigning backends fill UploadURL, UploadMethod and ExpiresAt.
type CredentialBundle struct {
	CloudName    string `json:"cloudName"`
	APIKey       string `json:"apiKey"`
	Timestamp    int64  `json:"timestamp"`
	Signature    string `json:"signature"`
	UploadPreset string `json:"upload_preset"`
	PublicID     string `json:"public_id"`
	Folder       string `json:"folder"`
	ResourceType string `json:"resource_type"`

	UploadURL    string     `json:"upload_url,omitempty"`
	UploadMethod string     `json:"upload_method,omitempty"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
}

// ClearResult summarizes a cascade clear. Recoverable failures are listed
// here; only DBErrors on derived tables abort issuance.
type ClearResult struct {
	RecordsFound         int      `json:"records_found"`
	RemoteDeleteFailures []string `json:"remote_delete_failures"`
	DBErrors             []string `json:"db_errors"`
}
