package http

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/docrelay/internal/common"
	"github.com/dmitrijs2005/docrelay/internal/logging"
	"github.com/dmitrijs2005/docrelay/internal/server/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type API struct {
	uploads    UploadService
	campaigns  CampaignSource
	log        logging.Logger
	production bool
	health     HealthInfo
	now        func() time.Time
}

func (a *API) handleGenerateUploadURL(c *gin.Context) {
	var req generateUploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, bindError(err))
		return
	}

	bundle, err := a.uploads.IssueCredential(c.Request.Context(), req.model())
	if err != nil {
		a.writeError(c, err, "Failed to generate signed upload URL")
		return
	}
	respondOK(c, http.StatusOK, "Signed upload URL generated successfully", bundle)
}

func (a *API) handleSaveFile(c *gin.Context) {
	var req saveFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, bindError(err))
		return
	}

	rec, err := a.uploads.SaveUpload(c.Request.Context(), req.model())
	if err != nil {
		a.writeError(c, err, "Failed to save file record")
		return
	}
	respondOK(c, http.StatusCreated, "File record saved successfully", newSavedFileResponse(rec))
}

func (a *API) handleListFiles(c *gin.Context) {
	filter := models.UploadFilter{
		UserID:   c.Query("userId"),
		Status:   models.UploadStatus(c.Query("status")),
		Category: models.Category(c.Query("category")),
	}

	records, err := a.uploads.ListUploads(c.Request.Context(), filter)
	if err != nil {
		a.writeError(c, err, "Failed to fetch files")
		return
	}
	respondOK(c, http.StatusOK, "Files retrieved successfully", records)
}

func (a *API) handleDeleteFile(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		respondValidation(c, &common.ValidationError{
			Message: "Validation failed",
			Fields:  []common.FieldError{{Field: "id", Message: "Valid file ID is required"}},
		})
		return
	}

	if err := a.uploads.DeleteUpload(c.Request.Context(), id); err != nil {
		a.writeError(c, err, "Failed to delete file")
		return
	}
	c.JSON(http.StatusOK, envelope{Success: true, Message: "File deleted successfully"})
}

// handleCampaigns answers with the bare campaign array, as the frontend
// expects.
func (a *API) handleCampaigns(c *gin.Context) {
	p, err := a.campaigns.FetchCampaigns(c.Request.Context())
	if err != nil {
		a.writeError(c, err, "Failed to fetch campaigns")
		return
	}
	c.JSON(http.StatusOK, p.Campaigns())
}
