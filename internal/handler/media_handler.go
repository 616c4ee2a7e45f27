package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Steven-Gee-ally/afcglide-listings-009/internal/media"
	"github.com/Steven-Gee-ally/afcglide-listings-009/internal/repository"
)

// MediaHandler serves attachment payloads back out of the media store.
type MediaHandler struct {
	Attachments *repository.AttachmentRepository
	Media       *media.GridFSStore
}

// RegisterRoutes wires the download route on the public group.
func (h *MediaHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/listings/:id/media/:attachmentID", h.Download)
}

// Download handles GET /api/listings/:id/media/:attachmentID.
func (h *MediaHandler) Download(c *gin.Context) {
	attachment, err := h.Attachments.GetByID(c.Request.Context(), c.Param("attachmentID"))
	if err != nil {
		jsonError(c, http.StatusNotFound, "Attachment not found.")
		return
	}
	if !attachment.ListingID.Valid || attachment.ListingID.String != c.Param("id") {
		jsonError(c, http.StatusNotFound, "Attachment not found.")
		return
	}

	data, err := h.Media.Download(attachment.FileID)
	if err != nil {
		jsonError(c, http.StatusInternalServerError, "Download failed.")
		return
	}

	c.Header("Content-Disposition", "inline; filename="+attachment.FileName)
	c.Data(http.StatusOK, attachment.MimeType, data)
}
