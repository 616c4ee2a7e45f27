package handler

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Steven-Gee-ally/afcglide-listings-009/internal/flash"
	"github.com/Steven-Gee-ally/afcglide-listings-009/internal/middleware"
	"github.com/Steven-Gee-ally/afcglide-listings-009/internal/model"
	"github.com/Steven-Gee-ally/afcglide-listings-009/internal/service"
	"github.com/Steven-Gee-ally/afcglide-listings-009/internal/upload"
	"github.com/Steven-Gee-ally/afcglide-listings-009/internal/validate"
)

// ListingHandler owns the submission surface: create, update, delete, and
// the moderation routes.
type ListingHandler struct {
	Listings *service.ListingService
	Auth     *service.AuthService
	Flash    *flash.Broker
}

// RegisterRoutes wires the listing routes. public is session-resolved but
// open; protected requires a session; admin additionally requires the
// moderator role.
func (h *ListingHandler) RegisterRoutes(public, protected, admin *gin.RouterGroup) {
	public.GET("/listings/:id", h.Get)

	protected.POST("/listings", h.Submit)
	protected.PUT("/listings/:id", h.Update)
	protected.DELETE("/listings/:id", h.Delete)

	admin.GET("/admin/listings/pending", h.GetPending)
	admin.PUT("/admin/listings/:id/approve", h.Approve)
	admin.PUT("/admin/listings/:id/reject", h.Reject)
}

// Submit handles POST /api/listings: the multipart submission form, in both
// AJAX and classic form-post modes. Form mode ends in a redirect back to the
// referring page with a one-shot listing_submitted marker so a refresh does
// not resubmit.
func (h *ListingHandler) Submit(c *gin.Context) {
	actor := middleware.Actor(c)
	actorKey := middleware.ActorFlashKey(c)

	if err := c.Request.ParseMultipartForm(32 << 20); err != nil && err != http.ErrNotMultipart {
		h.fail(c, actorKey, http.StatusBadRequest, "Could not read the submitted form.")
		return
	}

	if !h.Auth.VerifyFormToken(c.PostForm("token"), service.ActionSubmitListing, actorKey) {
		h.fail(c, actorKey, http.StatusForbidden, "Security check failed. Please try again.")
		return
	}

	result, err := h.Listings.CreateListing(c.Request.Context(), actor, c.Request.PostForm, submissionFiles(c.Request.MultipartForm))
	if err != nil {
		h.failFromErr(c, actorKey, err)
		return
	}

	message := "Listing submitted successfully! It is awaiting admin approval."
	if len(result.Warnings) > 0 {
		h.Flash.Warning(actorKey, message+" "+result.Warnings[0])
	} else {
		h.Flash.Success(actorKey, message)
	}

	if wantsJSON(c) {
		jsonSuccess(c, gin.H{
			"message":        message,
			"post_id":        result.ListingID,
			"uploaded_files": result.Uploaded,
		})
		return
	}

	target, parseErr := url.Parse(referer(c))
	if parseErr != nil {
		target = &url.URL{Path: "/"}
	}
	q := target.Query()
	q.Set("listing_submitted", "1")
	target.RawQuery = q.Encode()
	c.Redirect(http.StatusSeeOther, target.String())
}

// Get handles GET /api/listings/:id: the listing with its attributes and
// agents. Unpublished listings are visible only to their owner or a moderator.
func (h *ListingHandler) Get(c *gin.Context) {
	detail, err := h.Listings.GetListing(c.Request.Context(), middleware.Actor(c), c.Param("id"))
	if err != nil {
		h.failFromErr(c, middleware.ActorFlashKey(c), err)
		return
	}
	jsonSuccess(c, gin.H{
		"listing":    detail.Listing,
		"attributes": detail.Attributes,
		"agents":     detail.Agents,
	})
}

// Update handles PUT /api/listings/:id.
func (h *ListingHandler) Update(c *gin.Context) {
	actor := middleware.Actor(c)
	actorKey := middleware.ActorFlashKey(c)

	if err := c.Request.ParseMultipartForm(32 << 20); err != nil && err != http.ErrNotMultipart {
		h.fail(c, actorKey, http.StatusBadRequest, "Could not read the submitted form.")
		return
	}

	if err := h.Listings.UpdateListing(c.Request.Context(), actor, c.Param("id"), c.Request.PostForm); err != nil {
		h.failFromErr(c, actorKey, err)
		return
	}
	jsonSuccess(c, gin.H{"message": "Listing updated."})
}

// Delete handles DELETE /api/listings/:id.
func (h *ListingHandler) Delete(c *gin.Context) {
	actor := middleware.Actor(c)
	actorKey := middleware.ActorFlashKey(c)

	if err := h.Listings.DeleteListing(c.Request.Context(), actor, c.Param("id")); err != nil {
		h.failFromErr(c, actorKey, err)
		return
	}
	jsonSuccess(c, gin.H{"message": "Listing deleted."})
}

// GetPending handles GET /api/admin/listings/pending?limit=10&offset=0.
func (h *ListingHandler) GetPending(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	list, err := h.Listings.ListPending(c.Request.Context(), middleware.Actor(c), limit, offset)
	if err != nil {
		h.failFromErr(c, middleware.ActorFlashKey(c), err)
		return
	}
	if list == nil {
		list = []model.Listing{}
	}
	jsonSuccess(c, gin.H{"listings": list})
}

// Approve handles PUT /api/admin/listings/:id/approve.
func (h *ListingHandler) Approve(c *gin.Context) {
	if err := h.Listings.Approve(c.Request.Context(), middleware.Actor(c), c.Param("id")); err != nil {
		h.failFromErr(c, middleware.ActorFlashKey(c), err)
		return
	}
	jsonSuccess(c, gin.H{"message": "Listing approved."})
}

// Reject handles PUT /api/admin/listings/:id/reject.
func (h *ListingHandler) Reject(c *gin.Context) {
	if err := h.Listings.Reject(c.Request.Context(), middleware.Actor(c), c.Param("id")); err != nil {
		h.failFromErr(c, middleware.ActorFlashKey(c), err)
		return
	}
	jsonSuccess(c, gin.H{"message": "Listing rejected."})
}

// failFromErr maps service errors onto flash/JSON responses with the right
// status. Validation messages go to the user verbatim; everything else gets
// the service's user-facing sentinel text.
func (h *ListingHandler) failFromErr(c *gin.Context, actorKey string, err error) {
	var rule *validate.RuleError
	switch {
	case errors.As(err, &rule):
		h.fail(c, actorKey, http.StatusBadRequest, rule.Message)
	case errors.Is(err, service.ErrNotAuthenticated):
		h.fail(c, actorKey, http.StatusUnauthorized, "You must be logged in.")
	case errors.Is(err, service.ErrForbidden):
		h.fail(c, actorKey, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrNotFound):
		h.fail(c, actorKey, http.StatusNotFound, err.Error())
	default:
		h.fail(c, actorKey, http.StatusInternalServerError, service.ErrPersistenceFailed.Error())
	}
}

// fail records the flash message and answers in the mode the client asked
// for. Form mode re-renders via a redirect to the originating page.
func (h *ListingHandler) fail(c *gin.Context, actorKey string, status int, message string) {
	h.Flash.Error(actorKey, message)
	if wantsJSON(c) {
		jsonError(c, status, message)
		return
	}
	c.Redirect(http.StatusSeeOther, referer(c))
}

// submissionFiles converts the multipart file headers into the role-keyed
// upload handles the lifecycle manager expects. gallery_images, stack_images,
// and slider_images all land in the gallery role.
func submissionFiles(form *multipart.Form) service.SubmissionFiles {
	if form == nil {
		return service.SubmissionFiles{}
	}

	files := service.SubmissionFiles{
		Hero:       firstFile(form, "hero_image"),
		AgentPhoto: firstFile(form, "agent_photo"),
		AgencyLogo: firstFile(form, "agency_logo"),
	}
	for _, key := range []string{"gallery_images[]", "gallery_images", "stack_images[]", "stack_images", "slider_images[]", "slider_images"} {
		for _, fh := range form.File[key] {
			files.Gallery = append(files.Gallery, toUploadFile(fh))
		}
	}
	return files
}

func firstFile(form *multipart.Form, key string) *upload.File {
	if headers := form.File[key]; len(headers) > 0 {
		return toUploadFile(headers[0])
	}
	return nil
}

func toUploadFile(fh *multipart.FileHeader) *upload.File {
	return &upload.File{
		Name:     fh.Filename,
		MimeType: fh.Header.Get("Content-Type"),
		Size:     fh.Size,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}
