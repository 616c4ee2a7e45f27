// Package upload is the attachment manager: it validates uploaded files,
// stores their payloads in the media store, and associates the resulting
// attachment records with listings. Upload failures are non-fatal to the
// surrounding submission; callers log them and surface a warning.
package upload

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/Steven-Gee-ally/afcglide-listings-009/internal/model"
	"github.com/Steven-Gee-ally/afcglide-listings-009/internal/sanitize"
	"github.com/Steven-Gee-ally/afcglide-listings-009/internal/validate"
)

// DefaultMaxFileSize caps uploads at 5 MiB unless configured otherwise.
const DefaultMaxFileSize = 5 * 1024 * 1024

// AllowedImageTypes is the mime allowlist for listing media.
var AllowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// Typed upload failures.
var (
	ErrNoFileProvided = errors.New("no file was uploaded")
	ErrUploadFailed   = errors.New("upload failed")
)

// File is one uploaded file handle, decoupled from multipart so the manager
// can be exercised without an HTTP request.
type File struct {
	Name     string
	MimeType string
	Size     int64
	Open     func() (io.ReadCloser, error)
}

// MediaStore persists binary payloads.
type MediaStore interface {
	Upload(filename string, r io.Reader) (string, error)
	Delete(fileID string) error
}

// AttachmentStore records attachment metadata.
type AttachmentStore interface {
	Insert(ctx context.Context, a *model.Attachment) error
	ListByListing(ctx context.Context, listingID string) ([]model.Attachment, error)
	SetRole(ctx context.Context, attachmentID, listingID, role string) error
	DemoteHeroes(ctx context.Context, listingID, keepID string) error
	Delete(ctx context.Context, id string) error
}

// Manager validates and stores attachments.
type Manager struct {
	media       MediaStore
	attachments AttachmentStore
	maxBytes    int64
}

// NewManager constructs a Manager. maxBytes of 0 selects DefaultMaxFileSize.
func NewManager(media MediaStore, attachments AttachmentStore, maxBytes int64) *Manager {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxFileSize
	}
	return &Manager{media: media, attachments: attachments, maxBytes: maxBytes}
}

// ValidateUpload checks a file against the type and size rules and returns
// a copy with its name cleaned. Safe to call repeatedly.
func (m *Manager) ValidateUpload(f *File) (*File, error) {
	if f == nil || f.Name == "" || f.Size == 0 {
		return nil, ErrNoFileProvided
	}
	if err := validate.FileType(f.Name, f.MimeType, AllowedImageTypes); err != nil {
		return nil, err
	}
	if err := validate.FileSize(f.Name, f.Size, m.maxBytes); err != nil {
		return nil, err
	}
	clean := *f
	clean.Name = sanitize.FileName(f.Name)
	return &clean, nil
}

// StoreSingle validates the file, persists its payload, records the
// attachment under the given listing and role, and returns the attachment id.
// Media-store failures come back as ErrUploadFailed; the caller decides
// whether that aborts anything (for submissions it never does).
func (m *Manager) StoreSingle(ctx context.Context, f *File, listingID, role string) (string, error) {
	clean, err := m.ValidateUpload(f)
	if err != nil {
		return "", err
	}

	rc, err := clean.Open()
	if err != nil {
		return "", fmt.Errorf("%w: open %q: %v", ErrUploadFailed, clean.Name, err)
	}
	defer rc.Close()

	filename := fmt.Sprintf("listing_%s_%s", listingID, clean.Name)
	fileID, err := m.media.Upload(filename, rc)
	if err != nil {
		return "", fmt.Errorf("%w: store %q: %v", ErrUploadFailed, clean.Name, err)
	}

	attachment := &model.Attachment{
		ID:        ulid.Make().String(),
		ListingID: nullString(listingID),
		FileID:    fileID,
		FileName:  clean.Name,
		MimeType:  clean.MimeType,
		SizeBytes: clean.Size,
		Role:      role,
		CreatedAt: time.Now(),
	}
	if err := m.attachments.Insert(ctx, attachment); err != nil {
		// Payload is already in the media store; best-effort undo so it
		// does not leak unreferenced.
		if delErr := m.media.Delete(fileID); delErr != nil {
			log.Printf("[upload] orphaned media file %s after failed insert: %v", fileID, delErr)
		}
		return "", fmt.Errorf("%w: record %q: %v", ErrUploadFailed, clean.Name, err)
	}

	return attachment.ID, nil
}

// StoreMultiple stores each non-empty entry, skipping empty slots without
// failing the batch. It returns the ids that succeeded; per-file failures are
// logged and dropped.
func (m *Manager) StoreMultiple(ctx context.Context, files []*File, listingID, role string) []string {
	var ids []string
	for _, f := range files {
		if f == nil || f.Name == "" || f.Size == 0 {
			continue
		}
		id, err := m.StoreSingle(ctx, f, listingID, role)
		if err != nil {
			log.Printf("[upload] %s upload %q for listing %s: %v", role, f.Name, listingID, err)
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// AssociateHero marks the attachment as the listing's primary image. Any
// previous hero is demoted to the gallery, not deleted; cleanup is deferred
// to listing deletion.
func (m *Manager) AssociateHero(ctx context.Context, attachmentID, listingID string) error {
	if err := m.attachments.SetRole(ctx, attachmentID, listingID, model.RoleHero); err != nil {
		return fmt.Errorf("Manager.AssociateHero: %w", err)
	}
	if err := m.attachments.DemoteHeroes(ctx, listingID, attachmentID); err != nil {
		return fmt.Errorf("Manager.AssociateHero: %w", err)
	}
	return nil
}

// DeleteAllForListing removes every attachment owned by the listing across
// all roles. Already-missing media is tolerated; the first record-level
// failure is returned after the sweep completes so callers can log it.
func (m *Manager) DeleteAllForListing(ctx context.Context, listingID string) error {
	attachments, err := m.attachments.ListByListing(ctx, listingID)
	if err != nil {
		return fmt.Errorf("Manager.DeleteAllForListing: %w", err)
	}

	var firstErr error
	for _, a := range attachments {
		if err := m.media.Delete(a.FileID); err != nil {
			log.Printf("[upload] delete media %s for listing %s: %v", a.FileID, listingID, err)
		}
		if err := m.attachments.Delete(ctx, a.ID); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
