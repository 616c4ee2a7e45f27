package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/Steven-Gee-ally/afcglide-listings-009/internal/model"
)

type AttachmentRepository struct {
	DB *sqlx.DB
}

func NewAttachmentRepository(db *sqlx.DB) *AttachmentRepository {
	return &AttachmentRepository{DB: db}
}

// Insert records an attachment.
func (r *AttachmentRepository) Insert(ctx context.Context, a *model.Attachment) error {
	_, err := r.DB.NamedExecContext(ctx, `
        INSERT INTO attachments
            (id, listing_id, file_id, file_name, mime_type, size_bytes, role, created_at)
        VALUES
            (:id, :listing_id, :file_id, :file_name, :mime_type, :size_bytes, :role, :created_at)
    `, a)
	if err != nil {
		return fmt.Errorf("AttachmentRepository.Insert: %w", err)
	}
	return nil
}

// GetByID fetches one attachment record.
func (r *AttachmentRepository) GetByID(ctx context.Context, id string) (*model.Attachment, error) {
	var a model.Attachment
	if err := r.DB.GetContext(ctx, &a, `SELECT * FROM attachments WHERE id = $1`, id); err != nil {
		return nil, fmt.Errorf("AttachmentRepository.GetByID: %w", err)
	}
	return &a, nil
}

// ListByListing returns every attachment owned by the listing, any role.
func (r *AttachmentRepository) ListByListing(ctx context.Context, listingID string) ([]model.Attachment, error) {
	var list []model.Attachment
	err := r.DB.SelectContext(ctx, &list, `
		SELECT * FROM attachments
		WHERE listing_id = $1
		ORDER BY created_at
	`, listingID)
	if err != nil {
		return nil, fmt.Errorf("AttachmentRepository.ListByListing: %w", err)
	}
	return list, nil
}

// SetRole associates an attachment with a listing under the given role.
func (r *AttachmentRepository) SetRole(ctx context.Context, attachmentID, listingID, role string) error {
	_, err := r.DB.ExecContext(ctx, `
		UPDATE attachments SET listing_id = $1, role = $2 WHERE id = $3
	`, listingID, role, attachmentID)
	if err != nil {
		return fmt.Errorf("AttachmentRepository.SetRole: %w", err)
	}
	return nil
}

// DemoteHeroes moves any current hero of the listing to the gallery role,
// except the attachment being promoted. The superseded record is kept;
// cleanup happens on listing deletion.
func (r *AttachmentRepository) DemoteHeroes(ctx context.Context, listingID, keepID string) error {
	_, err := r.DB.ExecContext(ctx, `
		UPDATE attachments SET role = 'gallery'
		WHERE listing_id = $1 AND role = 'hero' AND id <> $2
	`, listingID, keepID)
	if err != nil {
		return fmt.Errorf("AttachmentRepository.DemoteHeroes: %w", err)
	}
	return nil
}

// Delete removes one attachment record.
func (r *AttachmentRepository) Delete(ctx context.Context, id string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM attachments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("AttachmentRepository.Delete: %w", err)
	}
	return nil
}
