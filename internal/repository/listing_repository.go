package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/Steven-Gee-ally/afcglide-listings-009/internal/model"
)

// ErrNotFound is returned when a listing id does not exist.
var ErrNotFound = errors.New("listing not found")

type ListingRepository struct {
	DB *sqlx.DB
}

func NewListingRepository(db *sqlx.DB) *ListingRepository {
	return &ListingRepository{DB: db}
}

// Create inserts a new listing record.
func (r *ListingRepository) Create(ctx context.Context, l *model.Listing) error {
	_, err := r.DB.NamedExecContext(ctx, `
        INSERT INTO listings
            (id, owner_id, title, description, price, status, created_at, submitted_at)
        VALUES
            (:id, :owner_id, :title, :description, :price, :status, :created_at, :submitted_at)
    `, l)
	if err != nil {
		return fmt.Errorf("ListingRepository.Create: %w", err)
	}
	return nil
}

// GetByID fetches one listing.
func (r *ListingRepository) GetByID(ctx context.Context, id string) (*model.Listing, error) {
	var l model.Listing
	err := r.DB.GetContext(ctx, &l, `SELECT * FROM listings WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ListingRepository.GetByID: %w", err)
	}
	return &l, nil
}

// Update rewrites the mutable listing fields.
func (r *ListingRepository) Update(ctx context.Context, l *model.Listing) error {
	res, err := r.DB.NamedExecContext(ctx, `
        UPDATE listings SET
            title       = :title,
            description = :description,
            price       = :price,
            status      = :status
        WHERE id = :id
    `, l)
	if err != nil {
		return fmt.Errorf("ListingRepository.Update: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a listing and, via cascading deletes, its attributes and
// agent rows.
func (r *ListingRepository) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM listings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("ListingRepository.Delete: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetPending returns pending listings for moderation, newest first.
func (r *ListingRepository) GetPending(ctx context.Context, limit, offset int) ([]model.Listing, error) {
	var list []model.Listing
	err := r.DB.SelectContext(ctx, &list, `
		SELECT * FROM listings
		WHERE status = 'pending'
		ORDER BY submitted_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("ListingRepository.GetPending: %w", err)
	}
	return list, nil
}

// SetStatus moves a listing to the given status (moderation edge).
func (r *ListingRepository) SetStatus(ctx context.Context, id, status string) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE listings SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("ListingRepository.SetStatus: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// SaveAttributes upserts the structured property fields for a listing.
func (r *ListingRepository) SaveAttributes(ctx context.Context, attrs *model.ListingAttributes) error {
	_, err := r.DB.NamedExecContext(ctx, `
        INSERT INTO listing_attributes
            (listing_id, beds, baths, sqft, property_type, address, city, state,
             country, gps_lat, gps_lng, amenities)
        VALUES
            (:listing_id, :beds, :baths, :sqft, :property_type, :address, :city, :state,
             :country, :gps_lat, :gps_lng, :amenities)
        ON CONFLICT (listing_id) DO UPDATE SET
            beds          = EXCLUDED.beds,
            baths         = EXCLUDED.baths,
            sqft          = EXCLUDED.sqft,
            property_type = EXCLUDED.property_type,
            address       = EXCLUDED.address,
            city          = EXCLUDED.city,
            state         = EXCLUDED.state,
            country       = EXCLUDED.country,
            gps_lat       = EXCLUDED.gps_lat,
            gps_lng       = EXCLUDED.gps_lng,
            amenities     = EXCLUDED.amenities
    `, attrs)
	if err != nil {
		return fmt.Errorf("ListingRepository.SaveAttributes: %w", err)
	}
	return nil
}

// SaveAgents replaces the listing's agent sub-records, preserving order.
func (r *ListingRepository) SaveAgents(ctx context.Context, listingID string, agents []model.Agent) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ListingRepository.SaveAgents: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM listing_agents WHERE listing_id = $1`, listingID); err != nil {
		return fmt.Errorf("ListingRepository.SaveAgents: clear: %w", err)
	}
	for i, agent := range agents {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO listing_agents (listing_id, position, name, email)
			VALUES ($1, $2, $3, $4)
		`, listingID, i+1, agent.Name, agent.Email)
		if err != nil {
			return fmt.Errorf("ListingRepository.SaveAgents: insert: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("ListingRepository.SaveAgents: commit: %w", err)
	}
	return nil
}

// GetAgents returns the listing's agents in stored order.
func (r *ListingRepository) GetAgents(ctx context.Context, listingID string) ([]model.Agent, error) {
	var agents []model.Agent
	err := r.DB.SelectContext(ctx, &agents, `
		SELECT listing_id, position, name, email FROM listing_agents
		WHERE listing_id = $1
		ORDER BY position
	`, listingID)
	if err != nil {
		return nil, fmt.Errorf("ListingRepository.GetAgents: %w", err)
	}
	return agents, nil
}

// GetAttributes returns the listing's structured fields, or nil when none
// were saved.
func (r *ListingRepository) GetAttributes(ctx context.Context, listingID string) (*model.ListingAttributes, error) {
	var attrs model.ListingAttributes
	err := r.DB.GetContext(ctx, &attrs, `SELECT * FROM listing_attributes WHERE listing_id = $1`, listingID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ListingRepository.GetAttributes: %w", err)
	}
	return &attrs, nil
}
