package model

import (
	"database/sql"
	"time"
)

// Attachment roles.
const (
	RoleHero       = "hero"
	RoleGallery    = "gallery"
	RoleAgentPhoto = "agent_photo"
	RoleAgencyLogo = "agency_logo"
)

// Attachment is a stored media file associated with a listing via a role.
// The binary payload lives in the media store; FileID is its opaque handle.
// ListingID is nullable until the attachment is associated.
type Attachment struct {
	ID        string         `db:"id" json:"id"`
	ListingID sql.NullString `db:"listing_id" json:"listing_id,omitempty"`
	FileID    string         `db:"file_id" json:"-"`
	FileName  string         `db:"file_name" json:"file_name"`
	MimeType  string         `db:"mime_type" json:"mime_type"`
	SizeBytes int64          `db:"size_bytes" json:"size_bytes"`
	Role      string         `db:"role" json:"role"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
}
