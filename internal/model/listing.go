package model

import (
	"time"

	"github.com/lib/pq"
)

// Listing statuses. New submissions always enter the pipeline as pending;
// draft is reserved for incomplete admin edits. Moderation moves pending to
// published or rejected; under_contract and sold are set after publication.
const (
	StatusDraft         = "draft"
	StatusPending       = "pending"
	StatusPublished     = "published"
	StatusRejected      = "rejected"
	StatusUnderContract = "under_contract"
	StatusSold          = "sold"
)

// Listing is a property record owned by an account.
type Listing struct {
	ID          string    `db:"id" json:"id"`
	OwnerID     string    `db:"owner_id" json:"owner_id"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	Price       string    `db:"price" json:"price"` // free-text display string, e.g. "1,250,000"
	Status      string    `db:"status" json:"status"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	SubmittedAt time.Time `db:"submitted_at" json:"submitted_at"`
}

// ListingAttributes carries the structured property fields. Every field is
// optional; zero values mean "not provided" and are omitted from responses.
type ListingAttributes struct {
	ListingID    string         `db:"listing_id" json:"-"`
	Beds         int            `db:"beds" json:"beds,omitempty"`
	Baths        string         `db:"baths" json:"baths,omitempty"`
	Sqft         int            `db:"sqft" json:"sqft,omitempty"`
	PropertyType string         `db:"property_type" json:"property_type,omitempty"`
	Address      string         `db:"address" json:"address,omitempty"`
	City         string         `db:"city" json:"city,omitempty"`
	State        string         `db:"state" json:"state,omitempty"`
	Country      string         `db:"country" json:"country,omitempty"`
	GPSLat       string         `db:"gps_lat" json:"gps_lat,omitempty"`
	GPSLng       string         `db:"gps_lng" json:"gps_lng,omitempty"`
	Amenities    pq.StringArray `db:"amenities" json:"amenities,omitempty"`
}

// Empty reports whether no attribute carries a value.
func (a ListingAttributes) Empty() bool {
	return a.Beds == 0 && a.Baths == "" && a.Sqft == 0 && a.PropertyType == "" &&
		a.Address == "" && a.City == "" && a.State == "" && a.Country == "" &&
		a.GPSLat == "" && a.GPSLng == "" && len(a.Amenities) == 0
}

// Agent is one name/email pair attached to a listing. Listings carry an
// ordered list of 0..N agents.
type Agent struct {
	ListingID string `db:"listing_id" json:"-"`
	Position  int    `db:"position" json:"position"`
	Name      string `db:"name" json:"name"`
	Email     string `db:"email" json:"email"`
}

// Empty reports whether both fields are blank. Fully empty pairs are skipped
// at parse time and never stored.
func (a Agent) Empty() bool {
	return a.Name == "" && a.Email == ""
}
