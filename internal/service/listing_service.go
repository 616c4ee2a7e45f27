package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/lib/pq"
	"github.com/oklog/ulid/v2"

	"github.com/Steven-Gee-ally/afcglide-listings-009/internal/model"
	"github.com/Steven-Gee-ally/afcglide-listings-009/internal/repository"
	"github.com/Steven-Gee-ally/afcglide-listings-009/internal/sanitize"
	"github.com/Steven-Gee-ally/afcglide-listings-009/internal/upload"
	"github.com/Steven-Gee-ally/afcglide-listings-009/internal/validate"
)

// Security and persistence failures. Validation failures travel as
// *validate.RuleError; upload failures never escape the submission as errors.
var (
	ErrNotAuthenticated  = errors.New("you must be logged in to submit a listing")
	ErrForbidden         = errors.New("you do not have permission to modify this listing")
	ErrNotFound          = errors.New("listing not found")
	ErrPersistenceFailed = errors.New("failed to create listing, please try again")
)

// ListingStore is the persistence surface the lifecycle manager needs.
// *repository.ListingRepository implements it.
type ListingStore interface {
	Create(ctx context.Context, l *model.Listing) error
	GetByID(ctx context.Context, id string) (*model.Listing, error)
	Update(ctx context.Context, l *model.Listing) error
	Delete(ctx context.Context, id string) error
	GetPending(ctx context.Context, limit, offset int) ([]model.Listing, error)
	SetStatus(ctx context.Context, id, status string) error
	SaveAttributes(ctx context.Context, attrs *model.ListingAttributes) error
	SaveAgents(ctx context.Context, listingID string, agents []model.Agent) error
	GetAttributes(ctx context.Context, listingID string) (*model.ListingAttributes, error)
	GetAgents(ctx context.Context, listingID string) ([]model.Agent, error)
}

// Observer is a post-create extension point. Observers run synchronously
// after the listing record is committed; a failing or panicking observer is
// logged and isolated, never failing the request.
type Observer func(listingID string, l *model.Listing)

// SubmissionFiles carries the role-specific uploads of one submission.
type SubmissionFiles struct {
	Hero       *upload.File
	Gallery    []*upload.File
	AgentPhoto *upload.File
	AgencyLogo *upload.File
}

// CreateResult reports a successful submission: the new listing id, the
// attachment ids per role, and any non-fatal upload warnings.
type CreateResult struct {
	ListingID string
	Uploaded  map[string]any
	Warnings  []string
}

// ListingService is the listing lifecycle manager. It owns validation,
// persistence ordering, best-effort enrichment, and the post-create
// observer list.
type ListingService struct {
	store     ListingStore
	uploads   *upload.Manager
	observers []Observer
}

// NewListingService constructs a ListingService.
func NewListingService(store ListingStore, uploads *upload.Manager) *ListingService {
	return &ListingService{store: store, uploads: uploads}
}

// OnCreated registers a post-create observer. Registration order is
// invocation order.
func (s *ListingService) OnCreated(fn Observer) {
	s.observers = append(s.observers, fn)
}

// CreateListing runs the whole submission pipeline. Validation and security
// failures abort before any write; a listing-record write failure aborts
// everything; attribute, agent, and attachment failures after the record is
// committed degrade to warnings.
func (s *ListingService) CreateListing(ctx context.Context, actor model.ActorContext, fields map[string][]string, files SubmissionFiles) (*CreateResult, error) {
	if !actor.Authenticated() {
		return nil, ErrNotAuthenticated
	}

	title := sanitize.Text(first(fields, "listing_title"))
	description := sanitize.HTML(first(fields, "listing_description"))
	price := sanitize.Price(first(fields, "listing_price"))
	agents := parseAgents(fields)

	if err := validateSubmission(title, description, agents); err != nil {
		return nil, err
	}

	now := time.Now()
	listing := &model.Listing{
		ID:          ulid.Make().String(),
		OwnerID:     actor.ID,
		Title:       title,
		Description: description,
		Price:       price,
		Status:      model.StatusPending,
		CreatedAt:   now,
		SubmittedAt: now,
	}
	if err := s.store.Create(ctx, listing); err != nil {
		log.Printf("[listing] create for %s: %v", actor.ID, err)
		return nil, ErrPersistenceFailed
	}

	// Everything past this point is enrichment of an already-committed
	// record: failures degrade, they do not roll back.
	result := &CreateResult{ListingID: listing.ID, Uploaded: map[string]any{}}

	if attrs := parseAttributes(listing.ID, fields); !attrs.Empty() {
		if err := s.store.SaveAttributes(ctx, attrs); err != nil {
			log.Printf("[listing] save attributes for %s: %v", listing.ID, err)
		}
	}
	if len(agents) > 0 {
		if err := s.store.SaveAgents(ctx, listing.ID, agents); err != nil {
			log.Printf("[listing] save agents for %s: %v", listing.ID, err)
		}
	}

	s.storeFiles(ctx, listing.ID, files, result)
	s.notifyCreated(listing)

	return result, nil
}

// ListingDetail bundles a listing with its attributes and agents for read
// endpoints.
type ListingDetail struct {
	Listing    model.Listing            `json:"listing"`
	Attributes *model.ListingAttributes `json:"attributes,omitempty"`
	Agents     []model.Agent            `json:"agents,omitempty"`
}

// GetListing returns the full listing record. Published (and post-publication)
// listings are visible to anyone; everything else only to the owner or a
// moderator, and reads as not-found to the rest so unpublished ids do not
// leak. Attribute and agent lookups degrade to a bare listing on failure.
func (s *ListingService) GetListing(ctx context.Context, actor model.ActorContext, listingID string) (*ListingDetail, error) {
	listing, err := s.store.GetByID(ctx, listingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ListingService.GetListing: %w", err)
	}
	if !publiclyVisible(listing.Status) && listing.OwnerID != actor.ID && !actor.Moderator() {
		return nil, ErrNotFound
	}

	detail := &ListingDetail{Listing: *listing}
	if attrs, err := s.store.GetAttributes(ctx, listingID); err != nil {
		log.Printf("[listing] load attributes for %s: %v", listingID, err)
	} else {
		detail.Attributes = attrs
	}
	if agents, err := s.store.GetAgents(ctx, listingID); err != nil {
		log.Printf("[listing] load agents for %s: %v", listingID, err)
	} else {
		detail.Agents = agents
	}
	return detail, nil
}

func publiclyVisible(status string) bool {
	switch status {
	case model.StatusPublished, model.StatusUnderContract, model.StatusSold:
		return true
	}
	return false
}

// UpdateListing re-validates and rewrites a listing. Only the owner or a
// moderator may update; a vanished listing yields ErrNotFound.
func (s *ListingService) UpdateListing(ctx context.Context, actor model.ActorContext, listingID string, fields map[string][]string) error {
	if !actor.Authenticated() {
		return ErrNotAuthenticated
	}

	listing, err := s.store.GetByID(ctx, listingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("ListingService.UpdateListing: %w", err)
	}
	if listing.OwnerID != actor.ID && !actor.Moderator() {
		return ErrForbidden
	}

	title := sanitize.Text(first(fields, "listing_title"))
	description := sanitize.HTML(first(fields, "listing_description"))
	agents := parseAgents(fields)

	if err := validateSubmission(title, description, agents); err != nil {
		return err
	}

	listing.Title = title
	listing.Description = description
	if _, ok := fields["listing_price"]; ok {
		listing.Price = sanitize.Price(first(fields, "listing_price"))
	}
	if err := s.store.Update(ctx, listing); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		log.Printf("[listing] update %s: %v", listingID, err)
		return ErrPersistenceFailed
	}

	if attrs := parseAttributes(listingID, fields); !attrs.Empty() {
		if err := s.store.SaveAttributes(ctx, attrs); err != nil {
			log.Printf("[listing] save attributes for %s: %v", listingID, err)
		}
	}
	if len(agents) > 0 {
		if err := s.store.SaveAgents(ctx, listingID, agents); err != nil {
			log.Printf("[listing] save agents for %s: %v", listingID, err)
		}
	}
	return nil
}

// DeleteListing removes a listing and its attachments. Attachment cleanup
// failures never block record deletion; orphans are logged for a later sweep.
func (s *ListingService) DeleteListing(ctx context.Context, actor model.ActorContext, listingID string) error {
	if !actor.Authenticated() {
		return ErrNotAuthenticated
	}

	listing, err := s.store.GetByID(ctx, listingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("ListingService.DeleteListing: %w", err)
	}
	if listing.OwnerID != actor.ID && !actor.Moderator() {
		return ErrForbidden
	}

	if err := s.uploads.DeleteAllForListing(ctx, listingID); err != nil {
		log.Printf("[listing] attachment cleanup for %s left orphans: %v", listingID, err)
	}

	if err := s.store.Delete(ctx, listingID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		log.Printf("[listing] delete %s: %v", listingID, err)
		return ErrPersistenceFailed
	}
	return nil
}

// ListPending returns listings awaiting moderation.
func (s *ListingService) ListPending(ctx context.Context, actor model.ActorContext, limit, offset int) ([]model.Listing, error) {
	if !actor.Moderator() {
		return nil, ErrForbidden
	}
	return s.store.GetPending(ctx, limit, offset)
}

// Approve publishes a pending listing.
func (s *ListingService) Approve(ctx context.Context, actor model.ActorContext, listingID string) error {
	return s.moderate(ctx, actor, listingID, model.StatusPublished)
}

// Reject declines a pending listing.
func (s *ListingService) Reject(ctx context.Context, actor model.ActorContext, listingID string) error {
	return s.moderate(ctx, actor, listingID, model.StatusRejected)
}

func (s *ListingService) moderate(ctx context.Context, actor model.ActorContext, listingID, status string) error {
	if !actor.Moderator() {
		return ErrForbidden
	}
	if err := s.store.SetStatus(ctx, listingID, status); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("ListingService.moderate: %w", err)
	}
	return nil
}

func (s *ListingService) storeFiles(ctx context.Context, listingID string, files SubmissionFiles, result *CreateResult) {
	if files.Hero != nil && files.Hero.Name != "" {
		heroID, err := s.uploads.StoreSingle(ctx, files.Hero, listingID, model.RoleHero)
		if err != nil {
			log.Printf("[listing] hero upload for %s: %v", listingID, err)
			result.Warnings = append(result.Warnings, "The main image could not be uploaded: "+err.Error())
		} else {
			if err := s.uploads.AssociateHero(ctx, heroID, listingID); err != nil {
				log.Printf("[listing] hero association for %s: %v", listingID, err)
			}
			result.Uploaded[model.RoleHero] = heroID
		}
	}

	if ids := s.uploads.StoreMultiple(ctx, files.Gallery, listingID, model.RoleGallery); len(ids) > 0 {
		result.Uploaded[model.RoleGallery] = ids
	}

	if files.AgentPhoto != nil && files.AgentPhoto.Name != "" {
		if id, err := s.uploads.StoreSingle(ctx, files.AgentPhoto, listingID, model.RoleAgentPhoto); err != nil {
			log.Printf("[listing] agent photo upload for %s: %v", listingID, err)
		} else {
			result.Uploaded[model.RoleAgentPhoto] = id
		}
	}
	if files.AgencyLogo != nil && files.AgencyLogo.Name != "" {
		if id, err := s.uploads.StoreSingle(ctx, files.AgencyLogo, listingID, model.RoleAgencyLogo); err != nil {
			log.Printf("[listing] agency logo upload for %s: %v", listingID, err)
		} else {
			result.Uploaded[model.RoleAgencyLogo] = id
		}
	}
}

func (s *ListingService) notifyCreated(listing *model.Listing) {
	for i, fn := range s.observers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("[listing] observer %d panicked for %s: %v", i, listing.ID, r)
				}
			}()
			fn(listing.ID, listing)
		}()
	}
}

// validateSubmission is the fail-fast rule run shared by create and update.
func validateSubmission(title, description string, agents []model.Agent) error {
	if err := validate.Required("listing_title", title); err != nil {
		return err
	}
	if err := validate.Required("listing_description", description); err != nil {
		return err
	}
	if err := validate.MinLength("listing_title", title, 5); err != nil {
		return err
	}
	if err := validate.MaxLength("listing_title", title, 200); err != nil {
		return err
	}
	if err := validate.MinLength("listing_description", description, 20); err != nil {
		return err
	}
	for _, agent := range agents {
		if agent.Email == "" {
			continue
		}
		if err := validate.Email("agent_email", agent.Email); err != nil {
			return err
		}
	}
	return nil
}

// parseAgents collects the dynamic agent_name_{i}/agent_email_{i} pairs.
// Index gaps and fully-empty pairs are skipped, not zero-filled.
func parseAgents(fields map[string][]string) []model.Agent {
	count := sanitize.Int(first(fields, "agent_count"))
	var agents []model.Agent
	for i := 1; i <= count; i++ {
		agent := model.Agent{
			Name:  sanitize.Text(first(fields, fmt.Sprintf("agent_name_%d", i))),
			Email: sanitize.Email(first(fields, fmt.Sprintf("agent_email_%d", i))),
		}
		if agent.Empty() {
			continue
		}
		agents = append(agents, agent)
	}
	return agents
}

func parseAttributes(listingID string, fields map[string][]string) *model.ListingAttributes {
	return &model.ListingAttributes{
		ListingID:    listingID,
		Beds:         sanitize.Int(first(fields, "beds")),
		Baths:        sanitize.Text(first(fields, "baths")),
		Sqft:         sanitize.Int(first(fields, "sqft")),
		PropertyType: sanitize.Text(first(fields, "property_type")),
		Address:      sanitize.Text(first(fields, "property_address")),
		City:         sanitize.Text(first(fields, "property_city")),
		State:        sanitize.Text(first(fields, "property_state")),
		Country:      sanitize.Text(first(fields, "property_country")),
		GPSLat:       sanitize.Text(first(fields, "gps_lat")),
		GPSLng:       sanitize.Text(first(fields, "gps_lng")),
		Amenities:    pq.StringArray(sanitize.TextSlice(fields["amenities"])),
	}
}

func first(fields map[string][]string, key string) string {
	if vs := fields[key]; len(vs) > 0 {
		return vs[0]
	}
	return ""
}
