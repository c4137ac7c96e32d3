package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"shootmap/models"
	"shootmap/storage"
)

// ListingService handles listing edits that are not custody transitions.
type ListingService struct {
	listings *storage.ListingStore
	snapshot *Snapshot
	now      func() time.Time
}

// NewListingService creates a new ListingService. snapshot resolves editor
// display names through the cached user list; it may be nil.
func NewListingService(listings *storage.ListingStore, snapshot *Snapshot) *ListingService {
	return &ListingService{
		listings: listings,
		snapshot: snapshot,
		now:      time.Now,
	}
}

func (s *ListingService) Get(ctx context.Context, id string) (*models.Listing, error) {
	return s.listings.GetByID(ctx, id)
}

func (s *ListingService) Create(ctx context.Context, l models.Listing) (string, error) {
	l.BuildingName = strings.TrimSpace(l.BuildingName)
	l.RoomLabel = strings.TrimSpace(l.RoomLabel)
	l.Address = strings.TrimSpace(l.Address)
	id, err := s.listings.Create(ctx, l)
	if err != nil {
		return "", fmt.Errorf("create listing: %w", err)
	}
	log.Printf("Created listing %s (%s %s)", id, l.BuildingName, l.RoomLabel)
	return id, nil
}

func (s *ListingService) Update(ctx context.Context, id string, p models.ListingPatch) (*models.Listing, error) {
	return s.listings.UpdateFields(ctx, id, p)
}

// MarkShot records a completed shoot. editor is a login name; it is stored
// as the user's display name when one is found. A nil at means now.
func (s *ListingService) MarkShot(ctx context.Context, id, editor string, at *time.Time) (*models.Listing, error) {
	shotAt := s.now()
	if at != nil {
		shotAt = *at
	}

	return s.listings.UpdateFields(ctx, id, models.ListingPatch{
		Status:     models.Some(models.ShootStatusShot),
		ShotAt:     models.Some(&shotAt),
		LastEditor: models.Some(s.displayName(ctx, editor)),
	})
}

// MarkUnshot reverts a listing to unshot and clears the shoot attribution.
func (s *ListingService) MarkUnshot(ctx context.Context, id string) (*models.Listing, error) {
	return s.listings.UpdateFields(ctx, id, models.ListingPatch{
		Status:     models.Some(models.ShootStatusUnshot),
		ShotAt:     models.Some[*time.Time](nil),
		LastEditor: models.Some(""),
	})
}

func (s *ListingService) UpdateMemo(ctx context.Context, id, memo string) (*models.Listing, error) {
	return s.listings.UpdateFields(ctx, id, models.ListingPatch{Memo: models.Some(memo)})
}

// SoftDelete flags the listing; rows are never removed from the sheet.
func (s *ListingService) SoftDelete(ctx context.Context, id string) (*models.Listing, error) {
	return s.listings.UpdateFields(ctx, id, models.ListingPatch{Deleted: models.Some(true)})
}

func (s *ListingService) Restore(ctx context.Context, id string) (*models.Listing, error) {
	return s.listings.UpdateFields(ctx, id, models.ListingPatch{Deleted: models.Some(false)})
}

func (s *ListingService) displayName(ctx context.Context, login string) string {
	login = strings.TrimSpace(login)
	if login == "" || s.snapshot == nil {
		return login
	}
	users, err := s.snapshot.Users(ctx)
	if err != nil {
		log.Printf("Warning: display name lookup for %s failed: %v", login, err)
		return login
	}
	for _, u := range users {
		if u.Active && u.Username == login && u.DisplayName != "" {
			return u.DisplayName
		}
	}
	return login
}
