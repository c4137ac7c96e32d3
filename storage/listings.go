package storage

import (
	"context"
	"fmt"

	"shootmap/codec"
	"shootmap/identity"
	"shootmap/models"
	"shootmap/sheets"
)

type ListingStore struct {
	t *sheetTable[models.Listing]
}

func NewListingStore(client sheets.Table, sheet string, inval Invalidator) *ListingStore {
	return &ListingStore{t: &sheetTable[models.Listing]{
		client: client,
		sheet:  sheet,
		width:  codec.ListingWidth,
		decode: codec.DecodeListing,
		idOf:   func(l models.Listing) string { return l.ID },
		inval:  inval,
	}}
}

// ListAll includes soft-deleted listings; callers filter on Deleted.
func (s *ListingStore) ListAll(ctx context.Context) ([]models.Listing, error) {
	return s.t.listAll(ctx)
}

func (s *ListingStore) GetByID(ctx context.Context, id string) (*models.Listing, error) {
	return s.t.get(ctx, id)
}

// Create assigns max(id)+1 and appends the row. Two concurrent creates can
// pick the same id.
func (s *ListingStore) Create(ctx context.Context, l models.Listing) (string, error) {
	if l.BuildingName == "" {
		return "", fmt.Errorf("%w: building name is required", models.ErrInvalidArgument)
	}
	ids, err := s.t.ids(ctx)
	if err != nil {
		return "", err
	}
	l.ID = identity.NextID(ids)
	if l.Status == "" {
		l.Status = models.ShootStatusUnshot
	}
	if l.CustodyStatus == "" {
		l.CustodyStatus = models.CustodyAvailable
	}
	if err := s.t.append(ctx, codec.EncodeListing(l)); err != nil {
		return "", err
	}
	return l.ID, nil
}

func (s *ListingStore) UpdateFields(ctx context.Context, id string, p models.ListingPatch) (*models.Listing, error) {
	return s.t.update(ctx, id, func(base []any) ([]any, []int) {
		return codec.MergeListing(base, p)
	})
}

func (s *ListingStore) Sheet() string {
	return s.t.sheet
}
