package storage

import (
	"context"
	"fmt"

	"shootmap/codec"
	"shootmap/identity"
	"shootmap/models"
	"shootmap/sheets"
)

// ArchiveStore is append-only; archived rows are never updated.
type ArchiveStore struct {
	t *sheetTable[models.ArchiveRecord]
}

func NewArchiveStore(client sheets.Table, sheet string, inval Invalidator) *ArchiveStore {
	return &ArchiveStore{t: &sheetTable[models.ArchiveRecord]{
		client: client,
		sheet:  sheet,
		width:  codec.ArchiveWidth,
		decode: codec.DecodeArchive,
		idOf:   func(r models.ArchiveRecord) string { return r.ID },
		inval:  inval,
	}}
}

func (s *ArchiveStore) ListAll(ctx context.Context) ([]models.ArchiveRecord, error) {
	return s.t.listAll(ctx)
}

func (s *ArchiveStore) GetByID(ctx context.Context, id string) (*models.ArchiveRecord, error) {
	return s.t.get(ctx, id)
}

func (s *ArchiveStore) Create(ctx context.Context, r models.ArchiveRecord) (string, error) {
	if r.ListingID == "" {
		return "", fmt.Errorf("%w: archive record needs a listing id", models.ErrInvalidArgument)
	}
	ids, err := s.t.ids(ctx)
	if err != nil {
		return "", err
	}
	r.ID = identity.NextID(ids)
	if err := s.t.append(ctx, codec.EncodeArchive(r)); err != nil {
		return "", err
	}
	return r.ID, nil
}
