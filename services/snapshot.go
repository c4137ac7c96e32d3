package services

import (
	"context"

	"golang.org/x/sync/errgroup"

	"shootmap/cache"
	"shootmap/grouping"
	"shootmap/models"
	"shootmap/storage"
)

// Snapshot serves the bulk views through the cache. Returned slices are
// shared with other callers and must not be modified.
type Snapshot struct {
	stores *storage.Stores
	cache  *cache.Cache
}

func NewSnapshot(stores *storage.Stores, c *cache.Cache) *Snapshot {
	return &Snapshot{stores: stores, cache: c}
}

// SnapshotData is one consistent-enough read of the three main sheets.
type SnapshotData struct {
	Listings []models.Listing
	Agents   []models.Agent
	Users    []models.AccountUser
}

func (s *Snapshot) Listings(ctx context.Context) ([]models.Listing, error) {
	return cache.Fetch(ctx, s.cache, cache.KeyListings, s.stores.Listings.ListAll)
}

func (s *Snapshot) Agents(ctx context.Context) ([]models.Agent, error) {
	return cache.Fetch(ctx, s.cache, cache.KeyAgents, s.stores.Agents.ListAll)
}

func (s *Snapshot) Users(ctx context.Context) ([]models.AccountUser, error) {
	return cache.Fetch(ctx, s.cache, cache.KeyUsers, s.stores.Users.ListAll)
}

func (s *Snapshot) Archive(ctx context.Context) ([]models.ArchiveRecord, error) {
	return cache.Fetch(ctx, s.cache, cache.KeyArchive, s.stores.Archive.ListAll)
}

func (s *Snapshot) Messages(ctx context.Context) ([]models.Message, error) {
	return cache.Fetch(ctx, s.cache, cache.KeyChat, s.stores.Messages.ListAll)
}

// Load reads listings, agents and users in parallel.
func (s *Snapshot) Load(ctx context.Context) (*SnapshotData, error) {
	var data SnapshotData
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		data.Listings, err = s.Listings(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		data.Agents, err = s.Agents(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		data.Users, err = s.Users(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &data, nil
}

// Buildings groups the non-deleted listings by building.
func (s *Snapshot) Buildings(ctx context.Context) ([]models.BuildingGroup, error) {
	listings, err := s.Listings(ctx)
	if err != nil {
		return nil, err
	}
	return grouping.Group(grouping.Active(listings)), nil
}
