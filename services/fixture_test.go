package services

import (
	"testing"
	"time"

	"shootmap/cache"
	"shootmap/codec"
	"shootmap/sheets"
	"shootmap/storage"
)

type fixture struct {
	mem    *sheets.MemoryTable
	cache  *cache.Cache
	stores *storage.Stores
	snap   *Snapshot
}

func header(h []string) []any {
	row := make([]any, len(h))
	for i, s := range h {
		row[i] = s
	}
	return row
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	tables := storage.DefaultTables()
	mem := sheets.NewMemoryTable()
	mem.Seed(tables.Listings, [][]any{header(codec.ListingHeader)})
	mem.Seed(tables.Agents, [][]any{header(codec.AgentHeader)})
	mem.Seed(tables.Users, [][]any{header(codec.UserHeader)})
	mem.Seed(tables.Messages, [][]any{header(codec.MessageHeader)})
	mem.Seed(tables.Archive, [][]any{header(codec.ArchiveHeader)})

	c := cache.New(cache.DefaultTTLs())
	stores := storage.NewStores(mem, tables, c)
	return &fixture{mem: mem, cache: c, stores: stores, snap: NewSnapshot(stores, c)}
}

func (f *fixture) seed(sheet string, rows ...[]any) {
	f.mem.Seed(sheet, append(f.mem.Rows(sheet), rows...))
	f.cache.InvalidateAll()
}

// listing builds a 26-column listing row.
func listing(id, building, address, room, status, editor, shotAt string) []any {
	row := make([]any, codec.ListingWidth)
	for i := range row {
		row[i] = ""
	}
	row[codec.ColListingID] = id
	row[codec.ColBuildingName] = building
	row[codec.ColAddress] = address
	row[codec.ColRoomLabel] = room
	row[codec.ColShootStatus] = status
	row[codec.ColLastEditor] = editor
	row[codec.ColShotAt] = shotAt
	return row
}

func user(id, username, display, store string) []any {
	return []any{id, username, "", display, "user", store, "", "", "TRUE", ""}
}

func jst(y int, m time.Month, d, h int) time.Time {
	return time.Date(y, m, d, h, 0, 0, 0, codec.JST)
}
