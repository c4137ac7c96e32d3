package storage

import (
	"context"
	"fmt"
	"log"

	"shootmap/codec"
	"shootmap/sheets"
)

// Tables names the worksheet backing each entity family.
type Tables struct {
	Listings string `yaml:"listings"`
	Agents   string `yaml:"agents"`
	Users    string `yaml:"users"`
	Messages string `yaml:"messages"`
	Archive  string `yaml:"archive"`
}

func DefaultTables() Tables {
	return Tables{
		Listings: "Properties",
		Agents:   "key_agents",
		Users:    "users",
		Messages: "chat_messages",
		Archive:  "archive",
	}
}

// WithDefaults fills blank names from DefaultTables.
func (t Tables) WithDefaults() Tables {
	d := DefaultTables()
	if t.Listings == "" {
		t.Listings = d.Listings
	}
	if t.Agents == "" {
		t.Agents = d.Agents
	}
	if t.Users == "" {
		t.Users = d.Users
	}
	if t.Messages == "" {
		t.Messages = d.Messages
	}
	if t.Archive == "" {
		t.Archive = d.Archive
	}
	return t
}

// Stores bundles one store per entity family over a shared client.
type Stores struct {
	Listings *ListingStore
	Agents   *AgentStore
	Users    *UserStore
	Messages *MessageStore
	Archive  *ArchiveStore
}

func NewStores(client sheets.Table, tables Tables, inval Invalidator) *Stores {
	tables = tables.WithDefaults()
	return &Stores{
		Listings: NewListingStore(client, tables.Listings, inval),
		Agents:   NewAgentStore(client, tables.Agents, inval),
		Users:    NewUserStore(client, tables.Users, inval),
		Messages: NewMessageStore(client, tables.Messages, inval),
		Archive:  NewArchiveStore(client, tables.Archive, inval),
	}
}

// InitHeaders writes the header row of every sheet in one batch. Data rows
// are left alone.
func InitHeaders(ctx context.Context, client sheets.Table, tables Tables) error {
	tables = tables.WithDefaults()
	headers := []struct {
		sheet  string
		header []string
	}{
		{tables.Listings, codec.ListingHeader},
		{tables.Agents, codec.AgentHeader},
		{tables.Users, codec.UserHeader},
		{tables.Messages, codec.MessageHeader},
		{tables.Archive, codec.ArchiveHeader},
	}

	writes := make([]sheets.RangeWrite, 0, len(headers))
	for _, h := range headers {
		row := make([]any, len(h.header))
		for i, name := range h.header {
			row[i] = name
		}
		writes = append(writes, sheets.RangeWrite{
			Sheet:  h.sheet,
			Range:  sheets.RowSpan(0, len(row)-1, 1),
			Values: [][]any{row},
		})
	}
	if err := client.BatchWrite(ctx, writes); err != nil {
		return fmt.Errorf("init headers: %w", err)
	}
	log.Printf("Initialized headers for %d sheets", len(writes))
	return nil
}
