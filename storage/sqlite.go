package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"shootmap/models"
)

// SQLiteAuditLog keeps the custody audit trail in a local database file.
type SQLiteAuditLog struct {
	db *sql.DB
}

func NewSQLiteAuditLog(dbPath string) (*SQLiteAuditLog, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	store := &SQLiteAuditLog{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

func (s *SQLiteAuditLog) Close() error {
	return s.db.Close()
}

func (s *SQLiteAuditLog) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS custody_events (
		id TEXT PRIMARY KEY,
		listing_id TEXT NOT NULL,
		action TEXT NOT NULL,
		actor TEXT,
		prev_status TEXT,
		prev_renter TEXT,
		at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_custody_events_listing ON custody_events(listing_id, at);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteAuditLog) Record(ctx context.Context, e *models.CustodyEvent) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO custody_events (id, listing_id, action, actor, prev_status, prev_renter, at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID.String(), e.ListingID, string(e.Action), e.Actor, string(e.PrevStatus), e.PrevRenter, e.At.UTC(),
	)
	if err != nil {
		return fmt.Errorf("record custody event: %w", err)
	}
	return nil
}

// History returns the events for one listing, oldest first.
func (s *SQLiteAuditLog) History(ctx context.Context, listingID string) ([]models.CustodyEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, listing_id, action, COALESCE(actor, ''), COALESCE(prev_status, ''), COALESCE(prev_renter, ''), at
		FROM custody_events
		WHERE listing_id = ?
		ORDER BY at, rowid`, listingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.CustodyEvent
	for rows.Next() {
		var e models.CustodyEvent
		var id, action, prevStatus string
		var at time.Time
		if err := rows.Scan(&id, &e.ListingID, &action, &e.Actor, &prevStatus, &e.PrevRenter, &at); err != nil {
			return nil, err
		}
		e.ID, err = uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("custody event id %q: %w", id, err)
		}
		e.Action = models.CustodyAction(action)
		e.PrevStatus = models.CustodyStatus(prevStatus)
		e.At = at
		events = append(events, e)
	}
	return events, rows.Err()
}
