package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"shootmap/models"
)

// PostgresAuditLog keeps the custody audit trail in a shared database so
// several app instances see one history.
type PostgresAuditLog struct {
	pool *pgxpool.Pool
}

func NewPostgresAuditLog(ctx context.Context, connString string) (*PostgresAuditLog, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	config.MaxConns = 4
	config.MinConns = 1
	config.MaxConnLifetime = 30 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	s := &PostgresAuditLog{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *PostgresAuditLog) Close() {
	s.pool.Close()
}

func (s *PostgresAuditLog) migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS custody_events (
			id UUID PRIMARY KEY,
			listing_id TEXT NOT NULL,
			action TEXT NOT NULL,
			actor TEXT NOT NULL DEFAULT '',
			prev_status TEXT NOT NULL DEFAULT '',
			prev_renter TEXT NOT NULL DEFAULT '',
			at TIMESTAMPTZ NOT NULL
		);
		ALTER TABLE custody_events ADD COLUMN IF NOT EXISTS seq BIGSERIAL;
		CREATE INDEX IF NOT EXISTS idx_custody_events_listing ON custody_events(listing_id, at, seq);`)
	return err
}

func (s *PostgresAuditLog) Record(ctx context.Context, e *models.CustodyEvent) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	query := `
		INSERT INTO custody_events (id, listing_id, action, actor, prev_status, prev_renter, at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := s.pool.Exec(ctx, query,
		e.ID, e.ListingID, string(e.Action), e.Actor, string(e.PrevStatus), e.PrevRenter, e.At,
	)
	if err != nil {
		return fmt.Errorf("record custody event: %w", err)
	}
	return nil
}

// historyQuery breaks ties on equal timestamps by insertion order.
const historyQuery = `
	SELECT id, listing_id, action, actor, prev_status, prev_renter, at
	FROM custody_events
	WHERE listing_id = $1
	ORDER BY at, seq`

// History returns the events for one listing, oldest first.
func (s *PostgresAuditLog) History(ctx context.Context, listingID string) ([]models.CustodyEvent, error) {
	rows, err := s.pool.Query(ctx, historyQuery, listingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.CustodyEvent
	for rows.Next() {
		var e models.CustodyEvent
		var action, prevStatus string
		if err := rows.Scan(&e.ID, &e.ListingID, &action, &e.Actor, &prevStatus, &e.PrevRenter, &e.At); err != nil {
			return nil, err
		}
		e.Action = models.CustodyAction(action)
		e.PrevStatus = models.CustodyStatus(prevStatus)
		events = append(events, e)
	}
	return events, rows.Err()
}
