// Package custody drives the physical-key lifecycle of a listing:
// available, rented to someone, returned, and reset back to a clean slate.
package custody

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"shootmap/models"
)

type Kind string

const (
	Available Kind = "available"
	Rented    Kind = "rented"
	Returned  Kind = "returned"
)

// State is the custody state derived from a listing's custody columns.
type State struct {
	Kind  Kind
	By    string
	Since *time.Time
	At    *time.Time
}

// StateOf derives the custody state of l. A listing that is available but
// still carries a return timestamp has finished a cycle that was never reset.
func StateOf(l models.Listing) State {
	if l.CustodyStatus == models.CustodyRented {
		return State{Kind: Rented, By: l.RentedBy, Since: l.RentedAt}
	}
	if l.ReturnedAt != nil {
		return State{Kind: Returned, By: l.RentedBy, Since: l.RentedAt, At: l.ReturnedAt}
	}
	return State{Kind: Available}
}

// Listings is the slice of the listing store the machine needs.
type Listings interface {
	GetByID(ctx context.Context, id string) (*models.Listing, error)
	UpdateFields(ctx context.Context, id string, p models.ListingPatch) (*models.Listing, error)
}

// AuditLog persists custody transitions.
type AuditLog interface {
	Record(ctx context.Context, e *models.CustodyEvent) error
	History(ctx context.Context, listingID string) ([]models.CustodyEvent, error)
}

// Machine applies custody transitions as one targeted write each.
//
// The legality check reads the row before writing and is not atomic with
// the write: two callers renting the same key at once can both pass the
// check, and the later write replaces the earlier renter. Excluding that
// needs a lock outside the sheet.
type Machine struct {
	listings Listings
	audit    AuditLog
	now      func() time.Time
}

// New returns a Machine. audit may be nil.
func New(listings Listings, audit AuditLog) *Machine {
	return &Machine{listings: listings, audit: audit, now: time.Now}
}

// Rent hands the key to by. Legal from Available or Returned.
func (m *Machine) Rent(ctx context.Context, id, by string) (*models.Listing, error) {
	by = strings.TrimSpace(by)
	if by == "" {
		return nil, fmt.Errorf("%w: renter name is required", models.ErrInvalidArgument)
	}

	current, err := m.load(ctx, id)
	if err != nil {
		return nil, err
	}
	prev := StateOf(*current)
	if prev.Kind == Rented {
		return nil, fmt.Errorf("%w: listing %s is already rented by %s", models.ErrIllegalTransition, id, prev.By)
	}

	now := m.now()
	updated, err := m.listings.UpdateFields(ctx, id, models.ListingPatch{
		CustodyStatus: models.Some(models.CustodyRented),
		RentedAt:      models.Some(&now),
		ReturnedAt:    models.Some[*time.Time](nil),
		RentedBy:      models.Some(by),
	})
	if err != nil {
		return nil, fmt.Errorf("rent %s: %w", id, err)
	}
	m.record(ctx, id, models.CustodyActionRent, by, current, now)
	return updated, nil
}

// Return takes the key back. Legal from Rented; renter and rented-at stay
// on the row as the record of the finished cycle.
func (m *Machine) Return(ctx context.Context, id string) (*models.Listing, error) {
	current, err := m.loadForRepair(ctx, id)
	if err != nil {
		return nil, err
	}
	if current != nil && StateOf(*current).Kind != Rented {
		return nil, fmt.Errorf("%w: listing %s is not rented", models.ErrIllegalTransition, id)
	}

	now := m.now()
	updated, err := m.listings.UpdateFields(ctx, id, models.ListingPatch{
		CustodyStatus: models.Some(models.CustodyAvailable),
		ReturnedAt:    models.Some(&now),
	})
	if err != nil {
		return nil, fmt.Errorf("return %s: %w", id, err)
	}
	m.record(ctx, id, models.CustodyActionReturn, renterOf(current), current, now)
	return updated, nil
}

// Reset clears the history of the last cycle. Legal from Returned or
// Available; a rented key must be returned first.
func (m *Machine) Reset(ctx context.Context, id string) (*models.Listing, error) {
	current, err := m.loadForRepair(ctx, id)
	if err != nil {
		return nil, err
	}
	if current != nil && StateOf(*current).Kind == Rented {
		return nil, fmt.Errorf("%w: listing %s must be returned before reset", models.ErrIllegalTransition, id)
	}

	now := m.now()
	updated, err := m.listings.UpdateFields(ctx, id, models.ListingPatch{
		CustodyStatus: models.Some(models.CustodyAvailable),
		RentedAt:      models.Some[*time.Time](nil),
		ReturnedAt:    models.Some[*time.Time](nil),
		RentedBy:      models.Some(""),
	})
	if err != nil {
		return nil, fmt.Errorf("reset %s: %w", id, err)
	}
	m.record(ctx, id, models.CustodyActionReset, "", current, now)
	return updated, nil
}

// History lists recorded transitions for a listing, oldest first.
func (m *Machine) History(ctx context.Context, id string) ([]models.CustodyEvent, error) {
	if m.audit == nil {
		return nil, nil
	}
	return m.audit.History(ctx, id)
}

func (m *Machine) load(ctx context.Context, id string) (*models.Listing, error) {
	l, err := m.listings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, fmt.Errorf("%w: listing %s", models.ErrEntityNotFound, id)
	}
	return l, nil
}

// loadForRepair is load, except that a row failing the rented invariant is
// let through as nil so Return and Reset can repair it.
func (m *Machine) loadForRepair(ctx context.Context, id string) (*models.Listing, error) {
	l, err := m.load(ctx, id)
	if errors.Is(err, models.ErrMalformedRow) {
		log.Printf("Warning: repairing custody of listing %s: %v", id, err)
		return nil, nil
	}
	return l, err
}

func (m *Machine) record(ctx context.Context, id string, action models.CustodyAction, actor string, prev *models.Listing, at time.Time) {
	if m.audit == nil {
		return
	}
	e := &models.CustodyEvent{
		ID:        uuid.New(),
		ListingID: id,
		Action:    action,
		Actor:     actor,
		At:        at,
	}
	if prev != nil {
		e.PrevStatus = prev.CustodyStatus
		e.PrevRenter = prev.RentedBy
	}
	if err := m.audit.Record(ctx, e); err != nil {
		log.Printf("Warning: custody %s of listing %s not audited: %v", action, id, err)
	}
}

func renterOf(l *models.Listing) string {
	if l == nil {
		return ""
	}
	return l.RentedBy
}
