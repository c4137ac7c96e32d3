package models

import (
	"time"

	"github.com/google/uuid"
)

type CustodyAction string

const (
	CustodyActionRent   CustodyAction = "rent"
	CustodyActionReturn CustodyAction = "return"
	CustodyActionReset  CustodyAction = "reset"
)

// CustodyEvent is one audit-trail entry for a key-custody transition.
type CustodyEvent struct {
	ID         uuid.UUID     `json:"id" db:"id"`
	ListingID  string        `json:"listing_id" db:"listing_id"`
	Action     CustodyAction `json:"action" db:"action"`
	Actor      string        `json:"actor" db:"actor"`
	PrevStatus CustodyStatus `json:"prev_status" db:"prev_status"`
	PrevRenter string        `json:"prev_renter" db:"prev_renter"`
	At         time.Time     `json:"at" db:"at"`
}
