package models

import "time"

// ArchiveRecord is a write-once snapshot of a completed shoot, kept for
// monthly rollups after the listing row itself is pruned.
type ArchiveRecord struct {
	ID                string     `json:"id"`
	ListingID         string     `json:"listing_id"`
	BuildingName      string     `json:"building_name"`
	RoomLabel         string     `json:"room_label"`
	Address           string     `json:"address"`
	PhotographerName  string     `json:"photographer_name"`
	PhotographerStore string     `json:"photographer_store"`
	ShootingDate      string     `json:"shooting_date"`   // YYYY-MM-DD
	ShotAt            *time.Time `json:"shot_at"`
	CompletionMonth   string     `json:"completion_month"` // YYYY-MM
	CompletionYear    int        `json:"completion_year"`
	ArchivedAt        *time.Time `json:"archived_at"`
	Rent              *int64     `json:"rent"`
	FloorArea         *float64   `json:"floor_area"`
	AgentName         string     `json:"agent_name"`
}
