package models

import "time"

type ShootStatus string

const (
	ShootStatusUnshot ShootStatus = "unshot"
	ShootStatusShot   ShootStatus = "shot"
)

type CustodyStatus string

const (
	CustodyAvailable CustodyStatus = "available"
	CustodyRented    CustodyStatus = "rented"
)

// Listing is one photographable unit: a room inside a building.
type Listing struct {
	ID           string      `json:"id"`
	BuildingName string      `json:"building_name"`
	RoomLabel    string      `json:"room_label"`
	Address      string      `json:"address"`
	Lat          *float64    `json:"lat"`
	Lng          *float64    `json:"lng"`
	Status       ShootStatus `json:"status"`
	Memo         string      `json:"memo"`

	// Listing-agent fields, copied from the brokerage sheet as free text.
	AgentName        string   `json:"agent_name"`
	AgentPhone       string   `json:"agent_phone"`
	ConfirmationDate string   `json:"confirmation_date"`
	BuildDate        string   `json:"build_date"`
	AccessMethod     string   `json:"access_method"`
	FloorArea        *float64 `json:"floor_area"`
	Rent             *int64   `json:"rent"`
	CommonFee        *int64   `json:"common_fee"`

	ShotAt     *time.Time `json:"shot_at"`
	LastEditor string     `json:"last_editor"`

	CustodyAgentPhone string        `json:"custody_agent_phone"`
	CustodyStatus     CustodyStatus `json:"custody_status"`
	RentedAt          *time.Time    `json:"rented_at"`
	ReturnedAt        *time.Time    `json:"returned_at"`
	RentedBy          string        `json:"rented_by"`

	RecruitmentStatus string `json:"recruitment_status"`
	VacancyDate       string `json:"vacancy_date"`
	Deleted           bool   `json:"deleted"`
}

// ListingPatch names the fields of a partial listing update. Unset fields are
// left untouched in the backing row.
type ListingPatch struct {
	BuildingName      Opt[string]
	RoomLabel         Opt[string]
	Address           Opt[string]
	Lat               Opt[*float64]
	Lng               Opt[*float64]
	Status            Opt[ShootStatus]
	Memo              Opt[string]
	AgentName         Opt[string]
	AgentPhone        Opt[string]
	ConfirmationDate  Opt[string]
	BuildDate         Opt[string]
	AccessMethod      Opt[string]
	FloorArea         Opt[*float64]
	Rent              Opt[*int64]
	CommonFee         Opt[*int64]
	ShotAt            Opt[*time.Time]
	LastEditor        Opt[string]
	CustodyAgentPhone Opt[string]
	CustodyStatus     Opt[CustodyStatus]
	RentedAt          Opt[*time.Time]
	ReturnedAt        Opt[*time.Time]
	RentedBy          Opt[string]
	RecruitmentStatus Opt[string]
	VacancyDate       Opt[string]
	Deleted           Opt[bool]
}

// BuildingGroup is the grouped-by-address view of the rooms of one building.
type BuildingGroup struct {
	BuildingName string      `json:"building_name"`
	Address      string      `json:"address"`
	Lat          *float64    `json:"lat"`
	Lng          *float64    `json:"lng"`
	Rooms        []Listing   `json:"rooms"`
	Status       ShootStatus `json:"status"`
	ShotCount    int         `json:"shot_count"`
}
