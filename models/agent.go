package models

import "time"

// Agent is an external key-holding party. Listings reference it by phone.
type Agent struct {
	Phone     string     `json:"phone"`
	Name      string     `json:"name"`
	Address   string     `json:"address"`
	Lat       *float64   `json:"lat"`
	Lng       *float64   `json:"lng"`
	CreatedAt *time.Time `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

type AgentPatch struct {
	Name      Opt[string]
	Address   Opt[string]
	Lat       Opt[*float64]
	Lng       Opt[*float64]
	UpdatedAt Opt[*time.Time]
}
