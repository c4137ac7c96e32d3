package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"shootmap/identity"
	"shootmap/models"
)

const unknownName = "不明"

// KeyRecord is one key currently out with a photographer.
type KeyRecord struct {
	ListingID    string     `json:"id"`
	BuildingName string     `json:"property_name"`
	RoomLabel    string     `json:"room_number"`
	KeyHolder    string     `json:"key_holder"`
	Renter       string     `json:"photographer"`
	StoreName    string     `json:"store_name"`
	RentedAt     *time.Time `json:"key_rented_at"`
}

// ShootingRecord is one completed shoot still on its listing.
type ShootingRecord struct {
	ListingID    string     `json:"id"`
	BuildingName string     `json:"property_name"`
	RoomLabel    string     `json:"room_number"`
	Address      string     `json:"address"`
	Lat          *float64   `json:"latitude"`
	Lng          *float64   `json:"longitude"`
	ShotAt       *time.Time `json:"shooting_datetime"`
	Photographer string     `json:"photographer"`
	Memo         string     `json:"memo"`
	Rent         *int64     `json:"rent"`
	FloorArea    *float64   `json:"floor_area"`
	AgentName    string     `json:"original_agent"`
	AgentPhone   string     `json:"phone_number"`
}

type StaffMember struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	StoreName string      `json:"store_name"`
	Role      models.Role `json:"role"`
}

// StaffDirectory lists the stores and staff of active users.
type StaffDirectory struct {
	Stores []string      `json:"stores"`
	Staff  []StaffMember `json:"staff"`
}

// KeyRecords lists outstanding keys, most recently rented first. Soft-deleted
// listings are included: their keys are still out.
func (s *Snapshot) KeyRecords(ctx context.Context) ([]KeyRecord, error) {
	data, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}

	agents := make(map[string]string, len(data.Agents))
	for _, a := range data.Agents {
		if _, dup := agents[a.Phone]; !dup {
			agents[a.Phone] = a.Name
		}
	}

	var out []KeyRecord
	for _, l := range data.Listings {
		renter := strings.TrimSpace(l.RentedBy)
		if l.CustodyStatus != models.CustodyRented || renter == "" {
			continue
		}
		out = append(out, KeyRecord{
			ListingID:    l.ID,
			BuildingName: l.BuildingName,
			RoomLabel:    l.RoomLabel,
			KeyHolder:    keyHolder(l, agents),
			Renter:       renter,
			StoreName:    storeOf(renter, data.Users),
			RentedAt:     l.RentedAt,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return newer(out[i].RentedAt, out[j].RentedAt)
	})
	return out, nil
}

// ShootingRecords lists shot listings that carry both a shoot time and an
// editor, most recent shoot first.
func (s *Snapshot) ShootingRecords(ctx context.Context) ([]ShootingRecord, error) {
	listings, err := s.Listings(ctx)
	if err != nil {
		return nil, err
	}

	var out []ShootingRecord
	for _, l := range listings {
		if l.Deleted || l.Status != models.ShootStatusShot || l.ShotAt == nil || strings.TrimSpace(l.LastEditor) == "" {
			continue
		}
		out = append(out, ShootingRecord{
			ListingID:    l.ID,
			BuildingName: l.BuildingName,
			RoomLabel:    l.RoomLabel,
			Address:      l.Address,
			Lat:          l.Lat,
			Lng:          l.Lng,
			ShotAt:       l.ShotAt,
			Photographer: l.LastEditor,
			Memo:         l.Memo,
			Rent:         l.Rent,
			FloorArea:    l.FloorArea,
			AgentName:    l.AgentName,
			AgentPhone:   l.AgentPhone,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return newer(out[i].ShotAt, out[j].ShotAt)
	})
	return out, nil
}

// Staff returns the distinct store names of active users, sorted, and the
// active users sorted by display name.
func (s *Snapshot) Staff(ctx context.Context) (*StaffDirectory, error) {
	users, err := s.Users(ctx)
	if err != nil {
		return nil, err
	}

	dir := &StaffDirectory{Stores: []string{}, Staff: []StaffMember{}}
	seen := make(map[string]bool)
	for _, u := range users {
		if !u.Active {
			continue
		}
		if u.StoreName != "" && !seen[u.StoreName] {
			seen[u.StoreName] = true
			dir.Stores = append(dir.Stores, u.StoreName)
		}
		dir.Staff = append(dir.Staff, StaffMember{
			ID:        u.ID,
			Name:      u.DisplayName,
			StoreName: u.StoreName,
			Role:      u.Role,
		})
	}

	sort.Strings(dir.Stores)
	sort.SliceStable(dir.Staff, func(i, j int) bool {
		return dir.Staff[i].Name < dir.Staff[j].Name
	})
	return dir, nil
}

// keyHolder names the agent holding the key: the custody agent, then the
// listing agent.
func keyHolder(l models.Listing, agents map[string]string) string {
	if phone := identity.Normalize(l.CustodyAgentPhone); phone != "" {
		if name := agents[phone]; name != "" {
			return name
		}
	}
	if l.AgentName != "" {
		return l.AgentName
	}
	return unknownName
}

// storeOf matches the renter by display name or login, first user wins.
func storeOf(renter string, users []models.AccountUser) string {
	for _, u := range users {
		if u.DisplayName == renter || u.Username == renter {
			if u.StoreName != "" {
				return u.StoreName
			}
			break
		}
	}
	return unknownName
}

// newer orders by time descending; absent times sort last.
func newer(a, b *time.Time) bool {
	switch {
	case a == nil:
		return false
	case b == nil:
		return true
	}
	return a.After(*b)
}
