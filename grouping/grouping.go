// Package grouping folds room-level listings into one marker per building.
package grouping

import (
	"shootmap/identity"
	"shootmap/models"
)

type groupKey struct {
	building string
	address  string
}

// Group buckets listings by exact (building name, address). Groups and the
// rooms inside them keep first-appearance order. When a room label repeats
// inside a building only one row survives: a row with an access method or
// memo beats one without, otherwise the larger id wins. A group is unshot
// while any of its rooms is.
//
// Group is pure; callers filter soft-deleted listings beforehand.
func Group(listings []models.Listing) []models.BuildingGroup {
	groups := make([]models.BuildingGroup, 0)
	index := make(map[groupKey]int)
	rooms := make([]map[string]int, 0)

	for _, l := range listings {
		key := groupKey{building: l.BuildingName, address: l.Address}
		gi, ok := index[key]
		if !ok {
			gi = len(groups)
			index[key] = gi
			groups = append(groups, models.BuildingGroup{
				BuildingName: l.BuildingName,
				Address:      l.Address,
			})
			rooms = append(rooms, make(map[string]int))
		}

		g := &groups[gi]
		if ri, dup := rooms[gi][l.RoomLabel]; dup {
			if preferred(l, g.Rooms[ri]) {
				g.Rooms[ri] = l
			}
			continue
		}
		rooms[gi][l.RoomLabel] = len(g.Rooms)
		g.Rooms = append(g.Rooms, l)
	}

	for i := range groups {
		summarize(&groups[i])
	}
	return groups
}

// preferred reports whether candidate should replace current for the same room.
func preferred(candidate, current models.Listing) bool {
	cr, kr := hasDetail(candidate), hasDetail(current)
	if cr != kr {
		return cr
	}
	return identity.Compare(candidate.ID, current.ID) > 0
}

func hasDetail(l models.Listing) bool {
	return l.AccessMethod != "" || l.Memo != ""
}

func summarize(g *models.BuildingGroup) {
	g.Status = models.ShootStatusShot
	g.ShotCount = 0
	for _, r := range g.Rooms {
		if r.Status == models.ShootStatusShot {
			g.ShotCount++
		} else {
			g.Status = models.ShootStatusUnshot
		}
		if g.Lat == nil && r.Lat != nil {
			g.Lat, g.Lng = r.Lat, r.Lng
		}
	}
}

// Active drops soft-deleted listings.
func Active(listings []models.Listing) []models.Listing {
	out := make([]models.Listing, 0, len(listings))
	for _, l := range listings {
		if !l.Deleted {
			out = append(out, l)
		}
	}
	return out
}
