package codec

import (
	"strings"

	"shootmap/identity"
	"shootmap/models"
)

// Archive columns (archive sheet, A..O).
const (
	ColArchiveID = iota
	ColArchiveListingID
	ColArchiveBuilding
	ColArchiveRoom
	ColArchiveAddress
	ColPhotographerName
	ColPhotographerStore
	ColShootingDate
	ColArchiveShotAt
	ColCompletionMonth
	ColCompletionYear
	ColArchivedAt
	ColArchiveRent
	ColArchiveFloorArea
	ColArchiveAgentName

	ArchiveWidth
)

var ArchiveHeader = []string{
	"archive_id", "original_property_id", "property_name", "room_number", "address",
	"photographer_name", "photographer_store", "shooting_date", "shooting_datetime",
	"completion_month", "completion_year", "archived_at", "rent", "floor_area", "original_agent",
}

func DecodeArchive(row []any) (models.ArchiveRecord, error) {
	r := models.ArchiveRecord{
		ID:                identity.Normalize(text(row, ColArchiveID)),
		ListingID:         identity.Normalize(text(row, ColArchiveListingID)),
		BuildingName:      text(row, ColArchiveBuilding),
		RoomLabel:         text(row, ColArchiveRoom),
		Address:           text(row, ColArchiveAddress),
		PhotographerName:  text(row, ColPhotographerName),
		PhotographerStore: text(row, ColPhotographerStore),
		ShootingDate:      strings.TrimSpace(text(row, ColShootingDate)),
		ShotAt:            timestamp(cell(row, ColArchiveShotAt)),
		CompletionMonth:   strings.TrimSpace(text(row, ColCompletionMonth)),
		ArchivedAt:        timestamp(cell(row, ColArchivedAt)),
		Rent:              integer(cell(row, ColArchiveRent)),
		FloorArea:         number(cell(row, ColArchiveFloorArea)),
		AgentName:         text(row, ColArchiveAgentName),
	}
	if y := integer(cell(row, ColCompletionYear)); y != nil {
		r.CompletionYear = int(*y)
	}
	if r.ID == "" {
		return r, &models.MalformedRowError{Sheet: "archive", Reason: "blank identifier"}
	}
	return r, nil
}

func EncodeArchive(r models.ArchiveRecord) []any {
	year := any("")
	if r.CompletionYear != 0 {
		year = int64(r.CompletionYear)
	}
	return []any{
		r.ID,
		r.ListingID,
		r.BuildingName,
		r.RoomLabel,
		r.Address,
		r.PhotographerName,
		r.PhotographerStore,
		r.ShootingDate,
		formatTime(r.ShotAt),
		r.CompletionMonth,
		year,
		formatTime(r.ArchivedAt),
		formatInt(r.Rent),
		formatFloat(r.FloorArea),
		r.AgentName,
	}
}
