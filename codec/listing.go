package codec

import (
	"strings"

	"shootmap/identity"
	"shootmap/models"
)

// Listing columns (Properties sheet, A..Z).
const (
	ColListingID = iota
	ColBuildingName
	ColRoomLabel
	ColAddress
	ColLat
	ColLng
	ColShootStatus
	ColMemo
	ColAgentName
	ColAgentPhone
	ColConfirmationDate
	ColBuildDate
	ColAccessMethod
	ColFloorArea
	ColRent
	ColCommonFee
	ColShotAt
	ColLastEditor
	ColCustodyAgentPhone
	ColCustodyStatus
	ColRentedAt
	ColReturnedAt
	ColRentedBy
	ColRecruitmentStatus
	ColVacancyDate
	ColDeleted

	ListingWidth
)

// Wire values of the shoot status column.
const (
	wireUnshot = "未撮影"
	wireShot   = "撮影済"
)

var ListingHeader = []string{
	"id", "property_name", "room_number", "address", "latitude", "longitude",
	"status", "memo", "original_agent", "phone_number", "confirmation_date",
	"construction_date", "access_method", "floor_area", "rent", "common_fee",
	"shooting_datetime", "updated_by", "key_agent_phone", "key_rental_status",
	"key_rented_at", "key_returned_at", "key_rented_by", "recruitment_status",
	"vacancy_date", "is_deleted",
}

// DecodeListing maps a Properties row to a Listing. It returns a
// *models.MalformedRowError when the row has no identifier or its custody
// fields contradict each other.
func DecodeListing(row []any) (models.Listing, error) {
	l := models.Listing{
		ID:                identity.Normalize(text(row, ColListingID)),
		BuildingName:      text(row, ColBuildingName),
		RoomLabel:         text(row, ColRoomLabel),
		Address:           text(row, ColAddress),
		Lat:               number(cell(row, ColLat)),
		Lng:               number(cell(row, ColLng)),
		Status:            decodeShootStatus(text(row, ColShootStatus)),
		Memo:              text(row, ColMemo),
		AgentName:         text(row, ColAgentName),
		AgentPhone:        text(row, ColAgentPhone),
		ConfirmationDate:  text(row, ColConfirmationDate),
		BuildDate:         text(row, ColBuildDate),
		AccessMethod:      text(row, ColAccessMethod),
		FloorArea:         number(cell(row, ColFloorArea)),
		Rent:              integer(cell(row, ColRent)),
		CommonFee:         integer(cell(row, ColCommonFee)),
		ShotAt:            timestamp(cell(row, ColShotAt)),
		LastEditor:        text(row, ColLastEditor),
		CustodyAgentPhone: text(row, ColCustodyAgentPhone),
		CustodyStatus:     decodeCustodyStatus(text(row, ColCustodyStatus)),
		RentedAt:          timestamp(cell(row, ColRentedAt)),
		ReturnedAt:        timestamp(cell(row, ColReturnedAt)),
		RentedBy:          text(row, ColRentedBy),
		RecruitmentStatus: text(row, ColRecruitmentStatus),
		VacancyDate:       text(row, ColVacancyDate),
		Deleted:           boolean(cell(row, ColDeleted)),
	}

	if l.ID == "" {
		return l, &models.MalformedRowError{Sheet: "listing", Reason: "blank identifier"}
	}
	if l.CustodyStatus == models.CustodyRented {
		if strings.TrimSpace(l.RentedBy) == "" {
			return l, &models.MalformedRowError{Sheet: "listing", Reason: "rented without renter (id " + l.ID + ")"}
		}
		if l.RentedAt == nil {
			return l, &models.MalformedRowError{Sheet: "listing", Reason: "rented without rented-at (id " + l.ID + ")"}
		}
	}
	return l, nil
}

func decodeShootStatus(s string) models.ShootStatus {
	switch strings.TrimSpace(s) {
	case wireShot, "撮影済み", string(models.ShootStatusShot):
		return models.ShootStatusShot
	}
	return models.ShootStatusUnshot
}

func encodeShootStatus(s models.ShootStatus) any {
	if s == models.ShootStatusShot {
		return wireShot
	}
	return wireUnshot
}

func decodeCustodyStatus(s string) models.CustodyStatus {
	if strings.EqualFold(strings.TrimSpace(s), string(models.CustodyRented)) {
		return models.CustodyRented
	}
	return models.CustodyAvailable
}

func encodeCustodyStatus(s models.CustodyStatus) any {
	if s == models.CustodyRented {
		return string(models.CustodyRented)
	}
	return string(models.CustodyAvailable)
}

// EncodeListing produces the full row for a new listing.
func EncodeListing(l models.Listing) []any {
	return []any{
		l.ID,
		l.BuildingName,
		l.RoomLabel,
		l.Address,
		formatFloat(l.Lat),
		formatFloat(l.Lng),
		encodeShootStatus(l.Status),
		l.Memo,
		l.AgentName,
		l.AgentPhone,
		l.ConfirmationDate,
		l.BuildDate,
		l.AccessMethod,
		formatFloat(l.FloorArea),
		formatInt(l.Rent),
		formatInt(l.CommonFee),
		formatTime(l.ShotAt),
		l.LastEditor,
		l.CustodyAgentPhone,
		encodeCustodyStatus(l.CustodyStatus),
		formatTime(l.RentedAt),
		formatTime(l.ReturnedAt),
		l.RentedBy,
		l.RecruitmentStatus,
		l.VacancyDate,
		formatBool(l.Deleted),
	}
}

// MergeListing applies p to the last known full row. It returns the merged
// row and the ascending list of columns the patch touched; every other cell
// keeps its raw value.
func MergeListing(base []any, p models.ListingPatch) ([]any, []int) {
	m := newMerger(base, ListingWidth)
	if p.BuildingName.Set {
		m.set(ColBuildingName, p.BuildingName.Value)
	}
	if p.RoomLabel.Set {
		m.set(ColRoomLabel, p.RoomLabel.Value)
	}
	if p.Address.Set {
		m.set(ColAddress, p.Address.Value)
	}
	if p.Lat.Set {
		m.set(ColLat, formatFloat(p.Lat.Value))
	}
	if p.Lng.Set {
		m.set(ColLng, formatFloat(p.Lng.Value))
	}
	if p.Status.Set {
		m.set(ColShootStatus, encodeShootStatus(p.Status.Value))
	}
	if p.Memo.Set {
		m.set(ColMemo, p.Memo.Value)
	}
	if p.AgentName.Set {
		m.set(ColAgentName, p.AgentName.Value)
	}
	if p.AgentPhone.Set {
		m.set(ColAgentPhone, p.AgentPhone.Value)
	}
	if p.ConfirmationDate.Set {
		m.set(ColConfirmationDate, p.ConfirmationDate.Value)
	}
	if p.BuildDate.Set {
		m.set(ColBuildDate, p.BuildDate.Value)
	}
	if p.AccessMethod.Set {
		m.set(ColAccessMethod, p.AccessMethod.Value)
	}
	if p.FloorArea.Set {
		m.set(ColFloorArea, formatFloat(p.FloorArea.Value))
	}
	if p.Rent.Set {
		m.set(ColRent, formatInt(p.Rent.Value))
	}
	if p.CommonFee.Set {
		m.set(ColCommonFee, formatInt(p.CommonFee.Value))
	}
	if p.ShotAt.Set {
		m.set(ColShotAt, formatTime(p.ShotAt.Value))
	}
	if p.LastEditor.Set {
		m.set(ColLastEditor, p.LastEditor.Value)
	}
	if p.CustodyAgentPhone.Set {
		m.set(ColCustodyAgentPhone, p.CustodyAgentPhone.Value)
	}
	if p.CustodyStatus.Set {
		m.set(ColCustodyStatus, encodeCustodyStatus(p.CustodyStatus.Value))
	}
	if p.RentedAt.Set {
		m.set(ColRentedAt, formatTime(p.RentedAt.Value))
	}
	if p.ReturnedAt.Set {
		m.set(ColReturnedAt, formatTime(p.ReturnedAt.Value))
	}
	if p.RentedBy.Set {
		m.set(ColRentedBy, p.RentedBy.Value)
	}
	if p.RecruitmentStatus.Set {
		m.set(ColRecruitmentStatus, p.RecruitmentStatus.Value)
	}
	if p.VacancyDate.Set {
		m.set(ColVacancyDate, p.VacancyDate.Value)
	}
	if p.Deleted.Set {
		m.set(ColDeleted, formatBool(p.Deleted.Value))
	}
	return m.row, m.changed
}
