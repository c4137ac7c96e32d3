package codec

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shootmap/models"
)

func fullListingRow() []any {
	return []any{
		"12", "Alpha", "101", "1 Main St", "35.6812", "139.7671",
		"撮影済", "gate code 1234", "Sakura Realty", "03-1111-2222", "2024/05/01",
		"1998/04", "key box", "25.5", "85,000", "5,000",
		"2024-05-02 10:30:00", "Jane", "090-1234-5678", "rented",
		"2024-05-01 09:00:00", "", "Jane", "募集中", "2024-06-01", "FALSE",
	}
}

func TestDecodeListing_FullRow(t *testing.T) {
	l, err := DecodeListing(fullListingRow())
	require.NoError(t, err)

	assert.Equal(t, "12", l.ID)
	assert.Equal(t, "Alpha", l.BuildingName)
	assert.Equal(t, "101", l.RoomLabel)
	assert.Equal(t, models.ShootStatusShot, l.Status)
	require.NotNil(t, l.Lat)
	assert.InDelta(t, 35.6812, *l.Lat, 1e-9)
	require.NotNil(t, l.FloorArea)
	assert.InDelta(t, 25.5, *l.FloorArea, 1e-9)
	require.NotNil(t, l.Rent)
	assert.Equal(t, int64(85000), *l.Rent)
	require.NotNil(t, l.CommonFee)
	assert.Equal(t, int64(5000), *l.CommonFee)
	require.NotNil(t, l.ShotAt)
	assert.Equal(t, time.Date(2024, 5, 2, 10, 30, 0, 0, JST).Unix(), l.ShotAt.Unix())
	assert.Equal(t, models.CustodyRented, l.CustodyStatus)
	assert.Equal(t, "Jane", l.RentedBy)
	assert.Nil(t, l.ReturnedAt)
	assert.False(t, l.Deleted)
}

func TestDecodeListing_Defensive(t *testing.T) {
	l, err := DecodeListing([]any{"3", "Beta", "201", "2 Oak Ave", "", "north", "", "", "", "", "", "", "", "n/a", "１２,０００", ""})
	require.NoError(t, err)

	assert.Nil(t, l.Lat, "blank numeric decodes to absent")
	assert.Nil(t, l.Lng, "unparsable numeric decodes to absent")
	assert.Nil(t, l.FloorArea)
	require.NotNil(t, l.Rent, "full-width digits and separators are normalized")
	assert.Equal(t, int64(12000), *l.Rent)
	assert.Nil(t, l.CommonFee)
	assert.Equal(t, models.ShootStatusUnshot, l.Status, "blank status decodes to unshot")
	assert.Equal(t, models.CustodyAvailable, l.CustodyStatus, "blank custody decodes to available")
	assert.Nil(t, l.RentedAt)
}

func TestDecodeListing_IntegerRange(t *testing.T) {
	tcases := map[string]struct {
		rent any
		want *int64
	}{
		"rounded":            {rent: "85,000.4", want: models.Ptr(int64(85000))},
		"large but in range": {rent: "9e18", want: models.Ptr(int64(9e18))},
		"overflow text":      {rent: "1e30", want: nil},
		"underflow text":     {rent: "-1e30", want: nil},
		"overflow number":    {rent: 1e19, want: nil},
		"exactly 2^63":       {rent: float64(1 << 63), want: nil},
	}

	for name, tc := range tcases {
		t.Run(name, func(t *testing.T) {
			row := fullListingRow()
			row[ColRent] = tc.rent
			l, err := DecodeListing(row)
			require.NoError(t, err)
			assert.Equal(t, tc.want, l.Rent)
		})
	}
}

func TestDecodeListing_StatusVariants(t *testing.T) {
	tcases := []struct {
		cell string
		want models.ShootStatus
	}{
		{"撮影済", models.ShootStatusShot},
		{"撮影済み", models.ShootStatusShot},
		{"shot", models.ShootStatusShot},
		{"未撮影", models.ShootStatusUnshot},
		{"", models.ShootStatusUnshot},
		{"something else", models.ShootStatusUnshot},
	}
	for _, tc := range tcases {
		t.Run(tc.cell, func(t *testing.T) {
			l, err := DecodeListing([]any{"1", "", "", "", "", "", tc.cell})
			require.NoError(t, err)
			assert.Equal(t, tc.want, l.Status)
		})
	}
}

func TestDecodeListing_Malformed(t *testing.T) {
	tcases := []struct {
		name string
		row  []any
	}{
		{"blank id", []any{"", "Alpha", "101"}},
		{"rented without renter", func() []any {
			r := fullListingRow()
			r[ColRentedBy] = ""
			return r
		}()},
		{"rented without rented-at", func() []any {
			r := fullListingRow()
			r[ColRentedAt] = ""
			return r
		}()},
	}
	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeListing(tc.row)
			require.Error(t, err)
			assert.True(t, errors.Is(err, models.ErrMalformedRow))
		})
	}
}

func TestEncodeListing_RoundTrip(t *testing.T) {
	shot := time.Date(2024, 5, 2, 10, 30, 0, 0, JST)
	in := models.Listing{
		ID:            "7",
		BuildingName:  "Alpha",
		RoomLabel:     "101",
		Address:       "1 Main St",
		Lat:           models.Ptr(35.0),
		Status:        models.ShootStatusShot,
		Rent:          models.Ptr(int64(90000)),
		ShotAt:        &shot,
		CustodyStatus: models.CustodyAvailable,
	}

	row := EncodeListing(in)
	require.Len(t, row, ListingWidth)

	out, err := DecodeListing(row)
	require.NoError(t, err)
	assert.Equal(t, in.ID, out.ID)
	assert.Equal(t, in.Status, out.Status)
	assert.Equal(t, *in.Rent, *out.Rent)
	assert.Equal(t, shot.Unix(), out.ShotAt.Unix())
	assert.Nil(t, out.Lng)
	assert.Nil(t, out.FloorArea)
}

// Every field a patch does not name must decode exactly as it did before.
func TestMergeListing_PreservesUntouchedFields(t *testing.T) {
	now := time.Date(2024, 7, 1, 8, 0, 0, 0, JST)
	patches := map[string]models.ListingPatch{
		"status":  {Status: models.Some(models.ShootStatusUnshot)},
		"memo":    {Memo: models.Some("new memo")},
		"clear":   {Rent: models.Some[*int64](nil), Lat: models.Some[*float64](nil)},
		"custody": {CustodyStatus: models.Some(models.CustodyAvailable), ReturnedAt: models.Some(&now)},
		"delete":  {Deleted: models.Some(true)},
		"nothing": {},
	}

	base := fullListingRow()
	before, err := DecodeListing(base)
	require.NoError(t, err)

	for name, p := range patches {
		t.Run(name, func(t *testing.T) {
			merged, changed := MergeListing(base, p)
			after, err := DecodeListing(merged)
			require.NoError(t, err)

			expected := before
			applyListingPatch(&expected, p)
			assert.Equal(t, expected, after)

			touched := map[int]bool{}
			for _, c := range changed {
				touched[c] = true
			}
			for col := range base {
				if !touched[col] {
					assert.Equal(t, base[col], merged[col], "column %d changed without being patched", col)
				}
			}
		})
	}
	assert.Equal(t, "12", base[ColListingID], "base row is not modified")
}

func TestMergeListing_ChangedColumnsAscending(t *testing.T) {
	now := time.Now()
	_, changed := MergeListing(nil, models.ListingPatch{
		RentedBy:      models.Some("Jane"),
		CustodyStatus: models.Some(models.CustodyRented),
		RentedAt:      models.Some(&now),
		ReturnedAt:    models.Some[*time.Time](nil),
	})
	assert.Equal(t, []int{ColCustodyStatus, ColRentedAt, ColReturnedAt, ColRentedBy}, changed)
}

// applyListingPatch mirrors MergeListing on the typed entity for assertions.
func applyListingPatch(l *models.Listing, p models.ListingPatch) {
	if p.Status.Set {
		l.Status = p.Status.Value
	}
	if p.Memo.Set {
		l.Memo = p.Memo.Value
	}
	if p.Rent.Set {
		l.Rent = p.Rent.Value
	}
	if p.Lat.Set {
		l.Lat = p.Lat.Value
	}
	if p.CustodyStatus.Set {
		l.CustodyStatus = p.CustodyStatus.Value
	}
	if p.ReturnedAt.Set {
		t := p.ReturnedAt.Value.Truncate(time.Second)
		l.ReturnedAt = &t
	}
	if p.Deleted.Set {
		l.Deleted = p.Deleted.Value
	}
}
