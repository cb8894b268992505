package earnings

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainassets "apexrentals/internal/domain/assets"
	domainbooking "apexrentals/internal/domain/booking"
	"apexrentals/internal/domain/shared/money"
)

func booking(id, asset string, status domainbooking.Status, cents int64, created time.Time) *domainbooking.Booking {
	return &domainbooking.Booking{
		ID:        domainbooking.BookingID(id),
		AssetID:   domainassets.AssetID(asset),
		OwnerID:   "owner-1",
		ClientID:  "client-1",
		Status:    status,
		Total:     money.Must(cents, "USD"),
		CreatedAt: created,
	}
}

func TestSummarize(t *testing.T) {
	base := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	list := []*domainbooking.Booking{
		booking("b1", "yacht-1", domainbooking.StatusConfirmed, 500000, base),
		booking("b2", "yacht-1", domainbooking.StatusCompleted, 250000, base.Add(time.Hour)),
		booking("b3", "car-1", domainbooking.StatusPending, 90000, base.Add(2*time.Hour)),
		booking("b4", "car-1", domainbooking.StatusCancelled, 1000000, base.Add(3*time.Hour)),
	}
	assets := map[domainassets.AssetID]*domainassets.Asset{
		"yacht-1": {ID: "yacht-1", Title: "Azure", Category: domainassets.CategoryYacht},
	}

	got := Summarize("owner-1", "USD", list, assets)

	assert.EqualValues(t, 840000, got.Total.AmountCents)
	assert.EqualValues(t, 750000, got.Confirmed.AmountCents)
	assert.EqualValues(t, 90000, got.Pending.AmountCents)
	assert.Equal(t, 3, got.BookingsCount)
	assert.Equal(t, 2, got.ConfirmedCount)
	assert.Equal(t, 1, got.PendingCount)

	require.Len(t, got.ByAsset, 2)
	assert.Equal(t, "yacht-1", got.ByAsset[0].AssetID)
	assert.Equal(t, "Azure", got.ByAsset[0].Title)
	assert.Equal(t, 2, got.ByAsset[0].Bookings)
	assert.Equal(t, "car-1", got.ByAsset[1].AssetID)
	assert.Empty(t, got.ByAsset[1].Title)

	require.Len(t, got.Recent, 3)
	assert.Equal(t, "b3", got.Recent[0].ID)
}

func TestSummarizeCapsRecent(t *testing.T) {
	base := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	list := make([]*domainbooking.Booking, 0, 15)
	for i := 0; i < 15; i++ {
		list = append(list, booking("b", "yacht-1", domainbooking.StatusPending, 100, base.Add(time.Duration(i)*time.Hour)))
	}
	got := Summarize("owner-1", "USD", list, nil)
	assert.Len(t, got.Recent, recentLimit)
	assert.EqualValues(t, 1500, got.Total.AmountCents)
}

func TestSummarizeEmpty(t *testing.T) {
	got := Summarize("owner-1", "USD", nil, nil)
	assert.Zero(t, got.Total.AmountCents)
	assert.NotNil(t, got.ByAsset)
	assert.NotNil(t, got.Recent)
}
