package mongo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	domainassets "apexrentals/internal/domain/assets"
	domainbooking "apexrentals/internal/domain/booking"
	"apexrentals/internal/domain/shared/daterange"
	"apexrentals/internal/domain/shared/money"
	domainuser "apexrentals/internal/domain/user"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestBookingDocumentRoundTrip(t *testing.T) {
	rng, err := daterange.New(day(2030, 5, 1), day(2030, 5, 4))
	require.NoError(t, err)
	created := time.Date(2030, 4, 1, 9, 30, 0, 0, time.UTC)
	b := &domainbooking.Booking{
		ID:        "b-1",
		AssetID:   "yacht-1",
		OwnerID:   "owner-1",
		ClientID:  "client-1",
		Range:     rng,
		Days:      3,
		Total:     money.Must(300000, "USD"),
		Status:    domainbooking.StatusConfirmed,
		CreatedAt: created,
		UpdatedAt: created,
		Version:   4,
	}

	raw, err := bson.Marshal(newBookingDocument(b))
	require.NoError(t, err)
	var doc bookingDocument
	require.NoError(t, bson.Unmarshal(raw, &doc))

	got := doc.toAggregate()
	assert.Equal(t, b.ID, got.ID)
	assert.Equal(t, b.Range, got.Range)
	assert.Equal(t, b.Total, got.Total)
	assert.Equal(t, b.Status, got.Status)
	assert.Equal(t, int64(4), got.Version)
	assert.True(t, created.Equal(got.CreatedAt))
}

func TestOverlapFilterIsHalfOpen(t *testing.T) {
	rng, err := daterange.New(day(2030, 5, 1), day(2030, 5, 4))
	require.NoError(t, err)
	f := overlapFilter("yacht-1", rng)
	assert.Equal(t, "yacht-1", f["asset_id"])
	assert.Equal(t, bson.M{"$lt": rng.End}, f["start"])
	assert.Equal(t, bson.M{"$gt": rng.Start}, f["end"])
	assert.Equal(t, bson.M{"$in": []string{"pending", "confirmed"}}, f["status"])
}

func TestExpiredFilterScopesToParticipant(t *testing.T) {
	global := expiredFilter(day(2030, 1, 1), "")
	assert.NotContains(t, global, "$or")

	mine := expiredFilter(day(2030, 1, 1), domainuser.ID("u-1"))
	assert.Equal(t, bson.A{bson.M{"client_id": "u-1"}, bson.M{"owner_id": "u-1"}}, mine["$or"])
}

func TestSearchFilter(t *testing.T) {
	params := domainassets.SearchParams{
		Category:      "yacht",
		LocationQuery: "Monaco (Port)",
		PriceMinUnits: 1000,
		PriceMaxUnits: 5000,
		OnlyAvailable: true,
	}.Normalized()
	f := searchFilter(params)
	assert.Equal(t, "yacht", f["category"])
	assert.Equal(t, primitive.Regex{Pattern: `monaco \(port\)`, Options: "i"}, f["location"])
	assert.Equal(t, bson.M{"$gte": int64(1000), "$lte": int64(5000)}, f["price_units"])
	assert.Equal(t, true, f["available"])

	assert.Empty(t, searchFilter(domainassets.SearchParams{}.Normalized()))
}

func TestAssetDocumentKeepsImagesAndRate(t *testing.T) {
	a := &domainassets.Asset{
		ID:          "car-1",
		Owner:       "owner-1",
		Title:       "Roadster",
		Category:    domainassets.CategoryCar,
		PricePerDay: money.MustRate(499.99, "EUR"),
		Location:    "Milan",
		Available:   true,
		Images:      []domainassets.Image{{URL: "https://cdn/x.jpg", Primary: true}},
		Version:     2,
	}
	got := newAssetDocument(a).toAggregate()
	assert.Equal(t, a.PricePerDay, got.PricePerDay)
	assert.Equal(t, a.Images, got.Images)
	assert.Equal(t, a.Owner, got.Owner)
}
