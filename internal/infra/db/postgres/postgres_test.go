package postgres

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainassets "apexrentals/internal/domain/assets"
	domainbooking "apexrentals/internal/domain/booking"
	"apexrentals/internal/domain/shared/money"
)

func TestMapBookingError(t *testing.T) {
	exclusion := fmt.Errorf("insert: %w", &pq.Error{Code: "23P01"})
	assert.ErrorIs(t, mapBookingError(exclusion), domainbooking.ErrBookingConflict)
	assert.ErrorIs(t, mapBookingError(&pq.Error{Code: "23505"}), domainbooking.ErrBookingConflict)
	assert.ErrorIs(t, mapBookingError(&pq.Error{Code: "40001"}), domainbooking.ErrConcurrentUpdate)

	other := errors.New("connection reset")
	assert.Equal(t, other, mapBookingError(other))
}

func TestSchemaDeclaresExclusionConstraint(t *testing.T) {
	assert.Contains(t, schema, "CREATE EXTENSION IF NOT EXISTS btree_gist")
	assert.Contains(t, schema, "EXCLUDE USING gist")
	assert.Contains(t, schema, "daterange(start_date, end_date, '[)') WITH &&")
	assert.Contains(t, schema, "WHERE (status IN ('pending', 'confirmed'))")
}

func TestSearchClause(t *testing.T) {
	where, args := searchClause(domainassets.SearchParams{
		Owner:         "owner-1",
		LocationQuery: "50%_off",
		PriceMaxUnits: 9000,
		OnlyAvailable: true,
	}.Normalized())
	assert.Equal(t, "WHERE owner_id = $1 AND location ILIKE $2 AND price_units <= $3 AND available", where)
	assert.Equal(t, []any{"owner-1", `%50\%\_off%`, int64(9000)}, args)

	where, args = searchClause(domainassets.SearchParams{}.Normalized())
	assert.Empty(t, where)
	assert.Empty(t, args)
}

func TestAssetRowRoundTrip(t *testing.T) {
	lat := 43.73
	a := &domainassets.Asset{
		ID:          "yacht-1",
		Owner:       "owner-1",
		Title:       "Azimut 68",
		Category:    domainassets.CategoryYacht,
		PricePerDay: money.MustRate(1000, "USD"),
		Location:    "Monaco",
		Latitude:    &lat,
		Available:   true,
		Images:      []domainassets.Image{{URL: "https://cdn/a.jpg", Primary: true}},
		CreatedAt:   time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
		Version:     3,
	}
	row, err := newAssetRow(a)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(row.Images, "["))
	assert.False(t, row.Longitude.Valid)

	got, err := row.toAggregate()
	require.NoError(t, err)
	assert.Equal(t, a.Images, got.Images)
	assert.Equal(t, a.PricePerDay, got.PricePerDay)
	require.NotNil(t, got.Latitude)
	assert.InDelta(t, lat, *got.Latitude, 1e-9)
	assert.Nil(t, got.Longitude)
}
