package booking

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"apexrentals/internal/domain/shared/daterange"
	"apexrentals/internal/domain/shared/money"
)

func day(t *testing.T, value string) time.Time {
	t.Helper()
	d, err := daterange.Parse(value)
	require.NoError(t, err)
	return d
}

func window(t *testing.T, start, end string, status Status) Window {
	t.Helper()
	return Window{BookingID: BookingID(start + "/" + end), Range: daterange.DateRange{Start: day(t, start), End: day(t, end)}, Status: status}
}

func TestCheckAvailabilityEmptyAssetIsAvailable(t *testing.T) {
	now := day(t, "2024-05-20")
	got, err := CheckAvailability("yacht-1", day(t, "2024-06-01"), day(t, "2024-06-04"), nil, now)
	require.NoError(t, err)
	assert.True(t, got.Available)
	assert.Empty(t, got.Conflicts)

	quote, err := ComputeTotalPrice(day(t, "2024-06-01"), day(t, "2024-06-04"), money.MustRate(500, "USD"))
	require.NoError(t, err)
	assert.Equal(t, 3, quote.Days)
	assert.Equal(t, money.Must(150000, "USD"), quote.Total)
}

func TestCheckAvailabilityOverlapWithConfirmed(t *testing.T) {
	now := day(t, "2024-05-20")
	existing := []Window{window(t, "2024-06-02", "2024-06-05", StatusConfirmed)}

	got, err := CheckAvailability("yacht-1", day(t, "2024-06-01"), day(t, "2024-06-03"), existing, now)
	require.NoError(t, err)
	assert.False(t, got.Available)
	require.Len(t, got.Conflicts, 1)
	assert.Equal(t, existing[0], got.Conflicts[0])
}

func TestCheckAvailabilityFiltersByStatus(t *testing.T) {
	now := day(t, "2024-05-20")
	tests := []struct {
		name      string
		status    Status
		available bool
	}{
		{name: "pending blocks", status: StatusPending, available: false},
		{name: "confirmed blocks", status: StatusConfirmed, available: false},
		{name: "cancelled ignored", status: StatusCancelled, available: true},
		{name: "completed ignored", status: StatusCompleted, available: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			existing := []Window{window(t, "2024-06-02", "2024-06-05", tt.status)}
			got, err := CheckAvailability("car-1", day(t, "2024-06-03"), day(t, "2024-06-04"), existing, now)
			require.NoError(t, err)
			assert.Equal(t, tt.available, got.Available)
		})
	}
}

func TestCheckAvailabilityHalfOpenBoundaries(t *testing.T) {
	now := day(t, "2024-05-20")
	existing := []Window{window(t, "2024-06-05", "2024-06-08", StatusConfirmed)}

	before, err := CheckAvailability("jet-1", day(t, "2024-06-01"), day(t, "2024-06-05"), existing, now)
	require.NoError(t, err)
	assert.True(t, before.Available, "ending on the existing start day must not overlap")

	after, err := CheckAvailability("jet-1", day(t, "2024-06-08"), day(t, "2024-06-10"), existing, now)
	require.NoError(t, err)
	assert.True(t, after.Available, "starting on the existing end day must not overlap")

	inside, err := CheckAvailability("jet-1", day(t, "2024-06-06"), day(t, "2024-06-07"), existing, now)
	require.NoError(t, err)
	assert.False(t, inside.Available)
}

func TestCheckAvailabilityRejectsInvalidRanges(t *testing.T) {
	now := day(t, "2024-05-20")
	tests := []struct {
		name       string
		start, end string
		want       error
	}{
		{name: "start equals end", start: "2024-06-01", end: "2024-06-01", want: ErrInvalidRange},
		{name: "reversed", start: "2024-06-10", end: "2024-06-05", want: ErrInvalidRange},
		{name: "start in past", start: "2024-05-19", end: "2024-05-22", want: ErrDateInPast},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CheckAvailability("yacht-1", day(t, tt.start), day(t, tt.end), nil, now)
			require.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, ErrInvalidRange)
		})
	}
}

func TestCheckAvailabilityAllowsToday(t *testing.T) {
	now := time.Date(2024, 6, 1, 17, 45, 0, 0, time.UTC)
	got, err := CheckAvailability("yacht-1", day(t, "2024-06-01"), day(t, "2024-06-02"), nil, now)
	require.NoError(t, err)
	assert.True(t, got.Available)
}

func TestCheckAvailabilityDiscardsTimeOfDay(t *testing.T) {
	now := day(t, "2024-05-20")
	start := time.Date(2024, 6, 1, 23, 59, 59, 0, time.UTC)
	end := time.Date(2024, 6, 2, 0, 0, 1, 0, time.UTC)
	got, err := CheckAvailability("yacht-1", start, end, nil, now)
	require.NoError(t, err)
	assert.Equal(t, day(t, "2024-06-01"), got.Range.Start)
	assert.Equal(t, day(t, "2024-06-02"), got.Range.End)

	_, err = CheckAvailability("yacht-1", time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC), time.Date(2024, 6, 1, 18, 0, 0, 0, time.UTC), nil, now)
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestCheckAvailabilityIsPure(t *testing.T) {
	now := day(t, "2024-05-20")
	existing := []Window{
		window(t, "2024-06-02", "2024-06-05", StatusConfirmed),
		window(t, "2024-06-10", "2024-06-12", StatusPending),
		window(t, "2024-06-03", "2024-06-04", StatusCancelled),
	}
	snapshot := append([]Window(nil), existing...)

	first, err := CheckAvailability("yacht-1", day(t, "2024-06-01"), day(t, "2024-06-11"), existing, now)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := CheckAvailability("yacht-1", day(t, "2024-06-01"), day(t, "2024-06-11"), existing, now)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
	assert.Equal(t, snapshot, existing)
	assert.Len(t, first.Conflicts, 2)
}

func TestComputeTotalPrice(t *testing.T) {
	tests := []struct {
		name       string
		start, end time.Time
		rate       money.Rate
		days       int
		cents      int64
	}{
		{name: "three days", start: day(t, "2024-06-01"), end: day(t, "2024-06-04"), rate: money.MustRate(500, "USD"), days: 3, cents: 150000},
		{name: "single day", start: day(t, "2024-06-01"), end: day(t, "2024-06-02"), rate: money.MustRate(1250.5, "USD"), days: 1, cents: 125050},
		{name: "sub cent rate rounds half up once", start: day(t, "2024-06-01"), end: day(t, "2024-06-04"), rate: money.MustRate(0.0050, "USD"), days: 3, cents: 2},
		{name: "month boundary", start: day(t, "2024-01-30"), end: day(t, "2024-02-02"), rate: money.MustRate(99.99, "EUR"), days: 3, cents: 29997},
		{name: "leap day", start: day(t, "2024-02-28"), end: day(t, "2024-03-01"), rate: money.MustRate(10, "USD"), days: 2, cents: 2000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quote, err := ComputeTotalPrice(tt.start, tt.end, tt.rate)
			require.NoError(t, err)
			assert.Equal(t, tt.days, quote.Days)
			assert.Equal(t, tt.cents, quote.Total.Amount)
			assert.Equal(t, tt.rate.Currency, quote.Total.Currency)
		})
	}
}

func TestComputeTotalPriceRejectsOverflowingTotals(t *testing.T) {
	start := day(t, "2030-01-01")
	rate := money.MustRate(1e12, "USD")

	quote, err := ComputeTotalPrice(start, start.AddDate(0, 0, 900), rate)
	require.NoError(t, err)
	assert.Equal(t, int64(90000000000000000), quote.Total.Amount)

	_, err = ComputeTotalPrice(start, start.AddDate(0, 0, 1000), rate)
	assert.ErrorIs(t, err, ErrInvalidPrice)
	assert.ErrorIs(t, err, money.ErrOverflow)
}

func TestComputeTotalPriceErrors(t *testing.T) {
	_, err := ComputeTotalPrice(day(t, "2024-06-01"), day(t, "2024-06-01"), money.MustRate(500, "USD"))
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = ComputeTotalPrice(day(t, "2024-06-10"), day(t, "2024-06-05"), money.MustRate(500, "USD"))
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = ComputeTotalPrice(day(t, "2024-06-01"), day(t, "2024-06-03"), money.MustRate(0, "USD"))
	assert.ErrorIs(t, err, ErrInvalidPrice)

	_, err = ComputeTotalPrice(day(t, "2024-06-01"), day(t, "2024-06-03"), money.MustRate(-20, "USD"))
	assert.ErrorIs(t, err, ErrInvalidPrice)
	assert.False(t, errors.Is(err, ErrInvalidRange))
}

func TestComputeTotalPriceIsMonotonic(t *testing.T) {
	start := day(t, "2024-06-01")
	rate := money.MustRate(333.3333, "USD")
	var previous int64
	for n := 1; n <= 60; n++ {
		quote, err := ComputeTotalPrice(start, start.AddDate(0, 0, n), rate)
		require.NoError(t, err)
		assert.Equal(t, n, quote.Days)
		assert.Greater(t, quote.Total.Amount, previous)
		previous = quote.Total.Amount
	}
}
