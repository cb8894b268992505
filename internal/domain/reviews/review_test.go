package reviews

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"apexrentals/internal/domain/booking"
	"apexrentals/internal/domain/shared/daterange"
	"apexrentals/internal/domain/shared/money"
)

func completedBooking(t *testing.T) *booking.Booking {
	t.Helper()
	dr, err := daterange.New(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	b, err := booking.NewBooking(booking.CreateParams{
		ID: "bk-1", AssetID: "car-1", OwnerID: "owner-1", ClientID: "client-1",
		Range: dr, PricePerDay: money.MustRate(200, "USD"),
	})
	require.NoError(t, err)
	b.Status = booking.StatusCompleted
	return b
}

func TestSubmitRules(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*SubmitParams)
		want   error
	}{
		{name: "valid asset review", mutate: func(*SubmitParams) {}},
		{name: "rating too high", mutate: func(p *SubmitParams) { p.Rating = 6 }, want: ErrInvalidRating},
		{name: "rating zero", mutate: func(p *SubmitParams) { p.Rating = 0 }, want: ErrInvalidRating},
		{name: "bad type", mutate: func(p *SubmitParams) { p.Type = "listing" }, want: ErrInvalidType},
		{name: "not completed", mutate: func(p *SubmitParams) { p.Booking.Status = booking.StatusConfirmed }, want: ErrBookingNotCompleted},
		{name: "stranger", mutate: func(p *SubmitParams) { p.ReviewerID = "stranger" }, want: ErrNotParticipant},
		{name: "self", mutate: func(p *SubmitParams) { p.RevieweeID = p.ReviewerID }, want: ErrSelfReview},
		{name: "reviewee outside booking", mutate: func(p *SubmitParams) { p.RevieweeID = "stranger" }, want: ErrInvalidReviewee},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := SubmitParams{
				ID:         "rv-1",
				Booking:    completedBooking(t),
				ReviewerID: "client-1",
				RevieweeID: "owner-1",
				Type:       TypeAsset,
				Rating:     5,
				Comment:    " superb ",
			}
			tt.mutate(&params)
			review, err := Submit(params)
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "superb", review.Comment)
			assert.Equal(t, Key{BookingID: "bk-1", ReviewerID: "client-1", RevieweeID: "owner-1", Type: TypeAsset}, review.Key())
		})
	}
}

func TestAverageRating(t *testing.T) {
	assert.Equal(t, 0.0, AverageRating(nil))
	list := []*Review{{Rating: 5}, {Rating: 4}, {Rating: 4}}
	assert.Equal(t, 4.3, AverageRating(list))
}

func TestCandidatesFollowParticipantRole(t *testing.T) {
	b := completedBooking(t)

	client, err := Candidates(b, "client-1")
	require.NoError(t, err)
	assert.Equal(t, []Key{
		{BookingID: "bk-1", ReviewerID: "client-1", RevieweeID: "owner-1", Type: TypeUser},
		{BookingID: "bk-1", ReviewerID: "client-1", RevieweeID: "owner-1", Type: TypeAsset},
	}, client)

	owner, err := Candidates(b, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, []Key{{BookingID: "bk-1", ReviewerID: "owner-1", RevieweeID: "client-1", Type: TypeUser}}, owner)

	_, err = Candidates(b, "stranger")
	assert.ErrorIs(t, err, ErrNotParticipant)

	b.Status = booking.StatusConfirmed
	_, err = Candidates(b, "client-1")
	assert.ErrorIs(t, err, ErrBookingNotCompleted)
}

func TestOfTypeKeepsOrder(t *testing.T) {
	list := []*Review{
		{ID: "a", Type: TypeUser},
		{ID: "b", Type: TypeAsset},
		{ID: "c", Type: TypeUser},
	}
	got := OfType(list, TypeUser)
	require.Len(t, got, 2)
	assert.Equal(t, ReviewID("a"), got[0].ID)
	assert.Equal(t, ReviewID("c"), got[1].ID)
}
