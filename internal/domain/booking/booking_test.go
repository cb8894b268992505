package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"apexrentals/internal/domain/shared/daterange"
	"apexrentals/internal/domain/shared/money"
	"apexrentals/internal/domain/user"
)

const (
	ownerID  user.ID = "owner-1"
	clientID user.ID = "client-1"
)

func newTestBooking(t *testing.T, start, end string) *Booking {
	t.Helper()
	dr, err := daterange.New(day(t, start), day(t, end))
	require.NoError(t, err)
	b, err := NewBooking(CreateParams{
		ID:          "bk-1",
		AssetID:     "yacht-1",
		OwnerID:     ownerID,
		ClientID:    clientID,
		Range:       dr,
		PricePerDay: money.MustRate(500, "USD"),
		CreatedAt:   day(t, "2024-05-20"),
	})
	require.NoError(t, err)
	return b
}

func TestNewBookingStartsPendingWithFixedTotal(t *testing.T) {
	b := newTestBooking(t, "2024-06-01", "2024-06-04")

	assert.Equal(t, StatusPending, b.Status)
	assert.Equal(t, 3, b.Days)
	assert.Equal(t, money.Must(150000, "USD"), b.Total)

	pending := b.PendingEvents()
	require.Len(t, pending, 1)
	assert.Equal(t, "booking.requested", pending[0].EventName())
}

func TestNewBookingValidation(t *testing.T) {
	dr, err := daterange.New(day(t, "2024-06-01"), day(t, "2024-06-02"))
	require.NoError(t, err)
	base := CreateParams{ID: "bk", AssetID: "a", OwnerID: ownerID, ClientID: clientID, Range: dr, PricePerDay: money.MustRate(10, "USD")}

	missingClient := base
	missingClient.ClientID = ""
	_, err = NewBooking(missingClient)
	assert.ErrorIs(t, err, ErrClientRequired)

	self := base
	self.ClientID = ownerID
	_, err = NewBooking(self)
	assert.ErrorIs(t, err, ErrSelfBooking)

	free := base
	free.PricePerDay = money.Rate{Currency: "USD"}
	_, err = NewBooking(free)
	assert.ErrorIs(t, err, ErrInvalidPrice)

	empty := base
	empty.Range = daterange.DateRange{}
	_, err = NewBooking(empty)
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus(" Confirmed ")
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, s)

	_, err = ParseStatus("checked_in")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestTransitionTable(t *testing.T) {
	owner := Actor{ID: ownerID, Role: user.RoleOwner}
	client := Actor{ID: clientID, Role: user.RoleClient}
	afterEnd := time.Date(2024, 6, 5, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		from  Status
		to    Status
		actor Actor
		want  error
	}{
		{name: "owner confirms", from: StatusPending, to: StatusConfirmed, actor: owner},
		{name: "client cannot confirm", from: StatusPending, to: StatusConfirmed, actor: client, want: ErrInvalidTransition},
		{name: "owner rejects", from: StatusPending, to: StatusCancelled, actor: owner},
		{name: "client cancels pending", from: StatusPending, to: StatusCancelled, actor: client},
		{name: "client cancels confirmed", from: StatusConfirmed, to: StatusCancelled, actor: client},
		{name: "owner cannot cancel confirmed", from: StatusConfirmed, to: StatusCancelled, actor: owner, want: ErrInvalidTransition},
		{name: "owner completes after end", from: StatusConfirmed, to: StatusCompleted, actor: owner},
		{name: "client cannot complete", from: StatusConfirmed, to: StatusCompleted, actor: client, want: ErrInvalidTransition},
		{name: "pending cannot complete", from: StatusPending, to: StatusCompleted, actor: owner, want: ErrInvalidTransition},
		{name: "cancelled is terminal", from: StatusCancelled, to: StatusConfirmed, actor: owner, want: ErrInvalidTransition},
		{name: "completed is terminal", from: StatusCompleted, to: StatusCancelled, actor: client, want: ErrInvalidTransition},
		{name: "no self transition", from: StatusConfirmed, to: StatusConfirmed, actor: owner, want: ErrInvalidTransition},
		{name: "unknown target", from: StatusPending, to: Status("archived"), actor: owner, want: ErrInvalidTransition},
		{name: "stranger", from: StatusPending, to: StatusCancelled, actor: Actor{ID: "someone", Role: user.RoleClient}, want: ErrNotAuthorized},
		{name: "admin is not a participant", from: StatusPending, to: StatusConfirmed, actor: Actor{ID: "admin-1", Role: user.RoleAdmin}, want: ErrNotAuthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newTestBooking(t, "2024-06-01", "2024-06-04")
			b.Status = tt.from
			b.ClearEvents()

			err := b.Transition(tt.actor, tt.to, afterEnd)
			if tt.want != nil {
				require.ErrorIs(t, err, tt.want)
				assert.Equal(t, tt.from, b.Status)
				assert.Empty(t, b.PendingEvents())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.to, b.Status)
			pending := b.PendingEvents()
			require.Len(t, pending, 1)
			assert.Equal(t, "booking."+string(tt.to), pending[0].EventName())
		})
	}
}

func TestCompleteBeforeEndIsInvalid(t *testing.T) {
	b := newTestBooking(t, "2024-06-01", "2024-06-04")
	b.Status = StatusConfirmed
	owner := Actor{ID: ownerID, Role: user.RoleOwner}

	err := b.Transition(owner, StatusCompleted, time.Date(2024, 6, 2, 12, 0, 0, 0, time.UTC))
	require.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, StatusConfirmed, b.Status)

	err = b.Transition(owner, StatusCompleted, day(t, "2024-06-04"))
	require.ErrorIs(t, err, ErrInvalidTransition, "the end instant itself is not after the end")

	require.NoError(t, b.Transition(owner, StatusCompleted, day(t, "2024-06-04").Add(time.Second)))
	assert.Equal(t, StatusCompleted, b.Status)
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(StatusPending, StatusConfirmed))
	assert.False(t, CanTransition(StatusCompleted, StatusPending))
}
