package booking

import (
	"context"
	"sort"

	"apexrentals/internal/app/dto"
	"apexrentals/internal/app/queries"
	"apexrentals/internal/app/uow"
	domainbooking "apexrentals/internal/domain/booking"
	domainuser "apexrentals/internal/domain/user"
)

const (
	getBookingKey = "booking.get"
	myBookingsKey = "booking.mine"
)

// GetBookingQuery is answered for the booking's participants and admins.
type GetBookingQuery struct {
	BookingID  string          `json:"booking_id" validate:"required"`
	ViewerID   string          `json:"viewer_id" validate:"required"`
	ViewerRole domainuser.Role `json:"-"`
}

func (q GetBookingQuery) Key() string { return getBookingKey }

type GetBookingHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *GetBookingHandler) Handle(ctx context.Context, q GetBookingQuery) (dto.Booking, error) {
	b, err := uow.Run(ctx, h.UoWFactory, uow.TxOptions{ReadOnly: true}, func(ctx context.Context, unit uow.UnitOfWork) (*domainbooking.Booking, error) {
		return unit.Bookings().ByID(ctx, domainbooking.BookingID(q.BookingID))
	})
	if err != nil {
		return dto.Booking{}, err
	}
	if q.ViewerRole != domainuser.RoleAdmin && !b.IsParticipant(domainuser.ID(q.ViewerID)) {
		return dto.Booking{}, domainbooking.ErrNotAuthorized
	}
	return dto.MapBooking(b), nil
}

type MyBookingsQuery struct {
	UserID string `json:"user_id" validate:"required"`
}

func (q MyBookingsQuery) Key() string { return myBookingsKey }

type MyBookingsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *MyBookingsHandler) Handle(ctx context.Context, q MyBookingsQuery) (dto.MyBookings, error) {
	userID := domainuser.ID(q.UserID)
	type lists struct {
		made, received []*domainbooking.Booking
	}
	res, err := uow.Run(ctx, h.UoWFactory, uow.TxOptions{ReadOnly: true}, func(ctx context.Context, unit uow.UnitOfWork) (lists, error) {
		made, err := unit.Bookings().ListByClient(ctx, userID)
		if err != nil {
			return lists{}, err
		}
		received, err := unit.Bookings().ListByOwner(ctx, userID)
		if err != nil {
			return lists{}, err
		}
		return lists{made: made, received: received}, nil
	})
	if err != nil {
		return dto.MyBookings{}, err
	}
	newestFirst(res.made)
	newestFirst(res.received)
	return dto.MyBookings{Made: dto.MapBookings(res.made), Received: dto.MapBookings(res.received)}, nil
}

func newestFirst(list []*domainbooking.Booking) {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
}

var _ queries.Handler[GetBookingQuery, dto.Booking] = (*GetBookingHandler)(nil)
var _ queries.Handler[MyBookingsQuery, dto.MyBookings] = (*MyBookingsHandler)(nil)
