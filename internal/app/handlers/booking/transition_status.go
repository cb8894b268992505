package booking

import (
	"context"
	"fmt"
	"log/slog"

	"apexrentals/internal/app/commands"
	"apexrentals/internal/app/dto"
	"apexrentals/internal/app/outbox"
	"apexrentals/internal/app/uow"
	domainbooking "apexrentals/internal/domain/booking"
	domainuser "apexrentals/internal/domain/user"
)

const transitionStatusKey = "booking.transition"

type TransitionStatusCommand struct {
	BookingID string          `json:"booking_id" validate:"required"`
	ActorID   string          `json:"actor_id" validate:"required"`
	ActorRole domainuser.Role `json:"-"`
	Status    string          `json:"status" validate:"required"`
}

func (c TransitionStatusCommand) Key() string { return transitionStatusKey }

type TransitionStatusHandler struct {
	UoWFactory uow.UoWFactory
	Events     outbox.Recorder
	Cache      WindowCache
	Clock      Clock
	Logger     *slog.Logger
}

func (h *TransitionStatusHandler) Handle(ctx context.Context, cmd TransitionStatusCommand) (*dto.Booking, error) {
	target, err := domainbooking.ParseStatus(cmd.Status)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domainbooking.ErrInvalidTransition, err)
	}
	now := h.Clock.now()
	actor := domainbooking.Actor{ID: domainuser.ID(cmd.ActorID), Role: cmd.ActorRole}

	var from domainbooking.Status
	updated, err := uow.Run(ctx, h.UoWFactory, uow.TxOptions{}, func(ctx context.Context, unit uow.UnitOfWork) (*domainbooking.Booking, error) {
		b, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(cmd.BookingID))
		if err != nil {
			return nil, err
		}
		from = b.Status
		if err := b.Transition(actor, target, now); err != nil {
			return nil, err
		}
		if err := unit.Bookings().Save(ctx, b); err != nil {
			return nil, err
		}
		if err := h.Events.Record(ctx, b.Drain()); err != nil {
			return nil, err
		}
		return b, nil
	})
	if err != nil {
		return nil, err
	}

	invalidate(ctx, h.Cache, h.Logger, updated.AssetID)
	if h.Logger != nil {
		h.Logger.Info("booking status changed", "booking_id", updated.ID, "from", from, "to", updated.Status, "actor_id", actor.ID)
	}
	result := dto.MapBooking(updated)
	return &result, nil
}

var _ commands.Handler[TransitionStatusCommand, *dto.Booking] = (*TransitionStatusHandler)(nil)
