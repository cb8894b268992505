package booking

import (
	"context"
	"log/slog"

	"apexrentals/internal/app/commands"
	"apexrentals/internal/app/dto"
	"apexrentals/internal/app/outbox"
	"apexrentals/internal/app/uow"
	domainassets "apexrentals/internal/domain/assets"
	domainbooking "apexrentals/internal/domain/booking"
	"apexrentals/internal/domain/shared/daterange"
	domainuser "apexrentals/internal/domain/user"
)

const cleanupExpiredKey = "booking.cleanup_expired"

// CleanupExpiredCommand purges pending bookings whose start day is already in
// the past. OnlyMine restricts the purge to the actor's own bookings; the
// global purge is reserved for admins.
type CleanupExpiredCommand struct {
	ActorID   string          `json:"actor_id" validate:"required"`
	ActorRole domainuser.Role `json:"-"`
	OnlyMine  bool            `json:"only_mine"`
}

func (c CleanupExpiredCommand) Key() string { return cleanupExpiredKey }

type CleanupExpiredHandler struct {
	UoWFactory uow.UoWFactory
	Events     outbox.Recorder
	Cache      WindowCache
	Clock      Clock
	Logger     *slog.Logger
}

func (h *CleanupExpiredHandler) Handle(ctx context.Context, cmd CleanupExpiredCommand) (*dto.CleanupResult, error) {
	var participant domainuser.ID
	if cmd.OnlyMine {
		participant = domainuser.ID(cmd.ActorID)
	} else if cmd.ActorRole != domainuser.RoleAdmin {
		return nil, domainbooking.ErrNotAuthorized
	}
	now := h.Clock.now()
	before := daterange.Day(now)

	purged, err := uow.Run(ctx, h.UoWFactory, uow.TxOptions{}, func(ctx context.Context, unit uow.UnitOfWork) ([]*domainbooking.Booking, error) {
		purged, err := unit.Bookings().DeleteExpiredPending(ctx, before, participant)
		if err != nil {
			return nil, err
		}
		for _, b := range purged {
			b.MarkExpired(now)
			if err := h.Events.Record(ctx, b.Drain()); err != nil {
				return nil, err
			}
		}
		return purged, nil
	})
	if err != nil {
		return nil, err
	}

	touched := make(map[domainassets.AssetID]struct{}, len(purged))
	for _, b := range purged {
		if _, ok := touched[b.AssetID]; ok {
			continue
		}
		touched[b.AssetID] = struct{}{}
		invalidate(ctx, h.Cache, h.Logger, b.AssetID)
	}
	if h.Logger != nil {
		h.Logger.Info("expired pending bookings purged", "deleted", len(purged), "before", before.Format(daterange.DateLayout), "actor_id", cmd.ActorID, "only_mine", cmd.OnlyMine)
	}
	return &dto.CleanupResult{Deleted: len(purged), Before: before.Format(daterange.DateLayout), RanAt: now}, nil
}

var _ commands.Handler[CleanupExpiredCommand, *dto.CleanupResult] = (*CleanupExpiredHandler)(nil)
