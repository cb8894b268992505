package schedule

import (
	"context"
	"log/slog"

	"apexrentals/internal/app/commands"
	"apexrentals/internal/app/dto"
	bookinghandlers "apexrentals/internal/app/handlers/booking"
	domainuser "apexrentals/internal/domain/user"
)

// SystemActorID identifies scheduled maintenance in logs and events.
const SystemActorID = "system:scheduler"

// CleanupExpiredJob dispatches the global expired-pending purge as the system
// admin.
func CleanupExpiredJob(bus commands.Bus, logger *slog.Logger) Job {
	return func(ctx context.Context) error {
		res, err := commands.Dispatch[bookinghandlers.CleanupExpiredCommand, *dto.CleanupResult](ctx, bus, bookinghandlers.CleanupExpiredCommand{
			ActorID:   SystemActorID,
			ActorRole: domainuser.RoleAdmin,
		})
		if err != nil {
			return err
		}
		if logger != nil && res != nil && res.Deleted > 0 {
			logger.Info("scheduled cleanup removed expired bookings", "deleted", res.Deleted, "before", res.Before)
		}
		return nil
	}
}
