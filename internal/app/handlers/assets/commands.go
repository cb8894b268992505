package assets

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"apexrentals/internal/app/commands"
	"apexrentals/internal/app/dto"
	"apexrentals/internal/app/middleware"
	"apexrentals/internal/app/outbox"
	"apexrentals/internal/app/uow"
	domainassets "apexrentals/internal/domain/assets"
	domainbooking "apexrentals/internal/domain/booking"
	"apexrentals/internal/domain/shared/money"
	domainuser "apexrentals/internal/domain/user"
)

const (
	createAssetKey = "assets.create"
	updateAssetKey = "assets.update"
	deleteAssetKey = "assets.delete"
)

type CreateAssetCommand struct {
	AssetID     string          `json:"asset_id"`
	OwnerID     string          `json:"owner_id" validate:"required"`
	OwnerRole   domainuser.Role `json:"-"`
	Title       string          `json:"title" validate:"required,max=200"`
	Description string          `json:"description" validate:"max=5000"`
	Category    string          `json:"category" validate:"required,oneof=yacht car jet other"`
	Brand       string          `json:"brand"`
	Model       string          `json:"model"`
	Year        int             `json:"year" validate:"omitempty,min=1900,max=2100"`
	Capacity    int             `json:"capacity" validate:"min=0"`
	PricePerDay float64         `json:"price_per_day" validate:"gt=0"`
	Currency    string          `json:"currency" validate:"omitempty,len=3"`
	Location    string          `json:"location" validate:"required"`
	Latitude    *float64        `json:"latitude" validate:"omitempty,min=-90,max=90"`
	Longitude   *float64        `json:"longitude" validate:"omitempty,min=-180,max=180"`
}

func (c CreateAssetCommand) Key() string                { return createAssetKey }
func (c CreateAssetCommand) ActorRole() domainuser.Role { return c.OwnerRole }
func (c CreateAssetCommand) AllowedRoles() []domainuser.Role {
	return []domainuser.Role{domainuser.RoleOwner}
}

type CreateAssetHandler struct {
	UoWFactory uow.UoWFactory
	Events     outbox.Recorder
	Currency   string
	Now        func() time.Time
	Logger     *slog.Logger
}

func (h *CreateAssetHandler) Handle(ctx context.Context, cmd CreateAssetCommand) (*dto.Asset, error) {
	currency := cmd.Currency
	if currency == "" {
		currency = h.Currency
	}
	rate, err := money.RateFromDecimal(cmd.PricePerDay, currency)
	if err != nil {
		return nil, err
	}
	id := strings.TrimSpace(cmd.AssetID)
	if id == "" {
		id = uuid.NewString()
	}

	asset, err := uow.Run(ctx, h.UoWFactory, uow.TxOptions{}, func(ctx context.Context, unit uow.UnitOfWork) (*domainassets.Asset, error) {
		asset, err := domainassets.NewAsset(domainassets.CreateParams{
			ID:          domainassets.AssetID(id),
			Owner:       domainassets.OwnerID(cmd.OwnerID),
			Title:       cmd.Title,
			Description: cmd.Description,
			Category:    domainassets.Category(cmd.Category),
			Brand:       cmd.Brand,
			Model:       cmd.Model,
			Year:        cmd.Year,
			Capacity:    cmd.Capacity,
			PricePerDay: rate,
			Location:    cmd.Location,
			Latitude:    cmd.Latitude,
			Longitude:   cmd.Longitude,
			Now:         now(h.Now),
		})
		if err != nil {
			return nil, err
		}
		if err := unit.Assets().Save(ctx, asset); err != nil {
			return nil, err
		}
		if err := h.Events.Record(ctx, asset.Drain()); err != nil {
			return nil, err
		}
		return asset, nil
	})
	if err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.Info("asset listed", "asset_id", asset.ID, "owner_id", asset.Owner, "category", asset.Category)
	}
	result := dto.MapAsset(asset)
	return &result, nil
}

// UpdateAssetCommand applies the non-nil fields. Only the owner or an admin
// may change an asset.
type UpdateAssetCommand struct {
	AssetID     string          `json:"asset_id" validate:"required"`
	ActorID     string          `json:"actor_id" validate:"required"`
	ActorRole   domainuser.Role `json:"-"`
	Title       *string         `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string         `json:"description" validate:"omitempty,max=5000"`
	Category    *string         `json:"category" validate:"omitempty,oneof=yacht car jet other"`
	Brand       *string         `json:"brand"`
	Model       *string         `json:"model"`
	Year        *int            `json:"year" validate:"omitempty,min=1900,max=2100"`
	Capacity    *int            `json:"capacity" validate:"omitempty,min=0"`
	PricePerDay *float64        `json:"price_per_day" validate:"omitempty,gt=0"`
	Location    *string         `json:"location"`
	Latitude    *float64        `json:"latitude" validate:"omitempty,min=-90,max=90"`
	Longitude   *float64        `json:"longitude" validate:"omitempty,min=-180,max=180"`
	Available   *bool           `json:"available"`
}

func (c UpdateAssetCommand) Key() string { return updateAssetKey }

type UpdateAssetHandler struct {
	UoWFactory uow.UoWFactory
	Events     outbox.Recorder
	Now        func() time.Time
	Logger     *slog.Logger
}

func (h *UpdateAssetHandler) Handle(ctx context.Context, cmd UpdateAssetCommand) (*dto.Asset, error) {
	asset, err := uow.Run(ctx, h.UoWFactory, uow.TxOptions{}, func(ctx context.Context, unit uow.UnitOfWork) (*domainassets.Asset, error) {
		asset, err := loadForActor(ctx, unit, cmd.AssetID, cmd.ActorID, cmd.ActorRole)
		if err != nil {
			return nil, err
		}
		params := domainassets.UpdateParams{
			Title:       cmd.Title,
			Description: cmd.Description,
			Brand:       cmd.Brand,
			Model:       cmd.Model,
			Year:        cmd.Year,
			Capacity:    cmd.Capacity,
			Location:    cmd.Location,
			Latitude:    cmd.Latitude,
			Longitude:   cmd.Longitude,
			Available:   cmd.Available,
			Now:         now(h.Now),
		}
		if cmd.Category != nil {
			category := domainassets.Category(*cmd.Category)
			params.Category = &category
		}
		if cmd.PricePerDay != nil {
			rate, err := money.RateFromDecimal(*cmd.PricePerDay, asset.PricePerDay.Currency)
			if err != nil {
				return nil, err
			}
			params.PricePerDay = &rate
		}
		if err := asset.Update(params); err != nil {
			return nil, err
		}
		if err := unit.Assets().Save(ctx, asset); err != nil {
			return nil, err
		}
		if err := h.Events.Record(ctx, asset.Drain()); err != nil {
			return nil, err
		}
		return asset, nil
	})
	if err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.Info("asset updated", "asset_id", asset.ID, "actor_id", cmd.ActorID, "available", asset.Available)
	}
	result := dto.MapAsset(asset)
	return &result, nil
}

// DeleteAssetCommand removes an asset that has no pending or confirmed bookings.
type DeleteAssetCommand struct {
	AssetID   string          `json:"asset_id" validate:"required"`
	ActorID   string          `json:"actor_id" validate:"required"`
	ActorRole domainuser.Role `json:"-"`
}

func (c DeleteAssetCommand) Key() string { return deleteAssetKey }

type DeleteAssetResult struct {
	AssetID string `json:"asset_id"`
	Deleted bool   `json:"deleted"`
}

type DeleteAssetHandler struct {
	UoWFactory uow.UoWFactory
	Events     outbox.Recorder
	Now        func() time.Time
	Logger     *slog.Logger
}

func (h *DeleteAssetHandler) Handle(ctx context.Context, cmd DeleteAssetCommand) (*DeleteAssetResult, error) {
	_, err := uow.Run(ctx, h.UoWFactory, uow.TxOptions{}, func(ctx context.Context, unit uow.UnitOfWork) (struct{}, error) {
		asset, err := loadForActor(ctx, unit, cmd.AssetID, cmd.ActorID, cmd.ActorRole)
		if err != nil {
			return struct{}{}, err
		}
		active, err := unit.Bookings().WindowsByAsset(ctx, asset.ID, domainbooking.BlockingStatuses())
		if err != nil {
			return struct{}{}, err
		}
		if len(active) > 0 {
			return struct{}{}, domainassets.ErrActiveBookings
		}
		asset.Retire(now(h.Now))
		if err := unit.Assets().Delete(ctx, asset.ID); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, h.Events.Record(ctx, asset.Drain())
	})
	if err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.Info("asset deleted", "asset_id", cmd.AssetID, "actor_id", cmd.ActorID)
	}
	return &DeleteAssetResult{AssetID: cmd.AssetID, Deleted: true}, nil
}

func loadForActor(ctx context.Context, unit uow.UnitOfWork, assetID, actorID string, role domainuser.Role) (*domainassets.Asset, error) {
	asset, err := unit.Assets().ByID(ctx, domainassets.AssetID(assetID))
	if err != nil {
		return nil, err
	}
	if role == domainuser.RoleAdmin {
		return asset, nil
	}
	if err := asset.EnsureOwnedBy(domainassets.OwnerID(actorID)); err != nil {
		return nil, err
	}
	return asset, nil
}

func now(clock func() time.Time) time.Time {
	if clock == nil {
		return time.Now().UTC()
	}
	return clock().UTC()
}

var (
	_ commands.Handler[CreateAssetCommand, *dto.Asset]         = (*CreateAssetHandler)(nil)
	_ commands.Handler[UpdateAssetCommand, *dto.Asset]         = (*UpdateAssetHandler)(nil)
	_ commands.Handler[DeleteAssetCommand, *DeleteAssetResult] = (*DeleteAssetHandler)(nil)
	_ middleware.RoleRestricted                                = CreateAssetCommand{}
)
