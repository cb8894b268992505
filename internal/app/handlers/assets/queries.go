package assets

import (
	"context"

	"apexrentals/internal/app/dto"
	"apexrentals/internal/app/queries"
	"apexrentals/internal/app/uow"
	domainassets "apexrentals/internal/domain/assets"
	"apexrentals/internal/domain/shared/money"
)

const (
	getAssetKey     = "assets.get"
	searchAssetsKey = "assets.search"
	ownerAssetsKey  = "assets.owner"
)

type GetAssetQuery struct {
	AssetID string `json:"asset_id" validate:"required"`
}

func (q GetAssetQuery) Key() string { return getAssetKey }

type GetAssetHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *GetAssetHandler) Handle(ctx context.Context, q GetAssetQuery) (dto.Asset, error) {
	asset, err := uow.Run(ctx, h.UoWFactory, uow.TxOptions{ReadOnly: true}, func(ctx context.Context, unit uow.UnitOfWork) (*domainassets.Asset, error) {
		return unit.Assets().ByID(ctx, domainassets.AssetID(q.AssetID))
	})
	if err != nil {
		return dto.Asset{}, err
	}
	return dto.MapAsset(asset), nil
}

// SearchAssetsQuery is the public catalogue. Only available assets are listed
// unless IncludeUnavailable is set.
type SearchAssetsQuery struct {
	Category           string   `json:"type" validate:"omitempty,oneof=yacht car jet other"`
	Location           string   `json:"location"`
	MinPrice           *float64 `json:"min_price" validate:"omitempty,min=0"`
	MaxPrice           *float64 `json:"max_price" validate:"omitempty,min=0"`
	IncludeUnavailable bool     `json:"include_unavailable"`
	Limit              int      `json:"limit" validate:"min=0,max=200"`
	Offset             int      `json:"offset" validate:"min=0"`
}

func (q SearchAssetsQuery) Key() string { return searchAssetsKey }

type SearchAssetsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *SearchAssetsHandler) Handle(ctx context.Context, q SearchAssetsQuery) (dto.AssetCollection, error) {
	params := domainassets.SearchParams{
		Category:      domainassets.Category(q.Category),
		LocationQuery: q.Location,
		PriceMinUnits: priceUnits(q.MinPrice),
		PriceMaxUnits: priceUnits(q.MaxPrice),
		OnlyAvailable: !q.IncludeUnavailable,
		Limit:         q.Limit,
		Offset:        q.Offset,
	}.Normalized()
	return search(ctx, h.UoWFactory, params)
}

type OwnerAssetsQuery struct {
	OwnerID string `json:"owner_id" validate:"required"`
	Limit   int    `json:"limit" validate:"min=0,max=200"`
	Offset  int    `json:"offset" validate:"min=0"`
}

func (q OwnerAssetsQuery) Key() string { return ownerAssetsKey }

type OwnerAssetsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *OwnerAssetsHandler) Handle(ctx context.Context, q OwnerAssetsQuery) (dto.AssetCollection, error) {
	params := domainassets.SearchParams{
		Owner:  domainassets.OwnerID(q.OwnerID),
		Limit:  q.Limit,
		Offset: q.Offset,
	}.Normalized()
	return search(ctx, h.UoWFactory, params)
}

func search(ctx context.Context, factory uow.UoWFactory, params domainassets.SearchParams) (dto.AssetCollection, error) {
	found, err := uow.Run(ctx, factory, uow.TxOptions{ReadOnly: true}, func(ctx context.Context, unit uow.UnitOfWork) ([]*domainassets.Asset, error) {
		return unit.Assets().Search(ctx, params)
	})
	if err != nil {
		return dto.AssetCollection{}, err
	}
	return dto.AssetCollection{Items: dto.MapAssets(found), Limit: params.Limit, Offset: params.Offset}, nil
}

func priceUnits(v *float64) int64 {
	if v == nil || *v <= 0 {
		return 0
	}
	rate, err := money.RateFromDecimal(*v, money.DefaultCurrency)
	if err != nil {
		return 0
	}
	return rate.Units
}

var (
	_ queries.Handler[GetAssetQuery, dto.Asset]               = (*GetAssetHandler)(nil)
	_ queries.Handler[SearchAssetsQuery, dto.AssetCollection] = (*SearchAssetsHandler)(nil)
	_ queries.Handler[OwnerAssetsQuery, dto.AssetCollection]  = (*OwnerAssetsHandler)(nil)
)
