package reviews

import (
	"context"
	"log/slog"

	"apexrentals/internal/app/dto"
	"apexrentals/internal/app/queries"
	"apexrentals/internal/app/uow"
	domainassets "apexrentals/internal/domain/assets"
	domainreviews "apexrentals/internal/domain/reviews"
)

const listAssetReviewsKey = "reviews.asset.list"

// ListAssetReviewsQuery pages the asset-type reviews of an asset. Total and
// AverageRating always cover the full list.
type ListAssetReviewsQuery struct {
	AssetID string `json:"asset_id" validate:"required"`
	Limit   int    `json:"limit"`
	Offset  int    `json:"offset"`
}

func (q ListAssetReviewsQuery) Key() string { return listAssetReviewsKey }

type ListAssetReviewsHandler struct {
	UoWFactory uow.UoWFactory
	Logger     *slog.Logger
}

func (h *ListAssetReviewsHandler) Handle(ctx context.Context, q ListAssetReviewsQuery) (dto.ReviewCollection, error) {
	assetID := domainassets.AssetID(q.AssetID)
	all, err := uow.Run(ctx, h.UoWFactory, uow.TxOptions{ReadOnly: true}, func(ctx context.Context, unit uow.UnitOfWork) ([]*domainreviews.Review, error) {
		if _, err := unit.Assets().ByID(ctx, assetID); err != nil {
			return nil, err
		}
		return unit.Reviews().ListByAsset(ctx, assetID)
	})
	if err != nil {
		return dto.ReviewCollection{}, err
	}

	limit := normalizeLimit(q.Limit)
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	if offset > len(all) {
		offset = len(all)
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	items := make([]dto.Review, 0, end-offset)
	for _, review := range all[offset:end] {
		items = append(items, dto.MapReview(review))
	}

	if h.Logger != nil {
		h.Logger.Debug("asset reviews listed", "asset_id", assetID, "count", len(items), "total", len(all))
	}
	return dto.ReviewCollection{
		AssetID:       q.AssetID,
		Items:         items,
		Total:         len(all),
		AverageRating: domainreviews.AverageRating(all),
	}, nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return 20
	}
	if limit > 100 {
		return 100
	}
	return limit
}

var _ queries.Handler[ListAssetReviewsQuery, dto.ReviewCollection] = (*ListAssetReviewsHandler)(nil)
