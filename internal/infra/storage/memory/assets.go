package memory

import (
	"context"
	"sync"

	domainassets "apexrentals/internal/domain/assets"
)

// AssetRepository keeps assets in a map guarded by a RWMutex.
type AssetRepository struct {
	mu    sync.RWMutex
	items map[domainassets.AssetID]*domainassets.Asset
}

func NewAssetRepository() *AssetRepository {
	return &AssetRepository{items: make(map[domainassets.AssetID]*domainassets.Asset)}
}

func (r *AssetRepository) ByID(ctx context.Context, id domainassets.AssetID) (*domainassets.Asset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	asset, ok := r.items[id]
	if !ok {
		return nil, domainassets.ErrNotFound
	}
	return asset.Clone(), nil
}

// Save upserts the asset; a stale Version fails with ErrConcurrentUpdate.
func (r *AssetRepository) Save(ctx context.Context, asset *domainassets.Asset) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.items[asset.ID]; ok && existing.Version != asset.Version {
		return domainassets.ErrConcurrentUpdate
	}
	asset.Version++
	r.items[asset.ID] = asset.Clone()
	return nil
}

func (r *AssetRepository) Delete(ctx context.Context, id domainassets.AssetID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return domainassets.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *AssetRepository) Search(ctx context.Context, params domainassets.SearchParams) ([]*domainassets.Asset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	all := make([]*domainassets.Asset, 0, len(r.items))
	for _, asset := range r.items {
		all = append(all, asset.Clone())
	}
	r.mu.RUnlock()
	return params.Apply(all), nil
}

var _ domainassets.Repository = (*AssetRepository)(nil)
