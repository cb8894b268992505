package memory

import (
	"context"
	"sync"
	"time"

	domainassets "apexrentals/internal/domain/assets"
	domainbooking "apexrentals/internal/domain/booking"
)

// WindowCache is the single-process stand-in for the Redis window cache.
type WindowCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[domainassets.AssetID]cachedWindows
}

type cachedWindows struct {
	windows []domainbooking.Window
	expires time.Time
}

func NewWindowCache(ttl time.Duration) *WindowCache {
	return &WindowCache{ttl: ttl, now: time.Now, entries: make(map[domainassets.AssetID]cachedWindows)}
}

func (c *WindowCache) Windows(ctx context.Context, assetID domainassets.AssetID) ([]domainbooking.Window, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[assetID]
	if !ok {
		return nil, false, nil
	}
	if !c.now().Before(entry.expires) {
		delete(c.entries, assetID)
		return nil, false, nil
	}
	return append([]domainbooking.Window(nil), entry.windows...), true, nil
}

func (c *WindowCache) StoreWindows(ctx context.Context, assetID domainassets.AssetID, windows []domainbooking.Window) error {
	if c.ttl <= 0 {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[assetID] = cachedWindows{windows: append([]domainbooking.Window(nil), windows...), expires: c.now().Add(c.ttl)}
	return nil
}

func (c *WindowCache) Invalidate(ctx context.Context, assetID domainassets.AssetID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, assetID)
	return nil
}
