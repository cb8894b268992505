package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	goredis "github.com/redis/go-redis/v9"

	domainassets "apexrentals/internal/domain/assets"
	domainbooking "apexrentals/internal/domain/booking"
	"apexrentals/internal/domain/shared/daterange"
)

const keyPrefix = "apexrentals:windows:"

// Options describe how to reach Redis.
type Options struct {
	Addr     string
	Password string
	DB       int
}

// Connect opens a client and pings it once.
func Connect(ctx context.Context, opts Options) (*goredis.Client, error) {
	if strings.TrimSpace(opts.Addr) == "" {
		return nil, errors.New("redis: address is required")
	}
	client := goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}
	return client, nil
}

// WindowCache stores the blocking windows of an asset as one JSON value per
// asset. It only serves the advisory availability query.
type WindowCache struct {
	client goredis.Cmdable
	ttl    time.Duration
}

func NewWindowCache(client goredis.Cmdable, ttl time.Duration) *WindowCache {
	return &WindowCache{client: client, ttl: ttl}
}

type windowRecord struct {
	BookingID string `json:"booking_id"`
	Start     string `json:"start"`
	End       string `json:"end"`
	Status    string `json:"status"`
}

func (c *WindowCache) Windows(ctx context.Context, assetID domainassets.AssetID) ([]domainbooking.Window, bool, error) {
	raw, err := c.client.Get(ctx, Key(assetID)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis: get windows: %w", err)
	}
	windows, err := decodeWindows(raw)
	if err != nil {
		// a corrupt entry is treated as a miss and dropped
		_ = c.client.Del(ctx, Key(assetID)).Err()
		return nil, false, nil
	}
	return windows, true, nil
}

func (c *WindowCache) StoreWindows(ctx context.Context, assetID domainassets.AssetID, windows []domainbooking.Window) error {
	if c.ttl <= 0 {
		return nil
	}
	payload, err := encodeWindows(windows)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, Key(assetID), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis: store windows: %w", err)
	}
	return nil
}

func (c *WindowCache) Invalidate(ctx context.Context, assetID domainassets.AssetID) error {
	if err := c.client.Del(ctx, Key(assetID)).Err(); err != nil {
		return fmt.Errorf("redis: invalidate windows: %w", err)
	}
	return nil
}

// Ping backs the readiness check.
func (c *WindowCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func Key(assetID domainassets.AssetID) string {
	return keyPrefix + string(assetID)
}

func encodeWindows(windows []domainbooking.Window) ([]byte, error) {
	records := make([]windowRecord, 0, len(windows))
	for _, w := range windows {
		records = append(records, windowRecord{
			BookingID: string(w.BookingID),
			Start:     w.Range.Start.Format(daterange.DateLayout),
			End:       w.Range.End.Format(daterange.DateLayout),
			Status:    string(w.Status),
		})
	}
	return json.Marshal(records)
}

func decodeWindows(raw []byte) ([]domainbooking.Window, error) {
	var records []windowRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, err
	}
	windows := make([]domainbooking.Window, 0, len(records))
	for _, rec := range records {
		start, err := daterange.Parse(rec.Start)
		if err != nil {
			return nil, err
		}
		end, err := daterange.Parse(rec.End)
		if err != nil {
			return nil, err
		}
		rng, err := daterange.New(start, end)
		if err != nil {
			return nil, err
		}
		status, err := domainbooking.ParseStatus(rec.Status)
		if err != nil {
			return nil, err
		}
		windows = append(windows, domainbooking.Window{
			BookingID: domainbooking.BookingID(rec.BookingID),
			Range:     rng,
			Status:    status,
		})
	}
	return windows, nil
}
