package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/IBM/sarama"

	domainassets "apexrentals/internal/domain/assets"
)

// Inbox records which events a consumer has already applied.
type Inbox interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	Forget(ctx context.Context, eventID string) error
}

type Invalidator interface {
	Invalidate(ctx context.Context, assetID domainassets.AssetID) error
}

// CacheInvalidator drops cached availability windows when booking or asset
// events arrive from other instances.
type CacheInvalidator struct {
	Cache  Invalidator
	Inbox  Inbox
	Logger *slog.Logger
}

type cloudEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		AssetID string `json:"AssetID"`
	} `json:"data"`
}

func (h *CacheInvalidator) Handle(ctx context.Context, msg *sarama.ConsumerMessage) error {
	var evt cloudEvent
	if err := json.Unmarshal(msg.Value, &evt); err != nil {
		// poison message; acknowledge it so the partition moves on
		h.log().Warn("kafka event undecodable", "topic", msg.Topic, "offset", msg.Offset, "error", err)
		return nil
	}
	if !relevant(evt.Type) || evt.Data.AssetID == "" {
		return nil
	}
	if h.Inbox != nil && evt.ID != "" {
		seen, err := h.Inbox.Seen(ctx, evt.ID)
		if err != nil {
			return fmt.Errorf("kafka: inbox: %w", err)
		}
		if seen {
			return nil
		}
	}
	if err := h.Cache.Invalidate(ctx, domainassets.AssetID(evt.Data.AssetID)); err != nil {
		if h.Inbox != nil && evt.ID != "" {
			_ = h.Inbox.Forget(ctx, evt.ID)
		}
		return err
	}
	h.log().Debug("availability cache invalidated", "asset_id", evt.Data.AssetID, "event", evt.Type, "event_id", evt.ID)
	return nil
}

// Topics lists the topics carrying events that touch availability.
func Topics(prefix string) []string {
	return []string{prefix + "booking.events.v1", prefix + "asset.events.v1"}
}

func relevant(eventType string) bool {
	return strings.HasPrefix(eventType, "booking.") || strings.HasPrefix(eventType, "asset.")
}

func (h *CacheInvalidator) log() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}
