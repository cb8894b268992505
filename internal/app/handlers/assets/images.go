package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"apexrentals/internal/app/commands"
	"apexrentals/internal/app/dto"
	"apexrentals/internal/app/uow"
	domainassets "apexrentals/internal/domain/assets"
	domainuser "apexrentals/internal/domain/user"
)

const attachImageKey = "assets.images.attach"

var ErrUploaderUnavailable = errors.New("assets: image storage is not configured")

// ImageStore puts an object into storage and returns its public URL.
type ImageStore interface {
	Upload(ctx context.Context, key string, reader io.Reader, contentType string) (string, error)
}

type AttachImageCommand struct {
	AssetID     string          `json:"asset_id" validate:"required"`
	ActorID     string          `json:"actor_id" validate:"required"`
	ActorRole   domainuser.Role `json:"-"`
	FileName    string          `json:"file_name" validate:"required"`
	ContentType string          `json:"content_type" validate:"required"`
	Primary     bool            `json:"primary"`
	Reader      io.Reader       `json:"-"`
}

func (c AttachImageCommand) Key() string { return attachImageKey }

type AttachImageHandler struct {
	UoWFactory uow.UoWFactory
	Store      ImageStore
	Now        func() time.Time
	Logger     *slog.Logger
}

func (h *AttachImageHandler) Handle(ctx context.Context, cmd AttachImageCommand) (*dto.Asset, error) {
	if h.Store == nil {
		return nil, ErrUploaderUnavailable
	}
	if cmd.Reader == nil {
		return nil, domainassets.ErrImageURLRequired
	}
	if !strings.HasPrefix(strings.ToLower(cmd.ContentType), "image/") {
		return nil, fmt.Errorf("%w: unsupported content type %q", domainassets.ErrImageURLRequired, cmd.ContentType)
	}
	objectKey := path.Join("assets", cmd.AssetID, uuid.NewString()+strings.ToLower(path.Ext(cmd.FileName)))

	asset, err := uow.Run(ctx, h.UoWFactory, uow.TxOptions{}, func(ctx context.Context, unit uow.UnitOfWork) (*domainassets.Asset, error) {
		asset, err := loadForActor(ctx, unit, cmd.AssetID, cmd.ActorID, cmd.ActorRole)
		if err != nil {
			return nil, err
		}
		url, err := h.Store.Upload(ctx, objectKey, cmd.Reader, cmd.ContentType)
		if err != nil {
			return nil, fmt.Errorf("upload image: %w", err)
		}
		if err := asset.AddImage(url, cmd.Primary, now(h.Now)); err != nil {
			return nil, err
		}
		if err := unit.Assets().Save(ctx, asset); err != nil {
			return nil, err
		}
		return asset, nil
	})
	if err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.Info("asset image attached", "asset_id", asset.ID, "object_key", objectKey, "primary", cmd.Primary)
	}
	result := dto.MapAsset(asset)
	return &result, nil
}

var _ commands.Handler[AttachImageCommand, *dto.Asset] = (*AttachImageHandler)(nil)
