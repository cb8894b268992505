package ginserver

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"apexrentals/internal/app/commands"
	"apexrentals/internal/app/dto"
	assetsapp "apexrentals/internal/app/handlers/assets"
	"apexrentals/internal/app/queries"
	domainuser "apexrentals/internal/domain/user"
)

const maxAssetImageSizeBytes = 10 * 1024 * 1024

type AssetHTTP interface {
	Search(c *gin.Context)
	Get(c *gin.Context)
	Create(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
	UploadImage(c *gin.Context)
}

type AssetHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type assetRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"type"`
	Brand       string   `json:"brand"`
	Model       string   `json:"model"`
	Year        int      `json:"year"`
	Capacity    int      `json:"capacity"`
	PricePerDay float64  `json:"price_per_day"`
	Currency    string   `json:"currency"`
	Location    string   `json:"location"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
}

type assetUpdateRequest struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Category    *string  `json:"type"`
	Brand       *string  `json:"brand"`
	Model       *string  `json:"model"`
	Year        *int     `json:"year"`
	Capacity    *int     `json:"capacity"`
	PricePerDay *float64 `json:"price_per_day"`
	Location    *string  `json:"location"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	Available   *bool    `json:"available"`
}

// Search is the public catalogue: ?type=&location=&min_price=&max_price=.
func (h AssetHandler) Search(c *gin.Context) {
	if h.Queries == nil {
		unavailable(c, "queries")
		return
	}
	query := assetsapp.SearchAssetsQuery{
		Category: strings.ToLower(strings.TrimSpace(c.Query("type"))),
		Location: c.Query("location"),
		MinPrice: parseOptionalFloat(c.Query("min_price")),
		MaxPrice: parseOptionalFloat(c.Query("max_price")),
		Limit:    parseIntWithDefault(c.Query("limit"), 24),
		Offset:   parseInt(c.Query("offset")),
	}
	if p, ok := currentPrincipal(c); ok && p.Is(domainuser.RoleAdmin) {
		query.IncludeUnavailable = parseBool(c.Query("include_unavailable"))
	}
	result, err := queries.Ask[assetsapp.SearchAssetsQuery, dto.AssetCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h AssetHandler) Get(c *gin.Context) {
	if h.Queries == nil {
		unavailable(c, "queries")
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	result, err := queries.Ask[assetsapp.GetAssetQuery, dto.Asset](c.Request.Context(), h.Queries, assetsapp.GetAssetQuery{AssetID: id})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h AssetHandler) Create(c *gin.Context) {
	owner, ok := requireRole(c, domainuser.RoleOwner)
	if !ok {
		return
	}
	if h.Commands == nil {
		unavailable(c, "commands")
		return
	}
	var req assetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	cmd := assetsapp.CreateAssetCommand{
		AssetID:     uuid.NewString(),
		OwnerID:     owner.ID,
		OwnerRole:   owner.Role,
		Title:       req.Title,
		Description: req.Description,
		Category:    strings.ToLower(strings.TrimSpace(req.Category)),
		Brand:       req.Brand,
		Model:       req.Model,
		Year:        req.Year,
		Capacity:    req.Capacity,
		PricePerDay: req.PricePerDay,
		Currency:    req.Currency,
		Location:    req.Location,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
	}
	result, err := commands.Dispatch[assetsapp.CreateAssetCommand, *dto.Asset](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h AssetHandler) Update(c *gin.Context) {
	actor, ok := requireRole(c, domainuser.RoleOwner, domainuser.RoleAdmin)
	if !ok {
		return
	}
	if h.Commands == nil {
		unavailable(c, "commands")
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req assetUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	cmd := assetsapp.UpdateAssetCommand{
		AssetID:     id,
		ActorID:     actor.ID,
		ActorRole:   actor.Role,
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Brand:       req.Brand,
		Model:       req.Model,
		Year:        req.Year,
		Capacity:    req.Capacity,
		PricePerDay: req.PricePerDay,
		Location:    req.Location,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		Available:   req.Available,
	}
	result, err := commands.Dispatch[assetsapp.UpdateAssetCommand, *dto.Asset](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h AssetHandler) Delete(c *gin.Context) {
	actor, ok := requireRole(c, domainuser.RoleOwner, domainuser.RoleAdmin)
	if !ok {
		return
	}
	if h.Commands == nil {
		unavailable(c, "commands")
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	cmd := assetsapp.DeleteAssetCommand{AssetID: id, ActorID: actor.ID, ActorRole: actor.Role}
	if _, err := commands.Dispatch[assetsapp.DeleteAssetCommand, *assetsapp.DeleteAssetResult](c.Request.Context(), h.Commands, cmd); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// UploadImage accepts a multipart "file" field; ?primary=true makes it the
// cover image.
func (h AssetHandler) UploadImage(c *gin.Context) {
	actor, ok := requireRole(c, domainuser.RoleOwner, domainuser.RoleAdmin)
	if !ok {
		return
	}
	if h.Commands == nil {
		unavailable(c, "commands")
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		badRequest(c, fmt.Sprintf("file is required: %v", err))
		return
	}
	if fileHeader.Size > maxAssetImageSizeBytes {
		badRequest(c, fmt.Sprintf("file too large (max %d MB)", maxAssetImageSizeBytes/1024/1024))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxAssetImageSizeBytes+1))
	if err != nil {
		respondError(c, h.Logger, fmt.Errorf("read upload: %w", err))
		return
	}
	if len(data) == 0 {
		badRequest(c, "file is empty")
		return
	}
	if len(data) > maxAssetImageSizeBytes {
		badRequest(c, fmt.Sprintf("file too large (max %d MB)", maxAssetImageSizeBytes/1024/1024))
		return
	}
	contentType := http.DetectContentType(data)
	if !isAllowedImageType(contentType) {
		badRequest(c, "unsupported content type: "+contentType)
		return
	}

	primary := parseBool(c.Query("primary"))
	if v, ok := c.GetPostForm("primary"); ok {
		primary = parseBool(v)
	}
	cmd := assetsapp.AttachImageCommand{
		AssetID:     id,
		ActorID:     actor.ID,
		ActorRole:   actor.Role,
		FileName:    fileHeader.Filename,
		ContentType: contentType,
		Primary:     primary,
		Reader:      bytes.NewReader(data),
	}
	result, err := commands.Dispatch[assetsapp.AttachImageCommand, *dto.Asset](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func isAllowedImageType(contentType string) bool {
	switch strings.ToLower(contentType) {
	case "image/jpeg", "image/png", "image/webp", "image/gif":
		return true
	default:
		return false
	}
}

var _ AssetHTTP = AssetHandler{}
