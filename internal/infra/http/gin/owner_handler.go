package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"apexrentals/internal/app/dto"
	assetsapp "apexrentals/internal/app/handlers/assets"
	earningsapp "apexrentals/internal/app/handlers/earnings"
	"apexrentals/internal/app/queries"
	domainuser "apexrentals/internal/domain/user"
)

type OwnerHTTP interface {
	Assets(c *gin.Context)
	Earnings(c *gin.Context)
}

type OwnerHandler struct {
	Queries queries.Bus
	Logger  *slog.Logger
}

func (h OwnerHandler) Assets(c *gin.Context) {
	owner, ok := requireRole(c, domainuser.RoleOwner)
	if !ok {
		return
	}
	if h.Queries == nil {
		unavailable(c, "queries")
		return
	}
	query := assetsapp.OwnerAssetsQuery{
		OwnerID: owner.ID,
		Limit:   parseIntWithDefault(c.Query("limit"), 50),
		Offset:  parseInt(c.Query("offset")),
	}
	result, err := queries.Ask[assetsapp.OwnerAssetsQuery, dto.AssetCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h OwnerHandler) Earnings(c *gin.Context) {
	owner, ok := requireRole(c, domainuser.RoleOwner)
	if !ok {
		return
	}
	if h.Queries == nil {
		unavailable(c, "queries")
		return
	}
	query := earningsapp.OwnerEarningsQuery{OwnerID: owner.ID, OwnerRole: owner.Role}
	result, err := queries.Ask[earningsapp.OwnerEarningsQuery, dto.Earnings](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ OwnerHTTP = OwnerHandler{}
