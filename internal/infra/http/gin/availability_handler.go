package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"apexrentals/internal/app/dto"
	bookingapp "apexrentals/internal/app/handlers/booking"
	"apexrentals/internal/app/queries"
)

type AvailabilityHTTP interface {
	Check(c *gin.Context)
	Windows(c *gin.Context)
}

// AvailabilityHandler serves the public, read-only views of an asset's
// calendar.
type AvailabilityHandler struct {
	Queries queries.Bus
	Logger  *slog.Logger
}

func (h AvailabilityHandler) Check(c *gin.Context) {
	if h.Queries == nil {
		unavailable(c, "queries")
		return
	}
	assetID, ok := pathID(c)
	if !ok {
		return
	}
	start, end, err := parseDates(c.Query("start_date"), c.Query("end_date"))
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	query := bookingapp.CheckAvailabilityQuery{AssetID: assetID, StartDate: start, EndDate: end}
	result, err := queries.Ask[bookingapp.CheckAvailabilityQuery, dto.Availability](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Windows lists booking windows; ?status=pending,confirmed narrows the set.
func (h AvailabilityHandler) Windows(c *gin.Context) {
	if h.Queries == nil {
		unavailable(c, "queries")
		return
	}
	assetID, ok := pathID(c)
	if !ok {
		return
	}
	query := bookingapp.ListWindowsQuery{AssetID: assetID, Statuses: splitCSV(c.Query("status"))}
	result, err := queries.Ask[bookingapp.ListWindowsQuery, dto.BookingWindowCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ AvailabilityHTTP = AvailabilityHandler{}
