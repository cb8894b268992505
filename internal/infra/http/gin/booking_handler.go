package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"apexrentals/internal/app/commands"
	"apexrentals/internal/app/dto"
	bookingapp "apexrentals/internal/app/handlers/booking"
	"apexrentals/internal/app/queries"
)

type BookingHTTP interface {
	Create(c *gin.Context)
	Transition(c *gin.Context)
	Get(c *gin.Context)
}

type BookingHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type createBookingRequest struct {
	AssetID        string `json:"asset_id"`
	StartDate      string `json:"start_date"`
	EndDate        string `json:"end_date"`
	SpecialRequest string `json:"special_request"`
}

type transitionRequest struct {
	Status string `json:"status"`
}

func (h BookingHandler) Create(c *gin.Context) {
	user, ok := requireRole(c)
	if !ok {
		return
	}
	if h.Commands == nil {
		unavailable(c, "commands")
		return
	}
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	start, end, err := parseDates(req.StartDate, req.EndDate)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	cmd := bookingapp.CreateBookingCommand{
		BookingID:       generateCommandID(),
		AssetID:         req.AssetID,
		ClientID:        user.ID,
		ClientRole:      user.Role,
		StartDate:       start,
		EndDate:         end,
		SpecialRequest:  req.SpecialRequest,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[bookingapp.CreateBookingCommand, *dto.Booking](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h BookingHandler) Transition(c *gin.Context) {
	user, ok := requireRole(c)
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
	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	cmd := bookingapp.TransitionStatusCommand{
		BookingID: id,
		ActorID:   user.ID,
		ActorRole: user.Role,
		Status:    req.Status,
	}
	result, err := commands.Dispatch[bookingapp.TransitionStatusCommand, *dto.Booking](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) Get(c *gin.Context) {
	user, ok := requireRole(c)
	if !ok {
		return
	}
	if h.Queries == nil {
		unavailable(c, "queries")
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	query := bookingapp.GetBookingQuery{BookingID: id, ViewerID: user.ID, ViewerRole: user.Role}
	result, err := queries.Ask[bookingapp.GetBookingQuery, dto.Booking](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func generateCommandID() string {
	return uuid.NewString()
}

var _ BookingHTTP = BookingHandler{}
