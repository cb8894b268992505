package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"apexrentals/internal/app/commands"
	"apexrentals/internal/app/dto"
	reviewsapp "apexrentals/internal/app/handlers/reviews"
	"apexrentals/internal/app/queries"
)

type ReviewsHTTP interface {
	Submit(c *gin.Context)
	ListByAsset(c *gin.Context)
	ListByUser(c *gin.Context)
	Mine(c *gin.Context)
	Eligibility(c *gin.Context)
}

type ReviewsHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type submitReviewRequest struct {
	BookingID  string `json:"booking_id"`
	RevieweeID string `json:"reviewee_id"`
	Type       string `json:"type"`
	Rating     int    `json:"rating"`
	Comment    string `json:"comment"`
}

func (h ReviewsHandler) Submit(c *gin.Context) {
	user, ok := requireRole(c)
	if !ok {
		return
	}
	if h.Commands == nil {
		unavailable(c, "commands")
		return
	}
	var req submitReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	cmd := reviewsapp.SubmitReviewCommand{
		ReviewID:   uuid.NewString(),
		BookingID:  req.BookingID,
		ReviewerID: user.ID,
		RevieweeID: req.RevieweeID,
		Type:       req.Type,
		Rating:     req.Rating,
		Comment:    req.Comment,
	}
	review, err := commands.Dispatch[reviewsapp.SubmitReviewCommand, *dto.Review](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		if h.Logger != nil {
			h.Logger.Warn("review submit failed", "booking_id", req.BookingID, "error", err)
		}
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, review)
}

func (h ReviewsHandler) ListByAsset(c *gin.Context) {
	if h.Queries == nil {
		unavailable(c, "queries")
		return
	}
	assetID, ok := pathID(c)
	if !ok {
		return
	}
	query := reviewsapp.ListAssetReviewsQuery{
		AssetID: assetID,
		Limit:   parseIntWithDefault(c.Query("limit"), 20),
		Offset:  parseInt(c.Query("offset")),
	}
	result, err := queries.Ask[reviewsapp.ListAssetReviewsQuery, dto.ReviewCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ReviewsHandler) ListByUser(c *gin.Context) {
	if h.Queries == nil {
		unavailable(c, "queries")
		return
	}
	userID, ok := pathID(c)
	if !ok {
		return
	}
	result, err := queries.Ask[reviewsapp.UserReviewsQuery, dto.UserReviews](c.Request.Context(), h.Queries, reviewsapp.UserReviewsQuery{UserID: userID})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ReviewsHandler) Mine(c *gin.Context) {
	user, ok := requireRole(c)
	if !ok {
		return
	}
	if h.Queries == nil {
		unavailable(c, "queries")
		return
	}
	result, err := queries.Ask[reviewsapp.MyReviewsQuery, dto.MyReviews](c.Request.Context(), h.Queries, reviewsapp.MyReviewsQuery{UserID: user.ID})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ReviewsHandler) Eligibility(c *gin.Context) {
	user, ok := requireRole(c)
	if !ok {
		return
	}
	if h.Queries == nil {
		unavailable(c, "queries")
		return
	}
	bookingID, ok := pathID(c)
	if !ok {
		return
	}
	query := reviewsapp.ReviewEligibilityQuery{BookingID: bookingID, ViewerID: user.ID}
	result, err := queries.Ask[reviewsapp.ReviewEligibilityQuery, dto.ReviewEligibility](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ ReviewsHTTP = ReviewsHandler{}
