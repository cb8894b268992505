package ginserver

import (
	"errors"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	assetsapp "apexrentals/internal/app/handlers/assets"
	"apexrentals/internal/app/middleware"
	authsvc "apexrentals/internal/app/services/auth"
	"apexrentals/internal/app/uow"
	domainassets "apexrentals/internal/domain/assets"
	domainauth "apexrentals/internal/domain/auth"
	domainbooking "apexrentals/internal/domain/booking"
	domainreviews "apexrentals/internal/domain/reviews"
	"apexrentals/internal/domain/shared/daterange"
	"apexrentals/internal/domain/shared/money"
	domainuser "apexrentals/internal/domain/user"
)

// Error codes returned in the "code" field of every error body.
const (
	CodeInvalidRange      = "InvalidRange"
	CodeInvalidPrice      = "InvalidPrice"
	CodeBookingConflict   = "BookingConflict"
	CodeInvalidTransition = "InvalidTransition"
	CodeNotAuthorized     = "NotAuthorized"
	CodeUnauthenticated   = "Unauthenticated"
	CodeValidation        = "ValidationFailed"
	CodeNotFound          = "NotFound"
	CodeConflict          = "Conflict"
	CodeUnavailable       = "Unavailable"
	CodeInternal          = "Internal"
)

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type errorMapping struct {
	target error
	status int
	code   string
}

// errorTable is matched in order; the first errors.Is hit wins.
var errorTable = []errorMapping{
	{daterange.ErrInvalidRange, http.StatusBadRequest, CodeInvalidRange},
	{daterange.ErrInvalidDate, http.StatusBadRequest, CodeInvalidRange},
	{domainbooking.ErrInvalidPrice, http.StatusBadRequest, CodeInvalidPrice},
	{domainassets.ErrInvalidPrice, http.StatusBadRequest, CodeInvalidPrice},
	{money.ErrOverflow, http.StatusBadRequest, CodeInvalidPrice},
	{money.ErrInvalidAmount, http.StatusBadRequest, CodeInvalidPrice},
	{domainbooking.ErrBookingConflict, http.StatusConflict, CodeBookingConflict},
	{domainbooking.ErrInvalidTransition, http.StatusConflict, CodeInvalidTransition},
	{domainbooking.ErrNotAuthorized, http.StatusForbidden, CodeNotAuthorized},
	{domainassets.ErrNotOwned, http.StatusForbidden, CodeNotAuthorized},
	{middleware.ErrForbidden, http.StatusForbidden, CodeNotAuthorized},
	{authsvc.ErrRoleNotAllowed, http.StatusForbidden, CodeNotAuthorized},
	{domainreviews.ErrNotParticipant, http.StatusForbidden, CodeNotAuthorized},
	{authsvc.ErrInvalidCredentials, http.StatusUnauthorized, CodeUnauthenticated},
	{domainauth.ErrSessionNotFound, http.StatusUnauthorized, CodeUnauthenticated},
	{domainauth.ErrTokenRequired, http.StatusUnauthorized, CodeUnauthenticated},
	{middleware.ErrValidation, http.StatusBadRequest, CodeValidation},
	{authsvc.ErrPasswordTooShort, http.StatusBadRequest, CodeValidation},
	{domainuser.ErrEmailRequired, http.StatusBadRequest, CodeValidation},
	{domainuser.ErrNameRequired, http.StatusBadRequest, CodeValidation},
	{domainuser.ErrInvalidRole, http.StatusBadRequest, CodeValidation},
	{domainbooking.ErrSelfBooking, http.StatusBadRequest, CodeValidation},
	{domainbooking.ErrInvalidStatus, http.StatusConflict, CodeInvalidTransition},
	{domainassets.ErrInvalidCategory, http.StatusBadRequest, CodeValidation},
	{domainassets.ErrInvalidCapacity, http.StatusBadRequest, CodeValidation},
	{domainassets.ErrTitleRequired, http.StatusBadRequest, CodeValidation},
	{domainassets.ErrLocationRequired, http.StatusBadRequest, CodeValidation},
	{domainassets.ErrImageURLRequired, http.StatusBadRequest, CodeValidation},
	{domainreviews.ErrInvalidRating, http.StatusBadRequest, CodeValidation},
	{domainreviews.ErrInvalidType, http.StatusBadRequest, CodeValidation},
	{domainreviews.ErrInvalidReviewee, http.StatusBadRequest, CodeValidation},
	{domainreviews.ErrSelfReview, http.StatusBadRequest, CodeValidation},
	{domainreviews.ErrBookingNotCompleted, http.StatusConflict, CodeConflict},
	{domainreviews.ErrAlreadyReviewed, http.StatusConflict, CodeConflict},
	{domainuser.ErrEmailAlreadyUsed, http.StatusConflict, CodeConflict},
	{domainbooking.ErrAssetUnavailable, http.StatusConflict, CodeConflict},
	{domainbooking.ErrConcurrentUpdate, http.StatusConflict, CodeConflict},
	{domainassets.ErrConcurrentUpdate, http.StatusConflict, CodeConflict},
	{uow.ErrTransient, http.StatusConflict, CodeConflict},
	{domainassets.ErrActiveBookings, http.StatusConflict, CodeConflict},
	{domainbooking.ErrBookingNotFound, http.StatusNotFound, CodeNotFound},
	{domainassets.ErrNotFound, http.StatusNotFound, CodeNotFound},
	{domainreviews.ErrNotFound, http.StatusNotFound, CodeNotFound},
	{domainuser.ErrNotFound, http.StatusNotFound, CodeNotFound},
	{assetsapp.ErrUploaderUnavailable, http.StatusServiceUnavailable, CodeUnavailable},
	{uow.ErrUnitOfWorkMissing, http.StatusServiceUnavailable, CodeUnavailable},
}

func classify(err error) (int, string) {
	for _, m := range errorTable {
		if errors.Is(err, m.target) {
			return m.status, m.code
		}
	}
	return http.StatusInternalServerError, CodeInternal
}

// respondError writes the mapped status and code. Internal failures are
// logged and their message is not leaked to the caller.
func respondError(c *gin.Context, logger *slog.Logger, err error) {
	status, code := classify(err)
	_ = c.Error(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		if logger != nil {
			logger.Error("request failed", "path", c.FullPath(), "error", err)
		}
		msg = "internal error"
	}
	c.AbortWithStatusJSON(status, errorBody{Error: msg, Code: code})
}

func abortWith(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, errorBody{Error: msg, Code: code})
}

func badRequest(c *gin.Context, msg string) {
	abortWith(c, http.StatusBadRequest, CodeValidation, msg)
}

func unavailable(c *gin.Context, what string) {
	abortWith(c, http.StatusServiceUnavailable, CodeUnavailable, what+" unavailable")
}
