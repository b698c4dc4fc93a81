package helpers

import (
	"errors"
	"fmt"
	"net/http"

	"campus-auction/internal/auctionerrors"
	"campus-auction/utils"

	"github.com/gin-gonic/gin"
)

// HandleBindError sends a standardized JSON error for binding failures
func HandleBindError(c *gin.Context, handlerName string, err error) {
	wrappedErr := fmt.Errorf("invalid request payload: %w", err)
	utils.JSONError(c, http.StatusBadRequest, wrappedErr, "invalid request payload")
	utils.Warn(handlerName+": binding error", map[string]any{"error": err.Error()})
}

// MapErrorToHTTP maps domain/service errors to HTTP status code and message.
// Domain-rule rejections keep the wrapped detail (e.g. the minimum acceptable
// bid) in the error field so clients can retry with a corrected value.
func MapErrorToHTTP(err error) (int, string) {
	switch {
	case errors.Is(err, auctionerrors.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, auctionerrors.ErrNotSeller):
		return http.StatusForbidden, "only the seller can do this"
	case errors.Is(err, auctionerrors.ErrAuctionNotFound):
		return http.StatusNotFound, "auction not found"
	case errors.Is(err, auctionerrors.ErrProductNotFound):
		return http.StatusNotFound, "product not found"
	case errors.Is(err, auctionerrors.ErrNotificationNotFound):
		return http.StatusNotFound, "notification not found"
	case errors.Is(err, auctionerrors.ErrDuplicateActiveAuction):
		return http.StatusConflict, "an active auction already exists for this item"
	case errors.Is(err, auctionerrors.ErrSelfBidNotAllowed):
		return http.StatusBadRequest, "cannot bid on your own auction"
	case errors.Is(err, auctionerrors.ErrBidTooLow):
		return http.StatusConflict, "bid amount too low"
	case errors.Is(err, auctionerrors.ErrAuctionExpired):
		return http.StatusConflict, "auction has expired"
	case errors.Is(err, auctionerrors.ErrAuctionNotActive):
		return http.StatusConflict, "auction is not active"
	case errors.Is(err, auctionerrors.ErrNoBids):
		return http.StatusBadRequest, "no bids to accept"
	case errors.Is(err, auctionerrors.ErrAlreadyFinalized):
		return http.StatusConflict, "auction already finalized"
	case errors.Is(err, auctionerrors.ErrInvalidInput):
		return http.StatusBadRequest, "invalid request details"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// RespondError maps err to its HTTP shape and writes the JSON error
// response. Internal errors are masked in the response; the full error only
// reaches the log.
func RespondError(c *gin.Context, handlerName string, err error, ctx map[string]any) {
	status, message := MapErrorToHTTP(err)
	if ctx == nil {
		ctx = map[string]any{}
	}
	ctx["error"] = err.Error()
	if status >= http.StatusInternalServerError {
		utils.JSONError(c, status, errors.New(message), message)
		utils.Error(handlerName+": "+message, ctx)
		return
	}
	utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
	utils.Warn(handlerName+": "+message, ctx)
}

// LogSuccess is a small helper to standardize logging of successful operations
func LogSuccess(handlerName, message string, ctx map[string]any) {
	utils.Info(handlerName+": "+message, ctx)
}
