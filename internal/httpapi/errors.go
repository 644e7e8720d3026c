package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/MarkoPoloResearchLab/hospedagem/pkg/booking"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const retryAfterSeconds = "1"

var errInvalidQuery = fmt.Errorf("%w: invalid query parameter", booking.ErrValidation)

func (handler *httpHandler) respondError(ctx *gin.Context, err error) {
	var conflictError *booking.ConflictError
	if errors.As(err, &conflictError) {
		ctx.JSON(http.StatusConflict, gin.H{
			"error": gin.H{
				"code":      "room_unavailable",
				"message":   conflictError.Error(),
				"room":      conflictError.Room.String(),
				"conflicts": newSummaryPayloads(conflictError.Conflicts),
			},
		})
		return
	}
	if errors.Is(err, booking.ErrGatewayUnavailable) {
		handler.logger.Warn("payment gateway unavailable", zap.Error(err))
		ctx.JSON(http.StatusBadGateway, errorResponse("gateway_unavailable", err.Error()))
		return
	}
	kind := booking.KindOf(err)
	switch kind {
	case booking.KindValidation:
		ctx.JSON(http.StatusBadRequest, errorResponse(string(kind), err.Error()))
	case booking.KindNotFound:
		ctx.JSON(http.StatusNotFound, errorResponse(string(kind), err.Error()))
	case booking.KindConflict:
		ctx.JSON(http.StatusConflict, errorResponse(string(kind), err.Error()))
	case booking.KindPrecondition:
		ctx.JSON(http.StatusUnprocessableEntity, errorResponse(string(kind), err.Error()))
	case booking.KindBusy:
		ctx.Header("Retry-After", retryAfterSeconds)
		ctx.JSON(http.StatusServiceUnavailable, errorResponse(string(kind), err.Error()))
	default:
		handler.logger.Error("booking operation failed", zap.Error(err), zap.String("error_kind", string(kind)))
		ctx.JSON(http.StatusInternalServerError, errorResponse(string(kind), "internal error"))
	}
}

func errorResponse(code string, message string) gin.H {
	return gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	}
}

func bindJSON(ctx *gin.Context, target any) bool {
	if err := ctx.ShouldBindJSON(target); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "expected JSON body"))
		return false
	}
	return true
}

// bindOptionalJSON accepts an empty body.
func bindOptionalJSON(ctx *gin.Context, target any) bool {
	if err := ctx.ShouldBindJSON(target); err != nil && !errors.Is(err, io.EOF) {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "expected JSON body"))
		return false
	}
	return true
}

func parseInterval(rawStart string, rawEnd string) (booking.Interval, error) {
	start, err := time.Parse(dateLayout, strings.TrimSpace(rawStart))
	if err != nil {
		return booking.Interval{}, fmt.Errorf("%w: start date %q", booking.ErrInvalidInterval, rawStart)
	}
	end, err := time.Parse(dateLayout, strings.TrimSpace(rawEnd))
	if err != nil {
		return booking.Interval{}, fmt.Errorf("%w: end date %q", booking.ErrInvalidInterval, rawEnd)
	}
	return booking.NewInterval(start, end)
}

func parseLimit(raw string) (int, error) {
	if strings.TrimSpace(raw) == "" {
		return defaultEntriesLimit, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 || limit > maxEntriesLimit {
		return 0, fmt.Errorf("%w: limit must be between 1 and %d", errInvalidQuery, maxEntriesLimit)
	}
	return limit, nil
}
