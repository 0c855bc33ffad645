package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/suteetoe/tenant-onboarding/internal/apperror"
	"github.com/suteetoe/tenant-onboarding/pkg/logger"
	"go.uber.org/zap"
)

func statusFor(err error) int {
	switch apperror.KindOf(err) {
	case apperror.KindValidation:
		return http.StatusBadRequest
	case apperror.KindNotFound:
		return http.StatusNotFound
	case apperror.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// errorJSON writes err with the status for its kind. Server errors hide the cause.
func errorJSON(c echo.Context, err error) error {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.FromEcho(c).Error("Request failed", zap.Error(err))
		return c.JSON(status, echo.Map{"error": "internal error"})
	}
	return c.JSON(status, echo.Map{"error": err.Error(), "kind": apperror.KindOf(err)})
}
