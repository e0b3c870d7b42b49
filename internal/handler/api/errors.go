package api

import (
	"context"
	"errors"
	"net/http"

	domrepo "LPQuant/internal/domain/repository"
	"LPQuant/internal/usecase"
	xhttp "LPQuant/pkg/http"
	applogger "LPQuant/pkg/logger"

	"github.com/labstack/echo/v4"
)

// appError maps usecase errors onto HTTP statuses.
func appError(err error) *xhttp.AppError {
	switch {
	case errors.Is(err, usecase.ErrInvalidInput):
		return xhttp.BadRequestError(err.Error()).WithError(err)
	case errors.Is(err, domrepo.ErrPoolNotFound):
		return xhttp.NotFoundError(err.Error()).WithError(err)
	case errors.Is(err, usecase.ErrGeneration):
		return xhttp.InternalError(err.Error()).WithError(err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return xhttp.InternalError("request canceled").WithError(err)
	default:
		return xhttp.InternalError("internal error").WithError(err)
	}
}

func respondError(c echo.Context, l *applogger.Logger, op string, err error) error {
	ae := appError(err)
	if ae.Status >= http.StatusInternalServerError {
		l.Error(op+" failed",
			applogger.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			applogger.Error(err),
		)
	}
	return xhttp.AppErrorResponse(c, ae)
}
