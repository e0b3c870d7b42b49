package api

import (
	models "LPQuant/internal/domain/models"
	"LPQuant/internal/usecase"
	xhttp "LPQuant/pkg/http"
	applogger "LPQuant/pkg/logger"

	"github.com/labstack/echo/v4"
)

// RecommendHandler serves the range recommendation endpoints.
type RecommendHandler struct {
	logger *applogger.Logger
	uc     *usecase.RecommendUseCase
}

func NewRecommendHandler(logger *applogger.Logger, uc *usecase.RecommendUseCase) *RecommendHandler {
	if logger == nil {
		logger = applogger.Nop()
	}
	return &RecommendHandler{logger: logger, uc: uc}
}

func (h *RecommendHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/api/v1/recommend", h.Recommend)
	e.POST("/api/v2/recommend", h.RecommendSigma)
	e.POST("/api/v1/pools/:pool_id/recommend", h.RecommendPool)
}

// Recommend ranks pattern-strategy ranges for client-supplied klines.
func (h *RecommendHandler) Recommend(c echo.Context) error {
	req := &models.RecommendRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.uc.RecommendPattern(c.Request().Context(), *req)
	if err != nil {
		return respondError(c, h.logger, "recommend", err)
	}
	return xhttp.SuccessResponse(c, res)
}

// RecommendSigma builds volatility-forecast ranges for client-supplied klines.
func (h *RecommendHandler) RecommendSigma(c echo.Context) error {
	req := &models.SigmaRecommendRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.uc.RecommendSigma(c.Request().Context(), *req)
	if err != nil {
		return respondError(c, h.logger, "recommend sigma", err)
	}
	return xhttp.SuccessResponse(c, res)
}

// RecommendPool runs a strategy over the stored bars of a configured pool.
func (h *RecommendHandler) RecommendPool(c echo.Context) error {
	req := &models.PoolRecommendRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.uc.RecommendPool(c.Request().Context(), *req)
	if err != nil {
		return respondError(c, h.logger, "recommend pool", err)
	}
	return xhttp.SuccessResponse(c, res.Response())
}
