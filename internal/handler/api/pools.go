package api

import (
	"time"

	models "LPQuant/internal/domain/models"
	"LPQuant/internal/usecase"
	"LPQuant/pkg/config"
	xhttp "LPQuant/pkg/http"
	applogger "LPQuant/pkg/logger"
	"LPQuant/pkg/util"

	"github.com/labstack/echo/v4"
)

// PoolsHandler lists configured pools and serves their stored bars.
type PoolsHandler struct {
	logger *applogger.Logger
	pools  []config.PoolConfig
	bars   *usecase.BarsUseCase
}

func NewPoolsHandler(logger *applogger.Logger, pools []config.PoolConfig, bars *usecase.BarsUseCase) *PoolsHandler {
	if logger == nil {
		logger = applogger.Nop()
	}
	return &PoolsHandler{logger: logger, pools: pools, bars: bars}
}

func (h *PoolsHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/v1/pools")
	g.GET("", h.List)
	g.GET("/:pool_id/bars", h.Bars)
}

func (h *PoolsHandler) List(c echo.Context) error {
	out := make([]models.PoolSummary, 0, len(h.pools))
	for _, p := range h.pools {
		out = append(out, models.PoolSummary{
			PoolID:      util.NormalizeHexID(p.PoolID),
			Symbol:      p.Symbol,
			CoinA:       p.CoinA,
			CoinB:       p.CoinB,
			TickSpacing: p.TickSpacing,
			FeeRate:     p.FeeRate,
		})
	}
	return xhttp.ListResponse(c, out, int64(len(out)))
}

// Bars returns the latest stored bars of a pool in ascending time order.
// from and to accept RFC3339 or epoch milliseconds.
func (h *PoolsHandler) Bars(c echo.Context) error {
	req := &models.GetBarsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	from, ok := parseBound(req.From)
	if !ok {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestErrorf("invalid from %q", req.From).WithParam("field", "from"))
	}
	to, ok := parseBound(req.To)
	if !ok {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestErrorf("invalid to %q", req.To).WithParam("field", "to"))
	}

	res, err := h.bars.GetBars(c.Request().Context(), usecase.GetBarsParams{
		PoolID:   req.PoolID,
		Interval: req.Interval,
		From:     from,
		To:       to,
		Limit:    req.Limit,
	})
	if err != nil {
		return respondError(c, h.logger, "get bars", err)
	}
	return xhttp.SuccessResponse(c, models.GetBarsResponse{
		PoolID:   res.PoolID,
		Interval: string(res.Interval),
		Bars:     res.Bars,
	})
}

func parseBound(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, true
	}
	ms, ok := util.ParseEpochMillis(s)
	if !ok {
		return time.Time{}, false
	}
	return time.UnixMilli(ms).UTC(), true
}
