package api

import (
	"net/http"
	"time"

	models "SignalWatch/internal/domain/models"
	"SignalWatch/internal/service/metrics"
	"SignalWatch/internal/service/ratelimit"
	"SignalWatch/internal/usecase"
	xhttp "SignalWatch/pkg/http"
	xlogger "SignalWatch/pkg/logger"

	"github.com/labstack/echo/v4"
)

// MarketEchoHandler serves the dashboard's quote and status polls.
type MarketEchoHandler struct {
	logger  *xlogger.Logger
	svc     *usecase.MarketService
	rl      *ratelimit.Limiter
	metrics *metrics.Endpoints
	now     func() time.Time
}

func NewMarketEchoHandler(logger *xlogger.Logger, svc *usecase.MarketService, rl *ratelimit.Limiter, m *metrics.Endpoints) *MarketEchoHandler {
	return &MarketEchoHandler{logger: logger, svc: svc, rl: rl, metrics: m, now: time.Now}
}

func (h *MarketEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/market", h.Market, h.rl.Middleware())
	g.GET("/status", h.Status, h.rl.Middleware())
}

func (h *MarketEchoHandler) Market(c echo.Context) error {
	failed := false
	defer h.metrics.Observe("market")(&failed)

	req := &models.MarketRequest{}
	if err := xhttp.ReadAndValidateRequest(c, req); err != nil {
		return xhttp.AppErrorResponse(c, err)
	}

	data, err := h.svc.MarketData(c.Request().Context(), time.Duration(req.MaxAge)*time.Second)
	if err != nil {
		failed = true
		h.logger.Error("market usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.BadGatewayError("Market data is temporarily unavailable."))
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
	return xhttp.JSONResponse(c, http.StatusOK, data)
}

func (h *MarketEchoHandler) Status(c echo.Context) error {
	defer h.metrics.Observe("status")(nil)
	return xhttp.JSONResponse(c, http.StatusOK, h.svc.Status(h.now()))
}
