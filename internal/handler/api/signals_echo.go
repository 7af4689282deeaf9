package api

import (
	"crypto/subtle"
	"net/http"
	"time"

	models "SignalWatch/internal/domain/models"
	domrepo "SignalWatch/internal/domain/repository"
	"SignalWatch/internal/service/metrics"
	"SignalWatch/internal/service/ratelimit"
	"SignalWatch/internal/usecase"
	xhttp "SignalWatch/pkg/http"
	xlogger "SignalWatch/pkg/logger"
	"SignalWatch/pkg/util"

	"github.com/labstack/echo/v4"
)

// SignalsEchoHandler serves the cycle trigger and the published signal set.
type SignalsEchoHandler struct {
	logger  *xlogger.Logger
	runner  usecase.CycleRunner
	store   domrepo.SignalStore
	history domrepo.HistoryStore
	token   string
	rl      *ratelimit.Limiter
	metrics *metrics.Endpoints
}

// NewSignalsEchoHandler wires the handler. history may be nil, in which case the
// history route is not registered.
func NewSignalsEchoHandler(
	logger *xlogger.Logger,
	runner usecase.CycleRunner,
	store domrepo.SignalStore,
	history domrepo.HistoryStore,
	token string,
	rl *ratelimit.Limiter,
	m *metrics.Endpoints,
) *SignalsEchoHandler {
	return &SignalsEchoHandler{logger: logger, runner: runner, store: store, history: history, token: token, rl: rl, metrics: m}
}

func (h *SignalsEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.Any("/cron", h.Cron)
	g.Any("/signals", h.Signals, h.rl.Middleware())
	if h.history != nil {
		g.GET("/signals/history", h.History, h.rl.Middleware())
	}
}

// Cron runs one evaluation cycle. Any method is accepted so plain schedulers can call it.
func (h *SignalsEchoHandler) Cron(c echo.Context) error {
	failed := false
	defer h.metrics.Observe("cron")(&failed)

	if h.token != "" {
		tok, _ := util.BearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
		if subtle.ConstantTimeCompare([]byte(tok), []byte(h.token)) != 1 {
			failed = true
			return xhttp.AppErrorResponse(c, xhttp.UnauthorizedError("Unauthorized"))
		}
	}

	signals, err := h.runner.RunCycle(c.Request().Context())
	if err != nil {
		failed = true
		h.logger.Error("cron cycle error", xlogger.Error(err))
		return xhttp.MessageJSON(c, http.StatusInternalServerError, "Cron job execution failed.")
	}
	return xhttp.JSONResponse(c, http.StatusOK, models.CronResponse{
		Message:      "Cron job executed successfully.",
		FoundSignals: len(signals),
		Signals:      models.SignalIDs(signals),
	})
}

// Signals returns the last published set, [] when there is none.
func (h *SignalsEchoHandler) Signals(c echo.Context) error {
	method := c.Request().Method
	if method != http.MethodGet {
		c.Response().Header().Set(echo.HeaderAllow, http.MethodGet)
		return xhttp.AppErrorResponse(c, xhttp.MethodNotAllowedError(method))
	}

	failed := false
	defer h.metrics.Observe("signals")(&failed)

	signals, err := h.store.ReadLatest(c.Request().Context())
	if err != nil {
		failed = true
		h.logger.Error("read signals error", xlogger.Error(err))
		return xhttp.MessageJSON(c, http.StatusInternalServerError, "Failed to retrieve signals.")
	}
	return xhttp.JSONResponse(c, http.StatusOK, signals)
}

func (h *SignalsEchoHandler) History(c echo.Context) error {
	failed := false
	defer h.metrics.Observe("history")(&failed)

	req := &models.HistoryRequest{}
	if err := xhttp.ReadAndValidateRequest(c, req); err != nil {
		return xhttp.AppErrorResponse(c, err)
	}
	var since time.Time
	if req.Since != "" {
		t, ok := util.ParseTime(req.Since)
		if !ok {
			return xhttp.ValidationResponse(c, xhttp.ValidationErrors{{
				Code:    "ERR_TIME",
				Field:   "since",
				Message: "since must be RFC3339 or unix seconds",
			}})
		}
		since = t
	}

	rows, err := h.history.Recent(c.Request().Context(), req.SignalID, since, req.Limit)
	if err != nil {
		failed = true
		h.logger.Error("history query error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("Failed to retrieve history."))
	}
	return xhttp.JSONResponse(c, http.StatusOK, rows)
}
