package ratelimit

import (
	apphttp "SignalWatch/pkg/http"

	"github.com/labstack/echo/v4"
)

// Middleware rejects requests over the per-address budget with 429.
func (l *Limiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !l.Allow(c.RealIP()) {
				return apphttp.AppErrorResponse(c, apphttp.TooManyRequestsError("Too Many Requests"))
			}
			return next(c)
		}
	}
}
