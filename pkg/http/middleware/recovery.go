package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	applogger "SignalWatch/pkg/logger"

	"github.com/labstack/echo/v4"
)

// Recover turns handler panics into a 500 with a generic message.
func Recover(l *applogger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					perr, ok := r.(error)
					if !ok {
						perr = fmt.Errorf("%v", r)
					}
					l.Error("http handler panic",
						applogger.Error(perr),
						applogger.String("path", c.Path()),
						applogger.String("stack", string(debug.Stack())),
					)
					err = c.JSON(http.StatusInternalServerError, map[string]string{
						"message": "Internal Server Error",
					})
				}
			}()
			return next(c)
		}
	}
}
