package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// JSONResponse writes data as-is with the given status.
func JSONResponse(c echo.Context, status int, data interface{}) error {
	return c.JSON(status, data)
}

// MessageJSON writes {"message": msg}.
func MessageJSON(c echo.Context, status int, msg string) error {
	return c.JSON(status, MessageResponse{Message: msg})
}

// ValidationResponse writes a 400 with field errors.
func ValidationResponse(c echo.Context, errs ValidationErrors) error {
	return c.JSON(http.StatusBadRequest, MessageResponse{
		Message: http.StatusText(http.StatusBadRequest),
		Errors:  errs,
	})
}

// AppErrorResponse maps err to a message response. Unknown errors become a bare 500.
func AppErrorResponse(c echo.Context, err error) error {
	var verrs ValidationErrors
	if errors.As(err, &verrs) {
		return ValidationResponse(c, verrs)
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return MessageJSON(c, appErr.Status, appErr.Message)
	}
	return MessageJSON(c, http.StatusInternalServerError, "Something went wrong")
}
