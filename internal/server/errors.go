package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// JSONErrors renders every error that escapes a handler or middleware as an
// ErrorResponse. echo.HTTPErrors (404, 401, 429 from the rate limiter) keep
// their status; anything else is a logged 500.
func JSONErrors(logger *logrus.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var he *echo.HTTPError
		if errors.As(err, &he) {
			msg := http.StatusText(he.Code)
			if s, ok := he.Message.(string); ok && s != "" {
				msg = s
			}
			_ = c.JSON(he.Code, ErrorResponse{Error: msg, Code: he.Code})
			return
		}

		if logger != nil {
			logger.WithFields(logrus.Fields{
				"path":  c.Path(),
				"error": err,
			}).Error("unhandled api error")
		}
		_ = c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "internal server error",
			Code:  http.StatusInternalServerError,
		})
	}
}
