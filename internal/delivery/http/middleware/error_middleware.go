package middleware

import (
	"log/slog"
	"net/http"

	"credstore/config"
	deliverycontext "credstore/internal/delivery/context"
	domainerrors "credstore/internal/domain/errors"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// ErrorMiddleware renders failed requests as {"e": message, "code": CODE}.
type ErrorMiddleware struct {
	logger         *slog.Logger
	semanticStatus bool
}

// NewErrorMiddleware creates a new error handling middleware
func NewErrorMiddleware(logger *slog.Logger, cfg *config.Config) *ErrorMiddleware {
	return &ErrorMiddleware{
		logger:         logger,
		semanticStatus: cfg.HTTP.StatusCodes == config.StatusCodesSemantic,
	}
}

// HandleHTTPError handles errors as Echo's HTTPErrorHandler
func (m *ErrorMiddleware) HandleHTTPError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, body := m.render(err, c)

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, body)
	}
	if err != nil {
		m.logger.Error("Failed to write error response", slog.Any("error", err))
	}
}

func (m *ErrorMiddleware) render(err error, c echo.Context) (int, domainerrors.ErrorBody) {
	var appErr domainerrors.AppError
	if errors.As(err, &appErr) {
		if appErr.Kind() == domainerrors.KindStorage || appErr.Kind() == domainerrors.KindInternal {
			m.log(c).Error("Request failed",
				slog.String("code", appErr.ErrorCode()),
				slog.String("details", appErr.Details()),
				slog.Any("error", err),
			)
		}

		status := http.StatusInternalServerError
		if m.semanticStatus {
			status = appErr.HTTPCode()
		}

		return status, domainerrors.NewErrorBody(appErr)
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		message := http.StatusText(httpErr.Code)
		if msg, ok := httpErr.Message.(string); ok && msg != "" {
			message = msg
		}

		return httpErr.Code, domainerrors.ErrorBody{E: message, Code: "HTTP_ERROR"}
	}

	// Unknown errors may carry paths or driver messages; only the generic text leaves the process.
	m.log(c).Error("Unhandled error",
		slog.String("path", c.Request().URL.Path),
		slog.String("method", c.Request().Method),
		slog.Any("error", err),
	)

	return domainerrors.ErrInternalError.HTTPCode(), domainerrors.NewErrorBody(domainerrors.ErrInternalError)
}

func (m *ErrorMiddleware) log(c echo.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(c.Request().Context(), m.logger)
}
