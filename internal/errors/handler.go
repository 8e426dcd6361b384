package errors

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"
)

// ErrorHandler centralizes rendering of API errors with logging
type ErrorHandler struct {
	logger       *slog.Logger
	includeDebug bool
}

// NewErrorHandler creates an error handler. When includeDebug is true the
// underlying error text is attached to responses.
func NewErrorHandler(logger *slog.Logger, includeDebug bool) *ErrorHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ErrorHandler{logger: logger, includeDebug: includeDebug}
}

// HandleError renders err as a structured response. Non-APIError values
// become opaque 500s; the original error is only logged.
func (h *ErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		h.logger.ErrorContext(ctx, "unhandled internal error",
			"error", err.Error(),
			"path", r.URL.Path,
		)
		apiErr = ErrInternalServer
		if h.includeDebug {
			apiErr = NewWithDetails(http.StatusInternalServerError, "INTERNAL_SERVER_ERROR",
				"Internal server error", err.Error())
		}
	}

	if apiErr.StatusCode >= http.StatusInternalServerError {
		h.logger.ErrorContext(ctx, "request failed",
			"status", apiErr.StatusCode,
			"error_code", apiErr.ErrorCode,
			"message", apiErr.Message,
			"path", r.URL.Path,
		)
	} else {
		h.logger.WarnContext(ctx, "request rejected",
			"status", apiErr.StatusCode,
			"error_code", apiErr.ErrorCode,
			"path", r.URL.Path,
		)
	}

	if renderErr := render.Render(w, r, apiErr); renderErr != nil {
		http.Error(w, apiErr.Message, apiErr.StatusCode)
	}
}
