package errors

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIErrorError(t *testing.T) {
	err := New(http.StatusNotFound, "NOT_FOUND", "indicator not found")
	assert.Equal(t, "indicator not found", err.Error())
}

func TestHandleErrorAPIError(t *testing.T) {
	h := NewErrorHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), false)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/forecast/GDP", nil)
	h.HandleError(rec, req, NotFoundError("indicator GDP"))

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "NOT_FOUND")
	assert.Contains(t, rec.Body.String(), "indicator GDP")
}

func TestHandleErrorWrapsOpaque(t *testing.T) {
	h := NewErrorHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), false)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/report", nil)
	h.HandleError(rec, req, fmt.Errorf("db exploded"))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	// Internal details never leak without debug mode
	assert.NotContains(t, rec.Body.String(), "db exploded")
}

func TestHandleErrorUnwrapsWrappedAPIError(t *testing.T) {
	h := NewErrorHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), false)

	wrapped := fmt.Errorf("handling request: %w", InvalidParameterError("years", "not an integer"))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/forecast/x", nil)
	h.HandleError(rec, req, wrapped)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
