package errors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesetl/internal/infrastructure"
)

func newTestHandler() *ErrorHandler {
	return NewErrorHandler(slog.New(slog.NewJSONHandler(io.Discard, nil)), false)
}

func TestErrorHandler_HandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
		wantCode   string
	}{
		{
			name:       "run not found",
			err:        ErrRunNotFound,
			wantStatus: http.StatusNotFound,
			wantType:   TypeRunNotFound,
			wantCode:   "RUN_NOT_FOUND",
		},
		{
			name:       "data quality failure",
			err:        fmt.Errorf("ingest: %w", NewDataQualityError("jan.csv", 2, "qty", "x", errors.New("invalid"))),
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   TypeDataQuality,
			wantCode:   "DATA_QUALITY_ERROR",
		},
		{
			name:       "schema failure",
			err:        NewSchemaError("jan.csv", []string{"sku"}),
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   TypeSchema,
			wantCode:   "SCHEMA_ERROR",
		},
		{
			name:       "missing folder",
			err:        NewConfigError("sales folder not found", nil),
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   TypeConfiguration,
			wantCode:   "CONFIGURATION_ERROR",
		},
		{
			name:       "deadline",
			err:        context.DeadlineExceeded,
			wantStatus: http.StatusGatewayTimeout,
			wantType:   TypeTimeout,
		},
		{
			name:       "unknown",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeInternal,
		},
	}

	h := newTestHandler()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/summary", nil)
			req = req.WithContext(infrastructure.WithTraceID(req.Context(), "trace-1"))
			rec := httptest.NewRecorder()

			h.HandleError(rec, req, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantType, body["type"])
			assert.Equal(t, float64(tt.wantStatus), body["status"])
			assert.Equal(t, "/api/summary", body["instance"])
			assert.Equal(t, "trace-1", body["trace_id"])
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, body["error_code"])
			}
		})
	}
}

func TestProblemDetails_MarshalJSON(t *testing.T) {
	pd := NewProblemDetails(http.StatusBadRequest, TypeValidation, "Bad Request", "", "/api/runs").
		WithExtension("error_code", "VALIDATION_FAILED").
		WithExtension("status", "ignored")

	data, err := json.Marshal(pd)
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, float64(400), body["status"], "standard members win over extensions")
	assert.NotContains(t, body, "detail")
	assert.Equal(t, "VALIDATION_FAILED", body["error_code"])
}

func TestErrorHandler_NotFound(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestHandler().NotFound(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), TypeNotFound)
}
