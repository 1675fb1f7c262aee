package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestHealthServer_Health(t *testing.T) {
	srv := newHealthServer(8080, nil, zaptest.NewLogger(t))

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, ":8080", srv.Addr)
	assert.Contains(t, rec.Body.String(), `"status":"healthy"`)
}

func TestHealthServer_Ready(t *testing.T) {
	healthy := readinessCheck{name: "postgres", check: func(context.Context) error { return nil }}
	broken := readinessCheck{name: "redis", check: func(context.Context) error { return errors.New("dial tcp: refused") }}

	tests := []struct {
		name       string
		checks     []readinessCheck
		wantStatus int
		wantFailed map[string]interface{}
	}{
		{name: "all healthy", checks: []readinessCheck{healthy}, wantStatus: http.StatusOK},
		{
			name:       "one dependency down",
			checks:     []readinessCheck{healthy, broken},
			wantStatus: http.StatusServiceUnavailable,
			wantFailed: map[string]interface{}{"redis": "dial tcp: refused"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newHealthServer(9090, tt.checks, zaptest.NewLogger(t))

			rec := httptest.NewRecorder()
			srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
			assert.Equal(t, tt.wantStatus, rec.Code)

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			if tt.wantFailed != nil {
				assert.Equal(t, tt.wantFailed, body["failed"])
			}
		})
	}
}

func TestHealthServer_Metrics(t *testing.T) {
	srv := newHealthServer(8080, nil, zaptest.NewLogger(t))

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
