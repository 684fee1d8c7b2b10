package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"medslot/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

func newRouter(deps map[string]Pinger) *httprouter.Router {
	router := httprouter.New()
	NewHealthHandler(deps, logger.Discard()).RegisterRoutes(router)
	return router
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	newRouter(nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("status = %d body = %s", rec.Code, rec.Body.String())
	}
}

func TestReady(t *testing.T) {
	ok := func(ctx context.Context) error { return nil }
	down := func(ctx context.Context) error { return errors.New("no reachable servers") }

	tests := []struct {
		name   string
		deps   map[string]Pinger
		status int
		body   string
	}{
		{"all up", map[string]Pinger{"mongo": ok, "redis": ok}, http.StatusOK, `"status":"ready"`},
		{"redis down", map[string]Pinger{"mongo": ok, "redis": down}, http.StatusServiceUnavailable, `"redis":"error"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			newRouter(tt.deps).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
			if !strings.Contains(rec.Body.String(), tt.body) {
				t.Errorf("body = %s", rec.Body.String())
			}
		})
	}
}
