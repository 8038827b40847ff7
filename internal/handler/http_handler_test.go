package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yash02896/graphix/internal/adapter/repository/memstore"
	"github.com/yash02896/graphix/internal/handler"
	"github.com/yash02896/graphix/internal/testsupport"
)

func newRouter(store *memstore.Store) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler.New(store, testsupport.NopLogger{}).RegisterRoutes(router)
	return router
}

func TestHealthz(t *testing.T) {
	router := newRouter(memstore.New())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestReadyzReportsReadyOnWorkingStore(t *testing.T) {
	router := newRouter(memstore.New())

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestSubmitDivergenceInvestigationAccepted(t *testing.T) {
	store := memstore.New()
	router := newRouter(store)

	body, _ := json.Marshal(map[string]interface{}{
		"indexerA":         "indexer-a",
		"indexerB":         "indexer-b",
		"deployment":       "Qm123",
		"upperBlockNumber": 100,
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/divergence-investigations", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}

	requests, err := store.PollDivergenceInvestigationRequests(req.Context())
	if err != nil {
		t.Fatalf("poll requests: %v", err)
	}
	if len(requests) != 1 {
		t.Fatalf("expected 1 pending request, got %d", len(requests))
	}
	if requests[0].IndexerA.ID != "indexer-a" || requests[0].IndexerB.ID != "indexer-b" {
		t.Fatalf("unexpected request contents: %+v", requests[0])
	}
}

func TestSubmitDivergenceInvestigationRejectsMissingFields(t *testing.T) {
	router := newRouter(memstore.New())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/divergence-investigations", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
