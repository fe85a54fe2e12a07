package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"example.com/hotswap/services/recovery/cache"
	"example.com/hotswap/services/recovery/config"
	"example.com/hotswap/services/recovery/domain"
	"example.com/hotswap/services/recovery/eventstore"
	"example.com/hotswap/services/recovery/handlers"
)

func newTestServer(t *testing.T) (*Server, *eventstore.MemoryEventStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := eventstore.NewMemoryEventStore()
	cacheClient, err := cache.NewRedisClient(config.Config{RedisEnabled: false})
	require.NoError(t, err)

	faultHandler := handlers.NewFaultHandler(store, nil, nil, nil)
	swapHandler := handlers.NewSwapHandler(store, faultHandler, cacheClient)

	server := NewServer(config.Config{}, nil, swapHandler, faultHandler, store, cacheClient)
	return server, store
}

func doRequest(server *Server, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	server.router.ServeHTTP(w, req)
	return w
}

func TestPing(t *testing.T) {
	server, _ := newTestServer(t)

	w := doRequest(server, http.MethodGet, "/ping", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "pong", w.Body.String())
}

func TestReceiveSwapEventsAndReconstruct(t *testing.T) {
	server, store := newTestServer(t)

	w := doRequest(server, http.MethodPost, "/api/v1/swap/events",
		`{"eventType":"ClassFileChanged","data":{"aggregate_id":"agg-1","class_name":"com.example.Service"}}`)
	require.Equal(t, http.StatusAccepted, w.Code)

	w = doRequest(server, http.MethodPost, "/api/v1/swap/events",
		`{"eventType":"BytecodeValidated","data":{"aggregate_id":"agg-1","class_name":"com.example.Service","compatible":true}}`)
	require.Equal(t, http.StatusAccepted, w.Code)

	events, err := store.GetEvents(context.Background(), domain.AggregateTypeClass, "agg-1")
	require.NoError(t, err)
	require.Len(t, events, 2)

	// The aggregate endpoint folds the recorded events
	w = doRequest(server, http.MethodGet, "/api/v1/class/agg-1", "")
	require.Equal(t, http.StatusOK, w.Code)

	var state domain.ClassState
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))
	require.Equal(t, "com.example.Service", state.ClassName)
	require.Equal(t, domain.StatusValidated, state.Status)
	require.Equal(t, 2, state.Version)
}

func TestGetUnknownClassReturnsNotFound(t *testing.T) {
	server, _ := newTestServer(t)

	w := doRequest(server, http.MethodGet, "/api/v1/class/missing", "")
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestReceiveSwapEventsRejectsUnknownType(t *testing.T) {
	server, _ := newTestServer(t)

	w := doRequest(server, http.MethodPost, "/api/v1/swap/events",
		`{"eventType":"SomethingElse","data":{}}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReportFaultReturnsDecision(t *testing.T) {
	server, _ := newTestServer(t)

	w := doRequest(server, http.MethodPost, "/api/v1/swap/events",
		`{"eventType":"ClassFileChanged","data":{"aggregate_id":"agg-1","class_name":"com.example.Service"}}`)
	require.Equal(t, http.StatusAccepted, w.Code)

	w = doRequest(server, http.MethodPost, "/api/v1/faults",
		`{"aggregate_id":"agg-1","kind":"validation","class_name":"com.example.Service","reason":"incompatible change"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var decision handlers.Decision
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decision))
	require.Equal(t, domain.ErrorTypeValidation, decision.ErrorType)
	require.Equal(t, "WARNING", decision.Severity)
	require.Equal(t, domain.StrategyRejectChange, decision.Strategy)
	require.True(t, decision.AutoExecutable)
	require.Contains(t, decision.Report, domain.ReportHeader)
}

func TestReportFaultRejectsUnknownKind(t *testing.T) {
	server, _ := newTestServer(t)

	w := doRequest(server, http.MethodPost, "/api/v1/faults",
		`{"aggregate_id":"agg-1","kind":"nonsense"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
}
