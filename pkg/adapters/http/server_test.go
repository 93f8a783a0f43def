package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lanreath/strata/pkg/adapters/memory"
	"github.com/lanreath/strata/pkg/domain"
	"github.com/lanreath/strata/pkg/dsl"
	"github.com/lanreath/strata/pkg/session"
)

const (
	idTop = domain.StateID(1)
	idOff = domain.StateID(2)
	idOn  = domain.StateID(3)

	evFlip = domain.EventID(10)
)

func toggleDef() *domain.ChartDef {
	c := dsl.NewChart("lights").
		Event(evFlip, "flip").
		Initial(idOff)
	c.State(idTop, "top")
	c.State(idOff, "off").ChildOf(idTop).On(evFlip, idOn)
	c.State(idOn, "on").ChildOf(idTop).On(evFlip, idOff)
	return c.Def()
}

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	mgr := session.NewManager(toggleDef(), memory.New())
	return NewHandler(mgr)
}

func createInstance(t *testing.T, handler http.Handler) *domain.Snapshot {
	t.Helper()
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("POST", "/api/v1/instances", nil))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var snap domain.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	require.NotEmpty(t, snap.InstanceID)
	return &snap
}

func TestCreateAndGetInstance(t *testing.T) {
	handler := newTestHandler(t)

	snap := createInstance(t, handler)
	assert.Equal(t, idOff, snap.Current)
	assert.Equal(t, "lights", snap.Chart)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/instances/"+snap.InstanceID, nil))
	require.Equal(t, http.StatusOK, w.Code)

	var got domain.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, snap.InstanceID, got.InstanceID)
	assert.Equal(t, idOff, got.Current)
}

func TestGetInstanceNotFound(t *testing.T) {
	handler := newTestHandler(t)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/instances/no-such-id", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDispatchEvent(t *testing.T) {
	handler := newTestHandler(t)
	snap := createInstance(t, handler)

	body, _ := json.Marshal(DispatchRequest{EventID: uint16(evFlip)})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("POST",
		fmt.Sprintf("/api/v1/instances/%s/events", snap.InstanceID), bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp DispatchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "handled", resp.Outcome)
	assert.Equal(t, idOn, resp.Current)
}

func TestDispatchUndeclaredEventIsUnhandled(t *testing.T) {
	handler := newTestHandler(t)
	snap := createInstance(t, handler)

	body, _ := json.Marshal(DispatchRequest{EventID: 999})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("POST",
		fmt.Sprintf("/api/v1/instances/%s/events", snap.InstanceID), bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, w.Code)

	var resp DispatchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "unhandled", resp.Outcome)
	assert.Equal(t, idOff, resp.Current)
}

func TestDispatchInvalidBody(t *testing.T) {
	handler := newTestHandler(t)
	snap := createInstance(t, handler)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("POST",
		fmt.Sprintf("/api/v1/instances/%s/events", snap.InstanceID),
		strings.NewReader("not json")))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDispatchUnknownInstance(t *testing.T) {
	handler := newTestHandler(t)

	body, _ := json.Marshal(DispatchRequest{EventID: uint16(evFlip)})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("POST",
		"/api/v1/instances/no-such-id/events", bytes.NewReader(body)))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteInstance(t *testing.T) {
	handler := newTestHandler(t)
	snap := createInstance(t, handler)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("DELETE", "/api/v1/instances/"+snap.InstanceID, nil))
	require.Equal(t, http.StatusNoContent, w.Code)

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/instances/"+snap.InstanceID, nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListInstances(t *testing.T) {
	handler := newTestHandler(t)
	first := createInstance(t, handler)
	second := createInstance(t, handler)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/instances", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var list InstanceList
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Contains(t, list.Instances, first.InstanceID)
	assert.Contains(t, list.Instances, second.InstanceID)
}

func TestGetChart(t *testing.T) {
	handler := newTestHandler(t)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/chart", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var def domain.ChartDef
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &def))
	assert.Equal(t, "lights", def.Name)
	assert.Len(t, def.States, 3)
}

func TestGetChartDiagram(t *testing.T) {
	handler := newTestHandler(t)
	snap := createInstance(t, handler)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/chart/diagram", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "stateDiagram-v2")
	assert.NotContains(t, w.Body.String(), "current;")

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/chart/diagram?instance="+snap.InstanceID, nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "class off current;")

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/chart/diagram?instance=missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealthz(t *testing.T) {
	handler := newTestHandler(t)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/healthz", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestCORSPreflight(t *testing.T) {
	handler := newTestHandler(t)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("OPTIONS", "/api/v1/instances", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestServesSpecAndSwagger(t *testing.T) {
	handler := newTestHandler(t)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/openapi.yaml", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "openapi: 3.0.3")

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/swagger", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "swagger-ui")
}
