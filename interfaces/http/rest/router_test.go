package rest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"dopesheet/application/services"
	"dopesheet/domain/config"
	"dopesheet/domain/core/entities"
	"dopesheet/domain/core/valueobjects"
	"dopesheet/infrastructure/memory"
	"dopesheet/infrastructure/messaging"
	"dopesheet/interfaces/http/rest/handlers"
	"dopesheet/pkg/observability"
	"dopesheet/pkg/ratelimit"
)

type apiFixture struct {
	server *httptest.Server
	router *Router
	ds     *services.DopeSheet
	reader *entities.NodeContext
	blur   *entities.NodeContext
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	cfg := config.DefaultDomainConfig()
	logger := zap.NewNop()
	metrics := observability.NewCollector("test")
	bus := messaging.NewEventBus(logger, 0)
	ds := services.NewDopeSheet(cfg, memory.NewTimeline(100), bus, nil, metrics, logger)

	f := memory.NewFactory(cfg)
	reader, _ := ds.AddNode(f.Reader("Read1", 1, 100))
	blur, _ := ds.AddNode(f.Effect("net.sf.openfx.Blur", "Blur1",
		memory.NewKnob("size", 1, memory.WithKeyFrames(0,
			valueobjects.NewKeyFrame(10, 1, valueobjects.InterpolationSmooth),
			valueobjects.NewKeyFrame(20, 2, valueobjects.InterpolationSmooth),
		))))
	require.NotNil(t, reader)
	require.NotNil(t, blur)

	router := NewRouter(handlers.NewDopeSheetHandler(ds, nil, logger), metrics,
		Options{MetricsEnabled: true}, logger)
	server := httptest.NewServer(router.Setup())
	t.Cleanup(server.Close)
	return &apiFixture{server: server, router: router, ds: ds, reader: reader, blur: blur}
}

type envelope struct {
	Success bool                   `json:"success"`
	Data    json.RawMessage        `json:"data"`
	Type    string                 `json:"type"`
	Message string                 `json:"message"`
	Code    string                 `json:"code"`
	Details map[string]interface{} `json:"details"`
}

func (fx *apiFixture) do(t *testing.T, method, path, body string) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, fx.server.URL+path, reader)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(raw, &env))
	}
	return resp.StatusCode, env
}

func (fx *apiFixture) sizeRow() string {
	return fx.blur.DimensionContexts()[0].ID().String()
}

func (fx *apiFixture) selectKey(t *testing.T, time float64) {
	t.Helper()
	status, _ := fx.do(t, http.MethodPost, "/api/v1/selection",
		fmt.Sprintf(`{"keys":[{"row":%q,"time":%v}],"flags":["clear","add"]}`, fx.sizeRow(), time))
	require.Equal(t, http.StatusOK, status)
}

func TestHealthEndpoints(t *testing.T) {
	fx := newAPIFixture(t)

	status, _ := fx.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, status)
	status, _ = fx.do(t, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusOK, status)

	fx.router.SetReadiness(func() bool { return false })
	status, _ = fx.do(t, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, status)
}

func TestMetricsEndpoint(t *testing.T) {
	fx := newAPIFixture(t)
	fx.do(t, http.MethodGet, "/api/v1/nodes", "")

	resp, err := http.Get(fx.server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "test_http_requests_total")
	assert.Contains(t, string(body), `status="200"`)
}

func TestListRows(t *testing.T) {
	fx := newAPIFixture(t)

	status, env := fx.do(t, http.MethodGet, "/api/v1/nodes", "")
	require.Equal(t, http.StatusOK, status)

	var rows []handlers.RowResponse
	require.NoError(t, json.Unmarshal(env.Data, &rows))
	require.Len(t, rows, 3)
	assert.Equal(t, "Read1", rows[0].Label)
	assert.Equal(t, "reader", rows[0].ItemType)
	assert.Equal(t, &handlers.RangeResponse{Start: 1, End: 101}, rows[0].Range)
	assert.Equal(t, "knob", rows[2].Kind)
	assert.Len(t, rows[2].Keys, 2)
}

func TestGetRange(t *testing.T) {
	fx := newAPIFixture(t)

	status, env := fx.do(t, http.MethodGet, "/api/v1/nodes/"+fx.reader.ID().String()+"/range", "")
	require.Equal(t, http.StatusOK, status)
	var r handlers.RangeResponse
	require.NoError(t, json.Unmarshal(env.Data, &r))
	assert.Equal(t, handlers.RangeResponse{Start: 1, End: 101}, r)

	status, _ = fx.do(t, http.MethodGet, "/api/v1/nodes/not-an-id/range", "")
	assert.Equal(t, http.StatusBadRequest, status)
	status, _ = fx.do(t, http.MethodGet, "/api/v1/nodes/"+valueobjects.NewRowID().String()+"/range", "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestSelectionEndpoints(t *testing.T) {
	fx := newAPIFixture(t)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"add and toggle", fmt.Sprintf(`{"keys":[{"row":%q,"time":10}],"flags":["add","toggle"]}`, fx.sizeRow()), http.StatusBadRequest},
		{"unknown flag", fmt.Sprintf(`{"keys":[{"row":%q,"time":10}],"flags":["grab"]}`, fx.sizeRow()), http.StatusBadRequest},
		{"no flags", fmt.Sprintf(`{"keys":[{"row":%q,"time":10}]}`, fx.sizeRow()), http.StatusBadRequest},
		{"unknown row", fmt.Sprintf(`{"keys":[{"row":%q,"time":10}],"flags":["add"]}`, valueobjects.NewRowID()), http.StatusNotFound},
		{"no key at time", fmt.Sprintf(`{"keys":[{"row":%q,"time":11}],"flags":["add"]}`, fx.sizeRow()), http.StatusNotFound},
		{"unknown field", `{"rows":[],"flags":["add"]}`, http.StatusBadRequest},
		{"key and node", fmt.Sprintf(`{"keys":[{"row":%q,"time":10}],"nodes":[%q],"flags":["clear","add"]}`, fx.sizeRow(), fx.reader.ID()), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, _ := fx.do(t, http.MethodPost, "/api/v1/selection", tt.body)
			assert.Equal(t, tt.status, status)
		})
	}

	status, env := fx.do(t, http.MethodGet, "/api/v1/selection", "")
	require.Equal(t, http.StatusOK, status)
	var sel handlers.SelectionResponse
	require.NoError(t, json.Unmarshal(env.Data, &sel))
	assert.Len(t, sel.Keys, 1)
	assert.Equal(t, []string{fx.reader.ID().String()}, sel.Nodes)

	status, env = fx.do(t, http.MethodDelete, "/api/v1/selection", "")
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(env.Data, &sel))
	assert.Empty(t, sel.Keys)

	status, env = fx.do(t, http.MethodPost, "/api/v1/selection/all", "")
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(env.Data, &sel))
	assert.Len(t, sel.Keys, 2)
	assert.Len(t, sel.Nodes, 1)
}

func TestEditingAndHistory(t *testing.T) {
	fx := newAPIFixture(t)
	fx.selectKey(t, 10)

	status, _ := fx.do(t, http.MethodPost, "/api/v1/keys/move", `{"dt":0}`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, env := fx.do(t, http.MethodPost, "/api/v1/keys/move", `{"dt":15}`)
	require.Equal(t, http.StatusOK, status)
	var history handlers.HistoryResponse
	require.NoError(t, json.Unmarshal(env.Data, &history))
	assert.Equal(t, []string{"Move keyframes"}, history.Commands)
	assert.Equal(t, "Move keyframes", history.UndoText)

	key, ok := fx.blur.DimensionContexts()[0].KeyFrameAt(19)
	require.True(t, ok, "clamped against the key at 20")
	assert.Equal(t, 1.0, key.Value)

	status, _ = fx.do(t, http.MethodPost, "/api/v1/keys/interpolation", `{"interpolation":"wobbly"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	status, _ = fx.do(t, http.MethodPost, "/api/v1/keys/interpolation", `{"interpolation":"linear"}`)
	assert.Equal(t, http.StatusOK, status)

	status, _ = fx.do(t, http.MethodPost, "/api/v1/keys/scale", `{"pivotTime":0,"pivotValue":0,"scaleX":0,"scaleY":1}`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = fx.do(t, http.MethodPost, "/api/v1/undo", "")
	assert.Equal(t, http.StatusOK, status)
	status, _ = fx.do(t, http.MethodPost, "/api/v1/undo", "")
	assert.Equal(t, http.StatusOK, status)
	status, env = fx.do(t, http.MethodPost, "/api/v1/undo", "")
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "nothing to undo", env.Message)
	assert.Equal(t, handlers.CodeNothingToUndo, env.Code)

	status, _ = fx.do(t, http.MethodPost, "/api/v1/redo", "")
	assert.Equal(t, http.StatusOK, status)

	status, env = fx.do(t, http.MethodGet, "/api/v1/history", "")
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(env.Data, &history))
	assert.Equal(t, 1, history.Index)
	assert.Equal(t, "Set interpolation", history.RedoText)
}

func TestCopyPaste(t *testing.T) {
	fx := newAPIFixture(t)
	fx.selectKey(t, 10)

	status, _ := fx.do(t, http.MethodPost, "/api/v1/keys/copy", "")
	require.Equal(t, http.StatusOK, status)

	status, env := fx.do(t, http.MethodPost, "/api/v1/keys/paste", `{"relative":true}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION", env.Type)

	status, _ = fx.do(t, http.MethodPost, "/api/v1/keys/destinations", fmt.Sprintf(`{"rows":[%q]}`, fx.sizeRow()))
	require.Equal(t, http.StatusOK, status)

	status, _ = fx.do(t, http.MethodPost, "/api/v1/keys/paste", `{"relative":true}`)
	require.Equal(t, http.StatusOK, status)
	_, ok := fx.blur.DimensionContexts()[0].KeyFrameAt(100)
	assert.True(t, ok)

	status, _ = fx.do(t, http.MethodPost, "/api/v1/keys/delete", "")
	assert.Equal(t, http.StatusOK, status)
}

func TestReaderEndpoints(t *testing.T) {
	fx := newAPIFixture(t)
	readerPath := "/api/v1/readers/" + fx.reader.ID().String()

	status, env := fx.do(t, http.MethodPost, readerPath+"/slip", `{"dt":5}`)
	assert.Equal(t, http.StatusConflict, status, "an untrimmed reader cannot slip")
	assert.Equal(t, handlers.CodeNotTrimmed, env.Code)
	assert.Equal(t, "Read1", env.Details["node"])

	status, env = fx.do(t, http.MethodPost, readerPath+"/trim-left", `{"time":11}`)
	require.Equal(t, http.StatusOK, status)
	var row handlers.RowResponse
	require.NoError(t, json.Unmarshal(env.Data, &row))
	assert.Equal(t, &handlers.RangeResponse{Start: 11, End: 101}, row.Range)

	status, _ = fx.do(t, http.MethodPost, readerPath+"/trim-right", `{"time":90}`)
	require.Equal(t, http.StatusOK, status)

	status, _ = fx.do(t, http.MethodPost, readerPath+"/slip", `{"dt":50}`)
	assert.Equal(t, http.StatusOK, status)

	status, env = fx.do(t, http.MethodPost, "/api/v1/readers/"+fx.blur.ID().String()+"/trim-left", `{"time":3}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, handlers.CodeNotAReader, env.Code)
	assert.Equal(t, "common", env.Details["item_type"])
}

func TestRenameNode(t *testing.T) {
	fx := newAPIFixture(t)

	status, env := fx.do(t, http.MethodPost, "/api/v1/nodes/rename", `{"label":"Plate"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, services.MsgRenameNeedsOneNode, env.Message)

	status, _ = fx.do(t, http.MethodPost, "/api/v1/selection", fmt.Sprintf(`{"nodes":[%q],"flags":["add"]}`, fx.reader.ID()))
	require.Equal(t, http.StatusOK, status)
	status, _ = fx.do(t, http.MethodPost, "/api/v1/nodes/rename", `{"label":""}`)
	assert.Equal(t, http.StatusBadRequest, status)
	status, _ = fx.do(t, http.MethodPost, "/api/v1/nodes/rename", `{"label":"Plate"}`)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Plate", fx.reader.Label())
}

func TestRateLimit(t *testing.T) {
	ds := services.NewDopeSheet(nil, memory.NewTimeline(1), nil, nil, nil, zap.NewNop())
	router := NewRouter(handlers.NewDopeSheetHandler(ds, nil, nil), nil, Options{
		RateLimiter: ratelimit.NewSlidingWindowLimiter(2, time.Hour),
	}, zap.NewNop())
	server := httptest.NewServer(router.Setup())
	defer server.Close()

	get := func(path string) *http.Response {
		resp, err := http.Get(server.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		return resp
	}

	assert.Equal(t, http.StatusOK, get("/api/v1/history").StatusCode)
	assert.Equal(t, http.StatusOK, get("/api/v1/history").StatusCode)
	resp := get("/api/v1/history")
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "1", resp.Header.Get("Retry-After"))

	assert.Equal(t, http.StatusOK, get("/health").StatusCode, "health checks are not limited")
}
