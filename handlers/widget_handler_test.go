package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"winechat/mockapi"
	"winechat/models"
	"winechat/tasting"
	"winechat/widget"
)

const testClientID = "demo-winery"

func newTestBridge(t *testing.T) (*gin.Engine, *widget.Widget) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	backend := httptest.NewServer(mockapi.Router(testClientID))
	t.Cleanup(backend.Close)

	w, err := widget.New(widget.Config{
		ClientID:         testClientID,
		APIBaseURL:       backend.URL,
		ShowQuickActions: true,
		Delays:           &tasting.Delays{},
	}, nil)
	require.NoError(t, err)
	require.NoError(t, w.Init(context.Background()))

	r := gin.New()
	NewWidgetBridge(w).Register(r)
	return r, w
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, gin.H) {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("{}")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var parsed gin.H
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &parsed))
	}
	return rec, parsed
}

func TestGetStateSnapshot(t *testing.T) {
	r, _ := newTestBridge(t)

	rec, body := doJSON(t, r, http.MethodGet, "/widget/state", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "none", body["tastingState"])
	assert.Equal(t, "none", body["experienceState"])
	assert.Equal(t, false, body["awaitingResponse"])
	assert.Equal(t, true, body["showQuickActions"])
	assert.Equal(t, "light", body["theme"])
	// в снимке уже лежит приветственная заглушка
	messages, ok := body["messages"].([]any)
	require.True(t, ok)
	assert.Len(t, messages, 1)
}

func TestPostMessage(t *testing.T) {
	r, w := newTestBridge(t)

	rec, _ := doJSON(t, r, http.MethodPost, "/widget/message", `{"text":"ciao"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	msgs := w.Log().Messages()
	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[1].Text, "Grazie")
}

func TestPostMessageEmptyRejected(t *testing.T) {
	r, _ := newTestBridge(t)

	rec, _ := doJSON(t, r, http.MethodPost, "/widget/message", `{"text":"   "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = doJSON(t, r, http.MethodPost, "/widget/message", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPostMessageBusyGate(t *testing.T) {
	r, w := newTestBridge(t)

	require.True(t, w.Log().TryBeginRequest())
	rec, _ := doJSON(t, r, http.MethodPost, "/widget/message", `{"text":"ciao"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	w.Log().FinishRequest()
}

func TestTastingChainOverBridge(t *testing.T) {
	r, w := newTestBridge(t)

	rec, _ := doJSON(t, r, http.MethodPost, "/widget/quick-action",
		`{"text":"Vini","endpoint":"/api/winery/wines"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, body := doJSON(t, r, http.MethodPost, "/widget/tasting/start", `{"index":0}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, string(tasting.StateLevelSelect), body["state"])

	rec, body = doJSON(t, r, http.MethodPost, "/widget/tasting/level", `{"level":"beginner"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	session, ok := body["session"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, models.StageVisual, session["currentStage"])

	rec, _ = doJSON(t, r, http.MethodPost, "/widget/tasting/begin", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, w.Tasting().PlaybackDone())

	rec, body = doJSON(t, r, http.MethodPost, "/widget/tasting/continue", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, string(tasting.StateStagePreview), body["state"])
}

func TestTastingInvalidOrderConflict(t *testing.T) {
	r, _ := newTestBridge(t)

	// begin до start — конфликт состояния
	rec, _ := doJSON(t, r, http.MethodPost, "/widget/tasting/begin", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestTastingStartUnknownIndex(t *testing.T) {
	r, _ := newTestBridge(t)

	rec, _ := doJSON(t, r, http.MethodPost, "/widget/tasting/start", `{"index":7}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExperiencePanelOverBridge(t *testing.T) {
	r, w := newTestBridge(t)

	rec, _ := doJSON(t, r, http.MethodPost, "/widget/quick-action",
		`{"text":"Esperienze","endpoint":"/api/winery/experiences"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, body := doJSON(t, r, http.MethodPost, "/widget/experience/open", `{"index":0}`)
	require.Equal(t, http.StatusOK, rec.Code)
	detail, ok := body["detail"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "e1", detail["id"])

	rec, _ = doJSON(t, r, http.MethodPost, "/widget/experience/chat", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = doJSON(t, r, http.MethodPost, "/widget/experience/message", `{"text":"quanto dura?"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, w.Experience().SubLog())
	assert.Equal(t, 2, w.Experience().SubLog().Len())

	rec, _ = doJSON(t, r, http.MethodPost, "/widget/experience/back", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = doJSON(t, r, http.MethodPost, "/widget/experience/close", "")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestCloseDestroysWidget(t *testing.T) {
	r, w := newTestBridge(t)

	rec, _ := doJSON(t, r, http.MethodPost, "/widget/close", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, w.Initialized())
}
