package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"winechat/mockapi"
	"winechat/models"
)

const testClientID = "demo-winery"

func newTestClient(t *testing.T, language models.Language) (*SessionClient, *httptest.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ts := httptest.NewServer(mockapi.Router(testClientID))
	t.Cleanup(ts.Close)

	session := models.NewSession(testClientID, language)
	return New(ts.URL, session), ts
}

func TestAuthenticate(t *testing.T) {
	c, _ := newTestClient(t, models.LanguageIT)

	require.False(t, c.Authenticated())
	require.NoError(t, c.Authenticate(context.Background()))
	assert.True(t, c.Authenticated())
	assert.NotEmpty(t, c.Session().Token)
}

func TestAuthenticateFailureMarksUnauthenticated(t *testing.T) {
	session := models.NewSession(testClientID, models.LanguageIT)
	c := New("http://127.0.0.1:1", session)

	err := c.Authenticate(context.Background())
	require.Error(t, err)
	assert.False(t, c.Authenticated())
}

func TestSendMessage(t *testing.T) {
	c, _ := newTestClient(t, models.LanguageIT)
	require.NoError(t, c.Authenticate(context.Background()))

	reply, err := c.SendMessage(context.Background(), "ciao")
	require.NoError(t, err)
	assert.Contains(t, reply, "Grazie")
}

// Без токена вызов отклоняется локально, запрос не уходит в сеть
func TestUnauthenticatedCallsRefusedLocally(t *testing.T) {
	requests := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}))
	defer ts.Close()

	c := New(ts.URL, models.NewSession(testClientID, models.LanguageIT))

	_, err := c.SendMessage(context.Background(), "ciao")
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	_, err = c.SendToCustomEndpoint(context.Background(), ts.URL+"/api/winery/wines")
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	_, err = c.SendTastingStart(context.Background(), models.ModeBeginner, models.StageVisual, "w1")
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	_, err = c.SendTastingFeedback(context.Background(), "s1", "w1", models.StageVisual, "ok")
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	_, err = c.SendExperienceChatMessage(context.Background(), "e1", "ciao")
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	assert.Zero(t, requests)
}

func TestSendToCustomEndpointWineList(t *testing.T) {
	c, ts := newTestClient(t, models.LanguageIT)
	require.NoError(t, c.Authenticate(context.Background()))

	res, err := c.SendToCustomEndpoint(context.Background(), ts.URL+"/api/winery/wines")
	require.NoError(t, err)
	require.Equal(t, ResponseWineList, res.Kind)
	assert.NotEmpty(t, res.Wines)
	assert.Equal(t, "w1", res.Wines[0].ID)
}

// Быстрые действия задают эндпоинты относительными путями:
// путь разрешается относительно базового URL бэкенда
func TestSendToCustomEndpointRelativePath(t *testing.T) {
	c, _ := newTestClient(t, models.LanguageIT)
	require.NoError(t, c.Authenticate(context.Background()))

	res, err := c.SendToCustomEndpoint(context.Background(), "/api/winery/wines")
	require.NoError(t, err)
	require.Equal(t, ResponseWineList, res.Kind)
	assert.NotEmpty(t, res.Wines)
}

// Параметр language добавляется и к относительному эндпоинту опытов
func TestSendToCustomEndpointRelativeExperiences(t *testing.T) {
	c, _ := newTestClient(t, models.LanguageEN)
	require.NoError(t, c.Authenticate(context.Background()))

	res, err := c.SendToCustomEndpoint(context.Background(), "/api/winery/experiences")
	require.NoError(t, err)
	require.Equal(t, ResponseExperienceList, res.Kind)
	assert.Contains(t, res.Reply, "experiences")
}

func TestSendToCustomEndpointExperienceList(t *testing.T) {
	// язык добавляется к URL эндпоинта опытов: английская сессия
	// должна получить английскую преамбулу
	c, ts := newTestClient(t, models.LanguageEN)
	require.NoError(t, c.Authenticate(context.Background()))

	res, err := c.SendToCustomEndpoint(context.Background(), ts.URL+"/api/winery/experiences")
	require.NoError(t, err)
	require.Equal(t, ResponseExperienceList, res.Kind)
	assert.Contains(t, res.Reply, "experiences")
	assert.NotEmpty(t, res.Cards)
}

func TestSendTastingStart(t *testing.T) {
	c, _ := newTestClient(t, models.LanguageIT)
	require.NoError(t, c.Authenticate(context.Background()))

	session, err := c.SendTastingStart(context.Background(), models.ModeBeginner, models.StageVisual, "w1")
	require.NoError(t, err)
	assert.Equal(t, models.StageVisual, session.CurrentStage)
	assert.Equal(t, models.StageOlfactory, session.NextStage)
	assert.Equal(t, "w1", session.WineID)
	assert.NotEmpty(t, session.Chunks)
	assert.NotEmpty(t, session.PreviewText)
	assert.False(t, session.IsTerminal())
}

func TestSendTastingFeedback(t *testing.T) {
	c, _ := newTestClient(t, models.LanguageIT)
	require.NoError(t, c.Authenticate(context.Background()))

	reply, err := c.SendTastingFeedback(context.Background(), "s1", "w1", models.StageVisual, "colore rubino")
	require.NoError(t, err)
	assert.NotEmpty(t, reply)
}

func TestSendExperienceChatMessage(t *testing.T) {
	c, _ := newTestClient(t, models.LanguageIT)
	require.NoError(t, c.Authenticate(context.Background()))

	reply, err := c.SendExperienceChatMessage(context.Background(), "e1", "quanto dura?")
	require.NoError(t, err)
	assert.Contains(t, reply, "e1")
}
