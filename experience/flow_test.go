package experience

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"winechat/chat"
	"winechat/i18n"
	"winechat/models"
)

// fakeAPI — заглушка под-чата опыта
type fakeAPI struct {
	reply    string
	sendErr  error
	sendHook func() // выполняется до возврата ответа

	calls      int
	lastCardID string
}

func (f *fakeAPI) SendExperienceChatMessage(_ context.Context, cardID, _ string) (string, error) {
	f.calls++
	f.lastCardID = cardID
	if f.sendHook != nil {
		f.sendHook()
	}
	return f.reply, f.sendErr
}

var testCards = []models.ExperienceCard{
	{
		ID:               "e1",
		Title:            "Tour della cantina",
		Description:      "Visita guidata",
		Duration:         "1h",
		Price:            "25€",
		DiscoverMoreLink: "https://example.com/tour",
	},
	{ID: "e2", Title: "Degustazione al tramonto"},
}

func newTestFlow(api *fakeAPI, cards []models.ExperienceCard) (*Flow, *chat.MessageLog) {
	mainLog := chat.NewMessageLog()
	if cards != nil {
		mainLog.Append(models.NewExperienceListMessage("Ecco le esperienze:", cards))
	}
	return NewFlow(api, mainLog, models.LanguageIT, nil), mainLog
}

func TestOpenShowsDetail(t *testing.T) {
	f, _ := newTestFlow(&fakeAPI{}, testCards)

	require.True(t, f.Open(0))

	assert.Equal(t, StateDetail, f.State())
	detail := f.Detail()
	require.NotNil(t, detail)
	assert.Equal(t, "e1", detail.ID)
	assert.Equal(t, 0, detail.Index)
	assert.Equal(t, "Tour della cantina", detail.Title)
	assert.Equal(t, "https://example.com/tour", detail.DiscoverMoreLink)
}

// Индекс вне границ — тихий no-op, панель не открывается
func TestOpenOutOfBoundsNoOp(t *testing.T) {
	f, _ := newTestFlow(&fakeAPI{}, testCards)

	assert.False(t, f.Open(5))
	assert.False(t, f.Open(-1))
	assert.Equal(t, StateNone, f.State())
	assert.Nil(t, f.Detail())
}

func TestOpenWithoutCardMessageNoOp(t *testing.T) {
	f, _ := newTestFlow(&fakeAPI{}, nil)

	assert.False(t, f.Open(0))
	assert.Equal(t, StateNone, f.State())
}

// Повторное открытие того же индекса возвращает идентичные данные:
// панель снимается с исходного payload, а не с сети
func TestOpenRoundTripIdentical(t *testing.T) {
	f, _ := newTestFlow(&fakeAPI{}, testCards)

	require.True(t, f.Open(1))
	first := *f.Detail()
	f.Close()

	require.True(t, f.Open(1))
	assert.Equal(t, first, *f.Detail())
}

// Поиск идет по самому свежему карточному сообщению журнала
func TestOpenUsesMostRecentCardMessage(t *testing.T) {
	f, mainLog := newTestFlow(&fakeAPI{}, testCards)
	mainLog.Append(models.NewExperienceListMessage("Novità:", []models.ExperienceCard{
		{ID: "e9", Title: "Vendemmia"},
	}))

	require.True(t, f.Open(0))
	assert.Equal(t, "e9", f.Detail().ID)

	assert.False(t, f.Open(1))
}

func TestStartChatBindsCard(t *testing.T) {
	api := &fakeAPI{reply: "Dura circa un'ora"}
	f, _ := newTestFlow(api, testCards)
	require.True(t, f.Open(0))

	require.NoError(t, f.StartChat())
	assert.Equal(t, StateChat, f.State())
	require.NotNil(t, f.SubLog())

	require.NoError(t, f.SendMessage(context.Background(), "quanto dura?"))

	assert.Equal(t, "e1", api.lastCardID)
	msgs := f.SubLog().Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "quanto dura?", msgs[0].Text)
	assert.Equal(t, models.AuthorUser, msgs[0].Author)
	assert.Equal(t, "Dura circa un'ora", msgs[1].Text)
	assert.Equal(t, models.AuthorBot, msgs[1].Author)
}

func TestStartChatRequiresOpenDetail(t *testing.T) {
	f, _ := newTestFlow(&fakeAPI{}, testCards)

	assert.ErrorIs(t, f.StartChat(), ErrInvalidState)
}

func TestSendMessageErrorRecovered(t *testing.T) {
	api := &fakeAPI{sendErr: errors.New("timeout")}
	f, _ := newTestFlow(api, testCards)
	require.True(t, f.Open(0))
	require.NoError(t, f.StartChat())

	require.NoError(t, f.SendMessage(context.Background(), "ciao"))

	msgs := f.SubLog().Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, i18n.T(models.LanguageIT, i18n.KeyApology), msgs[1].Text)
	assert.False(t, f.SubLog().IsAwaitingResponse())
}

// Панель свернута, пока ждали ответ под-чата: поздний ответ
// отбрасывается, журнал не растет
func TestLateReplyAfterCloseDiscarded(t *testing.T) {
	api := &fakeAPI{reply: "troppo tardi"}
	f, _ := newTestFlow(api, testCards)
	require.True(t, f.Open(0))
	require.NoError(t, f.StartChat())

	sub := f.SubLog()
	api.sendHook = f.Close

	require.NoError(t, f.SendMessage(context.Background(), "ciao"))

	// только сообщение пользователя; ответа бота нет
	msgs := sub.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, models.AuthorUser, msgs[0].Author)
	assert.Equal(t, StateNone, f.State())
	assert.Equal(t, 1, api.calls)
}

// Back заново выводит панель по тому же индексу; журнал под-чата не
// сохраняется
func TestBackRederivesDetail(t *testing.T) {
	api := &fakeAPI{reply: "ok"}
	f, _ := newTestFlow(api, testCards)
	require.True(t, f.Open(1))
	require.NoError(t, f.StartChat())
	require.NoError(t, f.SendMessage(context.Background(), "ciao"))

	require.NoError(t, f.Back())

	assert.Equal(t, StateDetail, f.State())
	assert.Equal(t, "e2", f.Detail().ID)
	assert.Nil(t, f.SubLog())
}

// Если карточка пропала из журнала, Back сворачивает панель целиком
func TestBackClosesWhenCardGone(t *testing.T) {
	f, mainLog := newTestFlow(&fakeAPI{}, testCards)
	require.True(t, f.Open(1))
	require.NoError(t, f.StartChat())

	mainLog.Append(models.NewExperienceListMessage("Novità:", []models.ExperienceCard{
		{ID: "e9", Title: "Vendemmia"},
	}))

	require.NoError(t, f.Back())
	assert.Equal(t, StateNone, f.State())
	assert.Nil(t, f.Detail())
}

func TestCloseDiscardsEverything(t *testing.T) {
	f, _ := newTestFlow(&fakeAPI{}, testCards)
	require.True(t, f.Open(0))
	require.NoError(t, f.StartChat())

	f.Close()

	assert.Equal(t, StateNone, f.State())
	assert.Nil(t, f.Detail())
	assert.Nil(t, f.SubLog())

	assert.ErrorIs(t, f.SendMessage(context.Background(), "ciao"), ErrInvalidState)
}
