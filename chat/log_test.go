package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"winechat/models"
)

func TestMessageLogAppendOrder(t *testing.T) {
	l := NewMessageLog()

	l.Append(models.NewMessage("uno", models.AuthorUser))
	l.Append(models.NewMessage("due", models.AuthorBot))
	l.Append(models.NewMessage("tre", models.AuthorUser))

	msgs := l.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, "uno", msgs[0].Text)
	assert.Equal(t, "due", msgs[1].Text)
	assert.Equal(t, "tre", msgs[2].Text)
}

func TestMessageLogWelcomePlaceholder(t *testing.T) {
	l := NewMessageLog()
	l.SetWelcome("Ciao!")

	require.True(t, l.HasWelcome())
	msgs := l.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "Ciao!", msgs[0].Text)
	assert.Equal(t, models.AuthorBot, msgs[0].Author)
	// заглушка не числится в журнале
	assert.Zero(t, l.Len())

	// сообщение бота заглушку не снимает
	l.Append(models.NewMessage("risposta", models.AuthorBot))
	assert.True(t, l.HasWelcome())

	// первое сообщение пользователя — снимает
	l.Append(models.NewMessage("ciao", models.AuthorUser))
	assert.False(t, l.HasWelcome())
	require.Len(t, l.Messages(), 2)
}

func TestMessageLogGate(t *testing.T) {
	l := NewMessageLog()

	assert.False(t, l.IsAwaitingResponse())
	require.True(t, l.TryBeginRequest())
	assert.True(t, l.IsAwaitingResponse())

	// повторный заход отклоняется, пока гейт занят
	assert.False(t, l.TryBeginRequest())

	l.FinishRequest()
	assert.False(t, l.IsAwaitingResponse())
	assert.True(t, l.TryBeginRequest())
}
