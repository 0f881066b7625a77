package chat

import (
	"context"
	"errors"
	"log"
	"strings"

	"winechat/client"
	"winechat/events"
	"winechat/i18n"
	"winechat/models"
)

var (
	// ErrEmptyMessage — пустой ввод не отправляется
	ErrEmptyMessage = errors.New("пустое сообщение")
	// ErrBusy — предыдущий запрос еще не завершен, ввод отклонен
	ErrBusy = errors.New("ожидается ответ на предыдущее сообщение")
)

// API — сетевые операции, нужные основному диалогу.
// Реализуется client.SessionClient; в тестах подменяется заглушкой.
type API interface {
	Authenticated() bool
	SendMessage(ctx context.Context, text string) (string, error)
	SendToCustomEndpoint(ctx context.Context, url string) (client.ClassifiedResponse, error)
}

// Controller — оркестратор основного диалога виджета.
//
// Машина состояний проста: Idle → (submit) → Awaiting → Idle. Пока гейт
// занят, новый ввод отклоняется без сетевого вызова. Любая ошибка сети
// или формы ответа гасится локально: в журнал добавляется извинение,
// гейт освобождается, наружу ничего фатального не уходит.
type Controller struct {
	log      *MessageLog
	api      API
	language models.Language
	sink     events.Sink
}

// NewController создает контроллер основного диалога
func NewController(msgLog *MessageLog, api API, language models.Language, sink events.Sink) *Controller {
	if sink == nil {
		sink = events.NopSink{}
	}
	return &Controller{
		log:      msgLog,
		api:      api,
		language: language,
		sink:     sink,
	}
}

// Log возвращает журнал основного диалога
func (c *Controller) Log() *MessageLog {
	return c.log
}

// Submit отправляет свободный текст пользователя.
// Ровно одно сообщение пользователя добавляется сразу и ровно один
// ответ бота (или карточный побочный эффект) — по завершении.
func (c *Controller) Submit(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyMessage
	}
	if !c.log.TryBeginRequest() {
		return ErrBusy
	}
	defer c.log.FinishRequest()

	c.appendMessage(models.NewMessage(text, models.AuthorUser))

	// Без токена работаем в деградированном режиме: заготовленный
	// ответ вместо сетевого вызова, на все время жизни экземпляра.
	if !c.api.Authenticated() {
		c.appendMessage(models.NewMessage(i18n.T(c.language, i18n.KeyOffline), models.AuthorBot))
		return nil
	}

	c.sink.TypingChanged(events.FlowMain, true)
	reply, err := c.api.SendMessage(ctx, text)
	c.sink.TypingChanged(events.FlowMain, false)
	if err != nil {
		log.Printf("Ошибка отправки сообщения: %v", err)
		c.appendMessage(models.NewMessage(i18n.T(c.language, i18n.KeyApology), models.AuthorBot))
		return nil
	}

	c.appendMessage(models.NewMessage(reply, models.AuthorBot))
	return nil
}

// TriggerQuickAction выполняет быстрое действие: текст и эндпоинт
// зафиксированы элементом интерфейса, а не введены пользователем.
// Гейт действует так же, как для свободного текста.
func (c *Controller) TriggerQuickAction(ctx context.Context, text, endpoint string) error {
	if !c.log.TryBeginRequest() {
		return ErrBusy
	}
	defer c.log.FinishRequest()

	c.appendMessage(models.NewMessage(text, models.AuthorUser))

	if !c.api.Authenticated() {
		c.appendMessage(models.NewMessage(i18n.T(c.language, i18n.KeyOffline), models.AuthorBot))
		return nil
	}

	c.sink.TypingChanged(events.FlowMain, true)
	res, err := c.api.SendToCustomEndpoint(ctx, endpoint)
	c.sink.TypingChanged(events.FlowMain, false)
	if err != nil {
		log.Printf("Ошибка быстрого действия %s: %v", endpoint, err)
		c.appendMessage(models.NewMessage(i18n.T(c.language, i18n.KeyApology), models.AuthorBot))
		return nil
	}

	switch res.Kind {
	case client.ResponseWineList:
		c.appendMessage(models.NewWineListMessage(res.Wines))
	case client.ResponseExperienceList:
		// Для списков опытов текст reply идет преамбулой перед карточками
		if res.Reply != "" {
			c.appendMessage(models.NewMessage(res.Reply, models.AuthorBot))
		}
		c.appendMessage(models.NewExperienceListMessage(res.Reply, res.Cards))
	default:
		c.appendMessage(models.NewMessage(res.Text, models.AuthorBot))
	}
	return nil
}

func (c *Controller) appendMessage(msg models.Message) {
	c.log.Append(msg)
	c.sink.MessageAppended(events.FlowMain, msg)
}
