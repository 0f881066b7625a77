package experience

import (
	"context"
	"errors"
	"log"
	"sync"

	"winechat/chat"
	"winechat/events"
	"winechat/i18n"
	"winechat/models"
)

// State — состояние панели опыта
type State string

const (
	StateNone   State = "none"
	StateDetail State = "detail"
	StateChat   State = "chat"
)

// ErrInvalidState — операция не доступна из текущего состояния панели
var ErrInvalidState = errors.New("операция недоступна в текущем состоянии панели опыта")

// API — сетевые операции под-чата опыта.
// Реализуется client.SessionClient; в тестах подменяется заглушкой.
type API interface {
	SendExperienceChatMessage(ctx context.Context, cardID, text string) (string, error)
}

// Flow — вторичная машина: панель деталей карточки опыта с возможностью
// перейти в выделенный под-чат, привязанный к идентификатору карточки.
//
// Карточка ищется по индексу в исходном payload последнего карточного
// сообщения основного журнала — без повторного запроса к сети.
type Flow struct {
	mu   sync.Mutex
	api  API
	sink events.Sink

	mainLog  *chat.MessageLog
	language models.Language

	state  State
	detail *models.ExperienceDetail
	subLog *chat.MessageLog
	epoch  int
}

// NewFlow создает машину панели опыта поверх основного журнала
func NewFlow(api API, mainLog *chat.MessageLog, language models.Language, sink events.Sink) *Flow {
	if sink == nil {
		sink = events.NopSink{}
	}
	return &Flow{
		api:      api,
		sink:     sink,
		mainLog:  mainLog,
		language: language,
		state:    StateNone,
	}
}

// State возвращает текущее состояние панели
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Detail возвращает данные открытой панели (nil, если панель закрыта)
func (f *Flow) Detail() *models.ExperienceDetail {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.detail
}

// SubLog возвращает журнал под-чата опыта (nil вне под-чата)
func (f *Flow) SubLog() *chat.MessageLog {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.subLog
}

// Open открывает панель деталей карточки по индексу из последнего
// карточного сообщения. Индекс вне границ — тихий no-op: пишем в лог и
// ничего не меняем.
func (f *Flow) Open(index int) bool {
	card, ok := f.lookup(index)
	if !ok {
		log.Printf("Карточка опыта с индексом %d не найдена", index)
		return false
	}

	detail := models.DetailFromCard(card, index)

	f.mu.Lock()
	f.state = StateDetail
	f.detail = &detail
	f.mu.Unlock()

	f.sink.ExperienceStateChanged(string(StateDetail), &detail)
	return true
}

// DiscoverMore просит открыть внешнюю ссылку карточки.
// Состояние панели не меняется.
func (f *Flow) DiscoverMore() {
	f.mu.Lock()
	detail := f.detail
	f.mu.Unlock()

	if detail == nil || detail.DiscoverMoreLink == "" {
		return
	}
	f.sink.LinkRequested(detail.DiscoverMoreLink)
}

// StartChat закрывает панель и открывает выделенный под-чат,
// привязанный к идентификатору показанной карточки. Данные панели
// снимаются в момент перехода.
func (f *Flow) StartChat() error {
	f.mu.Lock()
	if f.state != StateDetail || f.detail == nil {
		f.mu.Unlock()
		return ErrInvalidState
	}
	f.state = StateChat
	f.subLog = chat.NewMessageLog()
	detail := f.detail
	f.mu.Unlock()

	f.sink.ExperienceStateChanged(string(StateChat), detail)
	return nil
}

// SendMessage отправляет сообщение под-чата опыта; ответ reply
// добавляется в журнал напрямую.
func (f *Flow) SendMessage(ctx context.Context, text string) error {
	f.mu.Lock()
	if f.state != StateChat || f.detail == nil {
		f.mu.Unlock()
		return ErrInvalidState
	}
	detail := f.detail
	subLog := f.subLog
	epoch := f.epoch
	f.mu.Unlock()

	if !subLog.TryBeginRequest() {
		return chat.ErrBusy
	}
	defer subLog.FinishRequest()

	userMsg := models.NewMessage(text, models.AuthorUser)
	subLog.Append(userMsg)
	f.sink.MessageAppended(events.FlowExperience, userMsg)

	reply, err := f.api.SendExperienceChatMessage(ctx, detail.ID, text)
	if f.stale(epoch) {
		// под-чат закрыт, пока ждали ответ — поздний ответ отбрасывается
		return nil
	}
	if err != nil {
		log.Printf("Ошибка под-чата опыта %s: %v", detail.ID, err)
		apology := models.NewMessage(i18n.T(f.language, i18n.KeyApology), models.AuthorBot)
		subLog.Append(apology)
		f.sink.MessageAppended(events.FlowExperience, apology)
		return nil
	}

	botMsg := models.NewMessage(reply, models.AuthorBot)
	subLog.Append(botMsg)
	f.sink.MessageAppended(events.FlowExperience, botMsg)
	return nil
}

// Back возвращает из под-чата к панели деталей, заново выводя карточку
// по тому же индексу из исходного payload.
func (f *Flow) Back() error {
	f.mu.Lock()
	if f.state != StateChat || f.detail == nil {
		f.mu.Unlock()
		return ErrInvalidState
	}
	index := f.detail.Index
	f.mu.Unlock()

	card, ok := f.lookup(index)
	if !ok {
		log.Printf("Карточка опыта с индексом %d пропала, панель закрывается", index)
		f.Close()
		return nil
	}

	detail := models.DetailFromCard(card, index)

	f.mu.Lock()
	f.epoch++
	f.state = StateDetail
	f.detail = &detail
	f.subLog = nil
	f.mu.Unlock()

	f.sink.ExperienceStateChanged(string(StateDetail), &detail)
	return nil
}

// Close полностью сворачивает панель и под-чат; состояние не сохраняется
func (f *Flow) Close() {
	f.mu.Lock()
	if f.state == StateNone {
		f.mu.Unlock()
		return
	}
	f.epoch++
	f.state = StateNone
	f.detail = nil
	f.subLog = nil
	f.mu.Unlock()

	f.sink.ExperienceStateChanged(string(StateNone), nil)
}

// lookup ищет карточку по индексу в самом свежем карточном сообщении
// основного журнала (поиск от конца к началу)
func (f *Flow) lookup(index int) (models.ExperienceCard, bool) {
	messages := f.mainLog.Messages()
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Kind != models.KindExperienceList {
			continue
		}
		cards := messages[i].Cards
		if index < 0 || index >= len(cards) {
			return models.ExperienceCard{}, false
		}
		return cards[index], true
	}
	return models.ExperienceCard{}, false
}

func (f *Flow) stale(epoch int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.epoch != epoch
}
