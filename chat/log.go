package chat

import (
	"sync"

	"winechat/models"
)

// MessageLog — упорядоченный журнал сообщений одного потока общения.
// Журнал только дописывается, порядок вставки значим. Один и тот же тип
// обслуживает основной диалог, под-чат дегустации и под-чат опыта;
// экземпляры полностью независимы и никогда не сливаются.
//
// Журнал — пассивный держатель данных: гейт awaiting хранится здесь,
// но отказ в приеме ввода обеспечивают контроллеры потоков.
type MessageLog struct {
	mu       sync.Mutex
	messages []models.Message
	awaiting bool
	welcome  *models.Message
}

// NewMessageLog создает пустой журнал
func NewMessageLog() *MessageLog {
	return &MessageLog{}
}

// SetWelcome устанавливает одноразовую приветственную заглушку —
// синтетическое первое сообщение бота. Заглушка показывается до первого
// сообщения пользователя и затем убирается, в журнале она не числится.
func (l *MessageLog) SetWelcome(text string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	msg := models.NewMessage(text, models.AuthorBot)
	l.welcome = &msg
}

// Append дописывает сообщение в конец журнала. Первое сообщение
// пользователя снимает приветственную заглушку.
func (l *MessageLog) Append(msg models.Message) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if msg.Author == models.AuthorUser {
		l.welcome = nil
	}
	l.messages = append(l.messages, msg)
}

// Messages возвращает копию журнала; заглушка, пока она есть,
// показывается первой.
func (l *MessageLog) Messages() []models.Message {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]models.Message, 0, len(l.messages)+1)
	if l.welcome != nil {
		out = append(out, *l.welcome)
	}
	out = append(out, l.messages...)
	return out
}

// Len возвращает число сообщений журнала без учета заглушки
func (l *MessageLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.messages)
}

// HasWelcome сообщает, показывается ли еще приветственная заглушка
func (l *MessageLog) HasWelcome() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.welcome != nil
}

// TryBeginRequest атомарно занимает гейт ожидания ответа.
// Возвращает false, если предыдущий запрос потока еще не завершен.
func (l *MessageLog) TryBeginRequest() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.awaiting {
		return false
	}
	l.awaiting = true
	return true
}

// FinishRequest освобождает гейт после ответа, заглушки или ошибки
func (l *MessageLog) FinishRequest() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.awaiting = false
}

// IsAwaitingResponse сообщает, ждет ли поток ответа бэкенда
func (l *MessageLog) IsAwaitingResponse() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.awaiting
}
