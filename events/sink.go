package events

import (
	"winechat/models"
)

// Имена потоков виджета. У каждого потока собственный журнал сообщений
// и собственный гейт ввода; журналы никогда не сливаются.
const (
	FlowMain       = "main"
	FlowTasting    = "tasting"
	FlowExperience = "experience"
)

// Sink — граница отрисовки виджета. Ядро сообщает события, принимающая
// сторона (host-страница через WebSocket, тесты) решает, как их показать.
type Sink interface {
	// MessageAppended вызывается после добавления сообщения в журнал потока
	MessageAppended(flow string, msg models.Message)

	// TypingChanged переключает индикатор набора текста в потоке
	TypingChanged(flow string, typing bool)

	// TastingStateChanged сообщает новое состояние дегустации
	TastingStateChanged(state string, session *models.TastingSession)

	// ExperienceStateChanged сообщает новое состояние панели опыта
	ExperienceStateChanged(state string, detail *models.ExperienceDetail)

	// LinkRequested просит открыть внешнюю ссылку ("scopri di più")
	LinkRequested(url string)

	// WidgetClosed сообщает о полном уничтожении виджета
	WidgetClosed()
}

// NopSink — заглушка для случаев, когда отрисовка не нужна
type NopSink struct{}

func (NopSink) MessageAppended(string, models.Message)                  {}
func (NopSink) TypingChanged(string, bool)                              {}
func (NopSink) TastingStateChanged(string, *models.TastingSession)      {}
func (NopSink) ExperienceStateChanged(string, *models.ExperienceDetail) {}
func (NopSink) LinkRequested(string)                                    {}
func (NopSink) WidgetClosed()                                           {}
