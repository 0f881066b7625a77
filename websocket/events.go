package websocket

import (
	"winechat/models"
)

// WidgetEvent представляет событие отрисовки для WebSocket
type WidgetEvent struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// HubSink транслирует события отрисовки виджета всем подключенным
// наблюдателям. Реализует events.Sink: ядро виджета сообщает, что
// показать, host-страница на том конце решает как.
type HubSink struct {
	hub *Hub
}

// NewHubSink создает sink поверх хаба
func NewHubSink(hub *Hub) *HubSink {
	return &HubSink{hub: hub}
}

// MessageAppended транслирует добавление сообщения в журнал потока
func (s *HubSink) MessageAppended(flow string, msg models.Message) {
	s.hub.Broadcast(WidgetEvent{
		Type: "message",
		Payload: struct {
			Flow    string         `json:"flow"`
			Message models.Message `json:"message"`
		}{Flow: flow, Message: msg},
	})
}

// TypingChanged транслирует переключение индикатора набора текста
func (s *HubSink) TypingChanged(flow string, typing bool) {
	s.hub.Broadcast(WidgetEvent{
		Type: "typing",
		Payload: struct {
			Flow   string `json:"flow"`
			Typing bool   `json:"typing"`
		}{Flow: flow, Typing: typing},
	})
}

// TastingStateChanged транслирует состояние машины дегустации
func (s *HubSink) TastingStateChanged(state string, session *models.TastingSession) {
	s.hub.Broadcast(WidgetEvent{
		Type: "tasting_state",
		Payload: struct {
			State   string                 `json:"state"`
			Session *models.TastingSession `json:"session,omitempty"`
		}{State: state, Session: session},
	})
}

// ExperienceStateChanged транслирует состояние панели опыта
func (s *HubSink) ExperienceStateChanged(state string, detail *models.ExperienceDetail) {
	s.hub.Broadcast(WidgetEvent{
		Type: "experience_state",
		Payload: struct {
			State  string                   `json:"state"`
			Detail *models.ExperienceDetail `json:"detail,omitempty"`
		}{State: state, Detail: detail},
	})
}

// LinkRequested просит host-страницу открыть внешнюю ссылку
func (s *HubSink) LinkRequested(url string) {
	s.hub.Broadcast(WidgetEvent{
		Type: "open_link",
		Payload: struct {
			URL string `json:"url"`
		}{URL: url},
	})
}

// WidgetClosed сообщает наблюдателям об уничтожении виджета
func (s *HubSink) WidgetClosed() {
	s.hub.Broadcast(WidgetEvent{Type: "widget_closed"})
}
