package websocket

import (
	"encoding/json"
	"log"
)

// SnapshotFunc возвращает текущее состояние виджета для нового
// наблюдателя. Вызывается из горутины хаба.
type SnapshotFunc func() interface{}

// Hub раздает события отрисовки виджета всем подключенным наблюдателям.
// Наблюдатель, подключившийся посреди разговора, первым делом получает
// событие state со снимком виджета и дальше живет на инкрементальных
// событиях — догонять историю по мосту ему не нужно.
type Hub struct {
	// Зарегистрированные наблюдатели
	clients map[*Client]bool

	// Исходящие события для всех наблюдателей
	broadcast chan []byte

	// Регистрация наблюдателя
	register chan *Client

	// Отмена регистрации наблюдателя
	unregister chan *Client

	// Снимок состояния для только что подключившихся
	snapshot SnapshotFunc
}

// NewHub создает хаб. snapshot может быть nil: тогда новые наблюдатели
// начинают с чистого листа.
func NewHub(snapshot SnapshotFunc) *Hub {
	return &Hub{
		broadcast:  make(chan []byte, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		snapshot:   snapshot,
	}
}

// Run запускает цикл хаба
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			h.sendSnapshot(client)
			log.Printf("Наблюдатель подключился. Всего наблюдателей: %d", len(h.clients))
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				log.Printf("Наблюдатель отключился. Всего наблюдателей: %d", len(h.clients))
			}
		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					close(client.send)
					delete(h.clients, client)
				}
			}
		}
	}
}

// Broadcast отправляет событие всем подключенным наблюдателям
func (h *Hub) Broadcast(message interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("Ошибка при маршализации события: %v", err)
		return
	}
	h.broadcast <- data
}

// sendSnapshot отдает новому наблюдателю снимок состояния виджета
func (h *Hub) sendSnapshot(client *Client) {
	if h.snapshot == nil {
		return
	}
	data, err := json.Marshal(WidgetEvent{Type: "state", Payload: h.snapshot()})
	if err != nil {
		log.Printf("Ошибка при маршализации снимка: %v", err)
		return
	}
	select {
	case client.send <- data:
	default:
		log.Printf("Буфер наблюдателя %s переполнен, снимок пропущен", client.ID)
	}
}
