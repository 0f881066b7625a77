package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"winechat/handlers"
	"winechat/middleware"
	"winechat/mockapi"
	"winechat/websocket"
	"winechat/widget"
)

const demoClientID = "demo-winery"

func main() {
	// Мок-бэкенд винодельни для локальной разработки
	backendAddr := os.Getenv("WINECHAT_BACKEND_ADDR")
	if backendAddr == "" {
		backendAddr = ":8081"
	}
	backend := mockapi.Router(demoClientID)
	go func() {
		log.Printf("Мок-бэкенд запущен на порту %s", backendAddr)
		if err := backend.Run(backendAddr); err != nil {
			log.Fatalf("Ошибка запуска мок-бэкенда: %v", err)
		}
	}()

	// Даем мок-бэкенду подняться до аутентификации виджета
	time.Sleep(200 * time.Millisecond)

	// WebSocket хаб для событий отрисовки; новый наблюдатель получает
	// снимок виджета при подключении
	var w *widget.Widget
	hub := websocket.NewHub(func() interface{} {
		if w == nil {
			return nil
		}
		return w.Snapshot()
	})
	go hub.Run()

	// Экземпляр виджета поверх мок-бэкенда
	w, err := widget.New(widget.Config{
		ClientID:         demoClientID,
		Language:         os.Getenv("WINECHAT_LANGUAGE"),
		ShowQuickActions: true,
		APIBaseURL:       os.Getenv("WINECHAT_API_URL"),
	}, websocket.NewHubSink(hub))
	if err != nil {
		log.Fatalf("Ошибка сборки виджета: %v", err)
	}
	if err := w.Init(context.Background()); err != nil {
		log.Fatalf("Ошибка инициализации виджета: %v", err)
	}

	// HTTP-мост для host-страницы
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger())

	// Настройка CORS для взаимодействия с host-страницей
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	bridge := handlers.NewWidgetBridge(w)
	bridge.Register(r)

	// WebSocket эндпоинт для наблюдателей
	r.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(hub, c.Writer, c.Request)
	})

	bridgeAddr := os.Getenv("WINECHAT_BRIDGE_ADDR")
	if bridgeAddr == "" {
		bridgeAddr = ":8080"
	}
	log.Printf("Мост виджета запущен на порту %s", bridgeAddr)
	if err := r.Run(bridgeAddr); err != nil {
		log.Fatalf("Ошибка запуска моста: %v", err)
	}
}
