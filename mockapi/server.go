package mockapi

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"winechat/middleware"
	"winechat/models"
)

// Мок-бэкенд винодельни для разработки и тестов. Реализует сетевой
// контракт виджета: выдачу токена, ответы ассистента, каталоги карточек
// и этапы дегустации. Формы ответов намеренно разные — виджет
// классифицирует их по форме тела, и мок это воспроизводит.

// stageSpec описывает один этап дегустации
type stageSpec struct {
	next    string
	preview string
	chunks  []string
}

// Таблица этапов: visual → olfactory → gustative → feedback (маркер конца)
var stages = map[string]stageSpec{
	models.StageVisual: {
		next:    models.StageOlfactory,
		preview: "Cominciamo dall'esame visivo: osserva il vino nel calice.",
		chunks: []string{
			"Inclina leggermente il calice su uno sfondo bianco.",
			"Osserva il colore e la sua intensità: ti racconta l'età del vino.",
		},
	},
	models.StageOlfactory: {
		next:    models.StageGustative,
		preview: "Passiamo all'esame olfattivo: avvicina il naso al calice.",
		chunks: []string{
			"Fai roteare il vino per liberare gli aromi.",
			"Cerca i profumi di frutta, fiori o spezie.",
		},
	},
	models.StageGustative: {
		next:    models.StageFeedback,
		preview: "Infine l'assaggio: un piccolo sorso, senza fretta.",
		chunks: []string{
			"Lascia che il vino tocchi tutta la lingua.",
			"Nota l'equilibrio tra acidità, tannini e morbidezza.",
		},
	},
}

// Каталог вин мок-винодельни
var wines = []models.Wine{
	{ID: "w1", Name: "Chianti Classico", Category: "red", Year: "2019", Description: "Sangiovese in purezza, note di ciliegia e viola."},
	{ID: "w2", Name: "Vernaccia di San Gimignano", Category: "white", Year: "2022", Description: "Fresco e minerale, finale ammandorlato."},
	{ID: "w3", Name: "Rosato di Toscana", Category: "rose", Year: "2023", Description: "Profumi di fragolina e melograno."},
}

// Каталог опытов мок-винодельни
var experiences = []models.ExperienceCard{
	{ID: "e1", Title: "Tour della cantina", Description: "Visita guidata tra le botti storiche.", Duration: "1h", Price: "25€", DiscoverMoreLink: "https://example.com/tour"},
	{ID: "e2", Title: "Degustazione al tramonto", Description: "Tre calici in terrazza sul vigneto.", Duration: "2h", Price: "45€", DiscoverMoreLink: "https://example.com/tramonto"},
}

// Router собирает gin-движок мок-бэкенда. Маршрут сообщений включает
// clientId в путь, поэтому движок собирается под конкретного клиента.
func Router(clientID string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger())

	// Настройка CORS для взаимодействия с host-страницей
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://localhost:8080"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	// Выдача токена по учетным данным клиента (публичный эндпоинт)
	r.POST("/auth/token", issueToken)

	// Защищенные маршруты
	authorized := r.Group("/")
	authorized.Use(middleware.AuthMiddleware())
	{
		authorized.POST(fmt.Sprintf("/%s/message", clientID), handleMessage)

		api := authorized.Group("/api")
		{
			api.GET("/winery/wines", listWines)
			api.GET("/winery/experiences", listExperiences)
			api.POST("/wine-tasting", startTasting)
			api.POST("/wine-tasting/feedback", tastingFeedback)
			api.POST("/winery/experiences/message", experienceChat)
		}
	}

	return r
}

// issueToken выдает JWT по идентификатору клиента
func issueToken(c *gin.Context) {
	var credentials struct {
		ClientID string `json:"clientId" binding:"required"`
	}

	if err := c.ShouldBindJSON(&credentials); err != nil {
		log.Printf("Ошибка парсинга данных для авторизации: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, err := middleware.GenerateToken(credentials.ClientID)
	if err != nil {
		log.Printf("Ошибка генерации токена для %s: %v", credentials.ClientID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "не удалось выдать токен"})
		return
	}

	log.Printf("Выдан токен для клиента: %s", credentials.ClientID)
	c.JSON(http.StatusOK, gin.H{"token": token})
}

// handleMessage отвечает на свободный текст основного диалога.
// Форма ответа — массив объектов с полем text, как у настоящего бэкенда.
func handleMessage(c *gin.Context) {
	var messageData struct {
		Text      string `json:"text" binding:"required"`
		VisitorID string `json:"visitorId"`
		ClientID  string `json:"clientId"`
		Language  string `json:"language"`
	}

	if err := c.ShouldBindJSON(&messageData); err != nil {
		log.Printf("Ошибка в формате сообщения: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректные данные: " + err.Error()})
		return
	}

	log.Printf("Сообщение от посетителя %s: %s", messageData.VisitorID, messageData.Text)

	reply := "Grazie per il tuo messaggio! Posso consigliarti i nostri vini o le esperienze in cantina."
	if models.ParseLanguage(messageData.Language) == models.LanguageEN {
		reply = "Thanks for your message! I can recommend our wines or winery experiences."
	}

	c.JSON(http.StatusOK, []gin.H{{"text": reply}})
}

// listWines возвращает каталог вин в форме {wines: [...]}
func listWines(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"wines": wines})
}

// listExperiences возвращает каталог опытов в форме {reply, cards}
func listExperiences(c *gin.Context) {
	reply := "Ecco le esperienze che puoi vivere in cantina:"
	if models.ParseLanguage(c.Query("language")) == models.LanguageEN {
		reply = "Here are the experiences you can enjoy at the winery:"
	}
	c.JSON(http.StatusOK, gin.H{"reply": reply, "cards": experiences})
}

// startTasting выдает сессию запрошенного этапа дегустации
func startTasting(c *gin.Context) {
	var tastingData struct {
		Level     string `json:"level" binding:"required"`
		Stage     string `json:"stage" binding:"required"`
		WineID    string `json:"wineId" binding:"required"`
		VisitorID string `json:"visitorId"`
		Language  string `json:"language"`
	}

	if err := c.ShouldBindJSON(&tastingData); err != nil {
		log.Printf("Ошибка в формате запроса дегустации: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректные данные: " + err.Error()})
		return
	}

	spec, ok := stages[tastingData.Stage]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "неизвестный этап дегустации: " + tastingData.Stage})
		return
	}

	chunks := make([]gin.H, 0, len(spec.chunks))
	for _, text := range spec.chunks {
		chunks = append(chunks, gin.H{"text": text})
	}

	log.Printf("Этап дегустации %s для вина %s (уровень %s)",
		tastingData.Stage, tastingData.WineID, tastingData.Level)

	c.JSON(http.StatusOK, gin.H{
		"sessionId":    uuid.New().String(),
		"mode":         tastingData.Level,
		"currentStage": tastingData.Stage,
		"nextStage":    spec.next,
		"chunks":       chunks,
		"previewText":  spec.preview,
	})
}

// tastingFeedback отвечает на свободный текст внутри этапа
func tastingFeedback(c *gin.Context) {
	var feedbackData struct {
		SessionID string `json:"sessionId"`
		WineID    string `json:"wineId"`
		Stage     string `json:"stage"`
		Feedback  string `json:"feedback" binding:"required"`
	}

	if err := c.ShouldBindJSON(&feedbackData); err != nil {
		log.Printf("Ошибка в формате отзыва: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректные данные: " + err.Error()})
		return
	}

	log.Printf("Отзыв на этапе %s: %s", feedbackData.Stage, feedbackData.Feedback)

	c.JSON(http.StatusOK, gin.H{
		"responseToFeedback": "Ottima osservazione! Continuiamo quando sei pronto.",
	})
}

// experienceChat отвечает в под-чате, привязанном к карточке опыта
func experienceChat(c *gin.Context) {
	var chatData struct {
		CardID   string `json:"cardId" binding:"required"`
		Text     string `json:"text" binding:"required"`
		Language string `json:"language"`
	}

	if err := c.ShouldBindJSON(&chatData); err != nil {
		log.Printf("Ошибка в формате сообщения под-чата: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректные данные: " + err.Error()})
		return
	}

	log.Printf("Под-чат опыта %s: %s", chatData.CardID, chatData.Text)

	reply := fmt.Sprintf("Con piacere! Ti racconto di più su questa esperienza (%s).", chatData.CardID)
	if models.ParseLanguage(chatData.Language) == models.LanguageEN {
		reply = fmt.Sprintf("With pleasure! Let me tell you more about this experience (%s).", chatData.CardID)
	}

	c.JSON(http.StatusOK, gin.H{"reply": reply})
}
