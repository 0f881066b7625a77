package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"winechat/chat"
	"winechat/experience"
	"winechat/models"
	"winechat/tasting"
	"winechat/widget"
)

// WidgetBridge — HTTP-мост между host-страницей и одним экземпляром
// виджета. Мост обслуживает ровно один виджет: это явное предусловие
// вместо глобального синглтона исходника. События отрисовки уходят
// наблюдателям через WebSocket, мост только принимает действия.
type WidgetBridge struct {
	w *widget.Widget
}

// NewWidgetBridge создает мост для экземпляра виджета
func NewWidgetBridge(w *widget.Widget) *WidgetBridge {
	return &WidgetBridge{w: w}
}

// Register вешает маршруты моста на движок
func (b *WidgetBridge) Register(r *gin.Engine) {
	wg := r.Group("/widget")
	{
		wg.GET("/state", b.GetState)
		wg.POST("/message", b.PostMessage)
		wg.POST("/quick-action", b.PostQuickAction)
		wg.POST("/close", b.Close)

		t := wg.Group("/tasting")
		{
			t.POST("/start", b.TastingStart)
			t.POST("/level", b.TastingLevel)
			t.POST("/begin", b.TastingBegin)
			t.POST("/feedback", b.TastingFeedback)
			t.POST("/continue", b.TastingContinue)
			t.POST("/dismiss-error", b.TastingDismissError)
			t.POST("/close", b.TastingClose)
		}

		e := wg.Group("/experience")
		{
			e.POST("/open", b.ExperienceOpen)
			e.POST("/discover-more", b.ExperienceDiscoverMore)
			e.POST("/chat", b.ExperienceChat)
			e.POST("/message", b.ExperienceMessage)
			e.POST("/back", b.ExperienceBack)
			e.POST("/close", b.ExperienceClose)
		}
	}
}

// GetState возвращает снимок всего виджета для первичной отрисовки
func (b *WidgetBridge) GetState(c *gin.Context) {
	c.JSON(http.StatusOK, b.w.Snapshot())
}

// PostMessage отправляет свободный текст в основной диалог
func (b *WidgetBridge) PostMessage(c *gin.Context) {
	var messageData struct {
		Text string `json:"text" binding:"required"`
	}

	if err := c.ShouldBindJSON(&messageData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректные данные: " + err.Error()})
		return
	}

	if err := b.w.Conversation().Submit(c.Request.Context(), messageData.Text); err != nil {
		b.flowError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// PostQuickAction выполняет быстрое действие с фиксированным эндпоинтом
func (b *WidgetBridge) PostQuickAction(c *gin.Context) {
	var actionData struct {
		Text     string `json:"text" binding:"required"`
		Endpoint string `json:"endpoint" binding:"required"`
	}

	if err := c.ShouldBindJSON(&actionData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректные данные: " + err.Error()})
		return
	}

	if err := b.w.Conversation().TriggerQuickAction(c.Request.Context(), actionData.Text, actionData.Endpoint); err != nil {
		b.flowError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Close уничтожает виджет по команде host-страницы
func (b *WidgetBridge) Close(c *gin.Context) {
	b.w.Destroy()
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// TastingStart запускает дегустацию по индексу винной карточки
func (b *WidgetBridge) TastingStart(c *gin.Context) {
	var startData struct {
		Index *int `json:"index" binding:"required"`
	}

	if err := c.ShouldBindJSON(&startData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректные данные: " + err.Error()})
		return
	}

	if !b.w.StartTasting(*startData.Index) {
		c.JSON(http.StatusNotFound, gin.H{"error": "винная карточка не найдена"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok", "state": b.w.Tasting().State()})
}

// TastingLevel фиксирует уровень подготовки и запрашивает первый этап
func (b *WidgetBridge) TastingLevel(c *gin.Context) {
	var levelData struct {
		Level string `json:"level" binding:"required"`
	}

	if err := c.ShouldBindJSON(&levelData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректные данные: " + err.Error()})
		return
	}

	mode := models.TastingMode(levelData.Level)
	if mode != models.ModeBeginner && mode != models.ModeExpert {
		c.JSON(http.StatusBadRequest, gin.H{"error": "неизвестный уровень: " + levelData.Level})
		return
	}

	if err := b.w.Tasting().SelectLevel(c.Request.Context(), mode); err != nil {
		// сетевая ошибка уже показана оверлеем; сообщаем и мосту
		b.flowError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok", "session": b.w.Tasting().Session()})
}

// TastingBegin начинает интерактивный под-чат этапа. Ответ возвращается
// после показа всех фрагментов.
func (b *WidgetBridge) TastingBegin(c *gin.Context) {
	if err := b.w.Tasting().BeginStage(); err != nil {
		b.flowError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// TastingFeedback отправляет свободный текст внутри этапа
func (b *WidgetBridge) TastingFeedback(c *gin.Context) {
	var feedbackData struct {
		Text string `json:"text" binding:"required"`
	}

	if err := c.ShouldBindJSON(&feedbackData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректные данные: " + err.Error()})
		return
	}

	if err := b.w.Tasting().SendFeedback(c.Request.Context(), feedbackData.Text); err != nil {
		b.flowError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// TastingContinue переходит к следующему этапу или завершает дегустацию
func (b *WidgetBridge) TastingContinue(c *gin.Context) {
	if err := b.w.Tasting().ContinueToNextStage(c.Request.Context()); err != nil {
		b.flowError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "state": b.w.Tasting().State()})
}

// TastingDismissError закрывает оверлей ошибки дегустации
func (b *WidgetBridge) TastingDismissError(c *gin.Context) {
	b.w.Tasting().DismissError()
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// TastingClose принудительно сворачивает дегустацию
func (b *WidgetBridge) TastingClose(c *gin.Context) {
	b.w.Tasting().Close()
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ExperienceOpen открывает панель деталей карточки опыта
func (b *WidgetBridge) ExperienceOpen(c *gin.Context) {
	var openData struct {
		Index *int `json:"index" binding:"required"`
	}

	if err := c.ShouldBindJSON(&openData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректные данные: " + err.Error()})
		return
	}

	if !b.w.Experience().Open(*openData.Index) {
		c.JSON(http.StatusNotFound, gin.H{"error": "карточка опыта не найдена"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok", "detail": b.w.Experience().Detail()})
}

// ExperienceDiscoverMore просит открыть внешнюю ссылку карточки
func (b *WidgetBridge) ExperienceDiscoverMore(c *gin.Context) {
	b.w.Experience().DiscoverMore()
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ExperienceChat переходит из панели в выделенный под-чат карточки
func (b *WidgetBridge) ExperienceChat(c *gin.Context) {
	if err := b.w.Experience().StartChat(); err != nil {
		b.flowError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ExperienceMessage отправляет сообщение под-чата опыта
func (b *WidgetBridge) ExperienceMessage(c *gin.Context) {
	var messageData struct {
		Text string `json:"text" binding:"required"`
	}

	if err := c.ShouldBindJSON(&messageData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректные данные: " + err.Error()})
		return
	}

	if err := b.w.Experience().SendMessage(c.Request.Context(), messageData.Text); err != nil {
		b.flowError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ExperienceBack возвращает из под-чата к панели деталей
func (b *WidgetBridge) ExperienceBack(c *gin.Context) {
	if err := b.w.Experience().Back(); err != nil {
		b.flowError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ExperienceClose сворачивает панель и под-чат опыта
func (b *WidgetBridge) ExperienceClose(c *gin.Context) {
	b.w.Experience().Close()
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// flowError переводит ошибки машин состояний в HTTP-коды
func (b *WidgetBridge) flowError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, chat.ErrEmptyMessage):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, chat.ErrBusy):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
	case errors.Is(err, tasting.ErrInvalidState),
		errors.Is(err, tasting.ErrPlaybackActive),
		errors.Is(err, experience.ErrInvalidState):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		log.Printf("Ошибка операции виджета: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	}
}
