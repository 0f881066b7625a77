package models

import (
	"github.com/google/uuid"
)

// Language — язык интерфейса виджета
type Language string

const (
	LanguageIT Language = "it"
	LanguageEN Language = "en"
)

// ParseLanguage приводит строку конфигурации к поддерживаемому языку.
// По умолчанию используется итальянский, как в исходном виджете.
func ParseLanguage(s string) Language {
	switch Language(s) {
	case LanguageIT, LanguageEN:
		return Language(s)
	default:
		return LanguageIT
	}
}

// Session — состояние сессии одного экземпляра виджета.
// Создается один раз при инициализации; токен получается единственным
// вызовом аутентификации. Идентификатор посетителя генерируется заново
// на каждый экземпляр и намеренно не сохраняется между перезагрузками.
type Session struct {
	Token         string    `json:"-"`
	VisitorID     uuid.UUID `json:"visitorId"`
	ClientID      string    `json:"clientId"`
	Language      Language  `json:"language"`
	Authenticated bool      `json:"authenticated"`
}

// NewSession создает сессию со свежим идентификатором посетителя
func NewSession(clientID string, language Language) *Session {
	return &Session{
		VisitorID: uuid.New(),
		ClientID:  clientID,
		Language:  language,
	}
}

// Reset сбрасывает сессию при уничтожении виджета
func (s *Session) Reset() {
	s.Token = ""
	s.Authenticated = false
}

// TastingMode — уровень подготовки пользователя в дегустации
type TastingMode string

const (
	ModeBeginner TastingMode = "beginner"
	ModeExpert   TastingMode = "expert"
)

// Этапы дегустации. StageFeedback — терминальный маркер: следующий
// этап с таким именем означает конец дегустации, а не новый запрос.
const (
	StageVisual    = "visual"
	StageOlfactory = "olfactory"
	StageGustative = "gustative"
	StageFeedback  = "feedback"
)

// StageChunk — один фрагмент текста этапа, проигрываемый с паузами
type StageChunk struct {
	Text string `json:"text"`
}

// TastingSession — состояние одного этапа дегустации.
// На каждом переходе этапа сессия заменяется целиком свежим ответом
// бэкенда, существующая сессия никогда не изменяется на месте.
type TastingSession struct {
	SessionID    string       `json:"sessionId,omitempty"`
	WineID       string       `json:"wineId"`
	WineCategory WineCategory `json:"wineCategory,omitempty"`
	Mode         TastingMode  `json:"mode"`
	CurrentStage string       `json:"currentStage"`
	NextStage    string       `json:"nextStage,omitempty"`
	Chunks       []StageChunk `json:"chunks"`
	PreviewText  string       `json:"previewText"`
}

// IsTerminal сообщает, что продолжать дегустацию некуда:
// следующий этап отсутствует либо равен маркеру feedback.
func (t *TastingSession) IsTerminal() bool {
	return t.NextStage == "" || t.NextStage == StageFeedback
}
