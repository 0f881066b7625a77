package models

import (
	"time"

	"github.com/google/uuid"
)

// Author обозначает отправителя сообщения
type Author string

const (
	AuthorUser Author = "user"
	AuthorBot  Author = "bot"
)

// Kind определяет вид сообщения в ленте
type Kind string

const (
	KindPlain          Kind = "plain"
	KindWineList       Kind = "wineList"
	KindExperienceList Kind = "experienceList"
	KindActionList     Kind = "actionList"
)

// Message представляет собой одно сообщение диалога.
// После создания сообщение не изменяется. Карточные сообщения хранят
// исходный payload бэкенда, чтобы последующий выбор карточки по индексу
// не требовал повторного запроса.
type Message struct {
	ID        uuid.UUID        `json:"id"`
	Text      string           `json:"text"`
	Author    Author           `json:"author"`
	CreatedAt time.Time        `json:"createdAt"`
	Kind      Kind             `json:"kind"`
	Wines     []Wine           `json:"wines,omitempty"`
	Cards     []ExperienceCard `json:"cards,omitempty"`
}

// NewMessage создает обычное текстовое сообщение
func NewMessage(text string, author Author) Message {
	return Message{
		ID:        uuid.New(),
		Text:      text,
		Author:    author,
		CreatedAt: time.Now(),
		Kind:      KindPlain,
	}
}

// NewWineListMessage создает сообщение бота со списком винных карточек
func NewWineListMessage(wines []Wine) Message {
	return Message{
		ID:        uuid.New(),
		Author:    AuthorBot,
		CreatedAt: time.Now(),
		Kind:      KindWineList,
		Wines:     wines,
	}
}

// NewExperienceListMessage создает сообщение бота со списком карточек опыта
func NewExperienceListMessage(reply string, cards []ExperienceCard) Message {
	return Message{
		ID:        uuid.New(),
		Text:      reply,
		Author:    AuthorBot,
		CreatedAt: time.Now(),
		Kind:      KindExperienceList,
		Cards:     cards,
	}
}
