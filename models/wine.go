package models

// WineCategory — категория вина, определяющая ход дегустации
type WineCategory string

const (
	CategoryRed       WineCategory = "red"
	CategoryWhite     WineCategory = "white"
	CategoryRose      WineCategory = "rose"
	CategorySparkling WineCategory = "sparkling"
	CategoryUnknown   WineCategory = "unknown"
)

// ParseWineCategory приводит строку бэкенда к известной категории.
// Незнакомые значения не считаются ошибкой.
func ParseWineCategory(s string) WineCategory {
	switch WineCategory(s) {
	case CategoryRed, CategoryWhite, CategoryRose, CategorySparkling:
		return WineCategory(s)
	default:
		return CategoryUnknown
	}
}

// Wine представляет собой винную карточку из ответа бэкенда
type Wine struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Category    string `json:"category,omitempty"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
	Year        string `json:"year,omitempty"`
}

// ExperienceCard представляет собой карточку опыта (дегустация, тур и т.д.)
type ExperienceCard struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	Description      string `json:"description,omitempty"`
	Image            string `json:"image,omitempty"`
	Duration         string `json:"duration,omitempty"`
	Price            string `json:"price,omitempty"`
	DiscoverMoreLink string `json:"discoverMoreLink,omitempty"`
}

// ExperienceDetail — данные открытой панели деталей опыта.
// Живет только пока открыта панель или привязанный к карточке под-чат.
type ExperienceDetail struct {
	ID               string `json:"id"`
	Index            int    `json:"index"`
	Title            string `json:"title"`
	Description      string `json:"description,omitempty"`
	Image            string `json:"image,omitempty"`
	Duration         string `json:"duration,omitempty"`
	Price            string `json:"price,omitempty"`
	DiscoverMoreLink string `json:"discoverMoreLink,omitempty"`
}

// DetailFromCard снимает данные карточки в панель деталей
func DetailFromCard(card ExperienceCard, index int) ExperienceDetail {
	return ExperienceDetail{
		ID:               card.ID,
		Index:            index,
		Title:            card.Title,
		Description:      card.Description,
		Image:            card.Image,
		Duration:         card.Duration,
		Price:            card.Price,
		DiscoverMoreLink: card.DiscoverMoreLink,
	}
}
