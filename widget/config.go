package widget

import (
	"time"

	"winechat/models"
	"winechat/tasting"
)

// Темы виджета — фиксированный набор именованных палитр.
// Таблицы CSS-переменных живут на стороне host-страницы.
var Themes = []string{"light", "dark", "wine", "classic"}

// Config — конфигурация одного экземпляра виджета, переданная хостом
type Config struct {
	Language            string         `json:"language"`
	ClientID            string         `json:"clientId"`
	ContainerID         string         `json:"containerId"` // пустая строка — плавающий виджет
	ShowQuickActions    bool           `json:"showQuickActions"`
	WelcomeMessage      string         `json:"welcomeMessage"`
	AttentionPopupText  string         `json:"attentionPopupText"`
	AttentionPopupDelay time.Duration  `json:"attentionPopupDelay"`
	Theme               string         `json:"theme"`
	APIBaseURL          string         `json:"apiBaseUrl"`
	Delays              *tasting.Delays `json:"-"`
}

// withDefaults сливает пользовательскую конфигурацию с конфигурацией
// по умолчанию, как merge исходного виджета
func (c Config) withDefaults() Config {
	c.Language = string(models.ParseLanguage(c.Language))
	if c.Theme == "" || !knownTheme(c.Theme) {
		c.Theme = "light"
	}
	if c.Delays == nil {
		d := tasting.DefaultDelays()
		c.Delays = &d
	}
	return c
}

func knownTheme(name string) bool {
	for _, t := range Themes {
		if t == name {
			return true
		}
	}
	return false
}
