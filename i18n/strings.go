package i18n

import (
	"winechat/models"
)

// Key — ключ локализованной строки виджета
type Key string

const (
	KeyWelcome       Key = "welcome"
	KeyApology       Key = "apology"
	KeyCannotProcess Key = "cannotProcess"
	KeyOffline       Key = "offline"
	KeyTastingDone   Key = "tastingDone"
)

// Таблицы строк. Покрываются только ключи, участвующие в логике диалога;
// остальные тексты приходят с бэкенда уже локализованными.
var tables = map[models.Language]map[Key]string{
	models.LanguageIT: {
		KeyWelcome:       "Ciao! 👋 Come posso aiutarti oggi?",
		KeyApology:       "Mi dispiace, si è verificato un problema. Riprova tra qualche istante.",
		KeyCannotProcess: "Non sono riuscito a elaborare la risposta.",
		KeyOffline:       "Al momento l'assistente non è disponibile. Riprova più tardi.",
		KeyTastingDone:   "Degustazione completata! 🍷 Grazie per aver partecipato.",
	},
	models.LanguageEN: {
		KeyWelcome:       "Hi! 👋 How can I help you today?",
		KeyApology:       "Sorry, something went wrong. Please try again in a moment.",
		KeyCannotProcess: "I was not able to process the response.",
		KeyOffline:       "The assistant is not available right now. Please try again later.",
		KeyTastingDone:   "Tasting complete! 🍷 Thank you for taking part.",
	},
}

// T возвращает строку для языка. Незнакомый язык падает на итальянский —
// язык по умолчанию исходного виджета.
func T(lang models.Language, key Key) string {
	table, ok := tables[lang]
	if !ok {
		table = tables[models.LanguageIT]
	}
	return table[key]
}
