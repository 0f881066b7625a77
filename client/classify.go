package client

import (
	"encoding/json"

	"winechat/models"
)

// ResponseKind дискриминирует форму ответа произвольного эндпоинта
type ResponseKind string

const (
	ResponsePlainText      ResponseKind = "plainText"
	ResponseWineList       ResponseKind = "wineList"
	ResponseExperienceList ResponseKind = "experienceList"
)

// ClassifiedResponse — результат разбора тела ответа бэкенда
type ClassifiedResponse struct {
	Kind  ResponseKind
	Text  string
	Reply string
	Wines []models.Wine
	Cards []models.ExperienceCard
}

// ClassifyBody классифицирует тело ответа по его форме. Бэкенд не
// присылает код типа, поэтому форма тела и есть контракт интеграции.
// Порядок проверок фиксирован: массив wines → reply+cards → общий текст.
// Функция чистая: результат зависит только от байтов тела и заглушки.
func ClassifyBody(body []byte, fallback string) ClassifiedResponse {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err == nil {
		if raw, ok := fields["wines"]; ok {
			var wines []models.Wine
			if err := json.Unmarshal(raw, &wines); err == nil {
				return ClassifiedResponse{Kind: ResponseWineList, Wines: wines}
			}
		}
		if rawCards, ok := fields["cards"]; ok {
			if rawReply, ok := fields["reply"]; ok {
				var cards []models.ExperienceCard
				var reply string
				if err := json.Unmarshal(rawCards, &cards); err == nil {
					if err := json.Unmarshal(rawReply, &reply); err == nil {
						return ClassifiedResponse{
							Kind:  ResponseExperienceList,
							Reply: reply,
							Cards: cards,
						}
					}
				}
			}
		}
	}

	return ClassifiedResponse{Kind: ResponsePlainText, Text: ExtractText(body, fallback)}
}

// ExtractText вытаскивает отображаемый текст из ответа любой формы.
// Цепочка все более общих фолбэков: первый элемент массива с полем text →
// объект с response или text → голая JSON-строка → фиксированная заглушка.
// Какой-то отображаемый результат гарантирован всегда.
func ExtractText(body []byte, fallback string) string {
	var arr []struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(body, &arr); err == nil && len(arr) > 0 && arr[0].Text != "" {
		return arr[0].Text
	}

	var obj struct {
		Response string `json:"response"`
		Text     string `json:"text"`
	}
	if err := json.Unmarshal(body, &obj); err == nil {
		if obj.Response != "" {
			return obj.Response
		}
		if obj.Text != "" {
			return obj.Text
		}
	}

	var s string
	if err := json.Unmarshal(body, &s); err == nil && s != "" {
		return s
	}

	return fallback
}
