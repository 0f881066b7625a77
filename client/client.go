package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"winechat/i18n"
	"winechat/models"
)

// ErrNotAuthenticated возвращается, когда вызов отклонен локально,
// до отправки запроса: сессия так и не получила токен.
var ErrNotAuthenticated = errors.New("сессия не аутентифицирована")

// SessionClient выполняет все сетевые вызовы виджета от имени одной
// сессии. Токен получается единственной попыткой аутентификации;
// повторов и ротации нет. Каждый вызов — одна попытка с ограниченным
// таймаутом, неудача сообщается наверх без ретраев.
type SessionClient struct {
	baseURL string
	client  *http.Client
	session *models.Session
}

// New создает клиента для сессии.
// URL берется из аргумента или WINECHAT_API_URL, таймаут — из
// WINECHAT_API_TIMEOUT или по умолчанию 30s.
func New(baseURL string, session *models.Session) *SessionClient {
	if baseURL == "" {
		baseURL = os.Getenv("WINECHAT_API_URL")
	}
	if baseURL == "" {
		baseURL = "http://localhost:8081"
	}

	timeout := 30 * time.Second
	if t := os.Getenv("WINECHAT_API_TIMEOUT"); t != "" {
		if d, err := time.ParseDuration(t); err == nil {
			timeout = d
		}
	}

	return &SessionClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		session: session,
	}
}

// Session возвращает сессию клиента
func (c *SessionClient) Session() *models.Session {
	return c.session
}

// Authenticated сообщает, получила ли сессия токен
func (c *SessionClient) Authenticated() bool {
	return c.session.Authenticated
}

// Authenticate получает bearer-токен по учетным данным клиента.
// Вызывается один раз при старте виджета; неудача переводит сессию в
// деградированный режим, но не прерывает запуск.
func (c *SessionClient) Authenticate(ctx context.Context) error {
	payload, err := json.Marshal(map[string]string{
		"clientId": c.session.ClientID,
	})
	if err != nil {
		return fmt.Errorf("marshal auth request: %w", err)
	}

	endpoint := c.baseURL + "/auth/token"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create auth request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		c.session.Authenticated = false
		return fmt.Errorf("auth request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.session.Authenticated = false
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("auth error: status %d, body: %s", resp.StatusCode, string(body))
	}

	var tokenResp struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		c.session.Authenticated = false
		return fmt.Errorf("decode auth response: %w", err)
	}
	if tokenResp.Token == "" {
		c.session.Authenticated = false
		return errors.New("auth response without token")
	}

	c.session.Token = tokenResp.Token
	c.session.Authenticated = true
	return nil
}

// SendMessage отправляет свободный текст основного диалога.
// Извлечение текста ответа терпимо к форме: массив с text, объект с
// response или text, строка; в худшем случае — локализованная заглушка.
func (c *SessionClient) SendMessage(ctx context.Context, text string) (string, error) {
	if !c.session.Authenticated {
		return "", ErrNotAuthenticated
	}

	payload, err := json.Marshal(map[string]string{
		"text":      text,
		"visitorId": c.session.VisitorID.String(),
		"clientId":  c.session.ClientID,
		"language":  string(c.session.Language),
	})
	if err != nil {
		return "", fmt.Errorf("marshal message request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s/message", c.baseURL, c.session.ClientID)
	raw, err := c.do(ctx, http.MethodPost, endpoint, payload)
	if err != nil {
		return "", err
	}

	return ExtractText(raw, i18n.T(c.session.Language, i18n.KeyCannotProcess)), nil
}

// SendToCustomEndpoint выполняет GET произвольного эндпоинта быстрых
// действий и классифицирует ответ по форме тела. Относительный путь
// разрешается относительно базового URL бэкенда; для эндпоинта опытов
// к URL добавляется параметр language.
func (c *SessionClient) SendToCustomEndpoint(ctx context.Context, rawURL string) (ClassifiedResponse, error) {
	if !c.session.Authenticated {
		return ClassifiedResponse{}, ErrNotAuthenticated
	}

	endpoint := rawURL
	if strings.HasPrefix(endpoint, "/") {
		endpoint = c.baseURL + endpoint
	}
	if strings.Contains(endpoint, "experiences") {
		if u, err := url.Parse(endpoint); err == nil {
			q := u.Query()
			q.Set("language", string(c.session.Language))
			u.RawQuery = q.Encode()
			endpoint = u.String()
		}
	}

	raw, err := c.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return ClassifiedResponse{}, err
	}

	return ClassifyBody(raw, i18n.T(c.session.Language, i18n.KeyCannotProcess)), nil
}

// SendTastingStart запрашивает этап дегустации. Используется и для
// первого этапа (visual), и для перехода на следующий; возвращенная
// сессия каждый раз заменяет предыдущую целиком.
func (c *SessionClient) SendTastingStart(ctx context.Context, mode models.TastingMode, stage, wineID string) (*models.TastingSession, error) {
	if !c.session.Authenticated {
		return nil, ErrNotAuthenticated
	}

	payload, err := json.Marshal(map[string]string{
		"level":     string(mode),
		"stage":     stage,
		"wineId":    wineID,
		"visitorId": c.session.VisitorID.String(),
		"language":  string(c.session.Language),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal tasting request: %w", err)
	}

	raw, err := c.do(ctx, http.MethodPost, c.baseURL+"/api/wine-tasting", payload)
	if err != nil {
		return nil, err
	}

	var session models.TastingSession
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("decode tasting response: %w", err)
	}
	session.WineID = wineID
	return &session, nil
}

// SendTastingFeedback отправляет свободный текст пользователя внутри
// этапа. Поле responseToFeedback в ответе необязательное.
func (c *SessionClient) SendTastingFeedback(ctx context.Context, sessionID, wineID, stage, text string) (string, error) {
	if !c.session.Authenticated {
		return "", ErrNotAuthenticated
	}

	payload, err := json.Marshal(map[string]string{
		"sessionId": sessionID,
		"wineId":    wineID,
		"stage":     stage,
		"feedback":  text,
	})
	if err != nil {
		return "", fmt.Errorf("marshal feedback request: %w", err)
	}

	raw, err := c.do(ctx, http.MethodPost, c.baseURL+"/api/wine-tasting/feedback", payload)
	if err != nil {
		return "", err
	}

	var feedbackResp struct {
		ResponseToFeedback string `json:"responseToFeedback"`
	}
	if err := json.Unmarshal(raw, &feedbackResp); err != nil {
		return "", fmt.Errorf("decode feedback response: %w", err)
	}
	return feedbackResp.ResponseToFeedback, nil
}

// SendExperienceChatMessage отправляет сообщение под-чата, привязанного
// к карточке опыта, и возвращает поле reply.
func (c *SessionClient) SendExperienceChatMessage(ctx context.Context, cardID, text string) (string, error) {
	if !c.session.Authenticated {
		return "", ErrNotAuthenticated
	}

	payload, err := json.Marshal(map[string]string{
		"cardId":   cardID,
		"text":     text,
		"language": string(c.session.Language),
	})
	if err != nil {
		return "", fmt.Errorf("marshal experience chat request: %w", err)
	}

	raw, err := c.do(ctx, http.MethodPost, c.baseURL+"/api/winery/experiences/message", payload)
	if err != nil {
		return "", err
	}

	var chatResp struct {
		Reply string `json:"reply"`
	}
	if err := json.Unmarshal(raw, &chatResp); err != nil {
		return "", fmt.Errorf("decode experience chat response: %w", err)
	}
	return chatResp.Reply, nil
}

// do выполняет один авторизованный запрос и возвращает тело ответа
func (c *SessionClient) do(ctx context.Context, method, endpoint string, payload []byte) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+c.session.Token)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("api error: status %d, body: %s", resp.StatusCode, string(raw))
	}

	return raw, nil
}
