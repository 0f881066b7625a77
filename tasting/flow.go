package tasting

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"winechat/chat"
	"winechat/events"
	"winechat/i18n"
	"winechat/models"
)

// State — состояние вложенной машины дегустации
type State string

const (
	StateNone         State = "none"
	StateLevelSelect  State = "levelSelect"
	StateStagePreview State = "stagePreview"
	StateStageChat    State = "stageChat"
	StateError        State = "error"
)

var (
	// ErrInvalidState — операция не доступна из текущего состояния
	ErrInvalidState = errors.New("операция недоступна в текущем состоянии дегустации")
	// ErrPlaybackActive — ввод открывается только после показа всех фрагментов
	ErrPlaybackActive = errors.New("фрагменты этапа еще проигрываются")
)

// Delays — презентационные паузы воспроизведения фрагментов этапа.
// Значения воспроизводят исходный виджет, но смысловой нагрузки не несут;
// тесты выставляют нули.
type Delays struct {
	BeforeFirst   time.Duration
	BetweenChunks time.Duration
	Typing        time.Duration
}

// DefaultDelays — паузы исходного виджета
func DefaultDelays() Delays {
	return Delays{
		BeforeFirst:   400 * time.Millisecond,
		BetweenChunks: 1200 * time.Millisecond,
		Typing:        900 * time.Millisecond,
	}
}

// API — сетевые операции, нужные дегустации.
// Реализуется client.SessionClient; в тестах подменяется заглушкой.
type API interface {
	SendTastingStart(ctx context.Context, mode models.TastingMode, stage, wineID string) (*models.TastingSession, error)
	SendTastingFeedback(ctx context.Context, sessionID, wineID, stage, text string) (string, error)
}

// Flow — управляемая дегустация: выбор уровня → превью этапа →
// интерактивный под-чат этапа → продолжение или завершение.
//
// Машина работает независимо от гейта основного диалога и ведет
// собственный журнал сообщений. На виджет одновременно активна не более
// одной дегустации: повторный Start сначала полностью сбрасывает
// идентификационные поля прежней сессии.
type Flow struct {
	mu   sync.Mutex
	api  API
	sink events.Sink

	mainLog  *chat.MessageLog
	language models.Language
	delays   Delays

	state        State
	wineID       string
	category     models.WineCategory
	mode         models.TastingMode
	session      *models.TastingSession
	subLog       *chat.MessageLog
	playbackDone bool
	lastError    string

	// epoch растет при каждом сбросе; шаги воспроизведения и поздние
	// ответы, принадлежащие старой эпохе, отбрасываются
	epoch int
}

// NewFlow создает машину дегустации поверх основного журнала
func NewFlow(api API, mainLog *chat.MessageLog, language models.Language, sink events.Sink, delays Delays) *Flow {
	if sink == nil {
		sink = events.NopSink{}
	}
	return &Flow{
		api:      api,
		sink:     sink,
		mainLog:  mainLog,
		language: language,
		delays:   delays,
		state:    StateNone,
		category: models.CategoryUnknown,
	}
}

// State возвращает текущее состояние машины
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Active сообщает, идет ли дегустация
func (f *Flow) Active() bool {
	return f.State() != StateNone
}

// Session возвращает текущую сессию этапа (nil вне дегустации)
func (f *Flow) Session() *models.TastingSession {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.session
}

// SubLog возвращает журнал под-чата дегустации (nil вне дегустации)
func (f *Flow) SubLog() *chat.MessageLog {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.subLog
}

// PlaybackDone сообщает, показаны ли все фрагменты текущего этапа
func (f *Flow) PlaybackDone() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.playbackDone
}

// LastError возвращает текст ошибки для оверлея
func (f *Flow) LastError() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastError
}

// WineID возвращает идентификатор дегустируемого вина
func (f *Flow) WineID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.wineID
}

// Category возвращает категорию дегустируемого вина
func (f *Flow) Category() models.WineCategory {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.category
}

// Start начинает дегустацию выбранного вина: показывает выбор уровня.
// Прежняя дегустация, если была, сбрасывается полностью — поля старой
// сессии не просачиваются в новую.
func (f *Flow) Start(wineID string, category models.WineCategory) {
	f.mu.Lock()
	if f.state != StateNone {
		log.Printf("Дегустация %s прервана запуском новой", f.wineID)
		f.resetLocked()
	}
	f.state = StateLevelSelect
	f.wineID = wineID
	f.category = category
	f.subLog = chat.NewMessageLog()
	f.mu.Unlock()

	f.sink.TastingStateChanged(string(StateLevelSelect), nil)
}

// SelectLevel фиксирует уровень подготовки и запрашивает первый этап.
// Ошибка сети показывается как закрываемый оверлей: машина остается в
// StateError, пока пользователь не вызовет DismissError.
func (f *Flow) SelectLevel(ctx context.Context, mode models.TastingMode) error {
	f.mu.Lock()
	if f.state != StateLevelSelect {
		f.mu.Unlock()
		return ErrInvalidState
	}
	wineID := f.wineID
	f.mu.Unlock()

	session, err := f.api.SendTastingStart(ctx, mode, models.StageVisual, wineID)
	if err != nil {
		log.Printf("Ошибка запуска дегустации %s: %v", wineID, err)
		f.toError(err)
		return err
	}

	f.mu.Lock()
	f.mode = mode
	f.session = session
	f.state = StateStagePreview
	f.playbackDone = false
	f.mu.Unlock()

	f.sink.TastingStateChanged(string(StateStagePreview), session)
	return nil
}

// BeginStage переходит из превью в интерактивный под-чат и проигрывает
// фрагменты этапа с паузами набора текста. Вызов синхронный: он
// возвращается после показа всех фрагментов (как автоответчик с его
// имитацией задержки). Закрытие дегустации из другой горутины меняет
// эпоху, и оставшиеся шаги молча отбрасываются.
func (f *Flow) BeginStage() error {
	f.mu.Lock()
	if f.state != StateStagePreview || f.session == nil {
		f.mu.Unlock()
		return ErrInvalidState
	}
	f.state = StateStageChat
	f.playbackDone = false
	epoch := f.epoch
	session := f.session
	subLog := f.subLog
	f.mu.Unlock()

	f.sink.TastingStateChanged(string(StateStageChat), session)

	for i, chunk := range session.Chunks {
		if i == 0 {
			time.Sleep(f.delays.BeforeFirst)
		} else {
			time.Sleep(f.delays.BetweenChunks)
		}
		if f.stale(epoch) {
			return nil
		}

		f.sink.TypingChanged(events.FlowTasting, true)
		time.Sleep(f.delays.Typing)
		f.sink.TypingChanged(events.FlowTasting, false)
		if f.stale(epoch) {
			return nil
		}

		msg := models.NewMessage(chunk.Text, models.AuthorBot)
		subLog.Append(msg)
		f.sink.MessageAppended(events.FlowTasting, msg)
	}

	f.mu.Lock()
	if f.epoch == epoch {
		f.playbackDone = true
	}
	f.mu.Unlock()
	return nil
}

// SendFeedback отправляет свободный текст пользователя внутри этапа.
// Ввод открыт только после показа всех фрагментов; гейт под-чата
// работает так же, как в основном диалоге.
func (f *Flow) SendFeedback(ctx context.Context, text string) error {
	f.mu.Lock()
	if f.state != StateStageChat || f.session == nil {
		f.mu.Unlock()
		return ErrInvalidState
	}
	if !f.playbackDone {
		f.mu.Unlock()
		return ErrPlaybackActive
	}
	session := f.session
	wineID := f.wineID
	subLog := f.subLog
	epoch := f.epoch
	f.mu.Unlock()

	if !subLog.TryBeginRequest() {
		return chat.ErrBusy
	}
	defer subLog.FinishRequest()

	userMsg := models.NewMessage(text, models.AuthorUser)
	subLog.Append(userMsg)
	f.sink.MessageAppended(events.FlowTasting, userMsg)

	reply, err := f.api.SendTastingFeedback(ctx, session.SessionID, wineID, session.CurrentStage, text)
	if f.stale(epoch) {
		// дегустация закрыта, пока ждали ответ — ничего не показываем
		return nil
	}
	if err != nil {
		log.Printf("Ошибка отправки отзыва этапа %s: %v", session.CurrentStage, err)
		apology := models.NewMessage(i18n.T(f.language, i18n.KeyApology), models.AuthorBot)
		subLog.Append(apology)
		f.sink.MessageAppended(events.FlowTasting, apology)
		return nil
	}
	if reply != "" {
		botMsg := models.NewMessage(reply, models.AuthorBot)
		subLog.Append(botMsg)
		f.sink.MessageAppended(events.FlowTasting, botMsg)
	}
	return nil
}

// ContinueToNextStage продолжает дегустацию. Отсутствующий следующий
// этап или маркер feedback завершают дегустацию без сетевого вызова;
// иначе запрашивается свежая сессия, целиком заменяющая текущую.
func (f *Flow) ContinueToNextStage(ctx context.Context) error {
	f.mu.Lock()
	if f.state != StateStageChat || f.session == nil {
		f.mu.Unlock()
		return ErrInvalidState
	}
	if !f.playbackDone {
		f.mu.Unlock()
		return ErrPlaybackActive
	}
	session := f.session
	wineID := f.wineID
	mode := f.mode
	f.mu.Unlock()

	if session.IsTerminal() {
		f.end(true)
		return nil
	}

	next, err := f.api.SendTastingStart(ctx, mode, session.NextStage, wineID)
	if err != nil {
		log.Printf("Ошибка перехода на этап %s: %v", session.NextStage, err)
		f.toError(err)
		return err
	}

	f.mu.Lock()
	f.session = next
	f.state = StateStagePreview
	f.playbackDone = false
	f.mu.Unlock()

	f.sink.TastingStateChanged(string(StateStagePreview), next)
	return nil
}

// DismissError закрывает оверлей ошибки. Единственный выход из
// StateError — назад к состоянию без дегустации.
func (f *Flow) DismissError() {
	f.mu.Lock()
	if f.state != StateError {
		f.mu.Unlock()
		return
	}
	f.resetLocked()
	f.mu.Unlock()

	f.sink.TastingStateChanged(string(StateNone), nil)
}

// Close принудительно сворачивает дегустацию: закрытие виджета хостом.
// Завершающее сообщение в основной диалог не добавляется.
func (f *Flow) Close() {
	f.mu.Lock()
	if f.state == StateNone {
		f.mu.Unlock()
		return
	}
	f.resetLocked()
	f.mu.Unlock()

	f.sink.TastingStateChanged(string(StateNone), nil)
}

// end завершает дегустацию штатно: завершающее сообщение уходит в
// основной диалог (не в под-чат), состояние сбрасывается полностью.
func (f *Flow) end(withMessage bool) {
	f.mu.Lock()
	f.resetLocked()
	f.mu.Unlock()

	if withMessage {
		done := models.NewMessage(i18n.T(f.language, i18n.KeyTastingDone), models.AuthorBot)
		f.mainLog.Append(done)
		f.sink.MessageAppended(events.FlowMain, done)
	}
	f.sink.TastingStateChanged(string(StateNone), nil)
}

func (f *Flow) toError(err error) {
	f.mu.Lock()
	f.state = StateError
	f.lastError = err.Error()
	f.mu.Unlock()

	f.sink.TastingStateChanged(string(StateError), nil)
}

// resetLocked полностью очищает состояние дегустации; вызывается под mu
func (f *Flow) resetLocked() {
	f.epoch++
	f.state = StateNone
	f.wineID = ""
	f.category = models.CategoryUnknown
	f.mode = ""
	f.session = nil
	f.subLog = nil
	f.playbackDone = false
	f.lastError = ""
}

func (f *Flow) stale(epoch int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.epoch != epoch
}
