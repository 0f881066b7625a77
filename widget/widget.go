package widget

import (
	"context"
	"errors"
	"log"
	"sync"

	"winechat/chat"
	"winechat/client"
	"winechat/events"
	"winechat/experience"
	"winechat/i18n"
	"winechat/models"
	"winechat/tasting"
)

var (
	// ErrAlreadyInitialized — повторный Init того же экземпляра
	ErrAlreadyInitialized = errors.New("виджет уже инициализирован")
	// ErrNotInitialized — операция до Init или после Destroy
	ErrNotInitialized = errors.New("виджет не инициализирован")
	// ErrNoClientID — без идентификатора клиента сессия невозможна
	ErrNoClientID = errors.New("в конфигурации не указан clientId")
)

// Widget — один экземпляр встраиваемого чат-виджета и его состояние.
// Экземпляры независимы: никакого глобального синглтона, несколько
// виджетов на одной странице не мешают друг другу.
type Widget struct {
	mu          sync.Mutex
	initialized bool

	cfg     Config
	session *models.Session
	api     *client.SessionClient
	mainLog *chat.MessageLog
	conv    *chat.Controller
	tasting *tasting.Flow
	exp     *experience.Flow
	sink    events.Sink
}

// New собирает экземпляр виджета по конфигурации. Сеть не трогается:
// аутентификация происходит в Init.
func New(cfg Config, sink events.Sink) (*Widget, error) {
	if cfg.ClientID == "" {
		return nil, ErrNoClientID
	}
	if sink == nil {
		sink = events.NopSink{}
	}
	cfg = cfg.withDefaults()

	language := models.ParseLanguage(cfg.Language)
	session := models.NewSession(cfg.ClientID, language)
	api := client.New(cfg.APIBaseURL, session)
	mainLog := chat.NewMessageLog()

	return &Widget{
		cfg:     cfg,
		session: session,
		api:     api,
		mainLog: mainLog,
		conv:    chat.NewController(mainLog, api, language, sink),
		tasting: tasting.NewFlow(api, mainLog, language, sink, *cfg.Delays),
		exp:     experience.NewFlow(api, mainLog, language, sink),
		sink:    sink,
	}, nil
}

// Init запускает виджет: единственная попытка аутентификации и
// приветственная заглушка. Неудача аутентификации не прерывает запуск —
// экземпляр работает в деградированном режиме с заготовленными ответами
// до самого уничтожения. Повторный Init — ошибка.
func (w *Widget) Init(ctx context.Context) error {
	w.mu.Lock()
	if w.initialized {
		w.mu.Unlock()
		log.Printf("Виджет %s уже инициализирован", w.cfg.ClientID)
		return ErrAlreadyInitialized
	}
	w.initialized = true
	w.mu.Unlock()

	if err := w.api.Authenticate(ctx); err != nil {
		log.Printf("Аутентификация не удалась, виджет работает в деградированном режиме: %v", err)
	}

	welcome := w.cfg.WelcomeMessage
	if welcome == "" {
		welcome = i18n.T(w.session.Language, i18n.KeyWelcome)
	}
	w.mainLog.SetWelcome(welcome)

	log.Printf("Виджет инициализирован: client=%s visitor=%s language=%s authenticated=%v",
		w.session.ClientID, w.session.VisitorID, w.session.Language, w.session.Authenticated)
	return nil
}

// Initialized сообщает, запущен ли экземпляр
func (w *Widget) Initialized() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.initialized
}

// Destroy полностью останавливает виджет: сворачивает вложенные машины,
// сбрасывает сессию. Открытая дегустация сворачивается принудительно,
// без завершающего сообщения.
func (w *Widget) Destroy() {
	w.mu.Lock()
	if !w.initialized {
		w.mu.Unlock()
		return
	}
	w.initialized = false
	w.mu.Unlock()

	w.tasting.Close()
	w.exp.Close()
	w.session.Reset()
	w.sink.WidgetClosed()
	log.Printf("Виджет %s уничтожен", w.cfg.ClientID)
}

// Conversation возвращает контроллер основного диалога
func (w *Widget) Conversation() *chat.Controller {
	return w.conv
}

// Tasting возвращает машину дегустации
func (w *Widget) Tasting() *tasting.Flow {
	return w.tasting
}

// Experience возвращает машину панели опыта
func (w *Widget) Experience() *experience.Flow {
	return w.exp
}

// Log возвращает журнал основного диалога
func (w *Widget) Log() *chat.MessageLog {
	return w.mainLog
}

// Session возвращает сессию экземпляра
func (w *Widget) Session() *models.Session {
	return w.session
}

// Config возвращает действующую конфигурацию (после merge с умолчаниями)
func (w *Widget) Config() Config {
	return w.cfg
}

// Snapshot — снимок всего виджета для первичной отрисовки.
// Его получает и host-страница через мост, и каждый новый
// WebSocket-наблюдатель при подключении.
type Snapshot struct {
	Session          *models.Session  `json:"session"`
	Messages         []models.Message `json:"messages"`
	AwaitingResponse bool             `json:"awaitingResponse"`
	TastingState     tasting.State    `json:"tastingState"`
	TastingLog       []models.Message `json:"tastingLog"`
	ExperienceState  experience.State `json:"experienceState"`
	ExperienceLog    []models.Message `json:"experienceLog"`
	ShowQuickActions bool             `json:"showQuickActions"`
	Theme            string           `json:"theme"`
}

// Snapshot снимает текущее состояние всех потоков виджета
func (w *Widget) Snapshot() Snapshot {
	var tastingLog, experienceLog []models.Message
	if sub := w.tasting.SubLog(); sub != nil {
		tastingLog = sub.Messages()
	}
	if sub := w.exp.SubLog(); sub != nil {
		experienceLog = sub.Messages()
	}

	return Snapshot{
		Session:          w.session,
		Messages:         w.mainLog.Messages(),
		AwaitingResponse: w.mainLog.IsAwaitingResponse(),
		TastingState:     w.tasting.State(),
		TastingLog:       tastingLog,
		ExperienceState:  w.exp.State(),
		ExperienceLog:    experienceLog,
		ShowQuickActions: w.cfg.ShowQuickActions,
		Theme:            w.cfg.Theme,
	}
}

// StartTasting запускает дегустацию по выбору винной карточки: вино
// ищется по индексу в исходном payload самого свежего винного сообщения
// основного журнала. Индекс вне границ — тихий no-op.
func (w *Widget) StartTasting(index int) bool {
	wine, ok := w.lookupWine(index)
	if !ok {
		log.Printf("Винная карточка с индексом %d не найдена", index)
		return false
	}
	w.tasting.Start(wine.ID, models.ParseWineCategory(wine.Category))
	return true
}

func (w *Widget) lookupWine(index int) (models.Wine, bool) {
	messages := w.mainLog.Messages()
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Kind != models.KindWineList {
			continue
		}
		wines := messages[i].Wines
		if index < 0 || index >= len(wines) {
			return models.Wine{}, false
		}
		return wines[index], true
	}
	return models.Wine{}, false
}
