// Package dictation связывает горячую клавишу, запись, распознавание,
// очистку текста и ввод в один конечный автомат.
//
// Всё состояние сессии принадлежит горутине Run. Остальные контексты
// (хук клавиатуры, конвейер распознавания, таймеры) только отправляют
// в неё сообщения.
package dictation

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"murmur/internal/audio"
	"murmur/internal/cleanup"
	"murmur/internal/hotkey"
	"murmur/internal/input"
	"murmur/internal/usage"
)

var (
	// ErrEngineUninitialized - движок распознавания ещё не загружен или не загрузился.
	ErrEngineUninitialized = errors.New("dictation: recognition engine not initialized")
	// ErrCancelled - результат относится к сессии, которая уже не активна.
	ErrCancelled = errors.New("dictation: session superseded")
)

// Recorder - источник аудио.
type Recorder interface {
	Start() error
	Stop() audio.Recording
}

// Engine распознаёт 16 kHz mono.
type Engine interface {
	Transcribe(samples []float32, lang string) (string, error)
}

// Loader асинхронно готовит движок распознавания.
type Loader func(ctx context.Context) (Engine, error)

// Cleaner улучшает распознанный текст.
type Cleaner interface {
	Clean(ctx context.Context, text string) (cleanup.Outcome, error)
	Configured() bool
}

// Stats накапливает статистику использования.
type Stats interface {
	Record(e usage.Entry)
}

// Sink сохраняет записанные сэмплы для отладки.
type Sink interface {
	Dump(samples []float32) (string, error)
}

// Deps - внешние участники. Cleaner, Focus, Stats и Sink могут быть nil.
type Deps struct {
	Recorder Recorder
	Loader   Loader
	Cleaner  Cleaner
	Typer    input.Typer
	Focus    input.Focus
	Stats    Stats
	Sink     Sink
}

// Options задержки и пороги автомата.
type Options struct {
	MinDuration       time.Duration
	TypeDelay         time.Duration
	DoneDelay         time.Duration
	ErrorDelay        time.Duration
	ProcessingTimeout time.Duration
	// EngineRetry - пауза перед повторной загрузкой движка после ошибки. 0 - без автоповтора.
	EngineRetry time.Duration
	Language    string
}

// DefaultOptions возвращает значения по умолчанию.
func DefaultOptions() Options {
	return Options{
		MinDuration:       300 * time.Millisecond,
		TypeDelay:         100 * time.Millisecond,
		DoneDelay:         500 * time.Millisecond,
		ErrorDelay:        2 * time.Second,
		ProcessingTimeout: 90 * time.Second,
		EngineRetry:       30 * time.Second,
		Language:          "en",
	}
}

// session - одна диктовка от нажатия до ввода текста.
type session struct {
	id         uint64
	startedAt  time.Time
	window     input.Window
	duration   time.Duration
	recognized string
	cleaned    string
	outcome    cleanup.Outcome
	cancel     context.CancelFunc
}

// Controller - конечный автомат диктовки.
type Controller struct {
	deps Deps
	opts Options
	log  zerolog.Logger
	now  func() time.Time

	inbox chan func()
	done  chan struct{}

	status atomic.Pointer[Status]

	listenersMu sync.Mutex
	listeners   []func(Status)

	// Поля ниже доступны только из горутины Run.
	ctx       context.Context
	state     State
	seq       uint64
	nextID    uint64
	session   *session
	engine    Engine
	engineErr error
	loading   bool
}

// New создаёт контроллер. Работа начинается с Run.
func New(deps Deps, opts Options, log zerolog.Logger) *Controller {
	c := &Controller{
		deps:  deps,
		opts:  opts,
		log:   log,
		now:   time.Now,
		inbox: make(chan func(), 16),
		done:  make(chan struct{}),
	}
	c.status.Store(&Status{State: Initializing})
	return c
}

// Status возвращает текущий снимок состояния.
func (c *Controller) Status() Status {
	return *c.status.Load()
}

// OnStatusChange регистрирует наблюдателя. Вызывается из горутины Run и не должен блокировать.
func (c *Controller) OnStatusChange(fn func(Status)) {
	c.listenersMu.Lock()
	c.listeners = append(c.listeners, fn)
	c.listenersMu.Unlock()
}

// RetryEngine повторяет загрузку движка, если он не загружен и загрузка не идёт.
func (c *Controller) RetryEngine() {
	c.post(c.retryEngine)
}

// Run обрабатывает события до отмены ctx.
func (c *Controller) Run(ctx context.Context, edges <-chan hotkey.Event) error {
	c.ctx = ctx
	defer close(c.done)

	c.loadEngine()
	for {
		select {
		case <-ctx.Done():
			c.shutdown()
			return nil
		case ev, ok := <-edges:
			if !ok {
				edges = nil
				continue
			}
			switch ev.Edge {
			case hotkey.Pressed:
				c.press()
			case hotkey.Released:
				c.release()
			case hotkey.Cancel:
				c.cancel()
			}
		case fn := <-c.inbox:
			fn()
		}
	}
}

// post передаёт fn в горутину Run. Возвращает false, если Run уже завершился.
func (c *Controller) post(fn func()) bool {
	select {
	case c.inbox <- fn:
		return true
	case <-c.done:
		return false
	}
}

// schedule выполняет fn в горутине Run через d, если автомат не сменил состояние.
func (c *Controller) schedule(d time.Duration, fn func()) {
	seq := c.seq
	time.AfterFunc(d, func() {
		c.post(func() {
			if c.seq != seq {
				c.log.Debug().Err(ErrCancelled).Msg("timer dropped")
				return
			}
			fn()
		})
	})
}

func (c *Controller) setState(state State, msg, text string) {
	c.seq++
	c.state = state

	st := Status{State: state, Message: msg, Text: text}
	if c.session != nil {
		st.SessionID = c.session.id
	}
	c.status.Store(&st)
	c.log.Debug().Str("state", state.String()).Uint64("session", st.SessionID).Str("message", msg).Msg("state changed")

	c.listenersMu.Lock()
	listeners := append([]func(Status){}, c.listeners...)
	c.listenersMu.Unlock()
	for _, fn := range listeners {
		fn(st)
	}
}

// rest переводит автомат в состояние покоя: Idle, если движок готов.
func (c *Controller) rest() {
	c.session = nil
	if c.engine == nil {
		msg := ErrEngineUninitialized.Error()
		if c.engineErr != nil {
			msg = c.engineErr.Error()
		}
		c.setState(Error, msg, "")
		return
	}
	c.setState(Idle, "", "")
}

// fail показывает ошибку и через ErrorDelay возвращает автомат в покой.
func (c *Controller) fail(msg string) {
	c.log.Error().Str("reason", msg).Msg("dictation failed")
	if c.session != nil && c.session.cancel != nil {
		c.session.cancel()
	}
	c.setState(Error, msg, "")
	c.schedule(c.opts.ErrorDelay, c.rest)
}

func (c *Controller) loadEngine() {
	c.loading = true
	c.setState(Initializing, "", "")

	ctx := c.ctx
	go func() {
		eng, err := c.deps.Loader(ctx)
		c.post(func() { c.engineLoaded(eng, err) })
	}()
}

func (c *Controller) retryEngine() {
	if c.engine != nil || c.loading {
		return
	}
	c.log.Info().Err(c.engineErr).Msg("retrying recognition engine load")
	c.loadEngine()
}

func (c *Controller) engineLoaded(eng Engine, err error) {
	c.loading = false
	if err != nil {
		c.engine, c.engineErr = nil, err
		c.log.Error().Err(err).Msg("recognition engine failed to load")
		c.setState(Error, err.Error(), "")
		if c.opts.EngineRetry > 0 {
			c.schedule(c.opts.EngineRetry, c.retryEngine)
		}
		return
	}
	c.engine, c.engineErr = eng, nil
	c.log.Info().Msg("recognition engine ready")
	c.rest()
}

func (c *Controller) shutdown() {
	if c.session == nil {
		return
	}
	if c.state == Recording {
		c.deps.Recorder.Stop()
	}
	if c.session.cancel != nil {
		c.session.cancel()
	}
	c.session = nil
}
