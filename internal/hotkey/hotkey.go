// Package hotkey перехватывает глобальные нажатия клавиши диктовки.
package hotkey

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.design/x/hotkey/mainthread"
)

// ErrPermissionDenied - у процесса нет права перехватывать клавиатуру.
var ErrPermissionDenied = errors.New("hotkey: input monitoring permission denied")

// Edge - смена логического состояния клавиши.
type Edge int

const (
	Pressed Edge = iota + 1
	Released
	// Cancel - нажата клавиша отмены.
	Cancel
)

func (e Edge) String() string {
	switch e {
	case Pressed:
		return "pressed"
	case Released:
		return "released"
	case Cancel:
		return "cancel"
	}
	return "unknown"
}

// Event - фронт нажатия или отпускания.
type Event struct {
	Edge Edge
	// Code - клавиша, вызвавшая смену состояния.
	Code uint16
}

// RawEvent - событие от источника, включая автоповтор.
type RawEvent struct {
	Code uint16
	Down bool
}

// Source устанавливает перехват и отдаёт сырые события.
// Канал закрывается, когда перехват снят.
type Source interface {
	Open(ctx context.Context) (<-chan RawEvent, error)
	Close()
}

// Authorizer проверяет и запрашивает разрешение на перехват клавиатуры.
type Authorizer interface {
	Trusted() bool
	// Prompt показывает системный запрос разрешения.
	Prompt()
}

// Options настройки Listener.
type Options struct {
	// Keys - коды клавиш, которые считаются клавишей диктовки. Пустой список - любые.
	Keys []uint16
	// CancelKeys - клавиши отмены. Срабатывают по нажатию, автоповтор игнорируется.
	CancelKeys []uint16
	// Capacity - размер канала событий.
	Capacity int
	// RetryDelay - пауза перед повторной установкой перехвата.
	RetryDelay time.Duration
}

// DefaultOptions возвращает настройки с клавишами платформы по умолчанию.
func DefaultOptions() Options {
	return Options{
		Keys:       []uint16{DefaultPrimary, DefaultAlternate},
		CancelKeys: []uint16{DefaultCancel},
		Capacity:   16,
		RetryDelay: 3 * time.Second,
	}
}

// Listener превращает сырые события в фронты логической клавиши.
type Listener struct {
	src  Source
	auth Authorizer
	opts Options
	log  zerolog.Logger

	events     chan Event
	keys       map[uint16]bool
	cancelKeys map[uint16]bool

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New создаёт Listener. auth может быть nil - тогда разрешение не проверяется.
func New(src Source, auth Authorizer, opts Options, log zerolog.Logger) *Listener {
	if opts.Capacity <= 0 {
		opts.Capacity = 16
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 3 * time.Second
	}
	return &Listener{
		src:        src,
		auth:       auth,
		opts:       opts,
		log:        log,
		events:     make(chan Event, opts.Capacity),
		keys:       keySet(opts.Keys),
		cancelKeys: keySet(opts.CancelKeys),
	}
}

func keySet(codes []uint16) map[uint16]bool {
	set := make(map[uint16]bool, len(codes))
	for _, k := range codes {
		if k != 0 {
			set[k] = true
		}
	}
	return set
}

// Events возвращает канал фронтов.
func (l *Listener) Events() <-chan Event {
	return l.events
}

// Start запускает перехват в фоне. Без разрешения повторяет попытки
// каждые RetryDelay до успеха или Stop.
func (l *Listener) Start(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.done = make(chan struct{})
	go l.run(ctx, l.done)
}

// Stop снимает перехват и ждёт завершения.
func (l *Listener) Stop() {
	l.mu.Lock()
	cancel, done := l.cancel, l.done
	l.cancel, l.done = nil, nil
	l.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	l.src.Close()
	<-done
}

func (l *Listener) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	prompted := false
	for {
		err := l.install(ctx, &prompted)
		if ctx.Err() != nil {
			return
		}
		if errors.Is(err, ErrPermissionDenied) {
			l.log.Warn().Dur("retry_in", l.opts.RetryDelay).Msg("keyboard access not granted, waiting")
		} else if err != nil {
			l.log.Error().Err(err).Dur("retry_in", l.opts.RetryDelay).Msg("failed to install key hook")
		} else {
			l.log.Warn().Msg("key hook closed, reinstalling")
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(l.opts.RetryDelay):
		}
	}
}

// install ставит перехват и обрабатывает события, пока он активен.
func (l *Listener) install(ctx context.Context, prompted *bool) error {
	if l.auth != nil && !l.auth.Trusted() {
		if !*prompted {
			l.auth.Prompt()
			*prompted = true
		}
		return ErrPermissionDenied
	}

	raw, err := l.src.Open(ctx)
	if err != nil {
		return err
	}
	l.log.Info().Int("keys", len(l.keys)).Msg("key hook installed")
	l.pump(ctx, raw)
	return nil
}

// pump выделяет фронты и отправляет их без блокировки.
func (l *Listener) pump(ctx context.Context, raw <-chan RawEvent) {
	held := make(map[uint16]bool)
	cancelHeld := make(map[uint16]bool)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-raw:
			if !ok {
				return
			}
			if l.cancelKeys[ev.Code] {
				if ev.Down {
					if !cancelHeld[ev.Code] {
						l.emit(Event{Edge: Cancel, Code: ev.Code})
					}
					cancelHeld[ev.Code] = true
				} else {
					delete(cancelHeld, ev.Code)
				}
				continue
			}
			if len(l.keys) > 0 && !l.keys[ev.Code] {
				continue
			}

			wasDown := len(held) > 0
			if ev.Down {
				held[ev.Code] = true
			} else {
				delete(held, ev.Code)
			}
			isDown := len(held) > 0

			switch {
			case !wasDown && isDown:
				l.emit(Event{Edge: Pressed, Code: ev.Code})
			case wasDown && !isDown:
				l.emit(Event{Edge: Released, Code: ev.Code})
			}
		}
	}
}

func (l *Listener) emit(ev Event) {
	select {
	case l.events <- ev:
	default:
		l.log.Warn().Stringer("edge", ev.Edge).Msg("event queue full, dropping edge")
	}
}

// RunOnMainThread запускает функцию в главном потоке (требование для macOS).
func RunOnMainThread(fn func()) {
	mainthread.Init(fn)
}
