// Package input предоставляет ввод текста в активное поле.
package input

import (
	"time"
	"unicode/utf16"

	"github.com/rivo/uniseg"
	"github.com/rs/zerolog"
)

// CharDelay - пауза между символами, чтобы приложение успевало их принять.
const CharDelay = 5 * time.Millisecond

// Typer вводит текст в активное поле ввода.
type Typer interface {
	// Type вводит текст в текущее активное поле. Ошибки отдельных символов пропускаются.
	Type(text string)
}

// Poster отправляет нажатие и отпускание для одного символа в UTF-16.
type Poster interface {
	Post(units []uint16) error
}

// Emitter вводит текст по одному графемному кластеру.
type Emitter struct {
	poster Poster
	delay  time.Duration
	sleep  func(time.Duration)
	log    zerolog.Logger
}

// NewEmitter создаёт Emitter. Отрицательная delay заменяется на CharDelay.
func NewEmitter(p Poster, delay time.Duration, log zerolog.Logger) *Emitter {
	if delay < 0 {
		delay = CharDelay
	}
	return &Emitter{poster: p, delay: delay, sleep: time.Sleep, log: log}
}

// New создаёт Emitter для текущей платформы. Нулевая delay - CharDelay.
func New(delay time.Duration, log zerolog.Logger) *Emitter {
	if delay <= 0 {
		delay = CharDelay
	}
	return NewEmitter(newPoster(), delay, log)
}

// Type вводит текст. Эмодзи с модификаторами и составные символы
// отправляются одним событием.
func (e *Emitter) Type(text string) {
	g := uniseg.NewGraphemes(text)
	first := true
	for g.Next() {
		if !first && e.delay > 0 {
			e.sleep(e.delay)
		}
		first = false

		units := utf16.Encode(g.Runes())
		if err := e.poster.Post(units); err != nil {
			e.log.Debug().Err(err).Str("cluster", g.Str()).Msg("keystroke skipped")
		}
	}
}

// Window - идентификатор окна или приложения. Ноль - неизвестно.
type Window uint64

// Focus запоминает и восстанавливает активное окно.
type Focus interface {
	Capture() Window
	Restore(w Window)
}

// NewFocus возвращает Focus для текущей платформы.
func NewFocus(log zerolog.Logger) Focus {
	return newFocus(log)
}
