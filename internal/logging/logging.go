// Package logging настраивает zerolog для приложения.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New создаёт логгер с уровнем level. Неизвестный уровень трактуется как info.
// Если w - терминал (os.Stderr/os.Stdout), вывод человекочитаемый.
func New(level string, w io.Writer) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	if f, ok := w.(*os.File); ok && (f == os.Stderr || f == os.Stdout) {
		w = zerolog.ConsoleWriter{Out: f, TimeFormat: time.TimeOnly}
	}

	return zerolog.New(w).With().Timestamp().Logger().Level(lvl)
}

// Component возвращает дочерний логгер с полем component.
func Component(log zerolog.Logger, name string) zerolog.Logger {
	return log.With().Str("component", name).Logger()
}
