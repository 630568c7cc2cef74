// Murmur - фоновый сервис диктовки: удерживайте клавишу, говорите,
// отпустите - распознанный текст будет напечатан в активное окно.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"murmur/internal/app"
	"murmur/internal/config"
	"murmur/internal/hotkey"
)

// Version устанавливается при сборке через -ldflags.
var Version = "dev"

func main() {
	// Хуки клавиатуры на macOS требуют главного потока
	hotkey.RunOnMainThread(run)
}

func run() {
	early := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	env, err := config.LoadEnv("")
	if err != nil {
		early.Fatal().Err(err).Msg("invalid environment")
	}

	application, err := app.New(env)
	if err != nil {
		early.Fatal().Err(err).Msg("initialization failed")
	}
	defer application.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	early.Info().Str("version", Version).Msg("murmur starting")
	if err := application.Run(ctx); err != nil {
		early.Error().Err(err).Msg("murmur stopped with error")
	}
}
