// Package app содержит основную логику приложения.
package app

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"murmur/internal/audio"
	"murmur/internal/cleanup"
	"murmur/internal/config"
	"murmur/internal/credential"
	"murmur/internal/dictation"
	"murmur/internal/hotkey"
	"murmur/internal/input"
	"murmur/internal/logging"
	"murmur/internal/models"
	"murmur/internal/notify"
	"murmur/internal/provider"
	"murmur/internal/speech"
	"murmur/internal/usage"
)

// App представляет главное приложение.
type App struct {
	config   *config.Config
	log      zerolog.Logger
	source   *audio.PortAudioSource
	recorder *audio.Recorder
	factory  *speech.Factory
	creds    *credential.Store
	usage    *usage.Store
	cleaner  *cleanup.Client
	notifier *notify.Notifier
	listener *hotkey.Listener
	ctrl     *dictation.Controller

	mu   sync.Mutex
	prev dictation.State
}

// New создаёт приложение из переменных окружения и файла конфигурации.
func New(env config.Env) (*App, error) {
	cfg := config.New(env.ConfigPath)
	cfg.ApplyEnv(env)

	log := logging.New(cfg.LogLevel(), os.Stderr)
	log.Info().Str("config", cfg.Path()).Msg("configuration loaded")
	if err := cfg.LoadError(); err != nil {
		log.Error().Err(err).Msg("config file is invalid, using defaults and not saving changes")
	}

	source, err := audio.NewPortAudioSource()
	if err != nil {
		return nil, &audio.DeviceError{Op: "init", Err: err}
	}

	modelManager, err := models.NewManager(filepath.Join(cfg.Dir(), "models"))
	if err != nil {
		source.Close()
		return nil, err
	}

	a := &App{
		config:   cfg,
		log:      log,
		source:   source,
		recorder: audio.New(source, logging.Component(log, "audio")),
		factory:  speech.NewFactory(modelManager, logging.Component(log, "speech")),
		creds:    credential.New(credential.Service, env.Keys(), logging.Component(log, "credential")),
		usage:    usage.New(cfg.UsagePath(), logging.Component(log, "usage")),
		notifier: notify.New(cfg.NotificationsEnabled()),
	}

	a.cleaner = cleanup.NewClient(cfg, a.creds, cleanup.Options{
		Endpoints: cfg.Endpoints(),
		Timeout:   cfg.Timing().CleanupTimeout(),
	}, logging.Component(log, "cleanup"))

	a.listener = a.newListener()
	a.ctrl = dictation.New(a.deps(), a.options(), logging.Component(log, "dictation"))
	a.ctrl.OnStatusChange(a.onStatus)

	cfg.OnChange(func() {
		a.notifier.SetEnabled(cfg.NotificationsEnabled())
		// Исправленный файл может указывать на доступную модель.
		a.ctrl.RetryEngine()
		log.Info().
			Str("provider", string(cfg.Provider())).
			Str("model", cfg.Model()).
			Bool("cleanup", a.cleaner.Configured()).
			Msg("settings changed")
	})

	return a, nil
}

func (a *App) newListener() *hotkey.Listener {
	lc := a.config.Listener()
	opts := hotkey.DefaultOptions()
	hlog := logging.Component(a.log, "hotkey")

	var src hotkey.Source
	switch lc.Backend {
	case config.BackendCombo:
		src = hotkey.NewComboSource(lc.Combo, hlog)
		opts.Keys = nil
		opts.CancelKeys = nil
		hlog.Info().Str("combo", lc.Combo.String()).Msg("using key combination")
	default:
		src = hotkey.NewHookSource()
		if len(lc.Keys) > 0 {
			opts.Keys = lc.Keys
		}
		if len(lc.CancelKeys) > 0 {
			opts.CancelKeys = lc.CancelKeys
		}
	}
	return hotkey.New(src, hotkey.NewAuthorizer(), opts, hlog)
}

func (a *App) deps() dictation.Deps {
	out := a.config.Output()
	emitter := input.New(time.Duration(out.CharDelayMS)*time.Millisecond, logging.Component(a.log, "input"))

	deps := dictation.Deps{
		Recorder: a.recorder,
		Loader:   a.loadEngine,
		Cleaner:  a.cleaner,
		Typer:    emitter,
		Focus:    input.NewFocus(a.log),
		Stats:    a.usage,
	}
	if out.Mode == config.OutputPaste {
		deps.Typer = input.NewPaster(emitter, logging.Component(a.log, "input"))
	}

	if dir := a.config.AudioDumpDir(); dir != "" {
		dumper, err := audio.NewDumper(dir)
		if err != nil {
			a.log.Warn().Err(err).Str("dir", dir).Msg("audio dump disabled")
		} else {
			deps.Sink = dumper
		}
	}
	return deps
}

func (a *App) options() dictation.Options {
	t := a.config.Timing()
	return dictation.Options{
		MinDuration:       t.MinRecording(),
		TypeDelay:         t.TypeDelay(),
		DoneDelay:         t.DoneDelay(),
		ErrorDelay:        t.ErrorDelay(),
		ProcessingTimeout: t.ProcessingTimeout(),
		EngineRetry:       t.EngineRetry(),
		Language:          a.config.Language(),
	}
}

// loadEngine загружает модель распознавания, при необходимости скачивая её.
func (a *App) loadEngine(ctx context.Context) (dictation.Engine, error) {
	modelID := a.config.Engine().ModelID
	if modelID == "" {
		if info, ok := models.ForLanguage(a.config.Language()); ok {
			modelID = info.ID
		}
	}

	rec, err := a.factory.Load(ctx, modelID)
	if err != nil {
		return nil, err
	}
	a.config.SetEngineModel(a.factory.CurrentModelID())
	return rec, nil
}

// onStatus вызывается из горутины контроллера, поэтому уведомления уходят в фоне.
func (a *App) onStatus(st dictation.Status) {
	a.mu.Lock()
	prev := a.prev
	a.prev = st.State
	a.mu.Unlock()

	switch {
	case st.State == dictation.Recording:
		go a.notifier.Recording()
	case st.State == dictation.Done:
		go a.notifier.Success(st.Text)
	case st.State == dictation.Error:
		go a.notifier.Error(st.Message)
	case st.State == dictation.Idle && prev == dictation.Processing:
		go a.notifier.Empty()
	case st.State == dictation.Idle && prev == dictation.Initializing:
		go a.notifier.Info("Ready. Hold the dictation key and speak.")
	}
}

// Run запускает приложение и блокируется до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	if err := a.config.Watch(ctx, logging.Component(a.log, "config")); err != nil {
		a.log.Warn().Err(err).Msg("config watcher disabled")
	}

	if addr := a.config.MetricsAddr(); addr != "" {
		go func() {
			if err := a.usage.Serve(ctx, addr); err != nil {
				a.log.Error().Err(err).Msg("metrics server failed")
			}
		}()
	}

	kind := a.config.Provider()
	if !a.cleaner.Configured() {
		a.log.Warn().Str("provider", string(kind)).Msg("no credential for provider, raw transcripts will be typed")
	}
	if kind == provider.Ollama {
		go a.logOllamaModels(ctx)
	}

	a.listener.Start(ctx)
	defer a.listener.Stop()

	a.log.Info().Str("provider", string(kind)).Str("model", a.config.Model()).Msg("murmur running")
	err := a.ctrl.Run(ctx, a.listener.Events())

	session := a.usage.Session()
	a.log.Info().
		Int("transcriptions", session.Transcriptions).
		Int("words", session.Words).
		Int("chars", session.Chars).
		Msg("session finished")
	return err
}

func (a *App) logOllamaModels(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	names, err := cleanup.NewOllama(a.config.Endpoints().Ollama, http.DefaultClient).Models(ctx)
	if err != nil {
		a.log.Warn().Err(err).Msg("ollama is not reachable")
		return
	}
	a.log.Info().Strs("models", names).Msg("ollama models available")
}

// Close освобождает ресурсы приложения.
func (a *App) Close() {
	if a.recorder != nil {
		a.recorder.Close()
	}
	if a.factory != nil {
		a.factory.Close()
	}
	if a.source != nil {
		if err := a.source.Close(); err != nil {
			a.log.Warn().Err(err).Msg("portaudio terminate failed")
		}
	}
}
