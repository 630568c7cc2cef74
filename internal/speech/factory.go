package speech

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"murmur/internal/models"
)

// Opener открывает распознаватель из каталога модели.
type Opener func(modelPath string) (Recognizer, error)

// Factory управляет созданием и переключением распознавателей.
type Factory struct {
	manager *models.Manager
	open    Opener
	log     zerolog.Logger

	mu      sync.RWMutex
	current Recognizer
	modelID string
}

// NewFactory создаёт фабрику распознавателей поверх Vosk.
func NewFactory(manager *models.Manager, log zerolog.Logger) *Factory {
	return NewFactoryWith(manager, func(path string) (Recognizer, error) {
		return NewVosk(path)
	}, log)
}

// NewFactoryWith создаёт фабрику с произвольным способом открытия модели.
func NewFactoryWith(manager *models.Manager, open Opener, log zerolog.Logger) *Factory {
	return &Factory{manager: manager, open: open, log: log}
}

// Load загружает модель (при необходимости скачивая её) и делает её текущей.
// Повторный вызов с той же моделью возвращает уже загруженный распознаватель.
func (f *Factory) Load(ctx context.Context, modelID string) (Recognizer, error) {
	if modelID == "" {
		modelID = models.DefaultModelID()
	}

	f.mu.RLock()
	if f.current != nil && f.modelID == modelID {
		rec := f.current
		f.mu.RUnlock()
		return rec, nil
	}
	f.mu.RUnlock()

	info, ok := models.GetModel(modelID)
	if !ok {
		return nil, fmt.Errorf("модель не найдена: %s", modelID)
	}

	if !f.manager.IsDownloaded(info) {
		f.log.Info().Str("model", info.ID).Str("url", info.URL).Msg("downloading speech model")
		progress := make(chan Progress, 16)
		done := make(chan struct{})
		go f.logProgress(progress, done)
		err := f.manager.Download(ctx, info, progress)
		close(progress)
		<-done
		if err != nil {
			return nil, fmt.Errorf("ошибка скачивания модели %s: %w", info.ID, err)
		}
	}

	rec, err := f.open(f.manager.GetModelPath(info))
	if err != nil {
		return nil, fmt.Errorf("ошибка создания распознавателя: %w", err)
	}

	f.mu.Lock()
	old := f.current
	f.current = rec
	f.modelID = modelID
	f.mu.Unlock()

	if old != nil {
		go old.Close()
	}

	f.log.Info().Str("model", info.ID).Str("engine", rec.Name()).Msg("speech model loaded")
	return rec, nil
}

// Progress - алиас для прогресса загрузки.
type Progress = models.Progress

func (f *Factory) logProgress(progress <-chan Progress, done chan<- struct{}) {
	defer close(done)
	lastPct := int64(-1)
	for p := range progress {
		if p.Total <= 0 {
			continue
		}
		pct := p.Downloaded * 100 / p.Total
		if pct/10 != lastPct/10 {
			lastPct = pct
			f.log.Debug().Str("model", p.ModelID).Int64("percent", pct).Msg("download progress")
		}
	}
}

// Current возвращает текущий распознаватель (thread-safe).
func (f *Factory) Current() Recognizer {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.current
}

// CurrentModelID возвращает ID текущей модели.
func (f *Factory) CurrentModelID() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.modelID
}

// IsLoaded проверяет, загружена ли модель.
func (f *Factory) IsLoaded() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.current != nil
}

// Transcribe распознаёт речь текущей моделью.
func (f *Factory) Transcribe(samples []float32, lang string) (string, error) {
	rec := f.Current()
	if rec == nil {
		return "", ErrNotLoaded
	}
	return rec.Transcribe(samples, lang)
}

// Close закрывает текущий распознаватель.
func (f *Factory) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.current != nil {
		f.current.Close()
		f.current = nil
		f.modelID = ""
	}
}
