package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// reloadDebounce объединяет серии событий от редакторов, которые пишут файл в несколько шагов.
const reloadDebounce = 200 * time.Millisecond

// Watch перечитывает конфигурацию при изменении файла до отмены ctx.
// Следит за каталогом, так как редакторы часто заменяют файл целиком.
func (c *Config) Watch(ctx context.Context, log zerolog.Logger) error {
	if c.configPath == "" {
		return nil
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(c.configPath)); err != nil {
		w.Close()
		return err
	}

	go func() {
		defer w.Close()

		var timer *time.Timer
		defer func() {
			if timer != nil {
				timer.Stop()
			}
		}()

		target := filepath.Clean(c.configPath)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target {
					continue
				}
				if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
					continue
				}
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(reloadDebounce, func() {
					if err := c.Reload(); err != nil {
						log.Warn().Err(err).Str("path", target).Msg("config reload failed")
						return
					}
					log.Info().Str("path", target).Msg("config reloaded")
				})
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.Error().Err(err).Msg("fsnotify error")
			}
		}
	}()
	return nil
}
