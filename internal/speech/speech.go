// Package speech предоставляет абстракцию для движков распознавания речи.
package speech

import "errors"

// ErrNotLoaded возвращается, пока модель не загружена.
var ErrNotLoaded = errors.New("speech: модель не загружена")

// Recognizer - интерфейс для движков распознавания речи.
type Recognizer interface {
	// Transcribe распознаёт речь из аудио сэмплов.
	// samples - аудио данные в формате float32, 16kHz, mono.
	// lang - язык распознавания ("ru", "en").
	Transcribe(samples []float32, lang string) (string, error)

	// Close освобождает ресурсы движка.
	Close()

	// Name возвращает название движка (для логирования).
	Name() string
}
