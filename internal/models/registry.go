// Package models управляет моделями распознавания речи.
package models

// ModelInfo информация о модели Vosk.
type ModelInfo struct {
	ID       string // Уникальный идентификатор: "vosk-en-small"
	Name     string // Отображаемое имя
	Language string
	Dir      string // Каталог после распаковки архива
	URL      string // URL архива
	Size     int64  // Размер в байтах (для прогресса)
}

// Registry все доступные модели.
var Registry = []ModelInfo{
	{
		ID:       "vosk-en-small",
		Name:     "English Small",
		Language: "en",
		Dir:      "vosk-model-small-en-us-0.15",
		URL:      "https://alphacephei.com/vosk/models/vosk-model-small-en-us-0.15.zip",
		Size:     40 * 1024 * 1024,
	},
	{
		ID:       "vosk-en-lgraph",
		Name:     "English Medium",
		Language: "en",
		Dir:      "vosk-model-en-us-0.22-lgraph",
		URL:      "https://alphacephei.com/vosk/models/vosk-model-en-us-0.22-lgraph.zip",
		Size:     128 * 1024 * 1024,
	},
	{
		ID:       "vosk-ru-small",
		Name:     "Russian Small",
		Language: "ru",
		Dir:      "vosk-model-small-ru-0.22",
		URL:      "https://alphacephei.com/vosk/models/vosk-model-small-ru-0.22.zip",
		Size:     45 * 1024 * 1024,
	},
}

// DefaultModelID модель по умолчанию.
func DefaultModelID() string {
	return "vosk-en-small"
}

// GetModel возвращает модель по ID.
func GetModel(id string) (ModelInfo, bool) {
	for _, m := range Registry {
		if m.ID == id {
			return m, true
		}
	}
	return ModelInfo{}, false
}

// ForLanguage возвращает первую модель для языка.
func ForLanguage(lang string) (ModelInfo, bool) {
	for _, m := range Registry {
		if m.Language == lang {
			return m, true
		}
	}
	return ModelInfo{}, false
}
