// Package provider описывает удалённые сервисы для очистки распознанного текста.
package provider

import (
	"fmt"
	"strings"
)

// Kind тип провайдера.
type Kind string

const (
	Claude Kind = "claude"
	OpenAI Kind = "openai"
	Gemini Kind = "gemini"
	// Ollama - локальный сервер, ключ не нужен.
	Ollama Kind = "ollama"
)

// Default провайдер по умолчанию.
const Default = Gemini

// All возвращает все известные провайдеры.
func All() []Kind {
	return []Kind{Claude, OpenAI, Gemini, Ollama}
}

// Parse разбирает строку в Kind.
func Parse(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", fmt.Errorf("неизвестный провайдер: %q", s)
	}
	return k, nil
}

// Valid возвращает true для известных провайдеров.
func (k Kind) Valid() bool {
	switch k {
	case Claude, OpenAI, Gemini, Ollama:
		return true
	}
	return false
}

// DisplayName возвращает отображаемое имя.
func (k Kind) DisplayName() string {
	switch k {
	case Claude:
		return "Claude"
	case OpenAI:
		return "OpenAI"
	case Gemini:
		return "Gemini"
	case Ollama:
		return "Ollama"
	default:
		return string(k)
	}
}

// RequiresKey возвращает true если провайдеру нужен API ключ.
func (k Kind) RequiresKey() bool {
	return k != Ollama
}

// EnvVar возвращает имя переменной окружения с ключом.
func (k Kind) EnvVar() string {
	switch k {
	case Claude:
		return "ANTHROPIC_API_KEY"
	case OpenAI:
		return "OPENAI_API_KEY"
	case Gemini:
		return "GEMINI_API_KEY"
	}
	return ""
}

// DefaultModel возвращает модель по умолчанию.
func (k Kind) DefaultModel() string {
	switch k {
	case Claude:
		return "claude-sonnet-4-20250514"
	case OpenAI:
		return "gpt-4o-mini"
	case Gemini:
		return "gemini-2.5-flash-lite"
	case Ollama:
		return "qwen2.5:0.5b"
	}
	return ""
}

// AvailableModels возвращает модели, доступные для выбора.
func (k Kind) AvailableModels() []string {
	switch k {
	case Claude:
		return []string{
			"claude-sonnet-4-20250514",
			"claude-haiku-4-20250514",
			"claude-3-5-sonnet-20241022",
			"claude-3-5-haiku-20241022",
		}
	case OpenAI:
		return []string{"gpt-4o-mini", "gpt-4o", "gpt-4-turbo", "gpt-3.5-turbo"}
	case Gemini:
		return []string{
			"gemini-2.5-flash-lite",
			"gemini-2.0-flash-lite",
			"gemini-2.0-flash",
			"gemini-1.5-flash",
			"gemini-1.5-pro",
		}
	case Ollama:
		return []string{"qwen2.5:0.5b", "qwen2.5:1.5b", "llama3.2:3b"}
	}
	return nil
}

// Endpoints адреса API провайдеров.
type Endpoints struct {
	Anthropic string `json:"anthropic,omitempty"`
	OpenAI    string `json:"openai,omitempty"`
	// Gemini - базовый адрес, модель подставляется в путь.
	Gemini string `json:"gemini,omitempty"`
	Ollama string `json:"ollama,omitempty"`
}

// DefaultEndpoints возвращает публичные адреса API.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		Anthropic: "https://api.anthropic.com/v1/messages",
		OpenAI:    "https://api.openai.com/v1",
		Gemini:    "https://generativelanguage.googleapis.com/v1beta/models",
		Ollama:    "http://localhost:11434",
	}
}

// WithDefaults заполняет пустые адреса значениями по умолчанию.
func (e Endpoints) WithDefaults() Endpoints {
	d := DefaultEndpoints()
	if e.Anthropic == "" {
		e.Anthropic = d.Anthropic
	}
	if e.OpenAI == "" {
		e.OpenAI = d.OpenAI
	}
	if e.Gemini == "" {
		e.Gemini = d.Gemini
	}
	if e.Ollama == "" {
		e.Ollama = d.Ollama
	}
	return e
}

// Profile - выбранный провайдер вместе с моделью и адресом.
type Profile struct {
	Kind  Kind
	Model string
	// Endpoint для Gemini содержит шаблон {model}.
	Endpoint      string
	CredentialKey string
}

// Resolve собирает Profile для провайдера. Пустая модель заменяется моделью по умолчанию.
func Resolve(kind Kind, model string, eps Endpoints) Profile {
	eps = eps.WithDefaults()
	if model == "" {
		model = kind.DefaultModel()
	}

	p := Profile{Kind: kind, Model: model, CredentialKey: string(kind)}
	switch kind {
	case Claude:
		p.Endpoint = eps.Anthropic
	case OpenAI:
		p.Endpoint = strings.TrimRight(eps.OpenAI, "/") + "/chat/completions"
	case Gemini:
		p.Endpoint = strings.TrimRight(eps.Gemini, "/") + "/{model}:generateContent"
	case Ollama:
		p.Endpoint = strings.TrimRight(eps.Ollama, "/") + "/api/generate"
		p.CredentialKey = ""
	}
	return p
}

// URL возвращает адрес с подставленной моделью.
func (p Profile) URL() string {
	return strings.ReplaceAll(p.Endpoint, "{model}", p.Model)
}
