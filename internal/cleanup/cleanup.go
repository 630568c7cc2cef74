// Package cleanup отправляет распознанный текст удалённой языковой модели для исправления.
package cleanup

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"murmur/internal/provider"
)

const (
	maxOutputTokens = 1024
	temperature     = 0.1
	// DefaultTimeout - таймаут одного запроса к провайдеру.
	DefaultTimeout = 30 * time.Second
)

var (
	// ErrParse - в ответе провайдера нет текста по ожидаемому пути.
	ErrParse = errors.New("cleanup: unexpected response shape")
	// ErrNoCredential - для выбранного провайдера не сохранён ключ.
	ErrNoCredential = errors.New("cleanup: no credential for provider")
	// ErrUnknownProvider - провайдер не поддерживается.
	ErrUnknownProvider = errors.New("cleanup: unknown provider")
)

// APIError - провайдер вернул статус вне диапазона 2xx.
type APIError struct {
	Provider   provider.Kind
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s error %d: %s", e.Provider, e.StatusCode, e.Body)
}

// Outcome результат очистки.
type Outcome struct {
	Text         string
	InputTokens  int
	OutputTokens int
	Provider     provider.Kind
}

// TotalTokens возвращает сумму входных и выходных токенов.
func (o Outcome) TotalTokens() int {
	return o.InputTokens + o.OutputTokens
}

// Provider - адаптер одного API.
type Provider interface {
	Kind() provider.Kind
	// Clean отправляет текст модели. Пустой текст возвращается без запроса.
	Clean(ctx context.Context, text, apiKey, model, systemPrompt string) (Outcome, error)
}

// Settings - источник текущего выбора провайдера.
type Settings interface {
	Provider() provider.Kind
	Model() string
	SystemPrompt() string
}

// Credentials - хранилище ключей.
type Credentials interface {
	Get(kind provider.Kind) (string, bool)
}

// Override позволяет вызвать провайдера в обход настроек.
type Override struct {
	Kind  provider.Kind
	Model string
}

// Client выбирает провайдера по настройкам и вызывает его.
type Client struct {
	settings  Settings
	creds     Credentials
	providers map[provider.Kind]Provider
	timeout   time.Duration
	log       zerolog.Logger
}

// Options настройки клиента.
type Options struct {
	Endpoints  provider.Endpoints
	Timeout    time.Duration
	HTTPClient *http.Client
}

// NewClient создаёт клиент со всеми известными провайдерами.
func NewClient(settings Settings, creds Credentials, opts Options, log zerolog.Logger) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	c := &Client{
		settings:  settings,
		creds:     creds,
		providers: make(map[provider.Kind]Provider),
		timeout:   timeout,
		log:       log,
	}
	eps := opts.Endpoints.WithDefaults()
	for _, kind := range provider.All() {
		if p := newProvider(kind, eps, hc); p != nil {
			c.providers[kind] = p
		}
	}
	return c
}

func newProvider(kind provider.Kind, eps provider.Endpoints, hc *http.Client) Provider {
	switch kind {
	case provider.Claude:
		return NewAnthropic(eps.Anthropic, hc)
	case provider.Gemini:
		return NewGemini(eps.Gemini, hc)
	case provider.OpenAI:
		return NewOpenAI(eps.OpenAI, hc)
	case provider.Ollama:
		return NewOllama(eps.Ollama, hc)
	}
	return nil
}

// Configured возвращает true если выбранного провайдера можно вызвать.
func (c *Client) Configured() bool {
	kind := c.settings.Provider()
	if _, ok := c.providers[kind]; !ok {
		return false
	}
	if !kind.RequiresKey() {
		return true
	}
	key, ok := c.creds.Get(kind)
	return ok && key != ""
}

// Clean очищает текст выбранным в настройках провайдером.
func (c *Client) Clean(ctx context.Context, text string) (Outcome, error) {
	return c.CleanWith(ctx, text, Override{})
}

// CleanWith очищает текст, используя провайдера и модель из o, если они заданы.
func (c *Client) CleanWith(ctx context.Context, text string, o Override) (Outcome, error) {
	kind := o.Kind
	if kind == "" {
		kind = c.settings.Provider()
	}
	if strings.TrimSpace(text) == "" {
		return Outcome{Text: text, Provider: kind}, nil
	}

	p, ok := c.providers[kind]
	if !ok {
		return Outcome{}, fmt.Errorf("%w: %q", ErrUnknownProvider, kind)
	}

	model := o.Model
	if model == "" && o.Kind == "" {
		model = c.settings.Model()
	}
	if model == "" {
		model = kind.DefaultModel()
	}

	var key string
	if kind.RequiresKey() {
		k, ok := c.creds.Get(kind)
		if !ok || k == "" {
			return Outcome{}, fmt.Errorf("%w: %s", ErrNoCredential, kind)
		}
		key = k
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	out, err := p.Clean(ctx, text, key, model, c.settings.SystemPrompt())
	if err != nil {
		return Outcome{}, err
	}
	c.log.Debug().
		Str("provider", string(kind)).
		Str("model", model).
		Int("input_tokens", out.InputTokens).
		Int("output_tokens", out.OutputTokens).
		Dur("took", time.Since(start)).
		Msg("text cleaned")
	return out, nil
}

// userMessage склеивает инструкцию и текст в одно сообщение.
func userMessage(systemPrompt, text string) string {
	return systemPrompt + "\n\nInput:\n" + text
}
