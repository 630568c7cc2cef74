package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"murmur/internal/provider"
)

// Env - переопределения из переменных окружения. В файл не сохраняются.
type Env struct {
	ConfigPath   string `env:"MURMUR_CONFIG"`
	LogLevel     string `env:"MURMUR_LOG_LEVEL"`
	Provider     string `env:"MURMUR_PROVIDER"`
	Model        string `env:"MURMUR_MODEL"`
	MetricsAddr  string `env:"MURMUR_METRICS_ADDR"`
	AudioDumpDir string `env:"MURMUR_AUDIO_DUMP_DIR"`

	AnthropicKey  string `env:"ANTHROPIC_API_KEY"`
	OpenAIKey     string `env:"OPENAI_API_KEY"`
	GeminiKey     string `env:"GEMINI_API_KEY"`
	OpenAIBaseURL string `env:"OPENAI_BASE_URL"`
	OllamaURL     string `env:"OLLAMA_HOST"`
}

// LoadEnv читает .env (если есть) и переменные окружения.
// Переменные окружения важнее значений из .env.
func LoadEnv(envFile string) (Env, error) {
	if envFile == "" {
		envFile = ".env"
	}
	if _, err := os.Stat(envFile); err == nil {
		_ = godotenv.Load(envFile)
	}

	var e Env
	if err := env.Parse(&e); err != nil {
		return Env{}, err
	}
	if e.Provider != "" {
		kind, err := provider.Parse(e.Provider)
		if err != nil {
			return Env{}, fmt.Errorf("MURMUR_PROVIDER: %w", err)
		}
		e.Provider = string(kind)
	}
	return e, nil
}

// Keys возвращает ключи провайдеров из окружения.
func (e Env) Keys() map[provider.Kind]string {
	return map[provider.Kind]string{
		provider.Claude: e.AnthropicKey,
		provider.OpenAI: e.OpenAIKey,
		provider.Gemini: e.GeminiKey,
	}
}

// ApplyEnv накладывает переопределения поверх файла.
func (c *Config) ApplyEnv(e Env) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.env = e
}
