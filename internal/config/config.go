// Package config предоставляет конфигурацию приложения с сохранением в файл.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"murmur/internal/cleanup"
	"murmur/internal/provider"
)

// Modifier представляет модификатор клавиши.
type Modifier string

const (
	ModCtrl  Modifier = "ctrl"
	ModShift Modifier = "shift"
	ModAlt   Modifier = "alt"
	ModSuper Modifier = "super" // Win/Cmd
)

// Key представляет клавишу.
type Key string

const (
	KeySpace  Key = "space"
	KeyReturn Key = "return"
	KeyTab    Key = "tab"
	KeyA      Key = "a"
	KeyB      Key = "b"
	KeyC      Key = "c"
	KeyD      Key = "d"
	KeyE      Key = "e"
	KeyF      Key = "f"
	KeyG      Key = "g"
	KeyH      Key = "h"
	KeyI      Key = "i"
	KeyJ      Key = "j"
	KeyK      Key = "k"
	KeyL      Key = "l"
	KeyM      Key = "m"
	KeyN      Key = "n"
	KeyO      Key = "o"
	KeyP      Key = "p"
	KeyQ      Key = "q"
	KeyR      Key = "r"
	KeyS      Key = "s"
	KeyT      Key = "t"
	KeyU      Key = "u"
	KeyV      Key = "v"
	KeyW      Key = "w"
	KeyX      Key = "x"
	KeyY      Key = "y"
	KeyZ      Key = "z"
	KeyF1     Key = "f1"
	KeyF2     Key = "f2"
	KeyF3     Key = "f3"
	KeyF4     Key = "f4"
	KeyF5     Key = "f5"
	KeyF6     Key = "f6"
	KeyF7     Key = "f7"
	KeyF8     Key = "f8"
	KeyF9     Key = "f9"
	KeyF10    Key = "f10"
	KeyF11    Key = "f11"
	KeyF12    Key = "f12"
)

// HotkeyConfig хранит настройки горячей клавиши.
type HotkeyConfig struct {
	Modifiers []Modifier `json:"modifiers"`
	Key       Key        `json:"key"`
}

// String возвращает строковое представление горячей клавиши.
func (h HotkeyConfig) String() string {
	result := ""
	for _, m := range h.Modifiers {
		if result != "" {
			result += "+"
		}
		result += string(m)
	}
	if result != "" {
		result += "+"
	}
	result += string(h.Key)
	return result
}

// Backend способ перехвата клавиши.
type Backend string

const (
	// BackendHook - низкоуровневый хук, ловит одиночные модификаторы.
	BackendHook Backend = "hook"
	// BackendCombo - зарегистрированное сочетание клавиш.
	BackendCombo Backend = "combo"
)

// ListenerConfig хранит настройки клавиши диктовки.
type ListenerConfig struct {
	Backend Backend `json:"backend"`
	// Keys - коды клавиш для BackendHook. Пусто - клавиши платформы по умолчанию.
	Keys  []uint16     `json:"keys,omitempty"`
	Combo HotkeyConfig `json:"combo"`
	// CancelKeys - клавиши отмены диктовки для BackendHook. Пусто - Esc.
	CancelKeys []uint16 `json:"cancel_keys,omitempty"`
}

// PromptConfig хранит инструкции для очистки текста.
type PromptConfig struct {
	CodingMode         bool   `json:"coding_mode"`
	Instructions       string `json:"instructions,omitempty"`
	CodingInstructions string `json:"coding_instructions,omitempty"`
}

// OutputMode способ вывода текста.
type OutputMode string

const (
	OutputType  OutputMode = "type"
	OutputPaste OutputMode = "paste"
)

// OutputConfig хранит настройки вывода.
type OutputConfig struct {
	Mode        OutputMode `json:"mode"`
	CharDelayMS int        `json:"char_delay_ms"`
}

// EngineConfig хранит настройки движка распознавания.
type EngineConfig struct {
	ModelID  string `json:"model_id,omitempty"`
	Language string `json:"language"`
}

// TimingConfig хранит задержки конечного автомата.
type TimingConfig struct {
	MinRecordingMS     int `json:"min_recording_ms"`
	TypeDelayMS        int `json:"type_delay_ms"`
	DoneDelayMS        int `json:"done_delay_ms"`
	ErrorDelayMS       int `json:"error_delay_ms"`
	ProcessingTimeoutS int `json:"processing_timeout_s"`
	CleanupTimeoutS    int `json:"cleanup_timeout_s"`
	EngineRetryS       int `json:"engine_retry_s"`
}

func ms(v int) time.Duration { return time.Duration(v) * time.Millisecond }

func (t TimingConfig) MinRecording() time.Duration { return ms(t.MinRecordingMS) }
func (t TimingConfig) TypeDelay() time.Duration    { return ms(t.TypeDelayMS) }
func (t TimingConfig) DoneDelay() time.Duration    { return ms(t.DoneDelayMS) }
func (t TimingConfig) ErrorDelay() time.Duration   { return ms(t.ErrorDelayMS) }

func (t TimingConfig) ProcessingTimeout() time.Duration {
	return time.Duration(t.ProcessingTimeoutS) * time.Second
}

func (t TimingConfig) CleanupTimeout() time.Duration {
	return time.Duration(t.CleanupTimeoutS) * time.Second
}

// EngineRetry - пауза перед повторной загрузкой движка после ошибки.
// Ноль отключает автоповтор, остаётся повтор по нажатию клавиши.
func (t TimingConfig) EngineRetry() time.Duration {
	return time.Duration(t.EngineRetryS) * time.Second
}

// configData структура для сериализации.
type configData struct {
	Notifications bool               `json:"notifications"`
	Hotkey        ListenerConfig     `json:"hotkey"`
	Provider      provider.Kind      `json:"provider"`
	Model         string             `json:"model,omitempty"`
	Prompt        PromptConfig       `json:"prompt"`
	Output        OutputConfig       `json:"output"`
	Engine        EngineConfig       `json:"engine"`
	Timing        TimingConfig       `json:"timing"`
	Endpoints     provider.Endpoints `json:"endpoints"`
	LogLevel      string             `json:"log_level"`
	MetricsAddr   string             `json:"metrics_addr,omitempty"`
	AudioDumpDir  string             `json:"audio_dump_dir,omitempty"`
}

func defaults() configData {
	return configData{
		Notifications: true,
		Hotkey: ListenerConfig{
			Backend: BackendHook,
			Combo: HotkeyConfig{
				Modifiers: []Modifier{ModCtrl, ModShift},
				Key:       KeySpace,
			},
		},
		Provider: provider.Default,
		Output:   OutputConfig{Mode: OutputType, CharDelayMS: 5},
		Engine:   EngineConfig{Language: "en"},
		Timing: TimingConfig{
			MinRecordingMS:     300,
			TypeDelayMS:        100,
			DoneDelayMS:        500,
			ErrorDelayMS:       2000,
			ProcessingTimeoutS: 90,
			CleanupTimeoutS:    30,
			EngineRetryS:       30,
		},
		LogLevel: "info",
	}
}

// Config хранит настройки приложения.
type Config struct {
	mu         sync.RWMutex
	data       configData
	env        Env
	configPath string
	onChange   []func()
	// loadErr - ошибка разбора файла. Пока она есть, файл не перезаписывается.
	loadErr error
}

// New создаёт конфигурацию, загружая из файла или с настройками по умолчанию.
// Пустой path - config.json рядом с бинарником.
func New(path string) *Config {
	c := &Config{data: defaults(), configPath: path}

	if c.configPath == "" {
		// Определяем путь к файлу конфигурации рядом с бинарником
		execPath, err := os.Executable()
		if err == nil {
			// Резолвим симлинки
			execPath, err = filepath.EvalSymlinks(execPath)
			if err == nil {
				c.configPath = filepath.Join(filepath.Dir(execPath), "config.json")
			}
		}
	}

	c.load()
	return c
}

// LoadError возвращает ошибку последнего чтения файла, кроме отсутствия файла.
func (c *Config) LoadError() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loadErr
}

// Path возвращает путь к файлу конфигурации.
func (c *Config) Path() string {
	return c.configPath
}

// Dir возвращает каталог файла конфигурации.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// load загружает конфигурацию из файла. Вызывается под c.mu или до публикации.
func (c *Config) load() error {
	if c.configPath == "" {
		return nil
	}

	data, err := os.ReadFile(c.configPath)
	if errors.Is(err, fs.ErrNotExist) {
		c.loadErr = nil
		return nil // Файл не существует, используем defaults
	}
	if err != nil {
		c.loadErr = err
		return err
	}

	cfg := defaults()
	if err := json.Unmarshal(data, &cfg); err != nil {
		c.loadErr = fmt.Errorf("%s: %w", c.configPath, err)
		return c.loadErr
	}
	c.loadErr = nil
	if !cfg.Provider.Valid() {
		cfg.Provider = provider.Default
	}
	if cfg.Hotkey.Combo.Key == "" {
		cfg.Hotkey.Combo = defaults().Hotkey.Combo
	}
	c.data = cfg
	return nil
}

// save сохраняет конфигурацию в файл.
func (c *Config) save() {
	if c.configPath == "" || c.loadErr != nil {
		return
	}

	data, err := json.MarshalIndent(c.data, "", "  ")
	if err != nil {
		return
	}

	os.WriteFile(c.configPath, data, 0644)
}

// Reload перечитывает файл и вызывает подписчиков OnChange.
func (c *Config) Reload() error {
	c.mu.Lock()
	err := c.load()
	callbacks := append([]func(){}, c.onChange...)
	c.mu.Unlock()

	if err != nil {
		return err
	}
	for _, fn := range callbacks {
		fn()
	}
	return nil
}

// OnChange добавляет callback, вызываемый после Reload.
func (c *Config) OnChange(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onChange = append(c.onChange, fn)
}

// SetNotifications включает/выключает уведомления.
func (c *Config) SetNotifications(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data.Notifications = enabled
	c.save()
}

// ToggleNotifications переключает состояние уведомлений.
func (c *Config) ToggleNotifications() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data.Notifications = !c.data.Notifications
	c.save()
	return c.data.Notifications
}

// NotificationsEnabled возвращает true если уведомления включены.
func (c *Config) NotificationsEnabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data.Notifications
}

// Listener возвращает настройки клавиши диктовки.
func (c *Config) Listener() ListenerConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	l := c.data.Hotkey
	l.Keys = append([]uint16(nil), l.Keys...)
	return l
}

// SetListener устанавливает настройки клавиши диктовки.
func (c *Config) SetListener(l ListenerConfig) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data.Hotkey = l
	c.save()
}

// Provider возвращает выбранного провайдера очистки.
func (c *Config) Provider() provider.Kind {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.env.Provider != "" {
		return provider.Kind(c.env.Provider)
	}
	return c.data.Provider
}

// SetProvider выбирает провайдера и сбрасывает модель на модель по умолчанию.
func (c *Config) SetProvider(kind provider.Kind) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data.Provider = kind
	c.data.Model = ""
	c.save()
}

// Model возвращает выбранную модель. Пустая в файле - модель провайдера по умолчанию.
func (c *Config) Model() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.env.Model != "" {
		return c.env.Model
	}
	if c.data.Model != "" {
		return c.data.Model
	}
	kind := c.data.Provider
	if c.env.Provider != "" {
		kind = provider.Kind(c.env.Provider)
	}
	return kind.DefaultModel()
}

// SetModel устанавливает модель.
func (c *Config) SetModel(model string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data.Model = model
	c.save()
}

// Prompt возвращает настройки инструкций.
func (c *Config) Prompt() PromptConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data.Prompt
}

// SetCodingMode включает/выключает режим диктовки для ассистентов программирования.
func (c *Config) SetCodingMode(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data.Prompt.CodingMode = enabled
	c.save()
}

// SystemPrompt возвращает инструкцию для текущего режима.
func (c *Config) SystemPrompt() string {
	p := c.Prompt()
	if p.CodingMode {
		if p.CodingInstructions != "" {
			return p.CodingInstructions
		}
		return cleanup.CodingPrompt
	}
	if p.Instructions != "" {
		return p.Instructions
	}
	return cleanup.DefaultPrompt
}

// Output возвращает настройки вывода.
func (c *Config) Output() OutputConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data.Output
}

// Engine возвращает настройки движка распознавания.
func (c *Config) Engine() EngineConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data.Engine
}

// SetEngineModel устанавливает ID модели распознавания.
func (c *Config) SetEngineModel(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.data.Engine.ModelID == id {
		return
	}
	c.data.Engine.ModelID = id
	c.save()
}

// Language возвращает язык распознавания.
func (c *Config) Language() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data.Engine.Language
}

// Timing возвращает задержки.
func (c *Config) Timing() TimingConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data.Timing
}

// Endpoints возвращает адреса API с учётом окружения.
func (c *Config) Endpoints() provider.Endpoints {
	c.mu.RLock()
	defer c.mu.RUnlock()
	eps := c.data.Endpoints
	if c.env.OpenAIBaseURL != "" {
		eps.OpenAI = c.env.OpenAIBaseURL
	}
	if c.env.OllamaURL != "" {
		eps.Ollama = c.env.OllamaURL
	}
	return eps.WithDefaults()
}

// LogLevel возвращает уровень логирования.
func (c *Config) LogLevel() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.env.LogLevel != "" {
		return c.env.LogLevel
	}
	return c.data.LogLevel
}

// MetricsAddr возвращает адрес сервера метрик. Пусто - сервер выключен.
func (c *Config) MetricsAddr() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.env.MetricsAddr != "" {
		return c.env.MetricsAddr
	}
	return c.data.MetricsAddr
}

// AudioDumpDir возвращает каталог для отладочных WAV. Пусто - не сохранять.
func (c *Config) AudioDumpDir() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.env.AudioDumpDir != "" {
		return c.env.AudioDumpDir
	}
	return c.data.AudioDumpDir
}

// UsagePath возвращает путь к файлу статистики рядом с конфигурацией.
func (c *Config) UsagePath() string {
	if dir := c.Dir(); dir != "" {
		return filepath.Join(dir, "usage.json")
	}
	return ""
}

// AvailableModifiers возвращает список доступных модификаторов.
func AvailableModifiers() []Modifier {
	return []Modifier{ModCtrl, ModShift, ModAlt, ModSuper}
}

// AvailableKeys возвращает список доступных клавиш.
func AvailableKeys() []Key {
	return []Key{
		KeySpace, KeyReturn, KeyTab,
		KeyA, KeyB, KeyC, KeyD, KeyE, KeyF, KeyG, KeyH, KeyI, KeyJ, KeyK, KeyL, KeyM,
		KeyN, KeyO, KeyP, KeyQ, KeyR, KeyS, KeyT, KeyU, KeyV, KeyW, KeyX, KeyY, KeyZ,
		KeyF1, KeyF2, KeyF3, KeyF4, KeyF5, KeyF6, KeyF7, KeyF8, KeyF9, KeyF10, KeyF11, KeyF12,
	}
}
