package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"murmur/internal/cleanup"
	"murmur/internal/provider"
)

func tempConfig(t *testing.T) *Config {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "config.json"))
}

func TestDefaults(t *testing.T) {
	c := tempConfig(t)
	if c.Provider() != provider.Gemini {
		t.Errorf("Provider = %q, want gemini", c.Provider())
	}
	if c.Model() != "gemini-2.5-flash-lite" {
		t.Errorf("Model = %q", c.Model())
	}
	tm := c.Timing()
	if tm.TypeDelay() != 100*time.Millisecond || tm.DoneDelay() != 500*time.Millisecond || tm.ErrorDelay() != 2*time.Second {
		t.Errorf("timing = %+v", tm)
	}
	if tm.MinRecording() != 300*time.Millisecond {
		t.Errorf("MinRecording = %v", tm.MinRecording())
	}
	if c.Listener().Backend != BackendHook {
		t.Errorf("Backend = %q", c.Listener().Backend)
	}
	if c.Listener().Combo.String() != "ctrl+shift+space" {
		t.Errorf("Combo = %q", c.Listener().Combo)
	}
	if c.Output().Mode != OutputType {
		t.Errorf("Output.Mode = %q", c.Output().Mode)
	}
	if !c.NotificationsEnabled() {
		t.Error("notifications should default to on")
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	c := New(path)
	c.SetProvider(provider.Claude)
	c.SetModel("claude-3-5-haiku-20241022")
	c.SetCodingMode(true)
	c.SetNotifications(false)
	c.SetEngineModel("vosk-en-small")
	c.SetListener(ListenerConfig{Backend: BackendCombo, Combo: HotkeyConfig{Modifiers: []Modifier{ModAlt}, Key: KeyD}})

	r := New(path)
	if r.Provider() != provider.Claude || r.Model() != "claude-3-5-haiku-20241022" {
		t.Errorf("provider/model = %q/%q", r.Provider(), r.Model())
	}
	if !r.Prompt().CodingMode {
		t.Error("coding mode not persisted")
	}
	if r.NotificationsEnabled() {
		t.Error("notifications not persisted")
	}
	if r.Engine().ModelID != "vosk-en-small" {
		t.Errorf("engine model = %q", r.Engine().ModelID)
	}
	if l := r.Listener(); l.Backend != BackendCombo || l.Combo.String() != "alt+d" {
		t.Errorf("listener = %+v", l)
	}
}

func TestSetProviderResetsModel(t *testing.T) {
	c := tempConfig(t)
	c.SetModel("gemini-1.5-pro")
	c.SetProvider(provider.OpenAI)
	if c.Model() != "gpt-4o-mini" {
		t.Errorf("Model = %q, want provider default", c.Model())
	}
}

func TestInvalidProviderInFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"provider":"bard","timing":{"type_delay_ms":50}}`), 0644); err != nil {
		t.Fatal(err)
	}
	c := New(path)
	if c.Provider() != provider.Gemini {
		t.Errorf("Provider = %q, want fallback gemini", c.Provider())
	}
	if c.Timing().TypeDelayMS != 50 {
		t.Errorf("TypeDelayMS = %d, want 50", c.Timing().TypeDelayMS)
	}
	if c.Timing().DoneDelayMS != 500 {
		t.Errorf("missing fields should keep defaults, DoneDelayMS = %d", c.Timing().DoneDelayMS)
	}
}

func TestSystemPrompt(t *testing.T) {
	c := tempConfig(t)
	if c.SystemPrompt() != cleanup.DefaultPrompt {
		t.Error("default prompt expected")
	}
	c.SetCodingMode(true)
	if c.SystemPrompt() != cleanup.CodingPrompt {
		t.Error("coding prompt expected")
	}
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("MURMUR_PROVIDER", "Claude")
	t.Setenv("MURMUR_MODEL", "claude-3-5-sonnet-20241022")
	t.Setenv("MURMUR_LOG_LEVEL", "debug")
	t.Setenv("ANTHROPIC_API_KEY", "sk-env")
	t.Setenv("OLLAMA_HOST", "http://gpu:11434")

	e, err := LoadEnv(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("LoadEnv: %v", err)
	}
	if e.Provider != "claude" {
		t.Errorf("Provider = %q, want normalized claude", e.Provider)
	}
	if e.Keys()[provider.Claude] != "sk-env" {
		t.Errorf("Keys = %v", e.Keys())
	}

	c := tempConfig(t)
	c.ApplyEnv(e)
	if c.Provider() != provider.Claude || c.Model() != "claude-3-5-sonnet-20241022" {
		t.Errorf("provider/model = %q/%q", c.Provider(), c.Model())
	}
	if c.LogLevel() != "debug" {
		t.Errorf("LogLevel = %q", c.LogLevel())
	}
	if c.Endpoints().Ollama != "http://gpu:11434" {
		t.Errorf("Ollama = %q", c.Endpoints().Ollama)
	}
	if c.Endpoints().Anthropic == "" {
		t.Error("endpoints should be filled with defaults")
	}

	// Переопределения не попадают в файл.
	c.SetCodingMode(true)
	if New(c.Path()).Provider() != provider.Gemini {
		t.Error("env override leaked into config file")
	}
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("GEMINI_API_KEY=from-file\nMURMUR_METRICS_ADDR=127.0.0.1:9464\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("GEMINI_API_KEY", "")
	os.Unsetenv("GEMINI_API_KEY")
	os.Unsetenv("MURMUR_METRICS_ADDR")
	t.Cleanup(func() { os.Unsetenv("MURMUR_METRICS_ADDR") })

	e, err := LoadEnv(path)
	if err != nil {
		t.Fatalf("LoadEnv: %v", err)
	}
	if e.GeminiKey != "from-file" || e.MetricsAddr != "127.0.0.1:9464" {
		t.Errorf("env = %+v", e)
	}
}

func TestLoadEnvInvalidProvider(t *testing.T) {
	t.Setenv("MURMUR_PROVIDER", "bard")
	if _, err := LoadEnv(filepath.Join(t.TempDir(), "none")); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestWatchReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	c := New(path)
	c.SetNotifications(true)

	changed := make(chan struct{}, 4)
	c.OnChange(func() { changed <- struct{}{} })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := c.Watch(ctx, zerolog.Nop()); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	if err := os.WriteFile(path, []byte(`{"notifications":false,"provider":"openai"}`), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-changed:
	case <-time.After(3 * time.Second):
		t.Fatal("config was not reloaded")
	}
	if c.NotificationsEnabled() || c.Provider() != provider.OpenAI {
		t.Errorf("after reload notifications=%v provider=%q", c.NotificationsEnabled(), c.Provider())
	}
}

func TestBrokenFileIsNotOverwritten(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	broken := []byte(`{"provider":"claude","model":"claude-3-5-haiku-20241022",}`)
	if err := os.WriteFile(path, broken, 0644); err != nil {
		t.Fatal(err)
	}

	c := New(path)
	if c.LoadError() == nil {
		t.Fatal("LoadError = nil for malformed JSON")
	}
	if c.Provider() != provider.Gemini {
		t.Errorf("Provider = %q, want defaults while file is broken", c.Provider())
	}

	c.SetEngineModel("vosk-en-small")
	c.SetNotifications(false)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != string(broken) {
		t.Errorf("broken file was overwritten:\n%s", data)
	}

	// После исправления файла сохранение снова работает.
	if err := os.WriteFile(path, []byte(`{"provider":"claude"}`), 0644); err != nil {
		t.Fatal(err)
	}
	if err := c.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if c.LoadError() != nil || c.Provider() != provider.Claude {
		t.Errorf("after fix: err=%v provider=%q", c.LoadError(), c.Provider())
	}
	c.SetEngineModel("vosk-ru-small")
	if New(path).Engine().ModelID != "vosk-ru-small" {
		t.Error("save disabled after file was fixed")
	}
}

func TestMissingFileIsNotAnError(t *testing.T) {
	c := tempConfig(t)
	if err := c.LoadError(); err != nil {
		t.Errorf("LoadError = %v for missing file", err)
	}
}

func TestSetEngineModelUnchangedSkipsWrite(t *testing.T) {
	c := tempConfig(t)
	c.SetEngineModel("vosk-en-small")
	if err := os.Remove(c.Path()); err != nil {
		t.Fatal(err)
	}

	c.SetEngineModel("vosk-en-small")
	if _, err := os.Stat(c.Path()); !os.IsNotExist(err) {
		t.Errorf("unchanged model id rewrote the file, stat err = %v", err)
	}
}
