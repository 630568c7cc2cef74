package input

import (
	"runtime"
	"time"

	"github.com/atotto/clipboard"
	"github.com/micmonay/keybd_event"
	"github.com/rs/zerolog"
)

// Clipboard - системный буфер обмена.
type Clipboard interface {
	ReadAll() (string, error)
	WriteAll(text string) error
}

type systemClipboard struct{}

func (systemClipboard) ReadAll() (string, error)   { return clipboard.ReadAll() }
func (systemClipboard) WriteAll(text string) error { return clipboard.WriteAll(text) }

// Paster вставляет текст через буфер обмена и восстанавливает его прежнее содержимое.
// Если буфер недоступен, текст вводится посимвольно через fallback.
type Paster struct {
	clip     Clipboard
	chord    func() error
	fallback Typer
	settle   time.Duration
	log      zerolog.Logger
}

// NewPaster создаёт Paster с системным буфером и сочетанием вставки платформы.
func NewPaster(fallback Typer, log zerolog.Logger) *Paster {
	return &Paster{
		clip:     systemClipboard{},
		chord:    pasteChord,
		fallback: fallback,
		settle:   100 * time.Millisecond,
		log:      log,
	}
}

// Type вставляет текст.
func (p *Paster) Type(text string) {
	orig, readErr := p.clip.ReadAll()
	if err := p.clip.WriteAll(text); err != nil {
		p.log.Warn().Err(err).Msg("clipboard unavailable, typing instead")
		p.fallback.Type(text)
		return
	}

	if err := p.chord(); err != nil {
		p.log.Warn().Err(err).Msg("paste shortcut failed, typing instead")
		p.fallback.Type(text)
	}

	// Приложению нужно время прочитать буфер до восстановления.
	time.Sleep(p.settle)
	if readErr == nil {
		_ = p.clip.WriteAll(orig)
	}
}

// pasteChord нажимает Cmd+V на macOS и Ctrl+V на остальных системах.
func pasteChord() error {
	kb, err := keybd_event.NewKeyBonding()
	if err != nil {
		return err
	}
	if runtime.GOOS == "linux" {
		// uinput нужно время, чтобы зарегистрировать устройство.
		time.Sleep(200 * time.Millisecond)
	}
	if runtime.GOOS == "darwin" {
		kb.HasSuper(true)
	} else {
		kb.HasCTRL(true)
	}
	kb.SetKeys(keybd_event.VK_V)
	return kb.Launching()
}
