package hotkey

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.design/x/hotkey"

	"murmur/internal/config"
)

// ComboCode - код, которым ComboSource помечает свои события.
const ComboCode uint16 = 1

// ComboSource регистрирует сочетание модификаторов и клавиши, например Ctrl+Shift+Space.
// Не требует разрешения на мониторинг ввода, но не умеет одиночные модификаторы.
type ComboSource struct {
	cfg config.HotkeyConfig
	log zerolog.Logger

	mu sync.Mutex
	hk *hotkey.Hotkey
}

// NewComboSource создаёт источник для сочетания cfg.
func NewComboSource(cfg config.HotkeyConfig, log zerolog.Logger) *ComboSource {
	return &ComboSource{cfg: cfg, log: log}
}

// Open регистрирует горячую клавишу.
func (s *ComboSource) Open(ctx context.Context) (<-chan RawEvent, error) {
	s.Close()

	mods := make([]hotkey.Modifier, 0, len(s.cfg.Modifiers))
	for _, m := range s.cfg.Modifiers {
		if mod, ok := modifierMap[m]; ok {
			mods = append(mods, mod)
		}
	}
	key, ok := keyMap[s.cfg.Key]
	if !ok {
		return nil, fmt.Errorf("unsupported key %q", s.cfg.Key)
	}

	hk := hotkey.New(mods, key)
	if err := hk.Register(); err != nil {
		return nil, fmt.Errorf("register %s: %w", s.cfg, err)
	}
	s.log.Info().Stringer("hotkey", s.cfg).Msg("hotkey registered")

	s.mu.Lock()
	s.hk = hk
	s.mu.Unlock()

	out := make(chan RawEvent, 8)
	go func() {
		defer close(out)
		for {
			var ev RawEvent
			select {
			case <-ctx.Done():
				return
			case _, ok := <-hk.Keydown():
				if !ok {
					return
				}
				ev = RawEvent{Code: ComboCode, Down: true}
			case _, ok := <-hk.Keyup():
				if !ok {
					return
				}
				ev = RawEvent{Code: ComboCode, Down: false}
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// Close отменяет регистрацию.
func (s *ComboSource) Close() {
	s.mu.Lock()
	hk := s.hk
	s.hk = nil
	s.mu.Unlock()

	if hk == nil {
		return
	}

	// Unregister может зависнуть, если главный поток занят.
	done := make(chan struct{})
	go func() {
		hk.Unregister()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(500 * time.Millisecond):
		s.log.Warn().Msg("hotkey unregister timeout")
	}
}

// keyMap маппинг config.Key -> hotkey.Key
var keyMap = map[config.Key]hotkey.Key{
	config.KeySpace:  hotkey.KeySpace,
	config.KeyReturn: hotkey.KeyReturn,
	config.KeyTab:    hotkey.KeyTab,
	config.KeyA:      hotkey.KeyA,
	config.KeyB:      hotkey.KeyB,
	config.KeyC:      hotkey.KeyC,
	config.KeyD:      hotkey.KeyD,
	config.KeyE:      hotkey.KeyE,
	config.KeyF:      hotkey.KeyF,
	config.KeyG:      hotkey.KeyG,
	config.KeyH:      hotkey.KeyH,
	config.KeyI:      hotkey.KeyI,
	config.KeyJ:      hotkey.KeyJ,
	config.KeyK:      hotkey.KeyK,
	config.KeyL:      hotkey.KeyL,
	config.KeyM:      hotkey.KeyM,
	config.KeyN:      hotkey.KeyN,
	config.KeyO:      hotkey.KeyO,
	config.KeyP:      hotkey.KeyP,
	config.KeyQ:      hotkey.KeyQ,
	config.KeyR:      hotkey.KeyR,
	config.KeyS:      hotkey.KeyS,
	config.KeyT:      hotkey.KeyT,
	config.KeyU:      hotkey.KeyU,
	config.KeyV:      hotkey.KeyV,
	config.KeyW:      hotkey.KeyW,
	config.KeyX:      hotkey.KeyX,
	config.KeyY:      hotkey.KeyY,
	config.KeyZ:      hotkey.KeyZ,
	config.KeyF1:     hotkey.KeyF1,
	config.KeyF2:     hotkey.KeyF2,
	config.KeyF3:     hotkey.KeyF3,
	config.KeyF4:     hotkey.KeyF4,
	config.KeyF5:     hotkey.KeyF5,
	config.KeyF6:     hotkey.KeyF6,
	config.KeyF7:     hotkey.KeyF7,
	config.KeyF8:     hotkey.KeyF8,
	config.KeyF9:     hotkey.KeyF9,
	config.KeyF10:    hotkey.KeyF10,
	config.KeyF11:    hotkey.KeyF11,
	config.KeyF12:    hotkey.KeyF12,
}
