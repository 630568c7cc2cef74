//go:build linux

package hotkey

import (
	"golang.design/x/hotkey"

	"murmur/internal/config"
)

// X11 keysym: Alt_R и Control_R.
const (
	DefaultPrimary   uint16 = 0xFFEA
	DefaultAlternate uint16 = 0xFFE4
	DefaultCancel    uint16 = 0xFF1B
)

// modifierMap маппинг config.Modifier -> hotkey.Modifier для Linux
var modifierMap = map[config.Modifier]hotkey.Modifier{
	config.ModCtrl:  hotkey.ModCtrl,
	config.ModShift: hotkey.ModShift,
	config.ModAlt:   hotkey.Mod1, // Alt = Mod1 на X11
	config.ModSuper: hotkey.Mod4, // Super/Win = Mod4 на X11
}

// NewAuthorizer возвращает nil: X11 не требует разрешения на перехват.
func NewAuthorizer() Authorizer {
	return nil
}
