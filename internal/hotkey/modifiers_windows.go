//go:build windows

package hotkey

import (
	"golang.design/x/hotkey"

	"murmur/internal/config"
)

// VK_RMENU и VK_RCONTROL.
const (
	DefaultPrimary   uint16 = 0xA5
	DefaultAlternate uint16 = 0xA3
	DefaultCancel    uint16 = 0x1B
)

// modifierMap маппинг config.Modifier -> hotkey.Modifier для Windows
var modifierMap = map[config.Modifier]hotkey.Modifier{
	config.ModCtrl:  hotkey.ModCtrl,
	config.ModShift: hotkey.ModShift,
	config.ModAlt:   hotkey.ModAlt,
	config.ModSuper: hotkey.ModWin,
}

// NewAuthorizer возвращает nil: низкоуровневый хук на Windows доступен всегда.
func NewAuthorizer() Authorizer {
	return nil
}
