//go:build darwin

package hotkey

import (
	"golang.design/x/hotkey"

	"murmur/internal/config"
)

// Виртуальные коды macOS: правый Option и правый Command.
const (
	DefaultPrimary   uint16 = 61
	DefaultAlternate uint16 = 54
	DefaultCancel    uint16 = 53
)

// modifierMap маппинг config.Modifier -> hotkey.Modifier для macOS
var modifierMap = map[config.Modifier]hotkey.Modifier{
	config.ModCtrl:  hotkey.ModCtrl,
	config.ModShift: hotkey.ModShift,
	config.ModAlt:   hotkey.ModOption,
	config.ModSuper: hotkey.ModCmd,
}
