//go:build windows

package input

import (
	"unsafe"

	"github.com/rs/zerolog"
	"golang.org/x/sys/windows"
)

var (
	user32                  = windows.NewLazySystemDLL("user32.dll")
	procSendInput           = user32.NewProc("SendInput")
	procGetForegroundWindow = user32.NewProc("GetForegroundWindow")
	procSetForegroundWindow = user32.NewProc("SetForegroundWindow")
)

const (
	inputKeyboard    = 1
	keyEventFKeyUp   = 0x0002
	keyEventFUnicode = 0x0004
)

type keyboardInput struct {
	wVk         uint16
	wScan       uint16
	dwFlags     uint32
	time        uint32
	dwExtraInfo uintptr
}

type input struct {
	inputType uint32
	ki        keyboardInput
	padding   uint64
}

type windowsPoster struct{}

func newPoster() Poster {
	return windowsPoster{}
}

// Post отправляет все UTF-16 единицы кластера одним вызовом SendInput.
func (windowsPoster) Post(units []uint16) error {
	if len(units) == 0 {
		return nil
	}
	inputs := make([]input, 0, len(units)*2)
	for _, u := range units {
		inputs = append(inputs, input{
			inputType: inputKeyboard,
			ki:        keyboardInput{wScan: u, dwFlags: keyEventFUnicode},
		})
	}
	for _, u := range units {
		inputs = append(inputs, input{
			inputType: inputKeyboard,
			ki:        keyboardInput{wScan: u, dwFlags: keyEventFUnicode | keyEventFKeyUp},
		})
	}

	n, _, err := procSendInput.Call(
		uintptr(len(inputs)),
		uintptr(unsafe.Pointer(&inputs[0])),
		uintptr(unsafe.Sizeof(inputs[0])),
	)
	if int(n) != len(inputs) {
		return err
	}
	return nil
}

type windowsFocus struct {
	log zerolog.Logger
}

func newFocus(log zerolog.Logger) Focus {
	return windowsFocus{log: log}
}

func (windowsFocus) Capture() Window {
	hwnd, _, _ := procGetForegroundWindow.Call()
	return Window(hwnd)
}

func (f windowsFocus) Restore(w Window) {
	if w == 0 {
		return
	}
	if ok, _, err := procSetForegroundWindow.Call(uintptr(w)); ok == 0 {
		f.log.Debug().Err(err).Msg("SetForegroundWindow failed")
	}
}
