//go:build linux

package input

import (
	"os"
	"os/exec"
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/rs/zerolog"
)

type linuxPoster struct {
	useWayland bool
}

func newPoster() Poster {
	return &linuxPoster{
		useWayland: os.Getenv("WAYLAND_DISPLAY") != "",
	}
}

func (p *linuxPoster) Post(units []uint16) error {
	text := string(utf16.Decode(units))
	if p.useWayland {
		return exec.Command("wtype", "--", text).Run()
	}
	return exec.Command("xdotool", "type", "--clearmodifiers", "--", text).Run()
}

// x11Focus использует xdotool. Под Wayland фокус не трогаем.
type x11Focus struct {
	useWayland bool
	log        zerolog.Logger
}

func newFocus(log zerolog.Logger) Focus {
	return &x11Focus{useWayland: os.Getenv("WAYLAND_DISPLAY") != "", log: log}
}

func (f *x11Focus) Capture() Window {
	if f.useWayland {
		return 0
	}
	out, err := exec.Command("xdotool", "getactivewindow").Output()
	if err != nil {
		f.log.Debug().Err(err).Msg("getactivewindow failed")
		return 0
	}
	id, err := strconv.ParseUint(strings.TrimSpace(string(out)), 10, 64)
	if err != nil {
		return 0
	}
	return Window(id)
}

func (f *x11Focus) Restore(w Window) {
	if f.useWayland || w == 0 {
		return
	}
	id := strconv.FormatUint(uint64(w), 10)
	if err := exec.Command("xdotool", "windowactivate", "--sync", id).Run(); err != nil {
		f.log.Debug().Err(err).Msg("windowactivate failed")
	}
}
