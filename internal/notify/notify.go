// Package notify предоставляет системные уведомления.
package notify

import (
	"sync/atomic"

	"github.com/gen2brain/beeep"
	"github.com/rivo/uniseg"
)

const (
	appName = "Murmur"
	maxBody = 100
)

// Notifier отправляет системные уведомления.
type Notifier struct {
	enabled atomic.Bool
	send    func(title, message string) error
}

// New создаёт новый Notifier.
func New(enabled bool) *Notifier {
	return newWith(enabled, func(title, message string) error {
		return beeep.Notify(title, message, "")
	})
}

func newWith(enabled bool, send func(title, message string) error) *Notifier {
	n := &Notifier{send: send}
	n.enabled.Store(enabled)
	return n
}

// SetEnabled включает/выключает уведомления.
func (n *Notifier) SetEnabled(enabled bool) {
	n.enabled.Store(enabled)
}

// Recording показывает уведомление о начале записи.
func (n *Notifier) Recording() {
	n.notify("Recording", "Release the key to transcribe")
}

// Success показывает уведомление об успешном распознавании.
func (n *Notifier) Success(text string) {
	n.notify("Done", truncate(text))
}

// Empty показывает уведомление о пустом результате.
func (n *Notifier) Empty() {
	n.notify("Nothing heard", "No speech was recognized")
}

// Error показывает уведомление об ошибке.
func (n *Notifier) Error(msg string) {
	n.notify("Error", truncate(msg))
}

// Info показывает информационное уведомление.
func (n *Notifier) Info(msg string) {
	n.notify("", truncate(msg))
}

// truncate обрезает по графемам, чтобы не рвать эмодзи и составные символы.
func truncate(s string) string {
	if uniseg.GraphemeClusterCount(s) <= maxBody {
		return s
	}
	g := uniseg.NewGraphemes(s)
	end := 0
	for i := 0; i < maxBody && g.Next(); i++ {
		_, end = g.Positions()
	}
	return s[:end] + "..."
}

func (n *Notifier) notify(title, message string) {
	if !n.enabled.Load() {
		return
	}
	// Ошибки уведомлений не критичны
	if title != "" {
		_ = n.send(appName+": "+title, message)
	} else {
		_ = n.send(appName, message)
	}
}
