package hotkey

import (
	"context"
	"sync"

	hook "github.com/robotn/gohook"
)

// HookSource перехватывает все нажатия через системный хук клавиатуры.
// Позволяет использовать одиночные модификаторы, например правый Option.
type HookSource struct {
	mu     sync.Mutex
	active bool
}

// NewHookSource создаёт источник на gohook.
func NewHookSource() *HookSource {
	return &HookSource{}
}

// Open устанавливает хук.
func (s *HookSource) Open(ctx context.Context) (<-chan RawEvent, error) {
	s.mu.Lock()
	if s.active {
		hook.End()
	}
	s.active = true
	s.mu.Unlock()

	in := hook.Start()
	out := make(chan RawEvent, 64)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-in:
				if !ok {
					return
				}
				raw, keep := translate(ev)
				if !keep {
					continue
				}
				select {
				case out <- raw:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// translate оставляет только события клавиатуры.
func translate(ev hook.Event) (RawEvent, bool) {
	switch ev.Kind {
	case hook.KeyDown, hook.KeyHold:
		return RawEvent{Code: ev.Rawcode, Down: true}, true
	case hook.KeyUp:
		return RawEvent{Code: ev.Rawcode, Down: false}, true
	}
	return RawEvent{}, false
}

// Close снимает хук.
func (s *HookSource) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active {
		hook.End()
		s.active = false
	}
}
