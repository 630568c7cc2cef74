package hotkey

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type fakeSource struct {
	mu      sync.Mutex
	opens   int
	failN   int
	ch      chan RawEvent
	closed  atomic.Bool
	openErr error
}

func newFakeSource() *fakeSource {
	return &fakeSource{ch: make(chan RawEvent, 32)}
}

func (f *fakeSource) Open(ctx context.Context) (<-chan RawEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opens++
	if f.opens <= f.failN {
		return nil, f.openErr
	}
	return f.ch, nil
}

func (f *fakeSource) Close() { f.closed.Store(true) }

func (f *fakeSource) openCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.opens
}

type fakeAuth struct {
	trustAfter int32
	checks     atomic.Int32
	prompts    atomic.Int32
}

func (a *fakeAuth) Trusted() bool { return a.checks.Add(1) > a.trustAfter }
func (a *fakeAuth) Prompt()       { a.prompts.Add(1) }

func next(t *testing.T, l *Listener) Event {
	t.Helper()
	select {
	case ev := <-l.Events():
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return Event{}
}

func expectNone(t *testing.T, l *Listener) {
	t.Helper()
	select {
	case ev := <-l.Events():
		t.Fatalf("unexpected event %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestEdgesIgnoreAutoRepeat(t *testing.T) {
	src := newFakeSource()
	l := New(src, nil, Options{Keys: []uint16{61}}, zerolog.Nop())
	l.Start(context.Background())
	defer l.Stop()

	src.ch <- RawEvent{Code: 61, Down: true}
	src.ch <- RawEvent{Code: 61, Down: true}
	src.ch <- RawEvent{Code: 61, Down: true}
	src.ch <- RawEvent{Code: 12, Down: true}
	src.ch <- RawEvent{Code: 61, Down: false}

	if ev := next(t, l); ev.Edge != Pressed || ev.Code != 61 {
		t.Errorf("first = %+v, want Pressed 61", ev)
	}
	if ev := next(t, l); ev.Edge != Released {
		t.Errorf("second = %+v, want Released", ev)
	}
	expectNone(t, l)
}

func TestAlternateKeyHeldTogether(t *testing.T) {
	src := newFakeSource()
	l := New(src, nil, Options{Keys: []uint16{61, 54}}, zerolog.Nop())
	l.Start(context.Background())
	defer l.Stop()

	src.ch <- RawEvent{Code: 61, Down: true}
	src.ch <- RawEvent{Code: 54, Down: true}
	src.ch <- RawEvent{Code: 61, Down: false}
	src.ch <- RawEvent{Code: 54, Down: false}

	if ev := next(t, l); ev.Edge != Pressed {
		t.Errorf("first = %+v, want Pressed", ev)
	}
	if ev := next(t, l); ev.Edge != Released || ev.Code != 54 {
		t.Errorf("second = %+v, want Released by 54", ev)
	}
	expectNone(t, l)
}

func TestEmptyKeysAcceptsAny(t *testing.T) {
	src := newFakeSource()
	l := New(src, nil, Options{}, zerolog.Nop())
	l.Start(context.Background())
	defer l.Stop()

	src.ch <- RawEvent{Code: ComboCode, Down: true}
	src.ch <- RawEvent{Code: ComboCode, Down: false}
	if ev := next(t, l); ev.Edge != Pressed {
		t.Errorf("got %+v", ev)
	}
	if ev := next(t, l); ev.Edge != Released {
		t.Errorf("got %+v", ev)
	}
}

func TestCancelKeyEmitsOncePerPress(t *testing.T) {
	src := newFakeSource()
	l := New(src, nil, Options{Keys: []uint16{61}, CancelKeys: []uint16{53}}, zerolog.Nop())
	l.Start(context.Background())
	defer l.Stop()

	src.ch <- RawEvent{Code: 61, Down: true}
	src.ch <- RawEvent{Code: 53, Down: true}
	src.ch <- RawEvent{Code: 53, Down: true}
	src.ch <- RawEvent{Code: 53, Down: false}

	if ev := next(t, l); ev.Edge != Pressed {
		t.Fatalf("first = %+v, want Pressed", ev)
	}
	if ev := next(t, l); ev.Edge != Cancel || ev.Code != 53 {
		t.Fatalf("second = %+v, want Cancel by 53", ev)
	}
	expectNone(t, l)

	// Отмена не трогает удержание клавиши диктовки.
	src.ch <- RawEvent{Code: 61, Down: false}
	if ev := next(t, l); ev.Edge != Released {
		t.Errorf("third = %+v, want Released", ev)
	}

	src.ch <- RawEvent{Code: 53, Down: true}
	if ev := next(t, l); ev.Edge != Cancel {
		t.Errorf("second press = %+v, want Cancel", ev)
	}
}

func TestCancelKeyWithEmptyKeys(t *testing.T) {
	src := newFakeSource()
	l := New(src, nil, Options{CancelKeys: []uint16{53}}, zerolog.Nop())
	l.Start(context.Background())
	defer l.Stop()

	src.ch <- RawEvent{Code: 53, Down: true}
	if ev := next(t, l); ev.Edge != Cancel {
		t.Errorf("got %+v, want Cancel", ev)
	}
	src.ch <- RawEvent{Code: 53, Down: false}
	expectNone(t, l)
}

func TestDefaultOptionsIncludeCancel(t *testing.T) {
	opts := DefaultOptions()
	if len(opts.CancelKeys) != 1 || opts.CancelKeys[0] != DefaultCancel {
		t.Errorf("CancelKeys = %v, want [%d]", opts.CancelKeys, DefaultCancel)
	}
}

func TestPermissionRetry(t *testing.T) {
	src := newFakeSource()
	auth := &fakeAuth{trustAfter: 2}
	l := New(src, auth, Options{Keys: []uint16{61}, RetryDelay: 10 * time.Millisecond}, zerolog.Nop())
	l.Start(context.Background())
	defer l.Stop()

	src.ch <- RawEvent{Code: 61, Down: true}
	if ev := next(t, l); ev.Edge != Pressed {
		t.Errorf("got %+v", ev)
	}
	if n := auth.prompts.Load(); n != 1 {
		t.Errorf("prompts = %d, want 1", n)
	}
	if n := auth.checks.Load(); n < 3 {
		t.Errorf("checks = %d, want at least 3", n)
	}
}

func TestOpenErrorRetried(t *testing.T) {
	src := newFakeSource()
	src.failN = 2
	src.openErr = ErrPermissionDenied
	l := New(src, nil, Options{RetryDelay: 10 * time.Millisecond}, zerolog.Nop())
	l.Start(context.Background())
	defer l.Stop()

	src.ch <- RawEvent{Code: 5, Down: true}
	next(t, l)
	if n := src.openCount(); n != 3 {
		t.Errorf("opens = %d, want 3", n)
	}
}

func TestFullQueueDropsEdges(t *testing.T) {
	src := newFakeSource()
	l := New(src, nil, Options{Capacity: 1}, zerolog.Nop())
	l.Start(context.Background())
	defer l.Stop()

	src.ch <- RawEvent{Code: 1, Down: true}
	src.ch <- RawEvent{Code: 1, Down: false}
	src.ch <- RawEvent{Code: 1, Down: true}
	time.Sleep(50 * time.Millisecond)

	if ev := next(t, l); ev.Edge != Pressed {
		t.Errorf("got %+v", ev)
	}
	expectNone(t, l)
}

func TestStop(t *testing.T) {
	src := newFakeSource()
	l := New(src, &fakeAuth{trustAfter: 1 << 30}, Options{RetryDelay: time.Hour}, zerolog.Nop())
	l.Start(context.Background())

	done := make(chan struct{})
	go func() {
		l.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return while waiting for permission")
	}
	if !src.closed.Load() {
		t.Error("source was not closed")
	}
	l.Stop()
}

func TestEdgeString(t *testing.T) {
	if Pressed.String() != "pressed" || Released.String() != "released" || Cancel.String() != "cancel" {
		t.Error("unexpected Edge strings")
	}
}
