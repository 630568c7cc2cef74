package notify

import (
	"strings"
	"testing"
)

type sent struct{ title, message string }

func recorder(enabled bool) (*Notifier, *[]sent) {
	var got []sent
	n := newWith(enabled, func(title, message string) error {
		got = append(got, sent{title, message})
		return nil
	})
	return n, &got
}

func TestNotifyTitles(t *testing.T) {
	n, got := recorder(true)
	n.Success("hello")
	n.Info("ready")

	if len(*got) != 2 {
		t.Fatalf("sent %d notifications, want 2", len(*got))
	}
	if (*got)[0].title != "Murmur: Done" || (*got)[0].message != "hello" {
		t.Errorf("success = %+v", (*got)[0])
	}
	if (*got)[1].title != "Murmur" {
		t.Errorf("info title = %q", (*got)[1].title)
	}
}

func TestDisabled(t *testing.T) {
	n, got := recorder(false)
	n.Error("boom")
	if len(*got) != 0 {
		t.Errorf("disabled notifier sent %v", *got)
	}
	n.SetEnabled(true)
	n.Error("boom")
	if len(*got) != 1 {
		t.Errorf("enabled notifier sent %d", len(*got))
	}
}

func TestTruncateGraphemes(t *testing.T) {
	long := strings.Repeat("\u00e9", 150)
	out := truncate(long)
	if !strings.HasSuffix(out, "...") {
		t.Fatalf("no ellipsis: %q", out)
	}
	if n := len([]rune(strings.TrimSuffix(out, "..."))); n != maxBody {
		t.Errorf("kept %d runes, want %d", n, maxBody)
	}
	if truncate("short") != "short" {
		t.Error("short text must stay intact")
	}
}
