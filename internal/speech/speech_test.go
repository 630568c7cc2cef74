package speech

import (
	"context"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"murmur/internal/models"
)

type fakeRecognizer struct {
	text   string
	closed bool
}

func (f *fakeRecognizer) Transcribe([]float32, string) (string, error) { return f.text, nil }
func (f *fakeRecognizer) Close()                                       { f.closed = true }
func (f *fakeRecognizer) Name() string                                 { return "fake" }

func preparedFactory(t *testing.T, opened *int) *Factory {
	t.Helper()
	dir := t.TempDir()
	info, _ := models.GetModel(models.DefaultModelID())
	if err := os.MkdirAll(filepath.Join(dir, info.Dir), 0755); err != nil {
		t.Fatal(err)
	}
	m, err := models.NewManager(dir)
	if err != nil {
		t.Fatal(err)
	}
	return NewFactoryWith(m, func(path string) (Recognizer, error) {
		*opened++
		if filepath.Base(path) != info.Dir {
			t.Errorf("opened %s, want %s", path, info.Dir)
		}
		return &fakeRecognizer{text: "hello"}, nil
	}, zerolog.Nop())
}

func TestFactoryLoad(t *testing.T) {
	var opened int
	f := preparedFactory(t, &opened)

	if _, err := f.Transcribe(nil, "en"); !errors.Is(err, ErrNotLoaded) {
		t.Errorf("Transcribe before Load err = %v", err)
	}

	rec, err := f.Load(context.Background(), "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !f.IsLoaded() || f.CurrentModelID() != models.DefaultModelID() {
		t.Errorf("loaded=%v id=%q", f.IsLoaded(), f.CurrentModelID())
	}

	again, err := f.Load(context.Background(), models.DefaultModelID())
	if err != nil || again != rec || opened != 1 {
		t.Errorf("second Load reopened the model: opened=%d err=%v", opened, err)
	}

	text, err := f.Transcribe([]float32{0.1}, "en")
	if err != nil || text != "hello" {
		t.Errorf("Transcribe = %q, %v", text, err)
	}

	f.Close()
	if !rec.(*fakeRecognizer).closed || f.IsLoaded() {
		t.Error("Close did not release recognizer")
	}
}

func TestFactoryUnknownModel(t *testing.T) {
	var opened int
	f := preparedFactory(t, &opened)
	if _, err := f.Load(context.Background(), "whisper-large"); err == nil {
		t.Fatal("expected error for unknown model")
	}
	if opened != 0 {
		t.Error("opener should not be called")
	}
}

func TestToPCM16(t *testing.T) {
	pcm := toPCM16([]float32{0, 1, -1, 2})
	if len(pcm) != 8 {
		t.Fatalf("len = %d", len(pcm))
	}
	got := []int16{
		int16(binary.LittleEndian.Uint16(pcm[0:])),
		int16(binary.LittleEndian.Uint16(pcm[2:])),
		int16(binary.LittleEndian.Uint16(pcm[4:])),
		int16(binary.LittleEndian.Uint16(pcm[6:])),
	}
	want := []int16{0, 32767, -32767, 32767}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample %d = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestParseResult(t *testing.T) {
	text, err := parseResult(`{"text" : " hello world "}`)
	if err != nil || text != "hello world" {
		t.Errorf("parseResult = %q, %v", text, err)
	}
	if _, err := parseResult("not json"); err == nil {
		t.Error("expected error")
	}
}
