package audio

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-audio/wav"
	"github.com/rs/zerolog"
)

type fakeStream struct {
	started, stopped, closed bool
	startErr                 error
}

func (s *fakeStream) Start() error { s.started = true; return s.startErr }
func (s *fakeStream) Stop() error  { s.stopped = true; return nil }
func (s *fakeStream) Close() error { s.closed = true; return nil }

type fakeSource struct {
	format   Format
	openErr  error
	stream   *fakeStream
	callback func([]float32)
}

func (f *fakeSource) Open(cb func([]float32)) (Stream, Format, error) {
	if f.openErr != nil {
		return nil, Format{}, f.openErr
	}
	f.callback = cb
	return f.stream, f.format, nil
}

func TestRecorderResamplesChunks(t *testing.T) {
	src := &fakeSource{format: Format{SampleRate: 48000, Channels: 2}, stream: &fakeStream{}}
	r := New(src, zerolog.Nop())

	base := time.Unix(100, 0)
	calls := 0
	r.now = func() time.Time {
		calls++
		if calls == 1 {
			return base
		}
		return base.Add(1500 * time.Millisecond)
	}

	if err := r.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !r.IsRecording() {
		t.Fatal("IsRecording = false after Start")
	}
	if err := r.Start(); !errors.Is(err, ErrAlreadyRecording) {
		t.Errorf("second Start err = %v, want ErrAlreadyRecording", err)
	}

	// Два буфера по 480 стерео кадров -> по 160 mono сэмплов.
	chunk := make([]float32, 960)
	for i := range chunk {
		chunk[i] = 0.5
	}
	src.callback(chunk)
	src.callback(chunk)

	if r.Level() == 0 {
		t.Error("Level = 0 while signal is present")
	}

	rec := r.Stop()
	if len(rec.Samples) != 320 {
		t.Errorf("samples = %d, want 320", len(rec.Samples))
	}
	for i, s := range rec.Samples {
		if s != 0.5 {
			t.Fatalf("sample[%d] = %v, want 0.5", i, s)
		}
	}
	if rec.Duration != 1500*time.Millisecond {
		t.Errorf("Duration = %v, want 1.5s", rec.Duration)
	}
	if !src.stream.stopped || !src.stream.closed {
		t.Error("stream was not stopped and closed")
	}
	if r.IsRecording() {
		t.Error("IsRecording = true after Stop")
	}
}

func TestRecorderStopWithoutStart(t *testing.T) {
	r := New(&fakeSource{}, zerolog.Nop())
	rec := r.Stop()
	if len(rec.Samples) != 0 || rec.Duration != 0 {
		t.Errorf("Stop without Start = %+v, want empty", rec)
	}
}

func TestRecorderDeviceErrors(t *testing.T) {
	openErr := errors.New("no device")
	r := New(&fakeSource{openErr: openErr}, zerolog.Nop())
	err := r.Start()
	var devErr *DeviceError
	if !errors.As(err, &devErr) || devErr.Op != "open" {
		t.Fatalf("err = %v, want DeviceError{open}", err)
	}
	if !errors.Is(err, openErr) {
		t.Error("DeviceError should unwrap the cause")
	}

	stream := &fakeStream{startErr: errors.New("busy")}
	r = New(&fakeSource{format: Format{SampleRate: 16000, Channels: 1}, stream: stream}, zerolog.Nop())
	err = r.Start()
	if !errors.As(err, &devErr) || devErr.Op != "start" {
		t.Fatalf("err = %v, want DeviceError{start}", err)
	}
	if !stream.closed {
		t.Error("stream should be closed after failed start")
	}
	if r.IsRecording() {
		t.Error("IsRecording = true after failed start")
	}
}

func TestDumper(t *testing.T) {
	d, err := NewDumper(filepath.Join(t.TempDir(), "dumps"))
	if err != nil {
		t.Fatalf("NewDumper: %v", err)
	}
	samples := []float32{0, 0.5, -0.5, 1, -1}
	path, err := d.Dump(samples)
	if err != nil {
		t.Fatalf("Dump: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		t.Fatal("not a valid wav file")
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		t.Fatalf("FullPCMBuffer: %v", err)
	}
	if int(dec.SampleRate) != SampleRate || dec.NumChans != 1 || dec.BitDepth != 16 {
		t.Errorf("format = %d Hz, %d ch, %d bit", dec.SampleRate, dec.NumChans, dec.BitDepth)
	}
	want := []int{0, 16383, -16383, 32767, -32767}
	if len(buf.Data) != len(want) {
		t.Fatalf("data len = %d, want %d", len(buf.Data), len(want))
	}
	for i := range want {
		if buf.Data[i] != want[i] {
			t.Errorf("data[%d] = %d, want %d", i, buf.Data[i], want[i])
		}
	}
}
