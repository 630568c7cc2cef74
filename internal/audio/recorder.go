// Package audio предоставляет запись аудио с микрофона.
package audio

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

const (
	// SampleRate - частота, которую ожидает движок распознавания.
	SampleRate = 16000
	// FramesPerBuffer - размер буфера устройства.
	FramesPerBuffer = 1024
)

// ErrAlreadyRecording - Start вызван во время записи.
var ErrAlreadyRecording = errors.New("audio: already recording")

// DeviceError - устройство ввода не открылось или не запустилось.
type DeviceError struct {
	Op  string
	Err error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("audio device %s: %v", e.Op, e.Err)
}

func (e *DeviceError) Unwrap() error { return e.Err }

// Format - формат потока устройства.
type Format struct {
	SampleRate float64
	Channels   int
}

// Stream - открытый поток устройства.
type Stream interface {
	Start() error
	Stop() error
	Close() error
}

// Source открывает поток, вызывающий callback для каждого буфера
// чередующихся float32 сэмплов.
type Source interface {
	Open(callback func(in []float32)) (Stream, Format, error)
}

// Recording - результат записи.
type Recording struct {
	// Samples - mono, 16 kHz.
	Samples  []float32
	Duration time.Duration
	Format   Format
}

// Recorder записывает аудио с микрофона и приводит его к 16 kHz mono.
type Recorder struct {
	src Source
	log zerolog.Logger
	now func() time.Time

	mu      sync.Mutex
	stream  Stream
	format  Format
	started time.Time
	running bool

	// bufMu не конкурентный: пишет только callback, читает Stop после остановки потока.
	bufMu sync.Mutex
	buf   []float32

	level atomic.Uint32
}

// New создаёт Recorder поверх источника.
func New(src Source, log zerolog.Logger) *Recorder {
	return &Recorder{src: src, log: log, now: time.Now}
}

// Start начинает запись аудио.
func (r *Recorder) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return ErrAlreadyRecording
	}

	r.bufMu.Lock()
	r.buf = make([]float32, 0, SampleRate*30) // Буфер на 30 сек
	r.bufMu.Unlock()

	var format Format
	stream, format, err := r.src.Open(func(in []float32) {
		r.process(in, format)
	})
	if err != nil {
		return &DeviceError{Op: "open", Err: err}
	}
	r.format = format

	if err := stream.Start(); err != nil {
		stream.Close()
		return &DeviceError{Op: "start", Err: err}
	}

	r.stream = stream
	r.started = r.now()
	r.running = true
	r.log.Debug().
		Float64("rate", format.SampleRate).
		Int("channels", format.Channels).
		Msg("recording started")
	return nil
}

// process вызывается из callback устройства.
func (r *Recorder) process(in []float32, format Format) {
	mono := Downmix(in, format.Channels)
	out := Resample(mono, format.SampleRate, SampleRate)
	r.level.Store(math.Float32bits(rms(out)))

	r.bufMu.Lock()
	r.buf = append(r.buf, out...)
	r.bufMu.Unlock()
}

// Stop останавливает запись и возвращает записанные сэмплы.
// Без активной записи возвращает пустой Recording.
func (r *Recorder) Stop() Recording {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.running {
		return Recording{}
	}
	r.running = false
	elapsed := r.now().Sub(r.started)

	// Stop ждёт завершения callback.
	if err := r.stream.Stop(); err != nil {
		r.log.Warn().Err(err).Msg("stream stop failed")
	}
	if err := r.stream.Close(); err != nil {
		r.log.Warn().Err(err).Msg("stream close failed")
	}
	r.stream = nil

	r.bufMu.Lock()
	samples := r.buf
	r.buf = nil
	r.bufMu.Unlock()
	r.level.Store(0)

	r.log.Debug().Int("samples", len(samples)).Dur("elapsed", elapsed).Msg("recording stopped")
	return Recording{Samples: samples, Duration: elapsed, Format: r.format}
}

// IsRecording возвращает true если идёт запись.
func (r *Recorder) IsRecording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// Level возвращает RMS последнего буфера.
func (r *Recorder) Level() float32 {
	return math.Float32frombits(r.level.Load())
}

// Close останавливает запись.
func (r *Recorder) Close() {
	r.Stop()
}
