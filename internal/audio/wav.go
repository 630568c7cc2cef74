package audio

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/google/uuid"
)

// WriteWAV записывает mono float32 сэмплы как 16-bit PCM WAV.
func WriteWAV(w io.WriteSeeker, samples []float32, sampleRate int) error {
	enc := wav.NewEncoder(w, sampleRate, 16, 1, 1)
	format := &audio.Format{NumChannels: 1, SampleRate: sampleRate}

	data := make([]int, len(samples))
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		data[i] = int(s * math.MaxInt16)
	}

	buf := &audio.IntBuffer{Format: format, Data: data, SourceBitDepth: 16}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("write wav: %w", err)
	}
	return enc.Close()
}

// Dumper сохраняет записи в каталог для отладки.
type Dumper struct {
	dir string
}

// NewDumper создаёт каталог dir.
func NewDumper(dir string) (*Dumper, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &Dumper{dir: dir}, nil
}

// Dump записывает сэмплы 16 kHz в новый файл и возвращает его путь.
func (d *Dumper) Dump(samples []float32) (string, error) {
	path := filepath.Join(d.dir, "session-"+uuid.NewString()+".wav")
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := WriteWAV(f, samples, SampleRate); err != nil {
		f.Close()
		os.Remove(path)
		return "", err
	}
	return path, f.Close()
}
