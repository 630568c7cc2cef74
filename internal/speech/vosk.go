package speech

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"
	"sync"

	vosk "github.com/alphacep/vosk-api/go"

	"murmur/internal/audio"
)

// VoskRecognizer реализует Recognizer через Vosk.
// Язык задаётся моделью, поэтому lang в Transcribe не используется.
type VoskRecognizer struct {
	mu         sync.Mutex
	model      *vosk.VoskModel
	recognizer *vosk.VoskRecognizer
}

type voskResult struct {
	Text string `json:"text"`
}

// NewVosk создаёт VoskRecognizer из каталога модели.
func NewVosk(modelPath string) (*VoskRecognizer, error) {
	if stat, err := os.Stat(modelPath); err != nil || !stat.IsDir() {
		return nil, fmt.Errorf("модель Vosk не найдена: %s", modelPath)
	}

	vosk.SetLogLevel(-1)
	model, err := vosk.NewModel(modelPath)
	if err != nil {
		return nil, fmt.Errorf("ошибка загрузки модели Vosk: %w", err)
	}

	rec, err := vosk.NewRecognizer(model, audio.SampleRate)
	if err != nil {
		model.Free()
		return nil, err
	}

	return &VoskRecognizer{model: model, recognizer: rec}, nil
}

// Name возвращает название движка.
func (v *VoskRecognizer) Name() string {
	return "vosk"
}

// Transcribe распознаёт речь из аудио сэмплов.
func (v *VoskRecognizer) Transcribe(samples []float32, _ string) (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.recognizer == nil {
		return "", ErrNotLoaded
	}

	v.recognizer.AcceptWaveform(toPCM16(samples))
	resultJSON := v.recognizer.FinalResult()
	v.recognizer.Reset()

	return parseResult(resultJSON)
}

// toPCM16 конвертирует float32 [-1, 1] в little-endian int16.
func toPCM16(samples []float32) []byte {
	pcm := make([]byte, len(samples)*2)
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(int16(s*math.MaxInt16)))
	}
	return pcm
}

func parseResult(raw string) (string, error) {
	var result voskResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return "", fmt.Errorf("vosk: некорректный результат: %w", err)
	}
	return strings.TrimSpace(result.Text), nil
}

// Close освобождает ресурсы.
func (v *VoskRecognizer) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.recognizer != nil {
		v.recognizer.Free()
		v.recognizer = nil
	}
	if v.model != nil {
		v.model.Free()
		v.model = nil
	}
}
