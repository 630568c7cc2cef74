package audio

import (
	"errors"

	"github.com/gordonklaus/portaudio"
)

// PortAudioSource открывает устройство ввода по умолчанию в его родном формате.
type PortAudioSource struct{}

// NewPortAudioSource инициализирует PortAudio. Close освобождает библиотеку.
func NewPortAudioSource() (*PortAudioSource, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, err
	}
	return &PortAudioSource{}, nil
}

// Open открывает поток с родной частотой устройства (не больше двух каналов).
func (s *PortAudioSource) Open(callback func(in []float32)) (Stream, Format, error) {
	dev, err := portaudio.DefaultInputDevice()
	if err != nil {
		return nil, Format{}, err
	}
	if dev == nil || dev.MaxInputChannels < 1 {
		return nil, Format{}, errors.New("no input device")
	}

	channels := dev.MaxInputChannels
	if channels > 2 {
		channels = 2
	}

	params := portaudio.LowLatencyParameters(dev, nil)
	params.Input.Channels = channels
	params.SampleRate = dev.DefaultSampleRate
	params.FramesPerBuffer = FramesPerBuffer

	stream, err := portaudio.OpenStream(params, func(in []float32) {
		callback(in)
	})
	if err != nil {
		return nil, Format{}, err
	}
	return stream, Format{SampleRate: dev.DefaultSampleRate, Channels: channels}, nil
}

// Close освобождает PortAudio.
func (s *PortAudioSource) Close() error {
	return portaudio.Terminate()
}
