package audio

import "math"

// Downmix сводит чередующиеся каналы в mono усреднением.
// Для одного канала возвращает исходный срез.
func Downmix(interleaved []float32, channels int) []float32 {
	if channels <= 1 {
		return interleaved
	}
	frames := len(interleaved) / channels
	out := make([]float32, frames)
	for i := 0; i < frames; i++ {
		var sum float32
		for c := 0; c < channels; c++ {
			sum += interleaved[i*channels+c]
		}
		out[i] = sum / float32(channels)
	}
	return out
}

// Resample переводит сигнал из частоты from в to линейной интерполяцией.
// При равных частотах возвращает исходный срез.
func Resample(samples []float32, from, to float64) []float32 {
	if from == to || len(samples) == 0 {
		return samples
	}

	ratio := to / from
	n := int(math.Floor(float64(len(samples)) * ratio))
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		src := float64(i) / ratio
		i0 := int(math.Floor(src))
		frac := float32(src - float64(i0))
		switch {
		case i0+1 < len(samples):
			out[i] = samples[i0]*(1-frac) + samples[i0+1]*frac
		case i0 < len(samples):
			out[i] = samples[i0]
		}
	}
	return out
}

// rms возвращает среднеквадратичный уровень сигнала.
func rms(samples []float32) float32 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}
	return float32(math.Sqrt(sum / float64(len(samples))))
}
