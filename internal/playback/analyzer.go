// Package playback implements the audio playback session and its real-time
// spectral analyzer.
package playback

import "math"

const (
	// FFTSize is the analysis block size; FrequencyBinCount bins come out of
	// each block.
	FFTSize           = 128
	FrequencyBinCount = FFTSize / 2

	// SmoothingTimeConstant blends each new magnitude with the previous
	// frame's value.
	SmoothingTimeConstant = 0.8

	// ReducedBinCount is the visualization summary width. The full bin array
	// is stride-2 sampled (not averaged) down to this many buckets.
	ReducedBinCount = 32

	// Byte-scaling range for frequency bins, in dBFS.
	minDecibels = -100.0
	maxDecibels = -30.0
)

// AnalysisFrame is one transient sample of playing audio. Frames exist only
// while playback is active and are discarded after rendering.
type AnalysisFrame struct {
	FrequencyBins       []byte
	WaveformSamples     []byte
	DominantFrequencyHz float64
}

// Analyzer computes frequency and waveform data over a sliding window of the
// most recent FFTSize samples.
type Analyzer struct {
	sampleRate int
	window     [FFTSize]float64
	smoothed   [FrequencyBinCount]float64
}

// NewAnalyzer constructs an Analyzer for the given sample rate.
func NewAnalyzer(sampleRate int) *Analyzer {
	return &Analyzer{sampleRate: sampleRate}
}

// Process appends samples (expected in [-1, 1]) to the sliding window.
func (a *Analyzer) Process(samples []float64) {
	for _, s := range samples {
		copy(a.window[:], a.window[1:])
		a.window[FFTSize-1] = s
	}
}

// Frame computes the current analysis frame: byte frequency bins reduced to
// ReducedBinCount buckets, the raw waveform window, and the dominant
// frequency argmax(bins) * sampleRate / fftSize.
func (a *Analyzer) Frame() AnalysisFrame {
	full := a.frequencyData()

	reduced := make([]byte, ReducedBinCount)
	for i := 0; i < ReducedBinCount; i++ {
		reduced[i] = full[i*2]
	}

	wave := make([]byte, FFTSize)
	for i, s := range a.window {
		wave[i] = toWaveByte(s)
	}

	maxIndex := 0
	for i, v := range full {
		if v > full[maxIndex] {
			maxIndex = i
		}
	}
	dominant := float64(maxIndex) * float64(a.sampleRate) / float64(FFTSize)

	return AnalysisFrame{
		FrequencyBins:       reduced,
		WaveformSamples:     wave,
		DominantFrequencyHz: dominant,
	}
}

// frequencyData runs the FFT over the window, smooths magnitudes against the
// previous frame and byte-scales them over the dB range.
func (a *Analyzer) frequencyData() [FrequencyBinCount]byte {
	var buf [FFTSize]complex128
	for i, s := range a.window {
		buf[i] = complex(s, 0)
	}
	fft(buf[:])

	var out [FrequencyBinCount]byte
	for k := 0; k < FrequencyBinCount; k++ {
		mag := cmplxAbs(buf[k]) / FFTSize
		a.smoothed[k] = SmoothingTimeConstant*a.smoothed[k] + (1-SmoothingTimeConstant)*mag
		out[k] = toFreqByte(a.smoothed[k])
	}
	return out
}

func cmplxAbs(c complex128) float64 {
	return math.Hypot(real(c), imag(c))
}

// toFreqByte maps a linear magnitude onto 0..255 over [minDecibels,
// maxDecibels].
func toFreqByte(mag float64) byte {
	if mag <= 0 {
		return 0
	}
	db := 20 * math.Log10(mag)
	scaled := 255 * (db - minDecibels) / (maxDecibels - minDecibels)
	if scaled < 0 {
		return 0
	}
	if scaled > 255 {
		return 255
	}
	return byte(scaled)
}

// toWaveByte centres a [-1, 1] sample at 128.
func toWaveByte(s float64) byte {
	scaled := (s + 1) / 2 * 255
	if scaled < 0 {
		return 0
	}
	if scaled > 255 {
		return 255
	}
	return byte(scaled)
}
