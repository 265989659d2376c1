package playback

import (
	"math"
	"time"
)

// TrackProfile is the offline analysis summary the worker computes for an
// uploaded track and stores under the analysis_ kv prefix.
type TrackProfile struct {
	FileName            string    `json:"fileName"`
	DurationSeconds     float64   `json:"durationSeconds"`
	SampleRate          int       `json:"sampleRate"`
	PeakDB              float64   `json:"peakDb"`
	RMSDB               float64   `json:"rmsDb"`
	DominantFrequencyHz float64   `json:"dominantFrequencyHz"`
	MeanSpectrum        []float64 `json:"meanSpectrum"`
	AnalyzedAt          time.Time `json:"analyzedAt"`
}

// AnalyzeClip computes a TrackProfile over the whole clip: peak and RMS level
// in dBFS, the mean magnitude spectrum reduced to ReducedBinCount buckets and
// the dominant frequency of the mean spectrum.
func AnalyzeClip(fileName string, clip *Clip) *TrackProfile {
	var (
		peak   float64
		sumSq  float64
		accum  [FrequencyBinCount]float64
		blocks int
	)
	for _, s := range clip.Samples {
		if a := math.Abs(s); a > peak {
			peak = a
		}
		sumSq += s * s
	}

	for start := 0; start+FFTSize <= len(clip.Samples); start += FFTSize {
		var buf [FFTSize]complex128
		for i, s := range clip.Samples[start : start+FFTSize] {
			buf[i] = complex(s, 0)
		}
		fft(buf[:])
		for k := 0; k < FrequencyBinCount; k++ {
			accum[k] += cmplxAbs(buf[k]) / FFTSize
		}
		blocks++
	}

	mean := make([]float64, ReducedBinCount)
	maxIndex := 0
	if blocks > 0 {
		for k := range accum {
			accum[k] /= float64(blocks)
			if accum[k] > accum[maxIndex] {
				maxIndex = k
			}
		}
		for i := 0; i < ReducedBinCount; i++ {
			mean[i] = accum[i*2]
		}
	}

	rms := 0.0
	if len(clip.Samples) > 0 {
		rms = math.Sqrt(sumSq / float64(len(clip.Samples)))
	}
	return &TrackProfile{
		FileName:            fileName,
		DurationSeconds:     clip.Duration(),
		SampleRate:          clip.SampleRate,
		PeakDB:              toDBFS(peak),
		RMSDB:               toDBFS(rms),
		DominantFrequencyHz: float64(maxIndex) * float64(clip.SampleRate) / float64(FFTSize),
		MeanSpectrum:        mean,
		AnalyzedAt:          time.Now().UTC(),
	}
}

// toDBFS converts a linear level to dBFS, floored at -120 dB for silence.
func toDBFS(level float64) float64 {
	if level <= 0 {
		return -120
	}
	db := 20 * math.Log10(level)
	if db < -120 {
		return -120
	}
	return db
}
