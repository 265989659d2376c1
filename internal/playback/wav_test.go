package playback

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// makeWAV builds a PCM16 RIFF/WAVE file. Samples are interleaved when
// channels > 1.
func makeWAV(sampleRate, channels int, samples []int16) []byte {
	dataLen := len(samples) * 2
	buf := make([]byte, 0, 44+dataLen)

	le16 := func(v uint16) []byte {
		b := make([]byte, 2)
		binary.LittleEndian.PutUint16(b, v)
		return b
	}
	le32 := func(v uint32) []byte {
		b := make([]byte, 4)
		binary.LittleEndian.PutUint32(b, v)
		return b
	}

	buf = append(buf, []byte("RIFF")...)
	buf = append(buf, le32(uint32(36+dataLen))...)
	buf = append(buf, []byte("WAVE")...)
	buf = append(buf, []byte("fmt ")...)
	buf = append(buf, le32(16)...)
	buf = append(buf, le16(1)...) // PCM
	buf = append(buf, le16(uint16(channels))...)
	buf = append(buf, le32(uint32(sampleRate))...)
	buf = append(buf, le32(uint32(sampleRate*channels*2))...)
	buf = append(buf, le16(uint16(channels*2))...)
	buf = append(buf, le16(16)...)
	buf = append(buf, []byte("data")...)
	buf = append(buf, le32(uint32(dataLen))...)
	for _, s := range samples {
		buf = append(buf, le16(uint16(s))...)
	}
	return buf
}

// sineSamples generates n samples of a sine wave at freq Hz.
func sineSamples(sampleRate int, freq float64, n int, amplitude float64) []int16 {
	out := make([]int16, n)
	for i := range out {
		v := amplitude * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
		out[i] = int16(v * 32767)
	}
	return out
}

func TestDecodeWAVMono(t *testing.T) {
	samples := sineSamples(8000, 440, 8000, 0.5)
	clip, err := DecodeWAV(makeWAV(8000, 1, samples))
	require.NoError(t, err)
	assert.Equal(t, 8000, clip.SampleRate)
	assert.Len(t, clip.Samples, 8000)
	assert.InDelta(t, 1.0, clip.Duration(), 0.001)
}

func TestDecodeWAVStereoAveragesToMono(t *testing.T) {
	// Left at +0.5, right at -0.5: the mono mix cancels to zero.
	interleaved := make([]int16, 200)
	for i := 0; i < 200; i += 2 {
		interleaved[i] = 16384
		interleaved[i+1] = -16384
	}
	clip, err := DecodeWAV(makeWAV(44100, 2, interleaved))
	require.NoError(t, err)
	require.Len(t, clip.Samples, 100)
	for _, s := range clip.Samples {
		assert.InDelta(t, 0, s, 0.001)
	}
}

func TestDecodeWAVRejectsGarbage(t *testing.T) {
	_, err := DecodeWAV([]byte("ID3\x04this is an mp3, honest"))
	assert.ErrorIs(t, err, ErrNotWAV)

	_, err = DecodeWAV(nil)
	assert.ErrorIs(t, err, ErrNotWAV)
}

func TestDecodeWAVRejectsNonPCM(t *testing.T) {
	data := makeWAV(8000, 1, sineSamples(8000, 440, 100, 0.5))
	// Patch the audio format field to IEEE float (3).
	data[20] = 3
	_, err := DecodeWAV(data)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
