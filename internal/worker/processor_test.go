package worker

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quantumelodic/internal/config"
	"quantumelodic/internal/kv"
	"quantumelodic/internal/playback"
	"quantumelodic/internal/queue"
	"quantumelodic/internal/storage"
)

func newFixture(t *testing.T) (*Processor, *storage.Gateway, *kv.Memory) {
	t.Helper()
	cfg := &config.Config{}
	cfg.Storage.AudioBucket = "audio-files"
	cfg.Storage.ImageBucket = "image-files"
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	gw := storage.NewGateway(storage.NewMemoryStore(), cfg, log)
	gw.EnsureBuckets(context.Background())
	store := kv.NewMemory()
	return NewProcessor(gw, store, log), gw, store
}

// sineWAV builds one second of a 1600 Hz PCM16 mono tone at a 12800 Hz sample
// rate. 1600 Hz lands exactly on an analysis bin.
func sineWAV() []byte {
	const (
		rate = 12800
		freq = 1600.0
	)
	var pcm bytes.Buffer
	for i := 0; i < rate; i++ {
		v := 0.8 * math.Sin(2*math.Pi*freq*float64(i)/rate)
		binary.Write(&pcm, binary.LittleEndian, int16(v*32767))
	}

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+pcm.Len()))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1))
	binary.Write(&buf, binary.LittleEndian, uint16(1))
	binary.Write(&buf, binary.LittleEndian, uint32(rate))
	binary.Write(&buf, binary.LittleEndian, uint32(rate*2))
	binary.Write(&buf, binary.LittleEndian, uint16(2))
	binary.Write(&buf, binary.LittleEndian, uint16(16))
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(pcm.Len()))
	buf.Write(pcm.Bytes())
	return buf.Bytes()
}

func TestAnalyzeStoresProfile(t *testing.T) {
	p, gw, store := newFixture(t)
	ctx := context.Background()

	media := sineWAV()
	_, err := gw.Upload(ctx, storage.CategoryAudio, "tone.wav",
		bytes.NewReader(media), int64(len(media)), "audio/wav")
	require.NoError(t, err)

	require.NoError(t, p.Analyze(ctx, "tone.wav"))

	raw, err := store.Get(ctx, queue.AnalysisKey("tone.wav"))
	require.NoError(t, err)

	var profile playback.TrackProfile
	require.NoError(t, json.Unmarshal(raw, &profile))
	assert.Equal(t, "tone.wav", profile.FileName)
	assert.Equal(t, 12800, profile.SampleRate)
	assert.InDelta(t, 1.0, profile.DurationSeconds, 0.001)
	assert.Equal(t, 1600.0, profile.DominantFrequencyHz)
	assert.InDelta(t, 20*math.Log10(0.8), profile.PeakDB, 0.1)
	// RMS of a sine is amplitude over sqrt(2).
	assert.InDelta(t, 20*math.Log10(0.8/math.Sqrt2), profile.RMSDB, 0.1)
	assert.Len(t, profile.MeanSpectrum, playback.ReducedBinCount)
}

func TestAnalyzeSkipsNonWAV(t *testing.T) {
	p, gw, store := newFixture(t)
	ctx := context.Background()

	media := []byte("ID3\x04mp3 frames go here")
	_, err := gw.Upload(ctx, storage.CategoryAudio, "song.mp3",
		bytes.NewReader(media), int64(len(media)), "audio/mpeg")
	require.NoError(t, err)

	// Skip rather than retry: the format is valid for the bucket, it just
	// has no server-side analysis path.
	require.NoError(t, p.Analyze(ctx, "song.mp3"))

	_, err = store.Get(ctx, queue.AnalysisKey("song.mp3"))
	assert.ErrorIs(t, err, kv.ErrKeyNotFound)
}

func TestAnalyzeMissingObject(t *testing.T) {
	p, _, _ := newFixture(t)
	err := p.Analyze(context.Background(), "ghost.wav")
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrStorageUnavailable)
}
