package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, "/quantum-server", cfg.Server.BasePath)
	assert.Empty(t, cfg.Server.Token)
	assert.Equal(t, "quantum-audio", cfg.Storage.AudioBucket)
	assert.Equal(t, "quantum-images", cfg.Storage.ImageBucket)
	assert.Equal(t, time.Hour, cfg.SignedURLTTL)
	assert.Equal(t, 60, cfg.Playback.FrameRate)
	assert.Equal(t, 2, cfg.Worker.Concurrency)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("QUANTUM_SERVER_ADDRESS", ":9090")
	t.Setenv("QUANTUM_SERVER_TOKEN", "hunter2")
	t.Setenv("QUANTUM_STORAGE_AUDIO_BUCKET", "my-audio")
	t.Setenv("QUANTUM_SIGNED_URL_TTL", "90m")
	t.Setenv("QUANTUM_WORKER_CONCURRENCY", "8")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Address)
	assert.Equal(t, "hunter2", cfg.Server.Token)
	assert.Equal(t, "my-audio", cfg.Storage.AudioBucket)
	assert.Equal(t, 90*time.Minute, cfg.SignedURLTTL)
	assert.Equal(t, 8, cfg.Worker.Concurrency)
}
