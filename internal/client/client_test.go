package client

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectContentType(t *testing.T) {
	cases := map[string]string{
		"track.mp3":       "audio/mpeg",
		"TRACK.MP3":       "audio/mpeg",
		"loop.wav":        "audio/wav",
		"chant.ogg":       "audio/ogg",
		"cover.png":       "image/png",
		"photo.JPEG":      "image/jpeg",
		"logo.svg":        "image/svg+xml",
		"sticker.webp":    "image/webp",
		"dir/nested.gif":  "image/gif",
		"unknown.zzz9999": "",
	}
	for path, want := range cases {
		assert.Equal(t, want, detectContentType(path), path)
	}
}

func TestUploadRejectsWrongMediaTypeLocally(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("not media"), 0o644))

	// No server: validation must fail before any request is attempted.
	c := New("http://127.0.0.1:1", "")
	_, err := c.Upload(context.Background(), "audio", path, "")
	assert.ErrorIs(t, err, ErrWrongMediaType)

	_, err = c.Upload(context.Background(), "images", path, "")
	assert.ErrorIs(t, err, ErrWrongMediaType)
}

func TestUploadRejectsOversizeLocally(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "huge.png")
	require.NoError(t, os.WriteFile(path, bytes.Repeat([]byte{1}, 11<<20), 0o644))

	c := New("http://127.0.0.1:1", "")
	_, err := c.Upload(context.Background(), "images", path, "")
	assert.ErrorIs(t, err, ErrFileTooLarge)
}

func TestUploadSendsMultipartWithToken(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "take-one.mp3")
	require.NoError(t, os.WriteFile(path, []byte("mp3 bytes"), 0o644))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/quantum-server/audio/upload", r.URL.Path)
		assert.Equal(t, "Bearer sekrit", r.Header.Get("Authorization"))

		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "renamed.mp3", r.FormValue("fileName"))
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "renamed.mp3", header.Filename)
		assert.Equal(t, "audio/mpeg", header.Header.Get("Content-Type"))

		json.NewEncoder(w).Encode(map[string]any{"success": true, "path": "renamed.mp3"})
	}))
	defer srv.Close()

	c := New(srv.URL+"/quantum-server/", "sekrit")
	got, err := c.Upload(context.Background(), "audio", path, "renamed.mp3")
	require.NoError(t, err)
	assert.Equal(t, "renamed.mp3", got)
}

func TestErrorEnvelopeSurfaced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "File not found"})
	}))
	defer srv.Close()

	c := New(srv.URL, "")
	_, err := c.SignedURL(context.Background(), "audio", "ghost.mp3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "File not found")
	assert.Contains(t, err.Error(), "404")
}

func TestResolveAudioURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/audio/tone.wav", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{"success": true, "url": "https://signed.example/tone"})
	}))
	defer srv.Close()

	c := New(srv.URL, "")
	url, err := c.ResolveAudioURL(context.Background(), "tone.wav")
	require.NoError(t, err)
	assert.Equal(t, "https://signed.example/tone", url)
}
