// Package client is the HTTP client the admin console uses against the API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"quantumelodic/internal/contacts"
	"quantumelodic/internal/storage"
)

// Client errors raised before any request is sent.
var (
	ErrWrongMediaType = errors.New("file type does not match the target bucket")
	ErrFileTooLarge   = errors.New("file exceeds the bucket size ceiling")
)

// Client talks to the quantum-server API with the shared bearer token.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New constructs a Client. baseURL includes the service path segment, e.g.
// http://localhost:8080/quantum-server.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 2 * time.Minute},
	}
}

type envelope struct {
	Success  bool                 `json:"success"`
	Error    string               `json:"error"`
	Message  string               `json:"message"`
	URL      string               `json:"url"`
	Path     string               `json:"path"`
	Count    int                  `json:"count"`
	Files    []storage.ObjectInfo `json:"files"`
	Contacts []contacts.Record    `json:"contacts"`
	Analysis json.RawMessage      `json:"analysis"`
}

// Upload validates the file locally (MIME category inferred from the
// extension, bucket size ceiling) and uploads it as multipart form data.
// Validation failures never reach the network.
func (c *Client) Upload(ctx context.Context, category, filePath, fileName string) (string, error) {
	policy := policyFor(category)
	contentType := detectContentType(filePath)
	if !strings.HasPrefix(contentType, policy.MIMEPrefix) {
		return "", fmt.Errorf("%w: %s is %q, want %s*", ErrWrongMediaType, filePath, contentType, policy.MIMEPrefix)
	}
	info, err := os.Stat(filePath)
	if err != nil {
		return "", err
	}
	if info.Size() > policy.MaxSizeBytes {
		return "", fmt.Errorf("%w: %d bytes > %d", ErrFileTooLarge, info.Size(), policy.MaxSizeBytes)
	}
	if fileName == "" {
		fileName = filepath.Base(filePath)
	}

	f, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	hdr := make(map[string][]string)
	hdr["Content-Disposition"] = []string{fmt.Sprintf(`form-data; name="file"; filename=%q`, fileName)}
	hdr["Content-Type"] = []string{contentType}
	part, err := mw.CreatePart(hdr)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", err
	}
	if err := mw.WriteField("fileName", fileName); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	resp, err := c.do(ctx, http.MethodPost, "/"+category+"/upload", &body, mw.FormDataContentType())
	if err != nil {
		return "", err
	}
	return resp.Path, nil
}

// List returns the bucket's full listing.
func (c *Client) List(ctx context.Context, category string) ([]storage.ObjectInfo, error) {
	resp, err := c.do(ctx, http.MethodGet, "/"+category, nil, "")
	if err != nil {
		return nil, err
	}
	return resp.Files, nil
}

// Delete removes one object.
func (c *Client) Delete(ctx context.Context, category, fileName string) error {
	_, err := c.do(ctx, http.MethodDelete, "/"+category+"/"+fileName, nil, "")
	return err
}

// SignedURL resolves a name to a time-limited fetch URL.
func (c *Client) SignedURL(ctx context.Context, category, fileName string) (string, error) {
	resp, err := c.do(ctx, http.MethodGet, "/"+category+"/"+fileName, nil, "")
	if err != nil {
		return "", err
	}
	return resp.URL, nil
}

// ResolveAudioURL implements playback.URLResolver.
func (c *Client) ResolveAudioURL(ctx context.Context, name string) (string, error) {
	return c.SignedURL(ctx, "audio", name)
}

// Analysis fetches the stored track profile as raw JSON.
func (c *Client) Analysis(ctx context.Context, fileName string) (json.RawMessage, error) {
	resp, err := c.do(ctx, http.MethodGet, "/audio/"+fileName+"/analysis", nil, "")
	if err != nil {
		return nil, err
	}
	return resp.Analysis, nil
}

// Subscribe submits a contact record.
func (c *Client) Subscribe(ctx context.Context, email, name, message string) error {
	payload, err := json.Marshal(map[string]string{
		"email":   email,
		"name":    name,
		"message": message,
	})
	if err != nil {
		return err
	}
	_, err = c.do(ctx, http.MethodPost, "/subscribe", bytes.NewReader(payload), "application/json")
	return err
}

// Contacts lists all captured contact records.
func (c *Client) Contacts(ctx context.Context) ([]contacts.Record, error) {
	resp, err := c.do(ctx, http.MethodGet, "/contacts", nil, "")
	if err != nil {
		return nil, err
	}
	return resp.Contacts, nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string) (*envelope, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode response (%d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK || !env.Success {
		msg := env.Error
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, fmt.Errorf("%s %s: %s (%d)", method, path, msg, resp.StatusCode)
	}
	return &env, nil
}

func policyFor(category string) storage.BucketPolicy {
	if category == "images" {
		return storage.ImagePolicy("")
	}
	return storage.AudioPolicy("")
}

// detectContentType infers the MIME type from the file extension. The stdlib
// table does not cover common audio extensions on every platform, so known
// media types are resolved locally first.
func detectContentType(filePath string) string {
	ext := strings.ToLower(filepath.Ext(filePath))
	if t, ok := mediaTypes[ext]; ok {
		return t
	}
	return mime.TypeByExtension(ext)
}

var mediaTypes = map[string]string{
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".ogg":  "audio/ogg",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".webp": "image/webp",
	".gif":  "image/gif",
	".svg":  "image/svg+xml",
}
