package playback

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// State is the playback session lifecycle.
type State string

const (
	StateIdle      State = "idle"
	StateResolving State = "resolving"
	StateReady     State = "ready"
	StatePlaying   State = "playing"
	StatePaused    State = "paused"
	StateEnded     State = "ended"
	StateError     State = "error"
)

// ErrNotReady is returned by Play when no loaded track is available.
var ErrNotReady = errors.New("no playable track loaded")

// URLResolver resolves a logical track name to a signed fetch URL. The API
// client implements it.
type URLResolver interface {
	ResolveAudioURL(ctx context.Context, name string) (string, error)
}

// FetchFunc retrieves the media bytes behind a signed URL.
type FetchFunc func(ctx context.Context, url string) ([]byte, error)

// Options configures a Session.
type Options struct {
	// FrameRate is the analysis cadence in frames per second.
	FrameRate int
	// OnFrame receives each analysis frame while the session is playing.
	OnFrame func(AnalysisFrame)
	// Fetch overrides media fetching; defaults to an HTTP GET.
	Fetch  FetchFunc
	Logger *slog.Logger
}

// Session owns one playback lifecycle: the decoded media, the lazily built
// analysis graph and the frame loop. Sessions never share analyzer state.
type Session struct {
	resolver  URLResolver
	fetch     FetchFunc
	frameRate int
	onFrame   func(AnalysisFrame)
	log       *slog.Logger

	mu             sync.Mutex
	state          State
	track          string
	clip           *Clip
	analyzer       *Analyzer
	analyzerFailed bool
	pos            int
	volume         float64
	loadErr        error
	loopRunning    bool
}

// NewSession constructs an idle session.
func NewSession(resolver URLResolver, opts Options) *Session {
	if opts.FrameRate <= 0 {
		opts.FrameRate = 60
	}
	if opts.Fetch == nil {
		opts.Fetch = fetchHTTP
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Session{
		resolver:  resolver,
		fetch:     opts.Fetch,
		frameRate: opts.FrameRate,
		onFrame:   opts.OnFrame,
		log:       opts.Logger,
		state:     StateIdle,
		volume:    0.7,
	}
}

// Load resolves the track name to a signed URL, fetches and decodes the media
// and moves the session to Ready. Any failure lands in Error; the only
// recovery is another Load call.
func (s *Session) Load(ctx context.Context, track string) error {
	s.mu.Lock()
	s.state = StateResolving
	s.track = track
	s.clip = nil
	s.pos = 0
	s.analyzer = nil
	s.analyzerFailed = false
	s.loadErr = nil
	s.mu.Unlock()

	fail := func(err error) error {
		s.mu.Lock()
		s.state = StateError
		s.loadErr = err
		s.mu.Unlock()
		return err
	}

	url, err := s.resolver.ResolveAudioURL(ctx, track)
	if err != nil {
		return fail(fmt.Errorf("resolve %s: %w", track, err))
	}
	data, err := s.fetch(ctx, url)
	if err != nil {
		return fail(fmt.Errorf("fetch %s: %w", track, err))
	}
	clip, err := DecodeWAV(data)
	if err != nil {
		return fail(fmt.Errorf("decode %s: %w", track, err))
	}

	s.mu.Lock()
	s.clip = clip
	s.state = StateReady
	s.mu.Unlock()
	return nil
}

// Play starts (or resumes) playback and the per-frame sampling loop. The
// analysis graph is built lazily, at most once per loaded track; a graph
// construction failure degrades visualization to empty frames but never
// blocks playback. At most one frame loop runs per session.
func (s *Session) Play() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateReady, StatePaused, StateEnded:
	default:
		return fmt.Errorf("%w: state %s", ErrNotReady, s.state)
	}
	if s.state == StateEnded {
		s.pos = 0
	}
	if s.analyzer == nil && !s.analyzerFailed {
		analyzer, err := s.buildAnalyzer()
		if err != nil {
			s.analyzerFailed = true
			s.log.Error("analyzer init failed, playback continues without visualization",
				"track", s.track, "error", err)
		} else {
			s.analyzer = analyzer
		}
	}
	s.state = StatePlaying
	if !s.loopRunning {
		s.loopRunning = true
		go s.frameLoop()
	}
	return nil
}

func (s *Session) buildAnalyzer() (*Analyzer, error) {
	if s.clip == nil || s.clip.SampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate")
	}
	return NewAnalyzer(s.clip.SampleRate), nil
}

// Pause stops playback. The analysis graph stays connected for fast resume;
// the frame loop observes the state change on its next tick and exits.
func (s *Session) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StatePlaying {
		s.state = StatePaused
	}
}

// frameLoop pulls analysis frames at the configured cadence. Cancellation is
// cooperative: the loop checks the session state at the top of every tick and
// exits within one frame interval of leaving Playing.
func (s *Session) frameLoop() {
	ticker := time.NewTicker(time.Second / time.Duration(s.frameRate))
	defer ticker.Stop()
	for range ticker.C {
		if !s.tick() {
			return
		}
	}
}

// tick advances the playhead by one frame's worth of samples and emits an
// analysis frame. It returns false once the loop must stop.
func (s *Session) tick() bool {
	s.mu.Lock()
	if s.state != StatePlaying || s.clip == nil {
		s.loopRunning = false
		s.mu.Unlock()
		return false
	}
	step := s.clip.SampleRate / s.frameRate
	if step < 1 {
		step = 1
	}
	end := s.pos + step
	if end > len(s.clip.Samples) {
		end = len(s.clip.Samples)
	}
	chunk := make([]float64, end-s.pos)
	for i, sample := range s.clip.Samples[s.pos:end] {
		chunk[i] = sample * s.volume
	}
	s.pos = end

	var frame AnalysisFrame
	if s.analyzer != nil {
		s.analyzer.Process(chunk)
		frame = s.analyzer.Frame()
	} else {
		frame = AnalysisFrame{
			FrequencyBins:   make([]byte, ReducedBinCount),
			WaveformSamples: make([]byte, FFTSize),
		}
	}

	ended := s.pos >= len(s.clip.Samples)
	if ended {
		// End of media displays as paused; replay is allowed by seeking
		// back or pressing play again.
		s.state = StateEnded
		s.loopRunning = false
	}
	callback := s.onFrame
	s.mu.Unlock()

	if callback != nil {
		callback(frame)
	}
	return !ended
}

// Seek positions the playhead proportionally, percent in [0, 100].
func (s *Session) Seek(percent float64) {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.clip == nil {
		return
	}
	s.pos = int(percent / 100 * float64(len(s.clip.Samples)))
	if s.state == StateEnded && s.pos < len(s.clip.Samples) {
		s.state = StatePaused
	}
}

// SetVolume sets the playback volume, clamped to [0, 1]. Session memory only.
func (s *Session) SetVolume(v float64) {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.volume = v
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the load error that moved the session to Error, if any.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadErr
}

// Progress returns playhead position as a percentage of duration.
func (s *Session) Progress() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.clip == nil || len(s.clip.Samples) == 0 {
		return 0
	}
	return float64(s.pos) / float64(len(s.clip.Samples)) * 100
}

// Duration returns the loaded track length in seconds.
func (s *Session) Duration() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.clip == nil {
		return 0
	}
	return s.clip.Duration()
}

func fetchHTTP(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("media fetch: status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
