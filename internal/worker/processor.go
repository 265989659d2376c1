// Package worker runs the offline track analysis jobs.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"quantumelodic/internal/kv"
	"quantumelodic/internal/playback"
	"quantumelodic/internal/queue"
	"quantumelodic/internal/storage"
)

// Processor is plugged into the asynq worker loop.
type Processor struct {
	gateway *storage.Gateway
	store   kv.Store
	log     *slog.Logger
}

// NewProcessor constructs a worker processor.
func NewProcessor(gateway *storage.Gateway, store kv.Store, log *slog.Logger) *Processor {
	return &Processor{gateway: gateway, store: store, log: log}
}

// Handler registers the analyze job handler.
func (p *Processor) Handler() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.AnalyzeTrackTask, p.handleAnalyze)
	return mux
}

// Analyze downloads the uploaded track, decodes it and stores its profile at
// analysis_<fileName>. Non-WAV uploads are skipped: the playback client
// decodes those itself and there is nothing to precompute server-side.
func (p *Processor) Analyze(ctx context.Context, fileName string) error {
	data, err := p.gateway.Download(ctx, storage.CategoryAudio, fileName)
	if err != nil {
		return fmt.Errorf("download %s: %w", fileName, err)
	}
	clip, err := playback.DecodeWAV(data)
	if err != nil {
		if errors.Is(err, playback.ErrNotWAV) || errors.Is(err, playback.ErrUnsupportedFormat) {
			p.log.Info("skipping analysis for non-PCM upload", "file", fileName, "reason", err)
			return nil
		}
		return fmt.Errorf("decode %s: %w", fileName, err)
	}
	profile := playback.AnalyzeClip(fileName, clip)
	value, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}
	if err := p.store.Set(ctx, queue.AnalysisKey(fileName), value); err != nil {
		return fmt.Errorf("store profile: %w", err)
	}
	p.log.Info("track analyzed",
		"file", fileName,
		"duration_s", profile.DurationSeconds,
		"dominant_hz", profile.DominantFrequencyHz)
	return nil
}

func (p *Processor) handleAnalyze(ctx context.Context, task *asynq.Task) error {
	var payload queue.AnalyzePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
	}
	if err := p.Analyze(ctx, payload.FileName); err != nil {
		p.log.Error("analysis failed", "file", payload.FileName, "error", err)
		return err
	}
	return nil
}
