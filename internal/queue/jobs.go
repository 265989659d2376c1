// Package queue defines the background analysis tasks enqueued by the API and
// consumed by the worker.
package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

const (
	// AnalyzeTrackTask is scheduled after each successful audio upload.
	AnalyzeTrackTask = "audio:analyze"

	// AnalysisKeyPrefix is the kv record-type prefix for stored profiles.
	AnalysisKeyPrefix = "analysis_"
)

// AnalyzePayload tells the worker which object to pull from the audio bucket.
type AnalyzePayload struct {
	FileName string `json:"file_name"`
}

// AnalysisKey builds the kv key holding a track's profile.
func AnalysisKey(fileName string) string {
	return AnalysisKeyPrefix + fileName
}

// EnqueueAnalyze enqueues a track analysis job.
func EnqueueAnalyze(ctx context.Context, client *asynq.Client, payload AnalyzePayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	task := asynq.NewTask(AnalyzeTrackTask, data)
	if _, err := client.EnqueueContext(ctx, task, asynq.MaxRetry(3)); err != nil {
		return fmt.Errorf("enqueue analyze task: %w", err)
	}
	return nil
}
