package models

import (
	"encoding/json"
	"time"
)

// Render is a card uploaded in url mode.
type Render struct {
	ID        string    `json:"id"`
	ObjectKey string    `json:"object_key"`
	URL       string    `json:"url"`
	Provider  string    `json:"provider"`
	SizeBytes int64     `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
}

// JobStatus is the lifecycle state of an asynchronous render.
type JobStatus string

const (
	JobQueued  JobStatus = "QUEUED"
	JobRunning JobStatus = "RUNNING"
	JobDone    JobStatus = "DONE"
	JobFailed  JobStatus = "FAILED"
)

// RenderJob is an asynchronous url-mode render.
type RenderJob struct {
	ID         string          `json:"id"`
	Status     JobStatus       `json:"status"`
	Request    json.RawMessage `json:"request"`
	ResultURL  string          `json:"result_url,omitempty"`
	ResultKey  string          `json:"result_key,omitempty"`
	Error      string          `json:"error,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	StartedAt  *time.Time      `json:"started_at,omitempty"`
	FinishedAt *time.Time      `json:"finished_at,omitempty"`
}
