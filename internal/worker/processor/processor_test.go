package processor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"testing"

	"socialcard/internal/models"
	"socialcard/internal/output"
	"socialcard/internal/pipeline"
	"socialcard/internal/pkg/errors"
	"socialcard/internal/pkg/logger"
)

type memJobs struct {
	mu   sync.Mutex
	jobs map[string]*models.RenderJob
}

func newMemJobs(jobs ...*models.RenderJob) *memJobs {
	m := &memJobs{jobs: map[string]*models.RenderJob{}}
	for _, j := range jobs {
		m.jobs[j.ID] = j
	}
	return m
}

func (m *memJobs) Get(ctx context.Context, id string) (*models.RenderJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return nil, errors.NotFound("render job", id)
	}
	cp := *j
	return &cp, nil
}

func (m *memJobs) MarkRunning(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[id].Status = models.JobRunning
	return nil
}

func (m *memJobs) MarkDone(ctx context.Context, id, url, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[id].Status = models.JobDone
	m.jobs[id].ResultURL = url
	m.jobs[id].ResultKey = key
	return nil
}

func (m *memJobs) MarkFailed(ctx context.Context, id, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[id].Status = models.JobFailed
	m.jobs[id].Error = message
	return nil
}

type fakeRenderer struct {
	got []pipeline.Request
	err error
}

func (f *fakeRenderer) Run(ctx context.Context, req pipeline.Request) (output.Result, error) {
	f.got = append(f.got, req)
	if f.err != nil {
		return output.Result{}, f.err
	}
	return output.Result{Mode: req.Mode, URL: "https://cdn.test/social/1-aa.png", Key: "social/1-aa.png"}, nil
}

func queuedJob(t *testing.T, id string, body map[string]any) *models.RenderJob {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	return &models.RenderJob{ID: id, Status: models.JobQueued, Request: raw}
}

func TestProcessJobSuccess(t *testing.T) {
	jobs := newMemJobs(queuedJob(t, "job_1", map[string]any{
		"title":         "Hi",
		"backgroundUrl": "https://x/bg.png",
		"mode":          "binary",
		"variant":       "card",
	}))
	r := &fakeRenderer{}
	p := New(Deps{Jobs: jobs, Renderer: r, Log: logger.Discard()})

	if err := p.ProcessJob(context.Background(), "job_1"); err != nil {
		t.Fatalf("ProcessJob() error = %v", err)
	}

	job := jobs.jobs["job_1"]
	if job.Status != models.JobDone {
		t.Errorf("expected DONE, got %s", job.Status)
	}
	if job.ResultURL != "https://cdn.test/social/1-aa.png" || job.ResultKey != "social/1-aa.png" {
		t.Errorf("unexpected result %q %q", job.ResultURL, job.ResultKey)
	}
	if len(r.got) != 1 {
		t.Fatalf("expected one render, got %d", len(r.got))
	}
	if r.got[0].Mode != output.ModeStoredURL {
		t.Errorf("jobs always store, got mode %q", r.got[0].Mode)
	}
	if r.got[0].Message != pipeline.FallbackMessage || r.got[0].Variant != "card" {
		t.Errorf("unexpected request %+v", r.got[0])
	}
}

func TestProcessJobFailures(t *testing.T) {
	tests := []struct {
		name        string
		body        map[string]any
		renderErr   error
		wantMessage string
	}{
		{
			name:        "missing background",
			body:        map[string]any{"title": "Hi"},
			wantMessage: "backgroundUrl is required",
		},
		{
			name:        "render failure",
			body:        map[string]any{"backgroundUrl": "https://x/missing.png"},
			renderErr:   errors.AssetFetch("https://x/missing.png", 404, nil),
			wantMessage: "failed to fetch https://x/missing.png (404)",
		},
		{
			name:        "plain failure",
			body:        map[string]any{"backgroundUrl": "https://x/bg.png"},
			renderErr:   fmt.Errorf("boom"),
			wantMessage: "boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			jobs := newMemJobs(queuedJob(t, "job_1", tt.body))
			p := New(Deps{Jobs: jobs, Renderer: &fakeRenderer{err: tt.renderErr}, Log: logger.Discard()})

			if err := p.ProcessJob(context.Background(), "job_1"); err == nil {
				t.Fatal("expected error")
			}

			job := jobs.jobs["job_1"]
			if job.Status != models.JobFailed {
				t.Errorf("expected FAILED, got %s", job.Status)
			}
			if job.Error != tt.wantMessage {
				t.Errorf("expected error %q, got %q", tt.wantMessage, job.Error)
			}
		})
	}
}

func TestProcessJobInvalidRequestJSON(t *testing.T) {
	jobs := newMemJobs(&models.RenderJob{ID: "job_1", Status: models.JobQueued, Request: json.RawMessage(`[1,2]`)})
	p := New(Deps{Jobs: jobs, Renderer: &fakeRenderer{}, Log: logger.Discard()})

	err := p.ProcessJob(context.Background(), "job_1")
	if !errors.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
	if jobs.jobs["job_1"].Status != models.JobFailed {
		t.Errorf("expected FAILED, got %s", jobs.jobs["job_1"].Status)
	}
}

func TestProcessJobSkipsNonQueued(t *testing.T) {
	job := queuedJob(t, "job_1", map[string]any{"backgroundUrl": "https://x/bg.png"})
	job.Status = models.JobDone
	r := &fakeRenderer{}
	p := New(Deps{Jobs: newMemJobs(job), Renderer: r, Log: logger.Discard()})

	if err := p.ProcessJob(context.Background(), "job_1"); err != nil {
		t.Fatalf("ProcessJob() error = %v", err)
	}
	if len(r.got) != 0 {
		t.Error("expected finished job not to be rendered again")
	}
}

func TestProcessJobNotFound(t *testing.T) {
	p := New(Deps{Jobs: newMemJobs(), Renderer: &fakeRenderer{}, Log: logger.Discard()})

	err := p.ProcessJob(context.Background(), "job_missing")
	if !errors.IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestFailedJobLogging(t *testing.T) {
	tests := []struct {
		name      string
		body      map[string]any
		renderErr error
		want      []string
	}{
		{
			name: "rejected request logs a warning",
			body: map[string]any{"title": "Hi"},
			want: []string{`"level":"WARN"`, `"msg":"job rejected"`, `"job_id":"job_1"`},
		},
		{
			name:      "render failure logs code and op",
			body:      map[string]any{"backgroundUrl": "https://x/missing.png"},
			renderErr: errors.AssetFetch("https://x/missing.png", 404, nil),
			want:      []string{`"level":"ERROR"`, `"msg":"job failed"`, `"job_id":"job_1"`, `"code":"ASSET_FETCH_ERROR"`, `"op":"assets.fetch"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			log := logger.New(logger.Config{Level: "debug", Format: "json", Output: &buf})
			p := New(Deps{
				Jobs:     newMemJobs(queuedJob(t, "job_1", tt.body)),
				Renderer: &fakeRenderer{err: tt.renderErr},
				Log:      log,
			})

			if err := p.ProcessJob(context.Background(), "job_1"); err == nil {
				t.Fatal("expected error")
			}
			for _, w := range tt.want {
				if !strings.Contains(buf.String(), w) {
					t.Errorf("expected log to contain %s, got: %s", w, buf.String())
				}
			}
		})
	}
}

func TestNilLoggerWritesNothing(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	stdout := os.Stdout
	os.Stdout = w

	p := New(Deps{
		Jobs:     newMemJobs(queuedJob(t, "job_1", map[string]any{"backgroundUrl": "https://x/bg.png"})),
		Renderer: &fakeRenderer{err: fmt.Errorf("boom")},
	})
	_ = p.ProcessJob(context.Background(), "job_1")

	os.Stdout = stdout
	w.Close()
	out, _ := io.ReadAll(r)
	if len(out) != 0 {
		t.Errorf("expected no output without a logger, got: %s", out)
	}
}
