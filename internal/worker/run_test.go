package worker

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"socialcard/internal/pkg/errors"
	"socialcard/internal/pkg/logger"
)

type sliceQueue struct {
	mu    sync.Mutex
	items []string
	errs  int
}

func (q *sliceQueue) Pop(ctx context.Context) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.errs > 0 {
		q.errs--
		return "", fmt.Errorf("connection reset")
	}
	if len(q.items) == 0 {
		return "", nil
	}
	id := q.items[0]
	q.items = q.items[1:]
	return id, nil
}

type recordingProcessor struct {
	mu     sync.Mutex
	seen   []string
	failOn string
	done   chan struct{}
	want   int
}

func (p *recordingProcessor) ProcessJob(ctx context.Context, jobID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seen = append(p.seen, jobID)
	if len(p.seen) == p.want {
		close(p.done)
	}
	if jobID == p.failOn {
		return fmt.Errorf("render failed")
	}
	return nil
}

func TestRunProcessesInOrderAndSurvivesFailures(t *testing.T) {
	retryDelay = time.Millisecond

	q := &sliceQueue{items: []string{"job_1", "job_2", "job_3"}, errs: 1}
	p := &recordingProcessor{failOn: "job_2", done: make(chan struct{}), want: 3}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- Run(ctx, Deps{Queue: q, Processor: p, Log: logger.Discard()}) }()

	select {
	case <-p.done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for jobs")
	}
	cancel()

	if err := <-errCh; err != context.Canceled {
		t.Errorf("expected context.Canceled, got %v", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	want := []string{"job_1", "job_2", "job_3"}
	for i := range want {
		if p.seen[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, p.seen)
		}
	}
}

func TestRunStopsOnCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Run(ctx, Deps{Queue: &sliceQueue{}, Processor: &recordingProcessor{}, Log: logger.Discard()})
	if err != context.Canceled {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

type missingJobProcessor struct {
	done chan struct{}
	once sync.Once
}

func (p *missingJobProcessor) ProcessJob(ctx context.Context, jobID string) error {
	if jobID == "job_2" {
		p.once.Do(func() { close(p.done) })
		return fmt.Errorf("render failed")
	}
	return errors.NotFound("render job", jobID)
}

func TestRunDropsMissingJobs(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Config{Level: "debug", Format: "json", Output: &buf})

	q := &sliceQueue{items: []string{"job_1", "job_2"}}
	p := &missingJobProcessor{done: make(chan struct{})}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- Run(ctx, Deps{Queue: q, Processor: p, Log: log}) }()

	select {
	case <-p.done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for jobs")
	}
	cancel()
	<-errCh

	out := buf.String()
	if !strings.Contains(out, `"msg":"job not found, dropping"`) || !strings.Contains(out, `"job_id":"job_1"`) {
		t.Errorf("expected missing job warning, got: %s", out)
	}
	if !strings.Contains(out, `"msg":"job failed"`) || !strings.Contains(out, `"caller"`) {
		t.Errorf("expected failed job error with caller, got: %s", out)
	}
}

func TestRunWithoutLogger(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := Run(ctx, Deps{Queue: &sliceQueue{}, Processor: &recordingProcessor{}}); err != context.Canceled {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
