package repositories

import (
	"context"
	"encoding/json"
	"time"
	"unicode/utf8"

	"github.com/jackc/pgx/v5/pgxpool"

	"socialcard/internal/models"
	"socialcard/internal/pkg/errors"
)

// maxErrorText bounds stored failure messages.
const maxErrorText = 2000

type JobRepository struct {
	db *pgxpool.Pool
}

func NewJobRepository(db *pgxpool.Pool) *JobRepository {
	return &JobRepository{db: db}
}

// Create inserts a QUEUED job and fills in CreatedAt.
func (r *JobRepository) Create(ctx context.Context, job *models.RenderJob) error {
	job.Status = models.JobQueued
	job.CreatedAt = time.Now().UTC()
	_, err := r.db.Exec(ctx, `
		INSERT INTO render_jobs (id, status, request_json, created_at)
		VALUES ($1,$2,$3,$4)
	`, job.ID, string(job.Status), []byte(job.Request), job.CreatedAt)
	return err
}

// Get returns a job or a not found error.
func (r *JobRepository) Get(ctx context.Context, id string) (*models.RenderJob, error) {
	var (
		job                      models.RenderJob
		status                   string
		request                  []byte
		resultURL, resultKey, et *string
	)
	err := r.db.QueryRow(ctx, `
		SELECT id, status, request_json, result_url, result_key, error_text, created_at, started_at, finished_at
		FROM render_jobs WHERE id=$1
	`, id).Scan(&job.ID, &status, &request, &resultURL, &resultKey, &et, &job.CreatedAt, &job.StartedAt, &job.FinishedAt)
	if err != nil {
		if IsNoRows(err) {
			return nil, errors.NotFound("render job", id)
		}
		return nil, err
	}

	job.Status = models.JobStatus(status)
	job.Request = json.RawMessage(request)
	job.ResultURL = deref(resultURL)
	job.ResultKey = deref(resultKey)
	job.Error = deref(et)
	return &job, nil
}

func (r *JobRepository) MarkRunning(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE render_jobs SET status='RUNNING', started_at=NOW(), finished_at=NULL, error_text=NULL WHERE id=$1`,
		id,
	)
	return err
}

func (r *JobRepository) MarkDone(ctx context.Context, id, url, key string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE render_jobs SET status='DONE', finished_at=NOW(), result_url=$2, result_key=$3 WHERE id=$1`,
		id, url, key,
	)
	return err
}

func (r *JobRepository) MarkFailed(ctx context.Context, id, message string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE render_jobs SET status='FAILED', finished_at=NOW(), error_text=$2 WHERE id=$1`,
		id, truncateText(message, maxErrorText),
	)
	return err
}

// truncateText cuts s to at most n bytes without splitting a rune.
func truncateText(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
