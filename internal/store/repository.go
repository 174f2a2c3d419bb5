package store

import (
	"context"
	"database/sql"
	"time"
)

type Repository interface {
	CreateVideoJob(ctx context.Context, job *VideoJob) error
	GetVideoJob(ctx context.Context, jobID string) (*VideoJob, error)
	LatestVideoJob(ctx context.Context) (*VideoJob, error)
	ListVideoJobs(ctx context.Context, limit int) ([]*VideoJob, error)
	UpdateVideoJob(ctx context.Context, jobID, status string, progress int, outputPath, errorMsg string) error

	GetConfig(ctx context.Context, key string) (string, error)
	SetConfig(ctx context.Context, key, value string) error
	DeleteConfig(ctx context.Context, key string) error
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) CreateVideoJob(ctx context.Context, j *VideoJob) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO video_jobs (job_id, session_code, template_id, photo_count, status, progress, output_path, error, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, j.JobID, j.SessionCode, j.TemplateID, j.PhotoCount, j.Status, j.Progress,
		nullString(j.OutputPath), nullString(j.Error),
		j.CreatedAt.Format(time.RFC3339), j.UpdatedAt.Format(time.RFC3339))
	return err
}

func (r *SQLiteRepository) GetVideoJob(ctx context.Context, jobID string) (*VideoJob, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT job_id, session_code, template_id, photo_count, status, progress, output_path, error, created_at, updated_at
		FROM video_jobs WHERE job_id = ?
	`, jobID)
	return r.scanVideoJob(row)
}

func (r *SQLiteRepository) LatestVideoJob(ctx context.Context) (*VideoJob, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT job_id, session_code, template_id, photo_count, status, progress, output_path, error, created_at, updated_at
		FROM video_jobs ORDER BY created_at DESC, rowid DESC LIMIT 1
	`)
	return r.scanVideoJob(row)
}

func (r *SQLiteRepository) scanVideoJob(row *sql.Row) (*VideoJob, error) {
	var j VideoJob
	var outputPath, errMsg sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(&j.JobID, &j.SessionCode, &j.TemplateID, &j.PhotoCount, &j.Status, &j.Progress, &outputPath, &errMsg, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	j.OutputPath = outputPath.String
	j.Error = errMsg.String
	j.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	j.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &j, nil
}

func (r *SQLiteRepository) ListVideoJobs(ctx context.Context, limit int) ([]*VideoJob, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT job_id, session_code, template_id, photo_count, status, progress, output_path, error, created_at, updated_at
		FROM video_jobs ORDER BY created_at DESC, rowid DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []*VideoJob
	for rows.Next() {
		var j VideoJob
		var outputPath, errMsg sql.NullString
		var createdAt, updatedAt string

		if err := rows.Scan(&j.JobID, &j.SessionCode, &j.TemplateID, &j.PhotoCount, &j.Status, &j.Progress, &outputPath, &errMsg, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		j.OutputPath = outputPath.String
		j.Error = errMsg.String
		j.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		j.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		jobs = append(jobs, &j)
	}
	return jobs, rows.Err()
}

func (r *SQLiteRepository) UpdateVideoJob(ctx context.Context, jobID, status string, progress int, outputPath, errorMsg string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE video_jobs SET status = ?, progress = ?, output_path = ?, error = ?, updated_at = datetime('now') WHERE job_id = ?
	`, status, progress, nullString(outputPath), nullString(errorMsg), jobID)
	return err
}

func (r *SQLiteRepository) GetConfig(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, "SELECT value FROM config WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

func (r *SQLiteRepository) SetConfig(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO config (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

func (r *SQLiteRepository) DeleteConfig(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM config WHERE key = ?", key)
	return err
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
