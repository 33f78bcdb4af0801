package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

var _ JobRepository = (*JobRepositoryImpl)(nil)

type JobRepositoryImpl struct {
	db *DB
}

func NewJobRepository(db *DB) *JobRepositoryImpl {
	return &JobRepositoryImpl{db: db}
}

func (r *JobRepositoryImpl) CreateJob(ctx context.Context, source string) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO scraping_jobs (source, status, created_at) VALUES (?, 'pending', ?)
	`, source, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to create scraping job: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get created job ID: %w", err)
	}

	return id, nil
}

func (r *JobRepositoryImpl) MarkRunning(ctx context.Context, jobID int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE scraping_jobs SET status = 'running', started_at = ? WHERE id = ?
	`, time.Now().UTC(), jobID)
	if err != nil {
		return fmt.Errorf("failed to mark job running: %w", err)
	}
	return nil
}

func (r *JobRepositoryImpl) MarkCompleted(ctx context.Context, jobID int64, scraped, errors int) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE scraping_jobs
		SET status = 'completed', completed_at = ?, articles_scraped = ?, errors_count = ?
		WHERE id = ?
	`, time.Now().UTC(), scraped, errors, jobID)
	if err != nil {
		return fmt.Errorf("failed to mark job completed: %w", err)
	}
	return nil
}

func (r *JobRepositoryImpl) MarkFailed(ctx context.Context, jobID int64, scraped, errors int, message string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE scraping_jobs
		SET status = 'failed', completed_at = ?, articles_scraped = ?, errors_count = ?, error_message = ?
		WHERE id = ?
	`, time.Now().UTC(), scraped, errors, message, jobID)
	if err != nil {
		return fmt.Errorf("failed to mark job failed: %w", err)
	}
	return nil
}

func (r *JobRepositoryImpl) GetJobs(ctx context.Context, limit int) ([]ScrapingJob, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, source, status, started_at, completed_at, articles_scraped,
		       errors_count, error_message, created_at
		FROM scraping_jobs
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list scraping jobs: %w", err)
	}
	defer rows.Close()

	var jobs []ScrapingJob
	for rows.Next() {
		var j ScrapingJob
		err := rows.Scan(&j.ID, &j.Source, &j.Status, &j.StartedAt, &j.CompletedAt,
			&j.ArticlesScraped, &j.ErrorsCount, &j.ErrorMessage, &j.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job row: %w", err)
		}
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating job rows: %w", err)
	}

	return jobs, nil
}

func (r *JobRepositoryImpl) GetJobByID(ctx context.Context, id int64) (*ScrapingJob, error) {
	var j ScrapingJob
	err := r.db.QueryRowContext(ctx, `
		SELECT id, source, status, started_at, completed_at, articles_scraped,
		       errors_count, error_message, created_at
		FROM scraping_jobs
		WHERE id = ?
	`, id).Scan(&j.ID, &j.Source, &j.Status, &j.StartedAt, &j.CompletedAt,
		&j.ArticlesScraped, &j.ErrorsCount, &j.ErrorMessage, &j.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scraping job: %w", err)
	}

	return &j, nil
}
