package repository

import (
	"context"

	"resume-intake/internal/domain/submission"
)

type SubmissionRepository interface {
	Insert(ctx context.Context, r *submission.Record) error
	// ListAll returns every record ordered by created_at descending.
	ListAll(ctx context.Context) ([]submission.Record, error)
}
