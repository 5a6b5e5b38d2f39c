package repository

import (
	"context"
	"errors"
	"fmt"

	"resume-intake/internal/domain/submission"
	intake_errors "resume-intake/pkg/errors"

	"gorm.io/gorm"
)

type PostgresSubmissionRepository struct {
	db *gorm.DB
}

func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &PostgresSubmissionRepository{db: db}
}

func (r *PostgresSubmissionRepository) Insert(ctx context.Context, rec *submission.Record) error {
	res := r.db.WithContext(ctx).Create(rec)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) || isUniqueViolation(res.Error) {
			return fmt.Errorf("%w: resume_path %s", intake_errors.ErrAlreadyExists, rec.ResumePath)
		}
		return res.Error
	}
	return nil
}

func (r *PostgresSubmissionRepository) ListAll(ctx context.Context) ([]submission.Record, error) {
	records := []submission.Record{}
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}
