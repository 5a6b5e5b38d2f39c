package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestIsUniqueViolation(t *testing.T) {
	unique := &pgconn.PgError{Code: "23505", ConstraintName: "idx_user_resumes_resume_path"}

	assert.True(t, isUniqueViolation(unique))
	assert.True(t, isUniqueViolation(fmt.Errorf("insert: %w", unique)))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23502"}))
	assert.False(t, isUniqueViolation(errors.New("duplicate key value")))
	assert.False(t, isUniqueViolation(nil))
}
