package intake_errors

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Common errors
var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrTooLarge           = errors.New("file too large")
	ErrRateLimited        = errors.New("rate limited")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrAlreadyExists      = errors.New("already exists")
)

// Generic messages for failures whose cause must not reach the client.
const (
	MsgTimeout    = "Upload timed out, please try again"
	MsgUnexpected = "An unexpected error occurred"
)

// Kind classifies a failure by the pipeline stage that produced it.
type Kind string

const (
	KindValidation Kind = "VALIDATION"
	KindStorage    Kind = "STORAGE"
	KindMetadata   Kind = "DATABASE"
	KindListing    Kind = "LISTING"
	KindTimeout    Kind = "TIMEOUT"
	KindUnexpected Kind = "UNEXPECTED"
)

// UploadError carries a caller-safe Message next to the wrapped cause.
type UploadError struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *UploadError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

func New(kind Kind, message string, err error) *UploadError {
	return &UploadError{Kind: kind, Message: message, Err: err}
}

func Validation(message string) *UploadError {
	return &UploadError{Kind: KindValidation, Message: message, Err: ErrInvalidInput}
}

// KindOf reports the Kind of err. Deadline expiry always wins over the
// kind it was wrapped in so callers can tell a slow store from a broken one.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var ue *UploadError
	if errors.As(err, &ue) {
		return ue.Kind
	}
	return KindUnexpected
}

// MessageOf returns the caller-safe message for err.
// The message always belongs to the same kind KindOf reports.
func MessageOf(err error) string {
	switch KindOf(err) {
	case KindTimeout:
		return MsgTimeout
	case KindUnexpected, "":
		return MsgUnexpected
	}
	var ue *UploadError
	if errors.As(err, &ue) && ue.Message != "" {
		return ue.Message
	}
	return MsgUnexpected
}

// NowUTC returns the current time in UTC
func NowUTC() time.Time {
	return time.Now().UTC()
}
