package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"resume-intake/internal/domain/submission"
	"resume-intake/internal/metrics"
	"resume-intake/internal/repository"
	"resume-intake/internal/storage"
	intake_errors "resume-intake/pkg/errors"
	"resume-intake/pkg/logger"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const storageKeyPrefix = "resumes/"

// Caller-facing messages.
const (
	MsgMissingFields    = "Name and mobile number are required!"
	MsgMissingFile      = "No resume file uploaded!"
	MsgEmptyFilename    = "No file selected!"
	MsgInvalidType      = "Invalid file type! Please upload PDF, DOC, or DOCX files only."
	MsgStorageFailed    = "Error uploading file to storage!"
	MsgDatabaseFailed   = "Error saving to database!"
	MsgListingFailed    = "Error fetching submissions"
	MsgUploadSuccessful = "Resume uploaded successfully!"
)

// TooLargeMessage renders the size cap the way clients have always seen it,
// e.g. "File size must be less than 5MB!" for 5 MiB.
func TooLargeMessage(maxBytes int64) string {
	var size string
	switch {
	case maxBytes > 0 && maxBytes%(1<<20) == 0:
		size = fmt.Sprintf("%dMB", maxBytes>>20)
	case maxBytes > 0 && maxBytes%(1<<10) == 0:
		size = fmt.Sprintf("%dKB", maxBytes>>10)
	default:
		size = fmt.Sprintf("%d bytes", maxBytes)
	}
	return "File size must be less than " + size + "!"
}

var allowedExtensions = map[string]string{
	"pdf":  "application/pdf",
	"doc":  "application/msword",
	"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

type UploadedFile struct {
	Filename string
	Data     []byte
}

type UploadInput struct {
	Name         string
	MobileNumber string
	File         *UploadedFile
}

type UploadResult struct {
	Name           string
	MobileNumber   string
	ResumeFilename string
	ResumePath     string
	ResumeURL      string
	CreatedAt      time.Time
	Store          StoreOutcome
	Fallback       bool
}

type SubmissionConfig struct {
	MaxBytes int64
	Timeout  time.Duration
}

type SubmissionService struct {
	repo      repository.SubmissionRepository
	blobs     storage.BlobStore
	optimizer *UploadOptimizer
	observer  metrics.Observer
	log       *logger.Logger
	cfg       SubmissionConfig
	now       func() time.Time
}

func NewSubmissionService(repo repository.SubmissionRepository, blobs storage.BlobStore, optimizer *UploadOptimizer, observer metrics.Observer, l *logger.Logger, cfg SubmissionConfig) *SubmissionService {
	if observer == nil {
		observer = metrics.NopObserver{}
	}
	if l == nil {
		l = logger.NewNop()
	}
	return &SubmissionService{
		repo:      repo,
		blobs:     blobs,
		optimizer: optimizer,
		observer:  observer,
		log:       l,
		cfg:       cfg,
		now:       intake_errors.NowUTC,
	}
}

// HandleUpload validates the submission, stores the file and records it.
// A metadata row is only written after the blob write succeeded.
func (s *SubmissionService) HandleUpload(ctx context.Context, in UploadInput) (UploadResult, error) {
	name := strings.TrimSpace(in.Name)
	mobile := strings.TrimSpace(in.MobileNumber)

	ext, err := s.validate(name, mobile, in.File)
	if err != nil {
		return UploadResult{}, err
	}

	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	key := BuildStorageKey(ext)
	log := s.log.WithContext(ctx).With(zap.String("storage_key", key))
	s.sniff(log, in.File.Data, ext)

	outcome, fallback, err := s.store(ctx, log, in.File.Data, key, ext)
	if err != nil {
		return UploadResult{}, intake_errors.New(intake_errors.KindStorage, MsgStorageFailed, err)
	}

	publicURL := s.blobs.PublicURL(key)
	if publicURL == "" {
		log.Warn("blob stored without metadata row", zap.String("reason", "empty public url"))
		return UploadResult{}, intake_errors.New(intake_errors.KindStorage, MsgStorageFailed, errors.New("public url unavailable"))
	}

	rec := &submission.Record{
		ID:             uuid.New(),
		Name:           name,
		MobileNumber:   mobile,
		ResumeFilename: in.File.Filename,
		ResumePath:     key,
		ResumeURL:      publicURL,
		CreatedAt:      s.now().UTC(),
	}

	start := time.Now()
	err = s.repo.Insert(ctx, rec)
	s.observer.RecordMetadataInsert(time.Since(start), err)
	if err != nil {
		// The blob stays behind; this window is accepted and only reported.
		log.Warn("blob stored without metadata row", zap.Error(err))
		return UploadResult{}, intake_errors.New(intake_errors.KindMetadata, MsgDatabaseFailed, err)
	}

	log.Info("submission recorded", zap.String("submission_id", rec.ID.String()))
	return UploadResult{
		Name:           rec.Name,
		MobileNumber:   rec.MobileNumber,
		ResumeFilename: rec.ResumeFilename,
		ResumePath:     rec.ResumePath,
		ResumeURL:      rec.ResumeURL,
		CreatedAt:      rec.CreatedAt,
		Store:          outcome,
		Fallback:       fallback,
	}, nil
}

// TooLargeMessage is the rejection text for the configured cap.
func (s *SubmissionService) TooLargeMessage() string {
	return TooLargeMessage(s.cfg.MaxBytes)
}

// ListSubmissions never returns nil. On failure the slice is empty and the
// error is KindListing, so callers can tell "no data" from "fetch failed".
func (s *SubmissionService) ListSubmissions(ctx context.Context) ([]submission.Record, error) {
	start := time.Now()
	records, err := s.repo.ListAll(ctx)
	s.observer.RecordListing(time.Since(start), err)
	if err != nil {
		s.log.WithContext(ctx).Error("failed to list submissions", zap.Error(err))
		return []submission.Record{}, intake_errors.New(intake_errors.KindListing, MsgListingFailed, err)
	}
	if records == nil {
		records = []submission.Record{}
	}
	return records, nil
}

func (s *SubmissionService) validate(name, mobile string, file *UploadedFile) (string, error) {
	if name == "" || mobile == "" {
		return "", intake_errors.Validation(MsgMissingFields)
	}
	if file == nil {
		return "", intake_errors.Validation(MsgMissingFile)
	}
	if file.Filename == "" {
		return "", intake_errors.Validation(MsgEmptyFilename)
	}
	ext := FileExtension(file.Filename)
	if !IsAllowedExtension(ext) {
		return "", intake_errors.Validation(MsgInvalidType)
	}
	if s.cfg.MaxBytes > 0 && int64(len(file.Data)) > s.cfg.MaxBytes {
		return "", intake_errors.New(intake_errors.KindValidation, s.TooLargeMessage(), intake_errors.ErrTooLarge)
	}
	return ext, nil
}

// store runs the optimized path and, only when it failed before writing
// anything, one plain uncompressed write without retries.
func (s *SubmissionService) store(ctx context.Context, log *zap.Logger, data []byte, key, ext string) (StoreOutcome, bool, error) {
	outcome, err := s.optimizer.Store(ctx, data, key, ext)
	if err == nil {
		return outcome, false, nil
	}

	var storeErr *StoreError
	if !errors.As(err, &storeErr) || storeErr.Stage != StagePrepare {
		return StoreOutcome{}, false, err
	}

	log.Warn("optimized upload failed before writing, falling back to plain upload", zap.Error(err))
	start := time.Now()
	fallbackErr := s.blobs.Put(ctx, key, data, storage.PutOptions{ContentType: ContentTypeFor(ext)})
	s.observer.RecordFallback(fallbackErr)
	if fallbackErr != nil {
		return StoreOutcome{}, true, fmt.Errorf("fallback upload: %w (optimizer: %v)", fallbackErr, err)
	}
	return StoreOutcome{
		Key:          key,
		OriginalSize: len(data),
		UploadedSize: len(data),
		Elapsed:      time.Since(start),
		Attempts:     1,
	}, true, nil
}

// sniff only logs. The extension stays the source of truth for acceptance.
func (s *SubmissionService) sniff(log *zap.Logger, data []byte, ext string) {
	expected := allowedExtensions[ext]
	detected := mimetype.Detect(data)
	for m := detected; m != nil; m = m.Parent() {
		if m.Is(expected) {
			return
		}
	}
	log.Warn("resume content does not match its extension",
		zap.String("extension", ext),
		zap.String("detected", detected.String()),
	)
}

// BuildStorageKey returns resumes/<uuid>.<ext> with a fresh random uuid.
func BuildStorageKey(ext string) string {
	return storageKeyPrefix + uuid.New().String() + "." + strings.ToLower(ext)
}

// FileExtension is the lower-cased text after the last dot, or "" when the
// name has no dot.
func FileExtension(filename string) string {
	idx := strings.LastIndex(filename, ".")
	if idx < 0 {
		return ""
	}
	return strings.ToLower(filename[idx+1:])
}

func IsAllowedExtension(ext string) bool {
	_, ok := allowedExtensions[strings.ToLower(ext)]
	return ok
}
