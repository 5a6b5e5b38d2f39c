package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"resume-intake/internal/metrics"
	"resume-intake/internal/storage"
	"resume-intake/pkg/logger"

	backoff "github.com/cenkalti/backoff/v4"
	"github.com/klauspost/compress/gzip"
	"go.uber.org/zap"
)

// Formats that are already compressed and gain nothing from gzip.
var precompressedExtensions = map[string]struct{}{
	"pdf": {},
	"zip": {},
	"gz":  {},
	"rar": {},
	"7z":  {},
}

var errAttemptTimeout = errors.New("store attempt timed out")

type StoreStage string

const (
	// StagePrepare failures happen before any write was attempted.
	StagePrepare StoreStage = "prepare"
	StageWrite   StoreStage = "write"
)

type StoreError struct {
	Stage    StoreStage
	Key      string
	Attempts int
	Err      error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s failed for %s after %d attempt(s): %v", e.Stage, e.Key, e.Attempts, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// StoreOutcome is observational only.
type StoreOutcome struct {
	Key          string
	OriginalSize int
	UploadedSize int
	Elapsed      time.Duration
	Compressed   bool
	Attempts     int
}

type OptimizerConfig struct {
	CompressionThreshold int
	MinSavingsRatio      float64
	MaxAttempts          int
	BackoffUnit          time.Duration
	AttemptTimeout       time.Duration
	// DeclareContentEncoding adds Content-Encoding: gzip to compressed
	// objects. Off by default so new objects look like existing ones.
	DeclareContentEncoding bool
}

func DefaultOptimizerConfig() OptimizerConfig {
	return OptimizerConfig{
		CompressionThreshold: 1024 * 1024,
		MinSavingsRatio:      0.9,
		MaxAttempts:          3,
		BackoffUnit:          time.Second,
		AttemptTimeout:       15 * time.Second,
	}
}

// uploadAttempt is the in-flight state of one store call. It never leaves
// the goroutine that created it.
type uploadAttempt struct {
	raw        []byte
	ext        string
	key        string
	attempts   int
	compressed []byte
}

func (a *uploadAttempt) payload() []byte {
	if a.compressed != nil {
		return a.compressed
	}
	return a.raw
}

type UploadOptimizer struct {
	store    storage.BlobStore
	cfg      OptimizerConfig
	observer metrics.Observer
	log      *logger.Logger
	compress func([]byte) ([]byte, error)
	notify   backoff.Notify
}

func NewUploadOptimizer(store storage.BlobStore, cfg OptimizerConfig, observer metrics.Observer, l *logger.Logger) *UploadOptimizer {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if observer == nil {
		observer = metrics.NopObserver{}
	}
	if l == nil {
		l = logger.NewNop()
	}
	return &UploadOptimizer{
		store:    store,
		cfg:      cfg,
		observer: observer,
		log:      l,
		compress: gzipCompress,
	}
}

// ContentTypeFor is the declared type for every stored object, compressed or
// not. Consumers must treat it as approximate.
func ContentTypeFor(ext string) string {
	return "application/" + strings.ToLower(ext)
}

// ShouldCompress reports whether a payload of size bytes with extension ext
// is worth trying to compress.
func (o *UploadOptimizer) ShouldCompress(ext string, size int) bool {
	if _, ok := precompressedExtensions[strings.ToLower(ext)]; ok {
		return false
	}
	return size > o.cfg.CompressionThreshold
}

// Store writes data under key, compressing first when it pays off and
// retrying failed writes with exponential backoff.
func (o *UploadOptimizer) Store(ctx context.Context, data []byte, key, ext string) (StoreOutcome, error) {
	start := time.Now()
	attempt := &uploadAttempt{raw: data, ext: strings.ToLower(ext), key: key}
	log := o.log.WithContext(ctx).With(zap.String("storage_key", key))

	if err := o.prepare(attempt); err != nil {
		o.observer.RecordStore(time.Since(start), len(data), 0, false, 0, err)
		return StoreOutcome{}, &StoreError{Stage: StagePrepare, Key: key, Err: err}
	}

	opts := storage.PutOptions{ContentType: ContentTypeFor(attempt.ext)}
	if attempt.compressed != nil && o.cfg.DeclareContentEncoding {
		opts.ContentEncoding = "gzip"
	}

	err := o.putWithRetry(ctx, attempt, opts, log)
	outcome := StoreOutcome{
		Key:          key,
		OriginalSize: len(attempt.raw),
		UploadedSize: len(attempt.payload()),
		Elapsed:      time.Since(start),
		Compressed:   attempt.compressed != nil,
		Attempts:     attempt.attempts,
	}
	o.observer.RecordStore(outcome.Elapsed, outcome.OriginalSize, outcome.UploadedSize, outcome.Compressed, outcome.Attempts, err)
	if err != nil {
		log.Error("object store write failed",
			zap.Int("attempts", attempt.attempts),
			zap.Error(err),
		)
		return StoreOutcome{}, &StoreError{Stage: StageWrite, Key: key, Attempts: attempt.attempts, Err: err}
	}

	log.Info("resume stored",
		zap.Int("original_size", outcome.OriginalSize),
		zap.Int("uploaded_size", outcome.UploadedSize),
		zap.Bool("compressed", outcome.Compressed),
		zap.Int("attempts", outcome.Attempts),
		zap.Duration("elapsed", outcome.Elapsed),
	)
	return outcome, nil
}

func (o *UploadOptimizer) prepare(a *uploadAttempt) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("prepare panicked: %v", r)
		}
	}()

	if !o.ShouldCompress(a.ext, len(a.raw)) {
		return nil
	}
	compressed, err := o.compress(a.raw)
	if err != nil {
		return fmt.Errorf("compress payload: %w", err)
	}
	if float64(len(compressed)) < float64(len(a.raw))*o.cfg.MinSavingsRatio {
		a.compressed = compressed
	}
	return nil
}

func (o *UploadOptimizer) putWithRetry(ctx context.Context, a *uploadAttempt, opts storage.PutOptions, log *zap.Logger) error {
	operation := func() error {
		if err := ctx.Err(); err != nil {
			return backoff.Permanent(err)
		}
		a.attempts++
		err := o.putOnce(ctx, a, opts)
		if err != nil && ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		log.Warn("object store write failed, retrying",
			zap.Int("attempt", a.attempts),
			zap.Duration("backoff", wait),
			zap.Error(err),
		)
		if o.notify != nil {
			o.notify(err, wait)
		}
	}
	return backoff.RetryNotify(operation, o.newBackOff(ctx), notify)
}

func (o *UploadOptimizer) putOnce(ctx context.Context, a *uploadAttempt, opts storage.PutOptions) error {
	attemptCtx := ctx
	if o.cfg.AttemptTimeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, o.cfg.AttemptTimeout)
		defer cancel()
	}
	err := o.store.Put(attemptCtx, a.key, a.payload(), opts)
	if err != nil && attemptCtx.Err() != nil && ctx.Err() == nil {
		// A single slow attempt is a store failure, not the caller's deadline.
		return fmt.Errorf("%w after %s: %v", errAttemptTimeout, o.cfg.AttemptTimeout, err)
	}
	return err
}

// newBackOff waits BackoffUnit * 2^n before retry n (1, 2, 4 ...), with
// at most MaxAttempts calls in total.
func (o *UploadOptimizer) newBackOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = o.cfg.BackoffUnit
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = backoffCeiling(o.cfg.BackoffUnit, o.cfg.MaxAttempts)
	b.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(o.cfg.MaxAttempts-1)), ctx)
}

// backoffCeiling is BackoffUnit * 2^(attempts-1), saturating at the largest
// Duration instead of overflowing.
func backoffCeiling(unit time.Duration, attempts int) time.Duration {
	if unit <= 0 {
		return unit
	}
	ceiling := unit
	for i := 1; i < attempts; i++ {
		if ceiling > math.MaxInt64/2 {
			return time.Duration(math.MaxInt64)
		}
		ceiling *= 2
	}
	return ceiling
}

func gzipCompress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
