package storage

import (
	"context"
	"fmt"

	"resume-intake/config"
)

// New builds the BlobStore selected by cfg.Driver.
func New(ctx context.Context, cfg config.StorageConfig) (BlobStore, error) {
	switch cfg.Driver {
	case config.StorageDriverS3:
		return NewS3Client(ctx, S3Config{
			Region:     cfg.Region,
			Bucket:     cfg.Bucket,
			AccessKey:  cfg.AccessKey,
			SecretKey:  cfg.SecretKey,
			Endpoint:   cfg.Endpoint,
			PublicBase: cfg.PublicBase,
			ACL:        cfg.ACL,
		})
	case config.StorageDriverMinio:
		return NewMinioClient(MinioConfig{
			Endpoint:   cfg.Endpoint,
			Bucket:     cfg.Bucket,
			AccessKey:  cfg.AccessKey,
			SecretKey:  cfg.SecretKey,
			UseSSL:     cfg.UseSSL,
			PublicBase: cfg.PublicBase,
		})
	case config.StorageDriverMemory:
		base := cfg.PublicBase
		if base == "" {
			base = "memory://" + cfg.Bucket
		}
		return NewMemoryStore(base), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
