package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type MinioConfig struct {
	Endpoint   string
	Bucket     string
	AccessKey  string
	SecretKey  string
	UseSSL     bool
	PublicBase string
}

type MinioClient struct {
	cfg    MinioConfig
	client *minio.Client
}

func NewMinioClient(cfg MinioConfig) (*MinioClient, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, errors.New("minio endpoint and bucket are required")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}
	return &MinioClient{cfg: cfg, client: client}, nil
}

func (m *MinioClient) Put(ctx context.Context, key string, data []byte, opts PutOptions) error {
	if m == nil || m.client == nil {
		return errors.New("minio client not initialized")
	}
	if key == "" {
		return ErrEmptyKey
	}
	_, err := m.client.PutObject(
		ctx,
		m.cfg.Bucket,
		key,
		bytes.NewReader(data),
		int64(len(data)),
		minio.PutObjectOptions{
			ContentType:     opts.ContentType,
			ContentEncoding: opts.ContentEncoding,
		},
	)
	if err != nil {
		return fmt.Errorf("minio put object: %w", err)
	}
	return nil
}

func (m *MinioClient) PublicURL(key string) string {
	if m == nil || key == "" {
		return ""
	}
	if m.cfg.PublicBase != "" {
		return m.cfg.PublicBase + "/" + key
	}
	scheme := "http"
	if m.cfg.UseSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, m.cfg.Endpoint, m.cfg.Bucket, key)
}

func (m *MinioClient) HealthCheck(ctx context.Context) error {
	if m == nil || m.client == nil {
		return errors.New("minio client not initialized")
	}
	ok, err := m.client.BucketExists(ctx, m.cfg.Bucket)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("bucket %q does not exist", m.cfg.Bucket)
	}
	return nil
}

var _ BlobStore = (*MinioClient)(nil)
