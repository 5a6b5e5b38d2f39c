package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

type S3Config struct {
	Region     string
	Bucket     string
	AccessKey  string
	SecretKey  string
	Endpoint   string
	PublicBase string
	ACL        string
}

type S3Client struct {
	cfg S3Config
	s3  *s3.Client
	acl types.ObjectCannedACL
}

func NewS3Client(ctx context.Context, cfg S3Config) (*S3Client, error) {
	if cfg.Region == "" || cfg.Bucket == "" {
		return nil, errors.New("s3 region and bucket are required")
	}

	acl, err := ValidateACL(cfg.ACL)
	if err != nil {
		return nil, err
	}

	var opts []func(*config.LoadOptions) error
	opts = append(opts, config.WithRegion(cfg.Region))

	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}

	endpoint := ""
	if cfg.Endpoint != "" {
		endpoint = cfg.Endpoint
		if parsed, err := url.Parse(endpoint); err == nil {
			endpoint = parsed.String()
		}
	}

	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Client{
		cfg: cfg,
		s3:  s3Client,
		acl: acl,
	}, nil
}

func (c *S3Client) Put(ctx context.Context, key string, data []byte, opts PutOptions) error {
	if c == nil {
		return errors.New("s3 client not initialized")
	}
	if key == "" {
		return ErrEmptyKey
	}
	input := &s3.PutObjectInput{
		Bucket:        aws.String(c.cfg.Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	}
	if opts.ContentType != "" {
		input.ContentType = aws.String(opts.ContentType)
	}
	if opts.ContentEncoding != "" {
		input.ContentEncoding = aws.String(opts.ContentEncoding)
	}
	if c.acl != "" {
		input.ACL = c.acl
	}

	if _, err := c.s3.PutObject(ctx, input); err != nil {
		return fmt.Errorf("s3 put object: %w", err)
	}
	return nil
}

// PublicURL prefers the configured public base; otherwise it derives the
// path-style URL of the custom endpoint or the virtual-hosted AWS URL.
func (c *S3Client) PublicURL(key string) string {
	if c == nil || key == "" {
		return ""
	}
	if c.cfg.PublicBase != "" {
		return c.cfg.PublicBase + "/" + key
	}
	if c.cfg.Endpoint != "" {
		return strings.TrimRight(c.cfg.Endpoint, "/") + "/" + c.cfg.Bucket + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", c.cfg.Bucket, c.cfg.Region, key)
}

func (c *S3Client) HealthCheck(ctx context.Context) error {
	if c == nil {
		return errors.New("s3 client not initialized")
	}
	_, err := c.s3.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(c.cfg.Bucket)})
	return err
}

func ValidateACL(acl string) (types.ObjectCannedACL, error) {
	switch acl {
	case "":
		return "", nil
	case "private":
		return types.ObjectCannedACLPrivate, nil
	case "public-read":
		return types.ObjectCannedACLPublicRead, nil
	default:
		return "", errors.New("invalid acl")
	}
}

var _ BlobStore = (*S3Client)(nil)
