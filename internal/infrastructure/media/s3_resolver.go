package media

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"github.com/erp/catalog-migrator/internal/infrastructure/config"
)

// defaultPresignExpiration keeps URLs valid long enough for the storefront
// to fetch every image of one run
const defaultPresignExpiration = 24 * time.Hour

// S3Resolver resolves file names to presigned GET URLs on an S3-compatible
// bucket (AWS S3, MinIO, RustFS...)
type S3Resolver struct {
	presignClient     *s3.PresignClient
	bucket            string
	prefix            string
	presignExpiration time.Duration
	logger            *zap.Logger
}

var _ Resolver = (*S3Resolver)(nil)

// S3ResolverOption is a functional option for configuring S3Resolver
type S3ResolverOption func(*S3Resolver)

// WithLogger sets a custom logger
func WithLogger(logger *zap.Logger) S3ResolverOption {
	return func(r *S3Resolver) {
		r.logger = logger
	}
}

// WithPresignExpiration sets a custom presign expiration duration
func WithPresignExpiration(d time.Duration) S3ResolverOption {
	return func(r *S3Resolver) {
		r.presignExpiration = d
	}
}

// NewS3Resolver creates a resolver for objects stored under prefix in the configured bucket
func NewS3Resolver(cfg *config.S3Config, prefix string, opts ...S3ResolverOption) (*S3Resolver, error) {
	if cfg == nil {
		return nil, errors.New("media: s3 configuration is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("media: s3 bucket is required")
	}
	if cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" {
		return nil, errors.New("media: s3 access key and secret are required")
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("media: failed to create AWS config: %w", err)
	}

	var endpoint string
	if cfg.Endpoint != "" {
		endpoint = cfg.Endpoint
		if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
			endpoint = "https://" + endpoint
		}
		if _, err := url.Parse(endpoint); err != nil {
			return nil, fmt.Errorf("media: invalid s3 endpoint: %w", err)
		}
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	r := &S3Resolver{
		presignClient:     s3.NewPresignClient(client),
		bucket:            cfg.Bucket,
		prefix:            prefix,
		presignExpiration: cfg.PresignExpiration,
		logger:            zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.presignExpiration <= 0 {
		r.presignExpiration = defaultPresignExpiration
	}
	return r, nil
}

// Resolve returns a presigned GET URL for filename
func (r *S3Resolver) Resolve(ctx context.Context, filename string) (string, error) {
	if filename == "" {
		return "", ErrEmptyFilename
	}

	key := objectKey(r.prefix, filename)
	req, err := r.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(r.presignExpiration))
	if err != nil {
		return "", fmt.Errorf("media: failed to presign %s: %w", filename, err)
	}
	r.logger.Debug("Presigned media URL", zap.String("key", key), zap.Duration("expires_in", r.presignExpiration))
	return req.URL, nil
}

// Bucket returns the bucket name
func (r *S3Resolver) Bucket() string {
	return r.bucket
}
