package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"cruise-scraper/utils"
)

// S3Config holds the archive's construction parameters.
type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string // optional; set for MinIO or other S3-compatible stores
	PathStyle bool
	Prefix    string
}

// S3Archive uploads snapshot files to an S3-compatible bucket.
type S3Archive struct {
	client *s3.Client
	bucket string
	prefix string
	retry  utils.RetryConfig
	logger *utils.Logger
}

// NewS3Archive builds an archive using the default AWS credentials chain.
func NewS3Archive(ctx context.Context, cfg S3Config, retry utils.RetryConfig, logger *utils.Logger) (*S3Archive, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3: bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("s3: load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.PathStyle {
			o.UsePathStyle = true
		}
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	return newS3Archive(client, cfg, retry, logger), nil
}

func newS3Archive(client *s3.Client, cfg S3Config, retry utils.RetryConfig, logger *utils.Logger) *S3Archive {
	return &S3Archive{
		client: client,
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
		retry:  retry,
		logger: logger,
	}
}

// Key returns the object key a local file is stored under.
func (a *S3Archive) Key(localPath string) string {
	name := filepath.Base(localPath)
	if a.prefix == "" {
		return name
	}
	return path.Join(a.prefix, name)
}

// Archive uploads every non-empty path. All paths are attempted; the
// returned error joins the individual failures.
func (a *S3Archive) Archive(ctx context.Context, paths ...string) error {
	var errs []error
	for _, p := range paths {
		if p == "" {
			continue
		}
		key := a.Key(p)
		err := a.retry.Do(ctx, "s3 upload "+key, func(ctx context.Context) error {
			return a.put(ctx, p, key)
		})
		if err != nil {
			errs = append(errs, err)
			continue
		}
		a.logger.Info("[s3] Archived %s → s3://%s/%s", p, a.bucket, key)
	}
	return errors.Join(errs...)
}

func (a *S3Archive) put(ctx context.Context, localPath, key string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("s3: open %q: %w", localPath, err)
	}
	defer f.Close()

	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("s3: put %q: %w", key, err)
	}
	return nil
}
