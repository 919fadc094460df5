package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	dynform "github.com/MaansiBisht/dynamic-form-app"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"
)

type bucketAPI interface {
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, params *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
}

type objectUploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// S3Exporter uploads CSV exports to a bucket.
type S3Exporter struct {
	buckets  bucketAPI
	uploader objectUploader
	bucket   string
	prefix   string
}

// NewS3Exporter builds an AWS client from cfg. Static credentials are used when
// given; otherwise the default provider chain applies.
func NewS3Exporter(ctx context.Context, cfg dynform.ExportConfig) (*S3Exporter, error) {
	if err := ValidateExportConfig(cfg); err != nil {
		return nil, err
	}
	loadOpts := []func(*config.LoadOptions) error{}
	if cfg.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	if cfg.Endpoint != "" {
		loadOpts = append(loadOpts, config.WithBaseEndpoint(cfg.Endpoint))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
	})
	return newS3Exporter(client, manager.NewUploader(client), cfg.Bucket, cfg.Prefix), nil
}

func newS3Exporter(buckets bucketAPI, uploader objectUploader, bucket, prefix string) *S3Exporter {
	return &S3Exporter{
		buckets:  buckets,
		uploader: uploader,
		bucket:   bucket,
		prefix:   prefix,
	}
}

// Key joins the configured prefix and name.
func (e *S3Exporter) Key(name string) string {
	if e.prefix == "" {
		return name
	}
	return path.Join(e.prefix, name)
}

// ensureBucket creates the bucket when it cannot be reached. A bucket that
// already exists is not an error.
func (e *S3Exporter) ensureBucket(ctx context.Context) error {
	if _, err := e.buckets.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(e.bucket)}); err == nil {
		return nil
	}
	_, err := e.buckets.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(e.bucket)})
	if err == nil {
		zap.S().Infow("created export bucket", "bucket", e.bucket)
		return nil
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "BucketAlreadyOwnedByYou", "BucketAlreadyExists":
			return nil
		}
	}
	return fmt.Errorf("create bucket: %w", err)
}

// Upload stores body under Key(name) and returns the object location.
func (e *S3Exporter) Upload(ctx context.Context, name string, body io.Reader) (string, error) {
	if err := e.ensureBucket(ctx); err != nil {
		return "", dynform.NewFormError(dynform.ErrorTypeStorage, dynform.ErrCodeExportFailure, "failed to prepare export bucket").WithCause(err)
	}
	key := e.Key(name)
	out, err := e.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(e.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String("text/csv"),
	})
	if err != nil {
		return "", dynform.NewFormError(dynform.ErrorTypeStorage, dynform.ErrCodeExportFailure, "s3 upload failed").WithCause(err)
	}
	zap.S().Infow("uploaded export", "bucket", e.bucket, "key", key, "location", out.Location)
	if out.Location != "" {
		return out.Location, nil
	}
	return fmt.Sprintf("s3://%s/%s", e.bucket, key), nil
}
