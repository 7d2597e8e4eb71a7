package backup

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// S3Config carries connection settings for the backup bucket.
type S3Config struct {
	Bucket       string
	Region       string
	BaseEndpoint string
	AccessKey    string
	SecretKey    string
}

// S3Target uploads backup files to an S3-compatible bucket (MinIO in dev).
type S3Target struct {
	client *s3.Client
	bucket string
}

// NewS3Target builds a client with static credentials and an endpoint
// override, suitable for MinIO as well as real S3.
func NewS3Target(ctx context.Context, c S3Config) (*S3Target, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(c.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			c.AccessKey,
			c.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("failed to load S3 config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(c.BaseEndpoint)
		o.UsePathStyle = true
	})

	return &S3Target{client: client, bucket: c.Bucket}, nil
}

// ObjectKey returns a unique object key for an uploaded backup,
// partitioned by date for retention housekeeping.
func ObjectKey(now time.Time) string {
	return fmt.Sprintf("backups/%d/%02d/%02d/%v", now.Year(), int(now.Month()), now.Day(), uuid.New())
}

// Upload stores the file at path under key in the backup bucket.
func (t *S3Target) Upload(ctx context.Context, path, key string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open backup for upload: %w", err)
	}
	defer f.Close()

	_, err = t.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(t.bucket),
		Key:    aws.String(key),
		Body:   f,
	})
	if err != nil {
		return fmt.Errorf("failed to upload backup to bucket %s: %w", t.bucket, err)
	}
	return nil
}
