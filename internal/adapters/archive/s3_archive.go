package archive

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/alexmorales/GeoTolu/internal/domain/providers"
	"github.com/alexmorales/GeoTolu/pkg/config"
	apperrors "github.com/alexmorales/GeoTolu/pkg/errors"
)

// PutObjectAPI is the part of the S3 client used by the archive.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Archive uploads snapshots to an S3 bucket.
type S3Archive struct {
	client PutObjectAPI
	bucket string
	prefix string
}

// NewS3Archive loads the default AWS credentials chain for the configured
// region.
func NewS3Archive(ctx context.Context, cfg *config.ArchiveConfig) (*S3Archive, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, apperrors.NewValidationError("archive bucket is not configured")
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, apperrors.NewExternalError("failed to load AWS config", err)
	}
	return NewS3ArchiveWithClient(s3.NewFromConfig(awsCfg), cfg.Bucket, cfg.Prefix), nil
}

// NewS3ArchiveWithClient creates an archive over an existing client.
func NewS3ArchiveWithClient(client PutObjectAPI, bucket, prefix string) *S3Archive {
	return &S3Archive{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

var _ providers.ArchiveProvider = (*S3Archive)(nil)

// Put uploads body under the archive prefix and returns its s3:// location.
func (a *S3Archive) Put(ctx context.Context, key string, body []byte, contentType string) (string, error) {
	fullKey := path.Join(a.prefix, key)
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(fullKey),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", apperrors.NewExternalError(fmt.Sprintf("failed to upload %s to bucket %s", fullKey, a.bucket), err)
	}
	return fmt.Sprintf("s3://%s/%s", a.bucket, fullKey), nil
}

// SnapshotKey names an event log snapshot taken at now.
func SnapshotKey(now time.Time) string {
	return fmt.Sprintf("%s/estadisticas_busquedas-%s-%s.csv",
		now.Format("2006/01/02"), now.Format("150405"), uuid.New().String()[:8])
}
