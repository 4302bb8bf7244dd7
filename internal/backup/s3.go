// =============================================================================
// MC Generator - Source Backup
// =============================================================================
//
// Copies the uploaded source workbooks to S3 when the consolidated cache is
// rebuilt. The backup is optional; callers log a failed upload and carry on.
//
// =============================================================================

package backup

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/ginjaninja78/mcgen/internal/logging"
)

// Remote keys of the backed up sources, relative to the prefix.
const (
	BalanceKey = "Balanco_Energetico.xlsm"
	BillingKey = "gd_gestao_cobranca.xlsx"
)

// PutObjectAPI is the part of the S3 client the uploader needs.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Uploader uploads blobs under a bucket prefix.
type S3Uploader struct {
	Client PutObjectAPI
	Bucket string
	Prefix string
	logger logging.Logger
}

// NewS3Uploader builds an uploader from the default AWS configuration
// (environment, shared config files, instance role).
func NewS3Uploader(ctx context.Context, bucket, prefix string, logger logging.Logger) (*S3Uploader, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS SDK config for S3: %w", err)
	}
	return &S3Uploader{
		Client: s3.NewFromConfig(cfg),
		Bucket: bucket,
		Prefix: prefix,
		logger: logging.OrNop(logger),
	}, nil
}

// Key joins the prefix and name into an S3 key.
func (u *S3Uploader) Key(name string) string {
	return strings.TrimPrefix(path.Join(u.Prefix, name), "/")
}

// Upload stores data under the prefixed key.
func (u *S3Uploader) Upload(ctx context.Context, name string, data []byte, contentType string) error {
	key := u.Key(name)
	logging.OrNop(u.logger).Infof("Uploading %d bytes to s3://%s/%s", len(data), u.Bucket, key)

	input := &s3.PutObjectInput{
		Bucket: aws.String(u.Bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := u.Client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("failed to upload to s3: %w", err)
	}
	return nil
}
