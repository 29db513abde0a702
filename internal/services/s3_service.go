package services

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go/logging"
	"github.com/sirupsen/logrus"

	"github.com/assetcatalog/backend/internal/config"
)

const uploadPartSize = 10 * 1024 * 1024

// S3Store keeps attachments in an S3 compatible bucket.
type S3Store struct {
	client    *s3.Client
	bucket    string
	publicURL string
	endpoint  string
	region    string
}

func NewS3Store(cfg *config.Config) (*S3Store, error) {
	if cfg.S3Bucket == "" {
		return nil, fmt.Errorf("S3_BUCKET is required for the s3 storage backend")
	}
	client, err := buildClient(cfg.S3Endpoint, cfg.S3Region, cfg.S3AccessKeyID, cfg.S3SecretAccessKey, cfg.S3UsePathStyle)
	if err != nil {
		return nil, err
	}
	return &S3Store{
		client:    client,
		bucket:    cfg.S3Bucket,
		publicURL: strings.TrimRight(cfg.S3PublicURL, "/"),
		endpoint:  strings.TrimRight(cfg.S3Endpoint, "/"),
		region:    cfg.S3Region,
	}, nil
}

func buildClient(endpoint, region, key, secret string, pathStyle bool) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
		awsconfig.WithLogger(logging.LoggerFunc(func(classification logging.Classification, format string, v ...interface{}) {
			entry := logrus.WithField("component", "s3")
			if classification == logging.Warn {
				entry.Warnf(format, v...)
				return
			}
			entry.Debugf(format, v...)
		})),
	}
	// Without static keys the default chain (env, shared config, IAM role) applies.
	if key != "" && secret != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(key, secret, "")))
	}

	cfg, err := awsconfig.LoadDefaultConfig(context.TODO(), opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = pathStyle
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
	return client, nil
}

// Save uploads r with the multipart uploader and returns the object URL.
func (s *S3Store) Save(ctx context.Context, key string, r io.Reader, _ int64, contentType string) (string, error) {
	uploader := manager.NewUploader(s.client, func(u *manager.Uploader) { u.PartSize = uploadPartSize })
	_, err := uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        r,
		ContentType: aws.String(contentType),
		ACL:         s3types.ObjectCannedACLPrivate,
	})
	if err != nil {
		return "", err
	}
	return s.ObjectURL(key), nil
}

// Delete removes an object from the bucket.
func (s *S3Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	return err
}

// ObjectURL builds the URL stored with an attachment.
func (s *S3Store) ObjectURL(key string) string {
	return objectURL(s.publicURL, s.endpoint, s.bucket, s.region, key)
}

func objectURL(publicURL, endpoint, bucket, region, key string) string {
	switch {
	case publicURL != "":
		return fmt.Sprintf("%s/%s", publicURL, key)
	case endpoint != "":
		return fmt.Sprintf("%s/%s/%s", endpoint, bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", bucket, region, key)
}
