package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/vanchuong201/joywork-web-sub000/internal/client/config"
	"github.com/vanchuong201/joywork-web-sub000/internal/client/models"
	"github.com/vanchuong201/joywork-web-sub000/internal/logging"
)

var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// S3Storage implements ObjectStorage on an S3-compatible bucket.
type S3Storage struct {
	client        *s3.Client
	presignClient *s3.PresignClient
	bucket        string
	keyPrefix     string
	publicBaseURL string
	urlExpiry     time.Duration
	logger        logging.Logger
	now           func() time.Time
}

// NewS3Storage builds a client for cfg. Extra optFns are applied to the S3
// client options after the ones derived from cfg.
func NewS3Storage(ctx context.Context, cfg config.S3Config, logger logging.Logger, optFns ...func(*s3.Options)) (*S3Storage, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}

	awsCfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	opts := append([]func(*s3.Options){func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	}}, optFns...)
	client := s3.NewFromConfig(awsCfg, opts...)

	expiry := cfg.URLExpiry
	if expiry <= 0 {
		expiry = 15 * time.Minute
	}

	logger.Info(ctx, "s3 storage initialized", "endpoint", cfg.Endpoint, "bucket", cfg.Bucket)

	return &S3Storage{
		client:        client,
		presignClient: s3.NewPresignClient(client),
		bucket:        cfg.Bucket,
		keyPrefix:     cfg.KeyPrefix,
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
		urlExpiry:     expiry,
		logger:        logger,
		now:           time.Now,
	}, nil
}

func (s *S3Storage) Upload(ctx context.Context, data []byte, meta models.ObjectMetadata) (models.RemoteObject, error) {
	key := NewObjectKey(s.keyPrefix, meta.FileName, s.now().UTC())

	in := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	}
	if meta.ContentType != "" {
		in.ContentType = aws.String(meta.ContentType)
	}

	if _, err := s.client.PutObject(ctx, in); err != nil {
		return models.RemoteObject{}, fmt.Errorf("put object %s: %w", key, err)
	}

	url, err := s.objectURL(ctx, key)
	if err != nil {
		return models.RemoteObject{}, err
	}

	s.logger.Debug(ctx, "object stored", "key", key, "size", len(data))
	return models.RemoteObject{Key: key, URL: url}, nil
}

func (s *S3Storage) objectURL(ctx context.Context, key string) (string, error) {
	if s.publicBaseURL != "" {
		return s.publicBaseURL + "/" + key, nil
	}

	req, err := presignGetObject(s.presignClient, ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.urlExpiry))
	if err != nil {
		return "", fmt.Errorf("presign get %s: %w", key, err)
	}
	return req.URL, nil
}

func (s *S3Storage) Delete(ctx context.Context, key string) error {
	if strings.TrimSpace(key) == "" {
		return ErrEmptyKey
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete object %s: %w", key, err)
	}

	s.logger.Debug(ctx, "object deleted", "key", key)
	return nil
}
