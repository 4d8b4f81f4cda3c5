package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dnbdoctor/labelsync/internal/shared"
)

// ObjectStore writes whole objects under a key.
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, body []byte) error
}

// R2Store is an [ObjectStore] backed by an S3-compatible bucket (Cloudflare R2).
type R2Store struct {
	client *s3.Client
	bucket string
}

// NewR2Store creates an S3 client for the configured endpoint with static credentials.
//
// Returns [shared.ErrStorageDisabled] when the endpoint, keys, or bucket are missing.
func NewR2Store(cfg shared.StorageConfig, optFns ...func(*s3.Options)) (*R2Store, error) {
	if !cfg.Configured() {
		return nil, shared.ErrStorageDisabled
	}

	region := cfg.Region
	if region == "" {
		region = "auto"
	}

	opts := s3.Options{
		Region:       region,
		BaseEndpoint: aws.String(cfg.Endpoint),
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		UsePathStyle: true,
	}

	return &R2Store{client: s3.New(opts, optFns...), bucket: cfg.Bucket}, nil
}

// Put uploads body to key, overwriting any existing object.
func (s *R2Store) Put(ctx context.Context, key, contentType string, body []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(body))),
	})
	if err != nil {
		return fmt.Errorf("%w: %s: %v", shared.ErrUpload, key, err)
	}
	return nil
}
