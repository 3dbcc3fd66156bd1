package utils

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Publisher uploads finished posts so they can be shared by link.
type S3Publisher struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
	logger  *slog.Logger
}

// NewS3Publisher initializes the S3 client for bucket.
func NewS3Publisher(ctx context.Context, region, bucket string) (*S3Publisher, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}

	client := s3.NewFromConfig(cfg)
	p := &S3Publisher{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  bucket,
		logger:  slog.Default().With("component", "s3"),
	}
	p.logger.Info("S3 client initialized", "bucket", bucket, "region", region)
	return p, nil
}

// Publish uploads a JPEG under objectKey and returns a one-hour presigned link.
func (p *S3Publisher) Publish(ctx context.Context, body io.Reader, objectKey string) (string, error) {
	_, err := p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(objectKey),
		Body:        body,
		ContentType: aws.String("image/jpeg"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s to S3: %w", objectKey, err)
	}

	request, err := p.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(objectKey),
	}, s3.WithPresignExpires(1*time.Hour))
	if err != nil {
		return "", fmt.Errorf("failed to sign request: %w", err)
	}

	return request.URL, nil
}
