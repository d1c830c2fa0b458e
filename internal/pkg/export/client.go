// Package export copies generation output to S3-compatible object storage.
package export

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/LaunchPad/app/models"
	"github.com/ManuelReschke/LaunchPad/internal/pkg/config"
)

var ErrDisabled = errors.New("S3 export is disabled")

// ObjectPutter is the subset of *s3.Client the exporter uses.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Client uploads generation documents to one bucket.
type Client struct {
	s3     ObjectPutter
	bucket string
}

// NewClient creates the S3 client from the export config.
func NewClient(ctx context.Context, cfg config.ExportConfig) (*Client, error) {
	if !cfg.Enabled {
		return nil, ErrDisabled
	}

	awsConfig, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.EndpointURL != "" {
			// S3-compatible providers (MinIO, B2) need path-style URLs.
			o.BaseEndpoint = aws.String(cfg.EndpointURL)
			o.UsePathStyle = true
		}
	})

	log.Infof("[Export] Initialized S3 client for bucket: %s", cfg.BucketName)
	return NewClientWithPutter(s3Client, cfg.BucketName), nil
}

func NewClientWithPutter(putter ObjectPutter, bucket string) *Client {
	return &Client{s3: putter, bucket: bucket}
}

// document is the exported object body.
type document struct {
	UUID      string          `json:"uuid"`
	Tool      string          `json:"tool"`
	Input     json.RawMessage `json:"input"`
	Output    string          `json:"output"`
	CreatedAt time.Time       `json:"created_at"`
}

// ObjectKey returns the storage key for a generation record.
func ObjectKey(record *models.GenerationRecord) string {
	return fmt.Sprintf("generations/%d/%s/%s.json", record.AccountID, record.ToolType, record.UUID)
}

// Upload writes the record as a JSON document and returns its key.
func (c *Client) Upload(ctx context.Context, record *models.GenerationRecord) (string, error) {
	input := json.RawMessage(record.InputPayload)
	if !json.Valid(input) {
		input = json.RawMessage("null")
	}
	body, err := json.Marshal(document{
		UUID:      record.UUID,
		Tool:      string(record.ToolType),
		Input:     input,
		Output:    record.OutputText,
		CreatedAt: record.CreatedAt.UTC(),
	})
	if err != nil {
		return "", err
	}

	key := ObjectKey(record)
	_, err = c.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentType:   aws.String("application/json"),
		ContentLength: aws.Int64(int64(len(body))),
		Metadata: map[string]string{
			"generation-uuid": record.UUID,
			"tool":            string(record.ToolType),
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload s3://%s/%s: %w", c.bucket, key, err)
	}
	log.Infof("[Export] Uploaded s3://%s/%s (%d bytes)", c.bucket, key, len(body))
	return key, nil
}
