package s3

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/saransh1220/album-market/internal/modules/order/domain"
)

// Config holds configuration for S3/MinIO archive storage
type Config struct {
	BucketName string
	Region     string
	Endpoint   string // MinIO / LocalStack endpoint, empty for AWS
	AccessKey  string
	SecretKey  string
	UseSSL     bool
	Prefix     string
}

// Archiver writes purged orders to a bucket as one JSON document per reap.
type Archiver struct {
	client *s3.Client
	config Config
}

type snapshot struct {
	PurgedAt time.Time      `json:"purgedAt"`
	Count    int            `json:"count"`
	Orders   []domain.Order `json:"orders"`
}

func NewArchiver(ctx context.Context, cfg Config) (*Archiver, error) {
	if cfg.BucketName == "" {
		return nil, fmt.Errorf("bucket name is required")
	}

	var awsCfg aws.Config
	var err error
	if cfg.Endpoint != "" {
		awsCfg, err = config.LoadDefaultConfig(ctx,
			config.WithRegion(cfg.Region),
			config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
		)
	} else {
		awsCfg, err = config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			endpoint := cfg.Endpoint
			if !cfg.UseSSL && !hasHTTPPrefix(endpoint) {
				endpoint = "http://" + endpoint
			}
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true // Required for MinIO
		}
	})

	return &Archiver{client: client, config: cfg}, nil
}

// Archive uploads the orders purged at the given time.
func (a *Archiver) Archive(ctx context.Context, at time.Time, orders []domain.Order) error {
	body, err := json.Marshal(snapshot{PurgedAt: at.UTC(), Count: len(orders), Orders: orders})
	if err != nil {
		return fmt.Errorf("failed to encode archive: %w", err)
	}

	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.config.BucketName),
		Key:         aws.String(a.Key(at)),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload archive to s3: %w", err)
	}
	return nil
}

// Key is the object key for a reap at the given time, partitioned by day.
func (a *Archiver) Key(at time.Time) string {
	at = at.UTC()
	return path.Join(a.config.Prefix, at.Format("2006/01/02"), fmt.Sprintf("purged-%d.json", at.UnixNano()))
}

func hasHTTPPrefix(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
