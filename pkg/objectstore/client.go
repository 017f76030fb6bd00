package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"attachments-api/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Client wraps the S3 bucket that holds job attachments. Uploads return a
// presigned GET URL so downstream consumers can read the object without
// credentials until the URL expires.
type Client struct {
	s3      *s3.Client
	presign *s3.PresignClient
	bucket  string
	urlTTL  time.Duration
}

func NewClient(ctx context.Context, cfg *config.Config) (*Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.ObjectStore.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load object store credentials: %w", err)
	}

	client := s3.NewFromConfig(awsCfg)

	return &Client{
		s3:      client,
		presign: s3.NewPresignClient(client),
		bucket:  cfg.ObjectStore.Bucket,
		urlTTL:  time.Duration(cfg.ObjectStore.SignedURLTTL) * time.Hour,
	}, nil
}

// UploadSigned writes data to the bucket at key and returns a signed URL.
// The TTL is a policy parameter; records keep whatever URL was minted at
// write time and are only re-signed by a later processing pass.
func (c *Client) UploadSigned(ctx context.Context, key string, data []byte) (string, error) {
	_, err := c.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload object %s: %w", key, err)
	}

	signed, err := c.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(c.urlTTL))
	if err != nil {
		return "", fmt.Errorf("failed to sign object %s: %w", key, err)
	}

	return signed.URL, nil
}
