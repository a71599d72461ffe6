package storage

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/soonsulleng/guide-backend/pkg/logger"
)

// S3Storage uploads images to a bucket. The returned path is the storage root
// followed by the object key, so public URLs resolve to <base URL><key>.
type S3Storage struct {
	client     *s3.Client
	bucket     string
	pathPrefix string
}

func NewS3Storage(region, bucket, accessKeyID, secretAccessKey, storageRoot string) *S3Storage {
	var cfg aws.Config
	var err error

	// If credentials are provided, use them. Otherwise, use default credential chain
	if accessKeyID != "" && secretAccessKey != "" {
		cfg = aws.Config{
			Region: region,
			Credentials: credentials.NewStaticCredentialsProvider(
				accessKeyID,
				secretAccessKey,
				"",
			),
		}
	} else {
		cfg, err = config.LoadDefaultConfig(context.TODO(),
			config.WithRegion(region),
		)
		if err != nil {
			cfg = aws.Config{
				Region: region,
			}
		}
	}

	return newS3StorageWithClient(s3.NewFromConfig(cfg), bucket, storageRoot)
}

func newS3StorageWithClient(client *s3.Client, bucket, storageRoot string) *S3Storage {
	return &S3Storage{
		client:     client,
		bucket:     bucket,
		pathPrefix: withTrailingSlash(storageRoot),
	}
}

// Save puts the object under uploads/<uuid><ext>
func (s *S3Storage) Save(ctx context.Context, input *UploadInput) (string, error) {
	key := NewObjectKey(input.Filename)

	putInput := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   input.Data,
	}
	if input.ContentType != "" {
		putInput.ContentType = aws.String(input.ContentType)
	}
	if input.Size > 0 {
		putInput.ContentLength = aws.Int64(input.Size)
	}

	if _, err := s.client.PutObject(ctx, putInput); err != nil {
		return "", fmt.Errorf("failed to upload image to s3: %w", err)
	}

	logger.Debug("Image uploaded to S3", map[string]interface{}{
		"bucket": s.bucket,
		"key":    key,
	})
	return s.pathPrefix + key, nil
}
