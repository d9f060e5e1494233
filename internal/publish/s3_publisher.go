package publish

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/bbernstein/shiptracker/internal/display"
	"github.com/bbernstein/shiptracker/internal/metrics"
	"github.com/rs/zerolog/log"
)

// S3Client defines the interface for S3 operations we need
type S3Client interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Publisher mirrors rendered images somewhere outside the process.
type Publisher interface {
	Publish(ctx context.Context, image display.RenderResult, fetchedAt time.Time) error
}

// S3Publisher uploads the latest data image to a fixed bucket and key.
// Each fetch is uploaded at most once.
type S3Publisher struct {
	client     S3Client
	bucketName string
	key        string

	mu            sync.Mutex
	lastFetchedAt time.Time
}

func NewS3Publisher(client S3Client, bucketName, key string) *S3Publisher {
	return &S3Publisher{
		client:     client,
		bucketName: bucketName,
		key:        key,
	}
}

// Publish uploads image unless an image for fetchedAt (or a later fetch) was already uploaded.
func (p *S3Publisher) Publish(ctx context.Context, image display.RenderResult, fetchedAt time.Time) error {
	if p.bucketName == "" {
		return fmt.Errorf("empty bucket name")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if !fetchedAt.After(p.lastFetchedAt) {
		return nil
	}

	_, err := p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(p.bucketName),
		Key:           aws.String(p.key),
		Body:          bytes.NewReader(image.ImageBytes),
		ContentLength: aws.Int64(int64(len(image.ImageBytes))),
		ContentType:   aws.String(display.ContentType),
		CacheControl:  aws.String("no-cache"),
		Metadata: map[string]string{
			"fetched-at": fetchedAt.UTC().Format(time.RFC3339),
			"width":      strconv.Itoa(image.Width),
			"height":     strconv.Itoa(image.Height),
		},
	})
	if err != nil {
		metrics.ImagePublishes.WithLabelValues("error").Inc()
		return fmt.Errorf("saving image to S3: %w", err)
	}

	p.lastFetchedAt = fetchedAt
	metrics.ImagePublishes.WithLabelValues("success").Inc()
	log.Debug().
		Str("bucket", p.bucketName).
		Str("key", p.key).
		Int("bytes", len(image.ImageBytes)).
		Time("fetched_at", fetchedAt).
		Msg("Published display image to S3")
	return nil
}
