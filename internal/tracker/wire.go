package tracker

import (
	"context"
	"fmt"

	"github.com/bbernstein/shiptracker/internal/config"
	"github.com/bbernstein/shiptracker/internal/publish"
	"github.com/bbernstein/shiptracker/internal/vessel"
	"github.com/bbernstein/shiptracker/pkg/http/client"
	"github.com/rs/zerolog/log"
)

// NewFromConfig builds the production service: the VesselFinder client and, when a bucket
// is configured, the S3 image mirror.
func NewFromConfig(ctx context.Context, cfg *config.Config) (*Service, error) {
	httpClient := client.New(client.Options{
		BaseURL: cfg.VesselFinderURL,
		Timeout: cfg.HTTPTimeout,
	})
	fetcher := vessel.NewVesselFinderClient(httpClient, cfg.VesselFinderAPIKey)

	var opts []Option
	if cfg.ImageBucket != "" {
		s3Client, err := publish.NewS3Client(ctx, cfg.S3Endpoint)
		if err != nil {
			return nil, fmt.Errorf("creating S3 client: %w", err)
		}
		opts = append(opts, WithPublisher(publish.NewS3Publisher(s3Client, cfg.ImageBucket, cfg.ImageKey)))
		log.Info().Str("bucket", cfg.ImageBucket).Str("key", cfg.ImageKey).Msg("Mirroring display images to S3")
	}

	svc, err := NewService(cfg, fetcher, opts...)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("mmsi", cfg.MMSI).
		Int("cache_timeout", cfg.CacheTimeoutSeconds).
		Int("refresh_interval", cfg.RefreshIntervalSeconds).
		Str("stale_policy", string(cfg.StalePolicy)).
		Bool("trmnl_plugin", cfg.TRMNLPluginUUID != "").
		Msg("Ship tracker service initialised")
	return svc, nil
}
