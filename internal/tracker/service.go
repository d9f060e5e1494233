package tracker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bbernstein/shiptracker/internal/cache"
	"github.com/bbernstein/shiptracker/internal/config"
	"github.com/bbernstein/shiptracker/internal/display"
	"github.com/bbernstein/shiptracker/internal/format"
	"github.com/bbernstein/shiptracker/internal/metrics"
	"github.com/bbernstein/shiptracker/internal/publish"
	"github.com/bbernstein/shiptracker/internal/vessel"
	"github.com/rs/zerolog/log"
)

const publishTimeout = 10 * time.Second

// Image kinds
const (
	KindData  = "data"
	KindStale = "stale"
	KindError = "error"
)

// Image is what the display route serves. It is always a complete image.
type Image struct {
	display.RenderResult
	Kind      string
	Reason    display.Reason
	FetchedAt time.Time
}

// Service is constructed once per process and shared by every request handler.
type Service struct {
	cfg       *config.Config
	cache     *cache.VesselDataCache
	renderer  *display.Renderer
	renders   *cache.RenderCache
	publisher publish.Publisher
	startedAt time.Time
}

type Option func(*serviceOptions)

type serviceOptions struct {
	publisher    publish.Publisher
	cacheOptions []cache.Option
}

// WithPublisher mirrors every new data image through p.
func WithPublisher(p publish.Publisher) Option {
	return func(o *serviceOptions) {
		o.publisher = p
	}
}

func WithClock(clock cache.Clock) Option {
	return func(o *serviceOptions) {
		o.cacheOptions = append(o.cacheOptions, cache.WithClock(clock))
	}
}

func NewService(cfg *config.Config, fetcher vessel.Fetcher, opts ...Option) (*Service, error) {
	o := &serviceOptions{}
	for _, opt := range opts {
		opt(o)
	}

	renderer, err := display.NewRenderer(cfg.DisplayWidth, cfg.DisplayHeight)
	if err != nil {
		return nil, fmt.Errorf("creating renderer: %w", err)
	}

	renders, err := cache.NewRenderCache(cfg.RenderCacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating render cache: %w", err)
	}

	cacheOpts := append([]cache.Option{cache.WithFetchTimeout(cfg.HTTPTimeout + 5*time.Second)}, o.cacheOptions...)
	vesselCache := cache.NewVesselDataCache(fetcher, cfg.MMSI, cfg.CacheTimeout(), cacheOpts...)

	return &Service{
		cfg:       cfg,
		cache:     vesselCache,
		renderer:  renderer,
		renders:   renders,
		publisher: o.publisher,
		startedAt: vesselCache.Now(),
	}, nil
}

func (s *Service) Cache() *cache.VesselDataCache {
	return s.cache
}

// RefreshInterval is the polling hint passed on to the display device.
func (s *Service) RefreshInterval() time.Duration {
	return s.cfg.RefreshInterval()
}

// Display produces the current display image. Upstream failures become an error image, or the
// last known record marked stale when the stale policy allows it.
func (s *Service) Display(ctx context.Context) Image {
	entry, err := s.cache.GetEntry(ctx)
	if err == nil {
		return s.renderData(ctx, entry)
	}

	reason := ReasonFor(err)
	log.Warn().Err(err).Str("mmsi", s.cfg.MMSI).Str("reason", string(reason)).Msg("Vessel data unavailable for display")

	last := s.cache.Snapshot()
	if s.cfg.StalePolicy == config.StalePolicyLastKnownGood && last.Record != nil &&
		s.cache.Now().Sub(last.FetchedAt) <= s.cfg.MaxStaleAge {
		return s.renderStale(last, reason)
	}

	metrics.Renders.WithLabelValues(KindError).Inc()
	return Image{
		RenderResult: s.renderer.RenderError(reason, errorDetail(err, last)),
		Kind:         KindError,
		Reason:       reason,
	}
}

func (s *Service) renderData(ctx context.Context, entry cache.Entry) Image {
	key := cache.RenderKey(entry, KindData)
	if result, ok := s.renders.Get(key); ok {
		metrics.Renders.WithLabelValues("memo").Inc()
		return Image{RenderResult: result, Kind: KindData, FetchedAt: entry.FetchedAt}
	}

	result, err := s.renderer.Render(entry.Record)
	if err != nil {
		// GetEntry never succeeds without a record
		log.Error().Err(err).Msg("Rendering cached record")
		return Image{RenderResult: s.renderer.RenderError(display.ReasonNoData, ""), Kind: KindError, Reason: display.ReasonNoData}
	}
	s.renders.Add(key, result)
	metrics.Renders.WithLabelValues(KindData).Inc()

	if s.publisher != nil {
		pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
		defer cancel()
		if err := s.publisher.Publish(pubCtx, result, entry.FetchedAt); err != nil {
			log.Error().Err(err).Str("mmsi", s.cfg.MMSI).Msg("Failed to publish display image")
		}
	}

	return Image{RenderResult: result, Kind: KindData, FetchedAt: entry.FetchedAt}
}

func (s *Service) renderStale(entry cache.Entry, reason display.Reason) Image {
	key := cache.RenderKey(entry, KindStale+":"+string(reason))
	if result, ok := s.renders.Get(key); ok {
		metrics.Renders.WithLabelValues("memo").Inc()
		return Image{RenderResult: result, Kind: KindStale, Reason: reason, FetchedAt: entry.FetchedAt}
	}

	result, err := s.renderer.RenderStale(entry.Record, reason)
	if err != nil {
		log.Error().Err(err).Msg("Rendering stale record")
		return Image{RenderResult: s.renderer.RenderError(reason, ""), Kind: KindError, Reason: reason}
	}
	s.renders.Add(key, result)
	metrics.Renders.WithLabelValues(KindStale).Inc()
	return Image{RenderResult: result, Kind: KindStale, Reason: reason, FetchedAt: entry.FetchedAt}
}

// ReasonFor maps a cache or upstream failure onto the error image to show.
func ReasonFor(err error) display.Reason {
	kind, ok := vessel.KindOf(err)
	if !ok {
		if errors.Is(err, cache.ErrStaleDataUnavailable) {
			return display.ReasonNoData
		}
		return display.ReasonNetwork
	}

	switch kind {
	case vessel.KindNetwork:
		return display.ReasonNetwork
	case vessel.KindAuth:
		return display.ReasonAuth
	case vessel.KindNotFound:
		return display.ReasonNotFound
	case vessel.KindParse:
		return display.ReasonParse
	default:
		return display.ReasonNetwork
	}
}

// errorDetail is the text under the error banner. It carries the classified message only,
// never the wrapped transport error, and the time of the last good fix if there is one.
func errorDetail(err error, last cache.Entry) string {
	detail := ""
	var upstreamErr *vessel.UpstreamError
	if errors.As(err, &upstreamErr) && upstreamErr.Message != "" {
		detail = "Error: " + upstreamErr.Message
		if upstreamErr.StatusCode != 0 {
			detail += fmt.Sprintf(" (HTTP %d)", upstreamErr.StatusCode)
		}
	}
	if last.Record != nil {
		if detail == "" {
			detail = ReasonFor(err).DefaultDetail()
		}
		detail += "\nLast successful update: " + format.FormatTimestamp(last.Record.ObservedAt)
	}
	return detail
}
