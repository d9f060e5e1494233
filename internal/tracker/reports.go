package tracker

import (
	"context"
	"fmt"
	"time"

	"github.com/bbernstein/shiptracker/internal/cache"
	"github.com/bbernstein/shiptracker/internal/format"
	"github.com/bbernstein/shiptracker/internal/models"
)

const (
	ServiceName        = "TRMNL Ship Tracker"
	ServiceDescription = "API for tracking ship positions on TRMNL e-ink display"
	Version            = "1.0.0"

	StatusOperational = "operational"
	StatusDegraded    = "degraded"
)

type InfoReport struct {
	Name            string  `json:"name"`
	Description     string  `json:"description"`
	Version         string  `json:"version"`
	Status          string  `json:"status"`
	LastUpdate      *string `json:"last_update"`
	MMSI            string  `json:"mmsi"`
	RefreshInterval int     `json:"refresh_interval"`
}

type ConfigSummary struct {
	MMSI              string `json:"mmsi"`
	RefreshInterval   int    `json:"refresh_interval"`
	DisplayDimensions string `json:"display_dimensions"`
	StalePolicy       string `json:"stale_policy"`
	ImageMirror       bool   `json:"image_mirror"`
}

type CacheStatus struct {
	Valid      bool              `json:"valid"`
	FetchedAt  *string           `json:"fetched_at"`
	AgeSeconds *float64          `json:"age_seconds"`
	Age        *string           `json:"age"`
	Timeout    int               `json:"timeout"`
	Renders    map[string]uint64 `json:"renders"`
}

type StatusReport struct {
	Timestamp     string                 `json:"timestamp"`
	ServiceStatus string                 `json:"service_status"`
	LastUpdate    *string                `json:"last_update"`
	VesselData    *models.PositionRecord `json:"vessel_data"`
	Config        ConfigSummary          `json:"config"`
	Cache         CacheStatus            `json:"cache"`
	LastError     *format.ErrorResponse  `json:"last_error,omitempty"`
}

type DebugReport struct {
	Timestamp     string                 `json:"timestamp"`
	ServiceStatus string                 `json:"service_status"`
	VesselData    *models.PositionRecord `json:"vessel_data"`
	APIKeyLength  int                    `json:"api_key_length"`
	TRMNLKeySet   bool                   `json:"trmnl_api_key_configured"`
	MMSI          string                 `json:"mmsi"`
	LastUpdate    *string                `json:"last_update"`
	CacheStatus   string                 `json:"cache_status"`
	CacheTimeout  int                    `json:"cache_timeout"`
	Error         *format.ErrorResponse  `json:"error,omitempty"`
}

// Info describes the service. It never contacts the upstream.
func (s *Service) Info() InfoReport {
	return InfoReport{
		Name:            ServiceName,
		Description:     ServiceDescription,
		Version:         Version,
		Status:          "running",
		LastUpdate:      lastUpdate(s.cache.Snapshot()),
		MMSI:            s.cfg.MMSI,
		RefreshInterval: s.cfg.RefreshIntervalSeconds,
	}
}

// Status reports the cached state. It is a pure read and never triggers a refresh.
func (s *Service) Status() StatusReport {
	now := s.cache.Now()
	entry := s.cache.Snapshot()
	failure := s.cache.LastFailure()

	report := StatusReport{
		Timestamp:     now.UTC().Format(time.RFC3339),
		ServiceStatus: serviceStatus(entry, failure),
		LastUpdate:    lastUpdate(entry),
		VesselData:    entry.Record,
		Config: ConfigSummary{
			MMSI:              s.cfg.MMSI,
			RefreshInterval:   s.cfg.RefreshIntervalSeconds,
			DisplayDimensions: fmt.Sprintf("%dx%d", s.renderer.Width(), s.renderer.Height()),
			StalePolicy:       string(s.cfg.StalePolicy),
			ImageMirror:       s.publisher != nil,
		},
		Cache: CacheStatus{
			Valid:   entry.Valid(now, s.cfg.CacheTimeout()),
			Timeout: s.cfg.CacheTimeoutSeconds,
			Renders: s.renders.GetCacheStats(),
		},
	}
	if entry.Record != nil {
		fetchedAt := entry.FetchedAt.UTC().Format(time.RFC3339)
		age := now.Sub(entry.FetchedAt)
		seconds := age.Seconds()
		coarse := format.FormatAge(age)
		report.Cache.FetchedAt = &fetchedAt
		report.Cache.AgeSeconds = &seconds
		report.Cache.Age = &coarse
	}
	if failure != nil {
		resp := format.FormatErrorResponse(failure.Err, failure.At)
		report.LastError = &resp
	}
	return report
}

// Debug refreshes through the cache like the display route does and reports the outcome.
func (s *Service) Debug(ctx context.Context) DebugReport {
	_, err := s.cache.GetEntry(ctx)
	now := s.cache.Now()
	entry := s.cache.Snapshot()

	report := DebugReport{
		Timestamp:     now.UTC().Format(time.RFC3339),
		ServiceStatus: StatusOperational,
		VesselData:    entry.Record,
		APIKeyLength:  len(s.cfg.VesselFinderAPIKey),
		TRMNLKeySet:   s.cfg.TRMNLAPIKey != "",
		MMSI:          s.cfg.MMSI,
		LastUpdate:    lastUpdate(entry),
		CacheStatus:   "invalid",
		CacheTimeout:  s.cfg.CacheTimeoutSeconds,
	}
	if entry.Valid(now, s.cfg.CacheTimeout()) {
		report.CacheStatus = "valid"
	}
	if err != nil {
		resp := format.FormatErrorResponse(err, now)
		report.Error = &resp
		report.ServiceStatus = StatusDegraded
	}
	return report
}

func serviceStatus(entry cache.Entry, failure *cache.Failure) string {
	if entry.Record == nil || failure != nil {
		return StatusDegraded
	}
	return StatusOperational
}

// lastUpdate is the observation time of the cached fix, or nil before the first fetch.
func lastUpdate(entry cache.Entry) *string {
	if entry.Record == nil {
		return nil
	}
	ts := entry.Record.ObservedAt.UTC().Format(time.RFC3339)
	return &ts
}
