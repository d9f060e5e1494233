package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bbernstein/shiptracker/internal/metrics"
	"github.com/bbernstein/shiptracker/internal/models"
	"github.com/bbernstein/shiptracker/internal/vessel"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// ErrStaleDataUnavailable is returned when there is no fresh record and the refresh failed.
// The upstream cause stays in the chain and can be inspected with errors.As.
var ErrStaleDataUnavailable = errors.New("no valid vessel data available")

const defaultFetchTimeout = 30 * time.Second

// Entry is an immutable snapshot of the cache. Record and FetchedAt are always replaced together.
type Entry struct {
	Record    *models.PositionRecord
	FetchedAt time.Time
}

// Valid reports whether the entry holds a record younger than timeout at now.
func (e Entry) Valid(now time.Time, timeout time.Duration) bool {
	return e.Record != nil && now.Sub(e.FetchedAt) < timeout
}

// Failure describes the most recent refresh that did not produce a record.
type Failure struct {
	Err error
	At  time.Time
}

// VesselDataCache owns the single position record for one vessel and refreshes it on demand.
// At most one upstream fetch is in flight; concurrent callers that find the entry stale wait
// for that fetch and share its result.
type VesselDataCache struct {
	fetcher      vessel.Fetcher
	mmsi         string
	timeout      time.Duration
	fetchTimeout time.Duration
	clock        Clock

	mu          sync.RWMutex
	entry       Entry
	lastFailure *Failure

	group singleflight.Group
}

type Option func(*VesselDataCache)

func WithClock(clock Clock) Option {
	return func(c *VesselDataCache) {
		c.clock = clock
	}
}

// WithFetchTimeout bounds a refresh independently of the caller that started it.
func WithFetchTimeout(d time.Duration) Option {
	return func(c *VesselDataCache) {
		c.fetchTimeout = d
	}
}

func NewVesselDataCache(fetcher vessel.Fetcher, mmsi string, timeout time.Duration, opts ...Option) *VesselDataCache {
	c := &VesselDataCache{
		fetcher:      fetcher,
		mmsi:         mmsi,
		timeout:      timeout,
		fetchTimeout: defaultFetchTimeout,
		clock:        systemClock{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *VesselDataCache) Now() time.Time {
	return c.clock.Now()
}

// Snapshot returns the current entry, fresh or not, without touching the upstream.
func (c *VesselDataCache) Snapshot() Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entry
}

// IsValid reports whether Get would be served from the cache right now.
func (c *VesselDataCache) IsValid() bool {
	return c.Snapshot().Valid(c.clock.Now(), c.timeout)
}

// LastFailure returns the most recent failed refresh, or nil if the last refresh succeeded.
func (c *VesselDataCache) LastFailure() *Failure {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.lastFailure == nil {
		return nil
	}
	f := *c.lastFailure
	return &f
}

// Get returns the cached record while it is fresh, otherwise performs one refresh.
// A failed refresh leaves the previous entry in place and returns an error wrapping both
// ErrStaleDataUnavailable and the *vessel.UpstreamError.
func (c *VesselDataCache) Get(ctx context.Context) (*models.PositionRecord, error) {
	entry, err := c.GetEntry(ctx)
	if err != nil {
		return nil, err
	}
	return entry.Record, nil
}

// GetEntry is Get that also returns the fetch time paired with the record.
func (c *VesselDataCache) GetEntry(ctx context.Context) (Entry, error) {
	if entry := c.Snapshot(); entry.Valid(c.clock.Now(), c.timeout) {
		metrics.CacheLookups.WithLabelValues("hit").Inc()
		log.Debug().Str("mmsi", c.mmsi).Time("fetched_at", entry.FetchedAt).Msg("Cache HIT for vessel position")
		return entry, nil
	}
	log.Debug().Str("mmsi", c.mmsi).Msg("Cache MISS for vessel position, refreshing")

	ch := c.group.DoChan(c.mmsi, func() (interface{}, error) {
		return c.refresh(ctx)
	})

	select {
	case res := <-ch:
		if res.Shared {
			metrics.CacheLookups.WithLabelValues("shared").Inc()
		} else {
			metrics.CacheLookups.WithLabelValues("refresh").Inc()
		}
		if res.Err != nil {
			return Entry{}, fmt.Errorf("%w: %w", ErrStaleDataUnavailable, res.Err)
		}
		return res.Val.(Entry), nil
	case <-ctx.Done():
		err := vessel.NewUpstreamError(vessel.KindNetwork, "waiting for refresh", ctx.Err())
		return Entry{}, fmt.Errorf("%w: %w", ErrStaleDataUnavailable, err)
	}
}

// refresh runs inside the single flight. It is detached from the cancellation of the caller
// that started it so waiters are not failed by someone else's deadline.
func (c *VesselDataCache) refresh(ctx context.Context) (Entry, error) {
	if entry := c.Snapshot(); entry.Valid(c.clock.Now(), c.timeout) {
		return entry, nil
	}

	fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.fetchTimeout)
	defer cancel()

	record, err := c.fetcher.Fetch(fetchCtx, c.mmsi)
	if err == nil && record == nil {
		err = vessel.NewUpstreamError(vessel.KindParse, "fetcher returned no record", nil)
	}
	if err != nil {
		if _, ok := vessel.KindOf(err); !ok {
			err = vessel.NewUpstreamError(vessel.KindNetwork, "fetch failed", err)
		}
		c.mu.Lock()
		c.lastFailure = &Failure{Err: err, At: c.clock.Now()}
		c.mu.Unlock()
		return Entry{}, err
	}

	return c.store(record), nil
}

func (c *VesselDataCache) store(record *models.PositionRecord) Entry {
	c.mu.Lock()
	defer c.mu.Unlock()

	fetchedAt := c.clock.Now()
	if !fetchedAt.After(c.entry.FetchedAt) {
		fetchedAt = c.entry.FetchedAt.Add(time.Nanosecond)
	}
	c.entry = Entry{Record: record, FetchedAt: fetchedAt}
	c.lastFailure = nil
	return c.entry
}
