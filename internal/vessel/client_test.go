package vessel

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bbernstein/shiptracker/pkg/http/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMMSI = "235009875"

const validBody = `[{"AIS":{"MMSI":235009875,"TIMESTAMP":"2024-12-28 15:30:00 UTC","LATITUDE":51.5,"LONGITUDE":-0.1,` +
	`"COURSE":270,"SPEED":12.3,"HEADING":268,"NAME":"TEST VESSEL","IMO":"9228186","DESTINATION":"LONDON",` +
	`"ETA":"2024-12-29 08:00:00","DRAUGHT":"8.1","ZONE":"North Sea","SRC":"TER"}}]`

func newTestClient(t *testing.T, handler http.HandlerFunc) (*VesselFinderClient, *atomic.Int32) {
	t.Helper()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	httpClient := client.New(client.Options{
		BaseURL: srv.URL + "/vessels",
		Timeout: 200 * time.Millisecond,
	})
	return NewVesselFinderClient(httpClient, "test-key"), &hits
}

func TestFetchSuccess(t *testing.T) {
	c, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/vessels", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("userkey"))
		assert.Equal(t, testMMSI, r.URL.Query().Get("mmsi"))
		_, _ = w.Write([]byte(validBody))
	})

	record, err := c.Fetch(context.Background(), testMMSI)
	require.NoError(t, err)

	assert.Equal(t, testMMSI, record.VesselID)
	assert.InDelta(t, 51.5, record.Latitude, 1e-9)
	assert.InDelta(t, -0.1, record.Longitude, 1e-9)
	assert.InDelta(t, 12.3, record.SpeedKnots, 1e-9)
	assert.InDelta(t, 270.0, record.CourseDegrees, 1e-9)
	assert.Equal(t, time.Date(2024, 12, 28, 15, 30, 0, 0, time.UTC), record.ObservedAt)
	assert.Equal(t, "TEST VESSEL", record.ShipName)
	assert.Equal(t, "LONDON", record.Destination)
	require.NotNil(t, record.Heading)
	assert.Equal(t, 268, *record.Heading)
	require.NotNil(t, record.Draught)
	assert.InDelta(t, 8.1, *record.Draught, 1e-9)
	assert.NotEmpty(t, record.Raw)
	assert.Equal(t, int32(1), hits.Load())
}

func TestFetchStatusClassification(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		wantKind Kind
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, wantKind: KindAuth},
		{name: "forbidden", status: http.StatusForbidden, wantKind: KindAuth},
		{name: "not found", status: http.StatusNotFound, wantKind: KindNotFound},
		{name: "rate limited", status: http.StatusTooManyRequests, wantKind: KindNetwork},
		{name: "server error", status: http.StatusBadGateway, wantKind: KindNetwork},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})

			record, err := c.Fetch(context.Background(), testMMSI)
			require.Error(t, err)
			assert.Nil(t, record)

			var upstreamErr *UpstreamError
			require.True(t, errors.As(err, &upstreamErr))
			assert.Equal(t, tt.wantKind, upstreamErr.Kind)
			assert.Equal(t, tt.status, upstreamErr.StatusCode)
			assert.Equal(t, int32(1), hits.Load(), "no retries inside the client")
		})
	}
}

func TestFetchTimeoutIsNetworkError(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
		_, _ = w.Write([]byte(validBody))
	})

	_, err := c.Fetch(context.Background(), testMMSI)
	require.Error(t, err)

	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, KindNetwork, kind)
	assert.NotContains(t, err.Error(), "test-key")
}

func TestFetchCancelledContext(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(validBody))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Fetch(ctx, testMMSI)
	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, KindNetwork, kind)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseVesselFinder(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantKind  Kind
		wantInErr string
	}{
		{
			name:      "missing latitude",
			body:      `[{"AIS":{"TIMESTAMP":"2024-12-28 15:30:00 UTC","LONGITUDE":-0.1,"COURSE":270,"SPEED":12.3}}]`,
			wantKind:  KindParse,
			wantInErr: "LATITUDE",
		},
		{
			name:     "null latitude",
			body:     `[{"AIS":{"TIMESTAMP":"2024-12-28 15:30:00 UTC","LATITUDE":null,"LONGITUDE":-0.1,"COURSE":270,"SPEED":12.3}}]`,
			wantKind: KindParse,
		},
		{
			name:      "latitude out of range",
			body:      `[{"AIS":{"TIMESTAMP":"2024-12-28 15:30:00 UTC","LATITUDE":91,"LONGITUDE":-0.1,"COURSE":270,"SPEED":12.3}}]`,
			wantKind:  KindParse,
			wantInErr: "latitude",
		},
		{
			name:      "longitude out of range",
			body:      `[{"AIS":{"TIMESTAMP":"2024-12-28 15:30:00 UTC","LATITUDE":51.5,"LONGITUDE":-180.5,"COURSE":270,"SPEED":12.3}}]`,
			wantKind:  KindParse,
			wantInErr: "longitude",
		},
		{
			name:     "non numeric speed",
			body:     `[{"AIS":{"TIMESTAMP":"2024-12-28 15:30:00 UTC","LATITUDE":51.5,"LONGITUDE":-0.1,"COURSE":270,"SPEED":"fast"}}]`,
			wantKind: KindParse,
		},
		{
			name:     "NaN course",
			body:     `[{"AIS":{"TIMESTAMP":"2024-12-28 15:30:00 UTC","LATITUDE":51.5,"LONGITUDE":-0.1,"COURSE":"NaN","SPEED":1}}]`,
			wantKind: KindParse,
		},
		{
			name:      "bad timestamp",
			body:      `[{"AIS":{"TIMESTAMP":"soon","LATITUDE":51.5,"LONGITUDE":-0.1,"COURSE":270,"SPEED":12.3}}]`,
			wantKind:  KindParse,
			wantInErr: "TIMESTAMP",
		},
		{
			name:     "different vessel",
			body:     `[{"AIS":{"MMSI":"366999712","TIMESTAMP":"2024-12-28 15:30:00 UTC","LATITUDE":51.5,"LONGITUDE":-0.1,"COURSE":270,"SPEED":12.3}}]`,
			wantKind: KindParse,
		},
		{name: "not json", body: `<html>oops</html>`, wantKind: KindParse},
		{name: "empty body", body: ``, wantKind: KindParse},
		{name: "empty array", body: `[]`, wantKind: KindNotFound},
		{name: "no AIS object", body: `[{}]`, wantKind: KindNotFound},
		{name: "invalid key", body: `{"error":"Invalid userkey"}`, wantKind: KindAuth},
		{name: "out of credits", body: `{"error":"Not enough credits"}`, wantKind: KindAuth},
		{name: "unknown vessel", body: `{"error":"No vessel data"}`, wantKind: KindNotFound},
		{name: "unexpected object", body: `{"data":[]}`, wantKind: KindParse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record, err := ParseVesselFinder([]byte(tt.body), testMMSI)
			require.Error(t, err)
			assert.Nil(t, record, "no record with defaulted values")

			kind, ok := KindOf(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantKind, kind)
			if tt.wantInErr != "" {
				assert.Contains(t, err.Error(), tt.wantInErr)
			}
		})
	}
}

func TestParseBoundaryCoordinates(t *testing.T) {
	body := `[{"AIS":{"TIMESTAMP":"2024-12-28T15:30:00Z","LATITUDE":"-90","LONGITUDE":"180","COURSE":"0","SPEED":"0","HEADING":"511"}}]`

	record, err := ParseVesselFinder([]byte(body), testMMSI)
	require.NoError(t, err)

	assert.Equal(t, testMMSI, record.VesselID)
	assert.Equal(t, -90.0, record.Latitude)
	assert.Equal(t, 180.0, record.Longitude)
	assert.Equal(t, 0.0, record.SpeedKnots)
	assert.Nil(t, record.Heading)
	assert.Nil(t, record.Draught)
	assert.Equal(t, "Unknown", record.ShipName)
}

func TestUpstreamErrorFormatting(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := NewUpstreamError(KindNetwork, "request failed", cause)

	assert.Equal(t, "vessel upstream network error: request failed: dial tcp: refused", err.Error())
	assert.Equal(t, "network", err.ErrorKind())
	assert.ErrorIs(t, err, cause)

	assert.Equal(t, "vessel upstream auth error: credential rejected", newStatusError(KindAuth, 401, "credential rejected").Error())

	_, ok := KindOf(errors.New("plain"))
	assert.False(t, ok)
}

func TestRedact(t *testing.T) {
	err := redact(&url.Error{Op: "Get", URL: "https://x/vessels?userkey=secret", Err: errors.New("timeout")}, "secret")
	assert.NotContains(t, err.Error(), "secret")

	plain := errors.New("no key here")
	assert.Same(t, plain, redact(plain, "secret"))
}
