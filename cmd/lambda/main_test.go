package main

import (
	"context"
	"encoding/base64"
	"net/http"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/bbernstein/shiptracker/internal/config"
	"github.com/bbernstein/shiptracker/internal/display"
	"github.com/bbernstein/shiptracker/internal/models"
	"github.com/bbernstein/shiptracker/internal/tracker"
	"github.com/bbernstein/shiptracker/internal/vessel"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockFetcher struct {
	err error
}

func (m *mockFetcher) Fetch(ctx context.Context, mmsi string) (*models.PositionRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &models.PositionRecord{
		VesselID:      mmsi,
		Latitude:      51.5,
		Longitude:     -0.1,
		SpeedKnots:    12.3,
		CourseDegrees: 270,
		ObservedAt:    time.Date(2024, 12, 28, 15, 30, 0, 0, time.UTC),
	}, nil
}

func newTestHandler(t *testing.T, fetcher *mockFetcher) *handler {
	t.Helper()
	cfg := config.New(
		config.WithAPIKey("test-key"),
		config.WithMMSI("235009875"),
		config.WithDisplaySize(200, 120),
	)
	svc, err := tracker.NewService(cfg, fetcher)
	require.NoError(t, err)
	return &handler{svc: svc}
}

func TestHandleRequest(t *testing.T) {
	tests := []struct {
		name        string
		path        string
		method      string
		fetchErr    error
		wantStatus  int
		wantType    string
		wantKind    string
		wantErrBody string
	}{
		{
			name:       "display image",
			path:       "/webhook",
			method:     http.MethodGet,
			wantStatus: http.StatusOK,
			wantType:   "image/bmp",
			wantKind:   tracker.KindData,
		},
		{
			name:       "display image via alias with trailing slash",
			path:       "/display.bmp/",
			wantStatus: http.StatusOK,
			wantType:   "image/bmp",
			wantKind:   tracker.KindData,
		},
		{
			name:       "error image on upstream failure",
			path:       "/webhook",
			method:     http.MethodGet,
			fetchErr:   vessel.NewUpstreamError(vessel.KindNotFound, "vessel not found", nil),
			wantStatus: http.StatusOK,
			wantType:   "image/bmp",
			wantKind:   tracker.KindError,
		},
		{
			name:       "info",
			path:       "/",
			method:     http.MethodGet,
			wantStatus: http.StatusOK,
			wantType:   "application/json",
		},
		{
			name:       "status",
			path:       "/status",
			method:     http.MethodGet,
			wantStatus: http.StatusOK,
			wantType:   "application/json",
		},
		{
			name:        "unknown path",
			path:        "/unknown",
			method:      http.MethodGet,
			wantStatus:  http.StatusNotFound,
			wantType:    "application/json",
			wantErrBody: "Resource not found",
		},
		{
			name:        "wrong method",
			path:        "/status",
			method:      http.MethodPost,
			wantStatus:  http.StatusMethodNotAllowed,
			wantType:    "application/json",
			wantErrBody: "Method not allowed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(t, &mockFetcher{err: tt.fetchErr})
			resp, err := h.handleRequest(context.Background(), events.APIGatewayProxyRequest{
				Path:       tt.path,
				HTTPMethod: tt.method,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.wantType, resp.Headers["Content-Type"])

			if tt.wantKind != "" {
				assert.Equal(t, tt.wantKind, resp.Headers["X-Image-Kind"])
				require.True(t, resp.IsBase64Encoded)
				data, err := base64.StdEncoding.DecodeString(resp.Body)
				require.NoError(t, err)
				assert.Len(t, data, display.EncodedSize(200, 120))
			}
			if tt.wantErrBody != "" {
				var body map[string]string
				require.NoError(t, json.Unmarshal([]byte(resp.Body), &body))
				assert.Equal(t, tt.wantErrBody, body["error"])
			}
		})
	}
}

func TestHandleRequest_Debug(t *testing.T) {
	h := newTestHandler(t, &mockFetcher{err: vessel.NewUpstreamError(vessel.KindNetwork, "request failed", context.DeadlineExceeded)})

	resp, err := h.handleRequest(context.Background(), events.APIGatewayProxyRequest{Path: "/debug", HTTPMethod: http.MethodGet})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var report tracker.DebugReport
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &report))
	assert.Equal(t, tracker.StatusDegraded, report.ServiceStatus)
	require.NotNil(t, report.Error)
	assert.Equal(t, "network", report.Error.Type)
}
