package vessel

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bbernstein/shiptracker/internal/format"
	"github.com/bbernstein/shiptracker/internal/metrics"
	"github.com/bbernstein/shiptracker/internal/models"
	"github.com/bbernstein/shiptracker/pkg/http/client"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
)

var authHints = []string{"key", "credit", "expired", "permission", "unauthor", "forbidden"}

// VesselFinderClient fetches positions from the VesselFinder /vessels endpoint.
type VesselFinderClient struct {
	httpClient client.Interface
	apiKey     string
}

// NewVesselFinderClient expects httpClient to be rooted at the full /vessels URL.
func NewVesselFinderClient(httpClient client.Interface, apiKey string) *VesselFinderClient {
	return &VesselFinderClient{
		httpClient: httpClient,
		apiKey:     apiKey,
	}
}

func (c *VesselFinderClient) Fetch(ctx context.Context, mmsi string) (*models.PositionRecord, error) {
	start := time.Now()
	record, err := c.fetch(ctx, mmsi)
	elapsed := time.Since(start)

	if err != nil {
		kind, _ := KindOf(err)
		metrics.RecordFetch(string(kind), elapsed)
		log.Error().Err(err).
			Str("mmsi", mmsi).
			Str("kind", string(kind)).
			Dur("duration", elapsed).
			Msg("Vessel position fetch failed")
		return nil, err
	}

	metrics.RecordFetch("success", elapsed)
	log.Info().
		Str("mmsi", mmsi).
		Str("ship_name", record.ShipName).
		Time("observed_at", record.ObservedAt).
		Dur("duration", elapsed).
		Msg("Fetched vessel position")
	return record, nil
}

func (c *VesselFinderClient) fetch(ctx context.Context, mmsi string) (*models.PositionRecord, error) {
	log.Debug().Str("mmsi", mmsi).Msg("Fetching vessel position from VesselFinder")

	query := url.Values{}
	query.Set("userkey", c.apiKey)
	query.Set("mmsi", mmsi)

	resp, err := c.httpClient.Get(ctx, "", query)
	if err != nil {
		return nil, NewUpstreamError(KindNetwork, "request failed", redact(err, c.apiKey))
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, newStatusError(KindAuth, resp.StatusCode, "credential rejected")
	case resp.StatusCode == http.StatusNotFound:
		return nil, newStatusError(KindNotFound, resp.StatusCode, "vessel not found")
	case resp.StatusCode != http.StatusOK:
		return nil, newStatusError(KindNetwork, resp.StatusCode, fmt.Sprintf("unexpected status %d", resp.StatusCode))
	}

	return ParseVesselFinder(resp.Body, mmsi)
}

// ParseVesselFinder turns a 200 response body into a record. Missing or out-of-range
// required fields are reported as KindParse; nothing is defaulted or clamped.
func ParseVesselFinder(body []byte, mmsi string) (*models.PositionRecord, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, NewUpstreamError(KindParse, "empty response body", nil)
	}

	if body[0] == '{' {
		return nil, classifyErrorBody(body)
	}

	var entries []models.VesselFinderEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, NewUpstreamError(KindParse, "decoding response", err)
	}
	if len(entries) == 0 {
		return nil, NewUpstreamError(KindNotFound, "no data returned for vessel "+mmsi, nil)
	}

	raw := bytes.TrimSpace(entries[0].AIS)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) || bytes.Equal(raw, []byte("{}")) {
		return nil, NewUpstreamError(KindNotFound, "no AIS data for vessel "+mmsi, nil)
	}

	var ais models.VesselFinderAIS
	if err := json.Unmarshal(raw, &ais); err != nil {
		return nil, NewUpstreamError(KindParse, "decoding AIS object", err)
	}

	return buildRecord(ais, raw, mmsi)
}

func buildRecord(ais models.VesselFinderAIS, raw json.RawMessage, mmsi string) (*models.PositionRecord, error) {
	missing := missingFields(ais)
	if len(missing) > 0 {
		return nil, NewUpstreamError(KindParse, "missing fields "+strings.Join(missing, ", "), nil)
	}

	lat := float64(*ais.Latitude)
	lon := float64(*ais.Longitude)
	speed := float64(*ais.Speed)
	course := float64(*ais.Course)

	if !models.ValidLatitude(lat) {
		return nil, NewUpstreamError(KindParse, fmt.Sprintf("latitude %v out of range", lat), nil)
	}
	if !models.ValidLongitude(lon) {
		return nil, NewUpstreamError(KindParse, fmt.Sprintf("longitude %v out of range", lon), nil)
	}
	if !models.ValidSpeed(speed) {
		return nil, NewUpstreamError(KindParse, fmt.Sprintf("speed %v invalid", speed), nil)
	}
	if !models.ValidCourse(course) {
		return nil, NewUpstreamError(KindParse, fmt.Sprintf("course %v invalid", course), nil)
	}

	observedAt, err := format.ParseTimestamp(string(*ais.Timestamp))
	if err != nil {
		return nil, NewUpstreamError(KindParse, "parsing TIMESTAMP", err)
	}

	vesselID := string(ais.MMSI)
	if vesselID == "" {
		vesselID = mmsi
	} else if vesselID != mmsi {
		return nil, NewUpstreamError(KindParse, fmt.Sprintf("response is for vessel %s, requested %s", vesselID, mmsi), nil)
	}

	return &models.PositionRecord{
		VesselID:      vesselID,
		Latitude:      lat,
		Longitude:     lon,
		SpeedKnots:    speed,
		CourseDegrees: course,
		ObservedAt:    observedAt,
		ShipName:      format.OrUnknown(string(ais.Name)),
		IMO:           string(ais.IMO),
		Destination:   string(ais.Destination),
		ETA:           string(ais.ETA),
		Heading:       parseHeading(string(ais.Heading)),
		Draught:       parseOptionalFloat(string(ais.Draught)),
		Zone:          string(ais.Zone),
		Source:        string(ais.Source),
		Raw:           append(json.RawMessage(nil), raw...),
	}, nil
}

func missingFields(ais models.VesselFinderAIS) []string {
	var missing []string
	if ais.Latitude == nil {
		missing = append(missing, "LATITUDE")
	}
	if ais.Longitude == nil {
		missing = append(missing, "LONGITUDE")
	}
	if ais.Speed == nil {
		missing = append(missing, "SPEED")
	}
	if ais.Course == nil {
		missing = append(missing, "COURSE")
	}
	if ais.Timestamp == nil || *ais.Timestamp == "" {
		missing = append(missing, "TIMESTAMP")
	}
	return missing
}

// classifyErrorBody handles the {"error": "..."} object VesselFinder sends with a 200.
func classifyErrorBody(body []byte) error {
	var vfErr models.VesselFinderError
	if err := json.Unmarshal(body, &vfErr); err != nil {
		return NewUpstreamError(KindParse, "decoding response", err)
	}
	if vfErr.Error == "" {
		return NewUpstreamError(KindParse, "unexpected object response", nil)
	}

	lower := strings.ToLower(vfErr.Error)
	for _, hint := range authHints {
		if strings.Contains(lower, hint) {
			return NewUpstreamError(KindAuth, vfErr.Error, nil)
		}
	}
	return NewUpstreamError(KindNotFound, vfErr.Error, nil)
}

func parseHeading(s string) *int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	// AIS reports 511 when no heading is available.
	if err != nil || v < 0 || v > 359 {
		return nil
	}
	return &v
}

func parseOptionalFloat(s string) *float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || !models.ValidSpeed(v) {
		return nil
	}
	return &v
}

// redact keeps the API key out of transport errors, which embed the request URL.
func redact(err error, key string) error {
	if key == "" || !strings.Contains(err.Error(), key) {
		return err
	}
	return &redactedError{msg: strings.ReplaceAll(err.Error(), key, "REDACTED"), err: err}
}

type redactedError struct {
	msg string
	err error
}

func (e *redactedError) Error() string { return e.msg }
func (e *redactedError) Unwrap() error { return e.err }
