// Package format turns position data and errors into display-ready strings.
// Output is ASCII only because the panel font has no glyphs outside it.
package format

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/bbernstein/shiptracker/internal/models"
)

const TimestampLayout = "2006-01-02 15:04 UTC"

var inputLayouts = []string{
	"2006-01-02 15:04:05 UTC",
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04 UTC",
}

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// FormatTimestamp renders t in UTC as "2006-01-02 15:04 UTC".
func FormatTimestamp(t time.Time) string {
	if t.IsZero() {
		return "Unknown"
	}
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp accepts the VesselFinder "YYYY-MM-DD HH:MM:SS UTC" form and ISO 8601.
// Zone-less inputs are read as UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range inputLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}

// FormatCoordinates returns latitude and longitude with hemisphere letters, e.g. "51.5000 N", "0.1000 W".
func FormatCoordinates(lat, lon float64) (string, string) {
	latDir := "N"
	if lat < 0 {
		latDir = "S"
	}
	lonDir := "E"
	if lon < 0 {
		lonDir = "W"
	}
	return fmt.Sprintf("%.4f %s", math.Abs(lat), latDir), fmt.Sprintf("%.4f %s", math.Abs(lon), lonDir)
}

func FormatSpeed(knots float64) string {
	return fmt.Sprintf("%.1f knots", knots)
}

func FormatCourse(degrees float64) string {
	return fmt.Sprintf("%.1f deg", degrees)
}

// FormatMMSI groups a valid MMSI as "235 103 357". ok is false for anything that is not 9 digits.
func FormatMMSI(mmsi string) (string, bool) {
	clean := models.DigitsOnly(mmsi)
	if len(clean) != 9 {
		return mmsi, false
	}
	return clean[:3] + " " + clean[3:6] + " " + clean[6:], true
}

// FormatAge renders a duration coarsely for status lines, e.g. "42s", "12m", "3h05m".
func FormatAge(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d/time.Second))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d/time.Minute))
	default:
		return fmt.Sprintf("%dh%02dm", int(d/time.Hour), int(d%time.Hour/time.Minute))
	}
}

// Sanitize drops markup and non-printable characters, maps the rest to ASCII and truncates to max runes.
func Sanitize(s string, max int) string {
	s = tagPattern.ReplaceAllString(s, "")
	var b strings.Builder
	for _, r := range s {
		switch {
		case r < unicode.MaxASCII && unicode.IsPrint(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		case unicode.IsPrint(r):
			b.WriteRune('?')
		}
	}
	out := strings.TrimSpace(b.String())
	if max > 0 && len(out) > max {
		out = out[:max]
	}
	return out
}

// OrUnknown substitutes "Unknown" for blank values.
func OrUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "Unknown"
	}
	return s
}

// ErrorResponse is the structured error body for JSON endpoints.
type ErrorResponse struct {
	Error     string `json:"error"`
	Type      string `json:"type"`
	Timestamp string `json:"timestamp"`
	Status    string `json:"status"`
}

// kinded is implemented by errors that carry a classification, such as upstream failures.
type kinded interface {
	ErrorKind() string
}

// FormatErrorResponse builds the JSON error payload for err at time now.
func FormatErrorResponse(err error, now time.Time) ErrorResponse {
	resp := ErrorResponse{
		Error:     "unknown error",
		Type:      "internal",
		Timestamp: now.UTC().Format(time.RFC3339),
		Status:    "error",
	}
	if err == nil {
		return resp
	}

	resp.Error = err.Error()
	var k kinded
	if errors.As(err, &k) {
		resp.Type = k.ErrorKind()
	}
	return resp
}
