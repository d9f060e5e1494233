package models

import (
	"time"

	"github.com/goccy/go-json"
)

// PositionRecord is one successfully parsed vessel fix. It is never mutated after construction.
type PositionRecord struct {
	VesselID      string    `json:"mmsi"`
	Latitude      float64   `json:"latitude"`
	Longitude     float64   `json:"longitude"`
	SpeedKnots    float64   `json:"speed_knots"`
	CourseDegrees float64   `json:"course_degrees"`
	ObservedAt    time.Time `json:"observed_at"`

	ShipName    string   `json:"ship_name"`
	IMO         string   `json:"imo,omitempty"`
	Destination string   `json:"destination,omitempty"`
	ETA         string   `json:"eta,omitempty"`
	Heading     *int     `json:"heading,omitempty"`
	Draught     *float64 `json:"draught,omitempty"`
	Zone        string   `json:"zone,omitempty"`
	Source      string   `json:"source,omitempty"`

	Raw json.RawMessage `json:"raw,omitempty"`
}

// VesselFinderEntry is one element of the VesselFinder /vessels response array.
type VesselFinderEntry struct {
	AIS json.RawMessage `json:"AIS"`
}

// VesselFinderAIS mirrors the AIS object. Required numeric fields are pointers so a missing
// field can be told apart from a zero value; optional ones are kept as text and parsed leniently.
type VesselFinderAIS struct {
	MMSI        FlexString  `json:"MMSI"`
	Timestamp   *FlexString `json:"TIMESTAMP"`
	Latitude    *FlexFloat  `json:"LATITUDE"`
	Longitude   *FlexFloat  `json:"LONGITUDE"`
	Course      *FlexFloat  `json:"COURSE"`
	Speed       *FlexFloat  `json:"SPEED"`
	Heading     FlexString  `json:"HEADING"`
	Name        FlexString  `json:"NAME"`
	IMO         FlexString  `json:"IMO"`
	Destination FlexString  `json:"DESTINATION"`
	ETA         FlexString  `json:"ETA"`
	Draught     FlexString  `json:"DRAUGHT"`
	Zone        FlexString  `json:"ZONE"`
	Source      FlexString  `json:"SRC"`
}

// VesselFinderError is the body VesselFinder returns instead of the array on a rejected call.
type VesselFinderError struct {
	Error string `json:"error"`
}
