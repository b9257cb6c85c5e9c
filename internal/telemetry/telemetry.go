package telemetry

import (
	"time"
)

// Sample is a single timestamped navigation reading from the vehicle's
// telemetry stream. All fields except the timestamp are optional: a nil
// pointer means the sensor had no value on that row.
type Sample struct {
	Timestamp time.Time `json:"timestamp"`           // Time of the navigation fix, UTC
	Latitude  *float64  `json:"latitude,omitempty"`  // Latitude in decimal degrees (WGS84)
	Longitude *float64  `json:"longitude,omitempty"` // Longitude in decimal degrees (WGS84)
	Depth     *float64  `json:"depth,omitempty"`     // Depth in meters, negative below the surface
	Heading   *float64  `json:"heading,omitempty"`   // Heading in degrees from true north
	Pitch     *float64  `json:"pitch,omitempty"`     // Vehicle pitch angle in degrees, bow-up positive
	Roll      *float64  `json:"roll,omitempty"`      // Vehicle roll angle in degrees
}
