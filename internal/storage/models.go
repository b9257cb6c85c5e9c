package storage

import (
	"database/sql"
	"time"
)

// Session describes one archived geotagging run.
type Session struct {
	ID            int64
	StartTime     time.Time
	TelemetryFile string  // Path of the navigation export the run consumed
	ImageDir      string  // Path of the survey image directory
	Config        *string // Effective run configuration as JSON, if recorded
}

// TrackPoint is one positioned navigation fix from an archived run.
type TrackPoint struct {
	Timestamp time.Time
	Latitude  float64
	Longitude float64
	Depth     *float64 // Meters, negative below the surface
}

// ImagePoint is one positioned image from an archived run.
type ImagePoint struct {
	Filename  string
	Camera    string
	Captured  time.Time
	Latitude  float64
	Longitude float64
	Altitude  *float64 // Meters, negative below the surface
}

type telemetryRow struct {
	SessionID int64
	Timestamp time.Time
	Latitude  sql.NullFloat64
	Longitude sql.NullFloat64
	Depth     sql.NullFloat64
	Heading   sql.NullFloat64
	Pitch     sql.NullFloat64
	Roll      sql.NullFloat64
}

type imageRow struct {
	SessionID   int64
	Filename    string
	Camera      string
	CapturedAt  time.Time
	TelemetryID sql.NullInt64
	Latitude    sql.NullFloat64
	Longitude   sql.NullFloat64
	Easting     sql.NullFloat64
	Northing    sql.NullFloat64
	Altitude    sql.NullFloat64
	Heading     sql.NullFloat64
	Pitch       float64
	Roll        sql.NullFloat64
	FocalLength sql.NullString
}
