package storage

import (
	"database/sql"
	"errors"

	"github.com/rov-survey/geotag/internal/correlate"
	"github.com/rov-survey/geotag/internal/telemetry"
)

func closeWithError(cl interface{ Close() error }, err *error) {
	if cErr := cl.Close(); cErr != nil && *err == nil {
		*err = cErr
	}
}

// rollbackWithError is deferred around write transactions; after a
// successful commit the rollback is a no-op.
func rollbackWithError(tx *sql.Tx, err *error) {
	if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) && *err == nil {
		*err = rbErr
	}
}

func toNullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func fromNullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func toNullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func toTelemetryRow(sessionID int64, s *telemetry.Sample) *telemetryRow {
	return &telemetryRow{
		SessionID: sessionID,
		Timestamp: s.Timestamp.UTC(),
		Latitude:  toNullFloat(s.Latitude),
		Longitude: toNullFloat(s.Longitude),
		Depth:     toNullFloat(s.Depth),
		Heading:   toNullFloat(s.Heading),
		Pitch:     toNullFloat(s.Pitch),
		Roll:      toNullFloat(s.Roll),
	}
}

func toImageRow(sessionID int64, img *correlate.PlacedImage, telemetryID int64) *imageRow {
	var tmID sql.NullInt64
	if telemetryID > 0 {
		tmID.Int64 = telemetryID
		tmID.Valid = true
	}

	return &imageRow{
		SessionID:   sessionID,
		Filename:    img.Record.Filename,
		Camera:      img.Record.Family.String(),
		CapturedAt:  img.Record.Captured.UTC(),
		TelemetryID: tmID,
		Latitude:    toNullFloat(img.Pose.Latitude),
		Longitude:   toNullFloat(img.Pose.Longitude),
		Easting:     toNullFloat(img.Pose.Easting),
		Northing:    toNullFloat(img.Pose.Northing),
		Altitude:    toNullFloat(img.Pose.Altitude),
		Heading:     toNullFloat(img.Pose.Heading),
		Pitch:       img.Pose.Pitch,
		Roll:        toNullFloat(img.Pose.Roll),
		FocalLength: toNullString(img.Profile.FocalLength),
	}
}
