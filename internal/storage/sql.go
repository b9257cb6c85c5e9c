package storage

import (
	_ "embed"
)

//go:embed schema.sql
var schemaSQL string

// Indexes are created when the write connection closes, after bulk
// inserts have finished.
const initIndexesSQL = `
CREATE INDEX IF NOT EXISTS idx_telemetry_session ON telemetry (session_id, timestamp);
CREATE INDEX IF NOT EXISTS idx_images_session ON images (session_id, captured_at)`

const (
	insertSessionSQL = `
INSERT INTO sessions (
                      start_time,
                      telemetry_file,
                      image_dir,
                      config)
VALUES (CURRENT_TIMESTAMP, ?, ?, ?)`

	selectSessionSQL = `
SELECT
    id,
    start_time,
    telemetry_file,
    image_dir,
    config
FROM sessions
WHERE
    id = ?`

	selectSessionsSQL = `
SELECT
    id,
    start_time,
    telemetry_file,
    image_dir,
    config
FROM sessions
ORDER BY id`

	insertTelemetrySQL = `
INSERT INTO telemetry (session_id,
                       timestamp,
                       latitude,
                       longitude,
                       depth,
                       heading,
                       pitch,
                       roll)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	insertImageSQL = `
INSERT INTO images (session_id,
                    filename,
                    camera,
                    captured_at,
                    telemetry_id,
                    latitude_est,
                    longitude_est,
                    easting_est,
                    northing_est,
                    altitude_est,
                    heading_est,
                    pitch_est,
                    roll_est,
                    focal_length)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	selectTrackSQL = `
SELECT
    timestamp,
    latitude,
    longitude,
    depth
FROM telemetry
WHERE
    session_id = ?
    AND latitude IS NOT NULL
    AND longitude IS NOT NULL
ORDER BY timestamp`

	selectImagesSQL = `
SELECT
    filename,
    camera,
    captured_at,
    latitude_est,
    longitude_est,
    altitude_est
FROM images
WHERE
    session_id = ?
    AND latitude_est IS NOT NULL
    AND longitude_est IS NOT NULL
ORDER BY captured_at, filename`
)
