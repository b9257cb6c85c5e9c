package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrNoSession is returned when a session ID is not in the archive.
var ErrNoSession = errors.New("session not found")

// Session returns an archived session by its ID.
func (s *Store) Session(ctx context.Context, id int64) (session *Session, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	stmt, err := db.PrepareContext(ctx, selectSessionSQL)
	if err != nil {
		err = fmt.Errorf("preparing statement: %w", err)
		return
	}
	defer closeWithError(stmt, &err)

	var sess Session
	var config sql.NullString
	if err = stmt.QueryRowContext(ctx, id).Scan(&sess.ID, &sess.StartTime, &sess.TelemetryFile, &sess.ImageDir, &config); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = fmt.Errorf("%w: %d", ErrNoSession, id)
			return
		}
		err = fmt.Errorf("scanning session: %w", err)
		return
	}
	if config.Valid {
		sess.Config = &config.String
	}

	return &sess, nil
}

// Sessions returns every archived session, oldest first.
func (s *Store) Sessions(ctx context.Context) (sessions []*Session, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	rows, err := db.QueryContext(ctx, selectSessionsSQL)
	if err != nil {
		err = fmt.Errorf("querying sessions: %w", err)
		return
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var sess Session
		var config sql.NullString
		if err = rows.Scan(&sess.ID, &sess.StartTime, &sess.TelemetryFile, &sess.ImageDir, &config); err != nil {
			err = fmt.Errorf("scanning session: %w", err)
			return
		}
		if config.Valid {
			sess.Config = &config.String
		}
		sessions = append(sessions, &sess)
	}
	err = rows.Err()
	return
}

// ReadTrack returns a session's positioned navigation fixes in time
// order. Fixes without a latitude and longitude are left out; they
// cannot be drawn.
func (s *Store) ReadTrack(ctx context.Context, sessionID int64) (track []TrackPoint, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	rows, err := db.QueryContext(ctx, selectTrackSQL, sessionID)
	if err != nil {
		err = fmt.Errorf("querying track: %w", err)
		return
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var point TrackPoint
		var depth sql.NullFloat64
		if err = rows.Scan(&point.Timestamp, &point.Latitude, &point.Longitude, &depth); err != nil {
			err = fmt.Errorf("scanning track point: %w", err)
			return
		}
		point.Depth = fromNullFloat(depth)
		track = append(track, point)
	}
	err = rows.Err()
	return
}

// ReadImages returns a session's positioned images ordered by capture
// time.
func (s *Store) ReadImages(ctx context.Context, sessionID int64) (images []ImagePoint, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	rows, err := db.QueryContext(ctx, selectImagesSQL, sessionID)
	if err != nil {
		err = fmt.Errorf("querying images: %w", err)
		return
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var img ImagePoint
		var altitude sql.NullFloat64
		if err = rows.Scan(&img.Filename, &img.Camera, &img.Captured, &img.Latitude, &img.Longitude, &altitude); err != nil {
			err = fmt.Errorf("scanning image point: %w", err)
			return
		}
		img.Altitude = fromNullFloat(altitude)
		images = append(images, img)
	}
	err = rows.Err()
	return
}
