// Package storage archives geotagging runs in a SQLite database: the
// telemetry stream as loaded, every placed image with its pose, and a
// session row tying them to the inputs that produced them. Archives
// accumulate sessions, so one database can hold a whole campaign.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rov-survey/geotag/internal/correlate"
	"github.com/rov-survey/geotag/internal/telemetry"
)

// Store handles archive database operations. Writes and reads use
// separate connections so a render can read an archive another process
// is still writing.
type Store struct {
	dbPath string

	writeDB     *sql.DB
	writeDBOnce sync.Once
	writeDBErr  error

	readDB     *sql.DB
	readDBOnce sync.Once
	readDBErr  error

	closeOnce sync.Once
	closeErr  error
}

// New returns a store backed by the database at dbPath. Connections are
// opened lazily; the schema is initialized on first write.
func New(dbPath string) *Store {
	return &Store{dbPath: dbPath}
}

func runSQLCommand(db *sql.DB, sql string) error {
	_, err := db.Exec(sql)
	return err
}

func (s *Store) getWriteDB() (*sql.DB, error) {
	s.writeDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", s.dbPath, "_journal_mode=WAL&_synchronous=NORMAL"))
		if err != nil {
			s.writeDBErr = fmt.Errorf("opening write connection: %w", err)
			return
		}

		if err = runSQLCommand(db, schemaSQL); err != nil {
			_ = db.Close()
			s.writeDBErr = fmt.Errorf("initializing schema: %w", err)
			return
		}

		s.writeDB = db
	})

	return s.writeDB, s.writeDBErr
}

func (s *Store) getReadDB() (*sql.DB, error) {
	s.readDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", s.dbPath, "mode=ro"))
		if err != nil {
			s.readDBErr = fmt.Errorf("opening read connection: %w", err)
			return
		}
		s.readDB = db
	})

	return s.readDB, s.readDBErr
}

// CreateSession records a new run against its input paths and returns
// the session ID. config may be a string, []byte or any JSON
// serializable value; it is stored verbatim for later inspection.
func (s *Store) CreateSession(ctx context.Context, telemetryFile, imageDir string, config any) (sessionID int64, err error) {
	var configData sql.NullString

	if config != nil {
		switch c := config.(type) {
		case string:
			configData.Valid = true
			configData.String = c

		case []byte:
			configData.Valid = true
			configData.String = string(c)

		default:
			var p []byte
			if p, err = json.Marshal(config); err != nil {
				err = fmt.Errorf("marshaling config: %w", err)
				return
			}

			configData.Valid = true
			configData.String = string(p)
		}
	}

	db, err := s.getWriteDB()
	if err != nil {
		err = fmt.Errorf("getting write connection: %w", err)
		return
	}

	stmt, err := db.PrepareContext(ctx, insertSessionSQL)
	if err != nil {
		err = fmt.Errorf("preparing statement: %w", err)
		return
	}
	defer closeWithError(stmt, &err)

	result, err := stmt.ExecContext(ctx, telemetryFile, imageDir, configData)
	if err != nil {
		err = fmt.Errorf("inserting session: %w", err)
		return
	}

	sessionID, err = result.LastInsertId()
	if err != nil {
		err = fmt.Errorf("getting session ID: %w", err)
	}
	return
}

// StoreTelemetry archives the telemetry stream for a session in one
// transaction and returns the row IDs in stream order, so image rows
// can reference their matched fix.
func (s *Store) StoreTelemetry(ctx context.Context, sessionID int64, samples []telemetry.Sample) (ids []int64, err error) {
	if len(samples) == 0 {
		return nil, nil
	}

	db, err := s.getWriteDB()
	if err != nil {
		return nil, fmt.Errorf("getting write connection: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer rollbackWithError(tx, &err)

	stmt, err := tx.PrepareContext(ctx, insertTelemetrySQL)
	if err != nil {
		return nil, fmt.Errorf("preparing statement: %w", err)
	}
	defer closeWithError(stmt, &err)

	ids = make([]int64, 0, len(samples))
	for i := range samples {
		data := toTelemetryRow(sessionID, &samples[i])

		result, err := stmt.ExecContext(
			ctx,
			data.SessionID,
			data.Timestamp,
			data.Latitude,
			data.Longitude,
			data.Depth,
			data.Heading,
			data.Pitch,
			data.Roll,
		)
		if err != nil {
			return nil, fmt.Errorf("inserting telemetry row %d: %w", i, err)
		}

		id, err := result.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("getting telemetry row ID: %w", err)
		}
		ids = append(ids, id)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}

	return ids, nil
}

// StoreImages archives the placed images for a session in one
// transaction. telemetryIDs must be the IDs returned by StoreTelemetry
// for the stream the images were correlated against; a nil slice
// archives the images without fix references.
func (s *Store) StoreImages(ctx context.Context, sessionID int64, placed []correlate.PlacedImage, telemetryIDs []int64) (err error) {
	if len(placed) == 0 {
		return nil
	}

	db, err := s.getWriteDB()
	if err != nil {
		return fmt.Errorf("getting write connection: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer rollbackWithError(tx, &err)

	stmt, err := tx.PrepareContext(ctx, insertImageSQL)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer closeWithError(stmt, &err)

	for i := range placed {
		img := &placed[i]

		var telemetryID int64
		if telemetryIDs != nil {
			if img.SampleRow < 0 || img.SampleRow >= len(telemetryIDs) {
				return fmt.Errorf("image %s references telemetry row %d of %d", img.Record.Filename, img.SampleRow, len(telemetryIDs))
			}
			telemetryID = telemetryIDs[img.SampleRow]
		}

		data := toImageRow(sessionID, img, telemetryID)

		_, err = stmt.ExecContext(
			ctx,
			data.SessionID,
			data.Filename,
			data.Camera,
			data.CapturedAt,
			data.TelemetryID,
			data.Latitude,
			data.Longitude,
			data.Easting,
			data.Northing,
			data.Altitude,
			data.Heading,
			data.Pitch,
			data.Roll,
			data.FocalLength,
		)
		if err != nil {
			return fmt.Errorf("inserting image %s: %w", img.Record.Filename, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

// Close closes both connections. Indexes are built on the write side
// first, after all bulk inserts are done.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		var writeErr, readErr error

		if s.writeDB != nil {
			_ = runSQLCommand(s.writeDB, initIndexesSQL)

			writeErr = s.writeDB.Close()
			s.writeDB = nil
		}

		if s.readDB != nil {
			readErr = s.readDB.Close()
			s.readDB = nil
		}

		switch {
		case writeErr != nil && readErr != nil:
			s.closeErr = errors.Join(writeErr, readErr)
		case writeErr != nil:
			s.closeErr = writeErr
		case readErr != nil:
			s.closeErr = readErr
		}
	})

	return s.closeErr
}
