// Package flightlog serializes correlated survey images into the
// flight log consumed by downstream photogrammetry, and into KML for
// eyeballing a run in a map viewer.
package flightlog

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/rov-survey/geotag/internal/correlate"
)

// ErrOutputExists is returned when the log path already holds a file.
// Logs from earlier runs are never overwritten.
var ErrOutputExists = errors.New("output file already exists")

// CoordinateSystem selects which coordinate pair a flight log carries.
type CoordinateSystem int

const (
	// Geographic logs latitude and longitude in decimal degrees.
	Geographic CoordinateSystem = iota
	// Projected logs easting and northing in meters.
	Projected
)

func (s CoordinateSystem) String() string {
	if s == Projected {
		return "projected"
	}
	return "geographic"
}

// Field order matches what the photogrammetry import expects; only the
// coordinate pair differs between the two systems.
const (
	geographicHeader = "FILENAME;LAT_EST;LONG_EST;ALTITUDE_EST;HEADING_EST;PITCH_EST;ROLL_EST;FOCAL_LENGTH"
	projectedHeader  = "FILENAME;EASTING_EST;NORTHING_EST;ALTITUDE_EST;HEADING_EST;PITCH_EST;ROLL_EST;FOCAL_LENGTH"
)

// Create opens path for writing a new flight log. It fails with
// ErrOutputExists rather than clobbering an earlier run's output.
func Create(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("%w: %s", ErrOutputExists, path)
		}
		return nil, fmt.Errorf("creating output file: %w", err)
	}

	return f, nil
}

// Stats counts what a log write emitted and suppressed.
type Stats struct {
	Written    int // Lines written, header not included
	Duplicates int // Lines suppressed as byte-identical to an earlier line
	NoPosition int // Records skipped for missing the system's coordinate pair
}

// WriteLog writes the semicolon-separated flight log for the placed
// images, in input order. Records without the chosen system's
// coordinate pair are skipped and counted. Repeated identical lines,
// which bursts of captures against the same fix produce, are written
// once.
func WriteLog(w io.Writer, placed []correlate.PlacedImage, system CoordinateSystem) (Stats, error) {
	bw := bufio.NewWriter(w)

	header := geographicHeader
	if system == Projected {
		header = projectedHeader
	}
	if _, err := bw.WriteString(header + "\n"); err != nil {
		return Stats{}, fmt.Errorf("writing flight log: %w", err)
	}

	var stats Stats
	seen := make(map[string]struct{}, len(placed))
	for _, img := range placed {
		line, ok := logLine(img, system)
		if !ok {
			stats.NoPosition++
			continue
		}
		if _, dup := seen[line]; dup {
			stats.Duplicates++
			continue
		}
		seen[line] = struct{}{}

		if _, err := bw.WriteString(line + "\n"); err != nil {
			return Stats{}, fmt.Errorf("writing flight log: %w", err)
		}
		stats.Written++
	}

	if err := bw.Flush(); err != nil {
		return Stats{}, fmt.Errorf("writing flight log: %w", err)
	}

	return stats, nil
}

func logLine(img correlate.PlacedImage, system CoordinateSystem) (string, bool) {
	var x, y *float64
	switch system {
	case Projected:
		x, y = img.Pose.Easting, img.Pose.Northing
	default:
		x, y = img.Pose.Latitude, img.Pose.Longitude
	}
	if x == nil || y == nil {
		return "", false
	}

	fields := []string{
		img.Record.Filename,
		formatFloat(*x),
		formatFloat(*y),
		formatOptional(img.Pose.Altitude),
		formatOptional(img.Pose.Heading),
		formatFloat(img.Pose.Pitch),
		formatOptional(img.Pose.Roll),
		img.Profile.FocalLength,
	}

	return strings.Join(fields, ";"), true
}

// formatFloat renders a value with no fixed precision, so telemetry
// passes through digit-for-digit instead of gaining rounding noise.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}
