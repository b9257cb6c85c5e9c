// Package imagery discovers survey captures on disk and prepares them
// for correlation against the vehicle's telemetry.
package imagery

import (
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rov-survey/geotag/internal/camera"

	// Decoders for every capture format the survey rigs produce, so
	// image.DecodeConfig can verify file contents.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// Record is one discovered capture awaiting correlation.
type Record struct {
	Filename string        // Base name within the survey directory
	Family   camera.Family // Camera family resolved from the name
	Captured time.Time     // Capture time parsed from the name, UTC
}

// Stats counts what a directory scan encountered.
type Stats struct {
	Entries  int // Directory entries examined
	Images   int // Entries that decoded as images
	Skipped  int // Entries rejected as non-images
	BadNames int // Images whose names carry no usable capture time
}

// imageExtensions lists the file extensions the capture formats use.
// Extension is a cheap pre-filter; content is still verified by
// decoding before a file counts as an image.
var imageExtensions = map[string]struct{}{
	".bmp":  {},
	".gif":  {},
	".jpeg": {},
	".jpg":  {},
	".png":  {},
	".tif":  {},
	".tiff": {},
}

type scanner struct {
	logger *slog.Logger
}

// Option configures a directory scan.
type Option func(*scanner)

// WithLogger sets the logger used to report skipped entries. Defaults
// to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *scanner) {
		s.logger = logger
	}
}

// Scan walks the top level of dir and returns a record for every image
// whose name carries a capture time, ordered by filename. Entries that
// are not images, or are images with undated names, are counted and
// skipped; only an unreadable directory is fatal.
func Scan(dir string, opts ...Option) ([]Record, Stats, error) {
	s := scanner{logger: slog.Default()}
	for _, opt := range opts {
		opt(&s)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("reading image directory: %w", err)
	}

	var (
		records []Record
		stats   Stats
	)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		stats.Entries++
		name := entry.Name()

		if !isImage(filepath.Join(dir, name)) {
			stats.Skipped++
			s.logger.Debug("skipping non-image entry", "file", name)
			continue
		}
		stats.Images++

		fam := camera.Classify(name)
		captured, err := camera.ParseTimestamp(name, fam)
		if err != nil {
			stats.BadNames++
			s.logger.Warn("image name carries no capture time", "file", name, "error", err)
			continue
		}

		records = append(records, Record{
			Filename: name,
			Family:   fam,
			Captured: captured,
		})
	}

	return records, stats, nil
}

// isImage reports whether path has a capture format extension and its
// contents decode as that format's header.
func isImage(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if _, ok := imageExtensions[ext]; !ok {
		return false
	}

	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	if _, _, err := image.DecodeConfig(f); err != nil {
		return false
	}

	return true
}
