// Package correlate pairs survey images with the vehicle telemetry
// recorded while they were taken, and derives a camera pose for every
// pair. Images are tied to telemetry purely by time: the capture time
// encoded in the image name against the timestamps of the navigation
// stream.
package correlate

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/rov-survey/geotag/internal/camera"
	"github.com/rov-survey/geotag/internal/imagery"
	"github.com/rov-survey/geotag/internal/telemetry"
)

var (
	// ErrNoSamples is returned when a correlation run is attempted
	// against an empty telemetry stream.
	ErrNoSamples = errors.New("no telemetry samples")

	// ErrBadTolerance is returned for a zero or negative match
	// tolerance.
	ErrBadTolerance = errors.New("match tolerance must be positive")
)

// PlacedImage is one capture with its correlation outcome: the matched
// telemetry, the camera's rigging profile and the derived pose.
type PlacedImage struct {
	Record    imagery.Record
	Sample    *telemetry.Sample // Matched navigation fix
	SampleRow int               // Zero-based row of the fix in the telemetry stream
	Offset    time.Duration     // Absolute time distance between capture and fix
	Profile   camera.Profile
	Pose      Pose
}

// Stats counts correlation outcomes for a run.
type Stats struct {
	Images      int // Records examined
	Matched     int // Records with an in-tolerance telemetry match
	Unmatched   int // Records dropped for want of close telemetry
	Unprojected int // Matched records whose fix would not project
}

// Engine correlates image records against one telemetry stream.
type Engine struct {
	samples   []telemetry.Sample
	profiles  camera.Profiles
	tolerance time.Duration
	projector Projector
	logger    *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithTolerance overrides the match tolerance, which defaults to
// DefaultTolerance.
func WithTolerance(tol time.Duration) Option {
	return func(e *Engine) {
		e.tolerance = tol
	}
}

// WithProjector makes the engine emit planar coordinates alongside the
// geographic ones.
func WithProjector(p Projector) Option {
	return func(e *Engine) {
		e.projector = p
	}
}

// WithLogger sets the logger used to report dropped records. Defaults
// to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New returns an engine correlating against the given telemetry stream.
// The stream must not be empty and the profiles must cover fallback
// lookups.
func New(samples []telemetry.Sample, profiles camera.Profiles, opts ...Option) (*Engine, error) {
	e := Engine{
		samples:   samples,
		profiles:  profiles,
		tolerance: DefaultTolerance,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(&e)
	}

	if len(samples) == 0 {
		return nil, ErrNoSamples
	}
	if e.tolerance <= 0 {
		return nil, ErrBadTolerance
	}
	if err := profiles.Validate(); err != nil {
		return nil, err
	}

	return &e, nil
}

// Run correlates every record and returns a placed image for each one
// with an in-tolerance match, preserving record order. Records without
// close telemetry are dropped and counted, never guessed at. A fix that
// fails to project keeps its geographic pose and is counted.
func (e *Engine) Run(ctx context.Context, records []imagery.Record) ([]PlacedImage, Stats, error) {
	placed := make([]PlacedImage, 0, len(records))
	stats := Stats{Images: len(records)}

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return nil, Stats{}, err
		}

		row, offset, ok := matchIndex(rec.Captured, e.samples, e.tolerance)
		if !ok {
			stats.Unmatched++
			e.logger.Debug("no telemetry within tolerance",
				"file", rec.Filename,
				"captured", rec.Captured,
			)
			continue
		}
		sample := &e.samples[row]

		profile, err := e.profiles.For(rec.Family)
		if err != nil {
			return nil, Stats{}, err
		}

		pose, err := Estimate(sample, profile, e.projector)
		if err != nil {
			stats.Unprojected++
			e.logger.Warn("fix did not project, keeping geographic pose",
				"file", rec.Filename,
				"error", err,
			)
		}

		stats.Matched++
		placed = append(placed, PlacedImage{
			Record:    rec,
			Sample:    sample,
			SampleRow: row,
			Offset:    offset,
			Profile:   profile,
			Pose:      pose,
		})
	}

	return placed, stats, nil
}
