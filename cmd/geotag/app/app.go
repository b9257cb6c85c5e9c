package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/rov-survey/geotag/internal/camera"
	"github.com/rov-survey/geotag/internal/correlate"
	"github.com/rov-survey/geotag/internal/flightlog"
	"github.com/rov-survey/geotag/internal/imagery"
	"github.com/rov-survey/geotag/internal/storage"
	"github.com/rov-survey/geotag/internal/telemetry"
)

func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
	samples, err := readTelemetry(config)
	if err != nil {
		return err
	}

	logger.Info("telemetry loaded",
		slog.String("file", config.TelemetryPath),
		slog.String("samples", humanize.Comma(int64(len(samples)))),
		slog.String("firstRow", samples[0].Timestamp.Format(time.DateTime)),
		slog.String("lastRow", samples[len(samples)-1].Timestamp.Format(time.DateTime)),
	)

	records, scanStats, err := imagery.Scan(config.ImageDir, imagery.WithLogger(logger))
	if err != nil {
		return err
	}

	logger.Info("images discovered",
		slog.Group("scan",
			slog.Int("entries", scanStats.Entries),
			slog.Int("images", scanStats.Images),
			slog.Int("skipped", scanStats.Skipped),
			slog.Int("badNames", scanStats.BadNames),
		))

	opts := []correlate.Option{
		correlate.WithTolerance(config.Tolerance),
		correlate.WithLogger(logger),
	}
	if config.Zone != nil {
		opts = append(opts, correlate.WithProjector(*config.Zone))

		logger.Info("projecting coordinates",
			slog.String("zone", config.Zone.String()),
			slog.Float64("centralMeridian", config.Zone.CentralMeridian()),
		)
	}

	engine, err := correlate.New(samples, config.Profiles, opts...)
	if err != nil {
		return err
	}

	placed, stats, err := engine.Run(ctx, records)
	if err != nil {
		return err
	}

	logger.Info("correlation finished",
		slog.Group("stats",
			slog.String("images", humanize.Comma(int64(stats.Images))),
			slog.String("matched", humanize.Comma(int64(stats.Matched))),
			slog.String("unmatched", humanize.Comma(int64(stats.Unmatched))),
			slog.Int("unprojected", stats.Unprojected),
		))

	if config.LogPath != "" {
		if err = writeFlightLog(config, placed, logger); err != nil {
			return err
		}
	}

	if config.KMLPath != "" {
		if err = writeKML(config, placed, logger); err != nil {
			return err
		}
	}

	if config.DBPath != "" {
		if err = archiveRun(ctx, config, samples, placed, logger); err != nil {
			return err
		}
	}

	return nil
}

func readTelemetry(config *Config) (samples []telemetry.Sample, err error) {
	f, err := os.Open(config.TelemetryPath)
	if err != nil {
		return nil, fmt.Errorf("opening telemetry file: %w", err)
	}
	defer func() {
		if cErr := f.Close(); cErr != nil && err == nil {
			err = fmt.Errorf("closing telemetry file: %w", cErr)
		}
	}()

	samples, err = telemetry.ReadSamples(f, config.Columns, telemetry.WithDelimiter(config.Delimiter))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", config.TelemetryPath, err)
	}

	return samples, nil
}

func writeFlightLog(config *Config, placed []correlate.PlacedImage, logger *slog.Logger) (err error) {
	system := flightlog.Geographic
	if config.Zone != nil {
		system = flightlog.Projected
	}

	f, err := flightlog.Create(config.LogPath)
	if err != nil {
		return err
	}
	defer func() {
		if cErr := f.Close(); cErr != nil && err == nil {
			err = fmt.Errorf("closing flight log: %w", cErr)
		}
	}()

	stats, err := flightlog.WriteLog(f, placed, system)
	if err != nil {
		return err
	}

	logger.Info("flight log written",
		slog.String("destination", config.LogPath),
		slog.String("system", system.String()),
		slog.Group("lines",
			slog.String("written", humanize.Comma(int64(stats.Written))),
			slog.Int("duplicates", stats.Duplicates),
			slog.Int("noPosition", stats.NoPosition),
		))

	return nil
}

func writeKML(config *Config, placed []correlate.PlacedImage, logger *slog.Logger) (err error) {
	f, err := flightlog.Create(config.KMLPath)
	if err != nil {
		return err
	}
	defer func() {
		if cErr := f.Close(); cErr != nil && err == nil {
			err = fmt.Errorf("closing KML file: %w", cErr)
		}
	}()

	count, err := flightlog.WriteKML(f, placed)
	if err != nil {
		return err
	}

	logger.Info("KML written",
		slog.String("destination", config.KMLPath),
		slog.String("placemarks", humanize.Comma(int64(count))),
	)

	return nil
}

// sessionConfig is the run configuration snapshot archived alongside a
// session for later inspection.
type sessionConfig struct {
	Zone      string                    `json:"zone,omitempty"`
	Tolerance TimeDuration              `json:"tolerance"`
	Delimiter string                    `json:"delimiter"`
	Columns   telemetry.Columns         `json:"columns"`
	Cameras   map[string]camera.Profile `json:"cameras"`
}

func newSessionConfig(config *Config) *sessionConfig {
	sc := sessionConfig{
		Tolerance: TimeDuration(config.Tolerance),
		Delimiter: string(config.Delimiter),
		Columns:   config.Columns,
		Cameras:   make(map[string]camera.Profile, len(config.Profiles)),
	}
	if config.Zone != nil {
		sc.Zone = config.Zone.String()
	}
	for fam, profile := range config.Profiles {
		sc.Cameras[fam.String()] = profile
	}

	return &sc
}

func archiveRun(ctx context.Context, config *Config, samples []telemetry.Sample, placed []correlate.PlacedImage, logger *slog.Logger) (err error) {
	store := storage.New(config.DBPath)
	defer func() {
		if cErr := store.Close(); cErr != nil && err == nil {
			err = fmt.Errorf("closing archive: %w", cErr)
		}
	}()

	sessionID, err := store.CreateSession(ctx, config.TelemetryPath, config.ImageDir, newSessionConfig(config))
	if err != nil {
		return err
	}

	ids, err := store.StoreTelemetry(ctx, sessionID, samples)
	if err != nil {
		return err
	}

	if err = store.StoreImages(ctx, sessionID, placed, ids); err != nil {
		return err
	}

	logger.Info("run archived",
		slog.String("database", config.DBPath),
		slog.Int64("session", sessionID),
		slog.String("telemetryRows", humanize.Comma(int64(len(ids)))),
		slog.String("imageRows", humanize.Comma(int64(len(placed)))),
	)

	return nil
}
