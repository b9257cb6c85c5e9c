package app

import (
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"log/slog"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/rov-survey/geotag/internal/storage"
)

func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
	if _, err := os.Stat(config.DBPath); err != nil && os.IsNotExist(err) {
		return fmt.Errorf("database file '%s' does not exist: %w", config.DBPath, err)
	}

	store := storage.New(config.DBPath)
	defer store.Close()

	return renderTrackMap(ctx, store, config, logger)
}

func renderTrackMap(ctx context.Context, store *storage.Store, config *Config, logger *slog.Logger) error {
	session, err := store.Session(ctx, config.SessionID)
	if err != nil {
		return err
	}

	logger.Info("session loaded",
		slog.Int64("session", session.ID),
		slog.String("started", session.StartTime.Local().Format(time.DateTime)),
		slog.String("telemetry", session.TelemetryFile),
		slog.String("images", session.ImageDir),
	)

	points, err := store.ReadTrack(ctx, config.SessionID)
	if err != nil {
		return err
	}

	images, err := store.ReadImages(ctx, config.SessionID)
	if err != nil {
		return err
	}

	track := NewTrackData()
	for _, point := range points {
		track.Update(point)
	}
	for _, img := range images {
		track.AddImage(img)
	}

	if track.Empty() {
		return fmt.Errorf("session %d has no positioned fixes or images to draw", config.SessionID)
	}

	stats := []any{
		slog.String("fixes", humanize.Comma(int64(len(track.Points)))),
		slog.String("images", humanize.Comma(int64(len(track.Images)))),
	}
	if !track.TimestampStart.IsZero() {
		stats = append(stats,
			slog.String("minTimestamp", track.TimestampStart.Local().Format(time.DateTime)),
			slog.String("maxTimestamp", track.TimestampEnd.Local().Format(time.DateTime)))
	}
	if track.DepthTracker.Valid() {
		stats = append(stats,
			slog.String("minDepth", formatDepth(track.DepthTracker.Min)),
			slog.String("maxDepth", formatDepth(track.DepthTracker.Max)))
	}
	logger.Info("finished reading track", stats...)

	renderer, err := NewTrackRenderer(RenderConfig{
		ColorTheme:    config.Theme,
		Width:         config.Width,
		NoAnnotations: config.NoAnnotations,
	})
	if err != nil {
		return fmt.Errorf("creating track renderer: %w", err)
	}

	logger.Info("rendering track",
		slog.Group("image",
			slog.String("destination", config.OutputFile),
			slog.String("format", string(config.Format)),
			slog.String("theme", string(config.Theme)),
			slog.Int("width", config.Width),
		))

	img, err := renderer.Render(track)
	if err != nil {
		return fmt.Errorf("rendering track: %w", err)
	}

	return writeImage(img, config)
}

func writeImage(img *image.RGBA, config *Config) (err error) {
	out, err := os.Create(config.OutputFile)
	if err != nil {
		return err
	}
	defer func() {
		if cErr := out.Close(); cErr != nil && err == nil {
			err = fmt.Errorf("closing output file: %w", cErr)
		}
	}()

	switch config.Format {
	case ImagePNG:
		err = png.Encode(out, img)

	case ImageJPEG:
		err = jpeg.Encode(out, img, &jpeg.Options{
			Quality: 98,
		})
	}
	return err
}
