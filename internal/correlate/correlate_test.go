package correlate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rov-survey/geotag/internal/camera"
	"github.com/rov-survey/geotag/internal/imagery"
	"github.com/rov-survey/geotag/internal/telemetry"
)

func f(v float64) *float64 {
	return &v
}

func at(second int) time.Time {
	return time.Date(2021, 10, 5, 6, 12, second, 0, time.UTC)
}

func TestMatch(t *testing.T) {
	samples := []telemetry.Sample{
		{Timestamp: at(10)},
		{Timestamp: at(12)},
		{Timestamp: at(14)},
		{Timestamp: at(20)},
	}

	tests := []struct {
		name       string
		ts         time.Time
		tol        time.Duration
		wantOK     bool
		wantSample time.Time
		wantOffset time.Duration
	}{
		{
			name:       "exact hit",
			ts:         at(12),
			tol:        2 * time.Second,
			wantOK:     true,
			wantSample: at(12),
			wantOffset: 0,
		},
		{
			name:       "nearest before",
			ts:         time.Date(2021, 10, 5, 6, 12, 14, 700e6, time.UTC),
			tol:        2 * time.Second,
			wantOK:     true,
			wantSample: at(14),
			wantOffset: 700 * time.Millisecond,
		},
		{
			name:       "nearest after",
			ts:         time.Date(2021, 10, 5, 6, 12, 19, 200e6, time.UTC),
			tol:        2 * time.Second,
			wantOK:     true,
			wantSample: at(20),
			wantOffset: 800 * time.Millisecond,
		},
		{
			name:   "out of tolerance",
			ts:     at(17),
			tol:    time.Second,
			wantOK: false,
		},
		{
			name:       "exactly at tolerance",
			ts:         at(16),
			tol:        2 * time.Second,
			wantOK:     true,
			wantSample: at(14),
			wantOffset: 2 * time.Second,
		},
		{
			name:       "equidistant keeps earlier sample",
			ts:         at(13),
			tol:        2 * time.Second,
			wantOK:     true,
			wantSample: at(12),
			wantOffset: time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sample, offset, ok := Match(tt.ts, samples, tt.tol)
			if ok != tt.wantOK {
				t.Fatalf("Match() ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if !sample.Timestamp.Equal(tt.wantSample) {
				t.Errorf("Match() sample at %v, want %v", sample.Timestamp, tt.wantSample)
			}
			if offset != tt.wantOffset {
				t.Errorf("Match() offset = %v, want %v", offset, tt.wantOffset)
			}
		})
	}
}

func TestMatchUnorderedStream(t *testing.T) {
	// Streams are used as loaded; order in the file is not assumed.
	samples := []telemetry.Sample{
		{Timestamp: at(20), Latitude: f(1)},
		{Timestamp: at(10), Latitude: f(2)},
		{Timestamp: at(15), Latitude: f(3)},
	}

	sample, _, ok := Match(at(11), samples, 2*time.Second)
	if !ok {
		t.Fatal("Match() ok = false, want true")
	}
	if *sample.Latitude != 2 {
		t.Errorf("Match() picked sample with Latitude %v, want 2", *sample.Latitude)
	}
}

func TestMatchDuplicateTimestamps(t *testing.T) {
	samples := []telemetry.Sample{
		{Timestamp: at(12), Latitude: f(1)},
		{Timestamp: at(12), Latitude: f(2)},
	}

	sample, _, ok := Match(at(12), samples, time.Second)
	if !ok {
		t.Fatal("Match() ok = false, want true")
	}
	if *sample.Latitude != 1 {
		t.Errorf("Match() picked Latitude %v, want first loaded sample", *sample.Latitude)
	}
}

func TestMatchEmptyStream(t *testing.T) {
	if _, _, ok := Match(at(0), nil, time.Second); ok {
		t.Error("Match() ok = true on empty stream")
	}
}

type fakeProjector struct {
	err error
}

func (p fakeProjector) Project(latitude, longitude float64) (float64, float64, error) {
	if p.err != nil {
		return 0, 0, p.err
	}
	return longitude * 1000, latitude * 1000, nil
}

func TestEstimate(t *testing.T) {
	sample := &telemetry.Sample{
		Timestamp: at(12),
		Latitude:  f(-42.5),
		Longitude: f(147.25),
		Depth:     f(-18.4),
		Heading:   f(103.2),
		Pitch:     f(1.5),
		Roll:      f(-0.7),
	}
	profile := camera.Profile{PitchOffset: -90, FocalLength: "8.8mm"}

	pose, err := Estimate(sample, profile, nil)
	if err != nil {
		t.Fatalf("Estimate() error = %v", err)
	}

	if pose.Latitude == nil || *pose.Latitude != -42.5 {
		t.Errorf("Latitude = %v, want -42.5", pose.Latitude)
	}
	if pose.Altitude == nil || *pose.Altitude != -18.4 {
		t.Errorf("Altitude = %v, want -18.4", pose.Altitude)
	}
	if pose.Pitch != -88.5 {
		t.Errorf("Pitch = %v, want -88.5 (offset -90 plus vehicle 1.5)", pose.Pitch)
	}
	if pose.Roll == nil || *pose.Roll != -0.7 {
		t.Errorf("Roll = %v, want -0.7", pose.Roll)
	}
	if pose.Easting != nil || pose.Northing != nil {
		t.Error("no projector given, easting/northing must stay nil")
	}
}

func TestEstimateNoVehiclePitch(t *testing.T) {
	sample := &telemetry.Sample{Timestamp: at(12)}
	profile := camera.Profile{PitchOffset: -45}

	pose, err := Estimate(sample, profile, nil)
	if err != nil {
		t.Fatalf("Estimate() error = %v", err)
	}

	if pose.Pitch != -45 {
		t.Errorf("Pitch = %v, want mounting offset -45 alone", pose.Pitch)
	}
	if pose.Latitude != nil || pose.Heading != nil || pose.Roll != nil {
		t.Error("absent telemetry fields must stay nil in the pose")
	}
}

func TestEstimateProjection(t *testing.T) {
	sample := &telemetry.Sample{
		Timestamp: at(12),
		Latitude:  f(-42.5),
		Longitude: f(147.25),
	}

	pose, err := Estimate(sample, camera.Profile{}, fakeProjector{})
	if err != nil {
		t.Fatalf("Estimate() error = %v", err)
	}

	if pose.Easting == nil || *pose.Easting != 147250 {
		t.Errorf("Easting = %v, want 147250", pose.Easting)
	}
	if pose.Northing == nil || *pose.Northing != -42500 {
		t.Errorf("Northing = %v, want -42500", pose.Northing)
	}
}

func TestEstimateProjectionWithoutFix(t *testing.T) {
	sample := &telemetry.Sample{Timestamp: at(12), Depth: f(-3)}

	pose, err := Estimate(sample, camera.Profile{}, fakeProjector{})
	if err != nil {
		t.Fatalf("Estimate() error = %v", err)
	}

	if pose.Easting != nil || pose.Northing != nil {
		t.Error("no fix to project, easting/northing must stay nil")
	}
	if pose.Altitude == nil || *pose.Altitude != -3 {
		t.Errorf("Altitude = %v, want -3", pose.Altitude)
	}
}

func TestEstimateProjectionError(t *testing.T) {
	wantErr := errors.New("bad latitude")
	sample := &telemetry.Sample{
		Timestamp: at(12),
		Latitude:  f(89),
		Longitude: f(0),
	}

	pose, err := Estimate(sample, camera.Profile{}, fakeProjector{err: wantErr})
	if !errors.Is(err, wantErr) {
		t.Fatalf("Estimate() error = %v, want %v", err, wantErr)
	}

	if pose.Easting != nil || pose.Northing != nil {
		t.Error("failed projection must leave easting/northing nil")
	}
	if pose.Latitude == nil {
		t.Error("failed projection must keep the geographic pose")
	}
}

func newTestEngine(t *testing.T, samples []telemetry.Sample, opts ...Option) *Engine {
	t.Helper()

	engine, err := New(samples, camera.DefaultProfiles(), opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return engine
}

func TestEngineRun(t *testing.T) {
	samples := []telemetry.Sample{
		{Timestamp: at(10), Latitude: f(-42.51), Longitude: f(147.21), Depth: f(-17), Pitch: f(1)},
		{Timestamp: at(12), Latitude: f(-42.52), Longitude: f(147.22), Depth: f(-18), Pitch: f(2)},
		{Timestamp: at(14), Latitude: f(-42.53), Longitude: f(147.23), Depth: f(-19), Pitch: f(3)},
	}

	records := []imagery.Record{
		{Filename: "A_20211005061211_1.png", Family: camera.FamilyA, Captured: at(11)},
		{Filename: "B_20211005061214_2.png", Family: camera.FamilyB, Captured: at(14)},
		{Filename: "A_20211005061230_3.png", Family: camera.FamilyA, Captured: at(30)},
	}

	engine := newTestEngine(t, samples)

	placed, stats, err := engine.Run(context.Background(), records)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if stats.Images != 3 || stats.Matched != 2 || stats.Unmatched != 1 {
		t.Errorf("stats = %+v, want 3 images, 2 matched, 1 unmatched", stats)
	}
	if len(placed) != 2 {
		t.Fatalf("Run() placed %d images, want 2", len(placed))
	}

	first := placed[0]
	if first.Record.Filename != "A_20211005061211_1.png" {
		t.Errorf("placed[0] = %s, record order not preserved", first.Record.Filename)
	}
	if first.SampleRow != 0 {
		t.Errorf("placed[0].SampleRow = %d, want 0", first.SampleRow)
	}
	if first.Offset != time.Second {
		t.Errorf("placed[0].Offset = %v, want 1s", first.Offset)
	}
	if first.Pose.Pitch != -89 {
		t.Errorf("placed[0].Pose.Pitch = %v, want -89", first.Pose.Pitch)
	}
	if first.Profile.FocalLength != "8.8mm" {
		t.Errorf("placed[0].Profile.FocalLength = %q, want 8.8mm", first.Profile.FocalLength)
	}

	second := placed[1]
	if second.SampleRow != 2 {
		t.Errorf("placed[1].SampleRow = %d, want 2", second.SampleRow)
	}
	if second.Pose.Pitch != -42 {
		t.Errorf("placed[1].Pose.Pitch = %v, want -42 (offset -45 plus vehicle 3)", second.Pose.Pitch)
	}
	if second.Pose.Easting != nil {
		t.Error("no projector configured, easting must stay nil")
	}
}

func TestEngineRunProjected(t *testing.T) {
	samples := []telemetry.Sample{
		{Timestamp: at(10), Latitude: f(-42.5), Longitude: f(147.2)},
	}
	records := []imagery.Record{
		{Filename: "A_20211005061210_1.png", Family: camera.FamilyA, Captured: at(10)},
	}

	engine := newTestEngine(t, samples, WithProjector(fakeProjector{}))

	placed, _, err := engine.Run(context.Background(), records)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if placed[0].Pose.Easting == nil || *placed[0].Pose.Easting != 147200 {
		t.Errorf("Easting = %v, want 147200", placed[0].Pose.Easting)
	}
}

func TestEngineRunProjectionFailure(t *testing.T) {
	samples := []telemetry.Sample{
		{Timestamp: at(10), Latitude: f(-89), Longitude: f(147.2)},
	}
	records := []imagery.Record{
		{Filename: "A_20211005061210_1.png", Family: camera.FamilyA, Captured: at(10)},
	}

	engine := newTestEngine(t, samples, WithProjector(fakeProjector{err: errors.New("out of range")}))

	placed, stats, err := engine.Run(context.Background(), records)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if stats.Matched != 1 || stats.Unprojected != 1 {
		t.Errorf("stats = %+v, want 1 matched, 1 unprojected", stats)
	}
	if len(placed) != 1 {
		t.Fatalf("Run() placed %d images, want 1; projection failure must not drop the image", len(placed))
	}
	if placed[0].Pose.Latitude == nil || placed[0].Pose.Easting != nil {
		t.Error("failed projection must keep the geographic pose only")
	}
}

func TestEngineRunTolerance(t *testing.T) {
	samples := []telemetry.Sample{{Timestamp: at(10)}}
	records := []imagery.Record{
		{Filename: "A_20211005061215_1.png", Family: camera.FamilyA, Captured: at(15)},
	}

	engine := newTestEngine(t, samples, WithTolerance(10*time.Second))

	placed, stats, err := engine.Run(context.Background(), records)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if stats.Matched != 1 || len(placed) != 1 {
		t.Errorf("widened tolerance should match: stats = %+v", stats)
	}
}

func TestEngineRunCanceled(t *testing.T) {
	engine := newTestEngine(t, []telemetry.Sample{{Timestamp: at(10)}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	records := []imagery.Record{{Filename: "A_20211005061210_1.png", Captured: at(10)}}
	if _, _, err := engine.Run(ctx, records); !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
}

func TestNewValidation(t *testing.T) {
	samples := []telemetry.Sample{{Timestamp: at(10)}}

	if _, err := New(nil, camera.DefaultProfiles()); !errors.Is(err, ErrNoSamples) {
		t.Errorf("New(nil samples) error = %v, want ErrNoSamples", err)
	}

	if _, err := New(samples, camera.DefaultProfiles(), WithTolerance(0)); !errors.Is(err, ErrBadTolerance) {
		t.Errorf("New(zero tolerance) error = %v, want ErrBadTolerance", err)
	}

	if _, err := New(samples, camera.Profiles{}); !errors.Is(err, camera.ErrUnknownFamily) {
		t.Errorf("New(empty profiles) error = %v, want ErrUnknownFamily", err)
	}
}
