package app

import (
	"math"
	"time"

	"github.com/rov-survey/geotag/internal/storage"
)

// DepthBounds tracks the depth range seen so far, for normalizing
// depths into the color map. Depths are negative below the surface, so
// Min is the deepest reading and Max the shallowest.
type DepthBounds struct {
	Min float64 // Deepest reading in meters
	Max float64 // Shallowest reading in meters

	seen bool
}

func NewDepthBounds() *DepthBounds {
	return &DepthBounds{
		Min: math.MaxFloat64,
		Max: -math.MaxFloat64,
	}
}

// Update folds one depth reading into the bounds. Fixes without a
// depth are ignored.
func (b *DepthBounds) Update(depth *float64) {
	if depth == nil {
		return
	}

	b.Min = min(b.Min, *depth)
	b.Max = max(b.Max, *depth)
	b.seen = true
}

// Valid reports whether at least one depth reading has been seen.
func (b *DepthBounds) Valid() bool {
	return b.seen
}

// Current returns the depth range, widened to a minimum spread so a
// flat dive still maps onto a usable gradient.
func (b *DepthBounds) Current() (min, max float64) {
	if !b.seen {
		return 0, 0
	}

	if b.Max-b.Min < minDepthSpread {
		center := (b.Max + b.Min) / 2
		return center - minDepthSpread/2, center + minDepthSpread/2
	}
	return b.Min, b.Max
}

// minDepthSpread is the narrowest depth range the gradient is spread
// over, in meters.
const minDepthSpread = 1.0

type TrackData struct {
	LatMin, LatMax               float64
	LonMin, LonMax               float64
	TimestampStart, TimestampEnd time.Time
	DepthTracker                 *DepthBounds
	Points                       []storage.TrackPoint
	Images                       []storage.ImagePoint
}

func NewTrackData() *TrackData {
	return &TrackData{
		LatMin:       math.MaxFloat64,
		LatMax:       -math.MaxFloat64,
		LonMin:       math.MaxFloat64,
		LonMax:       -math.MaxFloat64,
		DepthTracker: NewDepthBounds(),
		Points:       make([]storage.TrackPoint, 0),
	}
}

func (t *TrackData) Update(point storage.TrackPoint) {
	t.LatMin = min(t.LatMin, point.Latitude)
	t.LatMax = max(t.LatMax, point.Latitude)
	t.LonMin = min(t.LonMin, point.Longitude)
	t.LonMax = max(t.LonMax, point.Longitude)

	if t.TimestampStart.IsZero() || t.TimestampStart.After(point.Timestamp) {
		t.TimestampStart = point.Timestamp
	}
	if t.TimestampEnd.IsZero() || t.TimestampEnd.Before(point.Timestamp) {
		t.TimestampEnd = point.Timestamp
	}

	t.DepthTracker.Update(point.Depth)
	t.Points = append(t.Points, point)
}

// AddImage folds an image placement into the track. Image positions
// widen the map bounds like navigation fixes do, so a placement just
// outside the track is still on the canvas.
func (t *TrackData) AddImage(img storage.ImagePoint) {
	t.LatMin = min(t.LatMin, img.Latitude)
	t.LatMax = max(t.LatMax, img.Latitude)
	t.LonMin = min(t.LonMin, img.Longitude)
	t.LonMax = max(t.LonMax, img.Longitude)

	t.Images = append(t.Images, img)
}

// Empty reports whether the track has nothing to draw.
func (t *TrackData) Empty() bool {
	return len(t.Points) == 0 && len(t.Images) == 0
}
