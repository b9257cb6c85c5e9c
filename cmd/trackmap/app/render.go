package app

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"time"

	"github.com/fogleman/gg"
)

const (
	defaultTrackWidth = 1200
	minTrackWidth     = 64
	maxTrackHeight    = 8192

	trackLineWidth = 3.0 // Width of the track line in pixels
	markerRadius   = 4.0 // Image marker radius in pixels

	pixelsPerLabel = 150.0

	// Default border sizes in pixels
	defaultTopBorder    = 40
	defaultLeftBorder   = 100
	defaultBottomBorder = 40
	defaultRightBorder  = 90

	defaultDatetimeFormat = time.DateTime

	// Bounds padding keeps the track off the border. The floor covers
	// tracks so short that a fraction of their span rounds to nothing.
	boundsPadding    = 0.05   // Fraction of the span added on each side
	minBoundsPadding = 0.0002 // Degrees
)

// Image marker colors, a filled disc with a darker outline.
var (
	imageMarkerFill    = color.RGBA{R: 0xd6, G: 0x30, B: 0x30, A: 0xff}
	imageMarkerOutline = color.RGBA{R: 0x66, G: 0x00, B: 0x00, A: 0xff}
)

// BorderConfig defines the sizes of white space around the track area
type BorderConfig struct {
	Top    int // Space for the longitude scale
	Left   int // Space for the latitude scale
	Bottom int // Space for the information bar
	Right  int // Space for the depth legend
}

// RenderConfig holds all configuration options for track visualization
type RenderConfig struct {
	// Time display configuration
	DatetimeFormat string         // Format string for dive start/end display
	Location       *time.Location // Timezone for time display

	// Visual configuration
	FontSize      float64    // Font size in points
	ColorTheme    ColorTheme // Color scheme for depth values
	ColorMapSize  int        // Number of colors in gradient (0 for default)
	Width         int        // Width of the track area in pixels (0 for default)
	NoAnnotations bool       // Skip scales, legend and the info bar

	// Border configuration
	BorderConfig BorderConfig
}

// TrackRenderer handles the visualization of an archived dive track
type TrackRenderer struct {
	colorMap *ColorMapper
	config   RenderConfig
}

// NewTrackRenderer creates a new track renderer with the given configuration
func NewTrackRenderer(config RenderConfig) (*TrackRenderer, error) {
	// Set defaults for zero values
	if config.DatetimeFormat == "" {
		config.DatetimeFormat = defaultDatetimeFormat
	}
	if config.Location == nil {
		config.Location = time.Local
	}
	if config.FontSize == 0 {
		config.FontSize = fontSize
	}
	if config.Width == 0 {
		config.Width = defaultTrackWidth
	}
	if config.BorderConfig.Top == 0 {
		config.BorderConfig.Top = defaultTopBorder
	}
	if config.BorderConfig.Left == 0 {
		config.BorderConfig.Left = defaultLeftBorder
	}
	if config.BorderConfig.Bottom == 0 {
		config.BorderConfig.Bottom = defaultBottomBorder
	}
	if config.BorderConfig.Right == 0 {
		config.BorderConfig.Right = defaultRightBorder
	}

	return &TrackRenderer{config: config}, nil
}

// Render creates an image of the dive track with annotations
func (r *TrackRenderer) Render(track *TrackData) (*image.RGBA, error) {
	if track.Empty() {
		return nil, errors.New("track has no positioned fixes or images")
	}

	proj := newMapProjection(track, r.config.Width, r.config.BorderConfig)

	// Create image with space for borders
	fullWidth := proj.area.Max.X + r.config.BorderConfig.Right
	fullHeight := proj.area.Max.Y + r.config.BorderConfig.Bottom
	img := image.NewRGBA(image.Rect(0, 0, fullWidth, fullHeight))

	// Fill with white background
	dc := gg.NewContextForRGBA(img)
	dc.SetColor(color.White)
	dc.Clear()

	// Update or create color map
	minDepth, maxDepth := track.DepthTracker.Current()
	if r.colorMap == nil {
		r.colorMap = NewColorMapperWithSize(r.config.ColorTheme, minDepth, maxDepth, r.config.ColorMapSize)
	} else {
		r.colorMap.UpdateBounds(minDepth, maxDepth)
	}

	if !r.config.NoAnnotations {
		ann, err := newAnnotator(annotatorConfig{
			DatetimeFormat: r.config.DatetimeFormat,
			Location:       r.config.Location,
			FontSize:       r.config.FontSize,
			Borders:        r.config.BorderConfig,
		})
		if err != nil {
			return nil, fmt.Errorf("creating annotator: %w", err)
		}
		defer ann.Close()

		if err = ann.annotate(img, track, proj, r.colorMap); err != nil {
			return nil, fmt.Errorf("drawing annotations: %w", err)
		}
	}

	// Draw the track over the annotations, then markers over the track
	r.renderTrack(dc, proj, track)
	r.renderImages(dc, proj, track)

	return img, nil
}

// renderTrack draws the navigation fixes as a polyline shaded by depth
func (r *TrackRenderer) renderTrack(dc *gg.Context, proj mapProjection, track *TrackData) {
	dc.SetLineCapRound()
	dc.SetLineJoinRound()
	dc.SetLineWidth(trackLineWidth)

	var prevX, prevY float64
	for i := range track.Points {
		point := &track.Points[i]
		x, y := proj.toCanvas(point.Latitude, point.Longitude)

		if i > 0 {
			dc.DrawLine(prevX, prevY, x, y)
			dc.SetColor(r.colorMap.GetColor(point.Depth))
			dc.Stroke()
		}
		dc.DrawPoint(x, y, trackLineWidth/2)
		dc.SetColor(r.colorMap.GetColor(point.Depth))
		dc.Fill()

		prevX, prevY = x, y
	}
}

// renderImages marks every image placement on the track
func (r *TrackRenderer) renderImages(dc *gg.Context, proj mapProjection, track *TrackData) {
	for i := range track.Images {
		x, y := proj.toCanvas(track.Images[i].Latitude, track.Images[i].Longitude)

		dc.DrawCircle(x, y, markerRadius)
		dc.SetColor(imageMarkerFill)
		dc.FillPreserve()
		dc.SetColor(imageMarkerOutline)
		dc.SetLineWidth(1)
		dc.Stroke()
	}
}

// mapProjection maps geographic coordinates onto the track area of the
// canvas. North is up; longitudes are compressed by the cosine of the
// track's middle latitude so distances read roughly true.
type mapProjection struct {
	area           image.Rectangle
	latMin, latMax float64
	lonMin, lonMax float64
	scale          float64 // Pixels per degree of latitude
	cosLat         float64 // Longitude compression at the middle latitude
}

func newMapProjection(track *TrackData, width int, borders BorderConfig) mapProjection {
	latPad := max((track.LatMax-track.LatMin)*boundsPadding, minBoundsPadding)
	lonPad := max((track.LonMax-track.LonMin)*boundsPadding, minBoundsPadding)

	p := mapProjection{
		latMin: track.LatMin - latPad,
		latMax: track.LatMax + latPad,
		lonMin: track.LonMin - lonPad,
		lonMax: track.LonMax + lonPad,
	}

	p.cosLat = math.Cos((p.latMin + p.latMax) / 2 * math.Pi / 180)
	if p.cosLat < 0.01 {
		p.cosLat = 0.01
	}

	latSpan := p.latMax - p.latMin
	lonSpan := p.lonMax - p.lonMin

	w := float64(width)
	p.scale = w / (lonSpan * p.cosLat)

	h := latSpan * p.scale
	if h > maxTrackHeight {
		p.scale *= maxTrackHeight / h
		w = lonSpan * p.cosLat * p.scale
		h = maxTrackHeight
	}

	p.area = image.Rect(borders.Left, borders.Top,
		borders.Left+max(int(w+0.5), 1), borders.Top+max(int(h+0.5), 1))
	return p
}

func (p mapProjection) toPixel(lat, lon float64) (x, y int) {
	x = p.area.Min.X + int((lon-p.lonMin)*p.cosLat*p.scale+0.5)
	y = p.area.Min.Y + int((p.latMax-lat)*p.scale+0.5)
	return x, y
}

// toCanvas returns the drawing position of a coordinate, centered on
// the pixel toPixel maps it to.
func (p mapProjection) toCanvas(lat, lon float64) (x, y float64) {
	px, py := p.toPixel(lat, lon)
	return float64(px) + 0.5, float64(py) + 0.5
}

// Helper functions

func calculateNiceCoordStep(span float64, pixels int) float64 {
	// Standard step sizes in degrees
	steps := []float64{
		0.0001, 0.0002, 0.0005,
		0.001, 0.002, 0.005,
		0.01, 0.02, 0.05,
		0.1, 0.2, 0.5,
		1, 2, 5,
	}

	desiredSteps := float64(pixels) / pixelsPerLabel
	targetStep := span / desiredSteps

	// Find the closest standard step size
	for _, step := range steps {
		if step >= targetStep {
			// If this step would give us at least 2 points
			if span/step >= 2 {
				return step
			}
			break
		}
	}

	// If we can't find a suitable step or would get too few points,
	// return half the span to show at least the center line
	return span / 2
}

func formatCoordinate(deg, step float64) string {
	switch {
	case step >= 1:
		return fmt.Sprintf("%.0f°", deg)
	case step >= 0.1:
		return fmt.Sprintf("%.1f°", deg)
	case step >= 0.01:
		return fmt.Sprintf("%.2f°", deg)
	case step >= 0.001:
		return fmt.Sprintf("%.3f°", deg)
	default:
		return fmt.Sprintf("%.4f°", deg)
	}
}

func formatDepth(meters float64) string {
	return fmt.Sprintf("%.1f m", meters)
}
