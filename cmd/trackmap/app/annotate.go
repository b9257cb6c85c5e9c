package app

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

const (
	dpi            = 120.0
	fontSize       = 12.0
	tickMarkHeight = 5

	legendBarWidth  = 12
	legendBarOffset = 20 // Gap between the track area and the legend bar
)

type annotatorConfig struct {
	DatetimeFormat string
	Location       *time.Location
	FontSize       float64
	Borders        BorderConfig
}

type annotator struct {
	context  *freetype.Context
	config   annotatorConfig
	fontFace font.Face
}

func newAnnotator(config annotatorConfig) (*annotator, error) {
	parsedFont, err := freetype.ParseFont(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parsing font: %w", err)
	}

	ctx := freetype.NewContext()
	ctx.SetDPI(dpi)
	ctx.SetFont(parsedFont)
	ctx.SetFontSize(config.FontSize)
	ctx.SetHinting(font.HintingNone)
	ctx.SetSrc(image.Black)

	return &annotator{
		context: ctx,
		config:  config,
		fontFace: truetype.NewFace(parsedFont, &truetype.Options{
			Size:    config.FontSize,
			DPI:     dpi,
			Hinting: font.HintingNone,
		}),
	}, nil
}

func (a *annotator) Close() error {
	if a.fontFace != nil {
		return a.fontFace.Close()
	}
	return nil
}

func (a *annotator) annotate(img *image.RGBA, track *TrackData, proj mapProjection, colors *ColorMapper) error {
	a.context.SetClip(img.Bounds())
	a.context.SetDst(img)

	if err := a.drawLongitudeScale(img, proj); err != nil {
		return fmt.Errorf("drawing longitude scale: %w", err)
	}
	if err := a.drawLatitudeScale(img, proj); err != nil {
		return fmt.Errorf("drawing latitude scale: %w", err)
	}
	if err := a.drawInfoBar(img, track); err != nil {
		return fmt.Errorf("drawing info bar: %w", err)
	}
	if track.DepthTracker.Valid() {
		if err := a.drawDepthLegend(img, track, proj, colors); err != nil {
			return fmt.Errorf("drawing depth legend: %w", err)
		}
	}

	return nil
}

func (a *annotator) drawLongitudeScale(img *image.RGBA, proj mapProjection) error {
	step := calculateNiceCoordStep(proj.lonMax-proj.lonMin, proj.area.Dx())
	startLon := math.Ceil(proj.lonMin/step) * step

	// Get actual font height in pixels
	metrics := a.fontFace.Metrics()
	fontHeight := (metrics.Ascent + metrics.Descent).Round()

	// Baseline sits in the top border, clear of the tick marks
	textY := proj.area.Min.Y - tickMarkHeight - fontHeight/2

	for lon := startLon; lon <= proj.lonMax; lon += step {
		x, _ := proj.toPixel(proj.latMax, lon)

		// Draw tick mark
		for y := proj.area.Min.Y - tickMarkHeight; y < proj.area.Min.Y; y++ {
			img.Set(x, y, color.Black)
		}

		// Format and draw longitude label
		label := formatCoordinate(lon, step)
		width := font.MeasureString(a.fontFace, label)
		pt := freetype.Pt(x-(width.Round()/2), textY)
		if _, err := a.context.DrawString(label, pt); err != nil {
			return fmt.Errorf("drawing longitude label: %w", err)
		}
	}
	return nil
}

func (a *annotator) drawLatitudeScale(img *image.RGBA, proj mapProjection) error {
	step := calculateNiceCoordStep(proj.latMax-proj.latMin, proj.area.Dy())
	startLat := math.Ceil(proj.latMin/step) * step

	// Get font metrics once
	metrics := a.fontFace.Metrics()
	fontHeight := (metrics.Ascent + metrics.Descent).Round()

	for lat := startLat; lat <= proj.latMax; lat += step {
		_, y := proj.toPixel(lat, proj.lonMin)

		// Draw tick mark
		for x := proj.area.Min.X - tickMarkHeight; x < proj.area.Min.X; x++ {
			img.Set(x, y, color.Black)
		}

		// Center text vertically relative to the tick mark position
		textY := y + fontHeight/2 - metrics.Descent.Round()

		// Right-align the label against the tick mark
		label := formatCoordinate(lat, step)
		width := font.MeasureString(a.fontFace, label)
		pt := freetype.Pt(proj.area.Min.X-tickMarkHeight-5-width.Round(), textY)
		if _, err := a.context.DrawString(label, pt); err != nil {
			return fmt.Errorf("drawing latitude label: %w", err)
		}
	}
	return nil
}

func (a *annotator) drawInfoBar(img *image.RGBA, track *TrackData) error {
	var sb strings.Builder

	if !track.TimestampStart.IsZero() {
		sb.WriteString(fmt.Sprintf("Dive: %s - %s",
			track.TimestampStart.In(a.config.Location).Format(a.config.DatetimeFormat),
			track.TimestampEnd.In(a.config.Location).Format(a.config.DatetimeFormat)))
		sb.WriteString("; ")
	}

	sb.WriteString(fmt.Sprintf("Fixes: %s", humanize.Comma(int64(len(track.Points)))))
	sb.WriteString("; ")
	sb.WriteString(fmt.Sprintf("Images: %s", humanize.Comma(int64(len(track.Images)))))

	if track.DepthTracker.Valid() {
		sb.WriteString("; ")
		sb.WriteString(fmt.Sprintf("Depth: %s to %s",
			formatDepth(track.DepthTracker.Min), formatDepth(track.DepthTracker.Max)))
	}

	// Center text vertically in bottom border
	metrics := a.fontFace.Metrics()
	fontHeight := (metrics.Ascent + metrics.Descent).Round()
	textY := img.Bounds().Max.Y - (a.config.Borders.Bottom-fontHeight)/2 - metrics.Descent.Round()

	pt := freetype.Pt(a.config.Borders.Left, textY)
	if _, err := a.context.DrawString(sb.String(), pt); err != nil {
		return fmt.Errorf("drawing info text: %w", err)
	}

	return nil
}

func (a *annotator) drawDepthLegend(img *image.RGBA, track *TrackData, proj mapProjection, colors *ColorMapper) error {
	barHeight := proj.area.Dy()
	if barHeight < 2 {
		return nil
	}

	barLeft := proj.area.Max.X + legendBarOffset
	barTop := proj.area.Min.Y

	// Shallowest at the top, deepest at the bottom, like the water
	// column next to it.
	for y := 0; y < barHeight; y++ {
		normalized := 1 - float64(y)/float64(barHeight-1)
		c := colors.ColorAt(normalized)
		for x := barLeft; x < barLeft+legendBarWidth; x++ {
			img.Set(x, barTop+y, c)
		}
	}

	// Outline
	for y := barTop - 1; y <= barTop+barHeight; y++ {
		img.Set(barLeft-1, y, color.Black)
		img.Set(barLeft+legendBarWidth, y, color.Black)
	}
	for x := barLeft - 1; x <= barLeft+legendBarWidth; x++ {
		img.Set(x, barTop-1, color.Black)
		img.Set(x, barTop+barHeight, color.Black)
	}

	metrics := a.fontFace.Metrics()
	fontHeight := (metrics.Ascent + metrics.Descent).Round()
	minDepth, maxDepth := track.DepthTracker.Current()
	barCenter := barLeft + legendBarWidth/2

	labels := []struct {
		text  string
		textY int
	}{
		{formatDepth(maxDepth), barTop - tickMarkHeight},
		{formatDepth(minDepth), barTop + barHeight + fontHeight},
	}
	for _, label := range labels {
		width := font.MeasureString(a.fontFace, label.text)

		// Center on the bar, but keep clear of the track area
		textX := barCenter - width.Round()/2
		if textX < proj.area.Max.X+5 {
			textX = proj.area.Max.X + 5
		}

		pt := freetype.Pt(textX, label.textY)
		if _, err := a.context.DrawString(label.text, pt); err != nil {
			return fmt.Errorf("drawing depth label: %w", err)
		}
	}

	return nil
}
