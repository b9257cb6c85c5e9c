package app

import (
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// ColorTheme is a predefined gradient for shading the track by depth.
// Gradients run from the deepest reading to the shallowest and are
// drawn over a white chart, so none of them fade to white:
// - MarineTheme: dark navy to bright cyan, the default
// - ClassicTheme: blue to red hue sweep
// - ThermalTheme: black to red to yellow
// - JungleTheme: dark green to yellow
// - GrayscaleTheme: black to light gray
type ColorTheme string

const (
	MarineTheme    ColorTheme = "marine"
	ClassicTheme   ColorTheme = "classic"
	ThermalTheme   ColorTheme = "thermal"
	JungleTheme    ColorTheme = "jungle"
	GrayscaleTheme ColorTheme = "grayscale"

	DefaultColorMapSize = 256 // Default number of colors in the map
)

var validColorThemes = map[ColorTheme]struct{}{
	MarineTheme:    {},
	ClassicTheme:   {},
	ThermalTheme:   {},
	JungleTheme:    {},
	GrayscaleTheme: {},
}

// ClassicTheme hue sweep in degrees, deepest to shallowest.
const (
	hueStart = 236.0
	hueEnd   = 0.0
)

// noDepthColor marks track segments whose fix carried no depth.
var noDepthColor = color.RGBA{R: 0x60, G: 0x60, B: 0x60, A: 0xff}

// ColorMapper provides efficient depth-to-color mapping with support
// for different color themes and per-dive depth ranges
type ColorMapper struct {
	colorMap      []color.Color // Pre-computed colors
	theme         func(float64) color.Color
	themeName     ColorTheme
	size          int     // Cache size
	depthPerIndex float64 // Depth range per index step
	boundsMin     float64 // Deepest depth in meters
}

// NewColorMapper creates a new color mapper with specified theme and
// depth bounds. Uses default size (256) for the color map.
func NewColorMapper(theme ColorTheme, minDepth, maxDepth float64) *ColorMapper {
	return NewColorMapperWithSize(theme, minDepth, maxDepth, DefaultColorMapSize)
}

// NewColorMapperWithSize creates a new color mapper with specified size.
// Size determines the number of pre-computed colors in the map.
func NewColorMapperWithSize(theme ColorTheme, minDepth, maxDepth float64, size int) *ColorMapper {
	if size <= 0 {
		size = DefaultColorMapSize
	}

	cm := &ColorMapper{
		colorMap:  make([]color.Color, size),
		theme:     getColorTheme(theme),
		themeName: theme,
		size:      size,
	}
	cm.UpdateBounds(minDepth, maxDepth)
	return cm
}

// UpdateBounds updates the depth bounds and recomputes the color map.
// minDepth is the deepest reading, maxDepth the shallowest.
func (cm *ColorMapper) UpdateBounds(minDepth, maxDepth float64) {
	cm.boundsMin = minDepth
	cm.depthPerIndex = (maxDepth - minDepth) / float64(cm.size-1)

	// Rebuild color map
	for i := 0; i < cm.size; i++ {
		normalized := float64(i) / float64(cm.size-1)
		cm.colorMap[i] = cm.theme(normalized)
	}
}

// GetColor returns a color for the given depth. Deeper readings map to
// the dark end of the gradient; fixes without a depth get a fixed gray.
func (cm *ColorMapper) GetColor(depth *float64) color.Color {
	if depth == nil {
		return noDepthColor
	}

	// Convert depth to index
	index := int((*depth - cm.boundsMin) / cm.depthPerIndex)

	// Clamp index to valid range
	if index < 0 {
		return cm.colorMap[0]
	}
	if index >= cm.size {
		return cm.colorMap[cm.size-1]
	}
	return cm.colorMap[index]
}

// ColorAt returns the gradient color for a normalized position, 0 being
// the deepest end. Used to draw the depth legend.
func (cm *ColorMapper) ColorAt(normalized float64) color.Color {
	index := int(normalized * float64(cm.size-1))
	if index < 0 {
		index = 0
	} else if index >= cm.size {
		index = cm.size - 1
	}
	return cm.colorMap[index]
}

// ThemeName returns the current color theme name
func (cm *ColorMapper) ThemeName() ColorTheme {
	return cm.themeName
}

// Size returns the color map size
func (cm *ColorMapper) Size() int {
	return cm.size
}

// Color theme implementations. The argument runs 0 at the deepest
// reading to 1 at the shallowest.
func getColorTheme(theme ColorTheme) func(float64) color.Color {
	switch theme {
	case ClassicTheme:
		return func(depth float64) color.Color {
			return colorful.Hsv(hueStart-(depth*(hueStart-hueEnd)), 1, 0.90)
		}

	case ThermalTheme:
		return func(depth float64) color.Color {
			if depth < 0.5 {
				return color.RGBA{
					R: uint8((depth * 2) * 255),
					A: 255,
				}
			}
			return color.RGBA{
				R: 255,
				G: uint8(((depth - 0.5) * 2) * 255),
				A: 255,
			}
		}

	case JungleTheme:
		return func(depth float64) color.Color {
			return colorful.Hsv(120-(depth*60), 1.0, 0.3+(math.Pow(depth, 0.6)*0.7))
		}

	case GrayscaleTheme:
		return func(depth float64) color.Color {
			v := uint8(math.Pow(depth, 0.7) * 200)
			return color.RGBA{R: v, G: v, B: v, A: 255}
		}

	default: // MarineTheme
		return func(depth float64) color.Color {
			return colorful.Hsv(240-(depth*55), 1.0-(depth*0.25), 0.25+(math.Pow(depth, 0.8)*0.7))
		}
	}
}
