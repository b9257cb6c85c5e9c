package flightlog

import (
	"fmt"
	"io"
	"strings"

	kml "github.com/twpayne/go-kml/v2"

	"github.com/rov-survey/geotag/internal/correlate"
)

// WriteKML writes one point placemark per positioned image, named by
// the image file and carrying the pose and camera details in its
// description. Images without a geographic fix are left out; the
// placemark count is returned.
func WriteKML(w io.Writer, placed []correlate.PlacedImage) (int, error) {
	var placemarks []kml.Element
	for _, img := range placed {
		if img.Pose.Latitude == nil || img.Pose.Longitude == nil {
			continue
		}

		coord := kml.Coordinate{
			Lon: *img.Pose.Longitude,
			Lat: *img.Pose.Latitude,
		}
		if img.Pose.Altitude != nil {
			coord.Alt = *img.Pose.Altitude
		}

		placemarks = append(placemarks, kml.Placemark(
			kml.Name(img.Record.Filename),
			kml.Description(describe(img)),
			kml.Point(kml.Coordinates(coord)),
		))
	}

	doc := kml.KML(kml.Document(placemarks...))
	if err := doc.WriteIndent(w, "", "  "); err != nil {
		return 0, fmt.Errorf("writing KML: %w", err)
	}

	return len(placemarks), nil
}

func describe(img correlate.PlacedImage) string {
	var b strings.Builder

	line := func(label, value string) {
		if value == "" {
			return
		}
		fmt.Fprintf(&b, "%s: %s\n", label, value)
	}

	line("Camera", img.Record.Family.String())
	line("Focal length", img.Profile.FocalLength)
	line("Altitude", formatOptional(img.Pose.Altitude))
	line("Heading", formatOptional(img.Pose.Heading))
	line("Pitch", formatFloat(img.Pose.Pitch))
	line("Roll", formatOptional(img.Pose.Roll))
	line("Captured", img.Record.Captured.Format("2006-01-02 15:04:05 MST"))

	return strings.TrimRight(b.String(), "\n")
}
