// Package geodesy projects WGS84 geographic coordinates into UTM grid
// coordinates. Projection is always into a caller-declared zone so that
// a survey spanning a zone boundary still produces one continuous
// planar frame.
package geodesy

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrZoneFormat is returned when a zone specifier cannot be parsed.
var ErrZoneFormat = errors.New("invalid UTM zone specifier")

// ErrOutOfRange is returned for latitudes outside the UTM graticule.
var ErrOutOfRange = errors.New("latitude outside UTM range")

// WGS84 ellipsoid and transverse Mercator constants.
const (
	equatorialRadius = 6378137.0   // Semi-major axis in meters
	eccentricitySq   = 0.00669438  // First eccentricity squared
	scaleFactor      = 0.9996      // Scale on the central meridian
	falseEasting     = 500000.0    // Meters added to all eastings
	falseNorthing    = 10000000.0  // Meters added to southern hemisphere northings
)

// UTM is defined from 80 degrees south to 84 degrees north.
const (
	minLatitude = -80.0
	maxLatitude = 84.0
)

// Zone identifies a UTM grid zone: a 6 degree longitudinal slice plus
// the MGRS latitude band letter that fixes the hemisphere.
type Zone struct {
	Number int  // Longitudinal zone number, 1 to 60
	Letter byte // Latitude band letter, upper case
	South  bool // True for southern band letters (C through M)
}

// ParseZone parses a compact zone specifier such as "55H" or "31U".
// The band letter is case-insensitive; I and O are not valid bands.
func ParseZone(s string) (Zone, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) < 2 {
		return Zone{}, fmt.Errorf("%w: %q", ErrZoneFormat, s)
	}

	letter := s[len(s)-1]
	if letter < 'C' || letter > 'X' || letter == 'I' || letter == 'O' {
		return Zone{}, fmt.Errorf("%w: bad band letter in %q", ErrZoneFormat, s)
	}

	number, err := strconv.Atoi(s[:len(s)-1])
	if err != nil || number < 1 || number > 60 {
		return Zone{}, fmt.Errorf("%w: bad zone number in %q", ErrZoneFormat, s)
	}

	return Zone{Number: number, Letter: letter, South: letter < 'N'}, nil
}

func (z Zone) String() string {
	return fmt.Sprintf("%d%c", z.Number, z.Letter)
}

// CentralMeridian returns the zone's central meridian in degrees.
func (z Zone) CentralMeridian() float64 {
	return float64((z.Number-1)*6 - 180 + 3)
}

// Project converts a WGS84 latitude and longitude in decimal degrees to
// an easting and northing in meters within the zone's grid, using the
// usual series expansion of the transverse Mercator mapping. Points
// outside the zone's longitudinal slice still project, with eastings
// continuing past the nominal grid edge.
//
// Hemisphere handling follows the grid convention: coordinates south of
// the equator get the 10,000,000 m false northing, and a zone with a
// southern band letter is a southern grid, so its northings are quoted
// 10,000,000 m lower than the same point in a northern grid.
func (z Zone) Project(latitude, longitude float64) (easting, northing float64, err error) {
	if latitude < minLatitude || latitude > maxLatitude {
		return 0, 0, fmt.Errorf("%w: %.6f", ErrOutOfRange, latitude)
	}

	deltaLon := longitude - z.CentralMeridian()
	for deltaLon > 180 {
		deltaLon -= 360
	}
	for deltaLon < -180 {
		deltaLon += 360
	}

	lat := latitude * math.Pi / 180

	sinLat := math.Sin(lat)
	cosLat := math.Cos(lat)
	tanLat := math.Tan(lat)

	e2 := eccentricitySq
	ep2 := e2 / (1 - e2) // Second eccentricity squared

	n := equatorialRadius / math.Sqrt(1-e2*sinLat*sinLat)
	t := tanLat * tanLat
	c := ep2 * cosLat * cosLat
	a := cosLat * deltaLon * math.Pi / 180

	// Meridional arc length from the equator.
	m := equatorialRadius * ((1-e2/4-3*e2*e2/64-5*e2*e2*e2/256)*lat -
		(3*e2/8+3*e2*e2/32+45*e2*e2*e2/1024)*math.Sin(2*lat) +
		(15*e2*e2/256+45*e2*e2*e2/1024)*math.Sin(4*lat) -
		(35*e2*e2*e2/3072)*math.Sin(6*lat))

	easting = scaleFactor*n*(a+
		(1-t+c)*a*a*a/6+
		(5-18*t+t*t+72*c-58*ep2)*a*a*a*a*a/120) + falseEasting

	northing = scaleFactor * (m + n*tanLat*(a*a/2+
		(5-t+9*c+4*c*c)*a*a*a*a/24+
		(61-58*t+t*t+600*c-330*ep2)*a*a*a*a*a*a/720))

	if latitude < 0 {
		northing += falseNorthing
	}
	if z.South {
		northing -= falseNorthing
	}

	return easting, northing, nil
}
