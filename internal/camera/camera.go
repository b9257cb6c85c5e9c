// Package camera resolves which survey camera produced an image and
// derives capture metadata from the image's identifier alone. The
// vehicle carries fixed-mount stills rigs that encode their family and
// the capture time into every filename they write, which is the only
// provenance available once the files leave the vehicle.
package camera

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Family identifies one of the vehicle's camera fit-outs.
type Family string

const (
	// FamilyA is the downward-looking stills rig. Its identifiers are
	// prefixed "A_" with the capture time in the second segment.
	FamilyA Family = "A"

	// FamilyB is the forward-oblique stills rig, same identifier shape
	// as FamilyA.
	FamilyB Family = "B"

	// FamilyOther covers identifiers with no recognized prefix, which
	// lead with an ISO-style capture time instead.
	FamilyOther Family = "other"
)

func (f Family) String() string {
	return string(f)
}

// Classify resolves the camera family from an image identifier.
// Unrecognized identifiers fall through to FamilyOther; they may still
// carry a usable capture time.
func Classify(identifier string) Family {
	switch {
	case strings.HasPrefix(identifier, "A_"):
		return FamilyA
	case strings.HasPrefix(identifier, "B_"):
		return FamilyB
	default:
		return FamilyOther
	}
}

// ErrTimestamp is returned when an identifier does not carry a capture
// time where its family says one should be.
var ErrTimestamp = errors.New("no capture time in identifier")

// stampLayout is the compact capture time encoding used in identifiers.
const stampLayout = "20060102150405"

// ParseTimestamp extracts the capture time encoded in an image
// identifier. FamilyA and FamilyB put a bare YYYYMMDDHHMMSS stamp at
// the start of the second underscore-separated segment; FamilyOther
// identifiers lead with the stamp itself, usually with ISO separators
// (20211005T061211Z...), which are stripped before parsing. Capture
// times carry no zone and are taken as UTC.
func ParseTimestamp(identifier string, fam Family) (time.Time, error) {
	switch fam {
	case FamilyA, FamilyB:
		return parseSecondSegment(identifier)
	default:
		return parseLeadingStamp(identifier)
	}
}

func parseSecondSegment(identifier string) (time.Time, error) {
	segments := strings.Split(identifier, "_")
	if len(segments) < 2 {
		return time.Time{}, fmt.Errorf("%w: %q has no second segment", ErrTimestamp, identifier)
	}

	return parseStamp(segments[1], identifier)
}

func parseLeadingStamp(identifier string) (time.Time, error) {
	segment, _, _ := strings.Cut(identifier, "_")
	segment = strings.Map(func(r rune) rune {
		switch r {
		case 'T', 'Z', '-', ':':
			return -1
		}
		return r
	}, segment)

	return parseStamp(segment, identifier)
}

func parseStamp(segment, identifier string) (time.Time, error) {
	if len(segment) < len(stampLayout) {
		return time.Time{}, fmt.Errorf("%w: %q capture time is too short", ErrTimestamp, identifier)
	}

	ts, err := time.ParseInLocation(stampLayout, segment[:len(stampLayout)], time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %w", ErrTimestamp, identifier, err)
	}

	return ts, nil
}
