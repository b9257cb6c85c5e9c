package correlate

import (
	"github.com/rov-survey/geotag/internal/camera"
	"github.com/rov-survey/geotag/internal/telemetry"
)

// Projector converts geographic coordinates into a planar system. It is
// satisfied by geodesy.Zone.
type Projector interface {
	Project(latitude, longitude float64) (easting, northing float64, err error)
}

// Pose is the estimated position and orientation of a camera at capture
// time. Position fields stay nil when the matched telemetry carried no
// fix; Pitch is always present because the camera's mounting offset is
// known even when the vehicle's attitude is not.
type Pose struct {
	Latitude  *float64 // Decimal degrees (WGS84)
	Longitude *float64 // Decimal degrees (WGS84)
	Easting   *float64 // Meters, only when projecting into a zone
	Northing  *float64 // Meters, only when projecting into a zone
	Altitude  *float64 // Meters relative to the surface, negative below
	Heading   *float64 // Degrees from true north
	Pitch     float64  // Camera pitch in degrees: mounting offset plus vehicle pitch
	Roll      *float64 // Degrees
}

// Estimate derives the camera pose from a matched telemetry sample and
// the camera's rigging profile. A nil projector keeps the pose
// geographic. The returned error reports a failed projection; the pose
// is still valid apart from the planar coordinates.
func Estimate(sample *telemetry.Sample, profile camera.Profile, projector Projector) (Pose, error) {
	pose := Pose{
		Latitude:  sample.Latitude,
		Longitude: sample.Longitude,
		Altitude:  sample.Depth,
		Heading:   sample.Heading,
		Roll:      sample.Roll,
		Pitch:     profile.PitchOffset,
	}
	if sample.Pitch != nil {
		pose.Pitch += *sample.Pitch
	}

	if projector == nil || sample.Latitude == nil || sample.Longitude == nil {
		return pose, nil
	}

	easting, northing, err := projector.Project(*sample.Latitude, *sample.Longitude)
	if err != nil {
		return pose, err
	}
	pose.Easting = &easting
	pose.Northing = &northing

	return pose, nil
}
