package camera

import (
	"errors"
	"fmt"
)

// ErrUnknownFamily is returned when no profile covers a camera family
// and no fallback entry is configured.
var ErrUnknownFamily = errors.New("unknown camera family")

// Profile carries the fixed rigging parameters of one camera family.
type Profile struct {
	PitchOffset float64 `yaml:"pitchOffset" json:"pitchOffset"` // Mounting pitch in degrees, added to the vehicle pitch
	FocalLength string  `yaml:"focalLength" json:"focalLength"` // Lens focal length, copied verbatim into outputs
}

// Profiles maps camera families to their rigging profiles. The
// FamilyOther entry doubles as the fallback for unknown families and
// must always be present.
type Profiles map[Family]Profile

// DefaultProfiles returns the vehicle's standard fit-out: a nadir rig
// (A), a 45 degree oblique rig (B) and a level fallback for anything
// else.
func DefaultProfiles() Profiles {
	return Profiles{
		FamilyA:     {PitchOffset: -90, FocalLength: "8.8mm"},
		FamilyB:     {PitchOffset: -45, FocalLength: "4.4mm"},
		FamilyOther: {},
	}
}

// Validate checks that the profile map can answer every lookup.
func (p Profiles) Validate() error {
	if _, ok := p[FamilyOther]; !ok {
		return fmt.Errorf("%w: no %s fallback profile configured", ErrUnknownFamily, FamilyOther)
	}

	return nil
}

// For returns the profile for fam, falling back to the FamilyOther
// entry when the family has none of its own.
func (p Profiles) For(fam Family) (Profile, error) {
	if profile, ok := p[fam]; ok {
		return profile, nil
	}
	if profile, ok := p[FamilyOther]; ok {
		return profile, nil
	}

	return Profile{}, fmt.Errorf("%w: %s", ErrUnknownFamily, fam)
}
