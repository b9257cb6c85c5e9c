package correlate

import (
	"time"

	"github.com/rov-survey/geotag/internal/telemetry"
)

// DefaultTolerance bounds how far a telemetry fix may sit from an image
// capture time and still count as simultaneous. Two seconds covers the
// vehicle's slowest navigation output rate with margin.
const DefaultTolerance = 2 * time.Second

// Match returns the telemetry sample nearest in time to ts, provided it
// lies within tol. Distance is absolute, so samples before and after
// the capture compete equally. Ties keep the earliest sample in stream
// order. The returned pointer aliases the samples slice; ok is false
// when no sample is close enough.
func Match(ts time.Time, samples []telemetry.Sample, tol time.Duration) (sample *telemetry.Sample, offset time.Duration, ok bool) {
	i, offset, ok := matchIndex(ts, samples, tol)
	if !ok {
		return nil, 0, false
	}

	return &samples[i], offset, true
}

// matchIndex is Match returning the sample's position in the stream
// instead of the sample itself.
func matchIndex(ts time.Time, samples []telemetry.Sample, tol time.Duration) (int, time.Duration, bool) {
	var (
		best     = -1
		bestDiff time.Duration
	)
	for i := range samples {
		diff := absDuration(samples[i].Timestamp.Sub(ts))
		if best < 0 || diff < bestDiff {
			best = i
			bestDiff = diff
		}
	}

	if best < 0 || bestDiff > tol {
		return -1, 0, false
	}

	return best, bestDiff, true
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
