// Package units converts heterogeneous source units into the canonical
// units the store uses: kilometers for distance, seconds for duration.
package units

import "strings"

const milesPerKm = 1.60934

// DistanceKm converts a distance value with a source unit label to kilometers.
// Unrecognized labels are treated as already-canonical.
func DistanceKm(value float64, unit string) float64 {
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case "mi", "mile", "miles":
		return value * milesPerKm
	case "m", "meter", "meters", "metre", "metres":
		return value / 1000
	default:
		// "km" and anything we don't recognize pass through
		return value
	}
}

// DurationSeconds converts a duration value with a source unit label to seconds.
// Unrecognized labels are treated as already-canonical.
func DurationSeconds(value float64, unit string) float64 {
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case "h", "hr", "hrs", "hour", "hours":
		return value * 3600
	case "min", "mins", "minute", "minutes":
		return value * 60
	case "ms", "millisecond", "milliseconds":
		return value / 1000
	default:
		return value
	}
}

// ActivityType extracts the activity type from a display name like
// "Running - 6.50 miles". The substring before the first " - " separator
// is the type; names without the separator are returned whole.
func ActivityType(displayName string) string {
	if idx := strings.Index(displayName, " - "); idx >= 0 {
		return displayName[:idx]
	}
	return displayName
}
