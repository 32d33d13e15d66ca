package analysis

import "time"

// Window returns the trailing readings whose time basis lies within hours of the
// last reading. Input must already be sorted ascending; order is preserved.
func Window(readings []Reading, hours float64) []Reading {
	if len(readings) == 0 {
		return nil
	}
	now := readings[len(readings)-1].TimeBasis
	cutoff := now.Add(-time.Duration(hours * float64(time.Hour)))

	// sorted input: the window is a suffix
	start := len(readings)
	for start > 0 && !readings[start-1].TimeBasis.Before(cutoff) {
		start--
	}
	return readings[start:]
}
