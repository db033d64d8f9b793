// Package geo provides distance computation and proximity banding between company sites.
package geo

// Proximity band constants.
const (
	BandImmediate = "immediate"
	BandShort     = "short"
	BandRegional  = "regional"
	BandRemote    = "remote"
	BandUnknown   = "unknown"
)

// Distance thresholds for banding (kilometers).
const (
	ImmediateThresholdKM = 5.0
	ShortThresholdKM     = 25.0
	RegionalThresholdKM  = 50.0
)

// Classify returns the proximity band for a distance.
// Rules:
//   - immediate: distance <= 5km
//   - short: distance <= 25km
//   - regional: distance < 50km
//   - remote: distance >= 50km
//   - unknown: distance missing
func Classify(distanceKM *float64) string {
	if distanceKM == nil {
		return BandUnknown
	}
	d := *distanceKM
	switch {
	case d <= ImmediateThresholdKM:
		return BandImmediate
	case d <= ShortThresholdKM:
		return BandShort
	case d < RegionalThresholdKM:
		return BandRegional
	default:
		return BandRemote
	}
}
