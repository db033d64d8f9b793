// Package score composes the compatibility score of a company pair from four
// bounded sub-scores.
package score

import (
	"math"

	"github.com/sells-group/symbiose/internal/match"
	"github.com/sells-group/symbiose/internal/resource"
)

// Sub-score weights. They sum to MaxScore.
const (
	WeightResource  = 40
	WeightProximity = 30
	WeightQuantity  = 20
	WeightSector    = 10

	MaxScore = 100
)

// Proximity decays linearly between these distances.
const (
	ProximityFullKM = 5.0
	ProximityZeroKM = 50.0
)

// Breakdown is the per-component score.
type Breakdown struct {
	Resource  int `json:"resource"`
	Proximity int `json:"proximity"`
	Quantity  int `json:"quantity"`
	Sector    int `json:"sector"`
}

// Total returns the clamped sum of the components.
func (b Breakdown) Total() int {
	return clampInt(b.Resource+b.Proximity+b.Quantity+b.Sector, 0, MaxScore)
}

// Compatibility is the scored and classified result for one pair.
type Compatibility struct {
	Score     int       `json:"score"`
	Label     string    `json:"label"`
	Badge     string    `json:"badge"`
	Color     string    `json:"color"`
	Breakdown Breakdown `json:"breakdown"`
}

// Result carries the compatibility plus the raw figures kept in interaction
// metadata.
type Result struct {
	Compatibility   Compatibility
	ResourceDetail  int
	QuantityMatches int
	SharedTypes     []string
}

// Compose scores a matched pair. distanceKM is nil when either company has no
// coordinates.
func Compose(requester, candidate *resource.Context, m match.Result, distanceKM *float64) Result {
	all := m.All()
	res := Resource(all,
		len(requester.Productions)+len(requester.Wastes),
		len(requester.Needs)+len(candidate.Needs),
	)
	qty := Quantity(all)
	sec := Sector(requester, candidate)

	b := Breakdown{
		Resource:  res.Score,
		Proximity: Proximity(distanceKM),
		Quantity:  qty.Score,
		Sector:    sec.Score,
	}
	total := b.Total()
	class := Classify(total)

	return Result{
		Compatibility: Compatibility{
			Score:     total,
			Label:     class.Label,
			Badge:     class.Badge,
			Color:     class.Color,
			Breakdown: b,
		},
		ResourceDetail:  res.Detail,
		QuantityMatches: qty.Matched,
		SharedTypes:     sec.SharedTypes,
	}
}

// ResourceScore is the resource sub-score and its normalized percentage.
type ResourceScore struct {
	Score  int
	Detail int
}

// Resource normalizes the summed match strength by the larger of the offer
// and need counts.
func Resource(matches []match.Match, offerCount, needCount int) ResourceScore {
	if len(matches) == 0 {
		return ResourceScore{}
	}
	denominator := max(offerCount, needCount, 1)
	var total float64
	for _, m := range matches {
		total += m.Strength
	}
	normalized := clampFloat(total/float64(denominator), 0, 1)
	return ResourceScore{
		Score:  round(normalized * WeightResource),
		Detail: round(normalized * 100),
	}
}

// QuantityScore is the quantity sub-score and the number of unit matches.
type QuantityScore struct {
	Score   int
	Matched int
}

// Quantity gives partial credit when no match shares a unit, and 60% to 100%
// of the weight in proportion to unit-compatible matches otherwise.
func Quantity(matches []match.Match) QuantityScore {
	if len(matches) == 0 {
		return QuantityScore{}
	}
	matched := 0
	for _, m := range matches {
		if m.UnitMatch {
			matched++
		}
	}
	if matched == 0 {
		return QuantityScore{Score: round(WeightQuantity * 0.4)}
	}
	ratio := clampFloat(float64(matched)/float64(len(matches)), 0, 1)
	return QuantityScore{
		Score:   round(WeightQuantity * (0.6 + 0.4*ratio)),
		Matched: matched,
	}
}

// Proximity decays linearly from full weight at ProximityFullKM to zero at
// ProximityZeroKM. Unknown distance scores zero.
func Proximity(distanceKM *float64) int {
	if distanceKM == nil || math.IsNaN(*distanceKM) {
		return 0
	}
	d := *distanceKM
	if d <= ProximityFullKM {
		return WeightProximity
	}
	if d >= ProximityZeroKM {
		return 0
	}
	span := ProximityZeroKM - ProximityFullKM
	remaining := clampFloat(ProximityZeroKM-d, 0, span)
	return round(remaining / span * WeightProximity)
}

// SectorScore is the sector sub-score and the type names both companies share.
type SectorScore struct {
	Score       int
	SharedTypes []string
}

// Sector awards full weight for shared types, 70% for a shared tag and 40%
// when both companies carry any tag.
func Sector(a, b *resource.Context) SectorScore {
	shared := []string{}
	for _, t := range a.TypeSet {
		if t != "" && b.HasType(t) {
			shared = append(shared, t)
		}
	}
	if len(shared) > 0 {
		return SectorScore{Score: WeightSector, SharedTypes: shared}
	}

	other := make(map[string]struct{}, len(b.Tags))
	for _, t := range b.Tags {
		other[resource.Fold(t)] = struct{}{}
	}
	for _, t := range a.Tags {
		if _, ok := other[resource.Fold(t)]; ok {
			return SectorScore{Score: round(WeightSector * 0.7), SharedTypes: shared}
		}
	}

	if len(a.Tags) > 0 && len(b.Tags) > 0 {
		return SectorScore{Score: round(WeightSector * 0.4), SharedTypes: shared}
	}
	return SectorScore{SharedTypes: shared}
}

// Classification is the label attached to a total score.
type Classification struct {
	Label string
	Badge string
	Color string
}

// Classify maps a total score to its label.
func Classify(total int) Classification {
	switch {
	case total >= 85:
		return Classification{Label: "very strong", Badge: "top", Color: "emerald"}
	case total >= 70:
		return Classification{Label: "high", Badge: "high", Color: "green"}
	case total >= 50:
		return Classification{Label: "medium", Badge: "medium", Color: "amber"}
	default:
		return Classification{Label: "limited", Badge: "low", Color: "gray"}
	}
}

func round(v float64) int {
	return int(math.Floor(v + 0.5))
}

func clampFloat(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

func clampInt(v, lo, hi int) int {
	return min(max(v, lo), hi)
}
