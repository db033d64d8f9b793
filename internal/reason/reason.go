// Package reason explains a compatibility score in human-readable terms.
package reason

import (
	"fmt"
	"strings"

	"github.com/sells-group/symbiose/internal/geo"
	"github.com/sells-group/symbiose/internal/match"
	"github.com/sells-group/symbiose/internal/resource"
)

// Type groups reasons for display.
type Type string

// Reason types.
const (
	TypeResource  Type = "resource"
	TypeProximity Type = "proximity"
	TypeSector    Type = "sector"
	TypeQuantity  Type = "quantity"
	TypeInsight   Type = "insight"
)

// Per-direction cap on resource reasons.
const maxResourceReasons = 2

// Reason is one justification line.
type Reason struct {
	Type    Type   `json:"type"`
	Message string `json:"message"`
}

// Input is what Build derives reasons from. Matches must be the same lists
// used for scoring.
type Input struct {
	Requester   *resource.Context
	Candidate   *resource.Context
	Matches     match.Result
	DistanceKM  *float64
	SharedTypes []string
}

// Build returns the ordered reasons for a suggestion. The result is never
// empty.
func Build(in Input) []Reason {
	reasons := []Reason{}

	for _, m := range head(in.Matches.Forward) {
		reasons = append(reasons, Reason{
			Type:    TypeResource,
			Message: fmt.Sprintf("Your %s meets %s's need for %s", m.Offer.Name, in.Candidate.Name, m.Need.Name) + annotation(m.Kind),
		})
	}
	for _, m := range head(in.Matches.Backward) {
		reasons = append(reasons, Reason{
			Type:    TypeResource,
			Message: fmt.Sprintf("Their %s could cover your need for %s", m.Offer.Name, m.Need.Name) + annotation(m.Kind),
		})
	}

	switch geo.Classify(in.DistanceKM) {
	case geo.BandImmediate:
		reasons = append(reasons, Reason{Type: TypeProximity, Message: fmt.Sprintf("Immediate proximity (%.1f km)", *in.DistanceKM)})
	case geo.BandShort:
		reasons = append(reasons, Reason{Type: TypeProximity, Message: fmt.Sprintf("Short transport distance (%.1f km)", *in.DistanceKM)})
	}

	switch {
	case len(in.SharedTypes) > 0:
		reasons = append(reasons, Reason{Type: TypeSector, Message: "Shared expertise: " + strings.Join(in.SharedTypes, ", ")})
	case in.Requester.Sector != "" && in.Candidate.Sector != "" && in.Requester.Sector != in.Candidate.Sector:
		reasons = append(reasons, Reason{
			Type:    TypeSector,
			Message: fmt.Sprintf("Complementary sectors: %s ↔ %s", in.Requester.Sector, in.Candidate.Sector),
		})
	}

	if anyUnitMatch(in.Matches.Forward) || anyUnitMatch(in.Matches.Backward) {
		reasons = append(reasons, Reason{Type: TypeQuantity, Message: "Compatible units and volumes to start a collaboration quickly"})
	}

	if len(reasons) == 0 {
		reasons = append(reasons, Reason{Type: TypeInsight, Message: in.Candidate.Name + " shares several key points with your activity."})
	}
	return reasons
}

func head(ms []match.Match) []match.Match {
	if len(ms) > maxResourceReasons {
		return ms[:maxResourceReasons]
	}
	return ms
}

func annotation(k match.Kind) string {
	switch k {
	case match.KindFamily:
		return " (same family)"
	case match.KindCategory:
		return " (compatible category)"
	default:
		return ""
	}
}

func anyUnitMatch(ms []match.Match) bool {
	for _, m := range ms {
		if m.UnitMatch {
			return true
		}
	}
	return false
}
