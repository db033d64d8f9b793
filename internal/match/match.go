// Package match links offered resources to needed resources.
package match

import (
	"github.com/sells-group/symbiose/internal/resource"
)

// Kind is the rule that produced a match.
type Kind string

// Match kinds, strongest first.
const (
	KindFamily   Kind = "family"
	KindCategory Kind = "category"
	KindName     Kind = "name"
)

// Match strengths per kind.
const (
	StrengthFamily   = 1.0
	StrengthCategory = 0.75
	StrengthName     = 0.5
)

// Match is one link between an offer and a need.
type Match struct {
	Offer     resource.Descriptor `json:"offer"`
	Need      resource.Descriptor `json:"need"`
	Strength  float64             `json:"strength"`
	Kind      Kind                `json:"kind"`
	UnitMatch bool                `json:"unit_match"`
}

// Result holds both directions of a company pair.
type Result struct {
	// Forward links the requester's offers to the candidate's needs.
	Forward []Match `json:"forward"`
	// Backward links the candidate's offers to the requester's needs.
	Backward []Match `json:"backward"`
}

// All returns forward matches followed by backward matches.
func (r Result) All() []Match {
	all := make([]Match, 0, len(r.Forward)+len(r.Backward))
	all = append(all, r.Forward...)
	return append(all, r.Backward...)
}

// Empty reports whether neither direction produced a match.
func (r Result) Empty() bool {
	return len(r.Forward) == 0 && len(r.Backward) == 0
}

// Companies runs Resources in both directions between requester and candidate.
func Companies(requester, candidate *resource.Context) Result {
	return Result{
		Forward:  Resources(requester.Offers(), candidate.Needs),
		Backward: Resources(candidate.Offers(), requester.Needs),
	}
}

// Resources compares every offer with every need and returns the matches in
// offer-major order. Family beats category, which beats name.
func Resources(offers, needs []resource.Descriptor) []Match {
	matches := []Match{}
	needNames := make([]string, len(needs))
	for i, n := range needs {
		needNames[i] = resource.Fold(n.Name)
	}

	for _, offer := range offers {
		offerName := resource.Fold(offer.Name)
		for i, need := range needs {
			kind, strength, ok := classify(offer, need, offerName, needNames[i])
			if !ok {
				continue
			}
			matches = append(matches, Match{
				Offer:     offer,
				Need:      need,
				Strength:  strength,
				Kind:      kind,
				UnitMatch: offer.Unit != "" && offer.Unit == need.Unit,
			})
		}
	}
	return matches
}

func classify(offer, need resource.Descriptor, offerName, needName string) (Kind, float64, bool) {
	switch {
	case offer.Family != "" && offer.Family == need.Family:
		return KindFamily, StrengthFamily, true
	case offer.Category != "" && offer.Category == need.Category:
		return KindCategory, StrengthCategory, true
	case offerName != "" && offerName == needName:
		return KindName, StrengthName, true
	default:
		return "", 0, false
	}
}
