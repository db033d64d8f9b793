package query

import (
	"math"
	"sort"

	"github.com/sells-group/symbiose/internal/interaction"
	"github.com/sells-group/symbiose/internal/suggest"
)

// Score distribution bucket floors.
const (
	highScoreFloor   = 80
	mediumScoreFloor = 60
)

// Summary counts active suggestions.
type Summary struct {
	Active           int `json:"active"`
	NewThisWeek      int `json:"new_this_week"`
	AwaitingResponse int `json:"awaiting_response"`
}

// Distribution buckets active suggestions by score.
type Distribution struct {
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
}

// CompatibilityStats aggregates scores of active suggestions.
type CompatibilityStats struct {
	Average      int          `json:"average"`
	Distribution Distribution `json:"distribution"`
	BestScore    int          `json:"best_score"`
}

// Stats summarizes a suggestion list. Everything except Status ignores
// suggestions the user ignored.
type Stats struct {
	Summary       Summary                    `json:"summary"`
	Compatibility CompatibilityStats         `json:"compatibility"`
	Status        map[interaction.Status]int `json:"status"`
}

// ComputeStats summarizes suggestions.
func ComputeStats(suggestions []suggest.Suggestion) Stats {
	st := Stats{Status: make(map[interaction.Status]int, len(interaction.Statuses))}
	for _, s := range interaction.Statuses {
		st.Status[s] = 0
	}

	total := 0
	for _, s := range suggestions {
		st.Status[s.Status]++
		if s.Status == interaction.StatusIgnored {
			continue
		}

		st.Summary.Active++
		if s.Status == interaction.StatusNew && s.Meta.IsFresh {
			st.Summary.NewThisWeek++
		}
		if s.Status == interaction.StatusNew || s.Status == interaction.StatusSaved {
			st.Summary.AwaitingResponse++
		}

		sc := s.Compatibility.Score
		total += sc
		st.Compatibility.BestScore = max(st.Compatibility.BestScore, sc)
		switch {
		case sc >= highScoreFloor:
			st.Compatibility.Distribution.High++
		case sc >= mediumScoreFloor:
			st.Compatibility.Distribution.Medium++
		default:
			st.Compatibility.Distribution.Low++
		}
	}
	if st.Summary.Active > 0 {
		st.Compatibility.Average = int(math.Floor(float64(total)/float64(st.Summary.Active) + 0.5))
	}
	return st
}

// FacetValue is one facet entry.
type FacetValue struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// ScorePreset is a predefined minimum-score filter.
type ScorePreset struct {
	Label    string `json:"label"`
	MinScore int    `json:"min_score"`
}

// DistancePreset is a predefined maximum-distance filter.
type DistancePreset struct {
	Label       string  `json:"label"`
	MaxDistance float64 `json:"max_distance"`
}

// Facets lists filter values available for a suggestion list.
type Facets struct {
	Status        []interaction.Status `json:"status"`
	Compatibility []ScorePreset        `json:"compatibility"`
	Distance      []DistancePreset     `json:"distance"`
	Sectors       []FacetValue         `json:"sectors"`
	Tags          []FacetValue         `json:"tags"`
}

var (
	scorePresets = []ScorePreset{
		{Label: "Very strong (≥ 85%)", MinScore: 85},
		{Label: "High (70-84%)", MinScore: 70},
		{Label: "Medium (50-69%)", MinScore: 50},
	}
	distancePresets = []DistancePreset{
		{Label: "≤ 5 km", MaxDistance: 5},
		{Label: "≤ 15 km", MaxDistance: 15},
		{Label: "≤ 30 km", MaxDistance: 30},
	}
)

// ComputeFacets counts sectors and tags over non-ignored suggestions, most
// frequent first and alphabetical within equal counts.
func ComputeFacets(suggestions []suggest.Suggestion) Facets {
	sectors := map[string]int{}
	tags := map[string]int{}
	for _, s := range suggestions {
		if s.Status == interaction.StatusIgnored {
			continue
		}
		if s.Company.Sector != "" {
			sectors[s.Company.Sector]++
		}
		for _, t := range s.Tags {
			if t != "" {
				tags[t]++
			}
		}
	}
	return Facets{
		Status:        append([]interaction.Status(nil), interaction.Statuses...),
		Compatibility: append([]ScorePreset(nil), scorePresets...),
		Distance:      append([]DistancePreset(nil), distancePresets...),
		Sectors:       rank(sectors),
		Tags:          rank(tags),
	}
}

func rank(counts map[string]int) []FacetValue {
	out := make([]FacetValue, 0, len(counts))
	for v, c := range counts {
		out = append(out, FacetValue{Value: v, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})
	return out
}

// Engagement counts the user's decisions.
type Engagement struct {
	Saved     int `json:"saved"`
	Contacted int `json:"contacted"`
	Ignored   int `json:"ignored"`
}

// ComputeEngagement counts saved, contacted and ignored suggestions.
func ComputeEngagement(suggestions []suggest.Suggestion) Engagement {
	var e Engagement
	for _, s := range suggestions {
		switch s.Status {
		case interaction.StatusSaved:
			e.Saved++
		case interaction.StatusContacted:
			e.Contacted++
		case interaction.StatusIgnored:
			e.Ignored++
		}
	}
	return e
}

// BestMatch is a condensed top suggestion.
type BestMatch struct {
	Company    suggest.CompanySummary `json:"company"`
	Score      int                    `json:"score"`
	DistanceKM *float64               `json:"distance_km"`
	Status     interaction.Status     `json:"status"`
	Label      string                 `json:"label"`
}

// BestMatches returns the n best non-ignored suggestions by score order.
func BestMatches(suggestions []suggest.Suggestion, n int) []BestMatch {
	active := Filter(suggestions, Params{})
	sorted := Sort(active, SortScore)
	if n >= 0 && n < len(sorted) {
		sorted = sorted[:n]
	}
	out := make([]BestMatch, 0, len(sorted))
	for _, s := range sorted {
		out = append(out, BestMatch{
			Company:    s.Company,
			Score:      s.Compatibility.Score,
			DistanceKM: s.DistanceKM,
			Status:     s.Status,
			Label:      s.Compatibility.Label,
		})
	}
	return out
}
