package query

import (
	"math"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/sells-group/symbiose/internal/interaction"
	"github.com/sells-group/symbiose/internal/resource"
	"github.com/sells-group/symbiose/internal/suggest"
)

// Page is a filtered, sorted and limited view of a suggestion list.
type Page struct {
	Items          []suggest.Suggestion `json:"items"`
	Total          int                  `json:"total"`
	Available      int                  `json:"available"`
	AppliedFilters Params               `json:"applied_filters"`
	Limit          int                  `json:"limit"`
}

// Query filters, sorts and limits suggestions. Total counts the filtered list
// before the limit; Available counts the input.
func Query(suggestions []suggest.Suggestion, p Params) Page {
	filtered := Filter(suggestions, p)
	sorted := Sort(filtered, p.Sort)
	limit := p.Limit
	if limit <= 0 || limit > len(sorted) {
		limit = len(sorted)
	}
	return Page{
		Items:          sorted[:limit],
		Total:          len(filtered),
		Available:      len(suggestions),
		AppliedFilters: p,
		Limit:          p.Limit,
	}
}

// Filter returns the suggestions matching p, in input order. Ignored
// suggestions are dropped unless IncludeIgnored is set; suggestions without a
// distance always pass the distance filter.
func Filter(suggestions []suggest.Suggestion, p Params) []suggest.Suggestion {
	wantTags := make(map[string]struct{}, len(p.Tags))
	for _, t := range p.Tags {
		wantTags[resource.Fold(t)] = struct{}{}
	}
	search := resource.Fold(p.Search)

	out := []suggest.Suggestion{}
	for _, s := range suggestions {
		if !p.IncludeIgnored && s.Status == interaction.StatusIgnored {
			continue
		}
		if p.Status != "" && s.Status != p.Status {
			continue
		}
		if p.MinScore != nil && float64(s.Compatibility.Score) < *p.MinScore {
			continue
		}
		if p.MaxDistance != nil && s.DistanceKM != nil && *s.DistanceKM > *p.MaxDistance {
			continue
		}
		if len(wantTags) > 0 && !hasAnyTag(s.Tags, wantTags) {
			continue
		}
		if search != "" && !strings.Contains(haystack(s), search) {
			continue
		}
		out = append(out, s)
	}
	return out
}

func hasAnyTag(tags []string, want map[string]struct{}) bool {
	for _, t := range tags {
		if _, ok := want[resource.Fold(t)]; ok {
			return true
		}
	}
	return false
}

func haystack(s suggest.Suggestion) string {
	parts := make([]string, 0, 2+len(s.Tags)+len(s.Reasons))
	parts = append(parts, s.Company.Name, s.Company.Sector)
	parts = append(parts, s.Tags...)
	for _, r := range s.Reasons {
		parts = append(parts, r.Message)
	}
	return resource.Fold(strings.Join(parts, " "))
}

// Sort returns a sorted copy of suggestions. The sort is stable, so equal
// keys keep their input order.
func Sort(suggestions []suggest.Suggestion, mode SortMode) []suggest.Suggestion {
	out := slices.Clone(suggestions)
	switch mode {
	case SortDistance:
		slices.SortStableFunc(out, func(a, b suggest.Suggestion) int {
			if c := compareFloat(distanceKey(a), distanceKey(b)); c != 0 {
				return c
			}
			return b.Compatibility.Score - a.Compatibility.Score
		})
	case SortRecent:
		slices.SortStableFunc(out, func(a, b suggest.Suggestion) int {
			return b.Meta.UpdatedAt.Compare(a.Meta.UpdatedAt)
		})
	case SortAlpha:
		col := collate.New(language.Und)
		slices.SortStableFunc(out, func(a, b suggest.Suggestion) int {
			return col.CompareString(a.Company.Name, b.Company.Name)
		})
	default:
		slices.SortStableFunc(out, func(a, b suggest.Suggestion) int {
			if d := b.Compatibility.Score - a.Compatibility.Score; d != 0 {
				return d
			}
			return compareFloat(distanceKey(a), distanceKey(b))
		})
	}
	return out
}

func distanceKey(s suggest.Suggestion) float64 {
	if s.DistanceKM == nil {
		return math.Inf(1)
	}
	return *s.DistanceKM
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
