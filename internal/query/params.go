// Package query filters, sorts and summarizes computed suggestions. Nothing
// here touches storage.
package query

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/sells-group/symbiose/internal/apperr"
	"github.com/sells-group/symbiose/internal/interaction"
)

// SortMode orders a suggestion list.
type SortMode string

// Sort modes.
const (
	SortScore    SortMode = "score"
	SortDistance SortMode = "distance"
	SortRecent   SortMode = "recent"
	SortAlpha    SortMode = "alpha"
)

// Limits bound the accepted parameter values.
type Limits struct {
	DefaultLimit  int
	MaxLimit      int
	MaxDistanceKM float64
}

// DefaultLimits returns the production bounds.
func DefaultLimits() Limits {
	return Limits{DefaultLimit: 25, MaxLimit: 100, MaxDistanceKM: 500}
}

// Params are validated query parameters. Nil pointers mean "not set".
type Params struct {
	Search         string             `json:"search"`
	Status         interaction.Status `json:"status"`
	MinScore       *float64           `json:"min_score"`
	MaxDistance    *float64           `json:"max_distance"`
	Sort           SortMode           `json:"sort"`
	Limit          int                `json:"limit"`
	IncludeIgnored bool               `json:"include_ignored"`
	Tags           []string           `json:"tags"`
}

// ParseParams validates raw query values. All violations are reported
// together as an InvalidInput error with one entry per field.
func ParseParams(v url.Values, limits Limits) (Params, error) {
	p := Params{Sort: SortScore, Limit: limits.DefaultLimit, Tags: []string{}}
	fields := map[string]string{}

	if raw, ok := lookup(v, "search"); ok {
		p.Search = strings.TrimSpace(raw)
		if p.Search == "" {
			fields["search"] = "must not be empty"
		}
	}

	if raw, ok := lookup(v, "status"); ok {
		s, err := interaction.ParseStatus(raw)
		if err != nil {
			fields["status"] = apperr.FieldsOf(err)["status"]
		} else {
			p.Status = s
		}
	}

	if raw, ok := lookup(v, "minScore"); ok {
		f, err := parseNumber(raw)
		switch {
		case err != nil:
			fields["minScore"] = "must be a number"
		case f < 0 || f > 100:
			fields["minScore"] = "must be between 0 and 100"
		default:
			p.MinScore = &f
		}
	}

	if raw, ok := lookup(v, "maxDistance"); ok {
		f, err := parseNumber(raw)
		switch {
		case err != nil:
			fields["maxDistance"] = "must be a number"
		case f <= 0 || f > limits.MaxDistanceKM:
			fields["maxDistance"] = "must be greater than 0 and at most " + strconv.FormatFloat(limits.MaxDistanceKM, 'f', -1, 64)
		default:
			p.MaxDistance = &f
		}
	}

	if raw, ok := lookup(v, "sort"); ok {
		switch s := SortMode(raw); s {
		case SortScore, SortDistance, SortRecent, SortAlpha:
			p.Sort = s
		default:
			fields["sort"] = "must be one of score, distance, recent, alpha"
		}
	}

	if raw, ok := lookup(v, "limit"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		switch {
		case err != nil:
			fields["limit"] = "must be an integer"
		case n < 1 || n > limits.MaxLimit:
			fields["limit"] = "must be between 1 and " + strconv.Itoa(limits.MaxLimit)
		default:
			p.Limit = n
		}
	}

	if raw, ok := lookup(v, "includeIgnored"); ok {
		b, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			fields["includeIgnored"] = "must be a boolean"
		} else {
			p.IncludeIgnored = b
		}
	}

	p.Tags = SplitList(v["tags"])

	if len(fields) > 0 {
		return Params{}, apperr.InvalidInput("invalid parameters", fields)
	}
	return p, nil
}

// SplitList flattens repeated and comma-separated values, dropping blanks.
func SplitList(values []string) []string {
	out := []string{}
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func lookup(v url.Values, key string) (string, bool) {
	if _, ok := v[key]; !ok {
		return "", false
	}
	return v.Get(key), true
}

func parseNumber(raw string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, strconv.ErrSyntax
	}
	return f, nil
}
