// Package resource turns directory records into normalized descriptors that
// the matcher can compare.
package resource

import (
	"strconv"
	"strings"

	"github.com/twpayne/go-geom"
	"golang.org/x/text/cases"

	"github.com/sells-group/symbiose/internal/apperr"
	"github.com/sells-group/symbiose/internal/company"
	"github.com/sells-group/symbiose/internal/geo"
)

// Kind is the flow direction of a descriptor.
type Kind string

// Flow kinds.
const (
	KindProduction Kind = "production"
	KindWaste      Kind = "waste"
	KindNeed       Kind = "need"
)

// Descriptor is one declared material flow. Category, Family and Unit are
// trimmed and case-folded; Name keeps the declared text.
type Descriptor struct {
	ID        int64  `json:"id"`
	CompanyID int64  `json:"company_id"`
	Name      string `json:"name"`
	Category  string `json:"category,omitempty"`
	Family    string `json:"family,omitempty"`
	Unit      string `json:"unit,omitempty"`
	Kind      Kind   `json:"kind"`
}

// Context is a company's aggregated view for one computation.
type Context struct {
	CompanyID   int64
	Name        string
	Sector      string
	Location    *geom.Point
	Productions []Descriptor
	Wastes      []Descriptor
	Needs       []Descriptor
	// Tags is the ordered union of sector, type names and waste families
	// (or categories when a waste has no family).
	Tags []string
	// TypeSet holds the folded type names in first-seen order.
	TypeSet []string
}

// Offers returns productions followed by wastes.
func (c *Context) Offers() []Descriptor {
	offers := make([]Descriptor, 0, len(c.Productions)+len(c.Wastes))
	offers = append(offers, c.Productions...)
	return append(offers, c.Wastes...)
}

// HasType reports whether the folded type name t is in the type set.
func (c *Context) HasType(t string) bool {
	for _, v := range c.TypeSet {
		if v == t {
			return true
		}
	}
	return false
}

// Fold trims s and applies Unicode case folding.
func Fold(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return cases.Fold().String(s)
}

// Extract builds the Context of c. It is pure and accepts companies without
// resources or tags. Records with non-positive resource ids or out-of-range
// coordinates are rejected as InvalidInput.
func Extract(c company.Company) (*Context, error) {
	if err := validate(c); err != nil {
		return nil, err
	}

	ctx := &Context{
		CompanyID:   c.ID,
		Name:        c.Name,
		Sector:      strings.TrimSpace(c.Sector),
		Location:    geo.Point(c.Latitude, c.Longitude),
		Productions: []Descriptor{},
		Wastes:      []Descriptor{},
		Needs:       []Descriptor{},
		Tags:        []string{},
		TypeSet:     []string{},
	}

	for _, o := range c.Outputs {
		kind := KindProduction
		if o.IsWaste {
			kind = KindWaste
		}
		d := describe(c.ID, o.ID, o.Name, o.Category, o.Family, o.Unit, kind)
		if o.IsWaste {
			ctx.Wastes = append(ctx.Wastes, d)
		} else {
			ctx.Productions = append(ctx.Productions, d)
		}
	}
	for _, in := range c.Inputs {
		ctx.Needs = append(ctx.Needs, describe(c.ID, in.ID, in.Name, in.Category, in.Family, in.Unit, KindNeed))
	}

	tags := newOrderedSet()
	tags.add(ctx.Sector)
	types := newOrderedSet()
	for _, t := range c.Types {
		tags.add(strings.TrimSpace(t))
		types.add(Fold(t))
	}
	for _, o := range c.Outputs {
		if !o.IsWaste {
			continue
		}
		if fam := strings.TrimSpace(o.Family); fam != "" {
			tags.add(fam)
		} else {
			tags.add(strings.TrimSpace(o.Category))
		}
	}
	ctx.Tags = tags.items
	ctx.TypeSet = types.items
	return ctx, nil
}

func describe(companyID, id int64, name, category, family, unit string, kind Kind) Descriptor {
	return Descriptor{
		ID:        id,
		CompanyID: companyID,
		Name:      strings.TrimSpace(name),
		Category:  Fold(category),
		Family:    Fold(family),
		Unit:      Fold(unit),
		Kind:      kind,
	}
}

func validate(c company.Company) error {
	fields := map[string]string{}
	if c.Latitude != nil && c.Longitude != nil && !geo.ValidCoordinates(*c.Latitude, *c.Longitude) {
		fields["coordinates"] = "out of range"
	}
	for i, o := range c.Outputs {
		if o.ID <= 0 {
			fields["outputs["+strconv.Itoa(i)+"].id"] = "must be positive"
		}
	}
	for i, in := range c.Inputs {
		if in.ID <= 0 {
			fields["inputs["+strconv.Itoa(i)+"].id"] = "must be positive"
		}
	}
	if len(fields) > 0 {
		return apperr.InvalidInput("malformed company record "+strconv.FormatInt(c.ID, 10), fields)
	}
	return nil
}

type orderedSet struct {
	seen  map[string]struct{}
	items []string
}

func newOrderedSet() *orderedSet {
	return &orderedSet{seen: map[string]struct{}{}, items: []string{}}
}

func (s *orderedSet) add(v string) {
	if v == "" {
		return
	}
	if _, ok := s.seen[v]; ok {
		return
	}
	s.seen[v] = struct{}{}
	s.items = append(s.items, v)
}
