package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/symbiose/internal/resource"
)

func offer(id int64, name, category, family, unit string) resource.Descriptor {
	return resource.Descriptor{ID: id, Name: name, Category: category, Family: family, Unit: unit, Kind: resource.KindWaste}
}

func need(id int64, name, category, family, unit string) resource.Descriptor {
	return resource.Descriptor{ID: id, Name: name, Category: category, Family: family, Unit: unit, Kind: resource.KindNeed}
}

func TestResources_Precedence(t *testing.T) {
	tests := []struct {
		name     string
		offer    resource.Descriptor
		need     resource.Descriptor
		kind     Kind
		strength float64
	}{
		{"family wins over category", offer(1, "A", "plastique", "plastic", ""), need(2, "A", "plastique", "plastic", ""), KindFamily, StrengthFamily},
		{"category when families differ", offer(1, "A", "plastique", "plastic", ""), need(2, "B", "plastique", "resin", ""), KindCategory, StrengthCategory},
		{"category when one family missing", offer(1, "A", "metal", "", ""), need(2, "B", "metal", "steel", ""), KindCategory, StrengthCategory},
		{"name case-insensitive", offer(1, "Steel Scrap", "", "", ""), need(2, "steel scrap", "", "", ""), KindName, StrengthName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resources([]resource.Descriptor{tt.offer}, []resource.Descriptor{tt.need})
			require.Len(t, got, 1)
			assert.Equal(t, tt.kind, got[0].Kind)
			assert.InDelta(t, tt.strength, got[0].Strength, 1e-9)
		})
	}
}

func TestResources_NoMatch(t *testing.T) {
	got := Resources(
		[]resource.Descriptor{offer(1, "Glass", "verre", "mineral", "t")},
		[]resource.Descriptor{need(2, "Wood", "bois", "organic", "t")},
	)
	assert.Empty(t, got)
	assert.NotNil(t, got)

	assert.Empty(t, Resources(nil, []resource.Descriptor{need(2, "", "", "", "")}))
	// Empty names never match each other.
	assert.Empty(t, Resources([]resource.Descriptor{offer(1, "", "", "", "")}, []resource.Descriptor{need(2, " ", "", "", "")}))
}

func TestResources_UnitMatch(t *testing.T) {
	got := Resources(
		[]resource.Descriptor{offer(1, "A", "", "plastic", "kg"), offer(2, "B", "", "plastic", ""), offer(3, "C", "", "plastic", "t")},
		[]resource.Descriptor{need(9, "N", "", "plastic", "kg")},
	)
	require.Len(t, got, 3)
	assert.True(t, got[0].UnitMatch)
	assert.False(t, got[1].UnitMatch)
	assert.False(t, got[2].UnitMatch)
}

func TestResources_CrossProductOrder(t *testing.T) {
	offers := []resource.Descriptor{offer(1, "x", "c", "", ""), offer(2, "y", "c", "", "")}
	needs := []resource.Descriptor{need(10, "x", "c", "", ""), need(11, "z", "c", "", "")}

	got := Resources(offers, needs)
	require.Len(t, got, 4)
	ids := [][2]int64{}
	for _, m := range got {
		ids = append(ids, [2]int64{m.Offer.ID, m.Need.ID})
	}
	assert.Equal(t, [][2]int64{{1, 10}, {1, 11}, {2, 10}, {2, 11}}, ids)
}

func TestCompanies(t *testing.T) {
	requester := &resource.Context{
		Productions: []resource.Descriptor{offer(1, "Pallets", "wood", "", "unit")},
		Wastes:      []resource.Descriptor{offer(2, "PET", "", "plastic", "kg")},
		Needs:       []resource.Descriptor{need(3, "Solvent", "chemicals", "", "l")},
	}
	candidate := &resource.Context{
		Productions: []resource.Descriptor{offer(4, "Used solvent", "chemicals", "", "l")},
		Needs:       []resource.Descriptor{need(5, "Resin", "", "plastic", "kg")},
	}

	r := Companies(requester, candidate)
	require.Len(t, r.Forward, 1)
	require.Len(t, r.Backward, 1)
	assert.Equal(t, int64(2), r.Forward[0].Offer.ID)
	assert.Equal(t, KindFamily, r.Forward[0].Kind)
	assert.Equal(t, KindCategory, r.Backward[0].Kind)
	assert.True(t, r.Backward[0].UnitMatch)
	assert.False(t, r.Empty())
	assert.Len(t, r.All(), 2)
	assert.Equal(t, int64(2), r.All()[0].Offer.ID)

	assert.True(t, Companies(&resource.Context{}, &resource.Context{}).Empty())
}
