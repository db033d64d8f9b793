package reason

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/symbiose/internal/match"
	"github.com/sells-group/symbiose/internal/resource"
)

func km(v float64) *float64 { return &v }

func link(offer, need string, kind match.Kind, unit bool) match.Match {
	return match.Match{
		Offer:     resource.Descriptor{Name: offer},
		Need:      resource.Descriptor{Name: need},
		Kind:      kind,
		UnitMatch: unit,
	}
}

func contexts(reqSector, candSector string) (*resource.Context, *resource.Context) {
	return &resource.Context{Name: "Recyplast", Sector: reqSector},
		&resource.Context{Name: "Moulding Co", Sector: candSector}
}

func TestBuild_Order(t *testing.T) {
	req, cand := contexts("Recycling", "Plastics")
	got := Build(Input{
		Requester: req,
		Candidate: cand,
		Matches: match.Result{
			Forward: []match.Match{
				link("PET offcuts", "Resin", match.KindFamily, true),
				link("Pallets", "Pallets", match.KindName, false),
				link("Crates", "Crates", match.KindName, false),
			},
			Backward: []match.Match{
				link("Solvent", "Cleaner", match.KindCategory, false),
			},
		},
		DistanceKM: km(3.14159),
	})

	require.Len(t, got, 6)
	assert.Equal(t, Reason{TypeResource, "Your PET offcuts meets Moulding Co's need for Resin (same family)"}, got[0])
	assert.Equal(t, Reason{TypeResource, "Your Pallets meets Moulding Co's need for Pallets"}, got[1])
	assert.Equal(t, Reason{TypeResource, "Their Solvent could cover your need for Cleaner (compatible category)"}, got[2])
	assert.Equal(t, Reason{TypeProximity, "Immediate proximity (3.1 km)"}, got[3])
	assert.Equal(t, Reason{TypeSector, "Complementary sectors: Recycling ↔ Plastics"}, got[4])
	assert.Equal(t, TypeQuantity, got[5].Type)
}

func TestBuild_Proximity(t *testing.T) {
	req, cand := contexts("", "")
	tests := []struct {
		name string
		d    *float64
		want string
	}{
		{"immediate", km(5), "Immediate proximity (5.0 km)"},
		{"short", km(18.26), "Short transport distance (18.3 km)"},
		{"boundary", km(25), "Short transport distance (25.0 km)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Build(Input{Requester: req, Candidate: cand, DistanceKM: tt.d})
			require.Len(t, got, 1)
			assert.Equal(t, Reason{TypeProximity, tt.want}, got[0])
		})
	}
}

func TestBuild_SharedTypesWinOverSectors(t *testing.T) {
	req, cand := contexts("Recycling", "Plastics")
	got := Build(Input{Requester: req, Candidate: cand, SharedTypes: []string{"plasturgie", "logistique"}})
	require.Len(t, got, 1)
	assert.Equal(t, Reason{TypeSector, "Shared expertise: plasturgie, logistique"}, got[0])
}

func TestBuild_Fallback(t *testing.T) {
	req, cand := contexts("Recycling", "Recycling")
	got := Build(Input{
		Requester:  req,
		Candidate:  cand,
		Matches:    match.Result{Forward: []match.Match{}},
		DistanceKM: km(40),
	})
	require.Len(t, got, 1)
	assert.Equal(t, Reason{TypeInsight, "Moulding Co shares several key points with your activity."}, got[0])
}

func TestBuild_Deterministic(t *testing.T) {
	req, cand := contexts("A", "B")
	in := Input{
		Requester: req,
		Candidate: cand,
		Matches:   match.Result{Backward: []match.Match{link("x", "y", match.KindName, true)}},
	}
	assert.Equal(t, Build(in), Build(in))
}
