package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/symbiose/internal/interaction"
	"github.com/sells-group/symbiose/internal/reason"
	"github.com/sells-group/symbiose/internal/score"
	"github.com/sells-group/symbiose/internal/suggest"
)

func km(v float64) *float64 { return &v }

var base = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func sug(id int64, name, sector string, sc int, dist *float64, status interaction.Status, tags ...string) suggest.Suggestion {
	return suggest.Suggestion{
		Company:       suggest.CompanySummary{ID: id, Name: name, Sector: sector},
		Status:        status,
		DistanceKM:    dist,
		Compatibility: score.Compatibility{Score: sc, Label: score.Classify(sc).Label},
		Tags:          tags,
		Reasons:       []reason.Reason{{Type: reason.TypeInsight, Message: name + " shares several key points with your activity."}},
		Meta:          suggest.Meta{IsFresh: true, CreatedAt: base, UpdatedAt: base.Add(time.Duration(id) * time.Hour)},
	}
}

func fixture() []suggest.Suggestion {
	return []suggest.Suggestion{
		sug(1, "Recyplast", "Recycling", 82, km(3), interaction.StatusNew, "Recycling", "Plastic"),
		sug(2, "Bois & Co", "Wood", 64, km(18), interaction.StatusSaved, "Wood"),
		sug(3, "Acier Sud", "Metal", 82, km(1), interaction.StatusContacted, "Metal"),
		sug(4, "Verre Plus", "Glass", 45, nil, interaction.StatusIgnored, "Glass", "Plastic"),
		sug(5, "Éco Chimie", "", 30, km(42), interaction.StatusNew, "plastic"),
	}
}

func ids(list []suggest.Suggestion) []int64 {
	out := make([]int64, len(list))
	for i, s := range list {
		out[i] = s.Company.ID
	}
	return out
}

func TestFilter(t *testing.T) {
	all := fixture()
	tests := []struct {
		name string
		p    Params
		want []int64
	}{
		{"default excludes ignored", Params{}, []int64{1, 2, 3, 5}},
		{"include ignored", Params{IncludeIgnored: true}, []int64{1, 2, 3, 4, 5}},
		{"status", Params{Status: interaction.StatusSaved}, []int64{2}},
		{"ignored status still needs include", Params{Status: interaction.StatusIgnored}, []int64{}},
		{"ignored status with include", Params{Status: interaction.StatusIgnored, IncludeIgnored: true}, []int64{4}},
		{"min score", Params{MinScore: km(64)}, []int64{1, 2, 3}},
		{"max distance keeps unknown", Params{MaxDistance: km(5), IncludeIgnored: true}, []int64{1, 3, 4}},
		{"tags case-insensitive", Params{Tags: []string{"PLASTIC"}}, []int64{1, 5}},
		{"tags any of", Params{Tags: []string{"wood", "metal"}}, []int64{2, 3}},
		{"search name", Params{Search: "acier"}, []int64{3}},
		{"search sector", Params{Search: "WOOD"}, []int64{2}},
		{"search reason text", Params{Search: "key points"}, []int64{1, 2, 3, 5}},
		{"search no hit", Params{Search: "textile"}, []int64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(Filter(all, tt.p)))
		})
	}
}

func TestSort(t *testing.T) {
	all := fixture()
	tests := []struct {
		mode SortMode
		want []int64
	}{
		{SortScore, []int64{3, 1, 2, 4, 5}},
		{SortDistance, []int64{3, 1, 2, 5, 4}},
		{SortRecent, []int64{5, 4, 3, 2, 1}},
		{SortAlpha, []int64{3, 2, 5, 1, 4}},
		{"", []int64{3, 1, 2, 4, 5}},
	}
	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			assert.Equal(t, tt.want, ids(Sort(all, tt.mode)))
		})
	}
	assert.Equal(t, []int64{1, 2, 3, 4, 5}, ids(all), "input must not be reordered")
}

func TestSort_StableAndIdempotent(t *testing.T) {
	list := []suggest.Suggestion{
		sug(1, "A", "", 50, nil, interaction.StatusNew),
		sug(2, "B", "", 50, nil, interaction.StatusNew),
		sug(3, "C", "", 50, nil, interaction.StatusNew),
	}
	once := Sort(list, SortScore)
	assert.Equal(t, []int64{1, 2, 3}, ids(once))

	p := Params{Sort: SortDistance, MinScore: km(10)}
	first := Query(fixture(), p)
	second := Query(first.Items, p)
	assert.Equal(t, ids(first.Items), ids(second.Items))
}

func TestQuery(t *testing.T) {
	page := Query(fixture(), Params{Sort: SortScore, Limit: 2})
	assert.Equal(t, []int64{3, 1}, ids(page.Items))
	assert.Equal(t, 4, page.Total)
	assert.Equal(t, 5, page.Available)
	assert.Equal(t, 2, page.Limit)

	all := Query(fixture(), Params{Limit: 50})
	assert.Len(t, all.Items, 4)

	empty := Query(nil, Params{Limit: 10})
	assert.Empty(t, empty.Items)
	assert.Equal(t, 0, empty.Available)
}

func TestComputeStats(t *testing.T) {
	list := fixture()
	list[4].Meta.IsFresh = false

	st := ComputeStats(list)
	assert.Equal(t, Summary{Active: 4, NewThisWeek: 1, AwaitingResponse: 3}, st.Summary)
	// (82 + 64 + 82 + 30) / 4 = 64.5
	assert.Equal(t, 65, st.Compatibility.Average)
	assert.Equal(t, 82, st.Compatibility.BestScore)
	assert.Equal(t, Distribution{High: 2, Medium: 1, Low: 1}, st.Compatibility.Distribution)
	assert.Equal(t, map[interaction.Status]int{
		interaction.StatusNew: 2, interaction.StatusSaved: 1,
		interaction.StatusIgnored: 1, interaction.StatusContacted: 1,
	}, st.Status)
}

func TestComputeStats_Empty(t *testing.T) {
	st := ComputeStats(nil)
	assert.Equal(t, 0, st.Compatibility.Average)
	assert.Equal(t, 0, st.Summary.Active)
	assert.Len(t, st.Status, 4)
}

func TestComputeFacets(t *testing.T) {
	f := ComputeFacets(fixture())
	assert.Equal(t, interaction.Statuses, f.Status)
	require.Len(t, f.Compatibility, 3)
	assert.Equal(t, 85, f.Compatibility[0].MinScore)
	require.Len(t, f.Distance, 3)
	assert.InDelta(t, 30, f.Distance[2].MaxDistance, 1e-9)

	assert.Equal(t, []FacetValue{
		{Value: "Metal", Count: 1}, {Value: "Recycling", Count: 1}, {Value: "Wood", Count: 1},
	}, f.Sectors)
	assert.Equal(t, []FacetValue{
		{Value: "Metal", Count: 1}, {Value: "Plastic", Count: 1}, {Value: "Recycling", Count: 1},
		{Value: "Wood", Count: 1}, {Value: "plastic", Count: 1},
	}, f.Tags)
}

func TestComputeFacets_CountOrder(t *testing.T) {
	list := []suggest.Suggestion{
		sug(1, "A", "Wood", 50, nil, interaction.StatusNew, "b", "a"),
		sug(2, "B", "Metal", 50, nil, interaction.StatusNew, "b"),
		sug(3, "C", "Metal", 50, nil, interaction.StatusSaved, "c"),
	}
	f := ComputeFacets(list)
	assert.Equal(t, []FacetValue{{Value: "Metal", Count: 2}, {Value: "Wood", Count: 1}}, f.Sectors)
	assert.Equal(t, []FacetValue{{Value: "b", Count: 2}, {Value: "a", Count: 1}, {Value: "c", Count: 1}}, f.Tags)
}

func TestComputeEngagement(t *testing.T) {
	assert.Equal(t, Engagement{Saved: 1, Contacted: 1, Ignored: 1}, ComputeEngagement(fixture()))
}

func TestBestMatches(t *testing.T) {
	best := BestMatches(fixture(), 3)
	require.Len(t, best, 3)
	assert.Equal(t, int64(3), best[0].Company.ID)
	assert.Equal(t, int64(1), best[1].Company.ID)
	assert.Equal(t, int64(2), best[2].Company.ID)
	assert.Equal(t, "medium", best[2].Label)
	assert.Equal(t, interaction.StatusSaved, best[2].Status)

	assert.Len(t, BestMatches(fixture()[:1], 3), 1)
}
