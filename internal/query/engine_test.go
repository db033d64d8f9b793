package query

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/symbiose/internal/company"
	"github.com/sells-group/symbiose/internal/interaction"
	"github.com/sells-group/symbiose/internal/resilience"
	"github.com/sells-group/symbiose/internal/suggest"
)

func coord(v float64) *float64 { return &v }

// resinBuyer needs plastic and sits about 3 km north of the requester.
func resinBuyer(id int64, name string) company.Company {
	return company.Company{
		ID: id, OwnerID: id * 10, Name: name, Sector: "Plastics",
		Latitude: coord(45.027), Longitude: coord(5),
		ValidationStatus: company.StatusActive,
		Inputs:           []company.Input{{ID: id*100 + 1, Name: "Resin", Family: "plastic", Unit: "kg"}},
	}
}

func newEngine(t *testing.T) *suggest.Engine {
	t.Helper()
	requester := company.Company{
		ID: 1, OwnerID: 1, Name: "Recyplast", Sector: "Recycling",
		Latitude: coord(45), Longitude: coord(5),
		ValidationStatus: company.StatusValidated,
		Outputs: []company.Output{
			{ID: 11, Name: "PET offcuts", Family: "Plastic", Unit: "kg", IsWaste: true},
		},
	}
	companies := company.NewMemoryStore(requester, resinBuyer(2, "Moulding Co"), resinBuyer(3, "Injecta"))

	cfg := suggest.DefaultConfig()
	cfg.Retry = resilience.RetryConfig{MaxAttempts: 1}
	return suggest.NewEngine(companies, interaction.NewMemoryStore(), cfg)
}

func itemIDs(p Page) []int64 {
	ids := make([]int64, 0, len(p.Items))
	for _, s := range p.Items {
		ids = append(ids, s.Company.ID)
	}
	return ids
}

func TestQuery_IgnoredAfterRecompute(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	res, err := e.Compute(ctx, 1, suggest.Options{Persist: true})
	require.NoError(t, err)
	require.Len(t, res.Suggestions, 2)

	_, err = e.SetInteractionStatus(ctx, 1, 2, interaction.StatusIgnored, "")
	require.NoError(t, err)

	res, err = e.Compute(ctx, 1, suggest.Options{Persist: true})
	require.NoError(t, err)
	require.Len(t, res.Suggestions, 2)

	params, err := ParseParams(nil, DefaultLimits())
	require.NoError(t, err)
	page := Query(res.Suggestions, params)
	assert.Equal(t, []int64{3}, itemIDs(page))
	assert.Equal(t, 1, page.Total)
	assert.Equal(t, 2, page.Available)

	params.IncludeIgnored = true
	page = Query(res.Suggestions, params)
	assert.ElementsMatch(t, []int64{2, 3}, itemIDs(page))
	assert.Equal(t, 2, page.Total)
	for _, s := range page.Items {
		if s.Company.ID == 2 {
			assert.Equal(t, interaction.StatusIgnored, s.Status)
		} else {
			assert.Equal(t, interaction.StatusNew, s.Status)
		}
	}
}
