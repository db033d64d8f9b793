package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/symbiose/internal/config"
	"github.com/sells-group/symbiose/internal/interaction"
	"github.com/sells-group/symbiose/internal/suggest"
)

const fixtureYAML = `
companies:
  - id: 1
    owner_id: 10
    name: Recyplast
    sector: Recycling
    latitude: 43.3
    longitude: 5.4
    validation_status: validated
    outputs:
      - id: 100
        name: PET flakes
        family: Plastic
        unit: kg
        is_waste: true
  - id: 2
    owner_id: 20
    name: Moulding Co
    sector: Plasturgie
    latitude: 43.3
    longitude: 5.4
    validation_status: validated
    inputs:
      - id: 200
        name: Resin
        family: plastic
        unit: KG
  - id: 3
    owner_id: 30
    name: Pending Co
    validation_status: pending
    inputs:
      - id: 300
        name: Resin
        family: Plastic
`

// useConfig installs a memory-backed configuration reading the fixture.
func useConfig(t *testing.T) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "companies.yaml")
	require.NoError(t, os.WriteFile(path, []byte(fixtureYAML), 0644))

	c := &config.Config{}
	c.Store.Driver = "memory"
	c.Directory = config.DirectoryConfig{Source: "fixture", FixturePath: path, EligibleStatuses: []string{"validated", "approved", "active"}}
	c.Cache = config.CacheConfig{Driver: "memory", TTLSecs: 60, MaxEntries: 10}
	c.Matching = config.MatchingConfig{MinScore: 30, FreshnessDays: 7, DefaultLimit: 25, MaxLimit: 100, MaxDistanceKM: 500}
	c.Server = config.ServerConfig{Port: 8080, RateLimitRPS: 10, RateLimitBurst: 20}
	c.Retry = config.RetryConfig{MaxAttempts: 1}

	prev := cfg
	cfg = c
	t.Cleanup(func() { cfg = prev })
}

func TestInitEngine_Fixture(t *testing.T) {
	useConfig(t)
	ctx := context.Background()

	env, err := initEngine(ctx, "suggest")
	require.NoError(t, err)
	defer env.Close()

	assert.Equal(t, 25, env.Limits.DefaultLimit)

	res, err := env.Engine.Compute(ctx, 10, suggest.Options{Persist: true})
	require.NoError(t, err)
	require.Len(t, res.Suggestions, 1)
	s := res.Suggestions[0]
	assert.Equal(t, int64(2), s.Company.ID)
	// resource 40 + proximity 30 + quantity 20 + sector 4
	assert.Equal(t, 94, s.Compatibility.Score)
	assert.Equal(t, interaction.StatusNew, s.Status)

	stored, err := env.Interactions.ListForUser(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestInitEngine_MissingProfile(t *testing.T) {
	useConfig(t)
	env, err := initEngine(context.Background(), "suggest")
	require.NoError(t, err)
	defer env.Close()

	_, err = env.Engine.Compute(context.Background(), 999, suggest.Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), suggest.MissingProfileMessage)
}

func TestInitEngine_RedisCache(t *testing.T) {
	useConfig(t)
	mr := miniredis.RunT(t)
	cfg.Cache.Driver = "redis"
	cfg.Redis.Addr = mr.Addr()

	env, err := initEngine(context.Background(), "suggest")
	require.NoError(t, err)
	defer env.Close()

	_, err = env.Engine.Compute(context.Background(), 10, suggest.Options{})
	require.NoError(t, err)
	assert.NotEmpty(t, mr.Keys(), "candidate list should be cached in redis")
}

func TestInitEngine_NoCache(t *testing.T) {
	useConfig(t)
	cfg.Cache.Driver = "none"

	env, err := initEngine(context.Background(), "suggest")
	require.NoError(t, err)
	defer env.Close()

	res, err := env.Engine.Compute(context.Background(), 10, suggest.Options{})
	require.NoError(t, err)
	assert.Len(t, res.Suggestions, 1)
}

func TestInitEngine_InvalidConfig(t *testing.T) {
	useConfig(t)
	cfg.Matching.MinScore = 200

	_, err := initEngine(context.Background(), "suggest")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "matching.min_score")
}

func TestInitEngine_MissingFixture(t *testing.T) {
	useConfig(t)
	cfg.Directory.FixturePath = filepath.Join(t.TempDir(), "missing.yaml")

	_, err := initEngine(context.Background(), "suggest")
	assert.Error(t, err)
}

func TestInitStore_SQLite(t *testing.T) {
	useConfig(t)
	cfg.Store.Driver = "sqlite"
	cfg.Store.DatabaseURL = filepath.Join(t.TempDir(), "symbiose.db")

	st, pool, err := initStore(context.Background())
	require.NoError(t, err)
	defer st.Close() //nolint:errcheck
	assert.Nil(t, pool)
	assert.NoError(t, st.Migrate(context.Background()))
}

func TestInitStore_Unsupported(t *testing.T) {
	useConfig(t)
	cfg.Store.Driver = "mysql"

	_, _, err := initStore(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported store driver")
}
