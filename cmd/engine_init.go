package main

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/symbiose/internal/company"
	"github.com/sells-group/symbiose/internal/db"
	"github.com/sells-group/symbiose/internal/interaction"
	"github.com/sells-group/symbiose/internal/query"
	"github.com/sells-group/symbiose/internal/resilience"
	"github.com/sells-group/symbiose/internal/suggest"
)

const redisKeyPrefix = "symbiose:"

// engineEnv holds the wired engine and the resources behind it.
type engineEnv struct {
	Interactions interaction.Store
	Companies    company.Provider
	Engine       *suggest.Engine
	Limits       query.Limits

	redis *redis.Client
}

// Close releases resources held by the engine environment.
func (e *engineEnv) Close() {
	if e.redis != nil {
		_ = e.redis.Close()
	}
	if e.Interactions != nil {
		_ = e.Interactions.Close()
	}
}

// initEngine validates the config for mode, opens the stores, migrates the
// interaction table and builds the Engine. Callers should defer env.Close().
func initEngine(ctx context.Context, mode string) (*engineEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	st, pool, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	env := &engineEnv{Interactions: st}

	if err := st.Migrate(ctx); err != nil {
		env.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	directory, err := initDirectory(pool)
	if err != nil {
		env.Close()
		return nil, err
	}

	cache, err := initCache(ctx, env)
	if err != nil {
		env.Close()
		return nil, err
	}
	env.Companies = company.NewCachedProvider(directory, cache)

	env.Engine = suggest.NewEngine(env.Companies, st, suggest.Config{
		MinScore:         cfg.Matching.MinScore,
		FreshnessWindow:  cfg.Matching.FreshnessWindow(),
		EligibleStatuses: cfg.Directory.EligibleStatuses,
		Retry:            resilience.FromConfig(cfg.Retry.MaxAttempts, cfg.Retry.InitialBackoffMs),
	})
	env.Limits = query.Limits{
		DefaultLimit:  cfg.Matching.DefaultLimit,
		MaxLimit:      cfg.Matching.MaxLimit,
		MaxDistanceKM: cfg.Matching.MaxDistanceKM,
	}

	zap.L().Info("engine initialized",
		zap.String("store", cfg.Store.Driver),
		zap.String("directory", cfg.Directory.Source),
		zap.String("cache", cfg.Cache.Driver),
	)
	return env, nil
}

// initStore opens the interaction store. The pgx pool is returned for the
// postgres driver so the company directory can share it.
func initStore(ctx context.Context) (interaction.Store, *pgxpool.Pool, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "symbiose.db"
		}
		st, err := interaction.NewSQLite(dsn)
		if err != nil {
			return nil, nil, err
		}
		return st, nil, nil
	case "postgres":
		pool, err := db.Connect(ctx, cfg.Store.DatabaseURL, cfg.Store.Pool())
		if err != nil {
			return nil, nil, err
		}
		return interaction.NewPostgresStore(pool, pool.Close), pool, nil
	case "memory":
		return interaction.NewMemoryStore(), nil, nil
	default:
		return nil, nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

func initDirectory(pool *pgxpool.Pool) (company.Provider, error) {
	switch cfg.Directory.Source {
	case "fixture":
		st, err := company.LoadFixture(cfg.Directory.FixturePath)
		if err != nil {
			return nil, err
		}
		return st, nil
	case "postgres":
		if pool == nil {
			return nil, eris.New("postgres directory requires the postgres store driver")
		}
		return company.NewPostgresStore(pool), nil
	default:
		return nil, eris.Errorf("unsupported directory source: %s", cfg.Directory.Source)
	}
}

func initCache(ctx context.Context, env *engineEnv) (company.CandidateCache, error) {
	switch cfg.Cache.Driver {
	case "none":
		return nil, nil
	case "memory":
		return company.NewMemoryCache(cfg.Cache.MaxEntries, cfg.Cache.TTL()), nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, eris.Wrap(err, "redis ping")
		}
		env.redis = client
		return company.NewRedisCache(client, redisKeyPrefix, cfg.Cache.TTL()), nil
	default:
		return nil, eris.Errorf("unsupported cache driver: %s", cfg.Cache.Driver)
	}
}
