package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/fundament-io/fundament/internal/archive"
	"github.com/fundament-io/fundament/internal/fetcher"
	"github.com/fundament-io/fundament/internal/refdata"
	"github.com/fundament-io/fundament/internal/stock"
	"github.com/fundament-io/fundament/internal/store"
	"github.com/fundament-io/fundament/pkg/polygon"
)

// env bundles the wired subsystems a command needs.
type env struct {
	Store   store.Store
	Refdata *refdata.Store
	Archive *archive.Manager
	Service *stock.Service
}

func (e *env) Close() {
	if e.Store != nil {
		e.Store.Close() //nolint:errcheck
	}
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "fundament.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

func initEnv(ctx context.Context) (*env, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}

	matcher := refdata.NewMatcher(cfg.Fuzzy.Threshold, cfg.Fuzzy.Margin)
	ref, err := refdata.Load(cfg.Data.RefdataDir, matcher)
	if err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}

	f := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent:    cfg.EDGAR.UserAgent,
		RateLimiters: fetcher.DefaultRateLimiters(),
	})
	arch := archive.NewManager(f, st, cfg.Data.Dir, cfg.EDGAR.MaxStaleDays)

	var market polygon.Client
	if cfg.Polygon.Key != "" {
		opts := []polygon.Option{}
		if cfg.Polygon.BaseURL != "" {
			opts = append(opts, polygon.WithBaseURL(cfg.Polygon.BaseURL))
		}
		market = polygon.NewClient(cfg.Polygon.Key, opts...)
	}

	return &env{
		Store:   st,
		Refdata: ref,
		Archive: arch,
		Service: stock.NewService(st, ref, market, arch),
	}, nil
}
