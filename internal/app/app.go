// Package app builds the lookup service from configuration. Both binaries
// share it so the server and the CLI log searches the same way.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/sheetlookup/internal/config"
	"github.com/JonMunkholm/sheetlookup/internal/core"
	"github.com/JonMunkholm/sheetlookup/internal/searchlog"
	"github.com/JonMunkholm/sheetlookup/internal/sheet"
	"github.com/JonMunkholm/sheetlookup/internal/source"
)

// App holds the wired service and the resources it owns.
type App struct {
	Service  *core.Service
	Recorder *searchlog.Recorder

	pool *pgxpool.Pool
}

// New wires an App. A nil fetcher downloads cfg.Sheet.URL over HTTP.
func New(ctx context.Context, cfg *config.Config, fetcher core.Fetcher) (*App, error) {
	a := &App{}

	sink, err := a.openSink(ctx, cfg.SearchLog)
	if err != nil {
		return nil, err
	}

	var deliverer *searchlog.Deliverer
	if cfg.SearchLog.Endpoint != "" {
		deliverer = searchlog.NewDeliverer(cfg.SearchLog.Endpoint, nil, cfg.SearchLog.Timeout)
	}
	a.Recorder = searchlog.NewRecorder(deliverer, sink)

	if fetcher == nil {
		fetcher = source.NewFetcher(cfg.Sheet.URL, nil, cfg.Sheet.FetchTimeout, cfg.Sheet.MaxBytes)
	}
	a.Service = core.NewService(fetcher, HeaderMatch(cfg.Lookup), a.Recorder)

	slog.Info("search log configured",
		"remote", a.Recorder.Remote(),
		"store", storeName(a.pool),
	)
	return a, nil
}

func (a *App) openSink(ctx context.Context, cfg config.SearchLogConfig) (searchlog.Sink, error) {
	if cfg.DatabaseURL == "" {
		return searchlog.NewMemorySink(cfg.MemoryLimit), nil
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect search log database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping search log database: %w", err)
	}

	sink, err := searchlog.NewPostgresSink(ctx, pool)
	if err != nil {
		pool.Close()
		return nil, err
	}

	if u, err := url.Parse(cfg.DatabaseURL); err == nil {
		slog.Info("connected to search log database", "name", strings.TrimPrefix(u.Path, "/"))
	}
	a.pool = pool
	return sink, nil
}

// FlushConfig returns the flusher settings from cfg.
func FlushConfig(cfg config.SearchLogConfig) searchlog.FlushConfig {
	return searchlog.FlushConfig{
		Interval:  cfg.FlushInterval,
		Batch:     cfg.FlushBatch,
		Retention: cfg.Retention(),
	}
}

// HeaderMatch turns the configured header substrings into a matcher.
func HeaderMatch(cfg config.LookupConfig) sheet.HeaderMatch {
	return sheet.HeaderMatch{
		Key:    lower(cfg.KeyHeaders),
		Remark: lower(cfg.RemarkHeaders),
		Name:   lower(cfg.NameHeaders),
	}
}

func lower(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func storeName(pool *pgxpool.Pool) string {
	if pool != nil {
		return "postgres"
	}
	return "memory"
}

// Close releases the database pool, if any.
func (a *App) Close() {
	if a.pool != nil {
		a.pool.Close()
	}
}
