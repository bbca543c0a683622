// Package exporter runs a complete rank export: page through the API,
// write the CSV and report the outcome.
package exporter

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/apamidi800/rank-export/pkg/cache"
	"github.com/apamidi800/rank-export/pkg/client"
	"github.com/apamidi800/rank-export/pkg/config"
	"github.com/apamidi800/rank-export/pkg/export"
	"github.com/apamidi800/rank-export/pkg/keyword"
	"github.com/apamidi800/rank-export/pkg/logging"
	"github.com/apamidi800/rank-export/pkg/metrics"
	"github.com/apamidi800/rank-export/pkg/pagination"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/redis/go-redis/v9"
)

// pingTimeout bounds the Redis reachability check.
const pingTimeout = 5 * time.Second

// Summary describes a finished export.
type Summary struct {
	Output      string
	Records     int
	Pages       int
	CachedPages int
	Cache       bool
	Duration    time.Duration
}

// Run performs one export as configured by cfg. The summary table is
// printed to out when out is not nil.
//
// The output file is only written when every page was fetched and parsed.
// When a Pushgateway is configured metrics are pushed whether or not the
// export succeeded.
func Run(ctx context.Context, cfg *config.Config, out io.Writer) (*Summary, error) {
	logger := logging.NewLogger("exporter")
	start := time.Now()

	if cfg.Metrics.PushgatewayURL != "" {
		defer func() {
			pushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
			defer cancel()
			if err := metrics.Push(pushCtx, cfg.Metrics.PushgatewayURL, cfg.Metrics.Job, nil); err != nil {
				logger.Warn().Err(err).Msg("Failed to push metrics")
			}
		}()
	}

	pageCache, closeCache := openCache(ctx, cfg.Cache)
	defer closeCache()

	c, err := client.New(client.Config{
		BaseURL:     cfg.API.BaseURL,
		AccessToken: cfg.API.AccessToken,
		StartDate:   cfg.API.StartDate,
		EndDate:     cfg.API.EndDate,
		Engine:      cfg.API.Engine,
		Market:      cfg.API.Market,
		Devices:     cfg.API.Devices,
		Timeout:     cfg.API.Timeout,
		UserAgent:   "rank-export/" + Version,
		Cache:       pageCache,
	})
	if err != nil {
		return nil, err
	}
	defer c.Close()

	loop := pagination.NewLoop(c, pagination.Config{
		Limit: cfg.API.Limit,
		Defaults: keyword.Defaults{
			Device: cfg.Defaults.Device,
			Engine: cfg.Defaults.Engine,
		},
	})

	result, err := loop.Run(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Export aborted, no output written")
		return nil, err
	}

	columns := export.Columns(cfg.Output.EngineDeviceColumns)
	n, err := export.WriteFile(cfg.Output.Path, columns, result.Records)
	if err != nil {
		logger.Error().Err(err).Str("output", cfg.Output.Path).Msg("Failed to write output")
		return nil, fmt.Errorf("write output: %w", err)
	}
	metrics.RecordSuccess(n)

	if n == 0 {
		logger.Warn().Str("output", cfg.Output.Path).Msg("No records returned, wrote header only")
	}

	summary := &Summary{
		Output:      cfg.Output.Path,
		Records:     n,
		Pages:       result.Pages,
		CachedPages: result.CachedPages,
		Cache:       pageCache != nil,
		Duration:    time.Since(start),
	}

	logger.Info().
		Int("records", summary.Records).
		Int("pages", summary.Pages).
		Int("cached_pages", summary.CachedPages).
		Str("output", summary.Output).
		Dur("duration", summary.Duration).
		Msg("Export complete")

	if out != nil {
		PrintSummary(out, summary)
	}

	return summary, nil
}

// openCache connects the page cache when Redis is configured.
// An unreachable Redis is not fatal: the export runs uncached.
func openCache(ctx context.Context, cfg config.CacheConfig) (*cache.Manager, func()) {
	if cfg.RedisAddr == "" {
		return nil, func() {}
	}

	logger := logging.NewLogger("exporter")

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		logger.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("Redis unreachable, running without page cache")
		redisClient.Close()
		return nil, func() {}
	}

	logger.Debug().Str("addr", cfg.RedisAddr).Dur("ttl", cfg.TTL).Msg("Page cache enabled")

	return cache.NewManager(redisClient, cfg.TTL), func() { redisClient.Close() }
}

// PrintSummary renders s as a table.
func PrintSummary(out io.Writer, s *Summary) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Output", "Records", "Pages", "Cached pages", "Duration"})
	t.AppendRow(table.Row{s.Output, s.Records, s.Pages, s.CachedPages, s.Duration.Round(time.Millisecond)})
	t.Render()
}
