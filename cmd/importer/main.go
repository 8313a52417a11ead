// Command importer runs a grid import from the command line, for seeding a
// database before the server starts or for scheduled refreshes.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/climascope/climate-grid-engine/internal/adapter/openmeteo"
	"github.com/climascope/climate-grid-engine/internal/config"
	"github.com/climascope/climate-grid-engine/internal/domain"
	"github.com/climascope/climate-grid-engine/internal/ingest"
	"github.com/climascope/climate-grid-engine/internal/observability"
	"github.com/climascope/climate-grid-engine/internal/store"
)

func main() {
	points := flag.Int("points", 50, "number of default lattice points to import")
	source := flag.String("source", domain.SourceCMIP6, "indicator source to import")
	scenarios := flag.String("scenarios", "", "comma-separated scenario ids, empty for all")
	periods := flag.String("periods", "", "comma-separated time period ids, empty for all")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if cfg.DatabaseURL == "" {
		slog.Error("DATABASE_URL is required, an in-memory import would be discarded")
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pg, err := store.OpenPostgres(cfg.DatabaseURL, cfg.BunDebug)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer pg.Close()
	if err := pg.EnsureSchema(ctx); err != nil {
		logger.Error("failed to ensure schema", "error", err)
		os.Exit(1)
	}

	client := openmeteo.NewClient(cfg.ProviderBaseURL, cfg.ProviderModels, cfg.ProviderTimeout, metrics, logger)
	provider := openmeteo.NewCachedProvider(client, domain.Clock(), cfg.BaselineCacheTTL, metrics)
	pipeline := ingest.New(provider, pg, nil, logger, metrics, cfg.FetchDelay, cfg.ProviderModels)

	opts := ingest.Options{
		Source:    *source,
		Locations: ingest.DefaultLocations(*points),
	}
	for _, id := range splitIDs(*scenarios) {
		opts.Scenarios = append(opts.Scenarios, domain.ScenarioByID(id))
	}
	for _, id := range splitIDs(*periods) {
		opts.Periods = append(opts.Periods, domain.TimePeriodByID(id))
	}

	summary, err := pipeline.Run(ctx, opts, func(line string) {
		fmt.Println(line)
	})
	if err != nil {
		logger.Warn("import interrupted", "error", err)
	}

	out, _ := json.Marshal(summary)
	fmt.Println(string(out))
	if summary.Errors > 0 {
		os.Exit(1)
	}
}

func splitIDs(list string) []string {
	var out []string
	for _, part := range strings.Split(list, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
