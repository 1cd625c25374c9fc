// Command pmccscan runs the PMCC opportunity scanner: either a single scan
// (-once) or a daemon that runs the scan on a daily cron schedule while
// serving a status HTTP API, mirroring the startup/shutdown sequence of
// the teacher's cmd/server/main.go.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/pmccscan/pmccscan/internal/ai"
	"github.com/pmccscan/pmccscan/internal/archive"
	"github.com/pmccscan/pmccscan/internal/config"
	"github.com/pmccscan/pmccscan/internal/domain"
	"github.com/pmccscan/pmccscan/internal/export"
	"github.com/pmccscan/pmccscan/internal/httpapi"
	"github.com/pmccscan/pmccscan/internal/logx"
	"github.com/pmccscan/pmccscan/internal/options"
	"github.com/pmccscan/pmccscan/internal/providers/claude"
	"github.com/pmccscan/pmccscan/internal/providers/fundamentals"
	"github.com/pmccscan/pmccscan/internal/providers/quotes"
	"github.com/pmccscan/pmccscan/internal/router"
	"github.com/pmccscan/pmccscan/internal/scanner"
	"github.com/pmccscan/pmccscan/internal/screener"
)

func main() {
	once := flag.Bool("once", false, "run a single scan and exit instead of starting the daemon")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logx.New(logx.Config{Level: "info", Pretty: true}).Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logx.New(logx.Config{Level: cfg.LogLevel, Pretty: cfg.DevMode})
	log.Info().Msg("starting pmccscan")

	app, err := wire(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to wire dependencies")
	}

	if *once {
		runAndExport(context.Background(), app, log)
		return
	}

	runDaemon(app, cfg, log)
}

// application bundles the pieces a scan run needs; built once at startup
// and reused for every run thereafter.
type application struct {
	scanner  *scanner.Scanner
	archiver *archive.Archiver
	rtr      *router.Router
	dataDir  string
}

func wire(cfg *config.Config, log zerolog.Logger) (*application, error) {
	rtr := router.New(router.Config{
		CircuitBreakerThreshold: cfg.CircuitBreakerThreshold,
		CircuitBreakerCooldown:  cfg.CircuitBreakerCooldown,
		MaxRetries:              cfg.MaxRetries,
		RetryBackoffBase:        cfg.RetryBackoffBase,
		AdapterConcurrency:      cfg.AdapterConcurrency,
	}, log)

	if cfg.MarketDataAPIToken != "" {
		rtr.Register(quotes.New(cfg.MarketDataAPIToken, log))
	}
	if cfg.EODHDAPIToken != "" {
		rtr.Register(fundamentals.New(cfg.EODHDAPIToken, log))
	}
	if cfg.ClaudeAPIKey != "" {
		rtr.Register(claude.New(cfg.ClaudeAPIKey, cfg.ClaudeModel, log))
	}

	cache, err := screener.OpenCache(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	scr := screener.New(rtr, cache, cfg.ScreeningCacheTTL, log)

	augmentor := ai.New(rtr, ai.Config{
		Enabled:           cfg.ClaudeAPIKey != "",
		DailyCostLimitUSD: cfg.ClaudeDailyCostLimitUSD,
		MinCompleteness:   cfg.ClaudeMinCompleteness,
		PoolSize:          cfg.AIPoolSize,
	}, log)

	criteria := options.Criteria{
		LEAPSMinDTE:          cfg.LEAPSMinDTE,
		LEAPSMaxDTE:          cfg.LEAPSMaxDTE,
		LEAPSMinDelta:        cfg.LEAPSMinDelta,
		LEAPSMaxDelta:        cfg.LEAPSMaxDelta,
		LEAPSMaxSpreadPct:    cfg.LEAPSMaxSpreadPct,
		LEAPSMinOpenInterest: cfg.LEAPSMinOpenInterest,
		ShortMinDTE:          cfg.ShortMinDTE,
		ShortMaxDTE:          cfg.ShortMaxDTE,
		ShortMinDelta:        cfg.ShortMinDelta,
		ShortMaxDelta:        cfg.ShortMaxDelta,
		ShortMaxSpreadPct:    cfg.ShortMaxSpreadPct,
		ShortMinOpenInterest: cfg.ShortMinOpenInterest,
		MinRiskReward:        cfg.MinRiskReward,
		MaxPairsPerSide:      cfg.MaxPairsPerSide,
	}

	sc := scanner.New(rtr, scr, augmentor, criteria, scanner.Config{
		MaxStocksToScreen: cfg.MaxStocksToScreen,
		MaxOpportunities:  cfg.MaxOpportunities,
		MinTotalScore:     cfg.MinTotalScore,
		WorkerPoolSize:    cfg.WorkerPoolSize,
	}, log)

	archiver, err := archive.New(context.Background(), archive.Config{
		Bucket:          cfg.ArchiveBucket,
		Region:          cfg.ArchiveRegion,
		Endpoint:        cfg.ArchiveEndpoint,
		AccessKeyID:     cfg.ArchiveAccessKeyID,
		SecretAccessKey: cfg.ArchiveSecretAccessKey,
	}, log)
	if err != nil {
		return nil, err
	}

	return &application{scanner: sc, archiver: archiver, rtr: rtr, dataDir: cfg.DataDir}, nil
}

// runAndExport runs one scan, writes its export files, and best-effort
// archives them — used by both -once mode and the daily cron job.
func runAndExport(ctx context.Context, app *application, log zerolog.Logger) {
	result, err := app.scanner.Run(ctx, domain.ScreeningCriteria{})
	if err != nil {
		log.Error().Err(err).Msg("scan run failed")
		return
	}

	log.Info().
		Str("scan_id", result.ScanID).
		Int("opportunities", len(result.TopOpportunities)).
		Dur("duration", result.Duration()).
		Msg("scan completed")

	jsonPath, csvPath, err := export.WriteRun(app.dataDir, result)
	if err != nil {
		log.Error().Err(err).Msg("failed to write export files")
		return
	}

	if warnings := app.archiver.UploadRun(ctx, jsonPath, csvPath); len(warnings) > 0 {
		for _, w := range warnings {
			log.Warn().Str("scan_id", result.ScanID).Msg(w)
		}
	}
}

func runDaemon(app *application, cfg *config.Config, log zerolog.Logger) {
	statusServer := httpapi.New(httpapi.Config{Port: cfg.Port, DevMode: cfg.DevMode}, app.rtr, log)

	go func() {
		if err := statusServer.Start(); err != nil {
			log.Error().Err(err).Msg("status server stopped")
		}
	}()
	log.Info().Int("port", cfg.Port).Msg("status server started")

	c := cron.New()
	if _, err := c.AddFunc("@daily", func() {
		runAndExport(context.Background(), app, log)
	}); err != nil {
		log.Fatal().Err(err).Msg("failed to register daily scan job")
	}
	c.Start()
	log.Info().Msg("daily scan scheduled")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")

	cronCtx := c.Stop()
	<-cronCtx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := statusServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("status server forced to shutdown")
	}

	log.Info().Msg("stopped")
}
