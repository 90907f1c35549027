package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/runnerr0/vitalsmon/internal/config"
	"github.com/runnerr0/vitalsmon/internal/httpapi"
	"github.com/runnerr0/vitalsmon/internal/ingest"
	"github.com/runnerr0/vitalsmon/internal/report"
	"github.com/runnerr0/vitalsmon/internal/storage"
)

// Execute implements the go-flags Commander interface for ServeCommand.
func (c *ServeCommand) Execute(args []string) error {
	store, db, cfg, err := openStore(c.globals)
	if err != nil {
		return err
	}
	defer db.Close()
	defer store.Close()

	logger, err := newLogger(cfg, c.globals)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	if c.Host != "" {
		cfg.Server.Host = c.Host
	}
	if c.Port != 0 {
		cfg.Server.Port = c.Port
	}

	srv := c.buildServer(cfg, store, logger, prometheus.NewRegistry())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("vitalsmon starting",
		zap.String("version", c.version),
		zap.String("addr", cfg.Server.Addr()),
	)
	return srv.ListenAndServe(ctx, cfg.Server.Addr(),
		time.Duration(cfg.Server.ReadTimeoutSeconds)*time.Second,
		time.Duration(cfg.Server.WriteTimeoutSeconds)*time.Second,
	)
}

// buildServer wires the ingestion service, report engine and HTTP layer.
func (c *ServeCommand) buildServer(cfg *config.Config, store storage.Store, logger *zap.Logger, reg *prometheus.Registry) *httpapi.Server {
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	svc := ingest.NewService(store,
		ingest.NewValidator(cfg.Ingest.AllowedHosts),
		ingest.NewMetrics(reg),
		logger.Named("ingest"),
	)

	return httpapi.New(svc, report.NewEngine(store), store, httpapi.Options{
		Logger:         logger.Named("http"),
		Gatherer:       reg,
		CORSOrigins:    cfg.Ingest.CORSOrigins,
		RateLimit:      cfg.Ingest.RateLimit,
		Burst:          cfg.Ingest.Burst,
		MaxRequestSize: cfg.Server.MaxRequestSize,
		QueryTimeout:   time.Duration(cfg.Query.TimeoutSeconds) * time.Second,
	})
}
