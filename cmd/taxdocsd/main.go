package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/taxdocs/internal/common"
	"github.com/joseph-ayodele/taxdocs/internal/core"
	"github.com/joseph-ayodele/taxdocs/internal/core/async"
	"github.com/joseph-ayodele/taxdocs/internal/ingest"
	"github.com/joseph-ayodele/taxdocs/internal/repository"
	"github.com/joseph-ayodele/taxdocs/internal/server"
)

func main() {
	cfg := common.LoadConfig()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}
	if len(cfg.Watch.Dirs) == 0 {
		logger.Error("WATCH_DIRS env var is required")
		os.Exit(2)
	}
	if err := repository.ValidateYear(cfg.Watch.Year); err != nil {
		logger.Error("invalid WATCH_YEAR", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := server.ConnectDB(ctx, cfg.Database, false, logger)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	stack, err := core.NewStack(cfg, db, logger)
	if err != nil {
		logger.Error("failed to wire pipeline", "error", err)
		os.Exit(1)
	}

	if err := run(ctx, cfg, db, stack, logger); err != nil {
		logger.Error("taxdocsd stopped with error", "error", err)
		db.Close()
		os.Exit(1)
	}
	logger.Info("taxdocsd stopped")
}

func run(ctx context.Context, cfg *common.Config, db *repository.DB, stack *core.Stack, logger *slog.Logger) error {
	queue := async.NewProcessorQueue(stack.Processor, logger.With("component", "queue"),
		async.WithQueueSize(512),
		async.WithProcessTimeout(cfg.Pipeline.DocumentTimeout),
	)

	api := server.NewAPI(db, stack.TaxYears, stack.Documents, stack.Records, stack.Summary, stack.Export, logger)
	httpSrv := server.NewHTTPServer(cfg.Server.HTTPAddr, api.Router())

	grpcSrv, health := server.NewGRPCServer(logger)
	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		paths, errs, err := ingest.StartWatcher(gctx, ingest.WatchConfig{
			Roots:       cfg.Watch.Dirs,
			InitialScan: true,
			Debounce:    cfg.Watch.Debounce,
			Logger:      logger.With("component", "watcher"),
		})
		if err != nil {
			return err
		}
		server.SetServing(health, true)
		logger.Info("watching for documents", "dirs", cfg.Watch.Dirs, "year", cfg.Watch.Year)
		for paths != nil || errs != nil {
			select {
			case p, ok := <-paths:
				if !ok {
					paths = nil
					continue
				}
				if err := queue.Enqueue(gctx, async.Job{Path: p, Year: cfg.Watch.Year}); err != nil {
					logger.Warn("dropping watched file", "path", p, "error", err)
				}
			case err, ok := <-errs:
				if !ok {
					errs = nil
					continue
				}
				logger.Error("watcher error", "error", err)
			}
		}
		return nil
	})

	g.Go(func() error {
		logger.Info("http listening", "addr", cfg.Server.HTTPAddr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		logger.Info("grpc listening", "addr", cfg.Server.GRPCAddr)
		return grpcSrv.Serve(lis)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down...")
		server.SetServing(health, false)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("http shutdown", "error", err)
		}
		grpcSrv.GracefulStop()
		queue.Shutdown(shutdownCtx)
		return nil
	})

	return g.Wait()
}
