package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/custody-tracker/internal/auth"
	"github.com/joseph-ayodele/custody-tracker/internal/common"
	"github.com/joseph-ayodele/custody-tracker/internal/contextbuilder"
	"github.com/joseph-ayodele/custody-tracker/internal/core"
	"github.com/joseph-ayodele/custody-tracker/internal/core/async"
	"github.com/joseph-ayodele/custody-tracker/internal/llm"
	"github.com/joseph-ayodele/custody-tracker/internal/llm/openai"
	"github.com/joseph-ayodele/custody-tracker/internal/logging"
	"github.com/joseph-ayodele/custody-tracker/internal/notify"
	repo "github.com/joseph-ayodele/custody-tracker/internal/repository"
	svc "github.com/joseph-ayodele/custody-tracker/internal/server"
)

func main() {
	configPath := flag.String("config", "", "path to a TOML config file")
	flag.Parse()

	cfg, err := common.LoadConfig(*configPath)
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(2)
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logging:", err)
		os.Exit(2)
	}
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("custodyd.exit", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *common.Config, logger *slog.Logger) error {
	if cfg.Database.DSN == "" {
		// sqlite has no row-level claim across processes; one daemon per file
		if err := os.MkdirAll(filepath.Dir(cfg.Database.SQLitePath), 0o755); err != nil {
			return fmt.Errorf("create data dir: %w", err)
		}
		lock := flock.New(cfg.Database.SQLitePath + ".lock")
		ok, err := lock.TryLock()
		if err != nil {
			return fmt.Errorf("acquire lock: %w", err)
		}
		if !ok {
			return errors.New("another custodyd instance is already using " + cfg.Database.SQLitePath)
		}
		defer func() { _ = lock.Unlock() }()
	}

	db, err := openDB(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer repo.Close(db, logger)

	if err := repo.HealthCheck(ctx, db, 5*time.Second, logger); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	if err := repo.Migrate(ctx, db, logger); err != nil {
		return err
	}
	store := repo.NewStore(db, logger)

	completer := openai.NewClient(openai.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout.Duration + 5*time.Second,
	}, logger)
	invoker, err := llm.NewInvoker(completer, logger, llm.WithTimeout(cfg.LLM.Timeout.Duration))
	if err != nil {
		return err
	}

	broker := notify.NewBroker(logger)
	opts := []core.Option{
		core.WithInvokeAttempts(cfg.Pipeline.InvokeAttempts),
		core.WithCommitAttempts(cfg.Pipeline.CommitAttempts),
		core.WithRequireProcessedEvidence(cfg.Pipeline.RequireProcessedEvidence),
	}
	g, gctx := errgroup.WithContext(ctx)
	if db.Pool != nil {
		// the status trigger feeds the broker, so every replica sees every transition
		listener := notify.NewPGListener(db.Pool, store.Q().Jobs.Get, broker, logger)
		g.Go(func() error { return listener.Run(gctx) })
	} else {
		opts = append(opts, core.WithPublisher(broker))
	}
	proc := core.NewProcessor(logger, store, contextbuilder.New(), invoker, opts...)

	queue := async.NewProcessorQueue(proc, logger,
		async.WithWorkers(cfg.Pipeline.Workers),
		async.WithQueueSize(cfg.Pipeline.QueueSize),
		async.WithProcessTimeout(cfg.Pipeline.JobTimeout.Duration),
	)
	proc.SetQueue(queue)

	reaper := core.NewReaper(proc, cfg.Pipeline.StuckAfter.Duration, cfg.Pipeline.ReaperInterval.Duration, logger)
	g.Go(func() error { return reaper.Run(gctx) })

	if n, err := proc.RecoverPending(ctx); err != nil {
		logger.Warn("custodyd.recover.failed", "recovered", n, "error", err)
	}

	service := svc.NewCustodyService(store, proc, broker, []byte(cfg.Auth.Secret), cfg.Auth.TokenTTL.Duration, logger)
	grpcServer, healthServer := svc.NewGRPCServer(service, auth.NewInterceptors([]byte(cfg.Auth.Secret), logger, svc.PublicMethods()...))

	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.Server.GRPCAddr, err)
	}
	logger.Info("custodyd.listening", "addr", cfg.Server.GRPCAddr, "dialect", db.Dialect())
	g.Go(func() error { return svc.Serve(gctx, grpcServer, healthServer, lis, logger) })

	err = g.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	queue.Shutdown(shutdownCtx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func openDB(ctx context.Context, cfg common.DatabaseConfig, logger *slog.Logger) (*repo.DB, error) {
	if cfg.DSN == "" {
		return repo.OpenSQLite(ctx, cfg.SQLitePath, logger)
	}
	return repo.Open(ctx, repo.Config{
		DSN:              cfg.DSN,
		MaxConns:         cfg.MaxConns,
		MinConns:         cfg.MinConns,
		MaxConnLifetime:  cfg.MaxConnLifetime.Duration,
		MaxConnIdleTime:  cfg.MaxConnIdleTime.Duration,
		DialTimeout:      cfg.DialTimeout.Duration,
		StatementTimeout: cfg.StatementTimeout.Duration,
	}, logger)
}
