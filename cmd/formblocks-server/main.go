package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/goliatone/go-formblocks/internal/config"
	"github.com/goliatone/go-formblocks/pkg/attachment/store"
	"github.com/goliatone/go-formblocks/pkg/logging"
)

func main() {
	configFile := flag.String("config", "", "config file (yaml, json or toml)")
	envFile := flag.String("env-file", ".env", "dotenv file loaded before reading FORMBLOCKS_* variables")
	addr := flag.String("addr", "", "listen address (overrides server.addr)")
	formsDir := flag.String("forms", "", "directory of form definitions served under /forms/{name}")
	flag.Parse()

	overrides := map[string]any{}
	if *addr != "" {
		overrides["server.addr"] = *addr
	}
	if *formsDir != "" {
		overrides["server.forms_dir"] = *formsDir
	}

	cfg, err := config.Load(config.LoadOptions{
		EnvFile:    *envFile,
		ConfigFile: *configFile,
		Overrides:  overrides,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "formblocks-server: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Log.Logging())
	if err != nil {
		fmt.Fprintf(os.Stderr, "formblocks-server: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	st, err := openStore(cfg.Store)
	if err != nil {
		return err
	}

	handler, err := newRouter(cfg, logger, st)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening",
			zap.String("addr", cfg.Server.Addr),
			zap.String("store", cfg.Store.Driver),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}

func openStore(cfg config.Store) (store.Store, error) {
	if cfg.Driver == config.StoreS3 {
		s3, err := store.NewS3StoreFromConfig(cfg.S3Config())
		if err != nil {
			return nil, err
		}
		return s3, nil
	}
	local, err := store.NewLocalStore(cfg.Dir, cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	return local, nil
}
