// Package app holds the start-up and shutdown steps shared by the commands.
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"bitcraftsd/config"
	"bitcraftsd/logger"
	"bitcraftsd/writer"
)

// Runtime is the configured environment of one command invocation.
type Runtime struct {
	Command   string
	Config    *config.Config
	Log       *logger.Log
	Watchlist *config.Watchlist
	Uploader  *writer.Uploader
	RunID     string
	Started   time.Time
}

// LoadEnv reads .env when present.
func LoadEnv(log *logger.Log) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("Error loading .env file")
	}
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(log *logger.Log) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			log.WithFields(logger.Fields{"signal": sig.String()}).Info("shutdown signal received")
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// Setup loads the configuration and wires logging, metrics, the watchlist
// and the optional S3 uploader.
func Setup(ctx context.Context, log *logger.Log, command, configPath string) (*Runtime, error) {
	path := config.ResolveConfigPath(configPath)
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("load configuration %s: %w", path, err)
	}

	if err := log.Configure(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output, cfg.Logging.MaxAge); err != nil {
		return nil, fmt.Errorf("configure logger: %w", err)
	}

	rt := &Runtime{Command: command, Config: cfg, Log: log, Started: time.Now()}

	log.WithFields(logger.Fields{
		"service":     cfg.App.Name,
		"version":     cfg.App.Version,
		"command":     command,
		"environment": config.AppEnvironment(),
		"config":      path,
	}).Info("starting bitcraftsd")

	if cfg.Metrics.CloudWatch.Enabled {
		logger.InitCloudWatch(ctx, log, cfg.Metrics.CloudWatch.Region, cfg.Metrics.CloudWatch.Namespace)
	}

	if cfg.Report.Watchlist != "" {
		wl, err := config.LoadWatchlist(cfg.Report.Watchlist)
		if err != nil {
			return nil, err
		}
		rt.Watchlist = wl
		log.WithComponent("main").WithFields(logger.Fields{"items": len(wl.Items)}).Info("watchlist loaded")
	}

	if cfg.Storage.S3.Enabled {
		up, err := writer.NewUploader(ctx, cfg, log)
		if err != nil {
			return nil, fmt.Errorf("create S3 uploader: %w", err)
		}
		rt.Uploader = up
		rt.RunID = up.RunID()
	} else {
		log.WithComponent("main").Info("S3 storage disabled; outputs stay local")
		rt.RunID = uuid.New().String()
	}

	return rt, nil
}

// Publish uploads a written output when S3 is enabled. Upload failures are
// logged and do not fail the run.
func (rt *Runtime) Publish(ctx context.Context, kind, path string) {
	if rt.Uploader == nil || path == "" {
		return
	}
	if _, err := rt.Uploader.UploadFile(ctx, kind, path); err != nil {
		rt.Log.WithComponent("main").WithError(err).WithFields(logger.Fields{"kind": kind, "path": path}).Error("failed to upload output")
	}
}

// Finish logs and publishes the run counters.
func (rt *Runtime) Finish(ctx context.Context) {
	logger.LogRunReport(context.WithoutCancel(ctx), rt.Log, rt.Command, rt.Started)
}
