package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"intake_server/config"
	"intake_server/internal/bootstrap"
	"intake_server/pkg/logger"

	"github.com/joho/godotenv"
)

// shutdownTimeout bounds how long an in-flight sync run or HTTP request
// may hold up process exit.
const shutdownTimeout = 30 * time.Second

func main() {
	logger.Init(logger.Config{
		Level:   logger.LevelInfo,
		Service: "intake",
	})

	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err != nil {
		logger.Debug("no .env file, reading environment as-is")
	}

	mode := flag.String("mode", "all", "api (ops endpoints), worker (sync scheduler), or all")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config: %v", err)
	}

	switch *mode {
	case "api":
		runAPI(cfg)
	case "worker":
		runWorker(cfg)
	case "all":
		go runWorker(cfg)
		runAPI(cfg)
	default:
		logger.Fatal("unknown mode %q", *mode)
	}
}

func runAPI(cfg *config.Config) {
	app, cleanup, err := bootstrap.NewAPI(cfg)
	if err != nil {
		logger.Fatal("api bootstrap: %v", err)
	}
	defer cleanup()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("stopping ops API, draining for up to %v", shutdownTimeout)

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		done := make(chan error, 1)
		go func() {
			done <- app.Shutdown()
		}()

		select {
		case err := <-done:
			if err != nil {
				logger.Error("ops API shutdown: %v", err)
			} else {
				logger.Info("ops API stopped")
			}
		case <-ctx.Done():
			logger.Warn("ops API still draining after %v, exiting anyway", shutdownTimeout)
		}
	}()

	addr := ":" + cfg.Port
	logger.Info("ops API listening on %s", addr)
	if err := app.Listen(addr); err != nil {
		logger.Fatal("listen: %v", err)
	}
}

func runWorker(cfg *config.Config) {
	if !cfg.SchedulerEnabled {
		logger.Info("sync scheduler disabled by config")
		return
	}

	worker, cleanup, err := bootstrap.NewWorker(cfg)
	if err != nil {
		logger.Fatal("worker bootstrap: %v", err)
	}
	defer cleanup()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("stopping sync scheduler, waiting up to %v for the current run", shutdownTimeout)

		done := make(chan struct{})
		go func() {
			worker.Stop()
			close(done)
		}()

		select {
		case <-done:
			logger.Info("sync scheduler stopped")
		case <-time.After(shutdownTimeout):
			logger.Warn("sync run did not finish within %v, exiting anyway", shutdownTimeout)
			os.Exit(1)
		}
	}()

	logger.Info("sync scheduler starting")
	worker.Start()
}
