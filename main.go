package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/moyoez/video-splitter-go/api"
	"github.com/moyoez/video-splitter-go/sweeper"
	"github.com/moyoez/video-splitter-go/tool"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg := tool.SetFlags()

	// initialize logger
	tool.InitLogger()
	tool.SetLogMode(cfg.Log)

	appCfg, err := tool.LoadConfig(cfg.UseConfigPath)
	if err != nil {
		tool.DefaultLogger.Fatalf("%v", err)
	}
	tool.ApplyFlagOverrides(&appCfg, cfg)
	if err := tool.ValidateConfig(&appCfg); err != nil {
		tool.DefaultLogger.Fatalf("%v", err)
	}
	tool.CurrentConfig = appCfg

	for _, dir := range []string{appCfg.UploadFolder, appCfg.OutputFolder} {
		if err := tool.EnsureDir(dir); err != nil {
			tool.DefaultLogger.Fatalf("Failed to create %s: %v", dir, err)
		}
	}

	apiServer := api.NewServer(tool.GetCurrentConfig())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	if cfg.SkipSweeper {
		tool.DefaultLogger.Info("Retention sweeper disabled")
	} else {
		env := apiServer.Env()
		sw := sweeper.New(sweeper.Config{
			UploadDir:       appCfg.UploadFolder,
			OutputDir:       appCfg.OutputFolder,
			Retention:       tool.DurationOr(appCfg.Retention, sweeper.DefaultRetention),
			Interval:        tool.DurationOr(appCfg.SweepInterval, sweeper.DefaultInterval),
			Skip:            env.Busy,
			OnOutputRemoved: env.OutputRemoved,
		})
		wg.Add(1)
		go func() {
			defer wg.Done()
			sw.Run(ctx)
		}()
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- apiServer.Start()
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			tool.DefaultLogger.Errorf("API server startup failed: %v", err)
		}
		stop()
	case <-ctx.Done():
		tool.DefaultLogger.Info("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		tool.DefaultLogger.Errorf("Graceful shutdown failed: %v", err)
	}
	wg.Wait()
}
