package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shortsplice/splice-agent/internal/api"
	"github.com/shortsplice/splice-agent/internal/backend"
	"github.com/shortsplice/splice-agent/internal/config"
	"github.com/shortsplice/splice-agent/internal/db"
	"github.com/shortsplice/splice-agent/internal/library"
	"github.com/shortsplice/splice-agent/internal/logging"
	"github.com/shortsplice/splice-agent/internal/render"
	"github.com/shortsplice/splice-agent/internal/session"
	"github.com/shortsplice/splice-agent/internal/ui"
	"github.com/shortsplice/splice-agent/internal/watcher"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("fatal error: %v", err)
	}
}

func run() error {
	startTime := time.Now()

	cfg, err := config.New()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := os.MkdirAll(cfg.DataDir(), 0755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}

	logger := logging.NewLogger(cfg.LogLevel())
	logger.Info("starting splice agent", "version", config.Version, "data_dir", cfg.DataDir())

	database, err := db.New(cfg.DBPath(), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	repo := library.NewRepository(database.Conn())

	deviceID, err := ensureDeviceID(repo)
	if err != nil {
		return fmt.Errorf("failed to ensure device ID: %w", err)
	}

	authToken, err := ensureAuthToken(repo)
	if err != nil {
		return fmt.Errorf("failed to ensure auth token: %w", err)
	}

	fmt.Println()
	fmt.Println("╔═══════════════════════════════════════════════════════════╗")
	fmt.Println("║                    SPLICE AGENT v0.1.0                    ║")
	fmt.Println("╠═══════════════════════════════════════════════════════════╣")
	fmt.Printf("║  API URL:    http://127.0.0.1:%-27d ║\n", cfg.Port())
	fmt.Printf("║  Auth Token: %-45s ║\n", authToken)
	fmt.Printf("║  Device ID:  %-45s ║\n", deviceID[:16]+"...")
	fmt.Println("╚═══════════════════════════════════════════════════════════╝")
	fmt.Println()

	var ffmpeg render.FFmpeg
	if ff, err := render.NewExecFFmpeg(cfg.FFmpegPath(), cfg.FFprobePath(), logger); err != nil {
		logger.Warn("ffmpeg unavailable, probing and local rendering disabled", "error", err)
		ffmpeg = render.NewStubFFmpeg(logger)
	} else {
		ffmpeg = ff
	}

	librarySvc := library.NewService(repo, ffmpeg, logger)

	renderer, err := render.NewRenderer(ffmpeg, cfg.RenderDir(), cfg.RenderTimeout(), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize renderer: %w", err)
	}
	if url := cfg.BackendURL(); url != "" {
		renderer.UseRemote(backend.NewClient(url, logger))
		logger.Info("remote render backend enabled", "base_url", url)
	}

	sessions := session.NewManager()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	presence := watcher.NewPresenceWatcher(repo, watcher.DefaultInterval, logger)
	go presence.Run(ctx)

	apiServer := api.NewServer(api.ServerConfig{
		Port:          cfg.Port(),
		Library:       librarySvc,
		Repo:          repo,
		Streamer:      library.NewStreamer(logger),
		Renderer:      renderer,
		Sessions:      sessions,
		SeekStep:      cfg.SeekStep(),
		FrameInterval: cfg.FrameInterval(),
		Logger:        logger,
		StartTime:     startTime,
		DeviceID:      deviceID,
	})

	go func() {
		if err := apiServer.Start(); err != nil {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	quitCh := make(chan struct{})

	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("received shutdown signal", "signal", sig)
			close(quitCh)
		case <-quitCh:
		}
	}()

	if cfg.Headless() {
		logger.Info("running in headless mode (no system tray)")
	} else {
		tray := ui.NewTray(ui.TrayConfig{
			Sessions: sessions,
			Renderer: renderer,
			Logger:   logger,
			OnAddFolder: func() error {
				logger.Info("add folder requested from tray (file dialog not implemented in v0)")
				return nil
			},
			OnQuit: func() {
				close(quitCh)
			},
		})
		go tray.Run()
	}

	<-quitCh

	logger.Info("initiating graceful shutdown")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown HTTP server", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}

func ensureDeviceID(repo library.Repository) (string, error) {
	ctx := context.Background()

	existing, err := repo.GetConfig(ctx, "device_id")
	if err == nil && existing != "" {
		return existing, nil
	}

	idBytes := make([]byte, 16)
	if _, err := rand.Read(idBytes); err != nil {
		return "", err
	}
	deviceID := hex.EncodeToString(idBytes)

	if err := repo.SetConfig(ctx, "device_id", deviceID); err != nil {
		return "", err
	}

	return deviceID, nil
}

func ensureAuthToken(repo library.Repository) (string, error) {
	ctx := context.Background()

	existing, err := repo.GetConfig(ctx, "auth_token")
	if err == nil && existing != "" {
		return existing, nil
	}

	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	token := hex.EncodeToString(tokenBytes)

	if err := repo.SetConfig(ctx, "auth_token", token); err != nil {
		return "", err
	}

	return token, nil
}
