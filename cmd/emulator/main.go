package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/nabilhasan01/CSE499A/internal/config"
	"github.com/nabilhasan01/CSE499A/internal/emulator"
	"github.com/nabilhasan01/CSE499A/internal/logger"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := logger.Init("emulator", cfg.Logging); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	defer logger.Close()

	root, err := config.ProjectRoot()
	if err != nil {
		logger.Fatalf("%v", err)
	}
	ec := cfg.Emulator
	ec.FilesDir = config.Resolve(root, ec.FilesDir)

	emu, err := emulator.New(ec)
	if err != nil {
		logger.Fatalf("Failed to create emulator: %v", err)
	}
	logger.Printf("Loaded %d presets, initial reading %+v", len(ec.Presets), emu.State().Current())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tasksDone := make(chan struct{})
	go func() {
		emu.Run(ctx)
		close(tasksDone)
	}()

	srv := &http.Server{
		Addr:    ":" + ec.Port,
		Handler: emu.Router(),
	}
	go func() {
		logger.Printf("Emulator serving %s on port %s", ec.FilesDir, ec.Port)
		logger.Printf("Sensor refresh every %s, %s refresh every %s", ec.SensorInterval, ec.CameraFile, ec.ImageInterval)
		logger.Println("Endpoints:")
		logger.Println("  GET /health      - Health check and websocket client count")
		logger.Println("  GET /handledata  - Current reading (alias /sensor-data)")
		logger.Println("  GET /files/<f>   - Static files, camera frame at /files/" + ec.CameraFile)
		logger.Println("  GET /ws          - Reading stream")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Emulator failed: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Printf("Shutting down emulator...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Emulator forced to shut down: %v", err)
	}
	<-tasksDone
}
