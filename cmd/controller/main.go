package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/nabilhasan01/CSE499A/internal/config"
	"github.com/nabilhasan01/CSE499A/internal/controller"
	"github.com/nabilhasan01/CSE499A/internal/journal"
	"github.com/nabilhasan01/CSE499A/internal/logger"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := logger.Init("controller", cfg.Logging); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	defer logger.Close()

	root, err := config.ProjectRoot()
	if err != nil {
		logger.Fatalf("%v", err)
	}

	cc := cfg.Controller
	client := controller.NewClient(&http.Client{Timeout: cc.Timeout}, cc.PredictURL)

	var opts []controller.Option
	switch cc.SensorMode {
	case config.SensorHTTP:
		opts = append(opts, controller.WithSensor(controller.NewHTTPSensor(client, cc.SensorURL)))
		logger.Printf("Sensor: %s", cc.SensorURL)
	case config.SensorSerial:
		sensor, err := controller.OpenSerial(cc.SerialPort, cc.SerialBaud, cc.Timeout)
		if err != nil {
			logger.Fatalf("%v", err)
		}
		defer sensor.Close()
		opts = append(opts, controller.WithSensor(sensor))
		logger.Printf("Sensor: serial %s @ %d baud", cc.SerialPort, cc.SerialBaud)
	default:
		logger.Printf("Sensor: disabled")
	}

	if cc.Rotate != 0 {
		opts = append(opts, controller.WithRotation(cc.Rotate))
		logger.Printf("Rotating frames by %d degrees", cc.Rotate)
	}

	if cc.CaptureDir != "" {
		dir := config.Resolve(root, cc.CaptureDir)
		opts = append(opts, controller.WithCapture(dir))
		logger.Printf("Saving frames to %s", dir)
	}

	var store *journal.Store
	if cc.Journal {
		dbCfg := cfg.Database.ResolvePaths(root)
		store, err = journal.Open(dbCfg)
		if err != nil {
			logger.Fatalf("Failed to open journal: %v", err)
		}
		defer store.Close()
		opts = append(opts, controller.WithRecorder(store))
		logger.Printf("Journal: %s", dbCfg.Driver)
		if last, err := store.Recent(context.Background(), 1); err == nil && len(last) == 1 {
			logger.Printf("Last recorded cycle %s at %s", last[0].CycleID, last[0].StartedAt.Format("2006-01-02 15:04:05"))
		}
	}

	loop := controller.NewLoop(client, cc.CameraURL, controller.Cadence{
		Interval: cc.Interval,
		Fallback: cc.FallbackDelay,
		StepGap:  cc.StepGap,
	}, opts...)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Printf("Polling %s every %s, predictions via %s", cc.CameraURL, cc.Interval, cc.PredictURL)
	if err := loop.Run(ctx); err != nil {
		logger.Errorf("control loop stopped: %v", err)
	}
	logger.Printf("Control loop stopped")

	if store != nil {
		summarize(store)
	}
}

// summarize logs how many journaled cycles completed and how many were
// skipped.
func summarize(store *journal.Store) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done, err := store.Count(ctx, false)
	if err != nil {
		logger.Warnf("journal summary: %v", err)
		return
	}
	skipped, err := store.Count(ctx, true)
	if err != nil {
		logger.Warnf("journal summary: %v", err)
		return
	}
	logger.Printf("Journal: %d completed cycles, %d skipped", done, skipped)
}
