package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nabilhasan01/CSE499A/internal/config"
	"github.com/nabilhasan01/CSE499A/internal/handlers"
	"github.com/nabilhasan01/CSE499A/internal/logger"
	"github.com/nabilhasan01/CSE499A/internal/model"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := logger.Init("server", cfg.Logging); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	defer logger.Close()

	root, err := config.ProjectRoot()
	if err != nil {
		logger.Fatalf("%v", err)
	}
	sc := cfg.Server

	leafMeta, err := model.LoadMetadata(config.Resolve(root, sc.LeafMetadata))
	if err != nil {
		logger.Fatalf("Failed to load leaf metadata: %v", err)
	}
	cropMeta, err := model.LoadCropMetadata(config.Resolve(root, sc.CropMetadata))
	if err != nil {
		logger.Fatalf("Failed to load crop metadata: %v", err)
	}

	if err := model.InitRuntime(sc.OnnxRuntimeLib); err != nil {
		logger.Fatalf("%v", err)
	}
	defer model.DestroyRuntime()

	leafPath := config.Resolve(root, sc.LeafModel)
	logger.Printf("Loading leaf model from: %s", leafPath)
	leaf, err := model.NewLeafClassifier(leafPath, leafMeta)
	if err != nil {
		logger.Fatalf("Failed to initialize leaf model: %v", err)
	}
	defer leaf.Close()

	cropPath := config.Resolve(root, sc.CropModel)
	logger.Printf("Loading crop model from: %s", cropPath)
	crop, err := model.NewCropRecommender(cropPath, cropMeta)
	if err != nil {
		logger.Fatalf("Failed to initialize crop model: %v", err)
	}
	defer crop.Close()

	h := handlers.NewHandler(leaf, crop, model.NewInfo(leafMeta, cropMeta))
	router := handlers.NewRouter(h, sc.AllowOrigins, sc.MaxUploadMB)

	srv := &http.Server{
		Addr:    ":" + sc.Port,
		Handler: router,
	}

	go func() {
		logger.Printf("Server starting on port %s", sc.Port)
		logger.Printf("Leaf metadata %s: %d classes", leafMeta.Version, len(leafMeta.Classes))
		logger.Printf("Crop metadata %s: %d crops, features %v", cropMeta.Version, len(cropMeta.Crops), cropMeta.Features)
		logger.Println("Endpoints:")
		logger.Println("  GET  /health        - Health check")
		logger.Println("  GET  /model-info    - Loaded label tables")
		logger.Println("  POST /leaf-predict/ - Classify an uploaded leaf image (field \"file\")")
		logger.Println("  POST /soil-predict/ - Recommend a crop from {temperature, humidity, ph}")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Printf("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shut down: %v", err)
	}
}
