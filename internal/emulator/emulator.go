package emulator

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nabilhasan01/CSE499A/internal/config"
	"github.com/nabilhasan01/CSE499A/internal/logger"
)

// Emulator stands in for the soil sensor and camera nodes.
type Emulator struct {
	cfg   config.EmulatorConfig
	state *State
	hub   *Hub
}

func New(cfg config.EmulatorConfig) (*Emulator, error) {
	state, err := NewState(cfg.Presets)
	if err != nil {
		return nil, err
	}
	return &Emulator{cfg: cfg, state: state, hub: NewHub()}, nil
}

// State is the reading store behind /handledata.
func (e *Emulator) State() *State { return e.state }

// Run starts the websocket hub and both refresh tasks and blocks until
// ctx is cancelled and all of them have returned.
func (e *Emulator) Run(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		e.hub.Start(ctx)
	}()
	go func() {
		defer wg.Done()
		every(ctx, e.cfg.SensorInterval, e.refreshSensor)
	}()
	go func() {
		defer wg.Done()
		every(ctx, e.cfg.ImageInterval, e.refreshImage)
	}()
	wg.Wait()
}

func (e *Emulator) refreshSensor() {
	r := e.state.Refresh()
	e.hub.Publish(r)
}

func (e *Emulator) refreshImage() {
	chosen, err := RotateImage(e.cfg.FilesDir, e.cfg.CameraFile, nil)
	if err != nil {
		logger.Errorf("updating %s: %v", e.cfg.CameraFile, err)
		return
	}
	if chosen != "" {
		logger.Debugf("%s now serves %s", e.cfg.CameraFile, chosen)
	}
}

// every runs fn immediately and then on each tick until ctx is done.
func every(ctx context.Context, interval time.Duration, fn func()) {
	fn()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}

// Router serves the sensor reading, the files directory, the websocket
// stream and a health check reporting connected clients.
func (e *Emulator) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	r.GET("/health", e.health)
	r.GET("/handledata", e.handleData)
	r.GET("/sensor-data", e.handleData)
	r.StaticFS("/files", gin.Dir(e.cfg.FilesDir, false))
	r.GET("/ws", e.hub.Serve)

	return r
}

func (e *Emulator) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "ws_clients": e.hub.Clients()})
}

func (e *Emulator) handleData(c *gin.Context) {
	c.JSON(http.StatusOK, e.state.Current())
}
