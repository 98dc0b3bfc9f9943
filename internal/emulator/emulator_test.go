package emulator

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/nabilhasan01/CSE499A/internal/config"
	"github.com/nabilhasan01/CSE499A/internal/logger"
	"github.com/nabilhasan01/CSE499A/internal/model"
)

func init() {
	gin.SetMode(gin.TestMode)
	logger.SetOutput(io.Discard, logger.ERROR)
}

func TestStateAlwaysServesPreset(t *testing.T) {
	presets := config.DefaultPresets()
	s, err := NewState(presets)
	if err != nil {
		t.Fatal(err)
	}
	if s.Current() != presets[0] {
		t.Errorf("initial reading = %+v", s.Current())
	}

	var wg sync.WaitGroup
	stop := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
				s.Refresh()
			}
		}
	}()

	for i := 0; i < 1000; i++ {
		got := s.Current()
		ok := false
		for _, p := range presets {
			ok = ok || p == got
		}
		if !ok {
			t.Fatalf("reading %+v is not a preset", got)
		}
	}
	close(stop)
	wg.Wait()
}

func TestNewStateNoPresets(t *testing.T) {
	if _, err := NewState(nil); err == nil {
		t.Error("expected error")
	}
}

func TestRotateImage(t *testing.T) {
	dir := t.TempDir()
	for name, body := range map[string]string{"a.jpg": "AAA", "b.PNG": "BBB", "notes.txt": "x", "cam-hi.jpg": "old"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	names, err := ListImages(dir, "cam-hi.jpg")
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 2 {
		t.Fatalf("images = %v", names)
	}

	chosen, err := RotateImage(dir, "cam-hi.jpg", func(n int) int { return n - 1 })
	if err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(filepath.Join(dir, "cam-hi.jpg"))
	want, _ := os.ReadFile(filepath.Join(dir, chosen))
	if string(data) != string(want) {
		t.Errorf("cam-hi.jpg = %q, want contents of %s", data, chosen)
	}

	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".rotate-") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}

func TestRotateImageEmptyDir(t *testing.T) {
	chosen, err := RotateImage(t.TempDir(), "cam-hi.jpg", nil)
	if err != nil || chosen != "" {
		t.Errorf("RotateImage = %q, %v", chosen, err)
	}
}

func testEmulator(t *testing.T) *Emulator {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "leaf.jpg"), []byte("jpegdata"), 0o644); err != nil {
		t.Fatal(err)
	}
	e, err := New(config.EmulatorConfig{
		FilesDir:       dir,
		CameraFile:     "cam-hi.jpg",
		SensorInterval: 10 * time.Millisecond,
		ImageInterval:  10 * time.Millisecond,
		Presets:        config.DefaultPresets(),
	})
	if err != nil {
		t.Fatal(err)
	}
	return e
}

func TestRoutes(t *testing.T) {
	e := testEmulator(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		e.Run(ctx)
		close(done)
	}()
	defer func() {
		cancel()
		<-done
	}()

	r := e.Router()
	for _, path := range []string{"/handledata", "/sensor-data"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("%s status = %d", path, rec.Code)
		}
		var got model.SensorReading
		if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
			t.Fatalf("%s: %v", path, err)
		}
		if got.Humidity == 0 {
			t.Errorf("%s returned %+v", path, got)
		}
	}

	// The image task runs once immediately; give it a moment.
	deadline := time.Now().Add(2 * time.Second)
	for {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/files/cam-hi.jpg", nil))
		if rec.Code == http.StatusOK {
			if rec.Body.String() != "jpegdata" {
				t.Errorf("camera file = %q", rec.Body.String())
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("camera file never appeared, status %d", rec.Code)
		}
		time.Sleep(10 * time.Millisecond)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/files/", nil))
	if rec.Code == http.StatusOK && strings.Contains(rec.Body.String(), "leaf.jpg") {
		t.Error("directory listing should be disabled")
	}
}

func TestWebsocketReceivesReadings(t *testing.T) {
	e := testEmulator(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		e.Run(ctx)
		close(done)
	}()
	defer func() {
		cancel()
		<-done
	}()

	srv := httptest.NewServer(e.Router())
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got model.SensorReading
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.PH == 0 {
		t.Errorf("reading = %+v", got)
	}

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var health struct {
		Status    string `json:"status"`
		WSClients int    `json:"ws_clients"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		t.Fatal(err)
	}
	if health.Status != "healthy" || health.WSClients != 1 {
		t.Errorf("health = %+v", health)
	}
}
