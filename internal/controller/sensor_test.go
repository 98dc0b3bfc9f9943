package controller

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nabilhasan01/CSE499A/internal/logger"
	"github.com/nabilhasan01/CSE499A/internal/model"
)

func TestParseReading(t *testing.T) {
	tests := []struct {
		body string
		want model.SensorReading
		ok   bool
	}{
		{`{"temperature":29.49,"humidity":94.73,"ph":6.19}`, preset, true},
		{"29.49,94.73,6.19\n", preset, true},
		{" 22.91 , 90.70 , 5.60 ", model.SensorReading{Temperature: 22.91, Humidity: 90.70, PH: 5.60}, true},
		{`{"temperature":29.49,"humidity":94.73}`, model.SensorReading{}, false},
		{"29.49,94.73", model.SensorReading{}, false},
		{"a,b,c", model.SensorReading{}, false},
		{"", model.SensorReading{}, false},
	}
	for _, tt := range tests {
		got, err := ParseReading([]byte(tt.body))
		if (err == nil) != tt.ok {
			t.Errorf("ParseReading(%q) err = %v, want ok=%t", tt.body, err, tt.ok)
			continue
		}
		if tt.ok && got != tt.want {
			t.Errorf("ParseReading(%q) = %+v, want %+v", tt.body, got, tt.want)
		}
	}
}

func TestHTTPSensor(t *testing.T) {
	var mu sync.Mutex
	body, status := "26.18,86.52,6.26", http.StatusOK
	set := func(b string, code int) {
		mu.Lock()
		body, status = b, code
		mu.Unlock()
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	defer srv.Close()

	s := NewHTTPSensor(NewClient(srv.Client(), ""), srv.URL+"/handledata")
	got, err := s.Read(context.Background())
	if err != nil || got.PH != 6.26 {
		t.Fatalf("Read = %+v, %v", got, err)
	}

	set("garbage", http.StatusOK)
	if _, err := s.Read(context.Background()); KindOf(err) != KindDecode {
		t.Errorf("garbage body kind = %v (%v)", KindOf(err), err)
	}

	set("", http.StatusBadGateway)
	if _, err := s.Read(context.Background()); KindOf(err) != KindStatus {
		t.Errorf("502 kind = %v", KindOf(err))
	}
}

// fakePort hands out queued chunks, then behaves like a timed-out read.
type fakePort struct {
	mu     sync.Mutex
	chunks []string
	closed bool
}

func (p *fakePort) Read(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.chunks) == 0 {
		time.Sleep(time.Millisecond)
		return 0, nil
	}
	n := copy(b, p.chunks[0])
	p.chunks = p.chunks[1:]
	return n, nil
}

func (p *fakePort) Close() error {
	p.closed = true
	return nil
}

func TestSerialSensorLatestLine(t *testing.T) {
	port := &fakePort{chunks: []string{"ets Jun  8 2016 boot\n29.49,94", ".73,6.19\n34.28,90.56,6.83\n43.3"}}
	s := newSerialSensor(port, time.Second)

	got, err := s.Read(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	want := model.SensorReading{Temperature: 34.28, Humidity: 90.56, PH: 6.83}
	if got != want {
		t.Errorf("Read = %+v, want newest line %+v", got, want)
	}
	if string(s.pending) != "43.3" {
		t.Errorf("pending = %q", s.pending)
	}

	port.chunks = []string{"6,93.35,6.94\r\n"}
	got, err = s.Read(context.Background())
	if err != nil || got.Temperature != 43.36 {
		t.Errorf("second Read = %+v, %v", got, err)
	}

	s.Close()
	if !port.closed {
		t.Error("port not closed")
	}
}

func TestSerialSensorSkipsGarbage(t *testing.T) {
	port := &fakePort{chunks: []string{"hello\n", "22.91,90.70,5.60\n"}}
	got, err := newSerialSensor(port, time.Second).Read(context.Background())
	if err != nil || got.PH != 5.60 {
		t.Errorf("Read = %+v, %v", got, err)
	}
}

func TestSerialSensorStatusAfterReading(t *testing.T) {
	port := &fakePort{chunks: []string{"29.49,94.73,6.19\nWiFi reconnect\n"}}
	s := newSerialSensor(port, time.Second)

	got, err := s.Read(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	want := model.SensorReading{Temperature: 29.49, Humidity: 94.73, PH: 6.19}
	if got != want {
		t.Errorf("Read = %+v, want %+v", got, want)
	}
	if len(s.pending) != 0 {
		t.Errorf("pending = %q", s.pending)
	}
}

type fakeModem struct {
	dtr, rts []bool
	dtrErr   error
}

func (m *fakeModem) SetDTR(v bool) error { m.dtr = append(m.dtr, v); return m.dtrErr }
func (m *fakeModem) SetRTS(v bool) error { m.rts = append(m.rts, v); return nil }

func TestReleaseResetReportsErrors(t *testing.T) {
	var buf bytes.Buffer
	logger.SetOutput(&buf, logger.WARN)
	defer logger.SetOutput(io.Discard, logger.ERROR)

	m := &fakeModem{dtrErr: errors.New("inappropriate ioctl for device")}
	releaseReset(m, "/dev/ttyUSB0")

	if len(m.dtr) != 1 || m.dtr[0] || len(m.rts) != 1 || m.rts[0] {
		t.Errorf("dtr = %v, rts = %v, want both cleared once", m.dtr, m.rts)
	}
	if got := buf.String(); !strings.Contains(got, "clear DTR") || strings.Contains(got, "clear RTS") {
		t.Errorf("log = %q", got)
	}
}

func TestSerialSensorTimeout(t *testing.T) {
	start := time.Now()
	_, err := newSerialSensor(&fakePort{}, 20*time.Millisecond).Read(context.Background())
	if !errors.Is(err, errSerialTimeout) || KindOf(err) != KindNetwork {
		t.Errorf("err = %v", err)
	}
	if time.Since(start) > time.Second {
		t.Error("timeout not honored")
	}
}

func TestSerialSensorCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newSerialSensor(&fakePort{chunks: []string{"partial"}}, time.Second).Read(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v", err)
	}
}

func TestSaveFrameExtension(t *testing.T) {
	dir := t.TempDir()
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	path, err := SaveFrame(dir, []byte("\xff\xd8\xff\xe0jpeg"), at)
	if err != nil || !strings.HasSuffix(path, "2026-01-02_03-04-05.jpg") {
		t.Errorf("SaveFrame = %s, %v", path, err)
	}
}
