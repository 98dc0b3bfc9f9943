package controller

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.bug.st/serial"

	"github.com/nabilhasan01/CSE499A/internal/logger"
	"github.com/nabilhasan01/CSE499A/internal/model"
)

var errSerialTimeout = errors.New("no complete reading before timeout")

// SerialSensor reads "temperature,humidity,ph" lines from an ESP32 on a
// serial port. Each Read returns the newest valid line received.
type SerialSensor struct {
	port    io.ReadCloser
	timeout time.Duration
	pending []byte
}

// OpenSerial opens name at baud, 8N1.
func OpenSerial(name string, baud int, timeout time.Duration) (*SerialSensor, error) {
	mode := &serial.Mode{
		BaudRate: baud,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
		DataBits: 8,
	}
	port, err := serial.Open(name, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", name, err)
	}

	releaseReset(port, name)

	// Short reads let Read notice cancellation.
	if err := port.SetReadTimeout(200 * time.Millisecond); err != nil {
		port.Close()
		return nil, fmt.Errorf("set serial read timeout: %w", err)
	}
	return newSerialSensor(port, timeout), nil
}

type modemLines interface {
	SetDTR(dtr bool) error
	SetRTS(rts bool) error
}

// releaseReset holds DTR and RTS low, which keeps most ESP32 boards out of
// reset. Ports without modem lines report errors here; reading still works.
func releaseReset(port modemLines, name string) {
	if err := port.SetDTR(false); err != nil {
		logger.Warnf("serial %s: clear DTR: %v", name, err)
	}
	if err := port.SetRTS(false); err != nil {
		logger.Warnf("serial %s: clear RTS: %v", name, err)
	}
}

func newSerialSensor(port io.ReadCloser, timeout time.Duration) *SerialSensor {
	return &SerialSensor{port: port, timeout: timeout}
}

func (s *SerialSensor) Read(ctx context.Context) (model.SensorReading, error) {
	const op = "read serial"
	deadline := time.Now().Add(s.timeout)
	buf := make([]byte, 256)

	for {
		if r, ok := s.takeReading(); ok {
			return r, nil
		}
		if err := ctx.Err(); err != nil {
			return model.SensorReading{}, networkErr(op, err)
		}
		if time.Now().After(deadline) {
			return model.SensorReading{}, networkErr(op, errSerialTimeout)
		}

		n, err := s.port.Read(buf)
		s.pending = append(s.pending, buf[:n]...)
		if err != nil {
			return model.SensorReading{}, networkErr(op, err)
		}
	}
}

// takeReading parses the complete lines in the buffer from newest to oldest
// and returns the first valid reading. All complete lines are consumed; an
// unterminated tail stays pending.
func (s *SerialSensor) takeReading() (model.SensorReading, bool) {
	end := bytes.LastIndexByte(s.pending, '\n')
	if end < 0 {
		return model.SensorReading{}, false
	}
	complete := s.pending[:end]
	s.pending = append([]byte(nil), s.pending[end+1:]...)

	lines := bytes.Split(complete, []byte{'\n'})
	for i := len(lines) - 1; i >= 0; i-- {
		line := bytes.TrimSpace(lines[i])
		if len(line) == 0 {
			continue
		}
		r, err := ParseCSVReading(string(line))
		if err != nil {
			// Boot banners and status messages are common.
			logger.Debugf("skipping serial line %q: %v", line, err)
			continue
		}
		return r, true
	}
	return model.SensorReading{}, false
}

func (s *SerialSensor) Close() error {
	return s.port.Close()
}
