package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/nabilhasan01/CSE499A/internal/model"
)

// SensorSource yields the latest soil reading.
type SensorSource interface {
	Read(ctx context.Context) (model.SensorReading, error)
}

// HTTPSensor polls a sensor node over HTTP. The emulator answers with
// JSON, the soil ESP32 with a bare "temperature,humidity,ph" line; both
// are accepted.
type HTTPSensor struct {
	client *Client
	url    string
}

func NewHTTPSensor(client *Client, url string) *HTTPSensor {
	return &HTTPSensor{client: client, url: url}
}

func (s *HTTPSensor) Read(ctx context.Context) (model.SensorReading, error) {
	const op = "fetch sensor"
	body, err := s.client.get(ctx, op, s.url)
	if err != nil {
		return model.SensorReading{}, err
	}
	r, err := ParseReading(body)
	if err != nil {
		return model.SensorReading{}, decodeErr(op, err)
	}
	return r, nil
}

// ParseReading decodes a JSON object or a CSV triple.
func ParseReading(body []byte) (model.SensorReading, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return model.SensorReading{}, fmt.Errorf("empty sensor payload")
	}
	if trimmed[0] == '{' {
		return parseJSONReading(trimmed)
	}
	return ParseCSVReading(string(trimmed))
}

func parseJSONReading(body []byte) (model.SensorReading, error) {
	var raw struct {
		Temperature *float64 `json:"temperature"`
		Humidity    *float64 `json:"humidity"`
		PH          *float64 `json:"ph"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return model.SensorReading{}, fmt.Errorf("parse sensor json: %w", err)
	}
	if raw.Temperature == nil || raw.Humidity == nil || raw.PH == nil {
		return model.SensorReading{}, fmt.Errorf("sensor json is missing a field")
	}
	return model.SensorReading{Temperature: *raw.Temperature, Humidity: *raw.Humidity, PH: *raw.PH}, nil
}

// ParseCSVReading parses "temperature,humidity,ph".
func ParseCSVReading(line string) (model.SensorReading, error) {
	fields := strings.Split(strings.TrimSpace(line), ",")
	if len(fields) != 3 {
		return model.SensorReading{}, fmt.Errorf("want 3 comma-separated values, got %d in %q", len(fields), line)
	}
	var v [3]float64
	for i, f := range fields {
		n, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return model.SensorReading{}, fmt.Errorf("field %d: %w", i, err)
		}
		v[i] = n
	}
	return model.SensorReading{Temperature: v[0], Humidity: v[1], PH: v[2]}, nil
}
