package model

import (
	"errors"
	"math"
	"testing"
)

func TestScaleReadingStandard(t *testing.T) {
	meta := CropMetadata{
		Version:  "test",
		Features: []string{"temperature", "humidity", "ph"},
		Crops:    []string{"rice", "maize"},
		Scaler: Scaler{
			Kind:  ScalerStandard,
			Mean:  []float64{25, 70, 6.5},
			Scale: []float64{5, 20, 0.5},
		},
	}
	if err := meta.Validate(); err != nil {
		t.Fatal(err)
	}

	got, err := ScaleReading(SensorReading{Temperature: 30, Humidity: 90, PH: 6}, meta)
	if err != nil {
		t.Fatal(err)
	}
	want := []float32{1, 1, -1}
	for i := range want {
		if math.Abs(float64(got[i]-want[i])) > 1e-6 {
			t.Errorf("feature %d = %f, want %f", i, got[i], want[i])
		}
	}
}

func TestScaleReadingColumnOrder(t *testing.T) {
	meta := CropMetadata{
		Version:  "test",
		Features: []string{"ph", "temperature"},
		Crops:    []string{"rice"},
		Scaler:   Scaler{Kind: ScalerMinMax, Scale: []float64{1, 0.5}, Min: []float64{0, -1}},
	}
	if err := meta.Validate(); err != nil {
		t.Fatal(err)
	}

	got, err := ScaleReading(SensorReading{Temperature: 10, Humidity: 50, PH: 6.2}, meta)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(float64(got[0]-6.2)) > 1e-5 || got[1] != 4 {
		t.Errorf("got %v, want [6.2 4]", got)
	}
}

func TestCropMetadataValidate(t *testing.T) {
	base := func() CropMetadata {
		m := CropMetadata{Version: "v", Crops: []string{"rice"}}
		m.Scaler = Scaler{Mean: []float64{0, 0, 0}, Scale: []float64{1, 1, 1}}
		m.applyDefaults()
		return m
	}
	if err := base().Validate(); err != nil {
		t.Fatalf("valid metadata rejected: %v", err)
	}

	tests := map[string]func(*CropMetadata){
		"unknown feature": func(m *CropMetadata) { m.Features = []string{"temperature", "humidity", "nitrogen"} },
		"short scale":     func(m *CropMetadata) { m.Scaler.Scale = []float64{1, 1} },
		"zero scale":      func(m *CropMetadata) { m.Scaler.Scale = []float64{1, 0, 1} },
		"unknown kind":    func(m *CropMetadata) { m.Scaler.Kind = "robust" },
		"minmax no min":   func(m *CropMetadata) { m.Scaler.Kind = ScalerMinMax },
		"no crops":        func(m *CropMetadata) { m.Crops = nil },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			m := base()
			mutate(&m)
			if err := m.Validate(); !errors.Is(err, ErrInvalidMetadata) {
				t.Errorf("Validate() = %v", err)
			}
		})
	}
}

func TestScalerTransformLength(t *testing.T) {
	s := Scaler{Kind: ScalerStandard, Mean: []float64{0}, Scale: []float64{1}}
	if _, err := s.Transform([]float64{1, 2}); err == nil {
		t.Error("expected length mismatch error")
	}
}
