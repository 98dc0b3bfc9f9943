package model

import (
	"errors"
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func testMetadata() Metadata {
	m := Metadata{
		Version: "test",
		Classes: []string{"Apple__healthy", "Bean__Rust", "Tomato__healthy"},
		Mean:    []float32{0.485, 0.456, 0.406},
		Std:     []float32{0.229, 0.224, 0.225},
	}
	m.applyDefaults()
	return m
}

func TestLoadShippedMetadata(t *testing.T) {
	meta, err := LoadMetadata(filepath.Join("..", "..", "models", "leaf_metadata.json"))
	if err != nil {
		t.Fatalf("LoadMetadata: %v", err)
	}
	if len(meta.Classes) != 47 {
		t.Errorf("got %d classes, want 47", len(meta.Classes))
	}
	if meta.ImageSize != 224 {
		t.Errorf("image size = %d", meta.ImageSize)
	}
	if meta.Interpolation != "bicubic" {
		t.Errorf("interpolation = %q, want bicubic", meta.Interpolation)
	}

	crop, err := LoadCropMetadata(filepath.Join("..", "..", "models", "crop_metadata.json"))
	if err != nil {
		t.Fatalf("LoadCropMetadata: %v", err)
	}
	if got := crop.InputShape(); got[0] != 1 || got[1] != 3 {
		t.Errorf("crop input shape = %v", got)
	}
}

func TestDefaultInterpolationIsBicubic(t *testing.T) {
	if got := testMetadata().Interpolation; got != "bicubic" {
		t.Errorf("default interpolation = %q, want bicubic", got)
	}
}

func TestMetadataValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Metadata)
	}{
		{"missing version", func(m *Metadata) { m.Version = "" }},
		{"no classes", func(m *Metadata) { m.Classes = nil; m.OutputShape = []int64{1, 0} }},
		{"empty label", func(m *Metadata) { m.Classes[1] = "" }},
		{"duplicate label", func(m *Metadata) { m.Classes[2] = m.Classes[0] }},
		{"output shape mismatch", func(m *Metadata) { m.OutputShape = []int64{1, 46} }},
		{"zero std", func(m *Metadata) { m.Std[1] = 0 }},
		{"two channel mean", func(m *Metadata) { m.Mean = m.Mean[:2] }},
		{"input shape mismatch", func(m *Metadata) { m.InputShape = []int64{1, 3, 128, 128} }},
		{"bad interpolation", func(m *Metadata) { m.Interpolation = "sinc" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := testMetadata()
			tt.mutate(&m)
			if err := m.Validate(); !errors.Is(err, ErrInvalidMetadata) {
				t.Errorf("Validate() = %v, want ErrInvalidMetadata", err)
			}
		})
	}

	if err := testMetadata().Validate(); err != nil {
		t.Errorf("valid metadata rejected: %v", err)
	}
}

func TestLoadMetadataErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := LoadMetadata(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadMetadata(bad); err == nil {
		t.Error("expected error for malformed file")
	}
}

func TestPreprocessBlackImage(t *testing.T) {
	meta := testMetadata()
	img := image.NewRGBA(image.Rect(0, 0, 300, 200))
	for y := 0; y < 200; y++ {
		for x := 0; x < 300; x++ {
			img.Set(x, y, color.RGBA{A: 255})
		}
	}

	data, err := Preprocess(img, meta)
	if err != nil {
		t.Fatalf("Preprocess: %v", err)
	}
	plane := 224 * 224
	if len(data) != 3*plane {
		t.Fatalf("len = %d, want %d", len(data), 3*plane)
	}
	for c := 0; c < 3; c++ {
		want := -meta.Mean[c] / meta.Std[c]
		for _, i := range []int{0, plane / 2, plane - 1} {
			if got := data[c*plane+i]; math.Abs(float64(got-want)) > 1e-5 {
				t.Fatalf("channel %d index %d = %f, want %f", c, i, got, want)
			}
		}
	}
}

func TestPreprocessChannelOrder(t *testing.T) {
	meta := testMetadata()
	meta.Interpolation = "nearest"
	img := image.NewNRGBA(image.Rect(0, 0, 10, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			img.Set(x, y, color.NRGBA{R: 255, A: 255})
		}
	}

	data, err := Preprocess(img, meta)
	if err != nil {
		t.Fatal(err)
	}
	plane := 224 * 224
	red := (1 - meta.Mean[0]) / meta.Std[0]
	green := -meta.Mean[1] / meta.Std[1]
	if math.Abs(float64(data[0]-red)) > 1e-5 {
		t.Errorf("red plane = %f, want %f", data[0], red)
	}
	if math.Abs(float64(data[plane]-green)) > 1e-5 {
		t.Errorf("green plane = %f, want %f", data[plane], green)
	}
}

func TestPreprocessEmptyImage(t *testing.T) {
	if _, err := Preprocess(image.NewRGBA(image.Rect(0, 0, 0, 0)), testMetadata()); err == nil {
		t.Error("expected error for empty image")
	}
}

func TestPickLabel(t *testing.T) {
	labels := []string{"a", "b", "c"}

	got, err := pickLabel([]float32{0.1, 0.7, 0.2}, labels)
	if err != nil || got != "b" {
		t.Errorf("pickLabel = %q, %v", got, err)
	}

	got, _ = pickLabel([]float32{0.5, 0.5, 0.1}, labels)
	if got != "a" {
		t.Errorf("tie should pick first, got %q", got)
	}

	if _, err := pickLabel([]float32{0, 0, 0, 9}, labels); !errors.Is(err, ErrUnknownLabel) {
		t.Errorf("expected ErrUnknownLabel, got %v", err)
	}
	if _, err := pickLabel(nil, labels); err == nil {
		t.Error("expected error for empty scores")
	}
}
