package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

const (
	defaultImageSize     = 224
	defaultInterpolation = "bicubic"
	ScalerStandard       = "standard"
	ScalerMinMax         = "minmax"
)

var ErrInvalidMetadata = errors.New("invalid model metadata")

// LoadMetadata reads and validates the leaf model metadata file.
func LoadMetadata(path string) (Metadata, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to read metadata: %w", err)
	}

	var meta Metadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return Metadata{}, fmt.Errorf("failed to parse metadata: %w", err)
	}
	meta.applyDefaults()
	if err := meta.Validate(); err != nil {
		return Metadata{}, err
	}
	return meta, nil
}

// LoadCropMetadata reads and validates the crop model metadata file.
func LoadCropMetadata(path string) (CropMetadata, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return CropMetadata{}, fmt.Errorf("failed to read crop metadata: %w", err)
	}

	var meta CropMetadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return CropMetadata{}, fmt.Errorf("failed to parse crop metadata: %w", err)
	}
	meta.applyDefaults()
	if err := meta.Validate(); err != nil {
		return CropMetadata{}, err
	}
	return meta, nil
}

func (m *Metadata) applyDefaults() {
	if m.InputName == "" {
		m.InputName = "input"
	}
	if m.OutputName == "" {
		m.OutputName = "output"
	}
	if m.ImageSize == 0 {
		m.ImageSize = defaultImageSize
	}
	if m.Interpolation == "" {
		m.Interpolation = defaultInterpolation
	}
	size := int64(m.ImageSize)
	if len(m.InputShape) == 0 {
		m.InputShape = []int64{1, 3, size, size}
	}
	if len(m.OutputShape) == 0 {
		m.OutputShape = []int64{1, int64(len(m.Classes))}
	}
}

// Validate checks the metadata for internal consistency. A label table
// that does not line up with the graph output is rejected here rather
// than at the first request.
func (m Metadata) Validate() error {
	if m.Version == "" {
		return fmt.Errorf("%w: version is required", ErrInvalidMetadata)
	}
	if err := validateLabels("class", m.Classes); err != nil {
		return err
	}
	if len(m.Mean) != 3 || len(m.Std) != 3 {
		return fmt.Errorf("%w: mean and std need 3 channels, got %d and %d",
			ErrInvalidMetadata, len(m.Mean), len(m.Std))
	}
	for i, s := range m.Std {
		if s <= 0 {
			return fmt.Errorf("%w: std[%d] must be positive", ErrInvalidMetadata, i)
		}
	}
	if m.ImageSize <= 0 {
		return fmt.Errorf("%w: image_size must be positive", ErrInvalidMetadata)
	}
	if _, err := Interpolation(m.Interpolation); err != nil {
		return err
	}

	size := int64(m.ImageSize)
	want := []int64{1, 3, size, size}
	if !equalShape(m.InputShape, want) {
		return fmt.Errorf("%w: input_shape %v does not match %v",
			ErrInvalidMetadata, m.InputShape, want)
	}
	if len(m.OutputShape) == 0 || m.OutputShape[len(m.OutputShape)-1] != int64(len(m.Classes)) {
		return fmt.Errorf("%w: output_shape %v does not match %d classes",
			ErrInvalidMetadata, m.OutputShape, len(m.Classes))
	}
	if m.OutputShape[0] != 1 {
		return fmt.Errorf("%w: output batch dimension must be 1", ErrInvalidMetadata)
	}
	return nil
}

func (m *CropMetadata) applyDefaults() {
	if m.InputName == "" {
		m.InputName = "float_input"
	}
	if m.OutputName == "" {
		m.OutputName = "probabilities"
	}
	if len(m.Features) == 0 {
		m.Features = []string{"temperature", "humidity", "ph"}
	}
	if m.Scaler.Kind == "" {
		m.Scaler.Kind = ScalerStandard
	}
}

func (m CropMetadata) Validate() error {
	if m.Version == "" {
		return fmt.Errorf("%w: crop version is required", ErrInvalidMetadata)
	}
	if err := validateLabels("crop", m.Crops); err != nil {
		return err
	}
	for _, f := range m.Features {
		if _, ok := featureValue(SensorReading{}, f); !ok {
			return fmt.Errorf("%w: unknown feature %q", ErrInvalidMetadata, f)
		}
	}
	return m.Scaler.validate(len(m.Features))
}

// InputShape is the single-row feature table fed to the classifier.
func (m CropMetadata) InputShape() []int64 {
	return []int64{1, int64(len(m.Features))}
}

func (m CropMetadata) OutputShape() []int64 {
	return []int64{1, int64(len(m.Crops))}
}

func validateLabels(kind string, labels []string) error {
	if len(labels) == 0 {
		return fmt.Errorf("%w: no %s labels", ErrInvalidMetadata, kind)
	}
	seen := make(map[string]bool, len(labels))
	for i, l := range labels {
		if l == "" {
			return fmt.Errorf("%w: %s label %d is empty", ErrInvalidMetadata, kind, i)
		}
		if seen[l] {
			return fmt.Errorf("%w: duplicate %s label %q", ErrInvalidMetadata, kind, l)
		}
		seen[l] = true
	}
	return nil
}

func equalShape(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
