package model

import "fmt"

func (s Scaler) validate(n int) error {
	if len(s.Scale) != n {
		return fmt.Errorf("%w: scaler has %d scale values for %d features",
			ErrInvalidMetadata, len(s.Scale), n)
	}
	switch s.Kind {
	case ScalerStandard:
		if len(s.Mean) != n {
			return fmt.Errorf("%w: scaler has %d mean values for %d features",
				ErrInvalidMetadata, len(s.Mean), n)
		}
		for i, v := range s.Scale {
			if v == 0 {
				return fmt.Errorf("%w: scaler scale[%d] is zero", ErrInvalidMetadata, i)
			}
		}
	case ScalerMinMax:
		if len(s.Min) != n {
			return fmt.Errorf("%w: scaler has %d min values for %d features",
				ErrInvalidMetadata, len(s.Min), n)
		}
	default:
		return fmt.Errorf("%w: unknown scaler kind %q", ErrInvalidMetadata, s.Kind)
	}
	return nil
}

// Transform scales one feature row. The row must already be in the
// column order the scaler was fitted with.
func (s Scaler) Transform(row []float64) ([]float32, error) {
	if len(row) != len(s.Scale) {
		return nil, fmt.Errorf("scaler expects %d features, got %d", len(s.Scale), len(row))
	}
	out := make([]float32, len(row))
	for i, x := range row {
		switch s.Kind {
		case ScalerMinMax:
			out[i] = float32(x*s.Scale[i] + s.Min[i])
		default:
			out[i] = float32((x - s.Mean[i]) / s.Scale[i])
		}
	}
	return out, nil
}

// FeatureRow arranges a reading into the given column order.
func FeatureRow(r SensorReading, columns []string) ([]float64, error) {
	row := make([]float64, len(columns))
	for i, name := range columns {
		v, ok := featureValue(r, name)
		if !ok {
			return nil, fmt.Errorf("unknown feature column %q", name)
		}
		row[i] = v
	}
	return row, nil
}

func featureValue(r SensorReading, name string) (float64, bool) {
	switch name {
	case "temperature":
		return r.Temperature, true
	case "humidity":
		return r.Humidity, true
	case "ph":
		return r.PH, true
	}
	return 0, false
}
