package model

// Metadata describes the leaf classification graph and how images are
// prepared for it. It is loaded once at startup and never mutated.
type Metadata struct {
	Version       string    `json:"version"`
	InputName     string    `json:"input_name"`
	OutputName    string    `json:"output_name"`
	InputShape    []int64   `json:"input_shape"`
	OutputShape   []int64   `json:"output_shape"`
	Classes       []string  `json:"classes"`
	ImageSize     int       `json:"image_size"`
	Mean          []float32 `json:"mean"`
	Std           []float32 `json:"std"`
	Interpolation string    `json:"interpolation"`
}

// CropMetadata describes the crop recommendation classifier: the feature
// column order, the fitted scaler and the label for each output index.
type CropMetadata struct {
	Version    string   `json:"version"`
	InputName  string   `json:"input_name"`
	OutputName string   `json:"output_name"`
	Features   []string `json:"features"`
	Crops      []string `json:"crops"`
	Scaler     Scaler   `json:"scaler"`
}

// Scaler holds the parameters of a pre-fitted feature scaler.
// Standard: (x - mean) / scale. MinMax: x*scale + min.
type Scaler struct {
	Kind  string    `json:"kind"`
	Mean  []float64 `json:"mean,omitempty"`
	Scale []float64 `json:"scale"`
	Min   []float64 `json:"min,omitempty"`
}

// SensorReading is one soil sample as reported by a sensor node.
type SensorReading struct {
	Temperature float64 `json:"temperature" yaml:"temperature"`
	Humidity    float64 `json:"humidity" yaml:"humidity"`
	PH          float64 `json:"ph" yaml:"ph"`
}

type ClassificationResult struct {
	PredictedClass string `json:"predicted_class"`
}

type CropRecommendation struct {
	RecommendedCrop string `json:"Recommended Crop"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// Info is the read-only view of both models exposed by /model-info.
type Info struct {
	LeafVersion string   `json:"leaf_version"`
	Classes     []string `json:"classes"`
	ImageSize   int      `json:"image_size"`
	CropVersion string   `json:"crop_version"`
	Features    []string `json:"features"`
	Crops       []string `json:"crops"`
}

func NewInfo(leaf Metadata, crop CropMetadata) Info {
	return Info{
		LeafVersion: leaf.Version,
		Classes:     leaf.Classes,
		ImageSize:   leaf.ImageSize,
		CropVersion: crop.Version,
		Features:    crop.Features,
		Crops:       crop.Crops,
	}
}
