package model

import "fmt"

// CropRecommender scales a soil reading and runs the crop classifier.
type CropRecommender struct {
	Metadata CropMetadata
	sess     *session
}

func NewCropRecommender(modelPath string, meta CropMetadata) (*CropRecommender, error) {
	sess, err := newSession(modelPath, meta.InputName, meta.OutputName, meta.InputShape(), meta.OutputShape())
	if err != nil {
		return nil, err
	}
	return &CropRecommender{Metadata: meta, sess: sess}, nil
}

func (c *CropRecommender) Recommend(r SensorReading) (CropRecommendation, error) {
	input, err := ScaleReading(r, c.Metadata)
	if err != nil {
		return CropRecommendation{}, err
	}

	scores, err := c.sess.run(input)
	if err != nil {
		return CropRecommendation{}, err
	}

	crop, err := pickLabel(scores, c.Metadata.Crops)
	if err != nil {
		return CropRecommendation{}, err
	}
	return CropRecommendation{RecommendedCrop: crop}, nil
}

func (c *CropRecommender) Close() {
	c.sess.close()
}

// ScaleReading builds the scaled single-row feature vector for a reading.
func ScaleReading(r SensorReading, meta CropMetadata) ([]float32, error) {
	row, err := FeatureRow(r, meta.Features)
	if err != nil {
		return nil, err
	}
	scaled, err := meta.Scaler.Transform(row)
	if err != nil {
		return nil, fmt.Errorf("scale features: %w", err)
	}
	return scaled, nil
}
