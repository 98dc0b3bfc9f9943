package model

import (
	"errors"
	"fmt"
	"image"
)

var ErrUnknownLabel = errors.New("prediction index outside label table")

// LeafClassifier runs the leaf disease graph over decoded images.
type LeafClassifier struct {
	Metadata Metadata
	sess     *session
}

func NewLeafClassifier(modelPath string, meta Metadata) (*LeafClassifier, error) {
	sess, err := newSession(modelPath, meta.InputName, meta.OutputName, meta.InputShape, meta.OutputShape)
	if err != nil {
		return nil, err
	}
	return &LeafClassifier{Metadata: meta, sess: sess}, nil
}

func (c *LeafClassifier) Classify(img image.Image) (ClassificationResult, error) {
	input, err := Preprocess(img, c.Metadata)
	if err != nil {
		return ClassificationResult{}, fmt.Errorf("preprocess: %w", err)
	}

	scores, err := c.sess.run(input)
	if err != nil {
		return ClassificationResult{}, err
	}

	label, err := pickLabel(scores, c.Metadata.Classes)
	if err != nil {
		return ClassificationResult{}, err
	}
	return ClassificationResult{PredictedClass: label}, nil
}

func (c *LeafClassifier) Close() {
	c.sess.close()
}

func pickLabel(scores []float32, labels []string) (string, error) {
	if len(scores) == 0 {
		return "", fmt.Errorf("model returned no scores")
	}
	idx := argmax(scores)
	if idx >= len(labels) {
		return "", fmt.Errorf("%w: index %d, %d labels", ErrUnknownLabel, idx, len(labels))
	}
	return labels[idx], nil
}
