package model

import (
	"fmt"
	"image"
	"image/color"

	"github.com/nfnt/resize"
)

// Interpolation maps a metadata interpolation name to a resize kernel.
func Interpolation(name string) (resize.InterpolationFunction, error) {
	switch name {
	case "nearest":
		return resize.NearestNeighbor, nil
	case "bilinear":
		return resize.Bilinear, nil
	case "bicubic":
		return resize.Bicubic, nil
	case "mitchell":
		return resize.MitchellNetravali, nil
	case "lanczos2":
		return resize.Lanczos2, nil
	case "lanczos3":
		return resize.Lanczos3, nil
	}
	return 0, fmt.Errorf("%w: unknown interpolation %q", ErrInvalidMetadata, name)
}

// Preprocess converts an image to the normalized CHW tensor expected by the
// leaf graph: square resize, RGB, (v/255 - mean) / std per channel.
// The batch dimension is implicit; the returned slice is exactly
// 3*size*size long.
func Preprocess(img image.Image, meta Metadata) ([]float32, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, fmt.Errorf("empty image")
	}
	interp, err := Interpolation(meta.Interpolation)
	if err != nil {
		return nil, err
	}

	size := uint(meta.ImageSize)
	resized := resize.Resize(size, size, img, interp)

	bounds := resized.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width != meta.ImageSize || height != meta.ImageSize {
		return nil, fmt.Errorf("resize produced %dx%d, want %dx%d",
			width, height, meta.ImageSize, meta.ImageSize)
	}

	plane := width * height
	data := make([]float32, 3*plane)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			// Alpha is dropped, not premultiplied.
			px := color.NRGBAModel.Convert(resized.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.NRGBA)

			i := y*width + x
			data[i] = normalize(px.R, meta.Mean[0], meta.Std[0])
			data[plane+i] = normalize(px.G, meta.Mean[1], meta.Std[1])
			data[2*plane+i] = normalize(px.B, meta.Mean[2], meta.Std[2])
		}
	}

	return data, nil
}

func normalize(v uint8, mean, std float32) float32 {
	return (float32(v)/255.0 - mean) / std
}

// argmax returns the index of the highest score, the first one on ties.
func argmax(scores []float32) int {
	best := 0
	for i, v := range scores {
		if v > scores[best] {
			best = i
		}
	}
	return best
}
