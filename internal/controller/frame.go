package controller

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
)

// RotateFrame turns an encoded frame by degrees (0 or 180) and re-encodes
// it as JPEG. A zero rotation returns the frame untouched.
func RotateFrame(frame []byte, degrees int) ([]byte, error) {
	const op = "rotate frame"
	switch degrees {
	case 0:
		return frame, nil
	case 180:
	default:
		return nil, fmt.Errorf("%s: unsupported rotation %d", op, degrees)
	}

	src, _, err := image.Decode(bytes.NewReader(frame))
	if err != nil {
		return nil, decodeErr(op, err)
	}

	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			dst.Set(b.Max.X-1-x, b.Max.Y-1-y, color.NRGBAModel.Convert(src.At(x, y)))
		}
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpeg.DefaultQuality}); err != nil {
		return nil, fmt.Errorf("%s: encode jpeg: %w", op, err)
	}
	return buf.Bytes(), nil
}
