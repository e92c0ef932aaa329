package watermark

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	_ "image/png"
)

// Watermarker marks a result image as produced on the free plan.
type Watermarker interface {
	Apply(data []byte) ([]byte, error)
}

// OverlayWatermarker stamps a translucent band across the bottom of the
// image. Free-plan results carry it permanently; premium results skip the
// whole step.
type OverlayWatermarker struct {
	// Band height as a fraction of image height.
	bandFraction float64
}

func NewOverlayWatermarker() *OverlayWatermarker {
	return &OverlayWatermarker{bandFraction: 0.06}
}

func (w *OverlayWatermarker) Apply(data []byte) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("watermark decode: %w", err)
	}

	bounds := src.Bounds()
	dst := image.NewRGBA(bounds)
	draw.Draw(dst, bounds, src, bounds.Min, draw.Src)

	bandHeight := int(float64(bounds.Dy()) * w.bandFraction)
	if bandHeight < 12 {
		bandHeight = 12
	}
	band := image.Rect(bounds.Min.X, bounds.Max.Y-bandHeight, bounds.Max.X, bounds.Max.Y)
	overlay := image.NewUniform(color.RGBA{A: 160})
	draw.Draw(dst, band, overlay, image.Point{}, draw.Over)

	var out bytes.Buffer
	if err := jpeg.Encode(&out, dst, &jpeg.Options{Quality: 90}); err != nil {
		return nil, fmt.Errorf("watermark encode: %w", err)
	}
	return out.Bytes(), nil
}
