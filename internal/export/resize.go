package export

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	_ "image/gif"
	_ "image/jpeg"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// CoverResize scales src to exactly width x height: the largest centered
// region of the source matching the target aspect ratio is cropped and
// resampled, no letterboxing. Pure function of the input bytes and target
// dims, so repeated calls are pixel-identical.
func CoverResize(src []byte, width, height int) ([]byte, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid target dimensions %dx%d", width, height)
	}

	img, _, err := image.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	crop := coverCrop(img.Bounds(), width, height)

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, crop, draw.Src, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}

// coverCrop returns the largest centered sub-rectangle of bounds with the
// target aspect ratio.
func coverCrop(bounds image.Rectangle, width, height int) image.Rectangle {
	srcW, srcH := bounds.Dx(), bounds.Dy()

	// Compare aspect ratios with integer cross-multiplication.
	if srcW*height > width*srcH {
		// Source is wider than the target: crop horizontally.
		cropW := srcH * width / height
		x0 := bounds.Min.X + (srcW-cropW)/2
		return image.Rect(x0, bounds.Min.Y, x0+cropW, bounds.Max.Y)
	}

	// Source is taller: crop vertically.
	cropH := srcW * height / width
	y0 := bounds.Min.Y + (srcH-cropH)/2
	return image.Rect(bounds.Min.X, y0, bounds.Max.X, y0+cropH)
}
