package capture

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/jpeg"

	"golang.org/x/image/draw"
)

const (
	MaxDimension = 1024
	JPEGQuality  = 60
)

// scaledSize clamps the larger side to MaxDimension and keeps the aspect ratio.
func scaledSize(width, height int) (int, int) {
	if width > height {
		if width > MaxDimension {
			height = roundDiv(height*MaxDimension, width)
			width = MaxDimension
		}
	} else if height > MaxDimension {
		width = roundDiv(width*MaxDimension, height)
		height = MaxDimension
	}
	return width, height
}

func roundDiv(a, b int) int {
	return (2*a + b) / (2 * b)
}

// EncodeJPEG downsamples img if needed and returns it as bare base64 JPEG.
func EncodeJPEG(img image.Image) (string, error) {
	b := img.Bounds()
	w, h := scaledSize(b.Dx(), b.Dy())

	var src image.Image = img
	if w != b.Dx() || h != b.Dy() {
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
		src = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, src, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
