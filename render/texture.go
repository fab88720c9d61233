package render

import (
	"image"

	xdraw "golang.org/x/image/draw"
)

// DefaultTextureMaxSize is the largest texture edge accepted without
// downscaling.
const DefaultTextureMaxSize = 4096

// ConvertImage returns img as a tightly packed *image.RGBA with its origin
// at (0, 0). Images whose larger edge exceeds maxSize are scaled down,
// preserving the aspect ratio. maxSize <= 0 disables scaling.
//
// The returned image never aliases img.
func ConvertImage(img image.Image, maxSize int) *image.RGBA {
	if img == nil {
		return nil
	}
	src := img.Bounds()
	w, h := src.Dx(), src.Dy()
	if w <= 0 || h <= 0 {
		return nil
	}

	if maxSize > 0 && (w > maxSize || h > maxSize) {
		if w >= h {
			h = max(1, h*maxSize/w)
			w = maxSize
		} else {
			w = max(1, w*maxSize/h)
			h = maxSize
		}
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, src, xdraw.Src, nil)
		return dst
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.Draw(dst, dst.Bounds(), img, src.Min, xdraw.Src)
	return dst
}
