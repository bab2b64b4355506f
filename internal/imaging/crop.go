// Package imaging produces face-centred square thumbnails from uploaded photos.
package imaging

import (
	"image"
	"math"

	"golang.org/x/image/draw"
)

// Box is a face bounding box in image pixel coordinates, as reported by the
// client-side detector.
type Box struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (b *Box) empty() bool {
	return b == nil || b.Width <= 0 || b.Height <= 0
}

// CropRect returns the square region to cut from bounds for box. The face box
// is grown by margin (a fraction of its size) on every side, squared around
// its centre, shrunk to the shorter image side when too large, then shifted
// so it lies fully inside bounds. An empty box yields a centred square.
func CropRect(bounds image.Rectangle, box *Box, margin float64) image.Rectangle {
	w, h := bounds.Dx(), bounds.Dy()
	maxSide := min(w, h)
	if maxSide <= 0 {
		return image.Rectangle{}
	}

	var side, cx, cy float64
	if box.empty() {
		side = float64(maxSide)
		cx, cy = float64(w)/2, float64(h)/2
	} else {
		if margin < 0 {
			margin = 0
		}
		bw := float64(box.Width) * (1 + 2*margin)
		bh := float64(box.Height) * (1 + 2*margin)
		side = math.Max(bw, bh)
		cx = float64(box.X) + float64(box.Width)/2
		cy = float64(box.Y) + float64(box.Height)/2
	}

	s := int(math.Round(side))
	if s > maxSide {
		s = maxSide
	}
	if s < 1 {
		s = 1
	}

	left := clamp(int(math.Round(cx-float64(s)/2)), 0, w-s)
	top := clamp(int(math.Round(cy-float64(s)/2)), 0, h-s)

	return image.Rect(left, top, left+s, top+s).Add(bounds.Min)
}

// FaceCrop cuts CropRect(img.Bounds(), box, margin) and scales it to size×size.
func FaceCrop(img image.Image, box *Box, margin float64, size int) image.Image {
	rect := CropRect(img.Bounds(), box, margin)
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	if rect.Empty() {
		return dst
	}
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, rect, draw.Over, nil)
	return dst
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
