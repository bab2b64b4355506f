package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"io"

	_ "golang.org/x/image/webp"
)

var ErrUnsupportedImage = errors.New("unsupported or corrupt image")

const DefaultMargin = 0.35

// MaxPixels caps the decoded size of an upload, checked from the header.
const MaxPixels = 40_000_000

// Processor turns uploaded photos into JPEG thumbnails.
type Processor struct {
	quality   int
	size      int
	margin    float64
	maxPixels int
}

func NewProcessor(quality, size int) *Processor {
	if quality <= 0 || quality > 100 {
		quality = 85
	}
	if size <= 0 {
		size = 400
	}
	return &Processor{quality: quality, size: size, margin: DefaultMargin, maxPixels: MaxPixels}
}

// Thumbnail decodes a JPEG, PNG or WebP image, crops around box and encodes a JPEG.
func (p *Processor) Thumbnail(reader io.Reader, box *Box) (*bytes.Buffer, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > int64(p.maxPixels) {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrUnsupportedImage, cfg.Width, cfg.Height, p.maxPixels)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}

	thumb := FaceCrop(img, box, p.margin, p.size)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: p.quality}); err != nil {
		return nil, fmt.Errorf("failed to encode JPEG: %w", err)
	}
	return &buf, nil
}
