package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
)

// ErrDecode is returned when the input bytes are not a decodable image.
var ErrDecode = errors.New("undecodable image data")

const webpQuality = 80

// Resizer re-encodes an image to fit a bounding box.
type Resizer interface {
	Resize(data []byte, targetWidth, targetHeight int) ([]byte, error)
}

// WebpResizer downscales into the bounding box preserving aspect ratio and
// re-encodes as lossy webp at a fixed quality. It never upscales: an image
// already smaller than the box keeps its dimensions.
type WebpResizer struct{}

func NewWebpResizer() *WebpResizer { return &WebpResizer{} }

func (r *WebpResizer) Resize(data []byte, targetWidth, targetHeight int) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	bounds := src.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()

	ratioX := float64(targetWidth) / float64(srcW)
	ratioY := float64(targetHeight) / float64(srcH)
	ratio := ratioX
	if ratioY < ratio {
		ratio = ratioY
	}
	if ratio > 1.0 {
		ratio = 1.0
	}

	newW := int(float64(srcW) * ratio)
	newH := int(float64(srcH) * ratio)

	resized := imaging.Resize(src, newW, newH, imaging.Lanczos)

	var out bytes.Buffer
	if err := webp.Encode(&out, resized, &webp.Options{Quality: webpQuality}); err != nil {
		return nil, fmt.Errorf("encode webp: %w", err)
	}
	return out.Bytes(), nil
}

// Dimensions decodes only the image header and reports its size.
func Dimensions(data []byte) (width, height int, err error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return cfg.Width, cfg.Height, nil
}
